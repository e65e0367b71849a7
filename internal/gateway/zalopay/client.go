// Package zalopay is a client for the ZaloPay v2 order API: order creation, status query
// and callback signature verification.
package zalopay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"hotel-booking/pkg/apperror"
	"hotel-booking/pkg/utils"

	"go.uber.org/zap"
)

const (
	merchantInfo = "ZaloPay Merchant"
	itemName     = "Payment for order"

	// ReturnCodeSuccess is the gateway's success code for both order creation and status query.
	ReturnCodeSuccess = 1
	// ReturnCodeFailed marks a definitively failed payment in a status query.
	ReturnCodeFailed = 2
	// ReturnCodeProcessing marks a payment the gateway is still processing.
	ReturnCodeProcessing = 3
)

// ErrMissingFields is returned by CreateOrder when amount, orderID or description is empty.
var ErrMissingFields = apperror.InvalidInput("Missing required fields")

type OrderRequest struct {
	Amount      int64
	OrderID     string
	Description string
}

// Order is the hosted payment the client should redirect to.
type Order struct {
	OrderURL     string `json:"order_url"`
	QRCode       string `json:"qr_code"`
	ZpTransToken string `json:"zp_trans_token"`
	OrderToken   string `json:"order_token"`
	AppTransID   string `json:"app_trans_id"`
}

// EmbedData travels through the gateway untouched and comes back in callbacks.
type EmbedData struct {
	MerchantInfo string `json:"merchantinfo"`
	RedirectURL  string `json:"redirecturl"`
	OrderID      string `json:"orderId"`
	CallbackURL  string `json:"callbackurl"`
}

type item struct {
	ItemID       string `json:"itemid"`
	ItemName     string `json:"itemname"`
	ItemPrice    int64  `json:"itemprice"`
	ItemQuantity int    `json:"itemquantity"`
}

type createResponse struct {
	ReturnCode       int    `json:"return_code"`
	ReturnMessage    string `json:"return_message"`
	SubReturnCode    int    `json:"sub_return_code"`
	SubReturnMessage string `json:"sub_return_message"`
	OrderURL         string `json:"order_url"`
	ZpTransToken     string `json:"zp_trans_token"`
	OrderToken       string `json:"order_token"`
	QRCode           string `json:"qr_code"`
}

// OrderStatus is the normalized result of a status query.
type OrderStatus struct {
	ReturnCode       int    `json:"return_code"`
	ReturnMessage    string `json:"return_message"`
	SubReturnCode    int    `json:"sub_return_code"`
	SubReturnMessage string `json:"sub_return_message"`
	IsProcessing     bool   `json:"is_processing"`
	Amount           int64  `json:"amount"`
	DiscountAmount   int64  `json:"discount_amount"`
	ZpTransID        int64  `json:"zp_trans_id"`
	EmbedData        string `json:"embed_data,omitempty"`
}

type Client struct {
	cfg   utils.PaymentConfig
	http  *http.Client
	retry utils.RetryPolicy
	now   func() time.Time
	log   *zap.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func WithRetryPolicy(p utils.RetryPolicy) Option {
	return func(c *Client) { c.retry = p }
}

func NewClient(cfg utils.PaymentConfig, log *zap.Logger, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
		retry: utils.RetryPolicy{
			MaxRetries:    1,
			InitialDelay:  200 * time.Millisecond,
			MaxDelay:      2 * time.Second,
			BackoffFactor: 2,
		},
		now: time.Now,
		log: log.With(zap.String("gateway", "zalopay")),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Sign returns the lowercase hex HMAC-SHA256 of data under key.
func Sign(key, data string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifyCallback checks a callback's mac against the data signed with key2.
func (c *Client) VerifyCallback(data, mac string) bool {
	expected := Sign(c.cfg.Key2, data)
	return hmac.Equal([]byte(expected), []byte(strings.ToLower(mac)))
}

// ParseEmbedData decodes the embed_data blob carried by callbacks and status queries.
func ParseEmbedData(raw string) (EmbedData, error) {
	var embed EmbedData
	if raw == "" {
		return embed, errors.New("embed_data is empty")
	}
	if err := json.Unmarshal([]byte(raw), &embed); err != nil {
		return embed, fmt.Errorf("decode embed_data: %w", err)
	}
	return embed, nil
}

func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	if req.Amount <= 0 || req.OrderID == "" || req.Description == "" {
		return nil, ErrMissingFields
	}

	now := c.now()
	appTransID := utils.GenerateAppTransID(now)

	embed, err := json.Marshal(EmbedData{
		MerchantInfo: merchantInfo,
		RedirectURL:  c.cfg.RedirectURL,
		OrderID:      req.OrderID,
		CallbackURL:  c.cfg.CallbackURL,
	})
	if err != nil {
		return nil, apperror.Internal("Payment creation failed", err)
	}
	items, err := json.Marshal([]item{{
		ItemID:       req.OrderID,
		ItemName:     itemName,
		ItemPrice:    req.Amount,
		ItemQuantity: 1,
	}})
	if err != nil {
		return nil, apperror.Internal("Payment creation failed", err)
	}

	amount := strconv.FormatInt(req.Amount, 10)
	appTime := strconv.FormatInt(now.UnixMilli(), 10)

	params := url.Values{}
	params.Set("app_id", c.cfg.AppID)
	params.Set("app_trans_id", appTransID)
	params.Set("app_user", c.cfg.AppUser)
	params.Set("app_time", appTime)
	params.Set("item", string(items))
	params.Set("embed_data", string(embed))
	params.Set("amount", amount)
	params.Set("description", fmt.Sprintf("Payment for order %s: %s", req.OrderID, req.Description))
	params.Set("bank_code", c.cfg.BankCode)
	params.Set("callback_url", c.cfg.CallbackURL)
	params.Set("mac", Sign(c.cfg.Key1, strings.Join([]string{
		c.cfg.AppID, appTransID, c.cfg.AppUser, amount, appTime, string(embed), string(items),
	}, "|")))

	var resp createResponse
	err = c.do(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint+"?"+params.Encode(), nil)
	}, &resp)
	if err != nil {
		c.log.Error("Failed to create gateway order",
			zap.Error(err),
			zap.String("order_id", req.OrderID),
			zap.String("app_trans_id", appTransID),
		)
		return nil, apperror.Upstream("Payment creation failed", err.Error(), err)
	}

	if resp.ReturnCode != ReturnCodeSuccess {
		c.log.Warn("Gateway rejected order",
			zap.Int("return_code", resp.ReturnCode),
			zap.String("return_message", resp.ReturnMessage),
			zap.Int("sub_return_code", resp.SubReturnCode),
			zap.String("order_id", req.OrderID),
		)
		detail := map[string]any{
			"return_code":        resp.ReturnCode,
			"return_message":     resp.ReturnMessage,
			"sub_return_code":    resp.SubReturnCode,
			"sub_return_message": resp.SubReturnMessage,
		}
		return nil, apperror.Upstream("Payment creation failed", detail,
			fmt.Errorf("gateway return_code %d: %s", resp.ReturnCode, resp.ReturnMessage))
	}

	qr := resp.QRCode
	if qr == "" {
		qr = resp.OrderURL
	}

	return &Order{
		OrderURL:     resp.OrderURL,
		QRCode:       qr,
		ZpTransToken: resp.ZpTransToken,
		OrderToken:   resp.OrderToken,
		AppTransID:   appTransID,
	}, nil
}

func (c *Client) QueryOrderStatus(ctx context.Context, appTransID string) (*OrderStatus, error) {
	if appTransID == "" {
		return nil, apperror.InvalidInput("app_trans_id is required")
	}

	form := url.Values{}
	form.Set("app_id", c.cfg.AppID)
	form.Set("app_trans_id", appTransID)
	form.Set("mac", Sign(c.cfg.Key1, strings.Join([]string{c.cfg.AppID, appTransID, c.cfg.Key1}, "|")))
	body := form.Encode()

	var status OrderStatus
	err := c.do(ctx, func() (*http.Request, error) {
		r, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.QueryEndpoint, strings.NewReader(body))
		if err != nil {
			return nil, err
		}
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return r, nil
	}, &status)
	if err != nil {
		c.log.Error("Failed to query order status",
			zap.Error(err),
			zap.String("app_trans_id", appTransID),
		)
		return nil, apperror.Upstream("Order status query failed", err.Error(), err)
	}

	return &status, nil
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("gateway responded %d: %s", e.code, e.body)
}

// do sends the request built by build and decodes a JSON body into out. Transport errors and 5xx
// responses are retried up to the policy's MaxRetries.
func (c *Client) do(ctx context.Context, build func() (*http.Request, error), out any) error {
	var lastErr error
	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retry.NextDelay(attempt)
			c.log.Warn("Retrying gateway call",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(lastErr),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := build()
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}

		retryable, err := c.send(req, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if !retryable {
			return err
		}
	}
	return lastErr
}

func (c *Client) send(req *http.Request, out any) (bool, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return req.Context().Err() == nil, fmt.Errorf("call gateway: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return true, fmt.Errorf("read gateway response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode >= 500, &statusError{code: resp.StatusCode, body: string(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return false, fmt.Errorf("decode gateway response: %w", err)
	}
	return false, nil
}
