package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"hotel-booking/internal/data/entity"
	"hotel-booking/internal/data/repository"
	"hotel-booking/internal/dto/request"
	"hotel-booking/internal/dto/response"
	"hotel-booking/internal/gateway/zalopay"
	"hotel-booking/pkg/apperror"
	"hotel-booking/pkg/metrics"
	"hotel-booking/pkg/mq"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentGateway is the subset of the ZaloPay client the payment flow depends on.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, req zalopay.OrderRequest) (*zalopay.Order, error)
	QueryOrderStatus(ctx context.Context, appTransID string) (*zalopay.OrderStatus, error)
	VerifyCallback(data, mac string) bool
}

type PaymentService interface {
	CreatePayment(ctx context.Context, userID uuid.UUID, req *request.CreatePaymentRequest) (*response.PaymentOrderResponse, error)
	// HandleCallback always returns an ack for the gateway. A non-nil error means the callback
	// was rejected before any processing and must be answered with HTTP 400.
	HandleCallback(ctx context.Context, req *request.CallbackRequest) (response.CallbackAck, error)
	HandleStatusQuery(ctx context.Context, appTransID string) (*response.OrderStatusResponse, error)
	ReconcilePending(ctx context.Context, olderThan time.Duration, limit int) (int, error)
	ListCallbackFailures(ctx context.Context, limit int) ([]response.PaymentFailureResponse, error)
}

const (
	callbackTypePayment  = 1
	callbackDedupTTL     = 24 * time.Hour
	defaultFailuresLimit = 50
)

// Reasons recorded for callbacks that were acknowledged but not applied.
const (
	reasonInvalidData      = "invalid_data"
	reasonInvalidEmbedData = "invalid_embed_data"
	reasonMissingOrderID   = "missing_order_id"
	reasonInvalidOrderID   = "invalid_order_id"
	reasonUpdateFailed     = "update_failed"
	reasonBookingNotFound  = "booking_not_found"
)

var (
	errCallbackMissingData = apperror.InvalidInput("missing data")
	errCallbackMacMismatch = apperror.InvalidInput("mac not equal")

	ackSuccess = response.CallbackAck{ReturnCode: 1, ReturnMessage: "success"}
)

type paymentService struct {
	repo    *repository.Repository
	gateway PaymentGateway
	events  mq.EventPublisher
	now     func() time.Time
	log     *zap.Logger
}

func NewPaymentService(
	repo *repository.Repository,
	gateway PaymentGateway,
	events mq.EventPublisher,
	log *zap.Logger,
) PaymentService {
	return &paymentService{
		repo:    repo,
		gateway: gateway,
		events:  events,
		now:     time.Now,
		log:     log.With(zap.String("service", "payment")),
	}
}

// callbackData is the signed JSON string inside a callback body.
type callbackData struct {
	AppTransID     string      `json:"app_trans_id"`
	AppUser        string      `json:"app_user"`
	Amount         json.Number `json:"amount"`
	DiscountAmount json.Number `json:"discount_amount"`
	EmbedData      string      `json:"embed_data"`
	ZpTransID      json.Number `json:"zp_trans_id"`
}

func (s *paymentService) CreatePayment(ctx context.Context, userID uuid.UUID, req *request.CreatePaymentRequest) (*response.PaymentOrderResponse, error) {
	// 1. Required fields
	if req.Amount <= 0 || req.OrderID == "" || req.Description == "" {
		return nil, zalopay.ErrMissingFields
	}

	bookingID, err := uuid.Parse(req.OrderID)
	if err != nil {
		return nil, apperror.InvalidInput("Invalid order ID")
	}

	// 2. Resolve the booking being paid
	booking, err := s.repo.Booking.FindByID(ctx, bookingID)
	if err != nil {
		return nil, apperror.Internal("Failed to load booking", err)
	}
	if booking == nil {
		return nil, errBookingNotFound
	}
	if booking.UserID != userID {
		return nil, apperror.Forbidden("Not authorized to pay for this booking")
	}
	if booking.Status == entity.BookingStatusCancelled {
		return nil, apperror.Conflict("Cannot pay for a cancelled booking")
	}
	if booking.PaymentStatus == entity.PaymentStatusPaid {
		return nil, apperror.Conflict("Booking is already paid")
	}
	if float64(req.Amount) != booking.TotalPrice {
		s.log.Warn("Payment amount differs from booking total",
			zap.String("booking_id", bookingID.String()),
			zap.Int64("amount", req.Amount),
			zap.Float64("total_price", booking.TotalPrice))
	}

	// 3. Create the hosted order
	order, err := s.gateway.CreateOrder(ctx, zalopay.OrderRequest{
		Amount:      req.Amount,
		OrderID:     bookingID.String(),
		Description: req.Description,
	})
	if err != nil {
		return nil, err
	}

	// 4. Correlate the booking with the gateway transaction
	if err := s.repo.Booking.SetAppTransID(ctx, bookingID, order.AppTransID); err != nil {
		s.log.Error("Failed to stamp app_trans_id, order is still payable",
			zap.Error(err),
			zap.String("booking_id", bookingID.String()),
			zap.String("app_trans_id", order.AppTransID))
	}

	s.log.Info("Payment order created",
		zap.String("booking_id", bookingID.String()),
		zap.String("app_trans_id", order.AppTransID),
		zap.Int64("amount", req.Amount))

	return &response.PaymentOrderResponse{
		OrderURL:     order.OrderURL,
		QRCode:       order.QRCode,
		ZpTransToken: order.ZpTransToken,
		OrderToken:   order.OrderToken,
		AppTransID:   order.AppTransID,
	}, nil
}

func (s *paymentService) HandleCallback(ctx context.Context, req *request.CallbackRequest) (response.CallbackAck, error) {
	// 1. Authenticity gate
	if req.Data == "" {
		metrics.IncPaymentCallback("rejected")
		return response.CallbackAck{ReturnCode: -1, ReturnMessage: errCallbackMissingData.Message}, errCallbackMissingData
	}
	if !s.gateway.VerifyCallback(req.Data, req.Mac) {
		s.log.Warn("Callback MAC mismatch")
		metrics.IncPaymentCallback("rejected")
		return response.CallbackAck{ReturnCode: -1, ReturnMessage: errCallbackMacMismatch.Message}, errCallbackMacMismatch
	}

	if req.Type != callbackTypePayment {
		s.log.Info("Ignoring callback", zap.Int("type", req.Type))
		metrics.IncPaymentCallback("ignored")
		return ackSuccess, nil
	}

	// 2. Decode the signed payload
	var data callbackData
	if err := json.Unmarshal([]byte(req.Data), &data); err != nil {
		s.recordFailure(ctx, reasonInvalidData, req.Data, data, "", err)
		return ackSuccess, nil
	}
	zpTransID := data.ZpTransID.String()

	// 3. Drop redeliveries of a transaction already applied
	dedupKey := "zp:" + zpTransID
	if zpTransID != "" {
		acquired, err := s.repo.Idempotency.Acquire(ctx, dedupKey, callbackDedupTTL)
		if err != nil {
			s.log.Warn("Idempotency store unavailable, processing callback anyway",
				zap.Error(err),
				zap.String("zp_trans_id", zpTransID))
		} else if !acquired {
			s.log.Info("Duplicate callback acknowledged",
				zap.String("zp_trans_id", zpTransID),
				zap.String("app_trans_id", data.AppTransID))
			metrics.IncPaymentCallback("duplicate")
			return ackSuccess, nil
		}
	}

	// 4. Recover the booking id
	embed, err := zalopay.ParseEmbedData(data.EmbedData)
	if err != nil {
		s.recordFailure(ctx, reasonInvalidEmbedData, req.Data, data, "", err)
		return ackSuccess, nil
	}
	if embed.OrderID == "" {
		s.recordFailure(ctx, reasonMissingOrderID, req.Data, data, "", nil)
		return ackSuccess, nil
	}
	bookingID, ok := parseOrderID(embed.OrderID)
	if !ok {
		s.recordFailure(ctx, reasonInvalidOrderID, req.Data, data, embed.OrderID, nil)
		return ackSuccess, nil
	}

	// 5. Mark paid
	update := entity.PaymentUpdate{Status: entity.PaymentStatusPaid}
	if zpTransID != "" {
		update.ZpTransactionID = &zpTransID
	}
	if amount, err := data.Amount.Int64(); err == nil {
		update.PaidAmount = &amount
	}
	if discount, err := data.DiscountAmount.Int64(); err == nil {
		update.DiscountAmount = &discount
	}

	changed, err := s.repo.Booking.ApplyPaymentUpdate(ctx, bookingID, update)
	if err != nil {
		if zpTransID != "" {
			if relErr := s.repo.Idempotency.Release(ctx, dedupKey); relErr != nil {
				s.log.Warn("Failed to release idempotency key", zap.Error(relErr), zap.String("key", dedupKey))
			}
		}
		s.recordFailure(ctx, reasonUpdateFailed, req.Data, data, embed.OrderID, err)
		return ackSuccess, nil
	}
	if !changed {
		s.recordFailure(ctx, reasonBookingNotFound, req.Data, data, embed.OrderID, nil)
		return ackSuccess, nil
	}

	metrics.IncPaymentCallback("applied")
	s.log.Info("Payment confirmed by callback",
		zap.String("booking_id", bookingID.String()),
		zap.String("app_trans_id", data.AppTransID),
		zap.String("zp_trans_id", zpTransID))
	s.publishPayment(ctx, bookingID, data.AppTransID, entity.PaymentStatusPaid)

	return ackSuccess, nil
}

func (s *paymentService) HandleStatusQuery(ctx context.Context, appTransID string) (*response.OrderStatusResponse, error) {
	status, err := s.gateway.QueryOrderStatus(ctx, appTransID)
	if err != nil {
		return nil, err
	}

	resp := &response.OrderStatusResponse{
		ReturnCode:       status.ReturnCode,
		ReturnMessage:    status.ReturnMessage,
		SubReturnCode:    status.SubReturnCode,
		SubReturnMessage: status.SubReturnMessage,
		IsProcessing:     status.IsProcessing,
		Amount:           status.Amount,
		DiscountAmount:   status.DiscountAmount,
		ZpTransID:        status.ZpTransID,
		AppTransID:       appTransID,
	}

	// Pure status polling still succeeds when the order cannot be tied to a booking.
	embed, err := zalopay.ParseEmbedData(status.EmbedData)
	if err != nil {
		s.log.Warn("Could not read order id from status query",
			zap.Error(err),
			zap.String("app_trans_id", appTransID))
		return resp, nil
	}
	resp.OrderID = embed.OrderID

	bookingID, ok := parseOrderID(embed.OrderID)
	if !ok {
		s.log.Warn("Status query carried an invalid order id",
			zap.String("order_id", embed.OrderID),
			zap.String("app_trans_id", appTransID))
		return resp, nil
	}

	if applied, ok := s.applyStatus(ctx, bookingID, appTransID, status); ok {
		resp.PaymentStatus = applied
	}
	return resp, nil
}

func (s *paymentService) ReconcilePending(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	now := s.now()
	bookings, err := s.repo.Booking.FindAwaitingPayment(ctx, now.Add(-olderThan), limit)
	if err != nil {
		return 0, err
	}

	var (
		updated int
		errs    []error
	)

	// Every candidate is stamped, whatever the gateway answers.
	ids := make([]uuid.UUID, len(bookings))
	for i, b := range bookings {
		ids[i] = b.ID
	}
	if err := s.repo.Booking.MarkPaymentChecked(ctx, ids, now); err != nil {
		errs = append(errs, err)
	}
	for _, b := range bookings {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if b.AppTransID == nil {
			continue
		}

		status, err := s.gateway.QueryOrderStatus(ctx, *b.AppTransID)
		if err != nil {
			metrics.IncPaymentReconciliation("error")
			errs = append(errs, err)
			continue
		}
		if _, ok := s.applyStatus(ctx, b.ID, *b.AppTransID, status); ok {
			updated++
		}
	}

	if len(bookings) > 0 {
		s.log.Info("Reconciled pending payments",
			zap.Int("candidates", len(bookings)),
			zap.Int("updated", updated))
	}
	return updated, errors.Join(errs...)
}

func (s *paymentService) ListCallbackFailures(ctx context.Context, limit int) ([]response.PaymentFailureResponse, error) {
	if limit < 1 || limit > 500 {
		limit = defaultFailuresLimit
	}

	failures, err := s.repo.PaymentFailure.FindRecent(ctx, limit)
	if err != nil {
		return nil, apperror.Internal("Failed to get payment callback failures", err)
	}
	return response.PaymentFailuresToResponse(failures), nil
}

// ==================== HELPER METHODS ====================

// statusUpdate maps a gateway status to a booking update. ok is false for codes that leave the
// booking untouched.
func statusUpdate(status *zalopay.OrderStatus) (update entity.PaymentUpdate, ok bool) {
	switch {
	case status.ReturnCode == zalopay.ReturnCodeSuccess:
		amount, discount := status.Amount, status.DiscountAmount
		update = entity.PaymentUpdate{
			Status:         entity.PaymentStatusPaid,
			PaidAmount:     &amount,
			DiscountAmount: &discount,
		}
		if status.ZpTransID != 0 {
			id := strconv.FormatInt(status.ZpTransID, 10)
			update.ZpTransactionID = &id
		}
		return update, true
	case status.ReturnCode == zalopay.ReturnCodeProcessing || status.IsProcessing:
		return entity.PaymentUpdate{Status: entity.PaymentStatusProcessing}, true
	case status.ReturnCode == zalopay.ReturnCodeFailed:
		msg := status.ReturnMessage
		return entity.PaymentUpdate{Status: entity.PaymentStatusFailed, PaymentError: &msg}, true
	default:
		return entity.PaymentUpdate{}, false
	}
}

// applyStatus writes the mapped status and reports what was stored.
func (s *paymentService) applyStatus(ctx context.Context, bookingID uuid.UUID, appTransID string, status *zalopay.OrderStatus) (entity.PaymentStatus, bool) {
	update, ok := statusUpdate(status)
	if !ok {
		s.log.Info("Gateway status left booking untouched",
			zap.String("booking_id", bookingID.String()),
			zap.Int("return_code", status.ReturnCode))
		metrics.IncPaymentReconciliation("untouched")
		return "", false
	}

	changed, err := s.repo.Booking.ApplyPaymentUpdate(ctx, bookingID, update)
	if err != nil {
		metrics.IncPaymentReconciliation("error")
		return "", false
	}
	if !changed {
		metrics.IncPaymentReconciliation("skipped")
		return "", false
	}

	metrics.IncPaymentReconciliation(string(update.Status))
	s.log.Info("Payment status reconciled",
		zap.String("booking_id", bookingID.String()),
		zap.String("app_trans_id", appTransID),
		zap.String("payment_status", string(update.Status)))
	s.publishPayment(ctx, bookingID, appTransID, update.Status)

	return update.Status, true
}

func (s *paymentService) recordFailure(ctx context.Context, reason, payload string, data callbackData, orderID string, cause error) {
	s.log.Warn("Payment callback acknowledged but not applied",
		zap.String("reason", reason),
		zap.String("app_trans_id", data.AppTransID),
		zap.String("zp_trans_id", data.ZpTransID.String()),
		zap.String("order_id", orderID),
		zap.Error(cause))
	metrics.IncPaymentCallbackFailure(reason)
	metrics.IncPaymentCallback("failed")

	failure := &entity.PaymentCallbackFailure{
		BaseSimple: entity.BaseSimple{
			ID:        uuid.New(),
			CreatedAt: s.now(),
		},
		AppTransID: data.AppTransID,
		ZpTransID:  data.ZpTransID.String(),
		OrderID:    orderID,
		Reason:     reason,
		Payload:    payload,
	}
	if err := s.repo.PaymentFailure.Create(ctx, failure); err != nil {
		s.log.Error("Failed to record payment callback failure", zap.Error(err), zap.String("reason", reason))
	}
}

func (s *paymentService) publishPayment(ctx context.Context, bookingID uuid.UUID, appTransID string, status entity.PaymentStatus) {
	var key string
	switch status {
	case entity.PaymentStatusPaid:
		key = mq.KeyPaymentPaid
	case entity.PaymentStatusFailed:
		key = mq.KeyPaymentFailed
	default:
		return
	}

	payload := map[string]string{
		"bookingId":     bookingID.String(),
		"appTransId":    appTransID,
		"paymentStatus": string(status),
	}
	if err := s.events.PublishJSON(ctx, key, payload); err != nil {
		s.log.Warn("Failed to publish payment event", zap.Error(err), zap.String("key", key))
	}
}

// parseOrderID accepts only the canonical 36-character UUID form.
func parseOrderID(raw string) (uuid.UUID, bool) {
	if len(raw) != 36 {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
