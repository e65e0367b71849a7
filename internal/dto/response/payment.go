package response

import (
	"time"

	"hotel-booking/internal/data/entity"
)

// CallbackAck is the body the gateway expects back from the callback URL.
type CallbackAck struct {
	ReturnCode    int    `json:"return_code"`
	ReturnMessage string `json:"return_message"`
}

type PaymentFailureResponse struct {
	ID         string    `json:"id"`
	AppTransID string    `json:"appTransId"`
	ZpTransID  string    `json:"zpTransId"`
	OrderID    string    `json:"orderId"`
	Reason     string    `json:"reason"`
	Payload    string    `json:"payload"`
	CreatedAt  time.Time `json:"createdAt"`
}

func PaymentFailuresToResponse(failures []*entity.PaymentCallbackFailure) []PaymentFailureResponse {
	out := make([]PaymentFailureResponse, 0, len(failures))
	for _, f := range failures {
		out = append(out, PaymentFailureResponse{
			ID:         f.ID.String(),
			AppTransID: f.AppTransID,
			ZpTransID:  f.ZpTransID,
			OrderID:    f.OrderID,
			Reason:     f.Reason,
			Payload:    f.Payload,
			CreatedAt:  f.CreatedAt,
		})
	}
	return out
}

// PaymentOrderResponse is the hosted payment the client redirects to.
type PaymentOrderResponse struct {
	OrderURL     string `json:"orderUrl"`
	QRCode       string `json:"qrCode"`
	ZpTransToken string `json:"zpTransToken"`
	OrderToken   string `json:"orderToken"`
	AppTransID   string `json:"appTransId"`
}

// OrderStatusResponse is the normalized gateway status. OrderID is empty when the embedded
// order metadata could not be read.
type OrderStatusResponse struct {
	ReturnCode       int                  `json:"returnCode"`
	ReturnMessage    string               `json:"returnMessage"`
	SubReturnCode    int                  `json:"subReturnCode"`
	SubReturnMessage string               `json:"subReturnMessage"`
	IsProcessing     bool                 `json:"isProcessing"`
	Amount           int64                `json:"amount"`
	DiscountAmount   int64                `json:"discountAmount"`
	ZpTransID        int64                `json:"zpTransId"`
	AppTransID       string               `json:"appTransId"`
	OrderID          string               `json:"orderId,omitempty"`
	PaymentStatus    entity.PaymentStatus `json:"paymentStatus,omitempty"`
}
