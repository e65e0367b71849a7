package request

type CreatePaymentRequest struct {
	Amount      int64  `json:"amount"`
	OrderID     string `json:"orderId"`
	Description string `json:"description"`
}

// CallbackRequest is the body the gateway posts to the callback URL.
type CallbackRequest struct {
	Data string `json:"data"`
	Mac  string `json:"mac"`
	Type int    `json:"type"`
}
