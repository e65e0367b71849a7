package entity

// PaymentUpdate is a reconciliation outcome applied to a booking. Nil fields keep their stored value.
type PaymentUpdate struct {
	Status          PaymentStatus
	ZpTransactionID *string
	PaidAmount      *int64
	DiscountAmount  *int64
	PaymentError    *string
}

// PaymentCallbackFailure is a dead-lettered gateway callback that was acknowledged but not applied.
type PaymentCallbackFailure struct {
	BaseSimple
	AppTransID string `db:"app_trans_id"`
	ZpTransID  string `db:"zp_trans_id"`
	OrderID    string `db:"order_id"`
	Reason     string `db:"reason"`
	Payload    string `db:"payload"`
}
