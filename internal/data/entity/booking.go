package entity

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusPaid       PaymentStatus = "paid"
	PaymentStatusFailed     PaymentStatus = "failed"
)

type Booking struct {
	Base
	UserID           uuid.UUID     `db:"user_id"`
	RoomID           uuid.UUID     `db:"room_id"`
	CheckIn          time.Time     `db:"check_in"`
	CheckOut         time.Time     `db:"check_out"`
	TotalPrice       float64       `db:"total_price"`
	Status           BookingStatus `db:"status"`
	PaymentStatus    PaymentStatus `db:"payment_status"`
	FullName         string        `db:"full_name"`
	PhoneNumber      string        `db:"phone_number"`
	Email            string        `db:"email"`
	Notes            string        `db:"notes"`
	AppTransID       *string       `db:"app_trans_id"`
	ZpTransactionID  *string       `db:"zp_transaction_id"`
	PaidAmount       *int64        `db:"paid_amount"`
	DiscountAmount   *int64        `db:"discount_amount"`
	PaymentError     *string       `db:"payment_error"`
	// PaymentCheckedAt is the last time the reconciler asked the gateway about this booking.
	PaymentCheckedAt *time.Time    `db:"payment_checked_at"`
}

// Overlaps applies the half-open interval test [CheckIn, CheckOut).
func (b *Booking) Overlaps(checkIn, checkOut time.Time) bool {
	return b.CheckIn.Before(checkOut) && b.CheckOut.After(checkIn)
}

// Covers reports whether at falls inside the stay, both ends inclusive.
func (b *Booking) Covers(at time.Time) bool {
	return !b.CheckIn.After(at) && !b.CheckOut.Before(at)
}

func (b *Booking) IsActive() bool {
	return b.Status != BookingStatusCancelled
}

// BookingDetail is a booking joined with the guest and room projections shown to clients.
type BookingDetail struct {
	Booking
	UserName  string
	UserEmail string
	Room      Room
}

// PaymentAggregate is a count/revenue pair for one payment status in a time window.
type PaymentAggregate struct {
	PaymentStatus PaymentStatus
	Bookings      int64
	Revenue       float64
}

// DailyPaymentAggregate is a PaymentAggregate for one calendar day.
type DailyPaymentAggregate struct {
	Day time.Time
	PaymentAggregate
}
