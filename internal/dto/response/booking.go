package response

import (
	"time"

	"hotel-booking/internal/data/entity"
)

type BookingUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// BookingRoom is the room projection embedded in a booking.
type BookingRoom struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"`
	Number      string   `json:"number"`
	Price       float64  `json:"price"`
	Capacity    int      `json:"capacity"`
	Description string   `json:"description"`
	Amenities   []string `json:"amenities"`
	Images      []string `json:"images"`
}

type BookingResponse struct {
	ID              string               `json:"id"`
	User            BookingUser          `json:"user"`
	Room            BookingRoom          `json:"room"`
	CheckIn         time.Time            `json:"checkIn"`
	CheckOut        time.Time            `json:"checkOut"`
	TotalPrice      float64              `json:"totalPrice"`
	Status          entity.BookingStatus `json:"status"`
	PaymentStatus   entity.PaymentStatus `json:"paymentStatus"`
	FullName        string               `json:"fullName"`
	PhoneNumber     string               `json:"phoneNumber"`
	Email           string               `json:"email"`
	Notes           string               `json:"notes"`
	AppTransID      *string              `json:"appTransId,omitempty"`
	ZpTransactionID *string              `json:"zpTransactionId,omitempty"`
	PaidAmount      *int64               `json:"paidAmount,omitempty"`
	DiscountAmount  *int64               `json:"discountAmount,omitempty"`
	PaymentError    *string              `json:"paymentError,omitempty"`
	CreatedAt       time.Time            `json:"createdAt"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}

func BookingToResponse(d *entity.BookingDetail) BookingResponse {
	return BookingResponse{
		ID: d.ID.String(),
		User: BookingUser{
			ID:    d.UserID.String(),
			Name:  d.UserName,
			Email: d.UserEmail,
		},
		Room: BookingRoom{
			ID:          d.RoomID.String(),
			Type:        d.Room.Type,
			Number:      d.Room.Number,
			Price:       d.Room.Price,
			Capacity:    d.Room.Capacity,
			Description: d.Room.Description,
			Amenities:   orEmpty(d.Room.Amenities),
			Images:      orEmpty(d.Room.Images),
		},
		CheckIn:         d.CheckIn,
		CheckOut:        d.CheckOut,
		TotalPrice:      d.TotalPrice,
		Status:          d.Status,
		PaymentStatus:   d.PaymentStatus,
		FullName:        d.FullName,
		PhoneNumber:     d.PhoneNumber,
		Email:           d.Email,
		Notes:           d.Notes,
		AppTransID:      d.AppTransID,
		ZpTransactionID: d.ZpTransactionID,
		PaidAmount:      d.PaidAmount,
		DiscountAmount:  d.DiscountAmount,
		PaymentError:    d.PaymentError,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}
}

func BookingsToResponse(details []*entity.BookingDetail) []BookingResponse {
	out := make([]BookingResponse, 0, len(details))
	for _, d := range details {
		out = append(out, BookingToResponse(d))
	}
	return out
}

// PaymentBucket is the count and revenue of one payment status in a window.
type PaymentBucket struct {
	Bookings int64   `json:"bookings"`
	Revenue  float64 `json:"revenue"`
}

type PeriodStatistics struct {
	TotalBookings int64         `json:"totalBookings"`
	TotalRevenue  float64       `json:"totalRevenue"`
	Paid          PaymentBucket `json:"paid"`
	Pending       PaymentBucket `json:"pending"`
	Failed        PaymentBucket `json:"failed"`
}

type DailyStatistics struct {
	Date string `json:"date"`
	PeriodStatistics
}

type BookingStatisticsResponse struct {
	Today     PeriodStatistics  `json:"today"`
	ThisWeek  PeriodStatistics  `json:"thisWeek"`
	ThisMonth PeriodStatistics  `json:"thisMonth"`
	Daily     []DailyStatistics `json:"daily"`
}
