package request

type CreateBookingRequest struct {
	RoomID      string `json:"roomId" validate:"required,uuid"`
	CheckIn     string `json:"checkIn" validate:"required"`
	CheckOut    string `json:"checkOut" validate:"required"`
	FullName    string `json:"fullName" validate:"required,max=100"`
	PhoneNumber string `json:"phoneNumber" validate:"required,phone"`
	Email       string `json:"email" validate:"required,email"`
	Notes       string `json:"notes" validate:"max=1000"`
}

// UpdateBookingRequest lists the only mutable fields; anything else in the body is ignored.
type UpdateBookingRequest struct {
	CheckIn       *string `json:"checkIn,omitempty"`
	CheckOut      *string `json:"checkOut,omitempty"`
	Status        *string `json:"status,omitempty" validate:"omitempty,oneof=pending confirmed cancelled"`
	PaymentStatus *string `json:"paymentStatus,omitempty" validate:"omitempty,oneof=pending processing paid failed"`
	FullName      *string `json:"fullName,omitempty" validate:"omitempty,min=1,max=100"`
	PhoneNumber   *string `json:"phoneNumber,omitempty" validate:"omitempty,phone"`
	Email         *string `json:"email,omitempty" validate:"omitempty,email"`
	Notes         *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}
