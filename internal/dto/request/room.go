package request

type CreateRoomRequest struct {
	Type        string   `json:"type" validate:"required"`
	Number      string   `json:"number" validate:"required"`
	Price       float64  `json:"price" validate:"required,gt=0"`
	Capacity    int      `json:"capacity" validate:"required,gt=0"`
	Description string   `json:"description"`
	Amenities   []string `json:"amenities"`
	Images      []string `json:"images" validate:"omitempty,dive,url"`
	IsAvailable *bool    `json:"isAvailable,omitempty"`
}

type UpdateRoomRequest struct {
	Type        *string   `json:"type,omitempty" validate:"omitempty,min=1"`
	Number      *string   `json:"number,omitempty" validate:"omitempty,min=1"`
	Price       *float64  `json:"price,omitempty" validate:"omitempty,gt=0"`
	Capacity    *int      `json:"capacity,omitempty" validate:"omitempty,gt=0"`
	Description *string   `json:"description,omitempty"`
	Amenities   *[]string `json:"amenities,omitempty"`
	Images      *[]string `json:"images,omitempty"`
	IsAvailable *bool     `json:"isAvailable,omitempty"`
}

// SearchRoomsRequest is bound from the query string of GET /api/rooms/available.
type SearchRoomsRequest struct {
	CheckIn  string
	CheckOut string
	Capacity int
	MinPrice *float64
	MaxPrice *float64
}
