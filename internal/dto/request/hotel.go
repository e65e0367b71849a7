package request

type SetupHotelRequest struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Address     string   `json:"address" validate:"required"`
	City        string   `json:"city" validate:"required"`
	Images      []string `json:"images"`
	Rating      float64  `json:"rating" validate:"gte=0,lte=5"`
	Amenities   []string `json:"amenities"`
}

type UpdateHotelRequest struct {
	Name        *string   `json:"name,omitempty" validate:"omitempty,min=1"`
	Description *string   `json:"description,omitempty" validate:"omitempty,min=1"`
	Address     *string   `json:"address,omitempty" validate:"omitempty,min=1"`
	City        *string   `json:"city,omitempty" validate:"omitempty,min=1"`
	Images      *[]string `json:"images,omitempty"`
	Rating      *float64  `json:"rating,omitempty" validate:"omitempty,gte=0,lte=5"`
	Amenities   *[]string `json:"amenities,omitempty"`
}
