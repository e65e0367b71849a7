package response

import (
	"time"

	"hotel-booking/internal/data/entity"
)

type HotelResponse struct {
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Address      string    `json:"address"`
	City         string    `json:"city"`
	Images       []string  `json:"images"`
	Rating       float64   `json:"rating"`
	Amenities    []string  `json:"amenities"`
	IsConfigured bool      `json:"isConfigured"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func HotelToResponse(h *entity.Hotel) HotelResponse {
	return HotelResponse{
		Name:         h.Name,
		Description:  h.Description,
		Address:      h.Address,
		City:         h.City,
		Images:       orEmpty(h.Images),
		Rating:       h.Rating,
		Amenities:    orEmpty(h.Amenities),
		IsConfigured: h.IsConfigured,
		CreatedAt:    h.CreatedAt,
		UpdatedAt:    h.UpdatedAt,
	}
}
