package response

import (
	"time"

	"hotel-booking/internal/data/entity"
)

type RoomResponse struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Number      string    `json:"number"`
	Price       float64   `json:"price"`
	Capacity    int       `json:"capacity"`
	Description string    `json:"description"`
	Amenities   []string  `json:"amenities"`
	IsAvailable bool      `json:"isAvailable"`
	Images      []string  `json:"images"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func RoomToResponse(room *entity.Room) RoomResponse {
	return RoomResponse{
		ID:          room.ID.String(),
		Type:        room.Type,
		Number:      room.Number,
		Price:       room.Price,
		Capacity:    room.Capacity,
		Description: room.Description,
		Amenities:   orEmpty(room.Amenities),
		IsAvailable: room.IsAvailable,
		Images:      orEmpty(room.Images),
		CreatedAt:   room.CreatedAt,
		UpdatedAt:   room.UpdatedAt,
	}
}

func RoomsToResponse(rooms []*entity.Room) []RoomResponse {
	out := make([]RoomResponse, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, RoomToResponse(r))
	}
	return out
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
