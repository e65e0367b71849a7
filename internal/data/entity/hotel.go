package entity

import "time"

// Hotel is the singleton property profile.
type Hotel struct {
	Name         string    `db:"name"`
	Description  string    `db:"description"`
	Address      string    `db:"address"`
	City         string    `db:"city"`
	Images       []string  `db:"images"`
	Rating       float64   `db:"rating"`
	Amenities    []string  `db:"amenities"`
	IsConfigured bool      `db:"is_configured"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}
