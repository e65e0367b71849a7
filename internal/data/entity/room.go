package entity

type Room struct {
	Base
	Type        string   `db:"type"`
	Number      string   `db:"number"`
	Price       float64  `db:"price"`
	Capacity    int      `db:"capacity"`
	Description string   `db:"description"`
	Amenities   []string `db:"amenities"`
	IsAvailable bool     `db:"is_available"`
	Images      []string `db:"images"`
}

// RoomFilter narrows an available-room search. Nil bounds are ignored.
type RoomFilter struct {
	MinCapacity int
	MinPrice    *float64
	MaxPrice    *float64
}
