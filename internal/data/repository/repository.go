package repository

import (
	"hotel-booking/pkg/database"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Repository struct {
	User           UserRepository
	Session        SessionRepository
	Room           RoomRepository
	Hotel          HotelRepository
	Booking        BookingRepository
	PaymentFailure PaymentFailureRepository
	Idempotency    IdempotencyRepository
}

// NewRepository builds every store. rdb may be nil, in which case idempotency keys are not persisted.
func NewRepository(db database.PgxIface, rdb *redis.Client, log *zap.Logger) *Repository {
	return &Repository{
		User:           NewUserRepository(db, log),
		Session:        NewSessionRepository(db, log),
		Room:           NewRoomRepository(db, log),
		Hotel:          NewHotelRepository(db, log),
		Booking:        NewBookingRepository(db, log),
		PaymentFailure: NewPaymentFailureRepository(db, log),
		Idempotency:    NewIdempotencyRepository(rdb, log),
	}
}
