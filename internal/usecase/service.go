package usecase

import (
	"hotel-booking/internal/data/repository"
	"hotel-booking/pkg/mq"
	"hotel-booking/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	Auth         AuthService
	User         UserService
	Room         RoomService
	Hotel        HotelService
	Availability AvailabilityService
	Booking      BookingService
	Payment      PaymentService
}

func NewService(
	repo *repository.Repository,
	gateway PaymentGateway,
	events mq.EventPublisher,
	config *utils.Config,
	log *zap.Logger,
) *Service {
	availability := NewAvailabilityService(repo, log)

	return &Service{
		Auth:         NewAuthService(repo, config, log),
		User:         NewUserService(repo.User, log),
		Room:         NewRoomService(repo, log),
		Hotel:        NewHotelService(repo.Hotel, log),
		Availability: availability,
		Booking:      NewBookingService(repo, availability, events, log),
		Payment:      NewPaymentService(repo, gateway, events, log),
	}
}
