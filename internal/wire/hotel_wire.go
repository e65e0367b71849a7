package wire

import (
	"hotel-booking/internal/adaptor"
	"hotel-booking/internal/data/repository"
	"hotel-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireHotel(
	r chi.Router,
	hotelHandler *adaptor.HotelHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	r.Route("/api/hotel", func(r chi.Router) {
		r.Get("/", hotelHandler.GetHotel)

		r.Group(func(r chi.Router) {
			r.Use(authenticated(repo, log))
			r.Use(middleware.Admin(log))

			r.Post("/setup", hotelHandler.SetupHotel)
			r.Put("/", hotelHandler.UpdateHotel)
		})
	})
}
