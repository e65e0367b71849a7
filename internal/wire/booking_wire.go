package wire

import (
	"hotel-booking/internal/adaptor"
	"hotel-booking/internal/data/repository"
	"hotel-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireBooking(
	r chi.Router,
	bookingHandler *adaptor.BookingHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	r.Route("/api/bookings", func(r chi.Router) {
		// Every booking route requires a session
		r.Use(authenticated(repo, log))

		// ==================== GUEST ROUTES ====================
		// POST /api/bookings - Book a room for the caller
		r.Post("/", bookingHandler.CreateBooking)

		// GET /api/bookings/my-bookings - Caller's own bookings
		r.Get("/my-bookings", bookingHandler.GetMyBookings)

		// PATCH /api/bookings/{id}/cancel - Owner cancels before check-in
		r.Patch("/{id}/cancel", bookingHandler.CancelBooking)

		// ==================== ADMIN ROUTES ====================
		r.Group(func(r chi.Router) {
			r.Use(middleware.Admin(log))

			r.Get("/", bookingHandler.GetAllBookings)          // GET /api/bookings?page=1&limit=10
			r.Get("/statistics", bookingHandler.GetStatistics) // GET /api/bookings/statistics
			r.Put("/{id}", bookingHandler.UpdateBooking)       // PUT /api/bookings/{id}
			r.Delete("/{id}", bookingHandler.DeleteBooking)    // DELETE /api/bookings/{id}
		})
	})
}
