package wire

import (
	"hotel-booking/internal/adaptor"
	"hotel-booking/internal/data/repository"
	"hotel-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireRoom(
	r chi.Router,
	roomHandler *adaptor.RoomHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	r.Route("/api/rooms", func(r chi.Router) {
		// ==================== PUBLIC ROUTES ====================
		r.Get("/", roomHandler.GetRooms)
		r.Get("/available", roomHandler.SearchAvailable)
		r.Get("/{id}", roomHandler.GetRoom)

		// ==================== ADMIN ROUTES ====================
		r.Group(func(r chi.Router) {
			r.Use(authenticated(repo, log))
			r.Use(middleware.Admin(log))

			r.Post("/", roomHandler.CreateRoom)
			r.Put("/{id}", roomHandler.UpdateRoom)
			r.Delete("/{id}", roomHandler.DeleteRoom)
		})
	})
}
