package wire

import (
	"hotel-booking/internal/adaptor"
	"hotel-booking/internal/data/repository"
	"hotel-booking/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// wireUser configures user management routes with role-based access control
func wireUser(
	r chi.Router,
	userHandler *adaptor.UserHandler,
	repo *repository.Repository,
	log *zap.Logger,
) {
	r.Route("/api/users", func(r chi.Router) {
		r.Use(authenticated(repo, log))

		// ==================== PROTECTED USER ROUTES ====================
		r.Get("/profile", userHandler.GetProfile)
		r.Put("/profile", userHandler.UpdateProfile)

		// ==================== ADMIN ROUTES ====================
		r.Group(func(r chi.Router) {
			r.Use(middleware.Admin(log))
			r.Get("/", userHandler.GetAllUsers)           // GET /api/users?page=1&limit=10
			r.Put("/{userId}", userHandler.UpdateUser)    // PUT /api/users/{userId}
			r.Delete("/{userId}", userHandler.DeleteUser) // DELETE /api/users/{userId}
		})
	})
}
