package wire

import (
	"hotel-booking/internal/adaptor"
	"hotel-booking/internal/data/repository"
	"hotel-booking/pkg/middleware"
	"hotel-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireAuth(
	r chi.Router,
	authHandler *adaptor.AuthHandler,
	repo *repository.Repository,
	config *utils.Config,
	log *zap.Logger,
) {
	r.Route("/api/auth", func(r chi.Router) {
		// ==================== PUBLIC ROUTES ====================
		// Credential endpoints are throttled per client IP
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(config.RateLimit, log))
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
		})

		// ==================== PROTECTED ROUTES ====================
		r.With(authenticated(repo, log)).Post("/logout", authHandler.Logout)
	})
}
