package wire

import (
	"hotel-booking/internal/adaptor"
	"hotel-booking/internal/data/repository"
	"hotel-booking/pkg/middleware"
	"hotel-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wirePayment(
	r chi.Router,
	paymentHandler *adaptor.PaymentHandler,
	repo *repository.Repository,
	config *utils.Config,
	log *zap.Logger,
) {
	r.Route("/api/payments", func(r chi.Router) {
		// ==================== GATEWAY ROUTES ====================
		// Authenticated by MAC, not by session
		r.With(middleware.RateLimitByPeer(config.RateLimit, log)).Post("/callback", paymentHandler.Callback)

		// ==================== PROTECTED ROUTES ====================
		r.Group(func(r chi.Router) {
			r.Use(authenticated(repo, log))

			r.Post("/create-payment", paymentHandler.CreatePayment)
			r.Get("/order-status/{appTransId}", paymentHandler.OrderStatus)

			r.With(middleware.Admin(log)).Get("/failures", paymentHandler.ListFailures)
		})
	})
}
