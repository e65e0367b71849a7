package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

type AvailabilitySweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

type SessionCleaner interface {
	CleanExpiredSessions(ctx context.Context) (int64, error)
}

type PaymentReconciler interface {
	ReconcilePending(ctx context.Context, olderThan time.Duration, limit int) (int, error)
}

// Sweeper releases rooms whose last booking has ended and drops expired sessions.
type Sweeper struct {
	availability AvailabilitySweeper
	sessions     SessionCleaner
	log          *zap.Logger
}

func NewSweeper(availability AvailabilitySweeper, sessions SessionCleaner, log *zap.Logger) *Sweeper {
	return &Sweeper{
		availability: availability,
		sessions:     sessions,
		log:          log.With(zap.String("job", "sweeper")),
	}
}

func (s *Sweeper) Name() string { return "sweeper" }

func (s *Sweeper) Run(ctx context.Context) error {
	released, sweepErr := s.availability.SweepExpired(ctx)
	removed, cleanErr := s.sessions.CleanExpiredSessions(ctx)

	if released > 0 || removed > 0 {
		s.log.Debug("Sweep finished",
			zap.Int("rooms_released", released),
			zap.Int64("sessions_removed", removed))
	}
	return errors.Join(sweepErr, cleanErr)
}

// Reconciler polls the gateway for bookings stuck in pending or processing.
type Reconciler struct {
	payments  PaymentReconciler
	olderThan time.Duration
	batch     int
}

func NewReconciler(payments PaymentReconciler, olderThan time.Duration, batch int) *Reconciler {
	if olderThan <= 0 {
		olderThan = 2 * time.Minute
	}
	if batch <= 0 {
		batch = 50
	}
	return &Reconciler{payments: payments, olderThan: olderThan, batch: batch}
}

func (r *Reconciler) Name() string { return "payment-reconciler" }

func (r *Reconciler) Run(ctx context.Context) error {
	_, err := r.payments.ReconcilePending(ctx, r.olderThan, r.batch)
	return err
}
