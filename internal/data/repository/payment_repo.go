package repository

import (
	"context"
	"fmt"

	"hotel-booking/internal/data/entity"
	"hotel-booking/pkg/database"

	"go.uber.org/zap"
)

// PaymentFailureRepository is the dead-letter log for gateway callbacks that were acknowledged
// but could not be applied to a booking.
type PaymentFailureRepository interface {
	Create(ctx context.Context, failure *entity.PaymentCallbackFailure) error
	FindRecent(ctx context.Context, limit int) ([]*entity.PaymentCallbackFailure, error)
}

type paymentFailureRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewPaymentFailureRepository(db database.PgxIface, log *zap.Logger) PaymentFailureRepository {
	return &paymentFailureRepository{
		db:  db,
		log: log.With(zap.String("repository", "payment_failure")),
	}
}

func (r *paymentFailureRepository) Create(ctx context.Context, failure *entity.PaymentCallbackFailure) error {
	query := `
		INSERT INTO payment_callback_failures (id, app_trans_id, zp_trans_id, order_id, reason, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Exec(ctx, query,
		failure.ID,
		failure.AppTransID,
		failure.ZpTransID,
		failure.OrderID,
		failure.Reason,
		failure.Payload,
		failure.CreatedAt,
	)
	if err != nil {
		r.log.Error("Failed to record payment callback failure",
			zap.Error(err),
			zap.String("app_trans_id", failure.AppTransID),
			zap.String("reason", failure.Reason),
		)
		return fmt.Errorf("record callback failure %s: %w", failure.AppTransID, err)
	}

	return nil
}

func (r *paymentFailureRepository) FindRecent(ctx context.Context, limit int) ([]*entity.PaymentCallbackFailure, error) {
	query := `
		SELECT id, app_trans_id, zp_trans_id, order_id, reason, payload, created_at
		FROM payment_callback_failures
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		r.log.Error("Failed to list payment callback failures", zap.Error(err))
		return nil, fmt.Errorf("list callback failures: %w", err)
	}
	defer rows.Close()

	failures := make([]*entity.PaymentCallbackFailure, 0)
	for rows.Next() {
		var f entity.PaymentCallbackFailure
		if err := rows.Scan(&f.ID, &f.AppTransID, &f.ZpTransID, &f.OrderID, &f.Reason, &f.Payload, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan callback failure: %w", err)
		}
		failures = append(failures, &f)
	}

	return failures, rows.Err()
}
