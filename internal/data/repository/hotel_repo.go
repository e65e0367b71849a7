package repository

import (
	"context"
	"errors"
	"fmt"

	"hotel-booking/internal/data/entity"
	"hotel-booking/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// HotelRepository stores the single hotel profile row.
type HotelRepository interface {
	Get(ctx context.Context) (*entity.Hotel, error)
	Create(ctx context.Context, hotel *entity.Hotel) error
	Update(ctx context.Context, hotel *entity.Hotel) error
}

type hotelRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewHotelRepository(db database.PgxIface, log *zap.Logger) HotelRepository {
	return &hotelRepository{
		db:  db,
		log: log.With(zap.String("repository", "hotel")),
	}
}

func (r *hotelRepository) Get(ctx context.Context) (*entity.Hotel, error) {
	query := `
		SELECT name, description, address, city, images, rating, amenities, is_configured, created_at, updated_at
		FROM hotel
		WHERE id = 1
	`

	var hotel entity.Hotel
	err := r.db.QueryRow(ctx, query).Scan(
		&hotel.Name,
		&hotel.Description,
		&hotel.Address,
		&hotel.City,
		&hotel.Images,
		&hotel.Rating,
		&hotel.Amenities,
		&hotel.IsConfigured,
		&hotel.CreatedAt,
		&hotel.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to load hotel profile", zap.Error(err))
		return nil, fmt.Errorf("get hotel: %w", err)
	}

	return &hotel, nil
}

// Create inserts the profile; the pinned primary key makes a second insert fail with ErrHotelExists.
func (r *hotelRepository) Create(ctx context.Context, hotel *entity.Hotel) error {
	query := `
		INSERT INTO hotel (id, name, description, address, city, images, rating, amenities, is_configured, created_at, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.Exec(ctx, query,
		hotel.Name,
		hotel.Description,
		hotel.Address,
		hotel.City,
		nonNil(hotel.Images),
		hotel.Rating,
		nonNil(hotel.Amenities),
		hotel.IsConfigured,
		hotel.CreatedAt,
		hotel.UpdatedAt,
	)
	if database.PgErrorCode(err) == database.CodeUniqueViolation {
		return ErrHotelExists
	}
	if err != nil {
		r.log.Error("Failed to create hotel profile", zap.Error(err))
		return fmt.Errorf("create hotel: %w", err)
	}

	return nil
}

func (r *hotelRepository) Update(ctx context.Context, hotel *entity.Hotel) error {
	query := `
		UPDATE hotel
		SET name = $1, description = $2, address = $3, city = $4, images = $5,
		    rating = $6, amenities = $7, updated_at = $8
		WHERE id = 1
	`

	result, err := r.db.Exec(ctx, query,
		hotel.Name,
		hotel.Description,
		hotel.Address,
		hotel.City,
		nonNil(hotel.Images),
		hotel.Rating,
		nonNil(hotel.Amenities),
		hotel.UpdatedAt,
	)
	if err != nil {
		r.log.Error("Failed to update hotel profile", zap.Error(err))
		return fmt.Errorf("update hotel: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrHotelNotFound
	}

	return nil
}
