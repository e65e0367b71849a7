package repository

import (
	"context"
	"errors"
	"fmt"

	"hotel-booking/internal/data/entity"
	"hotel-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type RoomRepository interface {
	Create(ctx context.Context, room *entity.Room) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Room, error)
	FindAll(ctx context.Context, limit, offset int) ([]*entity.Room, error)
	CountAll(ctx context.Context) (int64, error)
	Update(ctx context.Context, room *entity.Room) error
	Delete(ctx context.Context, id uuid.UUID) error

	// Availability
	SearchAvailable(ctx context.Context, excludeIDs []uuid.UUID, filter entity.RoomFilter) ([]*entity.Room, error)
}

type roomRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewRoomRepository(db database.PgxIface, log *zap.Logger) RoomRepository {
	return &roomRepository{
		db:  db,
		log: log.With(zap.String("repository", "room")),
	}
}

const roomColumns = `id, type, number, price, capacity, description, amenities, is_available, images, created_at, updated_at`

func scanRoom(row rowScanner) (*entity.Room, error) {
	var room entity.Room
	err := row.Scan(
		&room.ID,
		&room.Type,
		&room.Number,
		&room.Price,
		&room.Capacity,
		&room.Description,
		&room.Amenities,
		&room.IsAvailable,
		&room.Images,
		&room.CreatedAt,
		&room.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func collectRooms(rows pgx.Rows) ([]*entity.Room, error) {
	defer rows.Close()

	rooms := make([]*entity.Room, 0)
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func (r *roomRepository) Create(ctx context.Context, room *entity.Room) error {
	query := `
		INSERT INTO rooms (id, type, number, price, capacity, description, amenities, is_available, images, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Exec(ctx, query,
		room.ID,
		room.Type,
		room.Number,
		room.Price,
		room.Capacity,
		room.Description,
		nonNil(room.Amenities),
		room.IsAvailable,
		nonNil(room.Images),
		room.CreatedAt,
		room.UpdatedAt,
	)
	if database.PgErrorCode(err) == database.CodeUniqueViolation {
		return fmt.Errorf("create room %s: %w", room.Number, ErrDuplicate)
	}
	if err != nil {
		r.log.Error("Failed to create room",
			zap.Error(err),
			zap.String("number", room.Number),
		)
		return fmt.Errorf("create room %s: %w", room.Number, err)
	}

	return nil
}

func (r *roomRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id = $1`

	room, err := scanRoom(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find room by ID",
			zap.Error(err),
			zap.String("room_id", id.String()),
		)
		return nil, fmt.Errorf("find room by ID %s: %w", id.String(), err)
	}

	return room, nil
}

func (r *roomRepository) FindAll(ctx context.Context, limit, offset int) ([]*entity.Room, error) {
	query := `
		SELECT ` + roomColumns + `
		FROM rooms
		ORDER BY number
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(ctx, query, limit, offset)
	if err != nil {
		r.log.Error("Failed to list rooms",
			zap.Error(err),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find all rooms: %w", err)
	}

	return collectRooms(rows)
}

func (r *roomRepository) CountAll(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM rooms`).Scan(&total); err != nil {
		r.log.Error("Failed to count rooms", zap.Error(err))
		return 0, fmt.Errorf("count rooms: %w", err)
	}
	return total, nil
}

func (r *roomRepository) Update(ctx context.Context, room *entity.Room) error {
	query := `
		UPDATE rooms
		SET type = $2, number = $3, price = $4, capacity = $5, description = $6,
		    amenities = $7, is_available = $8, images = $9, updated_at = $10
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query,
		room.ID,
		room.Type,
		room.Number,
		room.Price,
		room.Capacity,
		room.Description,
		nonNil(room.Amenities),
		room.IsAvailable,
		nonNil(room.Images),
		room.UpdatedAt,
	)
	if database.PgErrorCode(err) == database.CodeUniqueViolation {
		return fmt.Errorf("update room %s: %w", room.ID.String(), ErrDuplicate)
	}
	if err != nil {
		r.log.Error("Failed to update room",
			zap.Error(err),
			zap.String("room_id", room.ID.String()),
		)
		return fmt.Errorf("update room %s: %w", room.ID.String(), err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("update room %s: %w", room.ID.String(), ErrRoomNotFound)
	}

	return nil
}

func (r *roomRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM rooms WHERE id = $1`, id)
	if database.PgErrorCode(err) == database.CodeForeignKeyViolation {
		return fmt.Errorf("delete room %s: %w", id.String(), ErrReferenced)
	}
	if err != nil {
		r.log.Error("Failed to delete room",
			zap.Error(err),
			zap.String("room_id", id.String()),
		)
		return fmt.Errorf("delete room %s: %w", id.String(), err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("delete room %s: %w", id.String(), ErrRoomNotFound)
	}

	return nil
}

// SearchAvailable lists rooms flagged available, minus excludeIDs, within the filter bounds.
func (r *roomRepository) SearchAvailable(ctx context.Context, excludeIDs []uuid.UUID, filter entity.RoomFilter) ([]*entity.Room, error) {
	query := `
		SELECT ` + roomColumns + `
		FROM rooms
		WHERE is_available = TRUE
		  AND NOT (id = ANY($1::uuid[]))
		  AND capacity >= $2
		  AND ($3::numeric IS NULL OR price >= $3::numeric)
		  AND ($4::numeric IS NULL OR price <= $4::numeric)
		ORDER BY price, number
	`

	excluded := make([]string, len(excludeIDs))
	for i, id := range excludeIDs {
		excluded[i] = id.String()
	}

	rows, err := r.db.Query(ctx, query, excluded, filter.MinCapacity, filter.MinPrice, filter.MaxPrice)
	if err != nil {
		r.log.Error("Failed to search available rooms",
			zap.Error(err),
			zap.Int("excluded", len(excludeIDs)),
		)
		return nil, fmt.Errorf("search available rooms: %w", err)
	}

	return collectRooms(rows)
}
