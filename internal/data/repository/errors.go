package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrBookingNotFound = errors.New("booking not found")
	ErrBookingOverlap  = errors.New("room already booked for the selected dates")
	ErrRoomNotFound    = errors.New("room not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrHotelNotFound   = errors.New("hotel not configured")
	ErrHotelExists     = errors.New("hotel already configured")
	ErrDuplicate       = errors.New("duplicate value")
	ErrReferenced      = errors.New("record is still referenced")
)

// querier is satisfied by both the pool and an open transaction.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type rowScanner interface {
	Scan(dest ...any) error
}
