package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hotel-booking/internal/data/entity"
	"hotel-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type BookingRepository interface {
	// CreateExclusive locks the room, re-checks the overlap and inserts in one transaction,
	// then flags the room unavailable. Returns ErrBookingOverlap or ErrRoomNotFound.
	CreateExclusive(ctx context.Context, booking *entity.Booking) error
	// UpdateExclusive persists the mutable fields; with checkOverlap it re-validates the
	// date range against other active bookings under the same room lock.
	UpdateExclusive(ctx context.Context, booking *entity.Booking, checkOverlap bool) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error)
	FindDetailByID(ctx context.Context, id uuid.UUID) (*entity.BookingDetail, error)
	FindAllDetails(ctx context.Context, limit, offset int) ([]*entity.BookingDetail, error)
	FindDetailsByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.BookingDetail, error)
	CountAll(ctx context.Context) (int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.BookingStatus) error
	Delete(ctx context.Context, id uuid.UUID) error

	// Availability queries
	HasOverlap(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time, excludeID *uuid.UUID) (bool, error)
	SyncRoomAvailability(ctx context.Context, roomID uuid.UUID, at time.Time) (bool, error)
	FindBookedRoomIDs(ctx context.Context, checkIn, checkOut time.Time) ([]uuid.UUID, error)
	FindRoomIDsWithEndedBookings(ctx context.Context, at time.Time) ([]uuid.UUID, error)

	// Payment reconciliation
	SetAppTransID(ctx context.Context, id uuid.UUID, appTransID string) error
	ApplyPaymentUpdate(ctx context.Context, id uuid.UUID, update entity.PaymentUpdate) (bool, error)
	FindAwaitingPayment(ctx context.Context, checkedBefore time.Time, limit int) ([]*entity.Booking, error)
	MarkPaymentChecked(ctx context.Context, ids []uuid.UUID, at time.Time) error

	// Statistics
	AggregateDailyByPaymentStatus(ctx context.Context, from, to time.Time) ([]entity.DailyPaymentAggregate, error)
}

type bookingRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBookingRepository(db database.PgxIface, log *zap.Logger) BookingRepository {
	return &bookingRepository{
		db:  db,
		log: log.With(zap.String("repository", "booking")),
	}
}

const bookingColumns = `b.id, b.user_id, b.room_id, b.check_in, b.check_out, b.total_price, b.status,
	b.payment_status, b.full_name, b.phone_number, b.email, b.notes, b.app_trans_id,
	b.zp_transaction_id, b.paid_amount, b.discount_amount, b.payment_error, b.payment_checked_at,
	b.created_at, b.updated_at`

const bookingDetailQuery = `
	SELECT ` + bookingColumns + `,
	       u.name, u.email,
	       r.id, r.type, r.number, r.price, r.capacity, r.description, r.amenities, r.images, r.is_available
	FROM bookings b
	JOIN users u ON u.id = b.user_id
	JOIN rooms r ON r.id = b.room_id
`

func bookingFields(b *entity.Booking) []any {
	return []any{
		&b.ID,
		&b.UserID,
		&b.RoomID,
		&b.CheckIn,
		&b.CheckOut,
		&b.TotalPrice,
		&b.Status,
		&b.PaymentStatus,
		&b.FullName,
		&b.PhoneNumber,
		&b.Email,
		&b.Notes,
		&b.AppTransID,
		&b.ZpTransactionID,
		&b.PaidAmount,
		&b.DiscountAmount,
		&b.PaymentError,
		&b.PaymentCheckedAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	}
}

func scanBooking(row rowScanner) (*entity.Booking, error) {
	var booking entity.Booking
	if err := row.Scan(bookingFields(&booking)...); err != nil {
		return nil, err
	}
	return &booking, nil
}

func scanBookingDetail(row rowScanner) (*entity.BookingDetail, error) {
	var d entity.BookingDetail
	dest := append(bookingFields(&d.Booking),
		&d.UserName,
		&d.UserEmail,
		&d.Room.ID,
		&d.Room.Type,
		&d.Room.Number,
		&d.Room.Price,
		&d.Room.Capacity,
		&d.Room.Description,
		&d.Room.Amenities,
		&d.Room.Images,
		&d.Room.IsAvailable,
	)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &d, nil
}

func collectBookingDetails(rows pgx.Rows) ([]*entity.BookingDetail, error) {
	defer rows.Close()

	details := make([]*entity.BookingDetail, 0)
	for rows.Next() {
		d, err := scanBookingDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		details = append(details, d)
	}
	return details, rows.Err()
}

// lockRoom takes a row lock on the room so overlapping writers for the same room serialize.
func lockRoom(ctx context.Context, q querier, roomID uuid.UUID) error {
	var id uuid.UUID
	err := q.QueryRow(ctx, `SELECT id FROM rooms WHERE id = $1 FOR UPDATE`, roomID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrRoomNotFound
	}
	if err != nil {
		return fmt.Errorf("lock room %s: %w", roomID.String(), err)
	}
	return nil
}

func hasOverlap(ctx context.Context, q querier, roomID uuid.UUID, checkIn, checkOut time.Time, excludeID *uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM bookings
			WHERE room_id = $1
			  AND status <> 'cancelled'
			  AND check_in < $3
			  AND check_out > $2
			  AND ($4::uuid IS NULL OR id <> $4::uuid)
		)
	`

	var exists bool
	if err := q.QueryRow(ctx, query, roomID, checkIn, checkOut, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check overlap for room %s: %w", roomID.String(), err)
	}
	return exists, nil
}

func (r *bookingRepository) CreateExclusive(ctx context.Context, booking *entity.Booking) error {
	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := lockRoom(ctx, tx, booking.RoomID); err != nil {
			return err
		}

		overlap, err := hasOverlap(ctx, tx, booking.RoomID, booking.CheckIn, booking.CheckOut, nil)
		if err != nil {
			return err
		}
		if overlap {
			return ErrBookingOverlap
		}

		query := `
			INSERT INTO bookings (id, user_id, room_id, check_in, check_out, total_price, status,
			                      payment_status, full_name, phone_number, email, notes, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		`
		_, err = tx.Exec(ctx, query,
			booking.ID,
			booking.UserID,
			booking.RoomID,
			booking.CheckIn,
			booking.CheckOut,
			booking.TotalPrice,
			booking.Status,
			booking.PaymentStatus,
			booking.FullName,
			booking.PhoneNumber,
			booking.Email,
			booking.Notes,
			booking.CreatedAt,
			booking.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}

		_, err = tx.Exec(ctx, `UPDATE rooms SET is_available = FALSE, updated_at = $2 WHERE id = $1`,
			booking.RoomID, booking.UpdatedAt)
		if err != nil {
			return fmt.Errorf("mark room unavailable: %w", err)
		}
		return nil
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrBookingOverlap), database.PgErrorCode(err) == database.CodeExclusionViolation:
		return fmt.Errorf("create booking %s: %w", booking.ID.String(), ErrBookingOverlap)
	case errors.Is(err, ErrRoomNotFound):
		return fmt.Errorf("create booking %s: %w", booking.ID.String(), ErrRoomNotFound)
	default:
		r.log.Error("Failed to create booking",
			zap.Error(err),
			zap.String("room_id", booking.RoomID.String()),
			zap.String("user_id", booking.UserID.String()),
		)
		return fmt.Errorf("create booking %s: %w", booking.ID.String(), err)
	}
}

func (r *bookingRepository) UpdateExclusive(ctx context.Context, booking *entity.Booking, checkOverlap bool) error {
	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if checkOverlap && booking.IsActive() {
			if err := lockRoom(ctx, tx, booking.RoomID); err != nil {
				return err
			}
			overlap, err := hasOverlap(ctx, tx, booking.RoomID, booking.CheckIn, booking.CheckOut, &booking.ID)
			if err != nil {
				return err
			}
			if overlap {
				return ErrBookingOverlap
			}
		}

		query := `
			UPDATE bookings
			SET check_in = $2, check_out = $3, total_price = $4, status = $5, payment_status = $6,
			    full_name = $7, phone_number = $8, email = $9, notes = $10, updated_at = $11
			WHERE id = $1
		`
		result, err := tx.Exec(ctx, query,
			booking.ID,
			booking.CheckIn,
			booking.CheckOut,
			booking.TotalPrice,
			booking.Status,
			booking.PaymentStatus,
			booking.FullName,
			booking.PhoneNumber,
			booking.Email,
			booking.Notes,
			booking.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("update booking: %w", err)
		}
		if result.RowsAffected() == 0 {
			return ErrBookingNotFound
		}
		return nil
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrBookingOverlap), database.PgErrorCode(err) == database.CodeExclusionViolation:
		return fmt.Errorf("update booking %s: %w", booking.ID.String(), ErrBookingOverlap)
	case errors.Is(err, ErrBookingNotFound), errors.Is(err, ErrRoomNotFound):
		return fmt.Errorf("update booking %s: %w", booking.ID.String(), err)
	default:
		r.log.Error("Failed to update booking",
			zap.Error(err),
			zap.String("booking_id", booking.ID.String()),
		)
		return fmt.Errorf("update booking %s: %w", booking.ID.String(), err)
	}
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings b WHERE b.id = $1`

	booking, err := scanBooking(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking by ID",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking by ID %s: %w", id.String(), err)
	}

	return booking, nil
}

func (r *bookingRepository) FindDetailByID(ctx context.Context, id uuid.UUID) (*entity.BookingDetail, error) {
	detail, err := scanBookingDetail(r.db.QueryRow(ctx, bookingDetailQuery+` WHERE b.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find booking detail",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return nil, fmt.Errorf("find booking detail %s: %w", id.String(), err)
	}

	return detail, nil
}

func (r *bookingRepository) FindAllDetails(ctx context.Context, limit, offset int) ([]*entity.BookingDetail, error) {
	rows, err := r.db.Query(ctx, bookingDetailQuery+` ORDER BY b.created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		r.log.Error("Failed to list bookings",
			zap.Error(err),
			zap.Int("limit", limit),
			zap.Int("offset", offset),
		)
		return nil, fmt.Errorf("find all bookings: %w", err)
	}

	return collectBookingDetails(rows)
}

func (r *bookingRepository) FindDetailsByUserID(ctx context.Context, userID uuid.UUID) ([]*entity.BookingDetail, error) {
	rows, err := r.db.Query(ctx, bookingDetailQuery+` WHERE b.user_id = $1 ORDER BY b.created_at DESC`, userID)
	if err != nil {
		r.log.Error("Failed to list user bookings",
			zap.Error(err),
			zap.String("user_id", userID.String()),
		)
		return nil, fmt.Errorf("find bookings of user %s: %w", userID.String(), err)
	}

	return collectBookingDetails(rows)
}

func (r *bookingRepository) CountAll(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM bookings`).Scan(&total); err != nil {
		r.log.Error("Failed to count bookings", zap.Error(err))
		return 0, fmt.Errorf("count bookings: %w", err)
	}
	return total, nil
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.BookingStatus) error {
	query := `
		UPDATE bookings
		SET status = $2, updated_at = $3
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, id, status, time.Now())
	if err != nil {
		r.log.Error("Failed to update booking status",
			zap.Error(err),
			zap.String("booking_id", id.String()),
			zap.String("status", string(status)),
		)
		return fmt.Errorf("update booking status %s: %w", id.String(), err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("update booking status %s: %w", id.String(), ErrBookingNotFound)
	}

	return nil
}

func (r *bookingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		r.log.Error("Failed to delete booking",
			zap.Error(err),
			zap.String("booking_id", id.String()),
		)
		return fmt.Errorf("delete booking %s: %w", id.String(), err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("delete booking %s: %w", id.String(), ErrBookingNotFound)
	}

	return nil
}

func (r *bookingRepository) HasOverlap(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time, excludeID *uuid.UUID) (bool, error) {
	overlap, err := hasOverlap(ctx, r.db, roomID, checkIn, checkOut, excludeID)
	if err != nil {
		r.log.Error("Failed to check booking overlap",
			zap.Error(err),
			zap.String("room_id", roomID.String()),
		)
		return false, err
	}
	return overlap, nil
}

// hasActiveAt reports whether a non-cancelled booking on the room covers at, both ends inclusive.
func hasActiveAt(ctx context.Context, q querier, roomID uuid.UUID, at time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM bookings
			WHERE room_id = $1
			  AND status <> 'cancelled'
			  AND check_in <= $2
			  AND check_out >= $2
		)
	`

	var exists bool
	if err := q.QueryRow(ctx, query, roomID, at).Scan(&exists); err != nil {
		return false, fmt.Errorf("check active booking for room %s: %w", roomID.String(), err)
	}
	return exists, nil
}

// SyncRoomAvailability rewrites rooms.is_available from the bookings covering at, under the same
// room lock CreateExclusive takes.
func (r *bookingRepository) SyncRoomAvailability(ctx context.Context, roomID uuid.UUID, at time.Time) (bool, error) {
	var available bool
	err := database.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if err := lockRoom(ctx, tx, roomID); err != nil {
			return err
		}

		occupied, err := hasActiveAt(ctx, tx, roomID, at)
		if err != nil {
			return err
		}
		available = !occupied

		_, err = tx.Exec(ctx, `
			UPDATE rooms
			SET is_available = $2, updated_at = NOW()
			WHERE id = $1 AND is_available <> $2
		`, roomID, available)
		if err != nil {
			return fmt.Errorf("set availability of room %s: %w", roomID.String(), err)
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrRoomNotFound) {
			r.log.Error("Failed to sync room availability",
				zap.Error(err),
				zap.String("room_id", roomID.String()),
			)
		}
		return false, fmt.Errorf("sync room %s availability: %w", roomID.String(), err)
	}
	return available, nil
}

func (r *bookingRepository) FindBookedRoomIDs(ctx context.Context, checkIn, checkOut time.Time) ([]uuid.UUID, error) {
	query := `
		SELECT DISTINCT room_id
		FROM bookings
		WHERE status <> 'cancelled'
		  AND check_in < $2
		  AND check_out > $1
	`

	return r.queryRoomIDs(ctx, "find booked rooms", query, checkIn, checkOut)
}

// FindRoomIDsWithEndedBookings lists rooms still flagged unavailable that have a confirmed booking
// whose stay ended before at.
func (r *bookingRepository) FindRoomIDsWithEndedBookings(ctx context.Context, at time.Time) ([]uuid.UUID, error) {
	query := `
		SELECT DISTINCT b.room_id
		FROM bookings b
		JOIN rooms r ON r.id = b.room_id
		WHERE b.status = 'confirmed'
		  AND b.check_out < $1
		  AND r.is_available = FALSE
	`

	return r.queryRoomIDs(ctx, "find rooms with ended bookings", query, at)
}

func (r *bookingRepository) queryRoomIDs(ctx context.Context, op, query string, args ...any) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("Failed to "+op, zap.Error(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *bookingRepository) SetAppTransID(ctx context.Context, id uuid.UUID, appTransID string) error {
	query := `
		UPDATE bookings
		SET app_trans_id = $2, updated_at = $3
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, id, appTransID, time.Now())
	if err != nil {
		r.log.Error("Failed to stamp app_trans_id",
			zap.Error(err),
			zap.String("booking_id", id.String()),
			zap.String("app_trans_id", appTransID),
		)
		return fmt.Errorf("set app_trans_id on booking %s: %w", id.String(), err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("set app_trans_id on booking %s: %w", id.String(), ErrBookingNotFound)
	}

	return nil
}

// ApplyPaymentUpdate writes a reconciliation outcome. A booking already marked paid only accepts
// another paid result, so late processing/failed results are dropped. Returns false when no row changed.
func (r *bookingRepository) ApplyPaymentUpdate(ctx context.Context, id uuid.UUID, update entity.PaymentUpdate) (bool, error) {
	query := `
		UPDATE bookings
		SET payment_status    = $2,
		    zp_transaction_id = COALESCE($3, zp_transaction_id),
		    paid_amount       = COALESCE($4, paid_amount),
		    discount_amount   = COALESCE($5, discount_amount),
		    payment_error     = COALESCE($6, payment_error),
		    updated_at        = $7
		WHERE id = $1
		  AND (payment_status <> 'paid' OR $2 = 'paid')
	`

	result, err := r.db.Exec(ctx, query,
		id,
		update.Status,
		update.ZpTransactionID,
		update.PaidAmount,
		update.DiscountAmount,
		update.PaymentError,
		time.Now(),
	)
	if err != nil {
		r.log.Error("Failed to apply payment update",
			zap.Error(err),
			zap.String("booking_id", id.String()),
			zap.String("payment_status", string(update.Status)),
		)
		return false, fmt.Errorf("apply payment update to booking %s: %w", id.String(), err)
	}

	return result.RowsAffected() > 0, nil
}

// FindAwaitingPayment lists unsettled bookings oldest-checked first. A booking never polled falls
// back to updated_at, so fresh orders get a grace period before the first query.
func (r *bookingRepository) FindAwaitingPayment(ctx context.Context, checkedBefore time.Time, limit int) ([]*entity.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings b
		WHERE b.payment_status IN ('pending', 'processing')
		  AND b.status <> 'cancelled'
		  AND b.app_trans_id IS NOT NULL
		  AND COALESCE(b.payment_checked_at, b.updated_at) < $1
		ORDER BY COALESCE(b.payment_checked_at, b.updated_at)
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, checkedBefore, limit)
	if err != nil {
		r.log.Error("Failed to find bookings awaiting payment", zap.Error(err))
		return nil, fmt.Errorf("find bookings awaiting payment: %w", err)
	}
	defer rows.Close()

	bookings := make([]*entity.Booking, 0)
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

// MarkPaymentChecked stamps the poll time on every id, whatever the gateway answered.
func (r *bookingRepository) MarkPaymentChecked(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}

	checked := make([]string, len(ids))
	for i, id := range ids {
		checked[i] = id.String()
	}

	query := `UPDATE bookings SET payment_checked_at = $2 WHERE id = ANY($1::uuid[])`
	if _, err := r.db.Exec(ctx, query, checked, at); err != nil {
		r.log.Error("Failed to stamp payment check", zap.Error(err), zap.Int("count", len(ids)))
		return fmt.Errorf("mark payment checked: %w", err)
	}
	return nil
}

// AggregateDailyByPaymentStatus buckets bookings by calendar day in the time zone of from.
func (r *bookingRepository) AggregateDailyByPaymentStatus(ctx context.Context, from, to time.Time) ([]entity.DailyPaymentAggregate, error) {
	query := `
		SELECT created_at, payment_status, total_price::float8
		FROM bookings
		WHERE status <> 'cancelled'
		  AND created_at >= $1
		  AND created_at < $2
		ORDER BY created_at
	`

	rows, err := r.db.Query(ctx, query, from, to)
	if err != nil {
		r.log.Error("Failed to aggregate daily bookings", zap.Error(err))
		return nil, fmt.Errorf("aggregate daily bookings: %w", err)
	}
	defer rows.Close()

	type bucketKey struct {
		day    time.Time
		status entity.PaymentStatus
	}
	index := make(map[bucketKey]int)
	aggregates := make([]entity.DailyPaymentAggregate, 0)

	loc := from.Location()
	for rows.Next() {
		var (
			createdAt time.Time
			status    entity.PaymentStatus
			price     float64
		)
		if err := rows.Scan(&createdAt, &status, &price); err != nil {
			return nil, fmt.Errorf("scan daily aggregate: %w", err)
		}

		local := createdAt.In(loc)
		key := bucketKey{
			day:    time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc),
			status: status,
		}
		i, ok := index[key]
		if !ok {
			aggregates = append(aggregates, entity.DailyPaymentAggregate{
				Day:              key.day,
				PaymentAggregate: entity.PaymentAggregate{PaymentStatus: status},
			})
			i = len(aggregates) - 1
			index[key] = i
		}
		aggregates[i].Bookings++
		aggregates[i].Revenue += price
	}
	return aggregates, rows.Err()
}
