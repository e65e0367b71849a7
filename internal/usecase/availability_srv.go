package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hotel-booking/internal/data/repository"
	"hotel-booking/pkg/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AvailabilityService derives room.isAvailable from the bookings that cover the current instant.
type AvailabilityService interface {
	// IsRoomFree reports whether no non-cancelled booking on the room overlaps [checkIn, checkOut).
	IsRoomFree(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time, excludeBookingID *uuid.UUID) (bool, error)
	// RefreshRoomAvailability recomputes and stores the room's flag, returning the new value.
	RefreshRoomAvailability(ctx context.Context, roomID uuid.UUID) (bool, error)
	// SweepExpired refreshes every room still held by a confirmed booking that has ended.
	// Returns the number of rooms released.
	SweepExpired(ctx context.Context) (int, error)
}

type availabilityService struct {
	repo *repository.Repository
	now  func() time.Time
	log  *zap.Logger
}

func NewAvailabilityService(repo *repository.Repository, log *zap.Logger) AvailabilityService {
	return &availabilityService{
		repo: repo,
		now:  time.Now,
		log:  log.With(zap.String("service", "availability")),
	}
}

func (s *availabilityService) IsRoomFree(ctx context.Context, roomID uuid.UUID, checkIn, checkOut time.Time, excludeBookingID *uuid.UUID) (bool, error) {
	if !checkIn.Before(checkOut) {
		return false, errDateOrder
	}

	overlap, err := s.repo.Booking.HasOverlap(ctx, roomID, checkIn, checkOut, excludeBookingID)
	if err != nil {
		return false, fmt.Errorf("check room %s availability: %w", roomID.String(), err)
	}
	return !overlap, nil
}

func (s *availabilityService) RefreshRoomAvailability(ctx context.Context, roomID uuid.UUID) (bool, error) {
	available, err := s.repo.Booking.SyncRoomAvailability(ctx, roomID, s.now())
	if err != nil {
		return false, fmt.Errorf("refresh room %s: %w", roomID.String(), err)
	}
	return available, nil
}

func (s *availabilityService) SweepExpired(ctx context.Context) (int, error) {
	roomIDs, err := s.repo.Booking.FindRoomIDsWithEndedBookings(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("sweep expired bookings: %w", err)
	}

	var (
		released int
		errs     []error
	)
	for _, roomID := range roomIDs {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}

		available, err := s.RefreshRoomAvailability(ctx, roomID)
		if err != nil {
			s.log.Error("Failed to refresh room during sweep",
				zap.Error(err),
				zap.String("room_id", roomID.String()))
			errs = append(errs, err)
			continue
		}
		if available {
			released++
		}
	}

	if released > 0 {
		metrics.AddRoomsReleased(released)
		s.log.Info("Released rooms with ended bookings",
			zap.Int("released", released),
			zap.Int("candidates", len(roomIDs)))
	}

	return released, errors.Join(errs...)
}
