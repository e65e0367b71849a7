package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"hotel-booking/internal/data/entity"
	"hotel-booking/internal/data/repository"
	"hotel-booking/internal/dto/request"
	"hotel-booking/internal/dto/response"
	"hotel-booking/pkg/apperror"
	"hotel-booking/pkg/metrics"
	"hotel-booking/pkg/mq"
	"hotel-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type BookingService interface {
	// Guest endpoints
	CreateBooking(ctx context.Context, userID uuid.UUID, req *request.CreateBookingRequest) (*response.BookingResponse, error)
	GetUserBookings(ctx context.Context, userID uuid.UUID) ([]response.BookingResponse, error)
	CancelBooking(ctx context.Context, bookingID, userID uuid.UUID) (*response.BookingResponse, error)

	// Admin endpoints
	GetAllBookings(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error)
	UpdateBooking(ctx context.Context, bookingID uuid.UUID, req *request.UpdateBookingRequest) (*response.BookingResponse, error)
	DeleteBooking(ctx context.Context, bookingID uuid.UUID) error
	GetStatistics(ctx context.Context) (*response.BookingStatisticsResponse, error)
}

type bookingService struct {
	repo         *repository.Repository
	availability AvailabilityService
	events       mq.EventPublisher
	now          func() time.Time
	log          *zap.Logger
}

func NewBookingService(
	repo *repository.Repository,
	availability AvailabilityService,
	events mq.EventPublisher,
	log *zap.Logger,
) BookingService {
	return &bookingService{
		repo:         repo,
		availability: availability,
		events:       events,
		now:          time.Now,
		log:          log.With(zap.String("service", "booking")),
	}
}

var (
	errBookingNotFound   = apperror.NotFound("Booking not found")
	errRoomNotFound      = apperror.NotFound("Room not found")
	errRoomUnavailable   = apperror.Conflict("This room is not available for booking")
	errRoomAlreadyBooked = apperror.Conflict("Room is already booked for the selected dates")
	errAlreadyCancelled  = apperror.Conflict("Booking is already cancelled")
	errStayStarted       = apperror.Conflict("Cannot cancel a booking that has already started")
	errReopenCancelled   = apperror.Conflict("A cancelled booking cannot change status")
	errNotBookingOwner   = apperror.Forbidden("Not authorized to cancel this booking")
)

func parseStay(checkIn, checkOut string) (time.Time, time.Time, error) {
	in, err := utils.ParseDate(checkIn)
	if err != nil {
		return time.Time{}, time.Time{}, errInvalidDateFormat
	}
	out, err := utils.ParseDate(checkOut)
	if err != nil {
		return time.Time{}, time.Time{}, errInvalidDateFormat
	}
	if !in.Before(out) {
		return time.Time{}, time.Time{}, errDateOrder
	}
	return in, out, nil
}

func (s *bookingService) CreateBooking(ctx context.Context, userID uuid.UUID, req *request.CreateBookingRequest) (*response.BookingResponse, error) {
	// 1. Validate request and dates
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create booking validation failed", zap.Any("errors", errs))
		return nil, validationError(errs)
	}

	checkIn, checkOut, err := parseStay(req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}

	roomID, err := uuid.Parse(req.RoomID)
	if err != nil {
		return nil, apperror.InvalidInput("Invalid room ID")
	}

	// 2. Room must exist and be available after a lazy refresh
	room, err := s.repo.Room.FindByID(ctx, roomID)
	if err != nil {
		return nil, apperror.Internal("Failed to load room", err)
	}
	if room == nil {
		return nil, errRoomNotFound
	}

	available, err := s.availability.RefreshRoomAvailability(ctx, roomID)
	if err != nil {
		s.log.Warn("Lazy availability refresh failed, using stored flag",
			zap.Error(err),
			zap.String("room_id", roomID.String()))
		available = room.IsAvailable
	}
	if !available {
		metrics.IncBooking("conflict")
		return nil, errRoomUnavailable
	}

	// 3. Date range must be free
	free, err := s.availability.IsRoomFree(ctx, roomID, checkIn, checkOut, nil)
	if err != nil {
		return nil, apperror.Internal("Failed to check room availability", err)
	}
	if !free {
		metrics.IncBooking("conflict")
		return nil, errRoomAlreadyBooked
	}

	// 4. Price the stay
	nights := utils.Nights(checkIn, checkOut)
	now := s.now()
	booking := &entity.Booking{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		UserID:        userID,
		RoomID:        roomID,
		CheckIn:       checkIn,
		CheckOut:      checkOut,
		TotalPrice:    float64(nights) * room.Price,
		Status:        entity.BookingStatusConfirmed,
		PaymentStatus: entity.PaymentStatusPending,
		FullName:      req.FullName,
		PhoneNumber:   req.PhoneNumber,
		Email:         req.Email,
		Notes:         req.Notes,
	}

	// 5-6. Persist and hold the room atomically
	if err := s.repo.Booking.CreateExclusive(ctx, booking); err != nil {
		switch {
		case errors.Is(err, repository.ErrBookingOverlap):
			metrics.IncBooking("conflict")
			return nil, errRoomAlreadyBooked
		case errors.Is(err, repository.ErrRoomNotFound):
			return nil, errRoomNotFound
		default:
			s.log.Error("Failed to create booking",
				zap.Error(err),
				zap.String("room_id", roomID.String()),
				zap.String("user_id", userID.String()))
			return nil, apperror.Internal("Failed to create booking", err)
		}
	}

	metrics.IncBooking("created")
	s.log.Info("Booking created",
		zap.String("booking_id", booking.ID.String()),
		zap.String("room_id", roomID.String()),
		zap.Int("nights", nights),
		zap.Float64("total_price", booking.TotalPrice))

	// 8. Return the joined projection
	resp, err := s.detail(ctx, booking.ID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, mq.KeyBookingCreated, resp)
	return resp, nil
}

func (s *bookingService) GetAllBookings(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	details, err := s.repo.Booking.FindAllDetails(ctx, req.Limit(), req.Offset())
	if err != nil {
		return nil, apperror.Internal("Failed to get bookings", err)
	}

	total, err := s.repo.Booking.CountAll(ctx)
	if err != nil {
		return nil, apperror.Internal("Failed to count bookings", err)
	}

	return response.NewPaginatedResponse(response.BookingsToResponse(details), req.CurrentPage(), req.Limit(), total), nil
}

func (s *bookingService) GetUserBookings(ctx context.Context, userID uuid.UUID) ([]response.BookingResponse, error) {
	details, err := s.repo.Booking.FindDetailsByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.Internal("Failed to get bookings", err)
	}
	return response.BookingsToResponse(details), nil
}

func (s *bookingService) UpdateBooking(ctx context.Context, bookingID uuid.UUID, req *request.UpdateBookingRequest) (*response.BookingResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Update booking validation failed", zap.Any("errors", errs))
		return nil, validationError(errs)
	}

	booking, err := s.repo.Booking.FindByID(ctx, bookingID)
	if err != nil {
		return nil, apperror.Internal("Failed to load booking", err)
	}
	if booking == nil {
		return nil, apperror.NotFound(fmt.Sprintf("No booking found with ID: %s", bookingID.String()))
	}

	if req.Status != nil {
		status := entity.BookingStatus(*req.Status)
		if booking.Status == entity.BookingStatusCancelled && status != entity.BookingStatusCancelled {
			return nil, errReopenCancelled
		}
		booking.Status = status
	}
	if req.PaymentStatus != nil {
		booking.PaymentStatus = entity.PaymentStatus(*req.PaymentStatus)
	}
	if req.FullName != nil {
		booking.FullName = *req.FullName
	}
	if req.PhoneNumber != nil {
		booking.PhoneNumber = *req.PhoneNumber
	}
	if req.Email != nil {
		booking.Email = *req.Email
	}
	if req.Notes != nil {
		booking.Notes = *req.Notes
	}

	datesChanged := false
	if req.CheckIn != nil || req.CheckOut != nil {
		checkIn, checkOut := booking.CheckIn, booking.CheckOut
		if req.CheckIn != nil {
			if checkIn, err = utils.ParseDate(*req.CheckIn); err != nil {
				return nil, errInvalidDateFormat
			}
		}
		if req.CheckOut != nil {
			if checkOut, err = utils.ParseDate(*req.CheckOut); err != nil {
				return nil, errInvalidDateFormat
			}
		}
		if !checkIn.Before(checkOut) {
			return nil, errDateOrder
		}

		datesChanged = !checkIn.Equal(booking.CheckIn) || !checkOut.Equal(booking.CheckOut)
		if datesChanged {
			room, err := s.repo.Room.FindByID(ctx, booking.RoomID)
			if err != nil {
				return nil, apperror.Internal("Failed to load room", err)
			}
			if room == nil {
				return nil, errRoomNotFound
			}

			booking.CheckIn = checkIn
			booking.CheckOut = checkOut
			booking.TotalPrice = float64(utils.Nights(checkIn, checkOut)) * room.Price
		}
	}

	booking.UpdatedAt = s.now()
	if err := s.repo.Booking.UpdateExclusive(ctx, booking, datesChanged); err != nil {
		switch {
		case errors.Is(err, repository.ErrBookingOverlap):
			metrics.IncBooking("conflict")
			return nil, apperror.Conflict("Room is not available for the selected dates")
		case errors.Is(err, repository.ErrBookingNotFound):
			return nil, errBookingNotFound
		case errors.Is(err, repository.ErrRoomNotFound):
			return nil, errRoomNotFound
		default:
			s.log.Error("Failed to update booking", zap.Error(err), zap.String("booking_id", bookingID.String()))
			return nil, apperror.Internal("Failed to update booking", err)
		}
	}

	metrics.IncBooking("updated")
	s.refreshRoom(ctx, booking.RoomID)

	resp, err := s.detail(ctx, booking.ID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, mq.KeyBookingUpdated, resp)
	return resp, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, bookingID, userID uuid.UUID) (*response.BookingResponse, error) {
	booking, err := s.repo.Booking.FindByID(ctx, bookingID)
	if err != nil {
		return nil, apperror.Internal("Failed to load booking", err)
	}
	if booking == nil {
		return nil, errBookingNotFound
	}
	if booking.UserID != userID {
		s.log.Warn("Cancel attempt by non-owner",
			zap.String("booking_id", bookingID.String()),
			zap.String("user_id", userID.String()))
		return nil, errNotBookingOwner
	}
	if booking.Status == entity.BookingStatusCancelled {
		return nil, errAlreadyCancelled
	}
	if !s.now().Before(booking.CheckIn) {
		return nil, errStayStarted
	}

	if err := s.repo.Booking.UpdateStatus(ctx, bookingID, entity.BookingStatusCancelled); err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return nil, errBookingNotFound
		}
		return nil, apperror.Internal("Failed to cancel booking", err)
	}

	metrics.IncBooking("cancelled")
	s.log.Info("Booking cancelled", zap.String("booking_id", bookingID.String()))
	s.refreshRoom(ctx, booking.RoomID)

	resp, err := s.detail(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, mq.KeyBookingCancelled, resp)
	return resp, nil
}

func (s *bookingService) DeleteBooking(ctx context.Context, bookingID uuid.UUID) error {
	booking, err := s.repo.Booking.FindByID(ctx, bookingID)
	if err != nil {
		return apperror.Internal("Failed to load booking", err)
	}
	if booking == nil {
		return errBookingNotFound
	}

	if err := s.repo.Booking.Delete(ctx, bookingID); err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return errBookingNotFound
		}
		return apperror.Internal("Failed to delete booking", err)
	}

	metrics.IncBooking("deleted")
	s.log.Info("Booking deleted", zap.String("booking_id", bookingID.String()))
	s.refreshRoom(ctx, booking.RoomID)

	s.publish(ctx, mq.KeyBookingDeleted, map[string]string{
		"id":     bookingID.String(),
		"roomId": booking.RoomID.String(),
	})
	return nil
}

func (s *bookingService) GetStatistics(ctx context.Context) (*response.BookingStatisticsResponse, error) {
	now := s.now()
	today := utils.StartOfDay(now)
	weekStart := utils.StartOfWeek(now)
	monthStart := utils.StartOfMonth(now)
	monthEnd := monthStart.AddDate(0, 1, 0)
	tomorrow := today.AddDate(0, 0, 1)

	from := monthStart
	if weekStart.Before(from) {
		from = weekStart
	}
	to := monthEnd
	if tomorrow.After(to) {
		to = tomorrow
	}

	daily, err := s.repo.Booking.AggregateDailyByPaymentStatus(ctx, from, to)
	if err != nil {
		return nil, apperror.Internal("Failed to get booking statistics", err)
	}

	stats := &response.BookingStatisticsResponse{}
	perDay := make(map[string]*response.PeriodStatistics)
	for _, agg := range daily {
		day := utils.StartOfDay(agg.Day.In(now.Location()))
		if !day.Before(today) && day.Before(tomorrow) {
			addAggregate(&stats.Today, agg.PaymentAggregate)
		}
		if !day.Before(weekStart) && day.Before(weekStart.AddDate(0, 0, 7)) {
			addAggregate(&stats.ThisWeek, agg.PaymentAggregate)
		}
		if !day.Before(monthStart) && day.Before(monthEnd) {
			addAggregate(&stats.ThisMonth, agg.PaymentAggregate)

			key := day.Format("2006-01-02")
			if perDay[key] == nil {
				perDay[key] = &response.PeriodStatistics{}
			}
			addAggregate(perDay[key], agg.PaymentAggregate)
		}
	}

	for d := monthStart; d.Before(monthEnd); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		entry := response.DailyStatistics{Date: key}
		if p := perDay[key]; p != nil {
			entry.PeriodStatistics = *p
		}
		stats.Daily = append(stats.Daily, entry)
	}

	return stats, nil
}

// addAggregate folds one status group into a period. Processing payments are not part of the totals.
func addAggregate(p *response.PeriodStatistics, agg entity.PaymentAggregate) {
	var bucket *response.PaymentBucket
	switch agg.PaymentStatus {
	case entity.PaymentStatusPaid:
		bucket = &p.Paid
	case entity.PaymentStatusPending:
		bucket = &p.Pending
	case entity.PaymentStatusFailed:
		bucket = &p.Failed
	default:
		return
	}

	bucket.Bookings += agg.Bookings
	bucket.Revenue += agg.Revenue
	p.TotalBookings += agg.Bookings
	p.TotalRevenue += agg.Revenue
}

func (s *bookingService) detail(ctx context.Context, bookingID uuid.UUID) (*response.BookingResponse, error) {
	detail, err := s.repo.Booking.FindDetailByID(ctx, bookingID)
	if err != nil {
		return nil, apperror.Internal("Failed to load booking", err)
	}
	if detail == nil {
		return nil, errBookingNotFound
	}
	resp := response.BookingToResponse(detail)
	return &resp, nil
}

// refreshRoom recomputes availability after a write. A failure does not undo the write; the sweeper
// corrects the flag later.
func (s *bookingService) refreshRoom(ctx context.Context, roomID uuid.UUID) {
	if _, err := s.availability.RefreshRoomAvailability(ctx, roomID); err != nil {
		s.log.Error("Failed to refresh room availability",
			zap.Error(err),
			zap.String("room_id", roomID.String()))
	}
}

func (s *bookingService) publish(ctx context.Context, key string, payload any) {
	if err := s.events.PublishJSON(ctx, key, payload); err != nil {
		s.log.Warn("Failed to publish booking event", zap.Error(err), zap.String("key", key))
	}
}
