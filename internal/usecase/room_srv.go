package usecase

import (
	"context"
	"errors"
	"time"

	"hotel-booking/internal/data/entity"
	"hotel-booking/internal/data/repository"
	"hotel-booking/internal/dto/request"
	"hotel-booking/internal/dto/response"
	"hotel-booking/pkg/apperror"
	"hotel-booking/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type RoomService interface {
	// Public endpoints
	GetRooms(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.RoomResponse], error)
	GetRoom(ctx context.Context, roomID uuid.UUID) (*response.RoomResponse, error)
	SearchAvailable(ctx context.Context, req *request.SearchRoomsRequest) ([]response.RoomResponse, error)

	// Admin endpoints
	CreateRoom(ctx context.Context, req *request.CreateRoomRequest) (*response.RoomResponse, error)
	UpdateRoom(ctx context.Context, roomID uuid.UUID, req *request.UpdateRoomRequest) (*response.RoomResponse, error)
	DeleteRoom(ctx context.Context, roomID uuid.UUID) error
}

type roomService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewRoomService(repo *repository.Repository, log *zap.Logger) RoomService {
	return &roomService{
		repo: repo,
		log:  log.With(zap.String("service", "room")),
	}
}

var errRoomNumberTaken = apperror.Conflict("Room number already exists")

func (s *roomService) GetRooms(ctx context.Context, req *request.PaginatedRequest) (*response.PaginatedResponse[response.RoomResponse], error) {
	rooms, err := s.repo.Room.FindAll(ctx, req.Limit(), req.Offset())
	if err != nil {
		return nil, apperror.Internal("Failed to get rooms", err)
	}

	total, err := s.repo.Room.CountAll(ctx)
	if err != nil {
		return nil, apperror.Internal("Failed to count rooms", err)
	}

	return response.NewPaginatedResponse(response.RoomsToResponse(rooms), req.CurrentPage(), req.Limit(), total), nil
}

func (s *roomService) GetRoom(ctx context.Context, roomID uuid.UUID) (*response.RoomResponse, error) {
	room, err := s.repo.Room.FindByID(ctx, roomID)
	if err != nil {
		return nil, apperror.Internal("Failed to get room", err)
	}
	if room == nil {
		return nil, errRoomNotFound
	}

	resp := response.RoomToResponse(room)
	return &resp, nil
}

func (s *roomService) SearchAvailable(ctx context.Context, req *request.SearchRoomsRequest) ([]response.RoomResponse, error) {
	// 1. Dates are mandatory
	if req.CheckIn == "" || req.CheckOut == "" {
		return nil, apperror.InvalidInput("Check-in and check-out dates are required")
	}
	checkIn, checkOut, err := parseStay(req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}
	if req.MinPrice != nil && req.MaxPrice != nil && *req.MinPrice > *req.MaxPrice {
		return nil, apperror.InvalidInput("Minimum price must not exceed maximum price")
	}

	// 2. Rooms held by an overlapping booking are out
	booked, err := s.repo.Booking.FindBookedRoomIDs(ctx, checkIn, checkOut)
	if err != nil {
		return nil, apperror.Internal("Failed to search rooms", err)
	}

	// 3. Everything else that is flagged available and matches the filter
	rooms, err := s.repo.Room.SearchAvailable(ctx, booked, entity.RoomFilter{
		MinCapacity: req.Capacity,
		MinPrice:    req.MinPrice,
		MaxPrice:    req.MaxPrice,
	})
	if err != nil {
		return nil, apperror.Internal("Failed to search rooms", err)
	}

	s.log.Debug("Searched available rooms",
		zap.Time("check_in", checkIn),
		zap.Time("check_out", checkOut),
		zap.Int("excluded", len(booked)),
		zap.Int("found", len(rooms)))

	return response.RoomsToResponse(rooms), nil
}

func (s *roomService) CreateRoom(ctx context.Context, req *request.CreateRoomRequest) (*response.RoomResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Create room validation failed", zap.Any("errors", errs))
		return nil, validationError(errs)
	}

	available := true
	if req.IsAvailable != nil {
		available = *req.IsAvailable
	}

	now := time.Now()
	room := &entity.Room{
		Base: entity.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Type:        req.Type,
		Number:      req.Number,
		Price:       req.Price,
		Capacity:    req.Capacity,
		Description: req.Description,
		Amenities:   req.Amenities,
		IsAvailable: available,
		Images:      req.Images,
	}

	if err := s.repo.Room.Create(ctx, room); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, errRoomNumberTaken
		}
		return nil, apperror.Internal("Failed to create room", err)
	}

	s.log.Info("Room created", zap.String("room_id", room.ID.String()), zap.String("number", room.Number))

	resp := response.RoomToResponse(room)
	return &resp, nil
}

func (s *roomService) UpdateRoom(ctx context.Context, roomID uuid.UUID, req *request.UpdateRoomRequest) (*response.RoomResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Update room validation failed", zap.Any("errors", errs))
		return nil, validationError(errs)
	}

	room, err := s.repo.Room.FindByID(ctx, roomID)
	if err != nil {
		return nil, apperror.Internal("Failed to get room", err)
	}
	if room == nil {
		return nil, errRoomNotFound
	}

	if req.Type != nil {
		room.Type = *req.Type
	}
	if req.Number != nil {
		room.Number = *req.Number
	}
	if req.Price != nil {
		room.Price = *req.Price
	}
	if req.Capacity != nil {
		room.Capacity = *req.Capacity
	}
	if req.Description != nil {
		room.Description = *req.Description
	}
	if req.Amenities != nil {
		room.Amenities = *req.Amenities
	}
	if req.Images != nil {
		room.Images = *req.Images
	}
	if req.IsAvailable != nil {
		room.IsAvailable = *req.IsAvailable
	}
	room.UpdatedAt = time.Now()

	if err := s.repo.Room.Update(ctx, room); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, errRoomNumberTaken
		case errors.Is(err, repository.ErrRoomNotFound):
			return nil, errRoomNotFound
		default:
			return nil, apperror.Internal("Failed to update room", err)
		}
	}

	s.log.Info("Room updated", zap.String("room_id", roomID.String()))

	resp := response.RoomToResponse(room)
	return &resp, nil
}

func (s *roomService) DeleteRoom(ctx context.Context, roomID uuid.UUID) error {
	if err := s.repo.Room.Delete(ctx, roomID); err != nil {
		switch {
		case errors.Is(err, repository.ErrRoomNotFound):
			return errRoomNotFound
		case errors.Is(err, repository.ErrReferenced):
			return apperror.Conflict("Room has bookings and cannot be deleted")
		default:
			return apperror.Internal("Failed to delete room", err)
		}
	}

	s.log.Info("Room deleted", zap.String("room_id", roomID.String()))
	return nil
}
