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

	"go.uber.org/zap"
)

type HotelService interface {
	GetHotel(ctx context.Context) (*response.HotelResponse, error)
	SetupHotel(ctx context.Context, req *request.SetupHotelRequest) (*response.HotelResponse, error)
	UpdateHotel(ctx context.Context, req *request.UpdateHotelRequest) (*response.HotelResponse, error)
}

type hotelService struct {
	hotelRepo repository.HotelRepository
	log       *zap.Logger
}

func NewHotelService(hotelRepo repository.HotelRepository, log *zap.Logger) HotelService {
	return &hotelService{
		hotelRepo: hotelRepo,
		log:       log.With(zap.String("service", "hotel")),
	}
}

var (
	errHotelNotFound = apperror.NotFound("Hotel information not found")
	errHotelExists   = apperror.Conflict("Hotel is already configured")
)

func (s *hotelService) GetHotel(ctx context.Context) (*response.HotelResponse, error) {
	hotel, err := s.hotelRepo.Get(ctx)
	if err != nil {
		return nil, apperror.Internal("Failed to get hotel information", err)
	}
	if hotel == nil {
		return nil, errHotelNotFound
	}

	resp := response.HotelToResponse(hotel)
	return &resp, nil
}

func (s *hotelService) SetupHotel(ctx context.Context, req *request.SetupHotelRequest) (*response.HotelResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Hotel setup validation failed", zap.Any("errors", errs))
		return nil, validationError(errs)
	}

	now := time.Now()
	hotel := &entity.Hotel{
		Name:         req.Name,
		Description:  req.Description,
		Address:      req.Address,
		City:         req.City,
		Images:       req.Images,
		Rating:       req.Rating,
		Amenities:    req.Amenities,
		IsConfigured: true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.hotelRepo.Create(ctx, hotel); err != nil {
		if errors.Is(err, repository.ErrHotelExists) {
			return nil, errHotelExists
		}
		return nil, apperror.Internal("Failed to set up hotel", err)
	}

	s.log.Info("Hotel configured", zap.String("name", hotel.Name))

	resp := response.HotelToResponse(hotel)
	return &resp, nil
}

func (s *hotelService) UpdateHotel(ctx context.Context, req *request.UpdateHotelRequest) (*response.HotelResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Hotel update validation failed", zap.Any("errors", errs))
		return nil, validationError(errs)
	}

	hotel, err := s.hotelRepo.Get(ctx)
	if err != nil {
		return nil, apperror.Internal("Failed to get hotel information", err)
	}
	if hotel == nil {
		return nil, errHotelNotFound
	}

	if req.Name != nil {
		hotel.Name = *req.Name
	}
	if req.Description != nil {
		hotel.Description = *req.Description
	}
	if req.Address != nil {
		hotel.Address = *req.Address
	}
	if req.City != nil {
		hotel.City = *req.City
	}
	if req.Images != nil {
		hotel.Images = *req.Images
	}
	if req.Rating != nil {
		hotel.Rating = *req.Rating
	}
	if req.Amenities != nil {
		hotel.Amenities = *req.Amenities
	}
	hotel.UpdatedAt = time.Now()

	if err := s.hotelRepo.Update(ctx, hotel); err != nil {
		if errors.Is(err, repository.ErrHotelNotFound) {
			return nil, errHotelNotFound
		}
		return nil, apperror.Internal("Failed to update hotel", err)
	}

	resp := response.HotelToResponse(hotel)
	return &resp, nil
}
