package adaptor

import (
	"net/http"

	"hotel-booking/internal/dto/request"
	"hotel-booking/internal/usecase"
	"hotel-booking/pkg/utils"

	"go.uber.org/zap"
)

type HotelHandler struct {
	service usecase.HotelService
	log     *zap.Logger
}

func NewHotelHandler(service usecase.HotelService, log *zap.Logger) *HotelHandler {
	return &HotelHandler{
		service: service,
		log:     log.With(zap.String("handler", "hotel")),
	}
}

// GetHotel handles GET /api/hotel (public)
func (h *HotelHandler) GetHotel(w http.ResponseWriter, r *http.Request) {
	hotel, err := h.service.GetHotel(r.Context())
	if err != nil {
		handleServiceError(w, h.log, err, "get hotel")
		return
	}

	utils.ResponseSuccess(w, "success", hotel)
}

// SetupHotel handles POST /api/hotel/setup (admin only)
func (h *HotelHandler) SetupHotel(w http.ResponseWriter, r *http.Request) {
	var req request.SetupHotelRequest
	if !decodeBody(w, r, &req) {
		return
	}

	hotel, err := h.service.SetupHotel(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "set up hotel")
		return
	}

	utils.ResponseCreated(w, "Hotel configured successfully", hotel)
}

// UpdateHotel handles PUT /api/hotel (admin only)
func (h *HotelHandler) UpdateHotel(w http.ResponseWriter, r *http.Request) {
	var req request.UpdateHotelRequest
	if !decodeBody(w, r, &req) {
		return
	}

	hotel, err := h.service.UpdateHotel(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "update hotel")
		return
	}

	utils.ResponseSuccess(w, "Hotel updated successfully", hotel)
}
