package adaptor

import (
	"encoding/json"
	"errors"
	"net/http"

	"hotel-booking/internal/dto/request"
	"hotel-booking/internal/usecase"
	"hotel-booking/pkg/apperror"
	"hotel-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Handler struct {
	Auth    *AuthHandler
	User    *UserHandler
	Room    *RoomHandler
	Hotel   *HotelHandler
	Booking *BookingHandler
	Payment *PaymentHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Auth:    NewAuthHandler(service.Auth, log),
		User:    NewUserHandler(service.User, log),
		Room:    NewRoomHandler(service.Room, log),
		Hotel:   NewHotelHandler(service.Hotel, log),
		Booking: NewBookingHandler(service.Booking, log),
		Payment: NewPaymentHandler(service.Payment, log),
	}
}

// handleServiceError translates a service error into the response envelope.
// Client errors are logged as warnings, everything else as errors.
func handleServiceError(w http.ResponseWriter, log *zap.Logger, err error, operation string) {
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		log.Error("Failed to "+operation, zap.Error(err), zap.String("operation", operation))
		utils.ResponseInternalError(w, "Internal server error", nil)
		return
	}

	status := appErr.Kind.Status()
	if status >= http.StatusInternalServerError {
		log.Error("Failed to "+operation,
			zap.Error(err),
			zap.String("operation", operation),
			zap.String("kind", appErr.Kind.String()))
	} else {
		log.Warn(operation+" failed",
			zap.String("reason", appErr.Message),
			zap.String("operation", operation),
			zap.String("kind", appErr.Kind.String()))
	}

	utils.ResponseJSON(w, status, false, appErr.Message, nil, appErr.Detail)
}

// decodeBody reads a JSON body into dst, answering 400 itself when the body is malformed.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return false
	}
	return true
}

// pathID parses a UUID path parameter, answering 400 itself when it is malformed.
func pathID(w http.ResponseWriter, r *http.Request, param, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		utils.ResponseBadRequest(w, "Invalid "+label+" ID format", nil)
		return uuid.Nil, false
	}
	return id, true
}

func paginationFromQuery(r *http.Request) *request.PaginatedRequest {
	query := r.URL.Query()

	perPage := query.Get("limit")
	if perPage == "" {
		perPage = query.Get("per_page")
	}

	return &request.PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: utils.ParseInt(perPage, request.DefaultLimit),
	}
}
