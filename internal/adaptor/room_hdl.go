package adaptor

import (
	"net/http"

	"hotel-booking/internal/dto/request"
	"hotel-booking/internal/usecase"
	"hotel-booking/pkg/utils"

	"go.uber.org/zap"
)

type RoomHandler struct {
	service usecase.RoomService
	log     *zap.Logger
}

func NewRoomHandler(service usecase.RoomService, log *zap.Logger) *RoomHandler {
	return &RoomHandler{
		service: service,
		log:     log.With(zap.String("handler", "room")),
	}
}

// GetRooms handles GET /api/rooms (public)
func (h *RoomHandler) GetRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.service.GetRooms(r.Context(), paginationFromQuery(r))
	if err != nil {
		handleServiceError(w, h.log, err, "get rooms")
		return
	}

	utils.ResponsePaginated(w, "success", rooms.Data, rooms.Pagination)
}

// GetRoom handles GET /api/rooms/{id} (public)
func (h *RoomHandler) GetRoom(w http.ResponseWriter, r *http.Request) {
	roomID, ok := pathID(w, r, "id", "room")
	if !ok {
		return
	}

	room, err := h.service.GetRoom(r.Context(), roomID)
	if err != nil {
		handleServiceError(w, h.log, err, "get room")
		return
	}

	utils.ResponseSuccess(w, "success", room)
}

// SearchAvailable handles GET /api/rooms/available?checkIn=&checkOut=&capacity=&minPrice=&maxPrice= (public)
func (h *RoomHandler) SearchAvailable(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	req := &request.SearchRoomsRequest{
		CheckIn:  query.Get("checkIn"),
		CheckOut: query.Get("checkOut"),
		Capacity: utils.ParseInt(query.Get("capacity"), 0),
		MinPrice: utils.ParseFloat(query.Get("minPrice")),
		MaxPrice: utils.ParseFloat(query.Get("maxPrice")),
	}

	rooms, err := h.service.SearchAvailable(r.Context(), req)
	if err != nil {
		handleServiceError(w, h.log, err, "search available rooms")
		return
	}

	utils.ResponseSuccess(w, "success", rooms)
}

// ==================== ADMIN METHODS ====================

// CreateRoom handles POST /api/rooms (admin only)
func (h *RoomHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req request.CreateRoomRequest
	if !decodeBody(w, r, &req) {
		return
	}

	room, err := h.service.CreateRoom(r.Context(), &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create room")
		return
	}

	utils.ResponseCreated(w, "Room created successfully", room)
}

// UpdateRoom handles PUT /api/rooms/{id} (admin only)
func (h *RoomHandler) UpdateRoom(w http.ResponseWriter, r *http.Request) {
	roomID, ok := pathID(w, r, "id", "room")
	if !ok {
		return
	}

	var req request.UpdateRoomRequest
	if !decodeBody(w, r, &req) {
		return
	}

	room, err := h.service.UpdateRoom(r.Context(), roomID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "update room")
		return
	}

	utils.ResponseSuccess(w, "Room updated successfully", room)
}

// DeleteRoom handles DELETE /api/rooms/{id} (admin only)
func (h *RoomHandler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	roomID, ok := pathID(w, r, "id", "room")
	if !ok {
		return
	}

	if err := h.service.DeleteRoom(r.Context(), roomID); err != nil {
		handleServiceError(w, h.log, err, "delete room")
		return
	}

	utils.ResponseSuccess(w, "Room deleted successfully", nil)
}
