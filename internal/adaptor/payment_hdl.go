package adaptor

import (
	"encoding/json"
	"net/http"

	"hotel-booking/internal/dto/request"
	"hotel-booking/internal/dto/response"
	"hotel-booking/internal/usecase"
	"hotel-booking/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	service usecase.PaymentService
	log     *zap.Logger
}

func NewPaymentHandler(service usecase.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log.With(zap.String("handler", "payment")),
	}
}

// CreatePayment handles POST /api/payments/create-payment (protected)
func (h *PaymentHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.ResponseUnauthorized(w, "Authentication required")
		return
	}

	var req request.CreatePaymentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	order, err := h.service.CreatePayment(r.Context(), userID, &req)
	if err != nil {
		handleServiceError(w, h.log, err, "create payment")
		return
	}

	utils.ResponseSuccess(w, "Payment order created", order)
}

// Callback handles POST /api/payments/callback. The body is answered in the gateway's own
// {return_code, return_message} shape, never the API envelope.
func (h *PaymentHandler) Callback(w http.ResponseWriter, r *http.Request) {
	var req request.CallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Warn("Unreadable payment callback", zap.Error(err))
		utils.WriteJSON(w, http.StatusBadRequest, response.CallbackAck{ReturnCode: -1, ReturnMessage: "invalid body"})
		return
	}

	ack, err := h.service.HandleCallback(r.Context(), &req)
	if err != nil {
		h.log.Warn("Payment callback rejected", zap.String("reason", ack.ReturnMessage))
		utils.WriteJSON(w, http.StatusBadRequest, ack)
		return
	}

	utils.WriteJSON(w, http.StatusOK, ack)
}

// OrderStatus handles GET /api/payments/order-status/{appTransId} (protected)
func (h *PaymentHandler) OrderStatus(w http.ResponseWriter, r *http.Request) {
	appTransID := chi.URLParam(r, "appTransId")
	if appTransID == "" {
		utils.ResponseBadRequest(w, "appTransId is required", nil)
		return
	}

	status, err := h.service.HandleStatusQuery(r.Context(), appTransID)
	if err != nil {
		handleServiceError(w, h.log, err, "query order status")
		return
	}

	utils.ResponseSuccess(w, "success", status)
}

// ListFailures handles GET /api/payments/failures?limit= (admin only)
func (h *PaymentHandler) ListFailures(w http.ResponseWriter, r *http.Request) {
	limit := utils.ParseInt(r.URL.Query().Get("limit"), 0)

	failures, err := h.service.ListCallbackFailures(r.Context(), limit)
	if err != nil {
		handleServiceError(w, h.log, err, "list payment callback failures")
		return
	}

	utils.ResponseSuccess(w, "success", failures)
}
