package handler

import (
	"net/http"

	"storefront/internal/auth"
	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// OrderHandler handles order-related HTTP requests.
type OrderHandler struct {
	service service.OrderService
	responder
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(service service.OrderService, opts Options, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		service:   service,
		responder: responder{logger: logger.With().Str("handler", "order").Logger(), opts: opts},
	}
}

// Create handles POST /api/orders requests.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.OrderRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	order, err := h.service.CommitOrder(r.Context(), auth.FromContext(r.Context()), &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, order, h.logger)
}

// GetByID handles GET /api/orders/{id} requests.
func (h *OrderHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathUUID(w, r, "id", model.ErrOrderNotFound, h.logger)
	if !ok {
		return
	}

	order, err := h.service.GetOrder(r.Context(), sessionUser(r), orderID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, order, h.logger)
}
