package handler

import (
	"net/http"

	"storefront/internal/auth"
	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// CartHandler handles cart HTTP requests for the session user.
type CartHandler struct {
	service service.CartService
	responder
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(service service.CartService, opts Options, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		service:   service,
		responder: responder{logger: logger.With().Str("handler", "cart").Logger(), opts: opts},
	}
}

// sessionUser returns the authenticated user's ID, or "" when the request
// carries no session.
func sessionUser(r *http.Request) string {
	if s := auth.FromContext(r.Context()); s != nil {
		return s.UserID
	}
	return ""
}

// Get handles GET /api/cart requests.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	cart, err := h.service.GetCart(r.Context(), sessionUser(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, cart, h.logger)
}

// Add handles POST /api/cart requests.
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req model.AddToCartRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	cart, err := h.service.AddOrUpdateLine(r.Context(), sessionUser(r), &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, cart, h.logger)
}

// UpdateItem handles PATCH /api/cart/items/{id} requests.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathUUID(w, r, "id", model.ErrCartItemNotFound, h.logger)
	if !ok {
		return
	}

	var req model.UpdateCartItemRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	cart, err := h.service.SetLineQuantity(r.Context(), sessionUser(r), itemID, req.Quantity)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, cart, h.logger)
}

// RemoveItem handles DELETE /api/cart/items/{id} requests.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathUUID(w, r, "id", model.ErrCartItemNotFound, h.logger)
	if !ok {
		return
	}

	cart, err := h.service.RemoveLine(r.Context(), sessionUser(r), itemID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, cart, h.logger)
}

// Clear handles DELETE /api/cart requests.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Clear(r.Context(), sessionUser(r)); err != nil {
		h.fail(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
