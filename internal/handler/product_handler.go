package handler

import (
	"net/http"
	"strconv"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ProductHandler handles product and stock HTTP requests.
type ProductHandler struct {
	service service.ProductService
	stock   service.StockService
	responder
}

// NewProductHandler creates a new product handler.
func NewProductHandler(service service.ProductService, stock service.StockService, opts Options, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		service:   service,
		stock:     stock,
		responder: responder{logger: logger.With().Str("handler", "product").Logger(), opts: opts},
	}
}

// GetAll handles GET /api/products requests with pagination.
func (h *ProductHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	limit, ok := h.queryInt(w, r, "limit", 10)
	if !ok {
		return
	}
	offset, ok := h.queryInt(w, r, "offset", 0)
	if !ok {
		return
	}

	products, err := h.service.GetAll(r.Context(), limit, offset)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, products, h.logger)
}

func (h *ProductHandler) queryInt(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, model.NewDomainError(model.ErrCodeInvalidField, "پارامتر "+name+" معتبر نیست"), h.logger)
		return 0, false
	}
	return n, true
}

// GetByID handles GET /api/products/{id} requests.
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathUUID(w, r, "id", model.ErrProductNotFound, h.logger)
	if !ok {
		return
	}

	product, err := h.service.GetByID(r.Context(), productID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, product, h.logger)
}

// Stock handles GET /api/products/stock requests. The selection is either
// ?variantId= or ?productId= with optional size and color.
func (h *ProductHandler) Stock(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var q service.StockQuery

	if raw := query.Get("variantId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, model.ErrVariantNotFound, h.logger)
			return
		}
		q.VariantID = &id
	}
	if raw := query.Get("productId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, model.ErrProductNotFound, h.logger)
			return
		}
		q.ProductID = &id
	}
	if q.VariantID == nil && q.ProductID == nil {
		writeError(w, model.NewDomainError(model.ErrCodeMissingField, "شناسه محصول یا تنوع الزامی است"), h.logger)
		return
	}
	q.Size = query.Get("size")
	q.Color = query.Get("color")

	available, err := h.stock.Available(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, model.StockLookupResponse{AvailableStock: available}, h.logger)
}

// SetStock handles PUT /api/admin/products/{id}/stock requests.
func (h *ProductHandler) SetStock(w http.ResponseWriter, r *http.Request) {
	productID, ok := pathUUID(w, r, "id", model.ErrProductNotFound, h.logger)
	if !ok {
		return
	}

	var req model.StockUpdateRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	product, err := h.service.SetStock(r.Context(), productID, &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, product, h.logger)
}

// SetVariantStock handles PUT /api/admin/variants/{id}/stock requests.
func (h *ProductHandler) SetVariantStock(w http.ResponseWriter, r *http.Request) {
	variantID, ok := pathUUID(w, r, "id", model.ErrVariantNotFound, h.logger)
	if !ok {
		return
	}

	var req model.StockUpdateRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}

	variant, err := h.service.SetVariantStock(r.Context(), variantID, &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, variant, h.logger)
}
