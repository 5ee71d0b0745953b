package router

import (
	"net/http"

	"storefront/internal/auth"
	"storefront/internal/handler"
	"storefront/internal/middleware"

	"github.com/rs/zerolog"
)

// Handlers groups the HTTP handlers mounted by New.
type Handlers struct {
	Product *handler.ProductHandler
	Cart    *handler.CartHandler
	Order   *handler.OrderHandler
}

// New creates a new HTTP router with all routes and middleware configured.
// Cart and order routes require a customer session; admin routes require the
// API key.
func New(h Handlers, verifier *auth.Verifier, apiKey string, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	// Catalogue and stock lookup are public
	mux.HandleFunc("GET /api/products", h.Product.GetAll)
	mux.HandleFunc("GET /api/products/stock", h.Product.Stock)
	mux.HandleFunc("GET /api/products/{id}", h.Product.GetByID)

	customer := middleware.UserAuth(verifier, logger)
	mux.Handle("GET /api/cart", customer(http.HandlerFunc(h.Cart.Get)))
	mux.Handle("POST /api/cart", customer(http.HandlerFunc(h.Cart.Add)))
	mux.Handle("DELETE /api/cart", customer(http.HandlerFunc(h.Cart.Clear)))
	mux.Handle("PATCH /api/cart/items/{id}", customer(http.HandlerFunc(h.Cart.UpdateItem)))
	mux.Handle("DELETE /api/cart/items/{id}", customer(http.HandlerFunc(h.Cart.RemoveItem)))
	mux.Handle("POST /api/orders", customer(http.HandlerFunc(h.Order.Create)))
	mux.Handle("GET /api/orders/{id}", customer(http.HandlerFunc(h.Order.GetByID)))

	admin := middleware.APIKeyAuth(apiKey, logger)
	mux.Handle("PUT /api/admin/products/{id}/stock", admin(http.HandlerFunc(h.Product.SetStock)))
	mux.Handle("PUT /api/admin/variants/{id}/stock", admin(http.HandlerFunc(h.Product.SetVariantStock)))

	// Apply middleware in order: Recovery -> Logging -> CORS
	var handler http.Handler = mux
	handler = middleware.CORS(handler)
	handler = middleware.Logging(logger)(handler)
	handler = middleware.Recovery(logger)(handler)

	return handler
}
