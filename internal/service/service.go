package service

import (
	"context"

	"storefront/internal/auth"
	"storefront/internal/model"
	"storefront/internal/notify"

	"github.com/google/uuid"
)

// ProductService defines operations for product management.
type ProductService interface {
	// GetAll retrieves all products with pagination.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product with its variants.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// SetStock overwrites a product's stock and optionally its sizeStock map.
	SetStock(ctx context.Context, id uuid.UUID, req *model.StockUpdateRequest) (*model.Product, error)

	// SetVariantStock overwrites a variant's stock.
	SetVariantStock(ctx context.Context, id uuid.UUID, req *model.StockUpdateRequest) (*model.ProductVariant, error)
}

// StockQuery selects the stock pool to report on: a variant, or a product
// with an optional size and color.
type StockQuery struct {
	VariantID *uuid.UUID
	ProductID *uuid.UUID
	Size      string
	Color     string
}

// StockService answers availability lookups for clients.
type StockService interface {
	// Available returns the quantity that can still be added to a cart.
	Available(ctx context.Context, q StockQuery) (int, error)
}

// CartService defines operations on the caller's cart. Every mutation is
// validated against the stock reserved across all carts.
type CartService interface {
	// GetCart returns the user's cart with items and total, creating it if needed.
	GetCart(ctx context.Context, userID string) (*model.Cart, error)

	// AddOrUpdateLine adds quantity to the line for the requested selection,
	// creating the line if needed.
	AddOrUpdateLine(ctx context.Context, userID string, req *model.AddToCartRequest) (*model.Cart, error)

	// SetLineQuantity sets an existing line to an absolute quantity.
	SetLineQuantity(ctx context.Context, userID string, itemID uuid.UUID, quantity int) (*model.Cart, error)

	// RemoveLine deletes one line.
	RemoveLine(ctx context.Context, userID string, itemID uuid.UUID) (*model.Cart, error)

	// Clear deletes every line.
	Clear(ctx context.Context, userID string) error
}

// OrderService defines operations for order management.
type OrderService interface {
	// CommitOrder turns the session user's cart into an order.
	CommitOrder(ctx context.Context, session *auth.Session, req *model.OrderRequest) (*model.Order, error)

	// GetOrder retrieves one of the user's orders with its items.
	GetOrder(ctx context.Context, userID string, id uuid.UUID) (*model.Order, error)
}

// OrderNotifier is told about committed orders. Implementations must not block.
type OrderNotifier interface {
	OrderPlaced(ctx context.Context, o notify.OrderPlaced)
}
