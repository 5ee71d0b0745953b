package repository

import (
	"context"
	"encoding/json"
	"time"

	"storefront/internal/model"
	"storefront/internal/stock"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// GetAll retrieves products with their variants, with pagination support.
	GetAll(ctx context.Context, limit, offset int) ([]model.Product, error)

	// GetByID retrieves a single product with its variants. Returns nil when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)

	// GetByIDs retrieves multiple products with their variants.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)

	// GetVariant retrieves a single variant. Returns nil when absent.
	GetVariant(ctx context.Context, id uuid.UUID) (*model.ProductVariant, error)

	// SetStock overwrites a product's aggregate stock and, when given, its
	// sizeStock document.
	SetStock(ctx context.Context, id uuid.UUID, stock int, sizeStock json.RawMessage) error

	// SetVariantStock overwrites a variant's stock.
	SetVariantStock(ctx context.Context, id uuid.UUID, stock int) error

	// DecrementStock atomically removes quantity units from the pool key draws
	// from within tx. It fails with an InsufficientStock error instead of
	// driving the authoritative counter below zero.
	DecrementStock(ctx context.Context, tx pgx.Tx, key stock.Key, quantity int) error
}

// CartRepository defines the interface for cart data access operations.
type CartRepository interface {
	// GetOrCreate returns the user's cart, creating an empty one if needed.
	GetOrCreate(ctx context.Context, userID string) (*model.Cart, error)

	// GetItems returns every line of a cart, oldest first.
	GetItems(ctx context.Context, cartID uuid.UUID) ([]model.CartItem, error)

	// GetItem returns one line of a cart. Returns nil when absent.
	GetItem(ctx context.Context, cartID, itemID uuid.UUID) (*model.CartItem, error)

	// FindLine returns the cart's line drawing from key. Returns nil when absent.
	FindLine(ctx context.Context, cartID uuid.UUID, key stock.Key) (*model.CartItem, error)

	// InsertItem adds a new line.
	InsertItem(ctx context.Context, item *model.CartItem) error

	// UpdateQuantity sets a line's quantity and refreshes its reservation time.
	UpdateQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error

	// DeleteItem removes a line. Reports whether a row was deleted.
	DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) (bool, error)

	// Clear removes every line of a cart.
	Clear(ctx context.Context, cartID uuid.UUID) error

	// ClearTx removes every line of a cart within tx.
	ClearTx(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) error

	// SumReserved totals quantities across all carts drawing from key,
	// skipping the excluded line and lines untouched since before since.
	SumReserved(ctx context.Context, key stock.Key, exclude *uuid.UUID, since *time.Time) (int, error)
}

// AddressRepository defines the interface for address data access operations.
type AddressRepository interface {
	// GetForUser returns the address when it belongs to userID, otherwise nil.
	GetForUser(ctx context.Context, id uuid.UUID, userID string) (*model.Address, error)

	// Create inserts an address.
	Create(ctx context.Context, address *model.Address) error
}

// CouponRepository defines the interface for coupon data access operations.
type CouponRepository interface {
	// GetByID retrieves a coupon. Returns nil when absent.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Coupon, error)

	// Upsert inserts coupons or updates existing ones matched by code,
	// preserving their used count.
	Upsert(ctx context.Context, coupons []model.Coupon) error

	// IncrementUsage bumps used_count within tx unless the usage limit is
	// already reached.
	IncrementUsage(ctx context.Context, tx pgx.Tx, id uuid.UUID) error
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts multiple order items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// GetByID retrieves an order by its ID along with its items.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
}
