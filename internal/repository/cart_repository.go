package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/model"
	"storefront/internal/stock"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const cartItemColumns = `id, cart_id, product_id, variant_id, quantity, size, color, created_at, updated_at`

// cartRepository implements the CartRepository interface using PostgreSQL.
type cartRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCartRepository creates a new PostgreSQL-backed cart repository.
func NewCartRepository(pool *pgxpool.Pool, logger zerolog.Logger) CartRepository {
	return &cartRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "cart").Logger(),
	}
}

func scanCartItem(row pgx.Row) (model.CartItem, error) {
	var item model.CartItem
	err := row.Scan(
		&item.ID, &item.CartID, &item.ProductID, &item.VariantID, &item.Quantity,
		&item.Size, &item.Color, &item.CreatedAt, &item.UpdatedAt,
	)
	return item, err
}

// GetOrCreate returns the user's cart, creating an empty one if needed.
func (r *cartRepository) GetOrCreate(ctx context.Context, userID string) (*model.Cart, error) {
	// The no-op update makes RETURNING yield the existing row on conflict.
	query := `
		INSERT INTO carts (id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING id, user_id, created_at, updated_at
	`

	var cart model.Cart
	err := r.pool.QueryRow(ctx, query, uuid.New(), userID).Scan(
		&cart.ID, &cart.UserID, &cart.CreatedAt, &cart.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", userID).Msg("failed to get or create cart")
		return nil, fmt.Errorf("failed to get or create cart: %w", err)
	}

	return &cart, nil
}

// GetItems returns every line of a cart, oldest first.
func (r *cartRepository) GetItems(ctx context.Context, cartID uuid.UUID) ([]model.CartItem, error) {
	query := `SELECT ` + cartItemColumns + `
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY created_at, id
	`

	rows, err := r.pool.Query(ctx, query, cartID)
	if err != nil {
		r.logger.Error().Err(err).Str("cart_id", cartID.String()).Msg("failed to query cart items")
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	items := []model.CartItem{}
	for rows.Next() {
		item, err := scanCartItem(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan cart item row")
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating cart item rows")
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}

	return items, nil
}

// GetItem returns one line of a cart. Returns nil when absent.
func (r *cartRepository) GetItem(ctx context.Context, cartID, itemID uuid.UUID) (*model.CartItem, error) {
	query := `SELECT ` + cartItemColumns + `
		FROM cart_items
		WHERE cart_id = $1 AND id = $2
	`

	return r.queryItem(ctx, query, cartID, itemID)
}

// FindLine returns the cart's line drawing from key. Returns nil when absent.
func (r *cartRepository) FindLine(ctx context.Context, cartID uuid.UUID, key stock.Key) (*model.CartItem, error) {
	if key.VariantID != nil {
		query := `SELECT ` + cartItemColumns + `
			FROM cart_items
			WHERE cart_id = $1 AND variant_id = $2
			LIMIT 1
		`
		return r.queryItem(ctx, query, cartID, *key.VariantID)
	}

	query := `SELECT ` + cartItemColumns + `
		FROM cart_items
		WHERE cart_id = $1 AND product_id = $2 AND variant_id IS NULL
			AND size = $3 AND color = $4
		LIMIT 1
	`
	return r.queryItem(ctx, query, cartID, key.ProductID, key.Size, key.Color)
}

func (r *cartRepository) queryItem(ctx context.Context, query string, args ...any) (*model.CartItem, error) {
	item, err := scanCartItem(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to query cart item")
		return nil, fmt.Errorf("failed to query cart item: %w", err)
	}
	return &item, nil
}

// InsertItem adds a new line.
func (r *cartRepository) InsertItem(ctx context.Context, item *model.CartItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	query := `
		INSERT INTO cart_items (` + cartItemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		item.ID, item.CartID, item.ProductID, item.VariantID, item.Quantity,
		item.Size, item.Color, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("cart_id", item.CartID.String()).
			Str("product_id", item.ProductID.String()).
			Msg("failed to insert cart item")
		return fmt.Errorf("failed to insert cart item: %w", err)
	}

	r.logger.Debug().
		Str("cart_id", item.CartID.String()).
		Str("item_id", item.ID.String()).
		Int("quantity", item.Quantity).
		Msg("cart item inserted")

	return nil
}

// UpdateQuantity sets a line's quantity and refreshes its reservation time.
func (r *cartRepository) UpdateQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE cart_items
		SET quantity = $2, updated_at = NOW()
		WHERE id = $1
	`, itemID, quantity)
	if err != nil {
		r.logger.Error().Err(err).Str("item_id", itemID.String()).Msg("failed to update cart item")
		return fmt.Errorf("failed to update cart item: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrCartItemNotFound
	}

	return nil
}

// DeleteItem removes a line. Reports whether a row was deleted.
func (r *cartRepository) DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1 AND id = $2`, cartID, itemID)
	if err != nil {
		r.logger.Error().Err(err).Str("item_id", itemID.String()).Msg("failed to delete cart item")
		return false, fmt.Errorf("failed to delete cart item: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Clear removes every line of a cart.
func (r *cartRepository) Clear(ctx context.Context, cartID uuid.UUID) error {
	return r.clear(ctx, r.pool, cartID)
}

// ClearTx removes every line of a cart within tx.
func (r *cartRepository) ClearTx(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) error {
	return r.clear(ctx, tx, cartID)
}

func (r *cartRepository) clear(ctx context.Context, q querier, cartID uuid.UUID) error {
	tag, err := q.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	if err != nil {
		r.logger.Error().Err(err).Str("cart_id", cartID.String()).Msg("failed to clear cart")
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	r.logger.Debug().
		Str("cart_id", cartID.String()).
		Int64("removed", tag.RowsAffected()).
		Msg("cart cleared")

	return nil
}

// SumReserved totals quantities across all carts drawing from key, skipping
// the excluded line and lines untouched since before since.
func (r *cartRepository) SumReserved(ctx context.Context, key stock.Key, exclude *uuid.UUID, since *time.Time) (int, error) {
	var query string
	var args []any
	if key.VariantID != nil {
		query = `
			SELECT COALESCE(SUM(quantity), 0)
			FROM cart_items
			WHERE variant_id = $1
				AND ($2::uuid IS NULL OR id <> $2)
				AND ($3::timestamptz IS NULL OR updated_at >= $3)
		`
		args = []any{*key.VariantID, exclude, since}
	} else {
		query = `
			SELECT COALESCE(SUM(quantity), 0)
			FROM cart_items
			WHERE product_id = $1 AND variant_id IS NULL AND size = $2 AND color = $3
				AND ($4::uuid IS NULL OR id <> $4)
				AND ($5::timestamptz IS NULL OR updated_at >= $5)
		`
		args = []any{key.ProductID, key.Size, key.Color, exclude, since}
	}

	var reserved int
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&reserved); err != nil {
		r.logger.Error().Err(err).Str("key", key.String()).Msg("failed to sum reserved quantity")
		return 0, fmt.Errorf("failed to sum reserved quantity: %w", err)
	}

	return reserved, nil
}
