package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"storefront/internal/model"
	"storefront/internal/stock"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const productColumns = `id, name, slug, image, price, discount_percent, stock, size_stock, in_stock, sizes, colors, created_at, updated_at`

// productRepository implements the ProductRepository interface using PostgreSQL.
type productRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProductRepository creates a new PostgreSQL-backed product repository.
func NewProductRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProductRepository {
	return &productRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "product").Logger(),
	}
}

func scanProduct(row pgx.Row) (model.Product, error) {
	var p model.Product
	var sizeStock []byte
	err := row.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Image, &p.Price, &p.DiscountPercent,
		&p.Stock, &sizeStock, &p.InStock, &p.Sizes, &p.Colors,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if len(sizeStock) > 0 {
		p.SizeStock = json.RawMessage(sizeStock)
	}
	return p, err
}

// GetAll retrieves products with their variants, with pagination support.
func (r *productRepository) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products
		ORDER BY name
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to query products")
		return nil, fmt.Errorf("failed to query products: %w", err)
	}

	products, err := r.collectProducts(rows)
	if err != nil {
		return nil, err
	}

	if err := r.attachVariants(ctx, products); err != nil {
		return nil, err
	}

	return products, nil
}

// GetByID retrieves a single product with its variants.
func (r *productRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	query := `SELECT ` + productColumns + `
		FROM products
		WHERE id = $1
	`

	p, err := scanProduct(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("product_id", id.String()).Msg("product not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to query product")
		return nil, fmt.Errorf("failed to query product: %w", err)
	}

	products := []model.Product{p}
	if err := r.attachVariants(ctx, products); err != nil {
		return nil, err
	}

	return &products[0], nil
}

// GetByIDs retrieves multiple products with their variants.
func (r *productRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	query := `SELECT ` + productColumns + `
		FROM products
		WHERE id = ANY($1)
		ORDER BY name
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to query products by IDs")
		return nil, fmt.Errorf("failed to query products by IDs: %w", err)
	}

	products, err := r.collectProducts(rows)
	if err != nil {
		return nil, err
	}

	if err := r.attachVariants(ctx, products); err != nil {
		return nil, err
	}

	return products, nil
}

func (r *productRepository) collectProducts(rows pgx.Rows) ([]model.Product, error) {
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product row")
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product rows")
		return nil, fmt.Errorf("error iterating products: %w", err)
	}

	return products, nil
}

// attachVariants loads the variants of all given products in one query.
func (r *productRepository) attachVariants(ctx context.Context, products []model.Product) error {
	if len(products) == 0 {
		return nil
	}

	ids := make([]uuid.UUID, len(products))
	index := make(map[uuid.UUID]int, len(products))
	for i, p := range products {
		ids[i] = p.ID
		index[p.ID] = i
	}

	query := `
		SELECT id, product_id, color, size, price, stock, image
		FROM product_variants
		WHERE product_id = ANY($1)
		ORDER BY size, color
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		r.logger.Error().Err(err).Int("count", len(ids)).Msg("failed to query product variants")
		return fmt.Errorf("failed to query product variants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v model.ProductVariant
		if err := rows.Scan(&v.ID, &v.ProductID, &v.Color, &v.Size, &v.Price, &v.Stock, &v.Image); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan product variant row")
			return fmt.Errorf("failed to scan product variant: %w", err)
		}
		i := index[v.ProductID]
		products[i].Variants = append(products[i].Variants, v)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating product variant rows")
		return fmt.Errorf("error iterating product variants: %w", err)
	}

	return nil
}

// GetVariant retrieves a single variant.
func (r *productRepository) GetVariant(ctx context.Context, id uuid.UUID) (*model.ProductVariant, error) {
	query := `
		SELECT id, product_id, color, size, price, stock, image
		FROM product_variants
		WHERE id = $1
	`

	var v model.ProductVariant
	err := r.pool.QueryRow(ctx, query, id).Scan(&v.ID, &v.ProductID, &v.Color, &v.Size, &v.Price, &v.Stock, &v.Image)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("variant_id", id.String()).Msg("variant not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("variant_id", id.String()).Msg("failed to query variant")
		return nil, fmt.Errorf("failed to query variant: %w", err)
	}

	return &v, nil
}

// SetStock overwrites a product's aggregate stock and, when given, its sizeStock document.
func (r *productRepository) SetStock(ctx context.Context, id uuid.UUID, stockCount int, sizeStock json.RawMessage) error {
	query := `
		UPDATE products
		SET stock = $2,
			in_stock = $2 > 0,
			size_stock = COALESCE($3::jsonb, size_stock),
			updated_at = NOW()
		WHERE id = $1
	`

	var doc interface{}
	if len(sizeStock) > 0 {
		doc = []byte(sizeStock)
	}

	tag, err := r.pool.Exec(ctx, query, id, stockCount, doc)
	if err != nil {
		r.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to set product stock")
		return fmt.Errorf("failed to set product stock: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrProductNotFound
	}

	r.logger.Info().
		Str("product_id", id.String()).
		Int("stock", stockCount).
		Bool("size_stock", doc != nil).
		Msg("product stock set")

	return nil
}

// SetVariantStock overwrites a variant's stock.
func (r *productRepository) SetVariantStock(ctx context.Context, id uuid.UUID, stockCount int) error {
	tag, err := r.pool.Exec(ctx, `UPDATE product_variants SET stock = $2 WHERE id = $1`, id, stockCount)
	if err != nil {
		r.logger.Error().Err(err).Str("variant_id", id.String()).Msg("failed to set variant stock")
		return fmt.Errorf("failed to set variant stock: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrVariantNotFound
	}

	r.logger.Info().
		Str("variant_id", id.String()).
		Int("stock", stockCount).
		Msg("variant stock set")

	return nil
}

// DecrementStock removes quantity units from the pool a cart line draws from.
//
// Variant rows are decremented with a conditional UPDATE so concurrent commits
// cannot drive them negative; the product's aggregate stock mirrors the change
// floored at zero. Products without variants are row-locked so the legacy
// sizeStock counter and the aggregate stock are checked and written together.
func (r *productRepository) DecrementStock(ctx context.Context, tx pgx.Tx, key stock.Key, quantity int) error {
	if key.VariantID != nil {
		return r.decrementVariant(ctx, tx, key.ProductID, *key.VariantID, quantity)
	}
	return r.decrementProduct(ctx, tx, key, quantity)
}

func (r *productRepository) decrementVariant(ctx context.Context, tx pgx.Tx, productID, variantID uuid.UUID, quantity int) error {
	tag, err := tx.Exec(ctx, `
		UPDATE product_variants
		SET stock = stock - $1
		WHERE id = $2 AND product_id = $3 AND stock >= $1
	`, quantity, variantID, productID)
	if err != nil {
		r.logger.Error().Err(err).Str("variant_id", variantID.String()).Msg("failed to decrement variant stock")
		return fmt.Errorf("failed to decrement variant stock: %w", err)
	}

	if tag.RowsAffected() == 0 {
		var current int
		if err := tx.QueryRow(ctx, `SELECT stock FROM product_variants WHERE id = $1`, variantID).Scan(&current); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return model.ErrVariantNotFound
			}
			return fmt.Errorf("failed to read variant stock: %w", err)
		}
		r.logger.Warn().
			Str("variant_id", variantID.String()).
			Int("requested", quantity).
			Int("available", current).
			Msg("variant stock exhausted at commit")
		return model.NewInsufficientStockError(productID, "", current)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE products
		SET stock = GREATEST(stock - $1, 0), updated_at = NOW()
		WHERE id = $2
	`, quantity, productID); err != nil {
		r.logger.Error().Err(err).Str("product_id", productID.String()).Msg("failed to mirror product stock")
		return fmt.Errorf("failed to mirror product stock: %w", err)
	}

	return nil
}

func (r *productRepository) decrementProduct(ctx context.Context, tx pgx.Tx, key stock.Key, quantity int) error {
	var current int
	var raw []byte
	err := tx.QueryRow(ctx, `SELECT stock, size_stock FROM products WHERE id = $1 FOR UPDATE`, key.ProductID).Scan(&current, &raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrProductNotFound
		}
		r.logger.Error().Err(err).Str("product_id", key.ProductID.String()).Msg("failed to lock product")
		return fmt.Errorf("failed to lock product: %w", err)
	}

	available := current
	var sizeStock interface{}
	if entry, ok := stock.LegacyEntry(raw, key.Size, key.Color); ok {
		available = entry
		if available >= quantity {
			doc, err := stock.DecrementLegacy(raw, key.Size, key.Color, quantity)
			if err != nil {
				return fmt.Errorf("failed to rewrite size stock: %w", err)
			}
			sizeStock = []byte(doc)
		}
	}

	if available < quantity {
		r.logger.Warn().
			Str("product_id", key.ProductID.String()).
			Str("size", key.Size).
			Str("color", key.Color).
			Int("requested", quantity).
			Int("available", available).
			Msg("product stock exhausted at commit")
		return model.NewInsufficientStockError(key.ProductID, "", available)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE products
		SET stock = GREATEST(stock - $1, 0),
			in_stock = GREATEST(stock - $1, 0) > 0,
			size_stock = COALESCE($3::jsonb, size_stock),
			updated_at = NOW()
		WHERE id = $2
	`, quantity, key.ProductID, sizeStock); err != nil {
		r.logger.Error().Err(err).Str("product_id", key.ProductID.String()).Msg("failed to decrement product stock")
		return fmt.Errorf("failed to decrement product stock: %w", err)
	}

	return nil
}
