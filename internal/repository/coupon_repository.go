package repository

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// couponRepository implements the CouponRepository interface using PostgreSQL.
type couponRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCouponRepository creates a new PostgreSQL-backed coupon repository.
func NewCouponRepository(pool *pgxpool.Pool, logger zerolog.Logger) CouponRepository {
	return &couponRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "coupon").Logger(),
	}
}

// GetByID retrieves a coupon. Returns nil when absent.
func (r *couponRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Coupon, error) {
	query := `
		SELECT id, code, discount_type, discount_value, usage_limit, used_count,
			min_purchase, max_discount, is_active, expires_at, created_at
		FROM coupons
		WHERE id = $1
	`

	var c model.Coupon
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID, &c.Code, &c.DiscountType, &c.DiscountValue, &c.UsageLimit, &c.UsedCount,
		&c.MinPurchase, &c.MaxDiscount, &c.IsActive, &c.ExpiresAt, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("coupon_id", id.String()).Msg("coupon not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("coupon_id", id.String()).Msg("failed to query coupon")
		return nil, fmt.Errorf("failed to query coupon: %w", err)
	}

	return &c, nil
}

// Upsert inserts coupons or updates existing ones matched by code, preserving
// their used count.
func (r *couponRepository) Upsert(ctx context.Context, coupons []model.Coupon) error {
	if len(coupons) == 0 {
		return nil
	}

	query := `
		INSERT INTO coupons (
			id, code, discount_type, discount_value, usage_limit,
			min_purchase, max_discount, is_active, expires_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (code) DO UPDATE SET
			discount_type = EXCLUDED.discount_type,
			discount_value = EXCLUDED.discount_value,
			usage_limit = EXCLUDED.usage_limit,
			min_purchase = EXCLUDED.min_purchase,
			max_discount = EXCLUDED.max_discount,
			is_active = EXCLUDED.is_active,
			expires_at = EXCLUDED.expires_at
	`

	batch := &pgx.Batch{}
	for _, c := range coupons {
		id := c.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		batch.Queue(query,
			id, c.Code, c.DiscountType, c.DiscountValue, c.UsageLimit,
			c.MinPurchase, c.MaxDiscount, c.IsActive, c.ExpiresAt,
		)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := range coupons {
		if _, err := results.Exec(); err != nil {
			r.logger.Error().
				Err(err).
				Str("code", coupons[i].Code).
				Msg("failed to upsert coupon")
			return fmt.Errorf("failed to upsert coupon %s: %w", coupons[i].Code, err)
		}
	}

	r.logger.Info().Int("count", len(coupons)).Msg("coupons upserted")

	return nil
}

// IncrementUsage bumps used_count within tx unless the usage limit is already
// reached.
func (r *couponRepository) IncrementUsage(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	tag, err := tx.Exec(ctx, `
		UPDATE coupons
		SET used_count = used_count + 1
		WHERE id = $1 AND (usage_limit IS NULL OR used_count < usage_limit)
	`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("coupon_id", id.String()).Msg("failed to increment coupon usage")
		return fmt.Errorf("failed to increment coupon usage: %w", err)
	}

	if tag.RowsAffected() == 0 {
		r.logger.Warn().Str("coupon_id", id.String()).Msg("coupon usage limit reached at commit")
		return model.ErrCouponExhausted
	}

	return nil
}
