package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type addressRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewAddressRepository creates a new PostgreSQL-backed address repository.
func NewAddressRepository(pool *pgxpool.Pool, logger zerolog.Logger) AddressRepository {
	return &addressRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "address").Logger(),
	}
}

func (r *addressRepository) GetForUser(ctx context.Context, id uuid.UUID, userID string) (*model.Address, error) {
	query := `
		SELECT id, user_id, full_name, phone, city, line, postal_code, created_at
		FROM addresses
		WHERE id = $1 AND user_id = $2
	`

	var a model.Address
	err := r.pool.QueryRow(ctx, query, id, userID).Scan(
		&a.ID, &a.UserID, &a.FullName, &a.Phone, &a.City, &a.Line, &a.PostalCode, &a.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().
				Str("address_id", id.String()).
				Str("user_id", userID).
				Msg("address not found for user")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("address_id", id.String()).Msg("failed to query address")
		return nil, fmt.Errorf("failed to query address: %w", err)
	}

	return &a, nil
}

func (r *addressRepository) Create(ctx context.Context, a *model.Address) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO addresses (id, user_id, full_name, phone, city, line, postal_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, a.ID, a.UserID, a.FullName, a.Phone, a.City, a.Line, a.PostalCode, a.CreatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", a.UserID).Msg("failed to create address")
		return fmt.Errorf("failed to create address: %w", err)
	}

	return nil
}
