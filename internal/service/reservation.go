package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
)

// reservationWindow decides which cart lines still hold stock.
type reservationWindow struct {
	ttl time.Duration
	now func() time.Time
}

// since returns the oldest update time of a line that still counts as a
// reservation, or nil when reservations never expire.
func (w reservationWindow) since() *time.Time {
	if w.ttl <= 0 {
		return nil
	}
	t := w.now().Add(-w.ttl)
	return &t
}

func loadProduct(ctx context.Context, repo repository.ProductRepository, id uuid.UUID) (*model.Product, error) {
	product, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}
	return product, nil
}
