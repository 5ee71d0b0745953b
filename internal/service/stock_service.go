package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/stock"

	"github.com/rs/zerolog"
)

// stockService implements StockService.
type stockService struct {
	productRepo repository.ProductRepository
	cartRepo    repository.CartRepository
	reservation reservationWindow
	logger      zerolog.Logger
}

// NewStockService creates a stock lookup service. Cart lines untouched for
// longer than reservationTTL stop counting as reserved; zero disables expiry.
func NewStockService(
	productRepo repository.ProductRepository,
	cartRepo repository.CartRepository,
	reservationTTL time.Duration,
	logger zerolog.Logger,
) StockService {
	return &stockService{
		productRepo: productRepo,
		cartRepo:    cartRepo,
		reservation: reservationWindow{ttl: reservationTTL, now: time.Now},
		logger:      logger.With().Str("service", "stock").Logger(),
	}
}

// Available returns the quantity of the selection not yet reserved in any cart.
func (s *stockService) Available(ctx context.Context, q StockQuery) (int, error) {
	product, variant, err := s.resolveSelection(ctx, q)
	if err != nil {
		return 0, err
	}

	size, color := q.Size, q.Color
	if variant != nil {
		size, color = variant.Size, variant.Color
	}
	key := stock.KeyOf(&model.CartItem{ProductID: product.ID, Size: size, Color: color})
	if variant != nil {
		key = stock.Key{ProductID: product.ID, VariantID: &variant.ID}
	}

	reserved, err := s.cartRepo.SumReserved(ctx, key, nil, s.reservation.since())
	if err != nil {
		return 0, fmt.Errorf("failed to sum reservations: %w", err)
	}

	available := stock.Resolve(product, variant, size, color, reserved)

	s.logger.Debug().
		Str("key", key.String()).
		Int("reserved", reserved).
		Int("available", available).
		Msg("stock lookup")

	return available, nil
}

func (s *stockService) resolveSelection(ctx context.Context, q StockQuery) (*model.Product, *model.ProductVariant, error) {
	if q.VariantID != nil {
		variant, err := s.productRepo.GetVariant(ctx, *q.VariantID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get variant: %w", err)
		}
		if variant == nil || (q.ProductID != nil && variant.ProductID != *q.ProductID) {
			return nil, nil, model.ErrVariantNotFound
		}
		product, err := loadProduct(ctx, s.productRepo, variant.ProductID)
		if err != nil {
			return nil, nil, err
		}
		return product, variant, nil
	}

	if q.ProductID == nil {
		return nil, nil, model.ErrProductNotFound
	}

	product, err := loadProduct(ctx, s.productRepo, *q.ProductID)
	if err != nil {
		return nil, nil, err
	}
	return product, stock.NewSource(product).Variant(nil, q.Size, q.Color), nil
}
