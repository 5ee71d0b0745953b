package service

import (
	"bytes"
	"context"
	"fmt"

	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/stock"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// productService implements ProductService.
type productService struct {
	productRepo repository.ProductRepository
	logger      zerolog.Logger
}

// NewProductService creates a new product service.
func NewProductService(productRepo repository.ProductRepository, logger zerolog.Logger) ProductService {
	return &productService{
		productRepo: productRepo,
		logger:      logger.With().Str("service", "product").Logger(),
	}
}

// GetAll retrieves all products with pagination.
func (s *productService) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	products, err := s.productRepo.GetAll(ctx, limit, offset)
	if err != nil {
		s.logger.Error().Err(err).
			Int("limit", limit).
			Int("offset", offset).
			Msg("failed to get all products")
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	s.logger.Debug().
		Int("count", len(products)).
		Int("limit", limit).
		Int("offset", offset).
		Msg("retrieved products")

	return products, nil
}

// GetByID retrieves a single product by ID.
func (s *productService) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	if id == uuid.Nil {
		s.logger.Warn().Msg("product ID is empty")
		return nil, model.ErrProductNotFound
	}

	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("product_id", id.String()).Msg("failed to get product by ID")
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if product == nil {
		s.logger.Debug().Str("product_id", id.String()).Msg("product not found")
		return nil, model.ErrProductNotFound
	}

	return product, nil
}

// SetStock overwrites a product's stock and optionally its sizeStock map.
// A JSON null sizeStock leaves the stored map untouched.
func (s *productService) SetStock(ctx context.Context, id uuid.UUID, req *model.StockUpdateRequest) (*model.Product, error) {
	if req == nil || req.Stock == nil {
		return nil, model.ErrMissingStock
	}
	if *req.Stock < 0 {
		return nil, model.ErrNegativeStock
	}

	sizeStock := bytes.TrimSpace(req.SizeStock)
	if bytes.Equal(sizeStock, []byte("null")) {
		sizeStock = nil
	}
	if len(sizeStock) > 0 && !stock.ValidLegacy(sizeStock) {
		s.logger.Warn().Str("product_id", id.String()).Msg("rejected malformed sizeStock")
		return nil, model.ErrInvalidSizeStock
	}

	if err := s.productRepo.SetStock(ctx, id, *req.Stock, sizeStock); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("product_id", id.String()).
		Int("stock", *req.Stock).
		Msg("product stock updated by admin")

	return s.GetByID(ctx, id)
}

// SetVariantStock overwrites a variant's stock.
func (s *productService) SetVariantStock(ctx context.Context, id uuid.UUID, req *model.StockUpdateRequest) (*model.ProductVariant, error) {
	if req == nil || req.Stock == nil {
		return nil, model.ErrMissingStock
	}
	if *req.Stock < 0 {
		return nil, model.ErrNegativeStock
	}

	if err := s.productRepo.SetVariantStock(ctx, id, *req.Stock); err != nil {
		return nil, err
	}

	variant, err := s.productRepo.GetVariant(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to reload variant: %w", err)
	}
	if variant == nil {
		return nil, model.ErrVariantNotFound
	}

	s.logger.Info().
		Str("variant_id", id.String()).
		Int("stock", variant.Stock).
		Msg("variant stock updated by admin")

	return variant, nil
}
