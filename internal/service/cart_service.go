package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/stock"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// cartService implements CartService.
type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	reservation reservationWindow
	logger      zerolog.Logger
}

// NewCartService creates a new cart service. Cart lines untouched for longer
// than reservationTTL stop counting against other shoppers; zero disables
// expiry.
func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	reservationTTL time.Duration,
	logger zerolog.Logger,
) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		reservation: reservationWindow{ttl: reservationTTL, now: time.Now},
		logger:      logger.With().Str("service", "cart").Logger(),
	}
}

// GetCart returns the user's cart with items and total, creating it if needed.
func (s *cartService) GetCart(ctx context.Context, userID string) (*model.Cart, error) {
	if userID == "" {
		return nil, model.ErrUnauthorised
	}

	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	return s.populate(ctx, cart)
}

// populate loads the cart's lines with their products and computes the total.
func (s *cartService) populate(ctx context.Context, cart *model.Cart) (*model.Cart, error) {
	items, err := s.cartRepo.GetItems(ctx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart items: %w", err)
	}

	products, err := s.productsFor(ctx, items)
	if err != nil {
		return nil, err
	}

	total := decimal.Zero
	for i := range items {
		item := &items[i]
		if p, ok := products[item.ProductID]; ok {
			item.Product = p
			if item.VariantID != nil {
				item.Variant = p.FindVariant(*item.VariantID)
			}
		}
		total = total.Add(item.UnitPrice().Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	cart.Items = items
	cart.Total = total
	return cart, nil
}

func (s *cartService) productsFor(ctx context.Context, items []model.CartItem) (map[uuid.UUID]*model.Product, error) {
	ids := make([]uuid.UUID, 0, len(items))
	seen := make(map[uuid.UUID]bool, len(items))
	for _, item := range items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}

	byID := make(map[uuid.UUID]*model.Product, len(ids))
	if len(ids) == 0 {
		return byID, nil
	}

	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart products: %w", err)
	}
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	return byID, nil
}

// AddOrUpdateLine adds quantity to the line for the requested selection.
//
// Availability is the selection's base stock minus what every cart holds for
// the same key, not counting this cart's own line; the line's new total must
// fit in it.
func (s *cartService) AddOrUpdateLine(ctx context.Context, userID string, req *model.AddToCartRequest) (*model.Cart, error) {
	if userID == "" {
		return nil, model.ErrUnauthorised
	}
	if req == nil || req.Quantity <= 0 {
		return nil, model.ErrInvalidQuantity
	}

	product, err := loadProduct(ctx, s.productRepo, req.ProductID)
	if err != nil {
		return nil, err
	}

	src := stock.NewSource(product)
	variant := src.Variant(req.VariantID, req.Size, req.Color)
	if req.VariantID != nil && variant == nil {
		s.logger.Debug().
			Str("product_id", product.ID.String()).
			Str("variant_id", req.VariantID.String()).
			Msg("variant does not belong to product")
		return nil, model.ErrVariantNotFound
	}

	line := model.CartItem{ProductID: product.ID, Size: req.Size, Color: req.Color}
	if variant != nil {
		line.VariantID = &variant.ID
		line.Size, line.Color = variant.Size, variant.Color
	}
	key := stock.KeyOf(&line)

	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	existing, err := s.cartRepo.FindLine(ctx, cart.ID, key)
	if err != nil {
		return nil, fmt.Errorf("failed to find cart line: %w", err)
	}

	var exclude *uuid.UUID
	held := 0
	if existing != nil {
		exclude = &existing.ID
		held = existing.Quantity
	}

	reserved, err := s.cartRepo.SumReserved(ctx, key, exclude, s.reservation.since())
	if err != nil {
		return nil, fmt.Errorf("failed to sum reservations: %w", err)
	}

	available := stock.Available(src.Base(variant, line.Size, line.Color), reserved)
	target := held + req.Quantity
	if target > available {
		s.logger.Info().
			Str("user_id", userID).
			Str("key", key.String()).
			Int("requested", target).
			Int("available", available).
			Msg("cart line rejected for insufficient stock")
		return nil, model.NewInsufficientStockError(product.ID,
			model.VariantDescriptor(product.Name, line.Size, line.Color), available-held)
	}

	if existing != nil {
		if err := s.cartRepo.UpdateQuantity(ctx, existing.ID, target); err != nil {
			return nil, err
		}
	} else {
		line.CartID = cart.ID
		line.Quantity = target
		if err := s.cartRepo.InsertItem(ctx, &line); err != nil {
			return nil, err
		}
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("key", key.String()).
		Int("quantity", target).
		Bool("updated", existing != nil).
		Msg("cart line saved")

	return s.populate(ctx, cart)
}

// SetLineQuantity sets an existing line to an absolute quantity, validated
// with the line's own prior quantity excluded.
func (s *cartService) SetLineQuantity(ctx context.Context, userID string, itemID uuid.UUID, quantity int) (*model.Cart, error) {
	if userID == "" {
		return nil, model.ErrUnauthorised
	}
	if quantity <= 0 {
		return nil, model.ErrInvalidQuantity
	}

	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	item, err := s.cartRepo.GetItem(ctx, cart.ID, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart item: %w", err)
	}
	if item == nil {
		return nil, model.ErrCartItemNotFound
	}

	product, err := loadProduct(ctx, s.productRepo, item.ProductID)
	if err != nil {
		return nil, err
	}

	src := stock.NewSource(product)
	var variant *model.ProductVariant
	if item.VariantID != nil {
		if variant = src.Variant(item.VariantID, "", ""); variant == nil {
			return nil, model.ErrVariantNotFound
		}
	}

	key := stock.KeyOf(item)
	reserved, err := s.cartRepo.SumReserved(ctx, key, &item.ID, s.reservation.since())
	if err != nil {
		return nil, fmt.Errorf("failed to sum reservations: %w", err)
	}

	available := stock.Available(src.Base(variant, item.Size, item.Color), reserved)
	if quantity > available {
		s.logger.Info().
			Str("user_id", userID).
			Str("key", key.String()).
			Int("requested", quantity).
			Int("available", available).
			Msg("cart quantity change rejected for insufficient stock")
		return nil, model.NewInsufficientStockError(product.ID,
			model.VariantDescriptor(product.Name, item.Size, item.Color), available)
	}

	if err := s.cartRepo.UpdateQuantity(ctx, item.ID, quantity); err != nil {
		return nil, err
	}

	return s.populate(ctx, cart)
}

// RemoveLine deletes one line.
func (s *cartService) RemoveLine(ctx context.Context, userID string, itemID uuid.UUID) (*model.Cart, error) {
	if userID == "" {
		return nil, model.ErrUnauthorised
	}

	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	deleted, err := s.cartRepo.DeleteItem(ctx, cart.ID, itemID)
	if err != nil {
		return nil, err
	}
	if !deleted {
		return nil, model.ErrCartItemNotFound
	}

	s.logger.Debug().
		Str("user_id", userID).
		Str("item_id", itemID.String()).
		Msg("cart line removed")

	return s.populate(ctx, cart)
}

// Clear deletes every line.
func (s *cartService) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		return model.ErrUnauthorised
	}

	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get cart: %w", err)
	}

	return s.cartRepo.Clear(ctx, cart.ID)
}
