package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/auth"
	"storefront/internal/coupon"
	"storefront/internal/model"
	"storefront/internal/notify"
	"storefront/internal/repository"
	"storefront/internal/stock"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo   repository.OrderRepository
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	addressRepo repository.AddressRepository
	couponRepo  repository.CouponRepository
	notifier    OrderNotifier
	now         func() time.Time
	logger      zerolog.Logger
}

// NewOrderService creates a new order service.
func NewOrderService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	addressRepo repository.AddressRepository,
	couponRepo repository.CouponRepository,
	notifier OrderNotifier,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		cartRepo:    cartRepo,
		productRepo: productRepo,
		addressRepo: addressRepo,
		couponRepo:  couponRepo,
		notifier:    notifier,
		now:         time.Now,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

// pricedLine is a cart line resolved against its product for checkout.
type pricedLine struct {
	item    model.CartItem
	product *model.Product
	variant *model.ProductVariant
	key     stock.Key
	price   decimal.Decimal
}

func (l pricedLine) descriptor() string {
	return model.VariantDescriptor(l.product.Name, l.item.Size, l.item.Color)
}

// CommitOrder turns the session user's cart into an order.
//
// Everything that can be checked without writing is checked first. The
// writes (coupon usage, order, items, stock, cart) then run in one
// transaction; stock is decremented conditionally so a concurrent checkout
// that took the last units makes this one fail instead of overselling.
func (s *orderService) CommitOrder(ctx context.Context, session *auth.Session, req *model.OrderRequest) (*model.Order, error) {
	if session == nil || session.UserID == "" {
		return nil, model.ErrUnauthorised
	}
	if err := s.validateOrderRequest(req); err != nil {
		return nil, err
	}
	userID := session.UserID

	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	items, err := s.cartRepo.GetItems(ctx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart items: %w", err)
	}
	if len(items) == 0 {
		return nil, model.ErrEmptyCart
	}

	address, err := s.addressRepo.GetForUser(ctx, req.AddressID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get address: %w", err)
	}
	if address == nil {
		s.logger.Warn().
			Str("user_id", userID).
			Str("address_id", req.AddressID.String()).
			Msg("address missing or owned by another user")
		return nil, model.ErrInvalidAddress
	}

	lines, err := s.priceLines(ctx, items)
	if err != nil {
		return nil, err
	}

	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.price.Mul(decimal.NewFromInt(int64(l.item.Quantity))))
	}

	discount := decimal.Zero
	if req.CouponID != nil {
		c, err := s.couponRepo.GetByID(ctx, *req.CouponID)
		if err != nil {
			return nil, fmt.Errorf("failed to get coupon: %w", err)
		}
		if c == nil {
			return nil, model.ErrCouponNotFound
		}
		if err := coupon.Check(c, subtotal, s.now()); err != nil {
			s.logger.Info().
				Err(err).
				Str("coupon_code", c.Code).
				Str("subtotal", subtotal.String()).
				Msg("coupon rejected")
			return nil, err
		}
		discount = coupon.Discount(c, subtotal)
	}

	shipping := decimal.Zero
	if req.ShippingCost != nil {
		shipping = *req.ShippingCost
	}

	now := s.now().UTC()
	order := &model.Order{
		ID:             uuid.New(),
		UserID:         userID,
		AddressID:      address.ID,
		Status:         model.OrderStatusPending,
		PaymentMethod:  req.PaymentMethod,
		PaymentStatus:  model.PaymentStatusUnpaid,
		Notes:          req.Notes,
		CouponID:       req.CouponID,
		DiscountAmount: discount,
		ShippingCost:   shipping,
		TotalAmount:    subtotal.Sub(discount).Add(shipping),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	order.Items = make([]model.OrderItem, len(lines))
	for i, l := range lines {
		order.Items[i] = model.OrderItem{
			ID:           uuid.New(),
			OrderID:      order.ID,
			ProductID:    l.product.ID,
			VariantID:    l.item.VariantID,
			ProductName:  l.product.Name,
			ProductImage: l.image(),
			Price:        l.price,
			Quantity:     l.item.Quantity,
			Size:         l.item.Size,
			Color:        l.item.Color,
			Subtotal:     l.price.Mul(decimal.NewFromInt(int64(l.item.Quantity))),
		}
	}

	if err := s.commit(ctx, order, cart.ID, lines); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("user_id", userID).
		Int("item_count", len(order.Items)).
		Str("total", order.TotalAmount.String()).
		Msg("order committed")

	s.notifier.OrderPlaced(ctx, notify.OrderPlaced{
		OrderID: order.ID,
		UserID:  userID,
		Phone:   session.Phone,
		Total:   order.TotalAmount,
	})

	return order, nil
}

func (l pricedLine) image() string {
	if l.variant != nil && l.variant.Image != "" {
		return l.variant.Image
	}
	return l.product.Image
}

// priceLines resolves every cart line and checks it against current stock,
// counting other lines of the same cart that draw from the same pool.
func (s *orderService) priceLines(ctx context.Context, items []model.CartItem) ([]pricedLine, error) {
	ids := make([]uuid.UUID, 0, len(items))
	seen := make(map[uuid.UUID]bool, len(items))
	for _, item := range items {
		if !seen[item.ProductID] {
			seen[item.ProductID] = true
			ids = append(ids, item.ProductID)
		}
	}

	products, err := s.productRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	byID := make(map[uuid.UUID]*model.Product, len(products))
	sources := make(map[uuid.UUID]stock.Source, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
		sources[products[i].ID] = stock.NewSource(&products[i])
	}

	// Lines stored before a product gained variants are resolved to the
	// variant matching their size and color, so the check and the decrement
	// read the same row.
	lines := make([]pricedLine, 0, len(items))
	for i := range items {
		item := items[i]
		product, ok := byID[item.ProductID]
		if !ok {
			return nil, model.ErrProductNotFound
		}

		variant := sources[product.ID].Variant(item.VariantID, item.Size, item.Color)
		if item.VariantID != nil && variant == nil {
			return nil, model.ErrVariantNotFound
		}
		if variant != nil {
			item.VariantID = &variant.ID
		}

		item.Product = product
		item.Variant = variant
		lines = append(lines, pricedLine{
			item:    item,
			product: product,
			variant: variant,
			key:     stock.KeyOf(&item),
			price:   item.UnitPrice(),
		})
	}

	for i, l := range lines {
		reserved := 0
		for j := range lines {
			if j != i && lines[j].key.String() == l.key.String() {
				reserved += lines[j].item.Quantity
			}
		}

		available := stock.Available(sources[l.product.ID].Base(l.variant, l.item.Size, l.item.Color), reserved)
		if l.item.Quantity > available {
			s.logger.Info().
				Str("key", l.key.String()).
				Int("requested", l.item.Quantity).
				Int("available", available).
				Msg("checkout rejected for insufficient stock")
			return nil, model.NewInsufficientStockError(l.product.ID, l.descriptor(), available)
		}
	}

	return lines, nil
}

// commit runs the order's writes in one transaction.
func (s *orderService) commit(ctx context.Context, order *model.Order, cartID uuid.UUID, lines []pricedLine) (err error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return model.NewTransactionError(err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if order.CouponID != nil {
		if err = s.couponRepo.IncrementUsage(ctx, tx, *order.CouponID); err != nil {
			return commitError(err)
		}
	}

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		return commitError(err)
	}

	if err = s.orderRepo.CreateOrderItems(ctx, tx, order.Items); err != nil {
		return commitError(err)
	}

	for _, l := range lines {
		if err = s.productRepo.DecrementStock(ctx, tx, l.key, l.item.Quantity); err != nil {
			var de *model.DomainError
			if errors.As(err, &de) && de.Code == model.ErrCodeInsufficientStock && de.Available != nil {
				s.logger.Warn().
					Str("order_id", order.ID.String()).
					Str("product_id", l.product.ID.String()).
					Msg("stock taken by a concurrent checkout")
				return model.NewInsufficientStockError(l.product.ID, l.descriptor(), *de.Available)
			}
			return commitError(err)
		}
	}

	if err = s.cartRepo.ClearTx(ctx, tx, cartID); err != nil {
		return commitError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return model.NewTransactionError(err)
	}

	return nil
}

// commitError passes business-rule failures through and wraps anything else
// as a transaction failure.
func commitError(err error) error {
	var de *model.DomainError
	if errors.As(err, &de) {
		return err
	}
	return model.NewTransactionError(err)
}

// GetOrder retrieves one of the user's orders with its items.
func (s *orderService) GetOrder(ctx context.Context, userID string, id uuid.UUID) (*model.Order, error) {
	if userID == "" {
		return nil, model.ErrUnauthorised
	}

	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order == nil || order.UserID != userID {
		s.logger.Debug().Str("order_id", id.String()).Msg("order not found")
		return nil, model.ErrOrderNotFound
	}

	return order, nil
}

// validateOrderRequest validates the order request.
func (s *orderService) validateOrderRequest(req *model.OrderRequest) error {
	if req == nil {
		return model.ErrMissingPayment
	}
	if req.AddressID == uuid.Nil {
		return model.ErrInvalidAddress
	}
	if req.PaymentMethod == "" {
		return model.ErrMissingPayment
	}
	if req.ShippingCost != nil && req.ShippingCost.IsNegative() {
		return model.ErrInvalidShipping
	}
	return nil
}
