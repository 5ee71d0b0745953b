package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"storefront/internal/model"
	"storefront/internal/stock"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func flatProduct(stockCount int) *model.Product {
	return &model.Product{
		ID:    uuid.New(),
		Name:  "تی‌شرت",
		Price: decimal.NewFromInt(250000),
		Stock: stockCount,
	}
}

func variantProduct(size, color string, stockCount int) (*model.Product, model.ProductVariant) {
	p := flatProduct(stockCount)
	v := model.ProductVariant{ID: uuid.New(), ProductID: p.ID, Size: size, Color: color, Stock: stockCount}
	p.Variants = []model.ProductVariant{v}
	return p, v
}

func newCartFixture(userID string) *model.Cart {
	return &model.Cart{ID: uuid.New(), UserID: userID}
}

func TestCartService_AddOrUpdateLine_ReservationsAcrossCarts(t *testing.T) {
	// Product stock=5, another cart already holds 3 of M/Red.
	ctx := context.Background()
	product := flatProduct(5)
	cart := newCartFixture("user-b")
	key := stock.Key{ProductID: product.ID, Size: "M", Color: "Red"}

	cartRepo := new(MockCartRepository)
	productRepo := new(MockProductRepository)
	svc := NewCartService(cartRepo, productRepo, 0, zerolog.Nop())

	productRepo.On("GetByID", ctx, product.ID).Return(product, nil)
	cartRepo.On("GetOrCreate", ctx, "user-b").Return(cart, nil)
	cartRepo.On("FindLine", ctx, cart.ID, key).Return(nil, nil)
	cartRepo.On("SumReserved", ctx, key, (*uuid.UUID)(nil), (*time.Time)(nil)).Return(3, nil)

	_, err := svc.AddOrUpdateLine(ctx, "user-b", &model.AddToCartRequest{
		ProductID: product.ID, Quantity: 3, Size: "M", Color: "Red",
	})

	require.Error(t, err)
	var de *model.DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, model.ErrCodeInsufficientStock, de.Code)
	require.NotNil(t, de.Available)
	assert.Equal(t, 2, *de.Available)
	assert.Equal(t, product.ID, *de.ProductID)
	assert.Contains(t, de.Message, "سایز M")
	cartRepo.AssertNotCalled(t, "InsertItem", mock.Anything, mock.Anything)
}

func TestCartService_AddOrUpdateLine_InsertsNewLine(t *testing.T) {
	ctx := context.Background()
	product := flatProduct(5)
	cart := newCartFixture("user-a")
	key := stock.Key{ProductID: product.ID, Size: "M", Color: "Red"}

	cartRepo := new(MockCartRepository)
	productRepo := new(MockProductRepository)
	svc := NewCartService(cartRepo, productRepo, 0, zerolog.Nop())

	productRepo.On("GetByID", ctx, product.ID).Return(product, nil)
	productRepo.On("GetByIDs", ctx, []uuid.UUID{product.ID}).Return([]model.Product{*product}, nil)
	cartRepo.On("GetOrCreate", ctx, "user-a").Return(cart, nil)
	cartRepo.On("FindLine", ctx, cart.ID, key).Return(nil, nil)
	cartRepo.On("SumReserved", ctx, key, (*uuid.UUID)(nil), (*time.Time)(nil)).Return(0, nil)
	cartRepo.On("InsertItem", ctx, mock.MatchedBy(func(item *model.CartItem) bool {
		return item.CartID == cart.ID && item.Quantity == 3 && item.VariantID == nil &&
			item.Size == "M" && item.Color == "Red"
	})).Return(nil)
	cartRepo.On("GetItems", ctx, cart.ID).Return([]model.CartItem{
		{ID: uuid.New(), CartID: cart.ID, ProductID: product.ID, Quantity: 3, Size: "M", Color: "Red"},
	}, nil)

	got, err := svc.AddOrUpdateLine(ctx, "user-a", &model.AddToCartRequest{
		ProductID: product.ID, Quantity: 3, Size: "M", Color: "Red",
	})

	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.True(t, got.Total.Equal(decimal.NewFromInt(750000)))
	cartRepo.AssertExpectations(t)
}

func TestCartService_AddOrUpdateLine_AccumulatesOnExistingLine(t *testing.T) {
	// Variant stock=2, the user's own line already holds 2.
	ctx := context.Background()
	product, variant := variantProduct("S", "Blue", 2)
	cart := newCartFixture("user-a")
	key := stock.Key{ProductID: product.ID, VariantID: &variant.ID}
	existing := &model.CartItem{ID: uuid.New(), CartID: cart.ID, ProductID: product.ID, VariantID: &variant.ID, Quantity: 2}

	cartRepo := new(MockCartRepository)
	productRepo := new(MockProductRepository)
	svc := NewCartService(cartRepo, productRepo, 0, zerolog.Nop())

	productRepo.On("GetByID", ctx, product.ID).Return(product, nil)
	cartRepo.On("GetOrCreate", ctx, "user-a").Return(cart, nil)
	cartRepo.On("FindLine", ctx, cart.ID, key).Return(existing, nil)
	cartRepo.On("SumReserved", ctx, key, &existing.ID, (*time.Time)(nil)).Return(0, nil)

	_, err := svc.AddOrUpdateLine(ctx, "user-a", &model.AddToCartRequest{
		ProductID: product.ID, Quantity: 1, VariantID: &variant.ID,
	})

	var de *model.DomainError
	require.True(t, errors.As(err, &de))
	assert.True(t, errors.Is(err, model.ErrInsufficientStock))
	require.NotNil(t, de.Available)
	assert.Equal(t, 0, *de.Available, "nothing more can be added")
	cartRepo.AssertNotCalled(t, "UpdateQuantity", mock.Anything, mock.Anything, mock.Anything)
}

func TestCartService_AddOrUpdateLine_UpdatesExistingLine(t *testing.T) {
	ctx := context.Background()
	product, variant := variantProduct("S", "Blue", 10)
	cart := newCartFixture("user-a")
	key := stock.Key{ProductID: product.ID, VariantID: &variant.ID}
	existing := &model.CartItem{ID: uuid.New(), CartID: cart.ID, ProductID: product.ID, VariantID: &variant.ID, Quantity: 2}

	cartRepo := new(MockCartRepository)
	productRepo := new(MockProductRepository)
	svc := NewCartService(cartRepo, productRepo, 0, zerolog.Nop())

	productRepo.On("GetByID", ctx, product.ID).Return(product, nil)
	productRepo.On("GetByIDs", ctx, []uuid.UUID{product.ID}).Return([]model.Product{*product}, nil)
	cartRepo.On("GetOrCreate", ctx, "user-a").Return(cart, nil)
	cartRepo.On("FindLine", ctx, cart.ID, key).Return(existing, nil)
	cartRepo.On("SumReserved", ctx, key, &existing.ID, (*time.Time)(nil)).Return(5, nil)
	cartRepo.On("UpdateQuantity", ctx, existing.ID, 5).Return(nil)
	cartRepo.On("GetItems", ctx, cart.ID).Return([]model.CartItem{*existing}, nil)

	// Size and color resolve to the variant even without its ID.
	_, err := svc.AddOrUpdateLine(ctx, "user-a", &model.AddToCartRequest{
		ProductID: product.ID, Quantity: 3, Size: "S", Color: "Blue",
	})

	require.NoError(t, err)
	cartRepo.AssertExpectations(t)
}

func TestCartService_AddOrUpdateLine_LegacySizeStock(t *testing.T) {
	ctx := context.Background()
	product := flatProduct(100)
	product.SizeStock = json.RawMessage(`{"L":{"Black":4}}`)
	cart := newCartFixture("user-a")
	key := stock.Key{ProductID: product.ID, Size: "L", Color: "Black"}

	cartRepo := new(MockCartRepository)
	productRepo := new(MockProductRepository)
	svc := NewCartService(cartRepo, productRepo, 0, zerolog.Nop())

	productRepo.On("GetByID", ctx, product.ID).Return(product, nil)
	cartRepo.On("GetOrCreate", ctx, "user-a").Return(cart, nil)
	cartRepo.On("FindLine", ctx, cart.ID, key).Return(nil, nil)
	cartRepo.On("SumReserved", ctx, key, (*uuid.UUID)(nil), (*time.Time)(nil)).Return(1, nil)

	_, err := svc.AddOrUpdateLine(ctx, "user-a", &model.AddToCartRequest{
		ProductID: product.ID, Quantity: 4, Size: "L", Color: "Black",
	})

	var de *model.DomainError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, 3, *de.Available)
}

func TestCartService_AddOrUpdateLine_ReservationTTL(t *testing.T) {
	ctx := context.Background()
	product := flatProduct(5)
	cart := newCartFixture("user-a")
	key := stock.Key{ProductID: product.ID}
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

	cartRepo := new(MockCartRepository)
	productRepo := new(MockProductRepository)
	svc := NewCartService(cartRepo, productRepo, 72*time.Hour, zerolog.Nop()).(*cartService)
	svc.reservation.now = func() time.Time { return now }

	productRepo.On("GetByID", ctx, product.ID).Return(product, nil)
	productRepo.On("GetByIDs", ctx, mock.Anything).Return([]model.Product{*product}, nil)
	cartRepo.On("GetOrCreate", ctx, "user-a").Return(cart, nil)
	cartRepo.On("FindLine", ctx, cart.ID, key).Return(nil, nil)
	cartRepo.On("SumReserved", ctx, key, (*uuid.UUID)(nil), mock.MatchedBy(func(since *time.Time) bool {
		return since != nil && since.Equal(now.Add(-72*time.Hour))
	})).Return(0, nil)
	cartRepo.On("InsertItem", ctx, mock.Anything).Return(nil)
	cartRepo.On("GetItems", ctx, cart.ID).Return([]model.CartItem{}, nil)

	_, err := svc.AddOrUpdateLine(ctx, "user-a", &model.AddToCartRequest{ProductID: product.ID, Quantity: 1})

	require.NoError(t, err)
	cartRepo.AssertExpectations(t)
}

func TestCartService_AddOrUpdateLine_Errors(t *testing.T) {
	ctx := context.Background()
	product, _ := variantProduct("S", "Blue", 2)
	foreignVariant := uuid.New()
	missing := uuid.New()

	tests := []struct {
		name     string
		userID   string
		req      *model.AddToCartRequest
		expected error
	}{
		{name: "unauthenticated", userID: "", req: &model.AddToCartRequest{ProductID: product.ID, Quantity: 1}, expected: model.ErrUnauthorised},
		{name: "zero quantity", userID: "u", req: &model.AddToCartRequest{ProductID: product.ID, Quantity: 0}, expected: model.ErrInvalidQuantity},
		{name: "unknown product", userID: "u", req: &model.AddToCartRequest{ProductID: missing, Quantity: 1}, expected: model.ErrProductNotFound},
		{name: "variant of another product", userID: "u", req: &model.AddToCartRequest{ProductID: product.ID, Quantity: 1, VariantID: &foreignVariant}, expected: model.ErrVariantNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cartRepo := new(MockCartRepository)
			productRepo := new(MockProductRepository)
			productRepo.On("GetByID", ctx, product.ID).Return(product, nil)
			productRepo.On("GetByID", ctx, missing).Return(nil, nil)
			svc := NewCartService(cartRepo, productRepo, 0, zerolog.Nop())

			cart, err := svc.AddOrUpdateLine(ctx, tt.userID, tt.req)

			assert.Nil(t, cart)
			assert.Equal(t, tt.expected, err)
			cartRepo.AssertNotCalled(t, "GetOrCreate", mock.Anything, mock.Anything)
		})
	}
}

func TestCartService_SetLineQuantity(t *testing.T) {
	ctx := context.Background()
	product, variant := variantProduct("S", "Blue", 5)
	cart := newCartFixture("user-a")
	item := &model.CartItem{ID: uuid.New(), CartID: cart.ID, ProductID: product.ID, VariantID: &variant.ID, Quantity: 1}
	key := stock.Key{ProductID: product.ID, VariantID: &variant.ID}

	t.Run("within availability", func(t *testing.T) {
		cartRepo := new(MockCartRepository)
		productRepo := new(MockProductRepository)
		svc := NewCartService(cartRepo, productRepo, 0, zerolog.Nop())

		cartRepo.On("GetOrCreate", ctx, "user-a").Return(cart, nil)
		cartRepo.On("GetItem", ctx, cart.ID, item.ID).Return(item, nil)
		productRepo.On("GetByID", ctx, product.ID).Return(product, nil)
		productRepo.On("GetByIDs", ctx, mock.Anything).Return([]model.Product{*product}, nil)
		cartRepo.On("SumReserved", ctx, key, &item.ID, (*time.Time)(nil)).Return(2, nil)
		cartRepo.On("UpdateQuantity", ctx, item.ID, 3).Return(nil)
		cartRepo.On("GetItems", ctx, cart.ID).Return([]model.CartItem{*item}, nil)

		_, err := svc.SetLineQuantity(ctx, "user-a", item.ID, 3)

		require.NoError(t, err)
		cartRepo.AssertExpectations(t)
	})

	t.Run("beyond availability", func(t *testing.T) {
		cartRepo := new(MockCartRepository)
		productRepo := new(MockProductRepository)
		svc := NewCartService(cartRepo, productRepo, 0, zerolog.Nop())

		cartRepo.On("GetOrCreate", ctx, "user-a").Return(cart, nil)
		cartRepo.On("GetItem", ctx, cart.ID, item.ID).Return(item, nil)
		productRepo.On("GetByID", ctx, product.ID).Return(product, nil)
		cartRepo.On("SumReserved", ctx, key, &item.ID, (*time.Time)(nil)).Return(2, nil)

		_, err := svc.SetLineQuantity(ctx, "user-a", item.ID, 4)

		var de *model.DomainError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, 3, *de.Available)
		cartRepo.AssertNotCalled(t, "UpdateQuantity", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown line", func(t *testing.T) {
		cartRepo := new(MockCartRepository)
		svc := NewCartService(cartRepo, new(MockProductRepository), 0, zerolog.Nop())

		other := uuid.New()
		cartRepo.On("GetOrCreate", ctx, "user-a").Return(cart, nil)
		cartRepo.On("GetItem", ctx, cart.ID, other).Return(nil, nil)

		_, err := svc.SetLineQuantity(ctx, "user-a", other, 1)

		assert.Equal(t, model.ErrCartItemNotFound, err)
	})

	t.Run("invalid quantity", func(t *testing.T) {
		svc := NewCartService(new(MockCartRepository), new(MockProductRepository), 0, zerolog.Nop())

		_, err := svc.SetLineQuantity(ctx, "user-a", item.ID, 0)

		assert.Equal(t, model.ErrInvalidQuantity, err)
	})
}

func TestCartService_RemoveLineAndClear(t *testing.T) {
	ctx := context.Background()
	cart := newCartFixture("user-a")
	itemID := uuid.New()

	cartRepo := new(MockCartRepository)
	svc := NewCartService(cartRepo, new(MockProductRepository), 0, zerolog.Nop())

	cartRepo.On("GetOrCreate", ctx, "user-a").Return(cart, nil)
	cartRepo.On("DeleteItem", ctx, cart.ID, itemID).Return(true, nil).Once()
	cartRepo.On("DeleteItem", ctx, cart.ID, itemID).Return(false, nil).Once()
	cartRepo.On("GetItems", ctx, cart.ID).Return([]model.CartItem{}, nil)
	cartRepo.On("Clear", ctx, cart.ID).Return(nil)

	got, err := svc.RemoveLine(ctx, "user-a", itemID)
	require.NoError(t, err)
	assert.Empty(t, got.Items)
	assert.True(t, got.Total.IsZero())

	_, err = svc.RemoveLine(ctx, "user-a", itemID)
	assert.Equal(t, model.ErrCartItemNotFound, err)

	require.NoError(t, svc.Clear(ctx, "user-a"))
	assert.Equal(t, model.ErrUnauthorised, svc.Clear(ctx, ""))

	cartRepo.AssertExpectations(t)
}

func TestCartService_GetCart_Total(t *testing.T) {
	ctx := context.Background()
	discount := 20
	product := flatProduct(10)
	product.DiscountPercent = &discount
	withVariant, variant := variantProduct("M", "Red", 3)
	variantPrice := decimal.NewFromInt(300000)
	withVariant.Variants[0].Price = &variantPrice
	cart := newCartFixture("user-a")

	cartRepo := new(MockCartRepository)
	productRepo := new(MockProductRepository)
	svc := NewCartService(cartRepo, productRepo, 0, zerolog.Nop())

	cartRepo.On("GetOrCreate", ctx, "user-a").Return(cart, nil)
	cartRepo.On("GetItems", ctx, cart.ID).Return([]model.CartItem{
		{ID: uuid.New(), ProductID: product.ID, Quantity: 2},
		{ID: uuid.New(), ProductID: withVariant.ID, VariantID: &variant.ID, Quantity: 1},
	}, nil)
	productRepo.On("GetByIDs", ctx, []uuid.UUID{product.ID, withVariant.ID}).
		Return([]model.Product{*product, *withVariant}, nil)

	got, err := svc.GetCart(ctx, "user-a")

	require.NoError(t, err)
	// 2 * 250000 * 0.8 + 300000
	assert.True(t, got.Total.Equal(decimal.NewFromInt(700000)), "total %s", got.Total)
	require.NotNil(t, got.Items[1].Variant)
	assert.Equal(t, variant.ID, got.Items[1].Variant.ID)

	_, err = svc.GetCart(ctx, "")
	assert.Equal(t, model.ErrUnauthorised, err)
}
