package integration

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"storefront/internal/auth"
	"storefront/internal/model"
	"storefront/internal/stockclient"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fillCart puts a line straight into userID's cart, bypassing the
// reservation check so that several carts can hold the same last units.
func fillCart(t *testing.T, app *App, userID string, productID uuid.UUID, variantID *uuid.UUID, quantity int) {
	t.Helper()

	ctx := context.Background()
	cart, err := app.Carts.GetOrCreate(ctx, userID)
	require.NoError(t, err)
	require.NoError(t, app.Carts.InsertItem(ctx, &model.CartItem{
		CartID:    cart.ID,
		ProductID: productID,
		VariantID: variantID,
		Quantity:  quantity,
	}))
}

type commitResult struct {
	userID string
	order  *model.Order
	err    error
}

func commitConcurrently(app *App, reqs map[string]*model.OrderRequest) []commitResult {
	var wg sync.WaitGroup
	results := make(chan commitResult, len(reqs))

	start := make(chan struct{})
	for userID, req := range reqs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			order, err := app.Orders.CommitOrder(context.Background(), &auth.Session{UserID: userID}, req)
			results <- commitResult{userID: userID, order: order, err: err}
		}()
	}
	close(start)
	wg.Wait()
	close(results)

	var out []commitResult
	for r := range results {
		out = append(out, r)
	}
	return out
}

func TestCheckout_ConcurrentCommitsDoNotOversell(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db := SetupTestDB(t)
	app := NewApp(t, db, 0)

	tests := []struct {
		name      string
		seed      func(t *testing.T) (productID uuid.UUID, variantID *uuid.UUID)
		remaining func(t *testing.T, productID uuid.UUID, variantID *uuid.UUID) int
	}{
		{
			name: "Variant stock",
			seed: func(t *testing.T) (uuid.UUID, *uuid.UUID) {
				productID := SeedProduct(t, db.Pool, "Linen Shirt", 890000, 2, "")
				variantID := SeedVariant(t, db.Pool, productID, "M", "blue", 2)
				return productID, &variantID
			},
			remaining: func(t *testing.T, _ uuid.UUID, variantID *uuid.UUID) int {
				return VariantStock(t, db.Pool, *variantID)
			},
		},
		{
			name: "Flat product stock",
			seed: func(t *testing.T) (uuid.UUID, *uuid.UUID) {
				return SeedProduct(t, db.Pool, "Canvas Bag", 300000, 2, ""), nil
			},
			remaining: func(t *testing.T, productID uuid.UUID, _ *uuid.UUID) int {
				return ProductStock(t, db.Pool, productID)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			CleanupDB(t, db.Pool)
			productID, variantID := tt.seed(t)

			reqs := map[string]*model.OrderRequest{}
			for _, userID := range []string{"alice", "bob", "carol"} {
				fillCart(t, app, userID, productID, variantID, 2)
				reqs[userID] = &model.OrderRequest{AddressID: app.SeedAddress(t, userID), PaymentMethod: "online"}
			}

			results := commitConcurrently(app, reqs)

			succeeded := 0
			for _, r := range results {
				if r.err == nil {
					succeeded++
					continue
				}
				assert.True(t, errors.Is(r.err, model.ErrInsufficientStock), "%s: %v", r.userID, r.err)
			}
			assert.Equal(t, 1, succeeded)
			assert.Equal(t, 0, tt.remaining(t, productID, variantID))
			assert.Equal(t, 1, CountRows(t, db.Pool, "orders"))
			assert.Equal(t, 2, CountRows(t, db.Pool, "cart_items"))
		})
	}
}

func TestCheckout_CouponLimitHoldsUnderConcurrency(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db := SetupTestDB(t)
	app := NewApp(t, db, 0)

	productID := SeedProduct(t, db.Pool, "Canvas Bag", 300000, 10, "")
	limit := 1
	couponID := app.SeedCoupon(t, model.Coupon{
		Code: "ONLYONE", DiscountType: model.DiscountFixed, DiscountValue: decimal.NewFromInt(50000),
		UsageLimit: &limit, IsActive: true,
	})

	reqs := map[string]*model.OrderRequest{}
	for _, userID := range []string{"alice", "bob"} {
		fillCart(t, app, userID, productID, nil, 1)
		reqs[userID] = &model.OrderRequest{
			AddressID: app.SeedAddress(t, userID), PaymentMethod: "online", CouponID: &couponID,
		}
	}

	results := commitConcurrently(app, reqs)

	succeeded := 0
	for _, r := range results {
		if r.err == nil {
			succeeded++
			assert.True(t, decimal.NewFromInt(250000).Equal(r.order.TotalAmount))
			continue
		}
		assert.True(t, errors.Is(r.err, model.ErrInvalidCoupon), "%s: %v", r.userID, r.err)
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 9, ProductStock(t, db.Pool, productID))

	coupon, err := app.Coupons.GetByID(context.Background(), couponID)
	require.NoError(t, err)
	assert.Equal(t, 1, coupon.UsedCount)
}

func TestStockClient_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db := SetupTestDB(t)
	app := NewApp(t, db, 0)
	server := httptest.NewServer(app.Handler)
	t.Cleanup(server.Close)

	productID := SeedProduct(t, db.Pool, "Linen Shirt", 890000, 7, "")
	blue := SeedVariant(t, db.Pool, productID, "M", "blue", 4)
	SeedVariant(t, db.Pool, productID, "L", "red", 3)

	client, err := stockclient.New(server.URL, productID)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, client.Load(ctx))

	assert.Equal(t, 7, client.GetTotalAvailableStock())
	assert.Equal(t, 4, client.GetAvailableStockForSize("M"))
	assert.Equal(t, 3, client.GetAvailableStockForColor("red"))
	assert.False(t, client.CheckCompletelyOutOfStock())

	available, err := client.FetchRealTimeStock(ctx, "M", "blue", &blue)
	require.NoError(t, err)
	assert.Equal(t, 4, available)

	w := app.Do(t, http.MethodPost, "/api/cart",
		model.AddToCartRequest{ProductID: productID, VariantID: &blue, Quantity: 3}, app.Token(t, "alice"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	cached, err := client.FetchRealTimeStock(ctx, "M", "blue", &blue)
	require.NoError(t, err)
	assert.Equal(t, 4, cached)

	client.Invalidate()

	fresh, err := client.FetchRealTimeStock(ctx, "M", "blue", &blue)
	require.NoError(t, err)
	assert.Equal(t, 1, fresh)

	bySelection, err := client.FetchRealTimeStock(ctx, "M", "blue", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, bySelection)
}
