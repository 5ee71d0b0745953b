package handler

import (
	"context"

	"storefront/internal/auth"
	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockOrderService is a mock implementation of OrderService.
type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) CommitOrder(ctx context.Context, session *auth.Session, req *model.OrderRequest) (*model.Order, error) {
	args := m.Called(ctx, session, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderService) GetOrder(ctx context.Context, userID string, id uuid.UUID) (*model.Order, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

// MockCartService is a mock implementation of CartService.
type MockCartService struct {
	mock.Mock
}

func (m *MockCartService) cart(args mock.Arguments) (*model.Cart, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cart), args.Error(1)
}

func (m *MockCartService) GetCart(ctx context.Context, userID string) (*model.Cart, error) {
	return m.cart(m.Called(ctx, userID))
}

func (m *MockCartService) AddOrUpdateLine(ctx context.Context, userID string, req *model.AddToCartRequest) (*model.Cart, error) {
	return m.cart(m.Called(ctx, userID, req))
}

func (m *MockCartService) SetLineQuantity(ctx context.Context, userID string, itemID uuid.UUID, quantity int) (*model.Cart, error) {
	return m.cart(m.Called(ctx, userID, itemID, quantity))
}

func (m *MockCartService) RemoveLine(ctx context.Context, userID string, itemID uuid.UUID) (*model.Cart, error) {
	return m.cart(m.Called(ctx, userID, itemID))
}

func (m *MockCartService) Clear(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

// MockProductService is a mock implementation of ProductService.
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) GetAll(ctx context.Context, limit, offset int) ([]model.Product, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func (m *MockProductService) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) SetStock(ctx context.Context, id uuid.UUID, req *model.StockUpdateRequest) (*model.Product, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Product), args.Error(1)
}

func (m *MockProductService) SetVariantStock(ctx context.Context, id uuid.UUID, req *model.StockUpdateRequest) (*model.ProductVariant, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProductVariant), args.Error(1)
}

// MockStockService is a mock implementation of StockService.
type MockStockService struct {
	mock.Mock
}

func (m *MockStockService) Available(ctx context.Context, q service.StockQuery) (int, error) {
	args := m.Called(ctx, q)
	return args.Int(0), args.Error(1)
}
