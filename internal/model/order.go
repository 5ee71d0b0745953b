package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order statuses.
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"

	PaymentStatusUnpaid = "unpaid"
	PaymentStatusPaid   = "paid"
)

// Order represents a committed customer order.
type Order struct {
	ID             uuid.UUID       `json:"id" db:"id"`
	UserID         string          `json:"userId" db:"user_id"`
	AddressID      uuid.UUID       `json:"addressId" db:"address_id"`
	Status         string          `json:"status" db:"status"`
	PaymentMethod  string          `json:"paymentMethod" db:"payment_method"`
	PaymentStatus  string          `json:"paymentStatus" db:"payment_status"`
	Notes          string          `json:"notes,omitempty" db:"notes"`
	CouponID       *uuid.UUID      `json:"couponId,omitempty" db:"coupon_id"`
	DiscountAmount decimal.Decimal `json:"discountAmount" db:"discount_amount"`
	ShippingCost   decimal.Decimal `json:"shippingCost" db:"shipping_cost"`
	TotalAmount    decimal.Decimal `json:"totalAmount" db:"total_amount"`
	Items          []OrderItem     `json:"items"`
	CreatedAt      time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time       `json:"updatedAt" db:"updated_at"`
}

// OrderItem is a snapshot of a cart line at commit time.
type OrderItem struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	OrderID      uuid.UUID       `json:"orderId" db:"order_id"`
	ProductID    uuid.UUID       `json:"productId" db:"product_id"`
	VariantID    *uuid.UUID      `json:"variantId,omitempty" db:"variant_id"`
	ProductName  string          `json:"productName" db:"product_name"`
	ProductImage string          `json:"productImage,omitempty" db:"product_image"`
	Price        decimal.Decimal `json:"price" db:"price"`
	Quantity     int             `json:"quantity" db:"quantity"`
	Size         string          `json:"size,omitempty" db:"size"`
	Color        string          `json:"color,omitempty" db:"color"`
	Subtotal     decimal.Decimal `json:"subtotal" db:"subtotal"`
}

// OrderRequest represents the request payload for committing the caller's cart.
type OrderRequest struct {
	AddressID     uuid.UUID        `json:"addressId"`
	PaymentMethod string           `json:"paymentMethod"`
	Notes         string           `json:"notes,omitempty"`
	ShippingCost  *decimal.Decimal `json:"shippingCost,omitempty"`
	CouponID      *uuid.UUID       `json:"couponId,omitempty"`
}
