package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Cart is the single cart owned by a user.
type Cart struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	UserID    string          `json:"userId" db:"user_id"`
	Items     []CartItem      `json:"items"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time       `json:"updatedAt" db:"updated_at"`
}

// CartItem is a reservation of a product (and optionally a variant) in a cart.
// Size and Color are only meaningful when VariantID is nil.
type CartItem struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	CartID    uuid.UUID  `json:"cartId" db:"cart_id"`
	ProductID uuid.UUID  `json:"productId" db:"product_id"`
	VariantID *uuid.UUID `json:"variantId,omitempty" db:"variant_id"`
	Quantity  int        `json:"quantity" db:"quantity"`
	Size      string     `json:"size,omitempty" db:"size"`
	Color     string     `json:"color,omitempty" db:"color"`
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time  `json:"updatedAt" db:"updated_at"`

	Product *Product        `json:"product,omitempty"`
	Variant *ProductVariant `json:"variant,omitempty"`
}

// UnitPrice returns the price a line would be charged at right now.
func (i *CartItem) UnitPrice() decimal.Decimal {
	if i.Variant != nil && i.Variant.Price != nil {
		return *i.Variant.Price
	}
	if i.Product != nil {
		return i.Product.EffectivePrice()
	}
	return decimal.Zero
}

// AddToCartRequest is the payload of POST /api/cart.
type AddToCartRequest struct {
	ProductID uuid.UUID  `json:"productId"`
	Quantity  int        `json:"quantity"`
	Size      string     `json:"size,omitempty"`
	Color     string     `json:"color,omitempty"`
	VariantID *uuid.UUID `json:"variantId,omitempty"`
}

// UpdateCartItemRequest is the payload of PATCH /api/cart/items/{id}.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity"`
}
