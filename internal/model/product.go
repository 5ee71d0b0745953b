package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a catalogue product.
//
// Stock is governed by Variants when the product has any, otherwise by SizeStock
// (when set) and finally by Stock.
type Product struct {
	ID              uuid.UUID        `json:"id" db:"id"`
	Name            string           `json:"name" db:"name"`
	Slug            string           `json:"slug" db:"slug"`
	Image           string           `json:"image,omitempty" db:"image"`
	Price           decimal.Decimal  `json:"price" db:"price"`
	DiscountPercent *int             `json:"discountPercent,omitempty" db:"discount_percent"`
	Stock           int              `json:"stock" db:"stock"`
	SizeStock       json.RawMessage  `json:"sizeStock,omitempty" db:"size_stock"`
	InStock         bool             `json:"inStock" db:"in_stock"`
	Sizes           []string         `json:"sizes" db:"sizes"`
	Colors          []string         `json:"colors" db:"colors"`
	Variants        []ProductVariant `json:"variants,omitempty"`
	CreatedAt       time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time        `json:"updatedAt" db:"updated_at"`
}

// HasVariants reports whether stock is tracked per variant row.
func (p *Product) HasVariants() bool {
	return len(p.Variants) > 0
}

// FindVariant returns the variant with the given ID, or nil.
func (p *Product) FindVariant(id uuid.UUID) *ProductVariant {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i]
		}
	}
	return nil
}

// FindVariantBySizeColor returns the variant matching size and color, or nil.
func (p *Product) FindVariantBySizeColor(size, color string) *ProductVariant {
	if size == "" && color == "" {
		return nil
	}
	for i := range p.Variants {
		if p.Variants[i].Size == size && p.Variants[i].Color == color {
			return &p.Variants[i]
		}
	}
	return nil
}

// EffectivePrice returns the unit price charged for the product, applying
// DiscountPercent when present.
func (p *Product) EffectivePrice() decimal.Decimal {
	if p.DiscountPercent == nil || *p.DiscountPercent <= 0 {
		return p.Price
	}
	factor := decimal.NewFromInt(int64(100 - *p.DiscountPercent)).Div(decimal.NewFromInt(100))
	return p.Price.Mul(factor).Round(0)
}

// ProductVariant is a size and color combination with its own stock and price.
type ProductVariant struct {
	ID        uuid.UUID        `json:"id" db:"id"`
	ProductID uuid.UUID        `json:"productId" db:"product_id"`
	Color     string           `json:"color" db:"color"`
	Size      string           `json:"size" db:"size"`
	Price     *decimal.Decimal `json:"price,omitempty" db:"price"`
	Stock     int              `json:"stock" db:"stock"`
	Image     string           `json:"image,omitempty" db:"image"`
}

// StockUpdateRequest is the admin payload for setting stock directly.
type StockUpdateRequest struct {
	Stock     *int            `json:"stock"`
	SizeStock json.RawMessage `json:"sizeStock,omitempty"`
}

// StockLookupResponse is returned by the stock lookup endpoint.
type StockLookupResponse struct {
	AvailableStock int `json:"availableStock"`
}
