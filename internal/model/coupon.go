package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Discount types supported by coupons.
const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

// Coupon is a discount code applied at checkout.
type Coupon struct {
	ID            uuid.UUID        `json:"id" db:"id"`
	Code          string           `json:"code" db:"code"`
	DiscountType  string           `json:"discountType" db:"discount_type"`
	DiscountValue decimal.Decimal  `json:"discountValue" db:"discount_value"`
	UsageLimit    *int             `json:"usageLimit,omitempty" db:"usage_limit"`
	UsedCount     int              `json:"usedCount" db:"used_count"`
	MinPurchase   *decimal.Decimal `json:"minPurchase,omitempty" db:"min_purchase"`
	MaxDiscount   *decimal.Decimal `json:"maxDiscount,omitempty" db:"max_discount"`
	IsActive      bool             `json:"isActive" db:"is_active"`
	ExpiresAt     *time.Time       `json:"expiresAt,omitempty" db:"expires_at"`
	CreatedAt     time.Time        `json:"createdAt" db:"created_at"`
}
