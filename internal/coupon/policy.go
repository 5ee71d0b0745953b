package coupon

import (
	"time"

	"storefront/internal/model"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Check reports why c cannot be applied to an order of the given total at
// time now, or nil when it can.
func Check(c *model.Coupon, total decimal.Decimal, now time.Time) error {
	if !c.IsActive {
		return model.ErrCouponInactive
	}
	if c.ExpiresAt != nil && !now.Before(*c.ExpiresAt) {
		return model.ErrCouponExpired
	}
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return model.ErrCouponExhausted
	}
	if c.MinPurchase != nil && total.LessThan(*c.MinPurchase) {
		return model.NewMinPurchaseError(c.MinPurchase.StringFixed(0))
	}
	return nil
}

// Discount computes the amount c takes off total. Percentage discounts are
// capped by MaxDiscount; no discount exceeds total.
func Discount(c *model.Coupon, total decimal.Decimal) decimal.Decimal {
	if !total.IsPositive() {
		return decimal.Zero
	}

	var amount decimal.Decimal
	switch c.DiscountType {
	case model.DiscountPercentage:
		amount = total.Mul(c.DiscountValue).Div(hundred).Round(2)
		if c.MaxDiscount != nil && amount.GreaterThan(*c.MaxDiscount) {
			amount = *c.MaxDiscount
		}
	case model.DiscountFixed:
		amount = c.DiscountValue
	default:
		return decimal.Zero
	}

	if amount.IsNegative() {
		return decimal.Zero
	}
	return decimal.Min(amount, total)
}
