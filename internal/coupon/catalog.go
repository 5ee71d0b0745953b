package coupon

import (
	"strings"

	"storefront/internal/model"
)

// Catalog is an ordered set of coupon definitions keyed by code. Adding a
// code twice keeps the position of the first and the fields of the last.
type Catalog struct {
	index   map[string]int
	coupons []model.Coupon
}

// NewCatalog creates an empty catalog.
func NewCatalog(capacity int) *Catalog {
	return &Catalog{
		index:   make(map[string]int, capacity),
		coupons: make([]model.Coupon, 0, capacity),
	}
}

// Add inserts or replaces a coupon. Codes are compared case-insensitively.
func (c *Catalog) Add(coupon model.Coupon) {
	code := normaliseCode(coupon.Code)
	coupon.Code = code
	if i, ok := c.index[code]; ok {
		c.coupons[i] = coupon
		return
	}
	c.index[code] = len(c.coupons)
	c.coupons = append(c.coupons, coupon)
}

// Merge adds every coupon of other, in order.
func (c *Catalog) Merge(other *Catalog) {
	if other == nil {
		return
	}
	for _, coupon := range other.coupons {
		c.Add(coupon)
	}
}

// Lookup returns the coupon with the given code.
func (c *Catalog) Lookup(code string) (model.Coupon, bool) {
	i, ok := c.index[normaliseCode(code)]
	if !ok {
		return model.Coupon{}, false
	}
	return c.coupons[i], true
}

// Size returns the number of distinct codes.
func (c *Catalog) Size() int {
	return len(c.coupons)
}

// Coupons returns the definitions in insertion order.
func (c *Catalog) Coupons() []model.Coupon {
	out := make([]model.Coupon, len(c.coupons))
	copy(out, c.coupons)
	return out
}

func normaliseCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
