package stock

import (
	"fmt"

	"github.com/google/uuid"

	"storefront/internal/model"
)

// Available returns base minus reserved, never negative.
func Available(base, reserved int) int {
	if reserved < 0 {
		reserved = 0
	}
	if avail := base - reserved; avail > 0 {
		return avail
	}
	return 0
}

// Resolve computes the quantity of a product selection that can still be
// reserved given the quantity already reserved elsewhere.
func Resolve(p *model.Product, variant *model.ProductVariant, size, color string, reservedElsewhere int) int {
	return Available(NewSource(p).Base(variant, size, color), reservedElsewhere)
}

// Key identifies the stock pool a cart line draws from. Lines with a variant
// are keyed by the variant alone; other lines by product, size and color.
type Key struct {
	ProductID uuid.UUID
	VariantID *uuid.UUID
	Size      string
	Color     string
}

// KeyOf returns the reservation key of a cart line.
func KeyOf(item *model.CartItem) Key {
	if item.VariantID != nil {
		id := *item.VariantID
		return Key{ProductID: item.ProductID, VariantID: &id}
	}
	return Key{ProductID: item.ProductID, Size: item.Size, Color: item.Color}
}

// Matches reports whether a cart line draws from the same pool as k.
func (k Key) Matches(item *model.CartItem) bool {
	if k.VariantID != nil {
		return item.VariantID != nil && *item.VariantID == *k.VariantID
	}
	return item.VariantID == nil &&
		item.ProductID == k.ProductID &&
		item.Size == k.Size &&
		item.Color == k.Color
}

// String is used as a cache and log key.
func (k Key) String() string {
	if k.VariantID != nil {
		return k.VariantID.String()
	}
	return fmt.Sprintf("%s/%s-%s", k.ProductID, k.Size, k.Color)
}
