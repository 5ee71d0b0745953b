// Package coupon loads coupon definitions into the store and applies coupon
// discount rules at checkout.
package coupon

import (
	"context"

	"storefront/internal/model"
)

// Loader defines the interface for loading coupon definition files.
type Loader interface {
	// Load reads a gzipped coupon definition file and returns its coupons.
	Load(ctx context.Context, filePath string) (*Catalog, error)
}

// Store persists imported coupons.
type Store interface {
	Upsert(ctx context.Context, coupons []model.Coupon) error
}
