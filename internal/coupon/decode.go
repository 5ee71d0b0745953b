package coupon

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"storefront/internal/model"

	"github.com/shopspring/decimal"
)

// definition is one line of a coupon file: a JSON object such as
//
//	{"code":"SUMMER10","type":"percentage","value":10,"maxDiscount":5000}
//
// Blank lines and lines starting with '#' are skipped.
type definition struct {
	Code        string           `json:"code"`
	Type        string           `json:"type"`
	Value       decimal.Decimal  `json:"value"`
	UsageLimit  *int             `json:"usageLimit"`
	MinPurchase *decimal.Decimal `json:"minPurchase"`
	MaxDiscount *decimal.Decimal `json:"maxDiscount"`
	Active      *bool            `json:"active"`
	ExpiresAt   *time.Time       `json:"expiresAt"`
}

func (d definition) coupon() (model.Coupon, error) {
	code := normaliseCode(d.Code)
	if code == "" {
		return model.Coupon{}, fmt.Errorf("missing code")
	}

	switch d.Type {
	case model.DiscountPercentage:
		if d.Value.GreaterThan(decimal.NewFromInt(100)) {
			return model.Coupon{}, fmt.Errorf("coupon %s: percentage above 100", code)
		}
	case model.DiscountFixed:
	default:
		return model.Coupon{}, fmt.Errorf("coupon %s: unknown discount type %q", code, d.Type)
	}

	if d.Value.IsNegative() {
		return model.Coupon{}, fmt.Errorf("coupon %s: negative discount value", code)
	}
	if d.UsageLimit != nil && *d.UsageLimit < 0 {
		return model.Coupon{}, fmt.Errorf("coupon %s: negative usage limit", code)
	}

	active := true
	if d.Active != nil {
		active = *d.Active
	}

	return model.Coupon{
		Code:          code,
		DiscountType:  d.Type,
		DiscountValue: d.Value,
		UsageLimit:    d.UsageLimit,
		MinPurchase:   d.MinPurchase,
		MaxDiscount:   d.MaxDiscount,
		IsActive:      active,
		ExpiresAt:     d.ExpiresAt,
	}, nil
}

// decode reads a gzipped coupon definition stream. source is only used in
// error messages.
func decode(ctx context.Context, r io.Reader, source string) (*Catalog, error) {
	gzipReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader for %s: %w", source, err)
	}
	defer gzipReader.Close()

	catalog := NewCatalog(1024)

	scanner := bufio.NewScanner(gzipReader)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo%10_000 == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var def definition
		if err := json.Unmarshal([]byte(line), &def); err != nil {
			return nil, fmt.Errorf("%s:%d: invalid coupon definition: %w", source, lineNo, err)
		}

		c, err := def.coupon()
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", source, lineNo, err)
		}
		catalog.Add(c)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading coupon file %s: %w", source, err)
	}

	return catalog, nil
}
