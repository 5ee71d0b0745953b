// Package stock resolves how many units of a product, variant or legacy
// size/color combination can still be reserved.
package stock

import (
	"github.com/google/uuid"

	"storefront/internal/model"
)

// Kind identifies which representation governs a product's stock.
type Kind int

const (
	// FlatCount means the product's aggregate stock column is authoritative.
	FlatCount Kind = iota
	// LegacyMap means the sizeStock document is authoritative.
	LegacyMap
	// PerVariant means variant rows are authoritative.
	PerVariant
)

func (k Kind) String() string {
	switch k {
	case PerVariant:
		return "per_variant"
	case LegacyMap:
		return "legacy_map"
	default:
		return "flat_count"
	}
}

type sizeColor struct {
	size, color string
}

// Source is a product's stock information normalised once at load time.
type Source struct {
	kind         Kind
	productStock int
	variants     map[uuid.UUID]model.ProductVariant
	bySizeColor  map[sizeColor]uuid.UUID
	legacy       legacyMap
	hasLegacy    bool
}

// NewSource normalises the product's variants, sizeStock document and
// aggregate stock into a Source.
func NewSource(p *model.Product) Source {
	src := Source{
		kind:         FlatCount,
		productStock: p.Stock,
	}

	src.legacy, src.hasLegacy = parseSizeStock(p.SizeStock)
	if src.hasLegacy {
		src.kind = LegacyMap
	}

	if len(p.Variants) > 0 {
		src.kind = PerVariant
		src.variants = make(map[uuid.UUID]model.ProductVariant, len(p.Variants))
		src.bySizeColor = make(map[sizeColor]uuid.UUID, len(p.Variants))
		for _, v := range p.Variants {
			src.variants[v.ID] = v
			src.bySizeColor[sizeColor{v.Size, v.Color}] = v.ID
		}
	}

	return src
}

// Kind reports the representation that governs the product.
func (s Source) Kind() Kind {
	return s.kind
}

// Variant resolves the variant addressed by an explicit ID or, failing that,
// by size and color. It returns nil when neither matches.
func (s Source) Variant(variantID *uuid.UUID, size, color string) *model.ProductVariant {
	if variantID != nil {
		if v, ok := s.variants[*variantID]; ok {
			return &v
		}
		return nil
	}
	if size == "" && color == "" {
		return nil
	}
	if id, ok := s.bySizeColor[sizeColor{size, color}]; ok {
		v := s.variants[id]
		return &v
	}
	return nil
}

// Base returns the stock before reservations for the given selection. Legacy
// selections read the same counter a commit decrements, so a size with
// per-color counts and no color falls back to the product's stock.
func (s Source) Base(variant *model.ProductVariant, size, color string) int {
	if variant != nil {
		return variant.Stock
	}
	if v := s.Variant(nil, size, color); v != nil {
		return v.Stock
	}
	if s.hasLegacy && size != "" {
		if c, ok := s.legacy.entry(size, color); ok {
			return c
		}
	}
	return s.productStock
}

// ForSize returns the stock of a size across all colors.
func (s Source) ForSize(size string) int {
	if s.kind == PerVariant {
		total := 0
		for _, v := range s.variants {
			if v.Size == size {
				total += v.Stock
			}
		}
		return total
	}
	if s.hasLegacy {
		if c, ok := s.legacy.lookup(size, ""); ok {
			return c
		}
	}
	return s.productStock
}

// ForColor returns the stock of a color across all sizes.
func (s Source) ForColor(color string) int {
	if s.kind == PerVariant {
		total := 0
		for _, v := range s.variants {
			if v.Color == color {
				total += v.Stock
			}
		}
		return total
	}
	if s.hasLegacy {
		if c, ok := s.legacy.forColor(color); ok {
			return c
		}
	}
	return s.productStock
}

// Total returns the product's overall stock under its governing representation.
func (s Source) Total() int {
	switch s.kind {
	case PerVariant:
		total := 0
		for _, v := range s.variants {
			total += v.Stock
		}
		return total
	case LegacyMap:
		return s.legacy.total()
	default:
		return s.productStock
	}
}
