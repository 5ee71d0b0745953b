package stock

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// legacyMap is the parsed form of a product's sizeStock column. A size maps
// either to a single pool shared by all colors (flat) or to per-color counts
// (nested). Both shapes can coexist in one document.
type legacyMap struct {
	flat   map[string]int
	nested map[string]map[string]int
}

// parseSizeStock decodes a sizeStock document. It never fails: anything that
// cannot be understood is reported as ok=false so callers fall back to the
// product's aggregate stock.
func parseSizeStock(raw json.RawMessage) (legacyMap, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return legacyMap{}, false
	}

	// Older rows stored the document as a JSON string.
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return legacyMap{}, false
		}
		return parseSizeStock(json.RawMessage(inner))
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return legacyMap{}, false
	}

	m := legacyMap{
		flat:   make(map[string]int),
		nested: make(map[string]map[string]int),
	}
	for size, value := range doc {
		var count float64
		if err := json.Unmarshal(value, &count); err == nil {
			m.flat[size] = int(count)
			continue
		}

		var colors map[string]float64
		if err := json.Unmarshal(value, &colors); err != nil {
			continue
		}
		byColor := make(map[string]int, len(colors))
		for color, c := range colors {
			byColor[color] = int(c)
		}
		m.nested[size] = byColor
	}

	if len(m.flat) == 0 && len(m.nested) == 0 {
		return legacyMap{}, false
	}
	return m, true
}

// lookup returns the count for size/color. An empty color on a nested size
// sums all colors of that size.
func (m legacyMap) lookup(size, color string) (int, bool) {
	if byColor, ok := m.nested[size]; ok {
		if color == "" {
			total := 0
			for _, c := range byColor {
				total += c
			}
			return total, true
		}
		c, ok := byColor[color]
		return c, ok
	}
	if c, ok := m.flat[size]; ok {
		return c, true
	}
	return 0, false
}

// forColor sums the given color across all nested sizes.
func (m legacyMap) forColor(color string) (int, bool) {
	total, found := 0, false
	for _, byColor := range m.nested {
		if c, ok := byColor[color]; ok {
			total += c
			found = true
		}
	}
	return total, found
}

func (m legacyMap) total() int {
	total := 0
	for _, c := range m.flat {
		total += c
	}
	for _, byColor := range m.nested {
		for _, c := range byColor {
			total += c
		}
	}
	return total
}

// entry returns the exact counter a line with size/color draws from, without
// the color summing done by lookup. Stock resolution and commit both use it.
func (m legacyMap) entry(size, color string) (int, bool) {
	if byColor, ok := m.nested[size]; ok {
		c, ok := byColor[color]
		return c, ok && color != ""
	}
	c, ok := m.flat[size]
	return c, ok
}

func (m legacyMap) marshal() (json.RawMessage, error) {
	doc := make(map[string]interface{}, len(m.flat)+len(m.nested))
	for size, c := range m.flat {
		doc[size] = c
	}
	for size, byColor := range m.nested {
		doc[size] = byColor
	}
	return json.Marshal(doc)
}

// LegacyEntry returns the sizeStock counter that a size/color selection draws
// from. ok is false when the document is unusable or has no such counter.
func LegacyEntry(raw json.RawMessage, size, color string) (int, bool) {
	m, ok := parseSizeStock(raw)
	if !ok {
		return 0, false
	}
	return m.entry(size, color)
}

// DecrementLegacy removes quantity from the size/color counter of a sizeStock
// document and returns the rewritten document. String-encoded documents come
// back as plain JSON objects.
func DecrementLegacy(raw json.RawMessage, size, color string, quantity int) (json.RawMessage, error) {
	m, ok := parseSizeStock(raw)
	if !ok {
		return nil, fmt.Errorf("size stock document is not usable")
	}
	current, ok := m.entry(size, color)
	if !ok {
		return nil, fmt.Errorf("size stock has no entry for size %q color %q", size, color)
	}
	if byColor, nested := m.nested[size]; nested {
		byColor[color] = current - quantity
	} else {
		m.flat[size] = current - quantity
	}
	return m.marshal()
}

// ValidLegacy reports whether raw is a usable sizeStock document with no
// negative counts.
func ValidLegacy(raw json.RawMessage) bool {
	m, ok := parseSizeStock(raw)
	if !ok {
		return false
	}
	for _, n := range m.flat {
		if n < 0 {
			return false
		}
	}
	for _, colors := range m.nested {
		for _, n := range colors {
			if n < 0 {
				return false
			}
		}
	}
	return true
}
