package stock

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLegacyEntry(t *testing.T) {
	doc := json.RawMessage(`{"M": {"Red": 3, "Blue": 0}, "L": 5}`)

	tests := []struct {
		name     string
		size     string
		color    string
		expected int
		found    bool
	}{
		{name: "Nested entry", size: "M", color: "Red", expected: 3, found: true},
		{name: "Nested zero entry", size: "M", color: "Blue", expected: 0, found: true},
		{name: "Nested without color", size: "M", color: "", found: false},
		{name: "Flat entry ignores color", size: "L", color: "Green", expected: 5, found: true},
		{name: "Unknown size", size: "XS", color: "Red", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count, ok := LegacyEntry(doc, tt.size, tt.color)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.expected, count)
			}
		})
	}

	_, ok := LegacyEntry(json.RawMessage(`{oops`), "M", "Red")
	assert.False(t, ok)
}

func TestDecrementLegacy(t *testing.T) {
	t.Run("Nested counter", func(t *testing.T) {
		out, err := DecrementLegacy(json.RawMessage(`{"M": {"Red": 3, "Blue": 1}}`), "M", "Red", 2)
		require.NoError(t, err)
		assert.JSONEq(t, `{"M": {"Red": 1, "Blue": 1}}`, string(out))
	})

	t.Run("Flat counter", func(t *testing.T) {
		out, err := DecrementLegacy(json.RawMessage(`{"M": 4, "L": {"Red": 1}}`), "M", "Black", 4)
		require.NoError(t, err)
		assert.JSONEq(t, `{"M": 0, "L": {"Red": 1}}`, string(out))
	})

	t.Run("String encoded document is normalised", func(t *testing.T) {
		out, err := DecrementLegacy(json.RawMessage(`"{\"S\": 2}"`), "S", "", 1)
		require.NoError(t, err)
		assert.JSONEq(t, `{"S": 1}`, string(out))
	})

	t.Run("Missing entry", func(t *testing.T) {
		_, err := DecrementLegacy(json.RawMessage(`{"M": {"Red": 3}}`), "M", "Green", 1)
		assert.Error(t, err)
	})

	t.Run("Malformed document", func(t *testing.T) {
		_, err := DecrementLegacy(json.RawMessage(`{"M":`), "M", "Red", 1)
		assert.Error(t, err)
	})
}

func TestValidLegacy(t *testing.T) {
	assert.True(t, ValidLegacy(json.RawMessage(`{"M":3,"L":0}`)))
	assert.True(t, ValidLegacy(json.RawMessage(`{"M":{"Red":2}}`)))
	assert.False(t, ValidLegacy(json.RawMessage(`{"M":-1}`)))
	assert.False(t, ValidLegacy(json.RawMessage(`{"M":{"Red":-2}}`)))
	assert.False(t, ValidLegacy(json.RawMessage(`[1,2`)))
	assert.False(t, ValidLegacy(nil))
}
