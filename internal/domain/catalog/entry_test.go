package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeCode(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{" ABC123 ", "abc123"},
		{"abc123", "abc123"},
		{"\tA1\n", "a1"},
		{"   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeCode(tt.raw))
			assert.Equal(t, NormalizeCode(tt.raw), NormalizeCode(NormalizeCode(tt.raw)))
		})
	}
}

func TestIndex_Lookup(t *testing.T) {
	idx := NewIndex([]CatalogEntry{
		{ProductCode: "ABC123", ProductName: "Silk Saree", Cost: decimal.NewFromInt(500), Price: decimal.NewFromInt(800)},
		{ProductCode: " k9 ", ProductName: "Kurta", Cost: decimal.NewFromInt(200), Price: decimal.NewFromInt(350)},
	})

	t.Run("resolves regardless of case and whitespace", func(t *testing.T) {
		for _, raw := range []string{" ABC123 ", "abc123", "AbC123"} {
			e, ok := idx.Lookup(raw)
			require.True(t, ok, raw)
			assert.Equal(t, "Silk Saree", e.ProductName)
		}
	})

	t.Run("stored code is normalized too", func(t *testing.T) {
		e, ok := idx.Lookup("K9")
		require.True(t, ok)
		assert.Equal(t, "Kurta", e.ProductName)
	})

	t.Run("miss", func(t *testing.T) {
		_, ok := idx.Lookup("nope")
		assert.False(t, ok)
	})

	t.Run("nil index", func(t *testing.T) {
		var empty *Index
		_, ok := empty.Lookup("abc123")
		assert.False(t, ok)
		assert.Equal(t, 0, empty.Len())
	})
}

func TestIndex_DuplicateCodesFirstWins(t *testing.T) {
	idx := NewIndex([]CatalogEntry{
		{ProductCode: "A1", ProductName: "First", Price: decimal.NewFromInt(100)},
		{ProductCode: "a1 ", ProductName: "Second", Price: decimal.NewFromInt(200)},
		{ProductCode: "", ProductName: "Blank"},
	})

	e, ok := idx.Lookup("a1")
	require.True(t, ok)
	assert.Equal(t, "First", e.ProductName)
	assert.Equal(t, 1, idx.Duplicates())
	assert.Equal(t, 1, idx.Len())
	assert.Len(t, idx.Entries(), 3)
}
