package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CatalogEntry is one sellable product as recorded in the purchase audit.
// Entries are copied into cart lines, never referenced, so later price
// changes do not affect past sales.
type CatalogEntry struct {
	ProductCode string
	ProductName string
	Cost        decimal.Decimal
	Price       decimal.Decimal
}

// NormalizeCode trims surrounding whitespace and lowercases a product code.
func NormalizeCode(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Index is an immutable lookup table over a catalog snapshot, keyed by
// normalized product code.
type Index struct {
	entries    []CatalogEntry
	byCode     map[string]int
	duplicates int
}

// NewIndex normalizes every code once. When a code occurs more than once the
// first row in source order wins and the rest are counted as duplicates.
func NewIndex(entries []CatalogEntry) *Index {
	idx := &Index{
		entries: make([]CatalogEntry, len(entries)),
		byCode:  make(map[string]int, len(entries)),
	}
	copy(idx.entries, entries)
	for i, e := range idx.entries {
		key := NormalizeCode(e.ProductCode)
		if key == "" {
			continue
		}
		if _, exists := idx.byCode[key]; exists {
			idx.duplicates++
			continue
		}
		idx.byCode[key] = i
	}
	return idx
}

// Lookup resolves a raw scanned or typed code.
func (i *Index) Lookup(raw string) (CatalogEntry, bool) {
	if i == nil {
		return CatalogEntry{}, false
	}
	pos, ok := i.byCode[NormalizeCode(raw)]
	if !ok {
		return CatalogEntry{}, false
	}
	return i.entries[pos], true
}

// Len returns the number of distinct codes
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.byCode)
}

// Duplicates returns how many rows were shadowed by an earlier row with the same code
func (i *Index) Duplicates() int {
	if i == nil {
		return 0
	}
	return i.duplicates
}

// Entries returns a copy of the snapshot in source order
func (i *Index) Entries() []CatalogEntry {
	if i == nil {
		return nil
	}
	out := make([]CatalogEntry, len(i.entries))
	copy(out, i.entries)
	return out
}
