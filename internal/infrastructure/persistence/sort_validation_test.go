package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDescending(t *testing.T) {
	for dir, want := range map[string]bool{
		"":                         true,
		"asc":                      false,
		"  ASC ":                   false,
		"desc":                     true,
		"sideways":                 true,
		"ASC; DROP TABLE sales;--": true,
	} {
		assert.Equal(t, want, descending(dir), dir)
	}
}

// orderTerms renders each column as "name dir" for comparison
func orderTerms(orderBy, orderDir string) []string {
	var terms []string
	for _, c := range saleOrder(orderBy, orderDir).Columns {
		dir := "ASC"
		if c.Desc {
			dir = "DESC"
		}
		terms = append(terms, c.Column.Name+" "+dir)
	}
	return terms
}

func TestSaleOrder(t *testing.T) {
	tests := []struct {
		name    string
		orderBy string
		dir     string
		want    []string
	}{
		{"defaults to date", "", "", []string{"date DESC", "created_at DESC"}},
		{"allowed column", "balance", "asc", []string{"balance ASC", "created_at ASC"}},
		{"trimmed", " customer ", "desc", []string{"customer DESC", "created_at DESC"}},
		{"bill numbers sort by length first", "bill_no", "asc", []string{"LENGTH(bill_no) ASC", "bill_no ASC", "created_at ASC"}},
		{"created_at needs no tiebreak", "created_at", "asc", []string{"created_at ASC"}},
		{"unknown column", "password", "asc", []string{"date ASC", "created_at ASC"}},
		{"case sensitive", "Balance", "", []string{"date DESC", "created_at DESC"}},
		{"injection", "1=1; DROP TABLE sales;--", "", []string{"date DESC", "created_at DESC"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, orderTerms(tt.orderBy, tt.dir))
		})
	}
}

func TestSaleOrder_RawOnlyForLength(t *testing.T) {
	cols := saleOrder("bill_no", "").Columns
	assert.True(t, cols[0].Column.Raw)
	assert.False(t, cols[1].Column.Raw)
}
