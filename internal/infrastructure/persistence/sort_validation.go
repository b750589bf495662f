package persistence

import (
	"strings"

	"gorm.io/gorm/clause"
)

// saleSortColumns are the sales-history columns a caller may order by
var saleSortColumns = map[string]bool{
	"date":       true,
	"created_at": true,
	"bill_no":    true,
	"customer":   true,
	"amount":     true,
	"paid":       true,
	"balance":    true,
}

const defaultSaleSort = "date"

// descending is true unless dir is "asc" in any case
func descending(dir string) bool {
	return !strings.EqualFold(strings.TrimSpace(dir), "asc")
}

// saleOrder orders a sales listing by a whitelisted column, newest entry
// last as a tiebreak. Unknown columns fall back to date. bill_no is text, so
// it sorts by length first to keep "10" after "9".
func saleOrder(orderBy, orderDir string) clause.OrderBy {
	column := strings.TrimSpace(orderBy)
	if !saleSortColumns[column] {
		column = defaultSaleSort
	}
	desc := descending(orderDir)

	var cols []clause.OrderByColumn
	if column == "bill_no" {
		cols = append(cols, clause.OrderByColumn{Column: clause.Column{Name: "LENGTH(bill_no)", Raw: true}, Desc: desc})
	}
	cols = append(cols, clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc})
	if column != "created_at" {
		cols = append(cols, clause.OrderByColumn{Column: clause.Column{Name: "created_at"}, Desc: desc})
	}
	return clause.OrderBy{Columns: cols}
}
