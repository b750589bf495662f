package models

import (
	"github.com/anchala/pos/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// CatalogEntryModel maps one row of the externally maintained purchase audit
// table. The table is owned by another system, so only the columns the till
// reads are declared and the model is never migrated or written.
type CatalogEntryModel struct {
	ProductCode string          `gorm:"column:product_code"`
	ProductName string          `gorm:"column:product_name"`
	Cost        decimal.Decimal `gorm:"column:cost"`
	Price       decimal.Decimal `gorm:"column:price"`
}

// ToDomain converts the row to a catalog entry
func (m *CatalogEntryModel) ToDomain() catalog.CatalogEntry {
	return catalog.CatalogEntry{
		ProductCode: m.ProductCode,
		ProductName: m.ProductName,
		Cost:        m.Cost,
		Price:       m.Price,
	}
}
