package catalog

import (
	"github.com/anchala/pos/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// CatalogEntryResponse is a catalog entry as shown to the operator
type CatalogEntryResponse struct {
	ProductCode string          `json:"product_code"`
	ProductName string          `json:"product_name"`
	Cost        decimal.Decimal `json:"cost"`
	Price       decimal.Decimal `json:"price"`
}

// RefreshResponse reports the outcome of a catalog reload
type RefreshResponse struct {
	Entries    int    `json:"entries"`
	Duplicates int    `json:"duplicates"`
	Source     string `json:"source"`
	LoadedAt   string `json:"loaded_at"`
}

// ToCatalogEntryResponse converts a domain entry into its response form
func ToCatalogEntryResponse(e *catalog.CatalogEntry) CatalogEntryResponse {
	return CatalogEntryResponse{
		ProductCode: e.ProductCode,
		ProductName: e.ProductName,
		Cost:        e.Cost,
		Price:       e.Price,
	}
}
