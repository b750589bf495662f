package persistence

import (
	"context"

	"github.com/anchala/pos/internal/domain/catalog"
	"github.com/anchala/pos/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCatalogSource reads the purchase audit table in bulk
type GormCatalogSource struct {
	db          *gorm.DB
	table       string
	orderColumn string
}

// CatalogSourceOption configures a GormCatalogSource
type CatalogSourceOption func(*GormCatalogSource)

// WithOrderColumn sorts rows ascending by column, so the oldest row of a
// duplicated code is the one the catalog index keeps. Empty leaves the
// order to the database.
func WithOrderColumn(column string) CatalogSourceOption {
	return func(s *GormCatalogSource) {
		s.orderColumn = column
	}
}

// NewGormCatalogSource creates a catalog source over the given table
func NewGormCatalogSource(db *gorm.DB, table string, opts ...CatalogSourceOption) *GormCatalogSource {
	if table == "" {
		table = "purchase_audit"
	}
	s := &GormCatalogSource{db: db, table: table}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LoadAll returns every row of the table
func (s *GormCatalogSource) LoadAll(ctx context.Context) ([]catalog.CatalogEntry, error) {
	var rows []models.CatalogEntryModel
	query := s.db.WithContext(ctx).
		Table(s.table).
		Select("product_code", "product_name", "cost", "price")
	if s.orderColumn != "" {
		query = query.Order(clause.OrderByColumn{Column: clause.Column{Name: s.orderColumn}})
	}
	err := query.Find(&rows).Error
	if err != nil {
		return nil, translateError(err, "", "Failed to load catalog")
	}

	entries := make([]catalog.CatalogEntry, len(rows))
	for i := range rows {
		entries[i] = rows[i].ToDomain()
	}
	return entries, nil
}

// Ensure GormCatalogSource implements catalog.CatalogSource
var _ catalog.CatalogSource = (*GormCatalogSource)(nil)
