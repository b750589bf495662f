package persistence

import (
	"github.com/anchala/pos/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// Models lists every table the till owns. The purchase audit table is owned
// by another system and is not part of it.
func Models() []any {
	return []any{
		&models.SaleModel{},
		&models.BillbookLineModel{},
		&models.ReturnRecordModel{},
		&models.BalancePaymentModel{},
	}
}

// AutoMigrate creates the till's tables from the GORM models. Production
// schemas are managed by the SQL migrations; this is for local databases and
// tests.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

// AutoMigrateCatalog creates a purchase audit table with the columns the
// catalog source reads, for local databases and tests.
func AutoMigrateCatalog(db *gorm.DB, table string) error {
	if table == "" {
		table = "purchase_audit"
	}
	return db.Table(table).AutoMigrate(&models.CatalogEntryModel{})
}
