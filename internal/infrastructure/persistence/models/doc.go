// Package models contains the GORM persistence models for the till's tables.
// They are kept apart from the domain types so the domain carries no ORM tags;
// each model has ToDomain and a From* constructor for the mapping.
//
// - base.go: AuditModel for append-only rows
// - catalog.go: CatalogEntryModel, read from the purchase audit table
// - trade.go: SaleModel and BillbookLineModel
// - ledger.go: ReturnRecordModel and BalancePaymentModel
package models
