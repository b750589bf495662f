package models

import (
	"time"

	"github.com/anchala/pos/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleModel is the persistence model for the sales table.
type SaleModel struct {
	BillNo    string          `gorm:"column:bill_no;type:varchar(50);primaryKey"`
	Date      time.Time       `gorm:"column:date;type:date;not null"`
	Customer  string          `gorm:"column:customer;type:varchar(200);not null;index"`
	Items     int             `gorm:"column:items;not null"`
	Amount    decimal.Decimal `gorm:"column:amount;type:decimal(18,2);not null"`
	Paid      decimal.Decimal `gorm:"column:paid;type:decimal(18,2);not null"`
	BalPaid   decimal.Decimal `gorm:"column:bal_paid;type:decimal(18,2);not null"`
	Balance   decimal.Decimal `gorm:"column:balance;type:decimal(18,2);not null"`
	CreatedAt time.Time       `gorm:"not null"`
	UpdatedAt time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// ToDomain converts the header row to a domain Sale without lines.
func (m *SaleModel) ToDomain() *trade.Sale {
	return &trade.Sale{
		BillNo:    m.BillNo,
		Date:      m.Date,
		Customer:  m.Customer,
		ItemCount: m.Items,
		Amount:    m.Amount,
		Paid:      m.Paid,
		Balance:   m.Balance,
		BalPaid:   m.BalPaid,
	}
}

// FromDomain populates the header row from a domain Sale
func (m *SaleModel) FromDomain(s *trade.Sale) {
	m.BillNo = s.BillNo
	m.Date = s.Date
	m.Customer = s.Customer
	m.Items = s.ItemCount
	m.Amount = s.Amount
	m.Paid = s.Paid
	m.BalPaid = s.BalPaid
	m.Balance = s.Balance
}

// SaleModelFromDomain creates a new persistence model from a domain Sale.
func SaleModelFromDomain(s *trade.Sale) *SaleModel {
	m := &SaleModel{}
	m.FromDomain(s)
	return m
}

// BillbookLineModel is the persistence model for the billbook table.
type BillbookLineModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	BillNo      string          `gorm:"column:bill_no;type:varchar(50);not null;index"`
	ProductCode string          `gorm:"column:product_code;type:varchar(100);not null"`
	ProductName string          `gorm:"column:product_name;type:varchar(200);not null"`
	Qty         int             `gorm:"column:qty;not null"`
	Cost        decimal.Decimal `gorm:"column:cost;type:decimal(18,2);not null"`
	Price       decimal.Decimal `gorm:"column:price;type:decimal(18,2);not null"`
	TotalPrice  decimal.Decimal `gorm:"column:total_price;type:decimal(18,2);not null"`
	Margin      decimal.Decimal `gorm:"column:margin;type:decimal(18,2);not null"`
	LineNo      int             `gorm:"column:line_no;not null"`
	CreatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (BillbookLineModel) TableName() string {
	return "billbook"
}

// ToDomain converts the row to a domain BillbookLine
func (m *BillbookLineModel) ToDomain() trade.BillbookLine {
	return trade.BillbookLine{
		BillNo:      m.BillNo,
		ProductCode: m.ProductCode,
		ProductName: m.ProductName,
		Qty:         m.Qty,
		Cost:        m.Cost,
		Price:       m.Price,
		TotalPrice:  m.TotalPrice,
		Margin:      m.Margin,
	}
}

// BillbookLineModelsFromDomain creates one row per sale line, numbered in cart order.
func BillbookLineModelsFromDomain(s *trade.Sale) []BillbookLineModel {
	rows := make([]BillbookLineModel, len(s.Lines))
	for i, l := range s.Lines {
		rows[i] = BillbookLineModel{
			ID:          uuid.New(),
			BillNo:      s.BillNo,
			ProductCode: l.ProductCode,
			ProductName: l.ProductName,
			Qty:         l.Qty,
			Cost:        l.Cost,
			Price:       l.Price,
			TotalPrice:  l.TotalPrice,
			Margin:      l.Margin,
			LineNo:      i + 1,
		}
	}
	return rows
}
