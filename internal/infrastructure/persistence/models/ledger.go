package models

import (
	"time"

	"github.com/anchala/pos/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// ReturnRecordModel is the persistence model for the returns table.
type ReturnRecordModel struct {
	AuditModel
	BillNo       string          `gorm:"column:bill_no;type:varchar(50);not null;index"`
	ProductCode  string          `gorm:"column:product_code;type:varchar(100);not null"`
	Qty          int             `gorm:"column:qty;not null"`
	ReturnDate   time.Time       `gorm:"column:return_date;type:date;not null"`
	RefundAmount decimal.Decimal `gorm:"column:refund_amount;type:decimal(18,2);not null"`
	Remarks      string          `gorm:"column:remarks;type:varchar(500)"`
}

// TableName returns the table name for GORM
func (ReturnRecordModel) TableName() string {
	return "returns"
}

// ToDomain converts the row to a domain ReturnRecord
func (m *ReturnRecordModel) ToDomain() trade.ReturnRecord {
	return trade.ReturnRecord{
		ID:           m.ID,
		BillNo:       m.BillNo,
		ProductCode:  m.ProductCode,
		Qty:          m.Qty,
		ReturnDate:   m.ReturnDate,
		RefundAmount: m.RefundAmount,
		Remarks:      m.Remarks,
	}
}

// ReturnRecordModelFromDomain creates a new persistence model from a domain ReturnRecord.
func ReturnRecordModelFromDomain(r *trade.ReturnRecord) *ReturnRecordModel {
	return &ReturnRecordModel{
		AuditModel:   AuditModel{ID: ensureID(r.ID)},
		BillNo:       r.BillNo,
		ProductCode:  r.ProductCode,
		Qty:          r.Qty,
		ReturnDate:   r.ReturnDate,
		RefundAmount: r.RefundAmount,
		Remarks:      r.Remarks,
	}
}

// BalancePaymentModel is the persistence model for the balance_payments table.
type BalancePaymentModel struct {
	AuditModel
	BillNo      string          `gorm:"column:bill_no;type:varchar(50);not null;index"`
	Customer    string          `gorm:"column:customer;type:varchar(200);not null"`
	PaymentDate time.Time       `gorm:"column:payment_date;type:date;not null"`
	AmountPaid  decimal.Decimal `gorm:"column:amount_paid;type:decimal(18,2);not null"`
	Remarks     string          `gorm:"column:remarks;type:varchar(500)"`
}

// TableName returns the table name for GORM
func (BalancePaymentModel) TableName() string {
	return "balance_payments"
}

// ToDomain converts the row to a domain BalancePayment
func (m *BalancePaymentModel) ToDomain() trade.BalancePayment {
	return trade.BalancePayment{
		ID:          m.ID,
		BillNo:      m.BillNo,
		Customer:    m.Customer,
		PaymentDate: m.PaymentDate,
		AmountPaid:  m.AmountPaid,
		Remarks:     m.Remarks,
	}
}

// BalancePaymentModelFromDomain creates a new persistence model from a domain BalancePayment.
func BalancePaymentModelFromDomain(p *trade.BalancePayment) *BalancePaymentModel {
	return &BalancePaymentModel{
		AuditModel:  AuditModel{ID: ensureID(p.ID)},
		BillNo:      p.BillNo,
		Customer:    p.Customer,
		PaymentDate: p.PaymentDate,
		AmountPaid:  p.AmountPaid,
		Remarks:     p.Remarks,
	}
}
