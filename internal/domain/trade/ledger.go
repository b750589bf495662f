package trade

import (
	"strings"
	"time"

	"github.com/anchala/pos/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ClampedLedgerAdjustment is the single rule by which returns and balance
// payments change a sale after it was confirmed:
//
//	paid    := paid + amount
//	balance := max(balance - amount, 0)
//
// Overpayment is absorbed: balance never goes negative and no credit is
// recorded.
//
// Returns use the same rule, so a refund increases Paid rather than
// reducing Amount. That is the behaviour existing ledgers were built with
// and it is kept as is; swap this type if returns should instead reverse
// revenue.
type ClampedLedgerAdjustment struct {
	Amount decimal.Decimal
}

// NewClampedLedgerAdjustment validates the adjustment amount
func NewClampedLedgerAdjustment(amount decimal.Decimal) (ClampedLedgerAdjustment, error) {
	if amount.IsNegative() {
		return ClampedLedgerAdjustment{}, shared.NewDomainError("INVALID_AMOUNT", "Adjustment amount cannot be negative")
	}
	return ClampedLedgerAdjustment{Amount: shared.RoundMoney(amount)}, nil
}

// Apply returns the adjusted paid and balance values
func (a ClampedLedgerAdjustment) Apply(paid, balance decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	return paid.Add(a.Amount), shared.MaxZero(balance.Sub(a.Amount))
}

// Absorbed returns the part of the amount that exceeds the balance and is
// silently swallowed by the floor at zero.
func (a ClampedLedgerAdjustment) Absorbed(balance decimal.Decimal) decimal.Decimal {
	return shared.MaxZero(a.Amount.Sub(balance))
}

// ReturnRecord is an append-only audit entry for returned goods
type ReturnRecord struct {
	ID           uuid.UUID
	BillNo       string
	ProductCode  string
	Qty          int
	ReturnDate   time.Time
	RefundAmount decimal.Decimal
	Remarks      string
}

// NewReturnRecord validates and creates a return entry
func NewReturnRecord(billNo, productCode string, qty int, refund decimal.Decimal, remarks string, date time.Time) (*ReturnRecord, error) {
	billNo = strings.TrimSpace(billNo)
	productCode = strings.TrimSpace(productCode)
	if billNo == "" {
		return nil, shared.NewDomainError("INVALID_BILL_NO", "Bill number cannot be empty")
	}
	if productCode == "" {
		return nil, shared.NewDomainError("INVALID_PRODUCT_CODE", "Product code cannot be empty")
	}
	if qty < 1 {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Return quantity must be at least 1")
	}
	if refund.IsNegative() {
		return nil, shared.NewDomainError("INVALID_REFUND", "Refund amount cannot be negative")
	}
	return &ReturnRecord{
		ID:           uuid.New(),
		BillNo:       billNo,
		ProductCode:  productCode,
		Qty:          qty,
		ReturnDate:   date,
		RefundAmount: shared.RoundMoney(refund),
		Remarks:      strings.TrimSpace(remarks),
	}, nil
}

// Adjustment returns the ledger adjustment this return triggers
func (r *ReturnRecord) Adjustment() ClampedLedgerAdjustment {
	return ClampedLedgerAdjustment{Amount: r.RefundAmount}
}

// NewReturnExceedsSoldError reports a return that would bring the quantity
// returned for a product above the quantity sold on the bill
func NewReturnExceedsSoldError(billNo, productCode string) error {
	return shared.NewDomainError("RETURN_EXCEEDS_SOLD",
		"Return quantity of "+productCode+" exceeds the quantity sold on bill "+billNo)
}

// BalancePayment is an append-only audit entry for money collected
// against an outstanding bill
type BalancePayment struct {
	ID          uuid.UUID
	BillNo      string
	Customer    string
	PaymentDate time.Time
	AmountPaid  decimal.Decimal
	Remarks     string
}

// NewBalancePayment validates and creates a payment entry
func NewBalancePayment(billNo, customer string, amount decimal.Decimal, remarks string, date time.Time) (*BalancePayment, error) {
	billNo = strings.TrimSpace(billNo)
	customer = strings.TrimSpace(customer)
	if billNo == "" {
		return nil, shared.NewDomainError("INVALID_BILL_NO", "Bill number cannot be empty")
	}
	if customer == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer name cannot be empty")
	}
	if amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount cannot be negative")
	}
	return &BalancePayment{
		ID:          uuid.New(),
		BillNo:      billNo,
		Customer:    customer,
		PaymentDate: date,
		AmountPaid:  shared.RoundMoney(amount),
		Remarks:     strings.TrimSpace(remarks),
	}, nil
}

// Adjustment returns the ledger adjustment this payment triggers
func (p *BalancePayment) Adjustment() ClampedLedgerAdjustment {
	return ClampedLedgerAdjustment{Amount: p.AmountPaid}
}
