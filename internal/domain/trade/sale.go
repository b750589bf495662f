package trade

import (
	"strings"
	"time"

	"github.com/anchala/pos/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// BillbookLine is the denormalized copy of a cart line kept with a sale
// for historical reporting. Immutable once written.
type BillbookLine struct {
	BillNo      string
	ProductCode string
	ProductName string
	Qty         int
	Cost        decimal.Decimal
	Price       decimal.Decimal
	TotalPrice  decimal.Decimal
	Margin      decimal.Decimal
}

// Sale is one finalized transaction.
//
// Balance always equals max(Amount-Paid, 0). After creation the only
// mutation is a ClampedLedgerAdjustment; sales are never deleted.
type Sale struct {
	BillNo    string
	Date      time.Time
	Customer  string
	ItemCount int
	Amount    decimal.Decimal
	Paid      decimal.Decimal
	Balance   decimal.Decimal
	BalPaid   decimal.Decimal // legacy accumulator, always zero
	Lines     []BillbookLine
}

// NewSale validates a checkout request and builds the sale header and its
// billbook lines. No I/O happens here; a validation failure means nothing
// may be written.
func NewSale(billNo, customer string, paid decimal.Decimal, lines []CartLine, date time.Time) (*Sale, error) {
	billNo = strings.TrimSpace(billNo)
	customer = strings.TrimSpace(customer)
	if billNo == "" {
		return nil, shared.NewDomainError("INVALID_BILL_NO", "Bill number cannot be empty")
	}
	if len(billNo) > 50 {
		return nil, shared.NewDomainError("INVALID_BILL_NO", "Bill number cannot exceed 50 characters")
	}
	if customer == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer name cannot be empty")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("EMPTY_CART", "Cannot confirm a sale without items")
	}
	if paid.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PAID", "Paid amount cannot be negative")
	}

	amount := sumTotals(lines)
	paid = shared.RoundMoney(paid)

	sale := &Sale{
		BillNo:    billNo,
		Date:      date,
		Customer:  customer,
		ItemCount: len(lines),
		Amount:    amount,
		Paid:      paid,
		Balance:   shared.MaxZero(amount.Sub(paid)),
		BalPaid:   decimal.Zero,
		Lines:     make([]BillbookLine, 0, len(lines)),
	}
	for _, l := range lines {
		sale.Lines = append(sale.Lines, BillbookLine{
			BillNo:      billNo,
			ProductCode: l.ProductCode,
			ProductName: l.ProductName,
			Qty:         l.Qty,
			Cost:        l.Cost,
			Price:       l.Price,
			TotalPrice:  l.TotalPrice,
			Margin:      l.Margin,
		})
	}
	return sale, nil
}

// IsOutstanding reports whether the customer still owes money on this bill
func (s *Sale) IsOutstanding() bool {
	return s.Balance.IsPositive()
}

// BalanceConsistent reports whether Balance == max(Amount-Paid, 0)
func (s *Sale) BalanceConsistent() bool {
	return s.Balance.Equal(shared.MaxZero(s.Amount.Sub(s.Paid)))
}

// Apply applies a ledger adjustment to the in-memory copy of the sale.
// Persistent adjustments go through LedgerRepository.
func (s *Sale) Apply(adj ClampedLedgerAdjustment) {
	s.Paid, s.Balance = adj.Apply(s.Paid, s.Balance)
}

// SoldQuantity returns the quantity of a product on this bill, matching codes
// the same way catalog lookups do.
func (s *Sale) SoldQuantity(productCode string) int {
	key := normalizeCode(productCode)
	qty := 0
	for _, l := range s.Lines {
		if normalizeCode(l.ProductCode) == key {
			qty += l.Qty
		}
	}
	return qty
}

func normalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
