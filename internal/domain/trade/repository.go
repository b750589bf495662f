package trade

import (
	"context"

	"github.com/anchala/pos/internal/domain/shared"
)

// BillNumberSequencer hands out the next bill number.
//
// The store-backed implementation computes max(bill_no)+1 and is racy when
// two tills confirm at the same time; the unique bill_no index turns a
// collision into a persistence error at commit. A store-side sequence can
// replace it without touching callers.
type BillNumberSequencer interface {
	// NextBillNo returns one more than the highest numeric bill number, or 1
	NextBillNo(ctx context.Context) (int64, error)
}

// SaleFilter narrows sale listings
type SaleFilter struct {
	shared.Filter
	Customer        string
	OutstandingOnly bool
}

// SaleRepository defines the interface for sale persistence
type SaleRepository interface {
	// CreateWithLines writes the sale header and every billbook line in one transaction
	CreateWithLines(ctx context.Context, sale *Sale) error

	// FindByBillNo finds a sale with its billbook lines
	FindByBillNo(ctx context.Context, billNo string) (*Sale, error)

	// FindAll lists sale headers, newest first, with the total row count
	FindAll(ctx context.Context, filter SaleFilter) ([]Sale, int64, error)

	// FindOutstandingByCustomer lists sales with a positive balance for a customer
	FindOutstandingByCustomer(ctx context.Context, customer string) ([]Sale, error)
}

// LedgerRepository appends audit rows and applies their ClampedLedgerAdjustment
// to the referenced sale. The insert and the server-side update share one
// transaction; a missing sale rolls both back.
type LedgerRepository interface {
	// RecordReturn appends a return and adjusts the sale, returning the
	// updated sale header. When soldQty is positive, a return that takes the
	// product's returned total above it fails with RETURN_EXCEEDS_SOLD. The
	// total is read under the sale's row lock, so concurrent returns on one
	// bill cannot overshoot together.
	RecordReturn(ctx context.Context, rec *ReturnRecord, soldQty int) (*Sale, error)

	// RecordBalancePayment appends a payment and adjusts the sale, returning the updated sale header
	RecordBalancePayment(ctx context.Context, payment *BalancePayment) (*Sale, error)

	// FindReturns lists returns recorded against a bill
	FindReturns(ctx context.Context, billNo string) ([]ReturnRecord, error)

	// FindBalancePayments lists payments recorded against a bill
	FindBalancePayments(ctx context.Context, billNo string) ([]BalancePayment, error)
}
