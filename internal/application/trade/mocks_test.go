package trade

import (
	"context"

	"github.com/anchala/pos/internal/domain/catalog"
	"github.com/anchala/pos/internal/domain/printing"
	"github.com/anchala/pos/internal/domain/shared"
	"github.com/anchala/pos/internal/domain/trade"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockSaleRepository is a mock implementation of trade.SaleRepository
type MockSaleRepository struct {
	mock.Mock
}

func (m *MockSaleRepository) CreateWithLines(ctx context.Context, sale *trade.Sale) error {
	return m.Called(ctx, sale).Error(0)
}

func (m *MockSaleRepository) FindByBillNo(ctx context.Context, billNo string) (*trade.Sale, error) {
	args := m.Called(ctx, billNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.Sale), args.Error(1)
}

func (m *MockSaleRepository) FindAll(ctx context.Context, filter trade.SaleFilter) ([]trade.Sale, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]trade.Sale), args.Get(1).(int64), args.Error(2)
}

func (m *MockSaleRepository) FindOutstandingByCustomer(ctx context.Context, customer string) ([]trade.Sale, error) {
	args := m.Called(ctx, customer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]trade.Sale), args.Error(1)
}

// MockSequencer is a mock implementation of trade.BillNumberSequencer
type MockSequencer struct {
	mock.Mock
}

func (m *MockSequencer) NextBillNo(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockLedgerRepository is a mock implementation of trade.LedgerRepository
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) RecordReturn(ctx context.Context, rec *trade.ReturnRecord, soldQty int) (*trade.Sale, error) {
	args := m.Called(ctx, rec, soldQty)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.Sale), args.Error(1)
}

func (m *MockLedgerRepository) RecordBalancePayment(ctx context.Context, payment *trade.BalancePayment) (*trade.Sale, error) {
	args := m.Called(ctx, payment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.Sale), args.Error(1)
}

func (m *MockLedgerRepository) FindReturns(ctx context.Context, billNo string) ([]trade.ReturnRecord, error) {
	args := m.Called(ctx, billNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]trade.ReturnRecord), args.Error(1)
}

func (m *MockLedgerRepository) FindBalancePayments(ctx context.Context, billNo string) ([]trade.BalancePayment, error) {
	args := m.Called(ctx, billNo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]trade.BalancePayment), args.Error(1)
}

// MockInvoiceIssuer is a mock implementation of InvoiceIssuer
type MockInvoiceIssuer struct {
	mock.Mock
}

func (m *MockInvoiceIssuer) IssueInvoice(ctx context.Context, sale *trade.Sale) (*printing.Document, string, error) {
	args := m.Called(ctx, sale)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*printing.Document), args.String(1), args.Error(2)
}

// stubCatalog serves a fixed catalog
type stubCatalog map[string]catalog.CatalogEntry

func (s stubCatalog) FindByCode(_ context.Context, raw string) (*catalog.CatalogEntry, error) {
	idx := catalog.NewIndex(s.entries())
	e, ok := idx.Lookup(raw)
	if !ok {
		return nil, errProductNotFound
	}
	return &e, nil
}

func (s stubCatalog) entries() []catalog.CatalogEntry {
	out := make([]catalog.CatalogEntry, 0, len(s))
	for _, e := range s {
		out = append(out, e)
	}
	return out
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func shopCatalog() stubCatalog {
	return stubCatalog{
		"A1": {ProductCode: "A1", ProductName: "Saree", Cost: dec("500"), Price: dec("800")},
		"B2": {ProductCode: "B2", ProductName: "Dupatta", Cost: dec("120.50"), Price: dec("199.99")},
	}
}

var errProductNotFound = shared.NewNotFoundError("product not found")
