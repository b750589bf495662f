package trade

import (
	"context"
	"testing"

	"github.com/anchala/pos/internal/domain/shared"
	"github.com/anchala/pos/internal/domain/trade"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestHistoryService_GetSale(t *testing.T) {
	saleRepo := new(MockSaleRepository)
	ledgerRepo := new(MockLedgerRepository)
	sale := ledgerSale(t, "1000")
	saleRepo.On("FindByBillNo", mock.Anything, "12").Return(sale, nil)

	payment, err := trade.NewBalancePayment("12", "Meena", dec("200"), "cash", sale.Date)
	require.NoError(t, err)
	ledgerRepo.On("FindReturns", mock.Anything, "12").Return([]trade.ReturnRecord{}, nil)
	ledgerRepo.On("FindBalancePayments", mock.Anything, "12").Return([]trade.BalancePayment{*payment}, nil)

	resp, err := NewHistoryService(saleRepo, ledgerRepo).GetSale(context.Background(), "12")
	require.NoError(t, err)
	assert.Equal(t, "12", resp.BillNo)
	require.Len(t, resp.Lines, 1)
	assert.Equal(t, "Saree", resp.Lines[0].ProductName)
	assert.Empty(t, resp.Returns)
	require.Len(t, resp.Payments, 1)
	assert.Equal(t, "cash", resp.Payments[0].Remarks)
}

func TestHistoryService_GetSaleNotFound(t *testing.T) {
	saleRepo := new(MockSaleRepository)
	saleRepo.On("FindByBillNo", mock.Anything, "404").Return(nil, shared.NewNotFoundError("Sale 404 not found"))

	_, err := NewHistoryService(saleRepo, new(MockLedgerRepository)).GetSale(context.Background(), "404")
	assert.True(t, shared.IsNotFound(err))
}

func TestHistoryService_ListSalesNormalizesPaging(t *testing.T) {
	saleRepo := new(MockSaleRepository)
	saleRepo.On("FindAll", mock.Anything, mock.MatchedBy(func(f trade.SaleFilter) bool {
		return f.Page == 1 && f.PageSize == 20 && f.OrderDir == "desc" && f.Customer == "Meena" && f.OutstandingOnly
	})).Return([]trade.Sale{*ledgerSale(t, "1000")}, int64(41), nil)

	page, err := NewHistoryService(saleRepo, nil).ListSales(context.Background(), ListSalesRequest{
		Customer: "Meena", OutstandingOnly: true,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(41), page.Total)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "600.00", page.Items[0].Balance.StringFixed(2))
}

func TestHistoryService_ListOutstanding(t *testing.T) {
	saleRepo := new(MockSaleRepository)
	saleRepo.On("FindOutstandingByCustomer", mock.Anything, "Meena").Return([]trade.Sale{*ledgerSale(t, "1000")}, nil)

	svc := NewHistoryService(saleRepo, nil)
	sales, err := svc.ListOutstanding(context.Background(), "Meena")
	require.NoError(t, err)
	assert.Len(t, sales, 1)

	_, err = svc.ListOutstanding(context.Background(), " ")
	assert.True(t, shared.IsValidation(err))
}
