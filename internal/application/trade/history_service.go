package trade

import (
	"context"
	"strings"

	"github.com/anchala/pos/internal/domain/shared"
	"github.com/anchala/pos/internal/domain/trade"
)

// HistoryService answers questions about past sales
type HistoryService struct {
	saleRepo   trade.SaleRepository
	ledgerRepo trade.LedgerRepository
}

// NewHistoryService creates a new HistoryService
func NewHistoryService(saleRepo trade.SaleRepository, ledgerRepo trade.LedgerRepository) *HistoryService {
	return &HistoryService{saleRepo: saleRepo, ledgerRepo: ledgerRepo}
}

// GetSale returns a sale with its lines, returns and balance payments
func (s *HistoryService) GetSale(ctx context.Context, billNo string) (*SaleDetailResponse, error) {
	if strings.TrimSpace(billNo) == "" {
		return nil, shared.NewDomainError("INVALID_BILL_NO", "Bill number cannot be empty")
	}
	sale, err := s.saleRepo.FindByBillNo(ctx, billNo)
	if err != nil {
		return nil, err
	}
	returns, err := s.ledgerRepo.FindReturns(ctx, sale.BillNo)
	if err != nil {
		return nil, err
	}
	payments, err := s.ledgerRepo.FindBalancePayments(ctx, sale.BillNo)
	if err != nil {
		return nil, err
	}
	resp := ToSaleDetailResponse(sale, returns, payments)
	return &resp, nil
}

// ListSales lists sale headers, newest first by default
func (s *HistoryService) ListSales(ctx context.Context, req ListSalesRequest) (*shared.Paginated[SaleResponse], error) {
	filter := trade.SaleFilter{
		Filter: shared.Filter{
			Page:     req.Page,
			PageSize: req.PageSize,
			OrderBy:  req.OrderBy,
			OrderDir: req.OrderDir,
		}.Normalize(),
		Customer:        req.Customer,
		OutstandingOnly: req.OutstandingOnly,
	}

	sales, total, err := s.saleRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	page := shared.NewPaginated(ToSaleResponses(sales), total, filter.Page, filter.PageSize)
	return &page, nil
}

// ListOutstanding lists a customer's bills that still carry a balance,
// oldest first
func (s *HistoryService) ListOutstanding(ctx context.Context, customer string) ([]SaleResponse, error) {
	if strings.TrimSpace(customer) == "" {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer name cannot be empty")
	}
	sales, err := s.saleRepo.FindOutstandingByCustomer(ctx, customer)
	if err != nil {
		return nil, err
	}
	return ToSaleResponses(sales), nil
}
