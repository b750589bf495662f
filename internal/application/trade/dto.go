package trade

import (
	"time"

	"github.com/anchala/pos/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==================== Cart DTOs ====================

// AddCartLineRequest adds a scanned product to a session cart. Price
// defaults to the catalog price when omitted.
type AddCartLineRequest struct {
	ProductCode string           `json:"product_code" binding:"required,min=1,max=50"`
	Qty         int              `json:"qty" binding:"required,min=1,max=10000"`
	Price       *decimal.Decimal `json:"price" binding:"omitempty,money"`
}

// CartLineResponse is one line of an open cart
type CartLineResponse struct {
	Index       int             `json:"index"`
	ProductCode string          `json:"product_code"`
	ProductName string          `json:"product_name"`
	Qty         int             `json:"qty"`
	Cost        decimal.Decimal `json:"cost"`
	Price       decimal.Decimal `json:"price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	Margin      decimal.Decimal `json:"margin"`
}

// CartResponse is the operator's view of an open cart
type CartResponse struct {
	SessionID uuid.UUID          `json:"session_id"`
	Lines     []CartLineResponse `json:"lines"`
	ItemCount int                `json:"item_count"`
	Total     decimal.Decimal    `json:"total"`
	Margin    decimal.Decimal    `json:"margin"`
	ExpiresAt time.Time          `json:"expires_at"`
}

// ==================== Checkout DTOs ====================

// ConfirmSaleRequest finalizes a session cart. A nil BillNo takes the next
// bill number.
type ConfirmSaleRequest struct {
	BillNo   *string         `json:"bill_no" binding:"omitempty,max=50"`
	Customer string          `json:"customer" binding:"required,max=200"`
	Paid     decimal.Decimal `json:"paid" binding:"money"`
}

// InvoiceInfo describes the invoice issued for a confirmed sale
type InvoiceInfo struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Format      string `json:"format"`
	Size        int    `json:"size"`
	Location    string `json:"location,omitempty"`
	DownloadURL string `json:"download_url"`
	Error       string `json:"error,omitempty"`
}

// ConfirmSaleResult is returned after a sale is committed
type ConfirmSaleResult struct {
	Sale    SaleResponse `json:"sale"`
	Invoice *InvoiceInfo `json:"invoice,omitempty"`
}

// NextBillNoResponse carries the proposed bill number
type NextBillNoResponse struct {
	BillNo string `json:"bill_no"`
}

// ==================== Ledger DTOs ====================

// ProcessReturnRequest records goods returned against a bill
type ProcessReturnRequest struct {
	BillNo       string          `json:"bill_no" binding:"required,max=50"`
	ProductCode  string          `json:"product_code" binding:"required,max=50"`
	Qty          int             `json:"qty" binding:"required,min=1"`
	RefundAmount decimal.Decimal `json:"refund_amount" binding:"money"`
	Remarks      string          `json:"remarks" binding:"max=500"`
}

// BalancePaymentRequest records a later payment against a bill
type BalancePaymentRequest struct {
	BillNo   string          `json:"bill_no" binding:"required,max=50"`
	Customer string          `json:"customer" binding:"required,max=200"`
	Amount   decimal.Decimal `json:"amount" binding:"money"`
	Remarks  string          `json:"remarks" binding:"max=500"`
}

// ReturnResponse is an appended return record
type ReturnResponse struct {
	ID           uuid.UUID       `json:"id"`
	BillNo       string          `json:"bill_no"`
	ProductCode  string          `json:"product_code"`
	Qty          int             `json:"qty"`
	ReturnDate   time.Time       `json:"return_date"`
	RefundAmount decimal.Decimal `json:"refund_amount"`
	Remarks      string          `json:"remarks,omitempty"`
}

// BalancePaymentResponse is an appended balance payment
type BalancePaymentResponse struct {
	ID          uuid.UUID       `json:"id"`
	BillNo      string          `json:"bill_no"`
	Customer    string          `json:"customer"`
	PaymentDate time.Time       `json:"payment_date"`
	AmountPaid  decimal.Decimal `json:"amount_paid"`
	Remarks     string          `json:"remarks,omitempty"`
}

// LedgerResult reports an audit row together with the adjusted sale
type LedgerResult struct {
	Sale     SaleResponse            `json:"sale"`
	Return   *ReturnResponse         `json:"return,omitempty"`
	Payment  *BalancePaymentResponse `json:"payment,omitempty"`
	Absorbed decimal.Decimal         `json:"absorbed"`
}

// ==================== History DTOs ====================

// ListSalesRequest filters the sales history
type ListSalesRequest struct {
	Customer        string `form:"customer" binding:"max=200"`
	OutstandingOnly bool   `form:"outstanding_only"`
	Page            int    `form:"page" binding:"omitempty,min=1"`
	PageSize        int    `form:"page_size" binding:"omitempty,min=1,max=200"`
	OrderBy         string `form:"order_by" binding:"omitempty,oneof=date bill_no customer amount paid balance"`
	OrderDir        string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// SaleResponse is a sale header
type SaleResponse struct {
	BillNo    string          `json:"bill_no"`
	Date      time.Time       `json:"date"`
	Customer  string          `json:"customer"`
	ItemCount int             `json:"item_count"`
	Amount    decimal.Decimal `json:"amount"`
	Paid      decimal.Decimal `json:"paid"`
	Balance   decimal.Decimal `json:"balance"`
}

// BillbookLineResponse is one sold line
type BillbookLineResponse struct {
	ProductCode string          `json:"product_code"`
	ProductName string          `json:"product_name"`
	Qty         int             `json:"qty"`
	Cost        decimal.Decimal `json:"cost"`
	Price       decimal.Decimal `json:"price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	Margin      decimal.Decimal `json:"margin"`
}

// SaleDetailResponse is a sale with its lines and ledger history
type SaleDetailResponse struct {
	SaleResponse
	Lines    []BillbookLineResponse   `json:"lines"`
	Returns  []ReturnResponse         `json:"returns"`
	Payments []BalancePaymentResponse `json:"payments"`
}

// ==================== Conversions ====================

// ToSaleResponse converts a sale header
func ToSaleResponse(s *trade.Sale) SaleResponse {
	return SaleResponse{
		BillNo:    s.BillNo,
		Date:      s.Date,
		Customer:  s.Customer,
		ItemCount: s.ItemCount,
		Amount:    s.Amount,
		Paid:      s.Paid,
		Balance:   s.Balance,
	}
}

// ToSaleResponses converts a list of sale headers
func ToSaleResponses(sales []trade.Sale) []SaleResponse {
	out := make([]SaleResponse, len(sales))
	for i := range sales {
		out[i] = ToSaleResponse(&sales[i])
	}
	return out
}

// ToSaleDetailResponse converts a sale and its ledger history
func ToSaleDetailResponse(s *trade.Sale, returns []trade.ReturnRecord, payments []trade.BalancePayment) SaleDetailResponse {
	resp := SaleDetailResponse{
		SaleResponse: ToSaleResponse(s),
		Lines:        make([]BillbookLineResponse, len(s.Lines)),
		Returns:      make([]ReturnResponse, len(returns)),
		Payments:     make([]BalancePaymentResponse, len(payments)),
	}
	for i, l := range s.Lines {
		resp.Lines[i] = BillbookLineResponse{
			ProductCode: l.ProductCode,
			ProductName: l.ProductName,
			Qty:         l.Qty,
			Cost:        l.Cost,
			Price:       l.Price,
			TotalPrice:  l.TotalPrice,
			Margin:      l.Margin,
		}
	}
	for i := range returns {
		resp.Returns[i] = toReturnResponse(&returns[i])
	}
	for i := range payments {
		resp.Payments[i] = toBalancePaymentResponse(&payments[i])
	}
	return resp
}

func toCartLineResponses(lines []trade.CartLine) []CartLineResponse {
	out := make([]CartLineResponse, len(lines))
	for i, l := range lines {
		out[i] = CartLineResponse{
			Index:       i,
			ProductCode: l.ProductCode,
			ProductName: l.ProductName,
			Qty:         l.Qty,
			Cost:        l.Cost,
			Price:       l.Price,
			TotalPrice:  l.TotalPrice,
			Margin:      l.Margin,
		}
	}
	return out
}

func toReturnResponse(r *trade.ReturnRecord) ReturnResponse {
	return ReturnResponse{
		ID:           r.ID,
		BillNo:       r.BillNo,
		ProductCode:  r.ProductCode,
		Qty:          r.Qty,
		ReturnDate:   r.ReturnDate,
		RefundAmount: r.RefundAmount,
		Remarks:      r.Remarks,
	}
}

func toBalancePaymentResponse(p *trade.BalancePayment) BalancePaymentResponse {
	return BalancePaymentResponse{
		ID:          p.ID,
		BillNo:      p.BillNo,
		Customer:    p.Customer,
		PaymentDate: p.PaymentDate,
		AmountPaid:  p.AmountPaid,
		Remarks:     p.Remarks,
	}
}
