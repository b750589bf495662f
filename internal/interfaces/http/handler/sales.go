package handler

import (
	"mime"
	"net/http"

	appprinting "github.com/anchala/pos/internal/application/printing"
	"github.com/anchala/pos/internal/application/trade"
	"github.com/anchala/pos/internal/domain/printing"
	"github.com/anchala/pos/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// SalesHandler serves the sales history and invoice downloads
type SalesHandler struct {
	BaseHandler
	history  *trade.HistoryService
	invoices *appprinting.InvoiceService
}

// NewSalesHandler creates a new SalesHandler
func NewSalesHandler(history *trade.HistoryService, invoices *appprinting.InvoiceService) *SalesHandler {
	return &SalesHandler{history: history, invoices: invoices}
}

// List returns a page of sales, newest first by default
// GET /sales
func (h *SalesHandler) List(c *gin.Context) {
	var req trade.ListSalesRequest
	if !h.BindQuery(c, &req) {
		return
	}
	page, err := h.history.ListSales(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPaginatedResponse(page))
}

// Get returns a sale with its lines, returns and payments
// GET /sales/:bill_no
func (h *SalesHandler) Get(c *gin.Context) {
	detail, err := h.history.GetSale(c.Request.Context(), c.Param("bill_no"))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, detail)
}

// DownloadInvoice re-renders the invoice of a stored sale.
// HTML invoices open in the browser; PDFs download.
// GET /sales/:bill_no/invoice
func (h *SalesHandler) DownloadInvoice(c *gin.Context) {
	doc, err := h.invoices.Download(c.Request.Context(), c.Param("bill_no"))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	disposition := "attachment"
	if doc.Format == printing.FormatHTML {
		disposition = "inline"
	}
	c.Header("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": doc.FileName}))
	c.Data(http.StatusOK, doc.ContentType, doc.Content)
}

// Outstanding lists the customer's bills that still carry a balance
// GET /customers/:customer/outstanding
func (h *SalesHandler) Outstanding(c *gin.Context) {
	sales, err := h.history.ListOutstanding(c.Request.Context(), c.Param("customer"))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	if sales == nil {
		sales = []trade.SaleResponse{}
	}
	h.Success(c, sales)
}
