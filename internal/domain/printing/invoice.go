package printing

import (
	"fmt"
	"time"

	"github.com/anchala/pos/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// InvoiceLine is one printed row of the line-item table
type InvoiceLine struct {
	ProductName string
	Qty         int
	UnitPrice   decimal.Decimal
	LineTotal   decimal.Decimal
}

// InvoiceData is everything printed on an invoice. Rendering is a pure
// function of this value plus the generation date.
type InvoiceData struct {
	BillNo   string
	Date     time.Time
	Customer string
	Lines    []InvoiceLine
	Amount   decimal.Decimal
	Paid     decimal.Decimal
	Balance  decimal.Decimal
}

// InvoiceDataFromSale builds invoice data from a persisted or freshly
// confirmed sale
func InvoiceDataFromSale(sale *trade.Sale) InvoiceData {
	lines := make([]InvoiceLine, 0, len(sale.Lines))
	for _, l := range sale.Lines {
		lines = append(lines, InvoiceLine{
			ProductName: l.ProductName,
			Qty:         l.Qty,
			UnitPrice:   l.Price,
			LineTotal:   l.TotalPrice,
		})
	}
	return InvoiceData{
		BillNo:   sale.BillNo,
		Date:     sale.Date,
		Customer: sale.Customer,
		Lines:    lines,
		Amount:   sale.Amount,
		Paid:     sale.Paid,
		Balance:  sale.Balance,
	}
}

// Document is a rendered, downloadable invoice artifact
type Document struct {
	FileName    string
	ContentType string
	Format      OutputFormat
	Content     []byte
	GeneratedAt time.Time
}

// Size returns the content length in bytes
func (d *Document) Size() int {
	return len(d.Content)
}

// InvoiceFileName returns the download name for a bill, Invoice_<bill_no>.<ext>
func InvoiceFileName(billNo string, format OutputFormat) string {
	return fmt.Sprintf("Invoice_%s.%s", billNo, format.Extension())
}
