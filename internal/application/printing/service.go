package printing

import (
	"context"
	"strings"

	"github.com/anchala/pos/internal/domain/printing"
	"github.com/anchala/pos/internal/domain/shared"
	"github.com/anchala/pos/internal/domain/trade"
	"github.com/anchala/pos/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// SaleFinder loads a persisted sale with its lines
type SaleFinder interface {
	FindByBillNo(ctx context.Context, billNo string) (*trade.Sale, error)
}

// InvoiceService issues invoices for confirmed sales and re-renders them on
// request
type InvoiceService struct {
	renderer printing.InvoiceRenderer
	archive  printing.InvoiceArchive
	sales    SaleFinder
	logger   *zap.Logger
}

// NewInvoiceService creates a new InvoiceService. archive may be nil, in
// which case rendered invoices are not kept.
func NewInvoiceService(
	renderer printing.InvoiceRenderer,
	archive printing.InvoiceArchive,
	sales SaleFinder,
	logger *zap.Logger,
) *InvoiceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvoiceService{
		renderer: renderer,
		archive:  archive,
		sales:    sales,
		logger:   logger,
	}
}

// IssueInvoice renders the invoice for a committed sale and archives a copy.
// An archive failure is logged and the document is still returned with an
// empty location.
func (s *InvoiceService) IssueInvoice(ctx context.Context, sale *trade.Sale) (*printing.Document, string, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "issue",
		telemetry.WithAttribute(telemetry.SpanAttrBillNo, sale.BillNo))
	defer span.End()

	doc, err := s.renderer.RenderInvoice(ctx, printing.InvoiceDataFromSale(sale))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, "", err
	}

	if s.archive == nil {
		return doc, "", nil
	}
	location, err := s.archive.Save(ctx, doc)
	if err != nil {
		s.logger.Warn("Failed to archive invoice",
			zap.String("bill_no", sale.BillNo),
			zap.String("file_name", doc.FileName),
			zap.Error(err))
		telemetry.AddEvent(span, "archive_failed", "error", err.Error())
		return doc, "", nil
	}

	s.logger.Info("Invoice issued",
		zap.String("bill_no", sale.BillNo),
		zap.String("location", location),
		zap.Int("size", doc.Size()))
	return doc, location, nil
}

// Download re-renders the invoice of a persisted sale. The current ledger
// state (paid, balance) is printed, not the state at confirmation.
func (s *InvoiceService) Download(ctx context.Context, billNo string) (*printing.Document, error) {
	if strings.TrimSpace(billNo) == "" {
		return nil, shared.NewDomainError("INVALID_BILL_NO", "Bill number cannot be empty")
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "download",
		telemetry.WithAttribute(telemetry.SpanAttrBillNo, billNo))
	defer span.End()

	sale, err := s.sales.FindByBillNo(ctx, billNo)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	doc, err := s.renderer.RenderInvoice(ctx, printing.InvoiceDataFromSale(sale))
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return doc, nil
}
