package trade

import (
	"context"
	"strconv"
	"time"

	"github.com/anchala/pos/internal/domain/printing"
	"github.com/anchala/pos/internal/domain/shared"
	"github.com/anchala/pos/internal/domain/trade"
	"github.com/anchala/pos/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// InvoiceIssuer renders and archives the invoice for a committed sale.
// It returns the document and where the archive copy was written.
type InvoiceIssuer interface {
	IssueInvoice(ctx context.Context, sale *trade.Sale) (*printing.Document, string, error)
}

// CheckoutConfig configures CheckoutService
type CheckoutConfig struct {
	RequirePayment bool
	Clock          func() time.Time
}

// CheckoutService turns a session cart into a persisted sale
type CheckoutService struct {
	sessions  *CartSessions
	saleRepo  trade.SaleRepository
	sequencer trade.BillNumberSequencer
	invoices  InvoiceIssuer
	cfg       CheckoutConfig
	logger    *zap.Logger
}

// NewCheckoutService creates a new CheckoutService. invoices may be nil, in
// which case no invoice is issued on confirmation.
func NewCheckoutService(
	sessions *CartSessions,
	saleRepo trade.SaleRepository,
	sequencer trade.BillNumberSequencer,
	invoices InvoiceIssuer,
	cfg CheckoutConfig,
	logger *zap.Logger,
) *CheckoutService {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CheckoutService{
		sessions:  sessions,
		saleRepo:  saleRepo,
		sequencer: sequencer,
		invoices:  invoices,
		cfg:       cfg,
		logger:    logger,
	}
}

// NextBillNo proposes the bill number for the next sale
func (s *CheckoutService) NextBillNo(ctx context.Context) (*NextBillNoResponse, error) {
	n, err := s.sequencer.NextBillNo(ctx)
	if err != nil {
		return nil, err
	}
	return &NextBillNoResponse{BillNo: strconv.FormatInt(n, 10)}, nil
}

// ConfirmSale validates the request against the cart, writes the sale and
// its billbook lines in one transaction, closes the cart and issues the
// invoice.
//
// Nothing is written when validation fails. When the write fails the cart
// is kept so the operator can retry. Invoice failures are reported in the
// result but never undo the committed sale.
func (s *CheckoutService) ConfirmSale(ctx context.Context, sessionID uuid.UUID, req ConfirmSaleRequest) (*ConfirmSaleResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "checkout", "confirm_sale",
		telemetry.WithAttribute(telemetry.SpanAttrSessionID, sessionID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrCustomer, req.Customer))
	defer span.End()

	if req.Paid.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PAID", "Paid amount cannot be negative")
	}
	if s.cfg.RequirePayment && !req.Paid.IsPositive() {
		return nil, shared.NewDomainError("PAYMENT_REQUIRED", "A payment is required to confirm the sale")
	}

	var sale *trade.Sale
	err := s.sessions.Checkout(sessionID, func(lines []trade.CartLine) error {
		billNo, err := s.billNumber(ctx, req.BillNo, len(lines))
		if err != nil {
			return err
		}
		sale, err = trade.NewSale(billNo, req.Customer, req.Paid, lines, s.cfg.Clock())
		if err != nil {
			return err
		}
		return s.saleRepo.CreateWithLines(ctx, sale)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		if shared.IsPersistence(err) {
			s.logger.Error("Failed to save sale, cart kept",
				zap.String("session_id", sessionID.String()),
				zap.Error(err))
		}
		return nil, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrBillNo, sale.BillNo,
		telemetry.SpanAttrAmount, sale.Amount.String(),
		telemetry.SpanAttrLineCount, sale.ItemCount)
	s.logger.Info("Sale confirmed",
		zap.String("bill_no", sale.BillNo),
		zap.String("customer", sale.Customer),
		zap.Int("items", sale.ItemCount),
		zap.String("amount", sale.Amount.StringFixed(2)),
		zap.String("paid", sale.Paid.StringFixed(2)),
		zap.String("balance", sale.Balance.StringFixed(2)))

	result := &ConfirmSaleResult{Sale: ToSaleResponse(sale)}
	if s.invoices != nil {
		result.Invoice = s.issueInvoice(ctx, sale)
	}
	return result, nil
}

// billNumber uses the operator's bill number, or the next one in sequence
// when none was given and the cart has something to sell.
func (s *CheckoutService) billNumber(ctx context.Context, requested *string, lineCount int) (string, error) {
	if requested != nil {
		return *requested, nil
	}
	if lineCount == 0 {
		return "", shared.NewDomainError("EMPTY_CART", "Cannot confirm a sale without items")
	}
	n, err := s.sequencer.NextBillNo(ctx)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n, 10), nil
}

func (s *CheckoutService) issueInvoice(ctx context.Context, sale *trade.Sale) *InvoiceInfo {
	doc, location, err := s.invoices.IssueInvoice(ctx, sale)
	if err != nil {
		s.logger.Error("Invoice could not be issued for committed sale",
			zap.String("bill_no", sale.BillNo),
			zap.Error(err))
		return &InvoiceInfo{Error: err.Error()}
	}
	return &InvoiceInfo{
		FileName:    doc.FileName,
		ContentType: doc.ContentType,
		Format:      string(doc.Format),
		Size:        doc.Size(),
		Location:    location,
	}
}
