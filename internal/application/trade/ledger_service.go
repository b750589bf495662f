package trade

import (
	"context"
	"strings"
	"time"

	"github.com/anchala/pos/internal/domain/shared"
	"github.com/anchala/pos/internal/domain/trade"
	"github.com/anchala/pos/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// LedgerConfig configures LedgerService guards
type LedgerConfig struct {
	BoundPaymentsToBalance bool
	ValidateReturnQuantity bool
	Clock                  func() time.Time
}

// LedgerService records returns and balance payments against existing
// sales. Both apply a ClampedLedgerAdjustment: paid goes up by the amount
// and the balance goes down by it, never below zero.
//
// Returns increase paid as well. That is the inherited bookkeeping rule and
// is kept as is; the refund is recorded on the return row.
type LedgerService struct {
	saleRepo   trade.SaleRepository
	ledgerRepo trade.LedgerRepository
	cfg        LedgerConfig
	logger     *zap.Logger
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(saleRepo trade.SaleRepository, ledgerRepo trade.LedgerRepository, cfg LedgerConfig, logger *zap.Logger) *LedgerService {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{
		saleRepo:   saleRepo,
		ledgerRepo: ledgerRepo,
		cfg:        cfg,
		logger:     logger,
	}
}

// ProcessReturn appends a return record and adjusts the sale in one
// transaction. An unknown bill is NOT_FOUND and nothing is written.
func (s *LedgerService) ProcessReturn(ctx context.Context, req ProcessReturnRequest) (*LedgerResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "process_return",
		telemetry.WithAttribute(telemetry.SpanAttrBillNo, req.BillNo),
		telemetry.WithAttribute(telemetry.SpanAttrProductCode, req.ProductCode),
		telemetry.WithAttribute(telemetry.SpanAttrQuantity, req.Qty),
		telemetry.WithAttribute(telemetry.SpanAttrAmount, req.RefundAmount.String()))
	defer span.End()

	rec, err := trade.NewReturnRecord(req.BillNo, req.ProductCode, req.Qty, req.RefundAmount, req.Remarks, s.cfg.Clock())
	if err != nil {
		return nil, err
	}

	sale, err := s.saleRepo.FindByBillNo(ctx, rec.BillNo)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	soldQty := 0
	if s.cfg.ValidateReturnQuantity {
		if soldQty, err = checkReturnable(sale, rec); err != nil {
			return nil, err
		}
	}

	absorbed := rec.Adjustment().Absorbed(sale.Balance)
	updated, err := s.ledgerRepo.RecordReturn(ctx, rec, soldQty)
	if err != nil {
		telemetry.RecordError(span, err)
		if shared.IsPersistence(err) {
			s.logger.Error("Failed to record return",
				zap.String("bill_no", rec.BillNo),
				zap.String("product_code", rec.ProductCode),
				zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("Return recorded",
		zap.String("bill_no", rec.BillNo),
		zap.String("product_code", rec.ProductCode),
		zap.Int("qty", rec.Qty),
		zap.String("refund", rec.RefundAmount.StringFixed(2)),
		zap.String("balance", updated.Balance.StringFixed(2)))

	ret := toReturnResponse(rec)
	return &LedgerResult{
		Sale:     ToSaleResponse(updated),
		Return:   &ret,
		Absorbed: absorbed,
	}, nil
}

// checkReturnable rejects products that are not on the bill and returns
// the quantity sold. Earlier returns are counted by the repository inside
// the ledger transaction.
func checkReturnable(sale *trade.Sale, rec *trade.ReturnRecord) (int, error) {
	sold := sale.SoldQuantity(rec.ProductCode)
	if sold == 0 {
		return 0, shared.NewDomainError("PRODUCT_NOT_ON_BILL", "Product "+rec.ProductCode+" was not sold on bill "+sale.BillNo)
	}
	if rec.Qty > sold {
		return 0, trade.NewReturnExceedsSoldError(sale.BillNo, rec.ProductCode)
	}
	return sold, nil
}

// RecordBalancePayment appends a balance payment and adjusts the sale in
// one transaction. The customer must match the bill; when payments are
// bounded, the amount may not exceed the outstanding balance.
func (s *LedgerService) RecordBalancePayment(ctx context.Context, req BalancePaymentRequest) (*LedgerResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "record_balance_payment",
		telemetry.WithAttribute(telemetry.SpanAttrBillNo, req.BillNo),
		telemetry.WithAttribute(telemetry.SpanAttrCustomer, req.Customer),
		telemetry.WithAttribute(telemetry.SpanAttrAmount, req.Amount.String()))
	defer span.End()

	payment, err := trade.NewBalancePayment(req.BillNo, req.Customer, req.Amount, req.Remarks, s.cfg.Clock())
	if err != nil {
		return nil, err
	}

	sale, err := s.saleRepo.FindByBillNo(ctx, payment.BillNo)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !sameCustomer(sale.Customer, payment.Customer) {
		return nil, shared.NewDomainError("CUSTOMER_MISMATCH", "Bill "+sale.BillNo+" belongs to a different customer")
	}
	if s.cfg.BoundPaymentsToBalance && payment.AmountPaid.GreaterThan(sale.Balance) {
		return nil, shared.NewDomainError("PAYMENT_EXCEEDS_BALANCE",
			"Payment exceeds the outstanding balance of "+sale.Balance.StringFixed(2))
	}

	absorbed := payment.Adjustment().Absorbed(sale.Balance)
	updated, err := s.ledgerRepo.RecordBalancePayment(ctx, payment)
	if err != nil {
		telemetry.RecordError(span, err)
		s.logger.Error("Failed to record balance payment",
			zap.String("bill_no", payment.BillNo),
			zap.Error(err))
		return nil, err
	}

	s.logger.Info("Balance payment recorded",
		zap.String("bill_no", payment.BillNo),
		zap.String("customer", payment.Customer),
		zap.String("amount", payment.AmountPaid.StringFixed(2)),
		zap.String("balance", updated.Balance.StringFixed(2)))

	resp := toBalancePaymentResponse(payment)
	return &LedgerResult{
		Sale:     ToSaleResponse(updated),
		Payment:  &resp,
		Absorbed: absorbed,
	}, nil
}

func sameCustomer(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
