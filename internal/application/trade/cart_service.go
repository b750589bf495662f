package trade

import (
	"context"

	"github.com/anchala/pos/internal/domain/catalog"
	"github.com/anchala/pos/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CatalogLookup resolves product codes for the cart
type CatalogLookup interface {
	FindByCode(ctx context.Context, raw string) (*catalog.CatalogEntry, error)
}

// CartService builds carts from scanned product codes
type CartService struct {
	sessions *CartSessions
	lookup   CatalogLookup
	logger   *zap.Logger
}

// NewCartService creates a new CartService
func NewCartService(sessions *CartSessions, lookup CatalogLookup, logger *zap.Logger) *CartService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CartService{sessions: sessions, lookup: lookup, logger: logger}
}

// Open starts a new cart
func (s *CartService) Open(ctx context.Context) *CartResponse {
	id := s.sessions.Open()
	s.logger.Debug("Cart opened", zap.String("session_id", id.String()))
	// a fresh cart always exists
	resp, _ := s.sessions.View(id)
	return resp
}

// Get returns an open cart
func (s *CartService) Get(ctx context.Context, sessionID uuid.UUID) (*CartResponse, error) {
	return s.sessions.View(sessionID)
}

// AddLine looks the code up in the catalog and appends a line. The cost is
// copied from the catalog; the price is the operator's override or the
// catalog price.
func (s *CartService) AddLine(ctx context.Context, sessionID uuid.UUID, req AddCartLineRequest) (*CartResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cart", "add_line",
		telemetry.WithAttribute(telemetry.SpanAttrSessionID, sessionID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrProductCode, req.ProductCode),
		telemetry.WithAttribute(telemetry.SpanAttrQuantity, req.Qty))
	defer span.End()

	entry, err := s.lookup.FindByCode(ctx, req.ProductCode)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	price := entry.Price
	if req.Price != nil {
		price = *req.Price
	}

	resp, err := s.sessions.AddLine(sessionID, entry.ProductCode, entry.ProductName, req.Qty, entry.Cost, price)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrLineCount, resp.ItemCount)
	return resp, nil
}

// RemoveLine drops a mis-scanned line
func (s *CartService) RemoveLine(ctx context.Context, sessionID uuid.UUID, index int) (*CartResponse, error) {
	return s.sessions.RemoveLine(sessionID, index)
}

// Clear abandons a cart
func (s *CartService) Clear(ctx context.Context, sessionID uuid.UUID) error {
	if err := s.sessions.Discard(sessionID); err != nil {
		return err
	}
	s.logger.Debug("Cart cleared", zap.String("session_id", sessionID.String()))
	return nil
}
