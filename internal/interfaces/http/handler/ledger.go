package handler

import (
	"github.com/anchala/pos/internal/application/trade"
	"github.com/gin-gonic/gin"
)

// LedgerHandler records returns and balance payments against bills
type LedgerHandler struct {
	BaseHandler
	ledger *trade.LedgerService
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(ledger *trade.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

// ProcessReturn records returned goods and adjusts the bill
// POST /returns
func (h *LedgerHandler) ProcessReturn(c *gin.Context) {
	var req trade.ProcessReturnRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.ledger.ProcessReturn(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, result)
}

// RecordBalancePayment records a later payment against a bill
// POST /balance-payments
func (h *LedgerHandler) RecordBalancePayment(c *gin.Context) {
	var req trade.BalancePaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.ledger.RecordBalancePayment(c.Request.Context(), req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, result)
}
