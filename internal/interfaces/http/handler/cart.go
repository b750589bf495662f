package handler

import (
	"net/url"
	"strconv"

	"github.com/anchala/pos/internal/application/trade"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CartHandler handles the open bill of a till session
type CartHandler struct {
	BaseHandler
	carts    *trade.CartService
	checkout *trade.CheckoutService
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(carts *trade.CartService, checkout *trade.CheckoutService) *CartHandler {
	return &CartHandler{carts: carts, checkout: checkout}
}

// Open starts an empty cart session
// POST /carts
func (h *CartHandler) Open(c *gin.Context) {
	h.Created(c, h.carts.Open(c.Request.Context()))
}

// Get returns the lines and totals of a cart
// GET /carts/:session
func (h *CartHandler) Get(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	cart, err := h.carts.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, cart)
}

// AddLine adds a product line to the cart
// POST /carts/:session/lines
func (h *CartHandler) AddLine(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	var req trade.AddCartLineRequest
	if !h.BindJSON(c, &req) {
		return
	}
	cart, err := h.carts.AddLine(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, cart)
}

// RemoveLine drops one line by position
// DELETE /carts/:session/lines/:index
func (h *CartHandler) RemoveLine(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		h.BadRequest(c, "Invalid line index")
		return
	}
	cart, err := h.carts.RemoveLine(c.Request.Context(), id, index)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, cart)
}

// Clear discards the cart
// DELETE /carts/:session
func (h *CartHandler) Clear(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	if err := h.carts.Clear(c.Request.Context(), id); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}

// Confirm commits the cart as a sale and issues its invoice
// POST /carts/:session/confirm
func (h *CartHandler) Confirm(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}
	var req trade.ConfirmSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	result, err := h.checkout.ConfirmSale(c.Request.Context(), id, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	if result.Invoice != nil && result.Invoice.Error == "" {
		result.Invoice.DownloadURL = invoiceURL(result.Sale.BillNo)
	}
	h.Created(c, result)
}

// NextBillNo proposes the bill number for the next sale
// GET /bills/next
func (h *CartHandler) NextBillNo(c *gin.Context) {
	resp, err := h.checkout.NextBillNo(c.Request.Context())
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resp)
}

func (h *CartHandler) sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("session"))
	if err != nil {
		h.BadRequest(c, "Invalid cart session ID")
		return uuid.Nil, false
	}
	return id, true
}

func invoiceURL(billNo string) string {
	return "/api/v1/sales/" + url.PathEscape(billNo) + "/invoice"
}
