package trade

import (
	"strings"

	"github.com/anchala/pos/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CartLine is one staged item of an in-progress bill.
// Cost is copied from the catalog when the line is added; Price is the
// operator's selling price and may differ from the catalog price.
type CartLine struct {
	ProductCode string
	ProductName string
	Qty         int
	Cost        decimal.Decimal
	Price       decimal.Decimal
	TotalPrice  decimal.Decimal // Price * Qty
	Margin      decimal.Decimal // (Price - Cost) * Qty
}

// NewCartLine creates a cart line and derives its totals
func NewCartLine(code, name string, qty int, cost, price decimal.Decimal) (CartLine, error) {
	if strings.TrimSpace(code) == "" {
		return CartLine{}, shared.NewDomainError("INVALID_PRODUCT_CODE", "Product code cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return CartLine{}, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if qty < 1 {
		return CartLine{}, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be at least 1")
	}
	if price.IsNegative() {
		return CartLine{}, shared.NewDomainError("INVALID_PRICE", "Selling price cannot be negative")
	}
	if cost.IsNegative() {
		return CartLine{}, shared.NewDomainError("INVALID_COST", "Cost cannot be negative")
	}

	q := decimal.NewFromInt(int64(qty))
	return CartLine{
		ProductCode: strings.TrimSpace(code),
		ProductName: strings.TrimSpace(name),
		Qty:         qty,
		Cost:        cost,
		Price:       price,
		TotalPrice:  shared.RoundMoney(price.Mul(q)),
		Margin:      shared.RoundMoney(price.Sub(cost).Mul(q)),
	}, nil
}

// Cart accumulates the lines of one in-progress transaction.
// It is owned by a single operator session and is not safe for concurrent use.
type Cart struct {
	lines []CartLine
}

// NewCart creates an empty cart
func NewCart() *Cart {
	return &Cart{lines: make([]CartLine, 0)}
}

// AddLine appends a line. Scanning the same code twice yields two lines;
// lines are never merged.
func (c *Cart) AddLine(code, name string, qty int, cost, price decimal.Decimal) (CartLine, error) {
	line, err := NewCartLine(code, name, qty, cost, price)
	if err != nil {
		return CartLine{}, err
	}
	c.lines = append(c.lines, line)
	return line, nil
}

// RemoveLine drops the line at index (0-based)
func (c *Cart) RemoveLine(index int) error {
	if index < 0 || index >= len(c.lines) {
		return shared.NewDomainError("INVALID_LINE_INDEX", "Cart line does not exist")
	}
	c.lines = append(c.lines[:index], c.lines[index+1:]...)
	return nil
}

// Lines returns a copy of the staged lines
func (c *Cart) Lines() []CartLine {
	out := make([]CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}

// ItemCount returns the number of lines
func (c *Cart) ItemCount() int {
	return len(c.lines)
}

// IsEmpty reports whether the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Total returns the sum of all line totals
func (c *Cart) Total() decimal.Decimal {
	return sumTotals(c.lines)
}

// Margin returns the sum of all line margins
func (c *Cart) Margin() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Margin)
	}
	return shared.RoundMoney(total)
}

// Clear empties the cart. Only call after the sale has been committed.
func (c *Cart) Clear() {
	c.lines = make([]CartLine, 0)
}

func sumTotals(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.TotalPrice)
	}
	return shared.RoundMoney(total)
}
