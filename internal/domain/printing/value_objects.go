package printing

import (
	"fmt"

	"github.com/anchala/pos/internal/domain/shared"
)

// maxMarginMM caps any single side; beyond that nothing of a receipt
// would be left to print
const maxMarginMM = 100

// Margins are page margins in millimetres
type Margins struct {
	Top    int `json:"top"`
	Right  int `json:"right"`
	Bottom int `json:"bottom"`
	Left   int `json:"left"`
}

// UniformMargins uses the same margin on every side
func UniformMargins(mm int) Margins {
	return Margins{Top: mm, Right: mm, Bottom: mm, Left: mm}
}

// NewMargins builds validated margins
func NewMargins(top, right, bottom, left int) (Margins, error) {
	m := Margins{Top: top, Right: right, Bottom: bottom, Left: left}
	if err := m.Validate(); err != nil {
		return Margins{}, err
	}
	return m, nil
}

// Validate rejects negative or oversized sides
func (m Margins) Validate() error {
	for _, side := range [...]struct {
		name string
		mm   int
	}{{"top", m.Top}, {"right", m.Right}, {"bottom", m.Bottom}, {"left", m.Left}} {
		if side.mm < 0 || side.mm > maxMarginMM {
			return shared.NewDomainError("INVALID_MARGINS",
				fmt.Sprintf("%s margin must be between 0 and %dmm, got %d", side.name, maxMarginMM, side.mm))
		}
	}
	return nil
}

// DefaultMargins are used for sheet paper (A4, A5)
func DefaultMargins() Margins { return UniformMargins(10) }

// ReceiptMargins keep thermal receipts as wide as the roll allows
func ReceiptMargins() Margins { return UniformMargins(2) }

// MarginsFor picks the margins for a paper size
func MarginsFor(p PaperSize) Margins {
	if p.IsReceipt() {
		return ReceiptMargins()
	}
	return DefaultMargins()
}
