package printing

import (
	"context"
	"errors"
	"time"

	"github.com/anchala/pos/internal/domain/printing"
)

// PDFRequest is one invoice page set to print
type PDFRequest struct {
	HTML      string
	PaperSize printing.PaperSize
	Margins   printing.Margins // millimetres
	Title     string           // becomes <title> when HTML is a fragment
	Timeout   time.Duration    // zero uses the renderer default
}

// PDFResult is the printed document
type PDFResult struct {
	Data    []byte
	Pages   int
	Elapsed time.Duration
}

// PDFRenderer turns invoice HTML into PDF bytes. ChromedpRenderer is the
// production implementation.
type PDFRenderer interface {
	Render(ctx context.Context, req *PDFRequest) (*PDFResult, error)
	Close() error
}

// Failure codes carried by RenderError
const (
	ErrCodeRenderTimeout    = "INVOICE_RENDER_TIMEOUT"
	ErrCodeRenderFailed     = "INVOICE_RENDER_FAILED"
	ErrCodeInvalidHTML      = "INVOICE_INVALID_HTML"
	ErrCodeInvalidPaperSize = "INVOICE_INVALID_PAPER_SIZE"
	ErrCodeStorageFailed    = "INVOICE_ARCHIVE_FAILED"
)

// RenderError is returned by the template engine, the PDF renderer and the
// local archive. Code is one of the ErrCode constants.
type RenderError struct {
	Code    string
	Message string
	Cause   error
}

// NewRenderError creates a RenderError
func NewRenderError(code, message string, cause error) *RenderError {
	return &RenderError{Code: code, Message: message, Cause: cause}
}

func (e *RenderError) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

func (e *RenderError) Unwrap() error { return e.Cause }

// IsRenderTimeout reports whether err is, or wraps, a rendering timeout
func IsRenderTimeout(err error) bool {
	var re *RenderError
	return errors.As(err, &re) && re.Code == ErrCodeRenderTimeout
}
