package printing

import "strings"

// PaperSize represents the paper size for printing
type PaperSize string

const (
	PaperSizeA4          PaperSize = "A4"           // 210mm x 297mm
	PaperSizeA5          PaperSize = "A5"           // 148mm x 210mm
	PaperSizeReceipt80MM PaperSize = "RECEIPT_80MM" // 80mm thermal receipt
)

// IsValid checks if the PaperSize is a valid value
func (p PaperSize) IsValid() bool {
	switch p {
	case PaperSizeA4, PaperSizeA5, PaperSizeReceipt80MM:
		return true
	}
	return false
}

// String returns the string representation of PaperSize
func (p PaperSize) String() string {
	return string(p)
}

// Dimensions returns the paper dimensions in millimeters (width, height).
// Receipt paper has a variable height, reported as 0.
func (p PaperSize) Dimensions() (width, height int) {
	switch p {
	case PaperSizeA4:
		return 210, 297
	case PaperSizeA5:
		return 148, 210
	case PaperSizeReceipt80MM:
		return 80, 0
	default:
		return 210, 297
	}
}

// IsReceipt returns true if this is a receipt paper size
func (p PaperSize) IsReceipt() bool {
	return p == PaperSizeReceipt80MM
}

// OutputFormat is the file format of a rendered invoice
type OutputFormat string

const (
	FormatPDF  OutputFormat = "pdf"
	FormatHTML OutputFormat = "html"
)

// ParseOutputFormat parses a configured format, defaulting to PDF
func ParseOutputFormat(s string) OutputFormat {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case FormatHTML:
		return FormatHTML
	default:
		return FormatPDF
	}
}

// Extension returns the file extension without a dot
func (f OutputFormat) Extension() string {
	return string(f)
}

// ContentType returns the MIME type of the format
func (f OutputFormat) ContentType() string {
	if f == FormatHTML {
		return "text/html; charset=utf-8"
	}
	return "application/pdf"
}
