package printing

import (
	"context"
	_ "embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/anchala/pos/internal/domain/printing"
	"go.uber.org/zap"
)

//go:embed templates/invoice.html
var invoiceTemplate string

// ShopInfo is the fixed header and footer printed on every invoice
type ShopInfo struct {
	Name        string
	Address     string
	Phone       string
	Footer      string
	LogoDataURI template.URL
}

// invoiceView is the value the invoice template executes against
type invoiceView struct {
	Shop        ShopInfo
	Invoice     printing.InvoiceData
	GeneratedAt time.Time
	PaperClass  string
}

// InvoiceRendererConfig configures an InvoiceRenderer
type InvoiceRendererConfig struct {
	Format    printing.OutputFormat
	PaperSize printing.PaperSize
	Shop      ShopInfo
	Timeout   time.Duration
	Logger    *zap.Logger
	// Clock supplies the generation date; defaults to time.Now
	Clock func() time.Time
}

// InvoiceRenderer renders invoices through the embedded HTML layout and,
// for PDF output, a PDFRenderer
type InvoiceRenderer struct {
	engine *TemplateEngine
	tmpl   *template.Template
	pdf    PDFRenderer
	config InvoiceRendererConfig
	logger *zap.Logger
}

// NewInvoiceRenderer compiles the invoice layout. pdf may be nil when the
// configured format is HTML.
func NewInvoiceRenderer(engine *TemplateEngine, pdf PDFRenderer, cfg InvoiceRendererConfig) (*InvoiceRenderer, error) {
	if engine == nil {
		engine = NewTemplateEngine()
	}
	if cfg.Format == "" {
		cfg.Format = printing.FormatPDF
	}
	if !cfg.PaperSize.IsValid() {
		cfg.PaperSize = printing.PaperSizeA4
	}
	if cfg.Format == printing.FormatPDF && pdf == nil {
		return nil, NewRenderError(ErrCodeRenderFailed, "PDF output needs a PDF renderer", nil)
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	tmpl, err := engine.Parse("invoice", invoiceTemplate)
	if err != nil {
		return nil, err
	}
	return &InvoiceRenderer{engine: engine, tmpl: tmpl, pdf: pdf, config: cfg, logger: logger}, nil
}

// Format returns the configured output format
func (r *InvoiceRenderer) Format() printing.OutputFormat {
	return r.config.Format
}

// RenderHTML renders the invoice layout only
func (r *InvoiceRenderer) RenderHTML(ctx context.Context, data printing.InvoiceData, generatedAt time.Time) (string, error) {
	paperClass := "a4"
	if r.config.PaperSize.IsReceipt() {
		paperClass = "receipt"
	}
	return r.engine.Execute(ctx, r.tmpl, invoiceView{
		Shop:        r.config.Shop,
		Invoice:     data,
		GeneratedAt: generatedAt,
		PaperClass:  paperClass,
	})
}

// RenderInvoice renders the invoice in the configured format. Identical
// data renders identically apart from the generation date.
func (r *InvoiceRenderer) RenderInvoice(ctx context.Context, data printing.InvoiceData) (*printing.Document, error) {
	if data.BillNo == "" {
		return nil, NewRenderError(ErrCodeInvalidHTML, "invoice has no bill number", nil)
	}
	generatedAt := r.config.Clock()

	html, err := r.RenderHTML(ctx, data, generatedAt)
	if err != nil {
		return nil, err
	}

	doc := &printing.Document{
		FileName:    printing.InvoiceFileName(data.BillNo, r.config.Format),
		ContentType: r.config.Format.ContentType(),
		Format:      r.config.Format,
		GeneratedAt: generatedAt,
	}
	if r.config.Format == printing.FormatHTML {
		doc.Content = []byte(html)
		return doc, nil
	}

	result, err := r.pdf.Render(ctx, &PDFRequest{
		HTML:      html,
		PaperSize: r.config.PaperSize,
		Margins:   printing.MarginsFor(r.config.PaperSize),
		Title:     "Invoice " + data.BillNo,
		Timeout:   r.config.Timeout,
	})
	if err != nil {
		if IsRenderTimeout(err) {
			r.logger.Warn("Invoice PDF timed out",
				zap.String("bill_no", data.BillNo),
				zap.Duration("timeout", r.config.Timeout))
		}
		return nil, err
	}
	doc.Content = result.Data
	r.logger.Debug("Invoice rendered",
		zap.String("bill_no", data.BillNo),
		zap.Int("pages", result.Pages))
	return doc, nil
}

// LoadLogoDataURI reads an image file into a data URI for the invoice
// header. An empty path yields an empty URI.
func LoadLogoDataURI(path string) (template.URL, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read logo %s: %w", path, err)
	}
	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return template.URL("data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)), nil
}

// Ensure InvoiceRenderer implements printing.InvoiceRenderer
var _ printing.InvoiceRenderer = (*InvoiceRenderer)(nil)
