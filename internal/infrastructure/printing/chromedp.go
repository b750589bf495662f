package printing

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

const (
	defaultChromeTimeout = 30 * time.Second
	defaultScale         = 1.0
	defaultMaxTabs       = 2
	// receiptPageHeightMM is tall enough for any till receipt; Chrome trims
	// nothing, so the roll is cut after the footer
	receiptPageHeightMM = 3000
	mmPerInch           = 25.4
)

// ChromedpConfig contains configuration for the chromedp renderer
type ChromedpConfig struct {
	DefaultTimeout time.Duration
	// ExecPath is the Chrome/Chromium binary; empty lets chromedp search PATH
	ExecPath string
	// RemoteURL is the DevTools URL of an already running browser
	RemoteURL string
	// NoSandbox is needed when Chrome runs as root in a container
	NoSandbox bool
	Scale     float64
	// MaxTabs bounds concurrent renders; checkout waits for a free tab
	MaxTabs int
	Logger  *zap.Logger
}

// ChromedpRenderer prints invoice HTML to PDF through headless Chrome. The
// browser process starts with the first Render.
type ChromedpRenderer struct {
	config   ChromedpConfig
	logger   *zap.Logger
	tabs     chan struct{}
	allocCtx context.Context
	release  context.CancelFunc
}

// NewChromedpRenderer creates a renderer; Close stops the browser
func NewChromedpRenderer(config ChromedpConfig) *ChromedpRenderer {
	if config.DefaultTimeout <= 0 {
		config.DefaultTimeout = defaultChromeTimeout
	}
	if config.Scale <= 0 {
		config.Scale = defaultScale
	}
	if config.MaxTabs <= 0 {
		config.MaxTabs = defaultMaxTabs
	}
	log := config.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := &ChromedpRenderer{
		config: config,
		logger: log.Named("chromedp"),
		tabs:   make(chan struct{}, config.MaxTabs),
	}
	if config.RemoteURL != "" {
		r.allocCtx, r.release = chromedp.NewRemoteAllocator(context.Background(), config.RemoteURL)
	} else {
		r.allocCtx, r.release = chromedp.NewExecAllocator(context.Background(), r.execOptions()...)
	}
	return r
}

func (r *ChromedpRenderer) execOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	for _, flag := range []string{
		"disable-gpu", "disable-extensions", "disable-dev-shm-usage",
		"disable-background-networking", "disable-sync",
	} {
		opts = append(opts, chromedp.Flag(flag, true))
	}
	opts = append(opts, chromedp.Flag("font-render-hinting", "none"))
	if r.config.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if r.config.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(r.config.ExecPath))
	}
	return opts
}

func validateRequest(req *PDFRequest) error {
	switch {
	case req == nil:
		return NewRenderError(ErrCodeInvalidHTML, "render request is nil", nil)
	case strings.TrimSpace(req.HTML) == "":
		return NewRenderError(ErrCodeInvalidHTML, "HTML content is empty", nil)
	case !req.PaperSize.IsValid():
		return NewRenderError(ErrCodeInvalidPaperSize, "invalid paper size: "+string(req.PaperSize), nil)
	}
	return nil
}

// Render prints req.HTML to PDF
func (r *ChromedpRenderer) Render(ctx context.Context, req *PDFRequest) (*PDFResult, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = r.config.DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case r.tabs <- struct{}{}:
		defer func() { <-r.tabs }()
	case <-ctx.Done():
		return nil, r.classify(ctx, timeout, ctx.Err())
	}

	started := time.Now()
	tabCtx, closeTab := chromedp.NewContext(r.allocCtx, chromedp.WithLogf(r.logger.Sugar().Debugf))
	defer closeTab()
	stop := context.AfterFunc(ctx, closeTab)
	defer stop()

	doc := wrapDocument(req)
	params := r.printParams(req)
	var data []byte
	err := chromedp.Run(tabCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, doc).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) (err error) {
			data, _, err = params.Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, r.classify(ctx, timeout, err)
	}
	if len(data) == 0 {
		return nil, NewRenderError(ErrCodeRenderFailed, "generated PDF is empty", nil)
	}

	res := &PDFResult{Data: data, Pages: countPages(data), Elapsed: time.Since(started)}
	r.logger.Debug("PDF rendered",
		zap.String("title", req.Title),
		zap.Int("bytes", len(data)),
		zap.Int("pages", res.Pages),
		zap.Duration("elapsed", res.Elapsed))
	return res, nil
}

// classify maps a chromedp failure onto a RenderError, treating an ended
// caller context as a timeout
func (r *ChromedpRenderer) classify(ctx context.Context, timeout time.Duration, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return NewRenderError(ErrCodeRenderTimeout, fmt.Sprintf("PDF rendering timed out after %v", timeout), err)
	case errors.Is(ctx.Err(), context.Canceled):
		return NewRenderError(ErrCodeRenderTimeout, "PDF rendering was cancelled", err)
	}
	r.logger.Error("Chrome failed to print", zap.Error(err))
	return NewRenderError(ErrCodeRenderFailed, "chromedp execution failed", err)
}

// printParams converts the paper size and margins (mm) into Chrome's print
// parameters (inches)
func (r *ChromedpRenderer) printParams(req *PDFRequest) *page.PrintToPDFParams {
	width, height := req.PaperSize.Dimensions()
	if req.PaperSize.IsReceipt() {
		height = receiptPageHeightMM
	}
	m := req.Margins
	return page.PrintToPDF().
		WithPrintBackground(true).
		WithPaperWidth(inches(width)).
		WithPaperHeight(inches(height)).
		WithMarginTop(inches(m.Top)).
		WithMarginRight(inches(m.Right)).
		WithMarginBottom(inches(m.Bottom)).
		WithMarginLeft(inches(m.Left)).
		WithScale(r.config.Scale)
}

func inches(mm int) float64 {
	return float64(mm) / mmPerInch
}

// wrapDocument turns a fragment into a full UTF-8 document; complete
// documents pass through untouched
func wrapDocument(req *PDFRequest) string {
	lower := strings.ToLower(req.HTML)
	if strings.Contains(lower, "<!doctype") || strings.Contains(lower, "<html") {
		return req.HTML
	}
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><head><meta charset="UTF-8">`)
	if req.Title != "" {
		b.WriteString("<title>" + html.EscapeString(req.Title) + "</title>")
	}
	b.WriteString("</head><body>" + req.HTML + "</body></html>")
	return b.String()
}

// Close stops the browser
func (r *ChromedpRenderer) Close() error {
	if r.release != nil {
		r.release()
	}
	return nil
}

// countPages counts /Type /Page objects. A heuristic for logging only.
func countPages(pdf []byte) int {
	n := 0
	for _, marker := range [][]byte{[]byte("/Type /Page"), []byte("/Type/Page")} {
		n += bytes.Count(pdf, marker) - bytes.Count(pdf, append(marker, 's'))
	}
	return max(n, 1)
}

var _ PDFRenderer = (*ChromedpRenderer)(nil)
