package printing

import (
	"bytes"
	"context"
	"html/template"
	"maps"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultLocale groups digits the way the shop prints amounts (12,34,567.00)
var DefaultLocale = language.MustParse("en-IN")

const (
	defaultCurrencySign = "₹"
	invoiceDateLayout   = "02/01/2006"
)

// TemplateEngine renders html/template layouts with locale-aware money and
// date helpers
type TemplateEngine struct {
	locale       language.Tag
	currencySign string
	printer      *message.Printer
	caser        cases.Caser
	funcMap      template.FuncMap
}

// TemplateEngineOption configures the template engine
type TemplateEngineOption func(*TemplateEngine)

// WithLocale sets the locale used for digit grouping and title casing
func WithLocale(tag language.Tag) TemplateEngineOption {
	return func(e *TemplateEngine) {
		e.locale = tag
	}
}

// WithCurrencySign sets the symbol printed before amounts
func WithCurrencySign(sign string) TemplateEngineOption {
	return func(e *TemplateEngine) {
		e.currencySign = sign
	}
}

// NewTemplateEngine creates a new template engine
func NewTemplateEngine(opts ...TemplateEngineOption) *TemplateEngine {
	e := &TemplateEngine{
		locale:       DefaultLocale,
		currencySign: defaultCurrencySign,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.printer = message.NewPrinter(e.locale)
	e.caser = cases.Title(e.locale)

	e.funcMap = template.FuncMap{
		"formatMoney":  e.formatMoney,
		"formatAmount": e.formatAmount,
		"formatDate":   formatDate,
		"formatStamp":  formatStamp,
		"title":        e.title,
		"upper":        strings.ToUpper,
		"trim":         strings.TrimSpace,
		"inc":          func(i int) int { return i + 1 },
		"isPositive":   func(d decimal.Decimal) bool { return d.IsPositive() },
		"default": func(def, val string) string {
			if strings.TrimSpace(val) == "" {
				return def
			}
			return val
		},
	}
	return e
}

// Parse compiles a template with the engine's functions
func (e *TemplateEngine) Parse(name, content string) (*template.Template, error) {
	if strings.TrimSpace(content) == "" {
		return nil, NewRenderError(ErrCodeInvalidHTML, "template content is empty", nil)
	}
	tmpl, err := template.New(name).Funcs(e.funcMap).Parse(content)
	if err != nil {
		return nil, NewRenderError(ErrCodeInvalidHTML, "failed to parse template", err)
	}
	return tmpl, nil
}

// Execute runs a compiled template
func (e *TemplateEngine) Execute(ctx context.Context, tmpl *template.Template, data any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", NewRenderError(ErrCodeRenderFailed, "render cancelled", err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", NewRenderError(ErrCodeRenderFailed, "failed to execute template", err)
	}
	return buf.String(), nil
}

// RenderString parses and executes a template string in one step
func (e *TemplateEngine) RenderString(ctx context.Context, name, content string, data any) (string, error) {
	tmpl, err := e.Parse(name, content)
	if err != nil {
		return "", err
	}
	return e.Execute(ctx, tmpl, data)
}

// GetFuncMap returns a copy of the template function map
func (e *TemplateEngine) GetFuncMap() template.FuncMap {
	funcMap := make(template.FuncMap, len(e.funcMap))
	maps.Copy(funcMap, e.funcMap)
	return funcMap
}

// formatMoney prints an amount with the currency sign, e.g. ₹1,600.00
func (e *TemplateEngine) formatMoney(d decimal.Decimal) string {
	amount := e.formatAmount(d)
	if strings.HasPrefix(amount, "-") {
		return "-" + e.currencySign + amount[1:]
	}
	return e.currencySign + amount
}

// formatAmount prints an amount rounded to two places with locale digit
// grouping. The integer part is grouped by the message printer; the
// fraction is taken from the decimal so no float rounding creeps in.
func (e *TemplateEngine) formatAmount(d decimal.Decimal) string {
	d = d.Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	_, frac, _ := strings.Cut(d.StringFixed(2), ".")
	return sign + e.printer.Sprintf("%d", d.IntPart()) + "." + frac
}

func (e *TemplateEngine) title(s string) string {
	return e.caser.String(strings.TrimSpace(s))
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(invoiceDateLayout)
}

func formatStamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(invoiceDateLayout + " 15:04")
}
