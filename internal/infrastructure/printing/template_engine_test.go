package printing

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func TestTemplateEngine_FormatAmount(t *testing.T) {
	engine := NewTemplateEngine(WithLocale(language.English), WithCurrencySign("Rs."))

	tests := []struct {
		in   string
		want string
	}{
		{"0", "0.00"},
		{"600", "600.00"},
		{"1600", "1,600.00"},
		{"1234567.891", "1,234,567.89"},
		{"0.005", "0.01"},
		{"-250.5", "-250.50"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, engine.formatAmount(decimal.RequireFromString(tt.in)))
		})
	}

	assert.Equal(t, "Rs.1,600.00", engine.formatMoney(decimal.RequireFromString("1600")))
	assert.Equal(t, "-Rs.10.00", engine.formatMoney(decimal.RequireFromString("-10")))
}

func TestTemplateEngine_DefaultLocale(t *testing.T) {
	engine := NewTemplateEngine()
	got := engine.formatMoney(decimal.RequireFromString("600"))
	assert.Equal(t, "₹600.00", got)
}

func TestTemplateEngine_RenderString(t *testing.T) {
	engine := NewTemplateEngine(WithLocale(language.English))
	ctx := context.Background()

	out, err := engine.RenderString(ctx, "t", `{{title .Name}} owes {{formatMoney .Due}} since {{formatDate .When}}`, map[string]any{
		"Name": "  meena devi ",
		"Due":  decimal.RequireFromString("600"),
		"When": time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, "Meena Devi owes ₹600.00 since 14/03/2026", out)
}

func TestTemplateEngine_Errors(t *testing.T) {
	engine := NewTemplateEngine()
	ctx := context.Background()

	_, err := engine.RenderString(ctx, "empty", "   ", nil)
	var re *RenderError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, ErrCodeInvalidHTML, re.Code)

	_, err = engine.RenderString(ctx, "bad", "{{.Broken", nil)
	require.ErrorAs(t, err, &re)
	assert.Equal(t, ErrCodeInvalidHTML, re.Code)

	_, err = engine.RenderString(ctx, "exec", "{{formatMoney .Missing}}", map[string]any{})
	require.ErrorAs(t, err, &re)
	assert.Equal(t, ErrCodeRenderFailed, re.Code)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = engine.RenderString(cancelled, "ok", "hello", nil)
	require.ErrorAs(t, err, &re)
	assert.Equal(t, ErrCodeRenderFailed, re.Code)
}

func TestTemplateEngine_GetFuncMapIsCopy(t *testing.T) {
	engine := NewTemplateEngine()
	fm := engine.GetFuncMap()
	delete(fm, "formatMoney")
	assert.Contains(t, engine.GetFuncMap(), "formatMoney")
}
