package view

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/trackr-hr/trackr/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// NewEngine parses the embedded templates using English number formatting.
func NewEngine() (*Engine, error) {
	return NewEngineWithLocale(language.English)
}

// NewEngineWithLocale parses the embedded templates, formatting numbers for tag.
func NewEngineWithLocale(tag language.Tag) (*Engine, error) {
	printer := message.NewPrinter(tag)
	sep := decimalSeparator(printer)
	funcMap := template.FuncMap{
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006")
		},
		"formatMoney": func(d decimal.Decimal) string {
			return formatMoney(printer, sep, d)
		},
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates, "templates/*/*.html")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Execute renders the named template into w.
func (e *Engine) Execute(w io.Writer, name string, data any) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	return e.templates.ExecuteTemplate(w, name, data)
}

// formatMoney prints d with two decimals and locale grouping without
// leaving exact decimal arithmetic.
func formatMoney(printer *message.Printer, sep string, d decimal.Decimal) string {
	amount := d.Round(2)
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Abs()
	}
	whole := amount.Truncate(0)
	cents := amount.Sub(whole).Shift(2).IntPart()
	return fmt.Sprintf("%s%s%s%02d", sign, printer.Sprintf("%d", whole.IntPart()), sep, cents)
}

func decimalSeparator(printer *message.Printer) string {
	out := []rune(printer.Sprintf("%.1f", 0.5))
	if len(out) != 3 {
		return "."
	}
	return string(out[1])
}
