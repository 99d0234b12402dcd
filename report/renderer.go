package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
)

// TemplateExecutor renders a named HTML template.
type TemplateExecutor interface {
	Execute(w io.Writer, name string, data any) error
}

// Converter turns HTML into PDF bytes.
type Converter interface {
	RenderHTML(ctx context.Context, html []byte) ([]byte, error)
}

// Renderer renders named templates to PDF. Failures are returned as is and
// never retried.
type Renderer struct {
	templates TemplateExecutor
	converter Converter
}

// NewRenderer wires a template engine to a PDF converter.
func NewRenderer(templates TemplateExecutor, converter Converter) *Renderer {
	return &Renderer{templates: templates, converter: converter}
}

// Render executes the template with vars and converts the result.
func (r *Renderer) Render(ctx context.Context, template string, vars map[string]any) ([]byte, error) {
	var html bytes.Buffer
	if err := r.templates.Execute(&html, template, vars); err != nil {
		return nil, fmt.Errorf("execute template %s: %w", template, err)
	}
	pdf, err := r.converter.RenderHTML(ctx, html.Bytes())
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", template, err)
	}
	if len(pdf) == 0 {
		return nil, fmt.Errorf("convert %s: empty document", template)
	}
	return pdf, nil
}
