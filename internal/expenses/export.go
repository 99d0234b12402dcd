package expenses

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"
)

// ReportTemplate names the template used for travel expense report PDFs.
const ReportTemplate = "travel-expenses/report"

// Renderer converts a named template and its variables into a PDF document.
type Renderer interface {
	Render(ctx context.Context, template string, vars map[string]any) ([]byte, error)
}

// RenderContext carries everything the report template needs.
type RenderContext struct {
	Report Report
	Today  time.Time
	Totals Totals
}

// Vars flattens the context into template variables. Start and end dates
// are only set when the report has expenses.
func (c RenderContext) Vars() map[string]any {
	vars := map[string]any{
		"report":    c.Report,
		"today":     c.Today,
		"totalCost": c.Totals.TotalCost,
	}
	if start, ok := c.Totals.StartDate.Get(); ok {
		vars["startDate"] = start
	}
	if end, ok := c.Totals.EndDate.Get(); ok {
		vars["endDate"] = end
	}
	return vars
}

// PDF is a rendered report ready for transport.
type PDF struct {
	Filename string
	Raw      []byte
	Encoded  []byte
}

// Exporter prepares render contexts and hands them to the renderer.
type Exporter struct {
	renderer Renderer
	clock    func() time.Time
}

// NewExporter constructs an Exporter.
func NewExporter(renderer Renderer) *Exporter {
	return &Exporter{renderer: renderer, clock: time.Now}
}

// PrepareContext computes the derived values for a report.
func (e *Exporter) PrepareContext(r Report) RenderContext {
	return RenderContext{
		Report: r,
		Today:  e.clock(),
		Totals: ComputeTotals(r.Expenses),
	}
}

// Export renders the report and base64 encodes the document. Renderer
// failures are returned as ErrRender and never retried.
func (e *Exporter) Export(ctx context.Context, r Report) (PDF, error) {
	if e == nil || e.renderer == nil {
		return PDF{}, fmt.Errorf("%w: renderer not configured", ErrRender)
	}
	rc := e.PrepareContext(r)
	raw, err := e.renderer.Render(ctx, ReportTemplate, rc.Vars())
	if err != nil {
		return PDF{}, fmt.Errorf("%w: %v", ErrRender, err)
	}
	return PDF{
		Filename: fmt.Sprintf("travel-expense-report-%d.pdf", r.ID),
		Raw:      raw,
		Encoded:  EncodePDF(raw),
	}, nil
}

// EncodePDF applies the transport encoding to raw PDF bytes.
func EncodePDF(raw []byte) []byte {
	out := make([]byte, base64.StdEncoding.EncodedLen(len(raw)))
	base64.StdEncoding.Encode(out, raw)
	return out
}

// DecodePDF reverses EncodePDF.
func DecodePDF(encoded []byte) ([]byte, error) {
	out := make([]byte, base64.StdEncoding.DecodedLen(len(encoded)))
	n, err := base64.StdEncoding.Decode(out, encoded)
	if err != nil {
		return nil, err
	}
	return out[:n], nil
}
