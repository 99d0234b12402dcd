package view

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

type line struct {
	Type     string
	Comment  string
	Cost     decimal.Decimal
	FromDate time.Time
	ToDate   time.Time
}

type report struct {
	ID           int64
	EmployeeName string
	Status       string
	Expenses     []line
}

func TestNewEngine(t *testing.T) {
	engine, err := NewEngine()
	assert.NoError(t, err, "Templates should parse without error")
	assert.NotNil(t, engine)
}

func TestExecuteReportTemplate(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	vars := map[string]any{
		"report": report{
			ID:           5,
			EmployeeName: "Ada Lovelace",
			Status:       "APPROVED",
			Expenses: []line{{
				Type:     "HOTEL",
				Comment:  "<b>two nights</b>",
				Cost:     decimal.RequireFromString("1234.5"),
				FromDate: from,
				ToDate:   from.AddDate(0, 0, 2),
			}},
		},
		"today":     time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		"totalCost": decimal.RequireFromString("1234.5"),
		"startDate": from,
		"endDate":   from.AddDate(0, 0, 2),
	}
	var buf bytes.Buffer
	require.NoError(t, engine.Execute(&buf, "travel-expenses/report", vars))
	out := buf.String()
	assert.Contains(t, out, "Travel expense report #5")
	assert.Contains(t, out, "Ada Lovelace")
	assert.Contains(t, out, "1,234.50")
	assert.Contains(t, out, "01 Mar 2024 to 03 Mar 2024")
	assert.Contains(t, out, "&lt;b&gt;two nights&lt;/b&gt;")
}

func TestExecuteWithoutDates(t *testing.T) {
	engine, err := NewEngine()
	require.NoError(t, err)
	var buf bytes.Buffer
	err = engine.Execute(&buf, "travel-expenses/report", map[string]any{
		"report":    report{ID: 1},
		"today":     time.Now(),
		"totalCost": decimal.Zero,
	})
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "Travel period")
	assert.Contains(t, buf.String(), "No expenses recorded.")
	assert.Contains(t, buf.String(), "0.00")
}

func TestFormatMoney(t *testing.T) {
	english := message.NewPrinter(language.English)
	german := message.NewPrinter(language.German)
	cases := []struct {
		printer *message.Printer
		amount  string
		want    string
	}{
		{english, "0", "0.00"},
		{english, "0.05", "0.05"},
		{english, "1234.5", "1,234.50"},
		{english, "9999999999.99", "9,999,999,999.99"},
		{english, "1.005", "1.01"},
		{english, "-12.3", "-12.30"},
		{german, "1234.5", "1.234,50"},
	}
	for _, tc := range cases {
		got := formatMoney(tc.printer, decimalSeparator(tc.printer), decimal.RequireFromString(tc.amount))
		assert.Equal(t, tc.want, got, tc.amount)
	}
}
