package expenses

import "github.com/shopspring/decimal"

// ComputeTotals sums the expense costs and spans their date ranges. Dates are
// absent for an empty slice.
func ComputeTotals(expenses []Expense) Totals {
	totals := Totals{TotalCost: decimal.Zero}
	for _, e := range expenses {
		totals.TotalCost = totals.TotalCost.Add(e.Cost)
		if !totals.StartDate.Valid || e.FromDate.Before(totals.StartDate.Time) {
			totals.StartDate = SomeDate(e.FromDate)
		}
		if !totals.EndDate.Valid || e.ToDate.After(totals.EndDate.Time) {
			totals.EndDate = SomeDate(e.ToDate)
		}
	}
	return totals
}
