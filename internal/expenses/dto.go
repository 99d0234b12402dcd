package expenses

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/trackr-hr/trackr/internal/shared"
)

const dateLayout = "2006-01-02"

type expenseRequest struct {
	Type     string `json:"type" validate:"required,oneof=TAXI TRAIN FLIGHT HOTEL PRIVATE_CAR OTHER"`
	Comment  string `json:"comment" validate:"max=500"`
	Cost     string `json:"cost" validate:"required,numeric"`
	FromDate string `json:"from_date" validate:"required,datetime=2006-01-02"`
	ToDate   string `json:"to_date" validate:"required,datetime=2006-01-02"`
}

func (req expenseRequest) toInput() (ExpenseInput, error) {
	cost, err := decimal.NewFromString(req.Cost)
	if err != nil {
		return ExpenseInput{}, fmt.Errorf("%w: cost: %v", ErrValidation, err)
	}
	from, err := time.Parse(dateLayout, req.FromDate)
	if err != nil {
		return ExpenseInput{}, fmt.Errorf("%w: from_date: %v", ErrValidation, err)
	}
	to, err := time.Parse(dateLayout, req.ToDate)
	if err != nil {
		return ExpenseInput{}, fmt.Errorf("%w: to_date: %v", ErrValidation, err)
	}
	return ExpenseInput{
		Type:     ExpenseType(req.Type),
		Comment:  req.Comment,
		Cost:     cost,
		FromDate: from,
		ToDate:   to,
	}, nil
}

type rejectRequest struct {
	Note string `json:"note" validate:"max=500"`
}

type expenseResponse struct {
	ID       int64  `json:"id"`
	Type     string `json:"type"`
	Comment  string `json:"comment,omitempty"`
	Cost     string `json:"cost"`
	FromDate string `json:"from_date"`
	ToDate   string `json:"to_date"`
}

type reportResponse struct {
	ID           int64             `json:"id"`
	EmployeeID   int64             `json:"employee_id"`
	EmployeeName string            `json:"employee_name,omitempty"`
	Status       Status            `json:"status"`
	Expenses     []expenseResponse `json:"expenses"`
	TotalCost    string            `json:"total_cost"`
	StartDate    *string           `json:"start_date,omitempty"`
	EndDate      *string           `json:"end_date,omitempty"`
	SubmittedAt  *time.Time        `json:"submitted_at,omitempty"`
	ApprovedBy   *int64            `json:"approved_by,omitempty"`
	RejectedBy   *int64            `json:"rejected_by,omitempty"`
	DecidedAt    *time.Time        `json:"decided_at,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

type historyResponse struct {
	ReportID int64                `json:"report_id"`
	Entries  []shared.ApprovalLog `json:"entries"`
}

func toExpenseResponse(e Expense) expenseResponse {
	return expenseResponse{
		ID:       e.ID,
		Type:     string(e.Type),
		Comment:  e.Comment,
		Cost:     e.Cost.StringFixed(2),
		FromDate: e.FromDate.Format(dateLayout),
		ToDate:   e.ToDate.Format(dateLayout),
	}
}

func toReportResponse(r Report, totals Totals) reportResponse {
	resp := reportResponse{
		ID:           r.ID,
		EmployeeID:   r.EmployeeID,
		EmployeeName: r.EmployeeName,
		Status:       r.Status,
		Expenses:     make([]expenseResponse, 0, len(r.Expenses)),
		TotalCost:    totals.TotalCost.StringFixed(2),
		SubmittedAt:  r.SubmittedAt,
		ApprovedBy:   r.ApprovedBy,
		RejectedBy:   r.RejectedBy,
		DecidedAt:    r.DecidedAt,
		CreatedAt:    r.CreatedAt,
	}
	for _, e := range r.Expenses {
		resp.Expenses = append(resp.Expenses, toExpenseResponse(e))
	}
	if start, ok := totals.StartDate.Get(); ok {
		s := start.Format(dateLayout)
		resp.StartDate = &s
	}
	if end, ok := totals.EndDate.Get(); ok {
		s := end.Format(dateLayout)
		resp.EndDate = &s
	}
	return resp
}
