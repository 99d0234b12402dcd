package expenses

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Status enumerates the travel expense report lifecycle.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSubmitted Status = "SUBMITTED"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
)

// Terminal reports whether no further transition is allowed.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// ExpenseType classifies a travel expense line.
type ExpenseType string

const (
	ExpenseTypeTaxi       ExpenseType = "TAXI"
	ExpenseTypeTrain      ExpenseType = "TRAIN"
	ExpenseTypeFlight     ExpenseType = "FLIGHT"
	ExpenseTypeHotel      ExpenseType = "HOTEL"
	ExpenseTypePrivateCar ExpenseType = "PRIVATE_CAR"
	ExpenseTypeOther      ExpenseType = "OTHER"
)

// Expense is one cost line item of a report.
type Expense struct {
	ID       int64
	ReportID int64
	Type     ExpenseType
	Comment  string
	Cost     decimal.Decimal
	FromDate time.Time
	ToDate   time.Time
}

// maxCost is the exclusive upper bound of a stored cost.
var maxCost = decimal.New(1, 10)

// Validate checks the line item invariants.
func (e Expense) Validate() error {
	if e.Cost.IsNegative() {
		return ErrNegativeCost
	}
	if !e.Cost.Equal(e.Cost.Truncate(2)) {
		return ErrCostPrecision
	}
	if e.Cost.GreaterThanOrEqual(maxCost) {
		return ErrCostRange
	}
	if e.FromDate.IsZero() || e.ToDate.IsZero() {
		return ErrValidation
	}
	if e.FromDate.After(e.ToDate) {
		return ErrDateRange
	}
	return nil
}

// Report is a travel expense report subject to approval.
type Report struct {
	ID           int64
	EmployeeID   int64
	EmployeeName string
	Status       Status
	Expenses     []Expense
	SubmittedAt  *time.Time
	ApprovedBy   *int64
	RejectedBy   *int64
	DecidedAt    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// OptionalDate is a calendar date that may be absent.
type OptionalDate struct {
	Time  time.Time
	Valid bool
}

// SomeDate wraps a present date.
func SomeDate(t time.Time) OptionalDate {
	return OptionalDate{Time: t, Valid: true}
}

// Get returns the date and whether it is present.
func (d OptionalDate) Get() (time.Time, bool) {
	return d.Time, d.Valid
}

// Totals aggregates derived values of a report.
type Totals struct {
	TotalCost decimal.Decimal
	StartDate OptionalDate
	EndDate   OptionalDate
}

var (
	// ErrInvalidState occurs when action violates status workflow.
	ErrInvalidState = errors.New("expenses: invalid state transition")
	// ErrNotFound indicates record missing.
	ErrNotFound = errors.New("expenses: report not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("expenses: invalid input")
	// ErrNegativeCost rejects expenses below zero.
	ErrNegativeCost = fmt.Errorf("%w: cost must not be negative", ErrValidation)
	// ErrDateRange rejects expenses ending before they start.
	ErrDateRange = fmt.Errorf("%w: from date must not be after to date", ErrValidation)
	// ErrCostPrecision rejects costs with more than two decimal places.
	ErrCostPrecision = fmt.Errorf("%w: cost must have at most two decimal places", ErrValidation)
	// ErrCostRange rejects costs that do not fit NUMERIC(12,2).
	ErrCostRange = fmt.Errorf("%w: cost must be below 10000000000", ErrValidation)
	// ErrForbidden indicates the actor may not act on the report.
	ErrForbidden = errors.New("expenses: forbidden")
	// ErrRender indicates the PDF renderer failed.
	ErrRender = errors.New("expenses: pdf rendering failed")
)
