package expenses

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		panic(err)
	}
	return t
}

func sampleExpense(cost string, from, to string) Expense {
	return Expense{
		Type:     ExpenseTypeTrain,
		Cost:     decimal.RequireFromString(cost),
		FromDate: day(from),
		ToDate:   day(to),
	}
}

func draftWithExpense() Report {
	return Report{ID: 1, EmployeeID: 7, Status: StatusDraft, Expenses: []Expense{sampleExpense("10.00", "2024-03-01", "2024-03-02")}}
}

func TestCanTransition(t *testing.T) {
	require.True(t, CanTransition(StatusDraft, StatusSubmitted))
	require.True(t, CanTransition(StatusSubmitted, StatusApproved))
	require.True(t, CanTransition(StatusSubmitted, StatusRejected))
	require.False(t, CanTransition(StatusDraft, StatusApproved))
	require.False(t, CanTransition(StatusApproved, StatusRejected))
	require.False(t, CanTransition(StatusRejected, StatusSubmitted))
}

func TestSubmitOnlyOnce(t *testing.T) {
	r := draftWithExpense()
	at := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	require.NoError(t, Submit(&r, at))
	require.Equal(t, StatusSubmitted, r.Status)
	require.NotNil(t, r.SubmittedAt)
	require.True(t, r.SubmittedAt.Equal(at))

	err := Submit(&r, at.Add(time.Hour))
	require.ErrorIs(t, err, ErrInvalidState)
	require.Equal(t, StatusSubmitted, r.Status)
	require.True(t, r.SubmittedAt.Equal(at))
}

func TestSubmitEmptyDraft(t *testing.T) {
	r := Report{ID: 1, EmployeeID: 7, Status: StatusDraft}
	at := time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)
	require.NoError(t, Submit(&r, at))
	require.Equal(t, StatusSubmitted, r.Status)

	require.ErrorIs(t, Submit(&r, at), ErrInvalidState)
	require.Equal(t, StatusSubmitted, r.Status)
}

func TestExpenseValidateCost(t *testing.T) {
	cases := []struct {
		name string
		cost string
		err  error
	}{
		{name: "zero", cost: "0"},
		{name: "cents", cost: "12.34"},
		{name: "trailing zeros", cost: "12.3400"},
		{name: "largest", cost: "9999999999.99"},
		{name: "negative", cost: "-0.01", err: ErrNegativeCost},
		{name: "sub cent", cost: "1.005", err: ErrCostPrecision},
		{name: "too large", cost: "10000000000", err: ErrCostRange},
		{name: "way too large", cost: "99999999999", err: ErrCostRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := sampleExpense(tc.cost, "2024-03-01", "2024-03-01").Validate()
			if tc.err == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.err)
			require.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestApproveAndRejectAreExclusive(t *testing.T) {
	at := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)

	approved := draftWithExpense()
	require.NoError(t, Submit(&approved, at))
	require.NoError(t, Approve(&approved, 42, at))
	require.Equal(t, StatusApproved, approved.Status)
	require.Equal(t, int64(42), *approved.ApprovedBy)
	require.Nil(t, approved.RejectedBy)
	require.ErrorIs(t, Reject(&approved, 43, at), ErrInvalidState)
	require.ErrorIs(t, Approve(&approved, 43, at), ErrInvalidState)
	require.Equal(t, int64(42), *approved.ApprovedBy)

	rejected := draftWithExpense()
	require.NoError(t, Submit(&rejected, at))
	require.NoError(t, Reject(&rejected, 42, at))
	require.Equal(t, StatusRejected, rejected.Status)
	require.Nil(t, rejected.ApprovedBy)
	require.ErrorIs(t, Approve(&rejected, 42, at), ErrInvalidState)
}

func TestDecisionRequiresSubmission(t *testing.T) {
	r := draftWithExpense()
	require.ErrorIs(t, Approve(&r, 1, time.Now()), ErrInvalidState)
	require.ErrorIs(t, Reject(&r, 1, time.Now()), ErrInvalidState)
	require.Equal(t, StatusDraft, r.Status)
}

func TestAddExpense(t *testing.T) {
	r := Report{ID: 3, Status: StatusDraft}
	require.NoError(t, AddExpense(&r, sampleExpense("5", "2024-01-01", "2024-01-01")))
	require.Len(t, r.Expenses, 1)
	require.Equal(t, int64(3), r.Expenses[0].ReportID)

	require.ErrorIs(t, AddExpense(&r, sampleExpense("-1", "2024-01-01", "2024-01-02")), ErrNegativeCost)
	require.ErrorIs(t, AddExpense(&r, sampleExpense("1", "2024-01-03", "2024-01-02")), ErrDateRange)

	require.NoError(t, Submit(&r, time.Now()))
	require.ErrorIs(t, AddExpense(&r, sampleExpense("1", "2024-01-01", "2024-01-02")), ErrInvalidState)
	require.Len(t, r.Expenses, 1)
}

func TestTerminal(t *testing.T) {
	require.False(t, StatusDraft.Terminal())
	require.False(t, StatusSubmitted.Terminal())
	require.True(t, StatusApproved.Terminal())
	require.True(t, StatusRejected.Terminal())
}
