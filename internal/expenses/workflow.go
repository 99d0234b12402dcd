package expenses

import (
	"fmt"
	"time"
)

// transitions lists the statuses reachable from each status.
var transitions = map[Status][]Status{
	StatusDraft:     {StatusSubmitted},
	StatusSubmitted: {StatusApproved, StatusRejected},
}

// CanTransition reports whether the workflow allows moving from one status to another.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func transition(r *Report, to Status) error {
	if r == nil {
		return ErrNotFound
	}
	if !CanTransition(r.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidState, r.Status, to)
	}
	r.Status = to
	return nil
}

// AddExpense appends an expense to a draft report.
func AddExpense(r *Report, e Expense) error {
	if r == nil {
		return ErrNotFound
	}
	if r.Status != StatusDraft {
		return fmt.Errorf("%w: expenses are frozen once %s", ErrInvalidState, r.Status)
	}
	if err := e.Validate(); err != nil {
		return err
	}
	e.ReportID = r.ID
	r.Expenses = append(r.Expenses, e)
	return nil
}

// Submit moves a draft report to SUBMITTED. Submission is done by the owner
// so no actor is recorded.
func Submit(r *Report, at time.Time) error {
	if err := transition(r, StatusSubmitted); err != nil {
		return err
	}
	r.SubmittedAt = &at
	r.UpdatedAt = at
	return nil
}

// Approve moves a submitted report to APPROVED on behalf of actorID.
func Approve(r *Report, actorID int64, at time.Time) error {
	if err := transition(r, StatusApproved); err != nil {
		return err
	}
	r.ApprovedBy = &actorID
	r.DecidedAt = &at
	r.UpdatedAt = at
	return nil
}

// Reject moves a submitted report to REJECTED on behalf of actorID.
func Reject(r *Report, actorID int64, at time.Time) error {
	if err := transition(r, StatusRejected); err != nil {
		return err
	}
	r.RejectedBy = &actorID
	r.DecidedAt = &at
	r.UpdatedAt = at
	return nil
}
