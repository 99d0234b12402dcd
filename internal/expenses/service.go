package expenses

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/trackr-hr/trackr/internal/shared"
)

// ApprovalModule tags approval log rows written by this package.
const ApprovalModule = "travel_expense_report"

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	WithReadTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	FindByID(ctx context.Context, id int64) (Report, error)
	ListByEmployee(ctx context.Context, employeeID int64) ([]Report, error)
	ListApprovals(ctx context.Context, reportID int64) ([]shared.ApprovalLog, error)
}

// TxRepository exposes operations available inside a transaction.
type TxRepository interface {
	GetReport(ctx context.Context, id int64) (Report, error)
	LockReport(ctx context.Context, id int64) (Report, error)
	CreateReport(ctx context.Context, r Report) (int64, error)
	InsertExpense(ctx context.Context, e Expense) (int64, error)
	UpdateReportStatus(ctx context.Context, r Report, from Status) error
	RecordApproval(ctx context.Context, log shared.ApprovalLog) error
}

// Service orchestrates travel expense report flows.
type Service struct {
	repo     RepositoryPort
	exporter *Exporter
	clock    func() time.Time
}

// NewService constructs the travel expense service.
func NewService(repo RepositoryPort, exporter *Exporter) *Service {
	return &Service{repo: repo, exporter: exporter, clock: func() time.Time { return time.Now().UTC() }}
}

// ExpenseInput describes a new expense line.
type ExpenseInput struct {
	Type     ExpenseType
	Comment  string
	Cost     decimal.Decimal
	FromDate time.Time
	ToDate   time.Time
}

// ReportDetail bundles a report with its computed totals.
type ReportDetail struct {
	Report Report
	Totals Totals
}

// CreateReport opens a draft report owned by employeeID.
func (s *Service) CreateReport(ctx context.Context, employeeID int64) (Report, error) {
	if employeeID <= 0 {
		return Report{}, ErrValidation
	}
	now := s.clock()
	report := Report{EmployeeID: employeeID, Status: StatusDraft, CreatedAt: now, UpdatedAt: now}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.CreateReport(ctx, report)
		if err != nil {
			return err
		}
		report.ID = id
		return nil
	})
	if err != nil {
		return Report{}, err
	}
	return report, nil
}

// AddExpense appends a line to a draft report owned by actorID.
func (s *Service) AddExpense(ctx context.Context, reportID, actorID int64, input ExpenseInput) (Expense, error) {
	expense := Expense{
		Type:     input.Type,
		Comment:  input.Comment,
		Cost:     input.Cost,
		FromDate: input.FromDate,
		ToDate:   input.ToDate,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		report, err := tx.LockReport(ctx, reportID)
		if err != nil {
			return err
		}
		if report.EmployeeID != actorID {
			return ErrForbidden
		}
		if err := AddExpense(&report, expense); err != nil {
			return err
		}
		expense.ReportID = report.ID
		id, err := tx.InsertExpense(ctx, expense)
		if err != nil {
			return err
		}
		expense.ID = id
		return nil
	})
	if err != nil {
		return Expense{}, err
	}
	return expense, nil
}

// Get loads a report with its totals. Only the owner may read it unless
// viewAll is set.
func (s *Service) Get(ctx context.Context, id, actorID int64, viewAll bool) (ReportDetail, error) {
	report, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return ReportDetail{}, err
	}
	if !viewAll && report.EmployeeID != actorID {
		return ReportDetail{}, ErrForbidden
	}
	return ReportDetail{Report: report, Totals: ComputeTotals(report.Expenses)}, nil
}

// List returns the reports owned by employeeID.
func (s *Service) List(ctx context.Context, employeeID int64) ([]Report, error) {
	return s.repo.ListByEmployee(ctx, employeeID)
}

// History returns the approval log of a report.
func (s *Service) History(ctx context.Context, id int64) ([]shared.ApprovalLog, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListApprovals(ctx, id)
}

// Submit hands a draft report in for approval. Only the owner may submit.
func (s *Service) Submit(ctx context.Context, id, actorID int64) error {
	return s.transition(ctx, id, actorID, shared.ApprovalSubmit, "", func(r *Report, at time.Time) error {
		if r.EmployeeID != actorID {
			return ErrForbidden
		}
		return Submit(r, at)
	})
}

// Approve accepts a submitted report. The caller must already be authorised.
func (s *Service) Approve(ctx context.Context, id, actorID int64) error {
	return s.transition(ctx, id, actorID, shared.ApprovalApprove, "", func(r *Report, at time.Time) error {
		return Approve(r, actorID, at)
	})
}

// Reject declines a submitted report. The caller must already be authorised.
func (s *Service) Reject(ctx context.Context, id, actorID int64, note string) error {
	return s.transition(ctx, id, actorID, shared.ApprovalReject, note, func(r *Report, at time.Time) error {
		return Reject(r, actorID, at)
	})
}

// transition locks the report row, applies fn and persists the new status
// together with an approval log entry in one transaction.
func (s *Service) transition(ctx context.Context, id, actorID int64, action shared.ApprovalAction, note string, fn func(*Report, time.Time) error) error {
	return s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		report, err := tx.LockReport(ctx, id)
		if err != nil {
			return err
		}
		from := report.Status
		at := s.clock()
		if err := fn(&report, at); err != nil {
			return err
		}
		if err := tx.UpdateReportStatus(ctx, report, from); err != nil {
			return err
		}
		return tx.RecordApproval(ctx, shared.ApprovalLog{
			Module:  ApprovalModule,
			RefID:   report.ID,
			ActorID: actorID,
			Action:  action,
			Note:    note,
			At:      at,
		})
	})
}

// ExportPDF renders a report inside a read-only transaction.
func (s *Service) ExportPDF(ctx context.Context, id int64) (PDF, error) {
	var pdf PDF
	err := s.repo.WithReadTx(ctx, func(ctx context.Context, tx TxRepository) error {
		report, err := tx.GetReport(ctx, id)
		if err != nil {
			return err
		}
		pdf, err = s.exporter.Export(ctx, report)
		return err
	})
	if err != nil {
		return PDF{}, err
	}
	return pdf, nil
}
