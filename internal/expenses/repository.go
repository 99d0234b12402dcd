package expenses

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/trackr-hr/trackr/internal/platform/db"
	"github.com/trackr-hr/trackr/internal/shared"
)

// dbtx is satisfied by both the pool and a transaction.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository provides PostgreSQL backed persistence for travel expense reports.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepo struct {
	tx pgx.Tx
}

// WithTx wraps callback in a read-committed transaction. Under that level a
// row lock taken after a concurrent commit observes the committed status
// instead of failing with a serialization error.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTxOptions(ctx, r.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// WithReadTx wraps callback in a read-only transaction.
func (r *Repository) WithReadTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithReadOnlyTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

// FindByID loads a report with its expenses.
func (r *Repository) FindByID(ctx context.Context, id int64) (Report, error) {
	return loadReport(ctx, r.pool, id, false)
}

// ListByEmployee returns reports owned by an employee, newest first.
func (r *Repository) ListByEmployee(ctx context.Context, employeeID int64) ([]Report, error) {
	rows, err := r.pool.Query(ctx, reportSelect+` WHERE r.employee_id = $1 ORDER BY r.created_at DESC, r.id DESC`, employeeID)
	if err != nil {
		return nil, err
	}
	reports, err := pgx.CollectRows(rows, scanReport)
	if err != nil {
		return nil, err
	}
	if len(reports) == 0 {
		return reports, nil
	}
	ids := make([]int64, len(reports))
	index := make(map[int64]int, len(reports))
	for i, rep := range reports {
		ids[i] = rep.ID
		index[rep.ID] = i
	}
	expenses, err := loadExpenses(ctx, r.pool, `WHERE report_id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	for _, e := range expenses {
		i := index[e.ReportID]
		reports[i].Expenses = append(reports[i].Expenses, e)
	}
	return reports, nil
}

// ListApprovals returns the approval history of a report.
func (r *Repository) ListApprovals(ctx context.Context, reportID int64) ([]shared.ApprovalLog, error) {
	return shared.ListApprovals(ctx, r.pool, ApprovalModule, reportID)
}

func (t *txRepo) GetReport(ctx context.Context, id int64) (Report, error) {
	return loadReport(ctx, t.tx, id, false)
}

// LockReport loads the report holding a row lock until the transaction ends,
// serialising concurrent transitions on the same report.
func (t *txRepo) LockReport(ctx context.Context, id int64) (Report, error) {
	return loadReport(ctx, t.tx, id, true)
}

func (t *txRepo) CreateReport(ctx context.Context, rep Report) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO travel_expense_reports (employee_id, status, created_at, updated_at)
VALUES ($1, $2, $3, $4) RETURNING id`, rep.EmployeeID, string(rep.Status), rep.CreatedAt, rep.UpdatedAt).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return 0, fmt.Errorf("%w: unknown employee %d", ErrValidation, rep.EmployeeID)
		}
		return 0, err
	}
	return id, nil
}

func (t *txRepo) InsertExpense(ctx context.Context, e Expense) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO travel_expenses (report_id, type, comment, cost, from_date, to_date)
VALUES ($1, $2, $3, $4::numeric, $5, $6) RETURNING id`,
		e.ReportID, string(e.Type), e.Comment, e.Cost.String(), e.FromDate, e.ToDate).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "22003" {
			return 0, fmt.Errorf("%w: cost %s out of range", ErrValidation, e.Cost)
		}
		return 0, err
	}
	return id, nil
}

// UpdateReportStatus persists a transition. The update only applies while the
// row still has status from, so a lost race surfaces as ErrInvalidState.
func (t *txRepo) UpdateReportStatus(ctx context.Context, rep Report, from Status) error {
	tag, err := t.tx.Exec(ctx, `UPDATE travel_expense_reports
SET status = $2, submitted_at = $3, approved_by = $4, rejected_by = $5, decided_at = $6, updated_at = $7
WHERE id = $1 AND status = $8`,
		rep.ID, string(rep.Status), rep.SubmittedAt, rep.ApprovedBy, rep.RejectedBy, rep.DecidedAt, rep.UpdatedAt, string(from))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: report %d is no longer %s", ErrInvalidState, rep.ID, from)
	}
	return nil
}

func (t *txRepo) RecordApproval(ctx context.Context, log shared.ApprovalLog) error {
	return shared.RecordApproval(ctx, t.tx, log)
}

const reportSelect = `SELECT r.id, r.employee_id, TRIM(e.first_name || ' ' || e.last_name), r.status,
       r.submitted_at, r.approved_by, r.rejected_by, r.decided_at, r.created_at, r.updated_at
FROM travel_expense_reports r
JOIN employees e ON e.id = r.employee_id`

func scanReport(row pgx.CollectableRow) (Report, error) {
	var rep Report
	var status string
	err := row.Scan(&rep.ID, &rep.EmployeeID, &rep.EmployeeName, &status,
		&rep.SubmittedAt, &rep.ApprovedBy, &rep.RejectedBy, &rep.DecidedAt, &rep.CreatedAt, &rep.UpdatedAt)
	rep.Status = Status(status)
	return rep, err
}

func loadReport(ctx context.Context, q dbtx, id int64, lock bool) (Report, error) {
	query := reportSelect + ` WHERE r.id = $1`
	if lock {
		query += ` FOR UPDATE OF r`
	}
	rows, err := q.Query(ctx, query, id)
	if err != nil {
		return Report{}, err
	}
	rep, err := pgx.CollectExactlyOneRow(rows, scanReport)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Report{}, ErrNotFound
		}
		return Report{}, err
	}
	rep.Expenses, err = loadExpenses(ctx, q, `WHERE report_id = $1`, id)
	if err != nil {
		return Report{}, err
	}
	return rep, nil
}

func loadExpenses(ctx context.Context, q dbtx, where string, arg any) ([]Expense, error) {
	rows, err := q.Query(ctx, `SELECT id, report_id, type, comment, cost::text, from_date, to_date
FROM travel_expenses `+where+` ORDER BY report_id, id`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Expense
	for rows.Next() {
		var e Expense
		var typ, cost string
		var from, to time.Time
		if err := rows.Scan(&e.ID, &e.ReportID, &typ, &e.Comment, &cost, &from, &to); err != nil {
			return nil, err
		}
		e.Type = ExpenseType(typ)
		e.FromDate, e.ToDate = from, to
		if e.Cost, err = decimal.NewFromString(cost); err != nil {
			return nil, fmt.Errorf("expenses: parse cost %q: %w", cost, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
