package worktime

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository finds reminder candidates in PostgreSQL. Queries run on the
// pool directly so no transaction spans the dispatch.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// FindMissingWorkTimes implements Finder.
func (r *Repository) FindMissingWorkTimes(ctx context.Context, day time.Time) ([]Employee, error) {
	rows, err := r.pool.Query(ctx, `SELECT e.id, e.first_name, e.last_name, u.email, e.entry_date, e.exit_date
FROM employees e
JOIN users u ON u.id = e.id
WHERE u.is_active
  AND e.entry_date <= $1
  AND (e.exit_date IS NULL OR e.exit_date >= $1)
  AND NOT EXISTS (SELECT 1 FROM work_times w WHERE w.employee_id = e.id AND w.date = $1)
ORDER BY e.id`, day)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Employee, error) {
		var e Employee
		err := row.Scan(&e.ID, &e.FirstName, &e.LastName, &e.Email, &e.EntryDate, &e.ExitDate)
		return e, err
	})
}

var _ Finder = (*Repository)(nil)
