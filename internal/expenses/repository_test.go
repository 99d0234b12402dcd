package expenses

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

// fakeTx records statements sent through txRepo. Methods not overridden
// panic through the nil embedded interface.
type fakeTx struct {
	pgx.Tx
	tag    pgconn.CommandTag
	err    error
	rowErr error
	sql    string
	args   []any
}

func (f *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.sql, f.args = sql, args
	return f.tag, f.err
}

func (f *fakeTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	f.sql, f.args = sql, args
	return fakeRow{err: f.rowErr}
}

type fakeRow struct {
	err error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if id, ok := dest[0].(*int64); ok {
		*id = 1
	}
	return nil
}

func TestUpdateReportStatusGuardsExpectedStatus(t *testing.T) {
	at := time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC)
	actor := int64(42)
	rep := Report{ID: 9, Status: StatusApproved, ApprovedBy: &actor, DecidedAt: &at, UpdatedAt: at}

	cases := []struct {
		name string
		tag  string
		err  error
		want error
	}{
		{name: "applied", tag: "UPDATE 1"},
		{name: "lost race", tag: "UPDATE 0", want: ErrInvalidState},
		{name: "exec failure", err: errors.New("connection reset"), want: errors.New("connection reset")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tx := &fakeTx{tag: pgconn.NewCommandTag(tc.tag), err: tc.err}
			err := (&txRepo{tx: tx}).UpdateReportStatus(context.Background(), rep, StatusSubmitted)
			switch {
			case tc.want == nil:
				require.NoError(t, err)
			case errors.Is(tc.want, ErrInvalidState):
				require.ErrorIs(t, err, ErrInvalidState)
			default:
				require.EqualError(t, err, tc.want.Error())
			}
			require.Contains(t, tx.sql, "WHERE id = $1 AND status = $8")
			require.Len(t, tx.args, 8)
			require.Equal(t, int64(9), tx.args[0])
			require.Equal(t, string(StatusApproved), tx.args[1])
			require.Equal(t, string(StatusSubmitted), tx.args[7])
		})
	}
}

func TestInsertExpenseMapsNumericOverflow(t *testing.T) {
	e := sampleExpense("12.50", "2024-03-01", "2024-03-02")
	e.ReportID = 3

	tx := &fakeTx{rowErr: &pgconn.PgError{Code: "22003"}}
	_, err := (&txRepo{tx: tx}).InsertExpense(context.Background(), e)
	require.ErrorIs(t, err, ErrValidation)

	tx = &fakeTx{}
	id, err := (&txRepo{tx: tx}).InsertExpense(context.Background(), e)
	require.NoError(t, err)
	require.Equal(t, int64(1), id)
	require.Equal(t, "12.5", tx.args[3])
}
