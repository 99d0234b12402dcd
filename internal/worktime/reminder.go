package worktime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.uber.org/multierr"
)

// Finder lists active employees without a work time entry on day.
type Finder interface {
	FindMissingWorkTimes(ctx context.Context, day time.Time) ([]Employee, error)
}

// Notifier reminds one employee about day.
type Notifier interface {
	Remind(ctx context.Context, employee Employee, day time.Time) error
}

// Result summarises a dispatch run.
type Result struct {
	Day        time.Time
	Candidates int
	Notified   int
	// Failures aggregates per-employee notifier errors, nil when all succeeded.
	Failures error
}

// Failed returns the individual notifier errors.
func (r Result) Failed() []error {
	return multierr.Errors(r.Failures)
}

// Dispatcher reminds employees to track their work times.
type Dispatcher struct {
	finder   Finder
	notifier Notifier
	logger   *slog.Logger
	clock    func() time.Time
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(finder Finder, notifier Notifier, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		finder:   finder,
		notifier: notifier,
		logger:   logger,
		clock:    func() time.Time { return time.Now().UTC() },
	}
}

// RemindEmployeesToTrackWorkTimes reminds everyone missing an entry for the
// previous working day.
func (d *Dispatcher) RemindEmployeesToTrackWorkTimes(ctx context.Context) (Result, error) {
	return d.RemindFor(ctx, PreviousWorkday(d.clock()))
}

// RemindFor reminds everyone missing an entry on day. A failing finder aborts
// the run; notifier failures are collected and the batch continues.
func (d *Dispatcher) RemindFor(ctx context.Context, day time.Time) (Result, error) {
	day = truncateDay(day)
	result := Result{Day: day}
	employees, err := d.finder.FindMissingWorkTimes(ctx, day)
	if err != nil {
		return result, fmt.Errorf("worktime: find candidates: %w", err)
	}
	result.Candidates = len(employees)
	for _, employee := range employees {
		if err := ctx.Err(); err != nil {
			result.Failures = multierr.Append(result.Failures, err)
			break
		}
		if err := d.notifier.Remind(ctx, employee, day); err != nil {
			d.logger.Warn("remind employee",
				slog.Int64("employee_id", employee.ID),
				slog.String("day", day.Format(time.DateOnly)),
				slog.Any("error", err))
			result.Failures = multierr.Append(result.Failures, fmt.Errorf("employee %d: %w", employee.ID, err))
			continue
		}
		result.Notified++
	}
	d.logger.Info("work time reminders dispatched",
		slog.String("day", day.Format(time.DateOnly)),
		slog.Int("candidates", result.Candidates),
		slog.Int("notified", result.Notified),
		slog.Int("failed", len(result.Failed())))
	return result, nil
}

// PreviousWorkday returns the working day before now. Mondays map to the
// preceding Friday and weekends to the Friday before them.
func PreviousWorkday(now time.Time) time.Time {
	day := truncateDay(now).AddDate(0, 0, -1)
	for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
		day = day.AddDate(0, 0, -1)
	}
	return day
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
