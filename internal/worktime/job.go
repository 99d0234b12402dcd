package worktime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/trackr-hr/trackr/internal/jobs"
	"github.com/trackr-hr/trackr/jobs"
)

// ReminderJob runs the dispatcher for jobs.TaskWorkTimeReminder tasks.
type ReminderJob struct {
	Dispatcher *Dispatcher
	Logger     *slog.Logger
	Metrics    *jobmetrics.Metrics
}

// NewReminderJob wires dependencies for the reminder handler.
func NewReminderJob(dispatcher *Dispatcher, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReminderJob {
	return &ReminderJob{Dispatcher: dispatcher, Logger: logger, Metrics: metrics}
}

// Handle processes reminder tasks. Per-employee failures are logged but do
// not fail the task, so a retry never re-mails everyone else.
func (j *ReminderJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Dispatcher == nil {
		return errors.New("worktime reminder: handler not configured")
	}
	var payload jobs.WorkTimeReminderPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("decode %s: %v: %w", jobs.TaskWorkTimeReminder, err, asynq.SkipRetry)
		}
	}
	day, pinned, err := payload.Day()
	if err != nil {
		return fmt.Errorf("decode %s: %v: %w", jobs.TaskWorkTimeReminder, err, asynq.SkipRetry)
	}

	tracker := j.Metrics.Track(jobs.TaskWorkTimeReminder)
	var result Result
	if pinned {
		result, err = j.Dispatcher.RemindFor(ctx, day)
	} else {
		result, err = j.Dispatcher.RemindEmployeesToTrackWorkTimes(ctx)
	}
	if err != nil {
		return tracker.End(err)
	}
	if failed := len(result.Failed()); failed > 0 {
		j.logger().Warn("work time reminder run incomplete",
			slog.String("day", result.Day.Format("2006-01-02")),
			slog.Int("failed", failed),
			slog.Int("candidates", result.Candidates))
	}
	return tracker.End(nil)
}

func (j *ReminderJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
