package worktime

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"

	"github.com/trackr-hr/trackr/jobs"
)

func TestReminderJobUsesPinnedDate(t *testing.T) {
	finder := &stubFinder{employees: []Employee{{ID: 1}}}
	notifier := &recordingNotifier{failOn: map[int64]error{1: errors.New("smtp")}}
	job := NewReminderJob(newTestDispatcher(finder, notifier, time.Now()), quietLogger(), nil)

	task, err := jobs.NewWorkTimeReminderTask(jobs.WorkTimeReminderPayload{Date: "2024-03-05"})
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))
	require.Equal(t, "2024-03-05", finder.day.Format(time.DateOnly))
	require.Equal(t, []int64{1}, notifier.calls)
}

func TestReminderJobDefaultsToPreviousWorkday(t *testing.T) {
	finder := &stubFinder{}
	job := NewReminderJob(newTestDispatcher(finder, &recordingNotifier{}, time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)), quietLogger(), nil)
	require.NoError(t, job.Handle(context.Background(), asynq.NewTask(jobs.TaskWorkTimeReminder, nil)))
	require.Equal(t, "2024-03-08", finder.day.Format(time.DateOnly))
}

func TestReminderJobErrors(t *testing.T) {
	job := NewReminderJob(newTestDispatcher(&stubFinder{err: errors.New("db")}, &recordingNotifier{}, time.Now()), quietLogger(), nil)
	require.Error(t, job.Handle(context.Background(), asynq.NewTask(jobs.TaskWorkTimeReminder, nil)))

	bad := asynq.NewTask(jobs.TaskWorkTimeReminder, []byte(`{"date":"soon"}`))
	require.ErrorIs(t, job.Handle(context.Background(), bad), asynq.SkipRetry)
}
