package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	require.NoError(t, m.Track("worktime:remind").End(nil))
	boom := errors.New("boom")
	require.ErrorIs(t, m.Track("worktime:remind").End(boom), boom)

	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("worktime:remind", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("worktime:remind", "failure")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("worktime:remind")))
}

func TestAddReminders(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.AddReminders(ReminderSent, 3)
	m.AddReminders(ReminderFailed, 0)
	require.Equal(t, 3.0, testutil.ToFloat64(m.reminders.WithLabelValues(ReminderSent)))
	require.Equal(t, 0.0, testutil.ToFloat64(m.reminders.WithLabelValues(ReminderFailed)))

	var nilMetrics *Metrics
	nilMetrics.AddReminders(ReminderSent, 1)
	require.NoError(t, nilMetrics.Track("x").End(nil))
}
