package worktime

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	jobmetrics "github.com/trackr-hr/trackr/internal/jobs"
	"github.com/trackr-hr/trackr/internal/shared"
	"github.com/trackr-hr/trackr/jobs"
)

type fakeQueue struct {
	sent []jobs.SendEmailPayload
	err  error
}

func (q *fakeQueue) EnqueueSendEmail(ctx context.Context, payload jobs.SendEmailPayload) (*asynq.TaskInfo, error) {
	if q.err != nil {
		return nil, q.err
	}
	q.sent = append(q.sent, payload)
	return &asynq.TaskInfo{Queue: jobs.QueueDefault}, nil
}

type memoryClaims struct {
	keys map[string]bool
}

func (c *memoryClaims) Claim(ctx context.Context, module, key string) error {
	if c.keys[module+"/"+key] {
		return shared.ErrIdempotencyConflict
	}
	c.keys[module+"/"+key] = true
	return nil
}

func (c *memoryClaims) Release(ctx context.Context, module, key string) error {
	delete(c.keys, module+"/"+key)
	return nil
}

var reminderDay = time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)

func TestMailNotifierQueuesOncePerDay(t *testing.T) {
	queue := &fakeQueue{}
	claims := &memoryClaims{keys: map[string]bool{}}
	n := NewMailNotifier(queue, claims, jobmetrics.NewMetrics(prometheus.NewRegistry()))
	ada := Employee{ID: 1, FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}

	require.NoError(t, n.Remind(context.Background(), ada, reminderDay))
	require.NoError(t, n.Remind(context.Background(), ada, reminderDay))
	require.Len(t, queue.sent, 1)
	require.Equal(t, "ada@example.com", queue.sent[0].To)
	require.Contains(t, queue.sent[0].Subject, "Friday, 08 Mar 2024")
	require.Contains(t, queue.sent[0].Body, "Hello Ada Lovelace")

	require.NoError(t, n.Remind(context.Background(), ada, reminderDay.AddDate(0, 0, 3)))
	require.Len(t, queue.sent, 2)
}

func TestMailNotifierReleasesClaimOnFailure(t *testing.T) {
	queue := &fakeQueue{err: errors.New("redis down")}
	claims := &memoryClaims{keys: map[string]bool{}}
	n := NewMailNotifier(queue, claims, nil)
	emp := Employee{ID: 2, Email: "b@example.com"}

	require.Error(t, n.Remind(context.Background(), emp, reminderDay))
	require.Empty(t, claims.keys)

	queue.err = nil
	require.NoError(t, n.Remind(context.Background(), emp, reminderDay))
	require.Len(t, queue.sent, 1)
}

func TestMailNotifierRequiresEmail(t *testing.T) {
	n := NewMailNotifier(&fakeQueue{}, nil, nil)
	require.Error(t, n.Remind(context.Background(), Employee{ID: 3}, reminderDay))
}
