package worktime

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/trackr-hr/trackr/internal/jobs"
	"github.com/trackr-hr/trackr/internal/shared"
	"github.com/trackr-hr/trackr/jobs"
)

const idempotencyModule = "worktime_reminder"

// MailEnqueuer queues outgoing mail.
type MailEnqueuer interface {
	EnqueueSendEmail(ctx context.Context, payload jobs.SendEmailPayload) (*asynq.TaskInfo, error)
}

// Claimer records that a side effect happened for a key.
type Claimer interface {
	Claim(ctx context.Context, module, key string) error
	Release(ctx context.Context, module, key string) error
}

// MailNotifier queues a reminder mail per employee and day. A repeated run
// for the same day does not mail the employee twice.
type MailNotifier struct {
	mail    MailEnqueuer
	claims  Claimer
	metrics *jobmetrics.Metrics
}

// NewMailNotifier constructs a MailNotifier.
func NewMailNotifier(mail MailEnqueuer, claims Claimer, metrics *jobmetrics.Metrics) *MailNotifier {
	return &MailNotifier{mail: mail, claims: claims, metrics: metrics}
}

// Remind implements Notifier.
func (n *MailNotifier) Remind(ctx context.Context, employee Employee, day time.Time) error {
	if employee.Email == "" {
		n.metrics.AddReminders(jobmetrics.ReminderFailed, 1)
		return fmt.Errorf("employee %d has no email address", employee.ID)
	}
	key := strconv.FormatInt(employee.ID, 10) + ":" + day.Format(time.DateOnly)
	if n.claims != nil {
		if err := n.claims.Claim(ctx, idempotencyModule, key); err != nil {
			if errors.Is(err, shared.ErrIdempotencyConflict) {
				n.metrics.AddReminders(jobmetrics.ReminderSkipped, 1)
				return nil
			}
			n.metrics.AddReminders(jobmetrics.ReminderFailed, 1)
			return err
		}
	}
	if _, err := n.mail.EnqueueSendEmail(ctx, reminderMail(employee, day)); err != nil {
		if n.claims != nil {
			err = errors.Join(err, n.claims.Release(ctx, idempotencyModule, key))
		}
		n.metrics.AddReminders(jobmetrics.ReminderFailed, 1)
		return err
	}
	n.metrics.AddReminders(jobmetrics.ReminderSent, 1)
	return nil
}

func reminderMail(employee Employee, day time.Time) jobs.SendEmailPayload {
	date := day.Format("Monday, 02 Jan 2006")
	return jobs.SendEmailPayload{
		To:      employee.Email,
		Subject: "Please track your work times for " + date,
		Body: fmt.Sprintf("Hello %s,\n\nwe could not find any work time entry for %s.\nPlease record your working hours in trackr.\n",
			employee.FullName(), date),
	}
}

var _ Notifier = (*MailNotifier)(nil)
