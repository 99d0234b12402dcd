package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
	// TaskWorkTimeReminder asks employees to record missing work times.
	TaskWorkTimeReminder = "worktime:remind"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data), nil
}

// WorkTimeReminderPayload optionally pins the reminder run to a date. An
// empty Date lets the handler pick the previous working day.
type WorkTimeReminderPayload struct {
	Date string `json:"date,omitempty"`
}

// Day parses the pinned date, reporting false when none was given.
func (p WorkTimeReminderPayload) Day() (time.Time, bool, error) {
	if p.Date == "" {
		return time.Time{}, false, nil
	}
	day, err := time.Parse("2006-01-02", p.Date)
	if err != nil {
		return time.Time{}, false, err
	}
	return day, true, nil
}

// NewWorkTimeReminderTask constructs the reminder task.
func NewWorkTimeReminderTask(payload WorkTimeReminderPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskWorkTimeReminder, data), nil
}
