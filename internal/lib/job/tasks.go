package job

import (
	"context"
	"encoding/json"
	"time"

	"github.com/deppfellow/appointment-service/internal/lib/events"
	"github.com/hibiken/asynq"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// Task type names stored in Redis.
const (
	TaskAppointmentEvent       = "appointment:event"
	TaskAppointmentStatusEmail = "email:appointment_status"
)

// AppointmentStatusEmailPayload is the JSON payload of the status e-mail task.
type AppointmentStatusEmailPayload struct {
	To    string       `json:"to"`
	Event events.Event `json:"event"`
}

// NewAppointmentEventTask wraps event for delivery to the broker. The
// event id doubles as the task id so a retried request cannot enqueue the
// same event twice.
func NewAppointmentEventTask(event events.Event) (*asynq.Task, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskAppointmentEvent,
		payload,
		asynq.TaskID(event.EventID),
		asynq.MaxRetry(5),
		asynq.Queue(QueueCritical),
		asynq.Timeout(30*time.Second),
	), nil
}

func NewAppointmentStatusEmailTask(to string, event events.Event) (*asynq.Task, error) {
	payload, err := json.Marshal(AppointmentStatusEmailPayload{
		To:    to,
		Event: event,
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskAppointmentStatusEmail,
		payload,
		asynq.MaxRetry(3),
		asynq.Queue(QueueDefault),
		asynq.Timeout(30*time.Second),
	), nil
}

// EnqueueAppointmentEvent schedules event for publishing.
func (j *JobService) EnqueueAppointmentEvent(ctx context.Context, event events.Event) error {
	task, err := NewAppointmentEventTask(event)
	if err != nil {
		return err
	}

	info, err := j.enqueuer.EnqueueContext(ctx, task)
	if err != nil {
		return err
	}

	j.logger.Debug().
		Str("task_id", info.ID).
		Str("event_type", event.EventType).
		Msg("enqueued appointment event")

	return nil
}

// EnqueueStatusEmail schedules a status e-mail to the patient.
func (j *JobService) EnqueueStatusEmail(ctx context.Context, to string, event events.Event) error {
	task, err := NewAppointmentStatusEmailTask(to, event)
	if err != nil {
		return err
	}

	_, err = j.enqueuer.EnqueueContext(ctx, task)
	return err
}
