package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/deppfellow/appointment-service/internal/lib/events"
	"github.com/hibiken/asynq"
)

func (j *JobService) handleAppointmentEventTask(ctx context.Context, t *asynq.Task) error {
	var event events.Event
	if err := json.Unmarshal(t.Payload(), &event); err != nil {
		return fmt.Errorf("failed to unmarshal appointment event: %w: %w", err, asynq.SkipRetry)
	}

	log := j.logger.With().
		Str("event_id", event.EventID).
		Str("event_type", event.EventType).
		Int64("appointment_id", event.Data.AppointmentID).
		Str("broker", j.publisher.Name()).
		Logger()

	if err := j.publisher.Publish(ctx, event); err != nil {
		log.Error().Err(err).Msg("Failed to publish appointment event")
		return err
	}

	log.Info().Msg("Published appointment event")
	return nil
}

func (j *JobService) handleAppointmentStatusEmailTask(ctx context.Context, t *asynq.Task) error {
	var p AppointmentStatusEmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal status email payload: %w: %w", err, asynq.SkipRetry)
	}

	log := j.logger.With().
		Str("type", p.Event.EventType).
		Str("to", p.To).
		Int64("appointment_id", p.Event.Data.AppointmentID).
		Logger()

	log.Info().Msg("Processing appointment status email task")

	if err := j.mailer.SendAppointmentStatusEmail(ctx, p.To, p.Event); err != nil {
		log.Error().Err(err).Msg("Failed to send appointment status email")
		return err
	}

	log.Info().Msg("Successfully sent appointment status email")
	return nil
}
