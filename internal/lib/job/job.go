// Package job runs background work on Asynq, a Redis-backed task queue.
//
// Request handlers never talk to the event broker or the mail provider
// directly: they enqueue a task and the worker server started here delivers
// it with retries.
package job

import (
	"context"

	"github.com/deppfellow/appointment-service/internal/config"
	"github.com/deppfellow/appointment-service/internal/lib/events"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

type enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

type statusMailer interface {
	SendAppointmentStatusEmail(ctx context.Context, to string, event events.Event) error
}

// JobService holds the Asynq client (enqueue) and server (worker execution).
type JobService struct {
	Client *asynq.Client

	enqueuer enqueuer
	server   *asynq.Server
	logger   *zerolog.Logger

	publisher events.Publisher
	mailer    statusMailer
}

// NewJobService creates a JobService configured to use Redis from cfg.
//
// Queue weights give "critical" (broker events) six of every ten workers.
func NewJobService(logger *zerolog.Logger, cfg *config.Config) *JobService {
	redisOpt := asynq.RedisClientOpt{Addr: cfg.Redis.Address}

	client := asynq.NewClient(redisOpt)

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				QueueCritical: 6,
				QueueDefault:  3,
				QueueLow:      1,
			},
			Logger:   newAsynqLogger(logger),
			LogLevel: asynq.InfoLevel,
		},
	)

	return &JobService{
		Client:   client,
		enqueuer: client,
		server:   server,
		logger:   logger,
	}
}

// InitHandlers wires the dependencies used by task handlers. It must be
// called before Start.
func (j *JobService) InitHandlers(publisher events.Publisher, mailer statusMailer) {
	j.publisher = publisher
	j.mailer = mailer
}

func (j *JobService) mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskAppointmentEvent, j.handleAppointmentEventTask)
	mux.HandleFunc(TaskAppointmentStatusEmail, j.handleAppointmentStatusEmailTask)
	return mux
}

// Start launches the worker server in the background.
func (j *JobService) Start() error {
	j.logger.Info().Msg("Starting background job server")

	if err := j.server.Start(j.mux()); err != nil {
		return err
	}

	return nil
}

// Stop waits for in-flight tasks and closes the enqueue client.
func (j *JobService) Stop() {
	j.logger.Info().Msg("Stopping background job server")
	j.server.Shutdown()
	j.Client.Close()
}
