// Package server holds the shared resources of the running service and
// owns their lifecycle: the database pool, the Redis client, the event
// publisher, the background job server and the HTTP server itself.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/deppfellow/appointment-service/internal/config"
	"github.com/deppfellow/appointment-service/internal/database"
	"github.com/deppfellow/appointment-service/internal/lib/email"
	"github.com/deppfellow/appointment-service/internal/lib/events"
	"github.com/deppfellow/appointment-service/internal/lib/job"
	"github.com/newrelic/go-agent/v3/integrations/nrredis-v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	loggerPkg "github.com/deppfellow/appointment-service/internal/logger"
)

// Server is the application container. It is not the HTTP server; that
// one is configured by SetupHTTPServer.
type Server struct {
	Config        *config.Config
	Logger        *zerolog.Logger
	LoggerService *loggerPkg.LoggerService

	// Location is the hospital's time zone (primary.timezone).
	Location *time.Location

	DB     *database.Database
	Redis  *redis.Client
	Events events.Publisher
	Email  *email.Client
	Job    *job.JobService

	httpServer *http.Server
}

// New connects to every dependency and starts the job workers.
//
// Redis being unreachable at startup is logged but not fatal: requests
// still succeed and notifications are retried once Redis is back.
func New(cfg *config.Config, logger *zerolog.Logger, loggerService *loggerPkg.LoggerService) (*Server, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", cfg.Primary.Timezone, err)
	}

	db, err := database.New(cfg, logger, loggerService)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Address,
	})

	if loggerService != nil && loggerService.GetApplication() != nil {
		redisClient.AddHook(nrredis.NewHook(redisClient.Options()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error().Err(err).Msg("Failed to connect to Redis, continuing without Redis")
	}

	publisher, err := events.NewPublisher(&cfg.Events, redisClient, logger)
	if err != nil {
		return nil, closeOnError(fmt.Errorf("failed to initialize event publisher: %w", err), redisClient, db)
	}

	emailClient := email.NewClient(cfg, logger)

	jobService := job.NewJobService(logger, cfg)
	jobService.InitHandlers(publisher, emailClient)

	if err := jobService.Start(); err != nil {
		return nil, closeOnError(fmt.Errorf("failed to start job server: %w", err), jobService.Client, publisher, redisClient, db)
	}

	logger.Info().
		Str("timezone", loc.String()).
		Str("event_broker", publisher.Name()).
		Msg("server dependencies ready")

	return &Server{
		Config:        cfg,
		Logger:        logger,
		LoggerService: loggerService,
		Location:      loc,
		DB:            db,
		Redis:         redisClient,
		Events:        publisher,
		Email:         emailClient,
		Job:           jobService,
	}, nil
}

// closeOnError releases the resources opened before a failed startup step
// and returns err joined with any close failure.
func closeOnError(err error, resources ...io.Closer) error {
	errs := []error{err}
	for _, r := range resources {
		if closeErr := r.Close(); closeErr != nil {
			errs = append(errs, closeErr)
		}
	}
	return errors.Join(errs...)
}

// SetupHTTPServer configures the net/http server around handler.
// Timeouts from config are seconds.
func (s *Server) SetupHTTPServer(handler http.Handler) {
	s.httpServer = &http.Server{
		Addr:         ":" + s.Config.Server.Port,
		Handler:      handler,
		ReadTimeout:  time.Duration(s.Config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.Config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(s.Config.Server.IdleTimeout) * time.Second,
	}
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	if s.httpServer == nil {
		return errors.New("HTTP server not initialized")
	}

	s.Logger.Info().
		Str("port", s.Config.Server.Port).
		Str("env", s.Config.Primary.Env).
		Msg("starting server")

	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests, then stops the workers before the
// connections they use are closed.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shutdown HTTP server: %w", err)
		}
	}

	if s.Job != nil {
		s.Job.Stop()
	}

	var errs []error

	if s.Events != nil {
		if err := s.Events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close event publisher: %w", err))
		}
	}

	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis client: %w", err))
		}
	}

	if err := s.DB.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close database connection: %w", err))
	}

	return errors.Join(errs...)
}
