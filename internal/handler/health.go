package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/deppfellow/appointment-service/internal/config"
	"github.com/deppfellow/appointment-service/internal/middleware"
	"github.com/deppfellow/appointment-service/internal/server"
	"github.com/labstack/echo/v4"
)

// Version is set at build time with -ldflags "-X ...handler.Version=...".
var Version = "dev"

const healthCheckTimeout = 5 * time.Second

// dependencyCheck pings one dependency. A failing required check turns the
// whole service unhealthy; an optional one is only reported.
type dependencyCheck struct {
	name     string
	required bool
	ping     func(ctx context.Context) error
}

type HealthHandler struct {
	Handler
	checks []dependencyCheck
}

// NewHealthHandler checks the database and Redis (required: bookings and
// the job queue depend on them) and the event broker (optional: events
// are retried by the job queue).
func NewHealthHandler(s *server.Server) *HealthHandler {
	checks := []dependencyCheck{
		{name: "database", required: true, ping: s.DB.Ping},
	}

	if s.Redis != nil {
		checks = append(checks, dependencyCheck{
			name:     "redis",
			required: true,
			ping: func(ctx context.Context) error {
				return s.Redis.Ping(ctx).Err()
			},
		})
	}

	if s.Events != nil && s.Events.Name() != config.BrokerNone {
		checks = append(checks, dependencyCheck{
			name: "event_broker_" + s.Events.Name(),
			ping: s.Events.Ping,
		})
	}

	return &HealthHandler{
		Handler: NewHandler(s),
		checks:  checks,
	}
}

// Banner answers GET / with the service identity.
func (h *HealthHandler) Banner(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"service":     config.ServiceName,
		"version":     Version,
		"environment": h.server.Config.Primary.Env,
		"docs":        "/docs",
	})
}

// CheckHealth runs every dependency check and answers 200 when all
// required ones pass, 503 otherwise.
func (h *HealthHandler) CheckHealth(c echo.Context) error {
	start := time.Now()

	logger := middleware.GetLogger(c).With().
		Str("operation", "health_check").
		Logger()

	checks := make(map[string]interface{}, len(h.checks))
	isHealthy := true

	for _, check := range h.checks {
		ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
		checkStart := time.Now()
		err := check.ping(ctx)
		elapsed := time.Since(checkStart)
		cancel()

		if err == nil {
			checks[check.name] = map[string]interface{}{
				"status":        "healthy",
				"response_time": elapsed.String(),
			}
			continue
		}

		checks[check.name] = map[string]interface{}{
			"status":        "unhealthy",
			"required":      check.required,
			"response_time": elapsed.String(),
			"error":         err.Error(),
		}

		if check.required {
			isHealthy = false
		}

		logger.Error().
			Err(err).
			Str("check", check.name).
			Bool("required", check.required).
			Dur("response_time", elapsed).
			Msg("health check failed")

		h.recordHealthCheckError(check.name, elapsed, err)
	}

	response := map[string]interface{}{
		"status":      "healthy",
		"service":     config.ServiceName,
		"version":     Version,
		"timestamp":   time.Now().UTC(),
		"environment": h.server.Config.Primary.Env,
		"checks":      checks,
	}

	if !isHealthy {
		response["status"] = "unhealthy"

		logger.Warn().
			Dur("total_duration", time.Since(start)).
			Msg("service unhealthy")

		return c.JSON(http.StatusServiceUnavailable, response)
	}

	logger.Debug().
		Dur("total_duration", time.Since(start)).
		Msg("health check passed")

	return c.JSON(http.StatusOK, response)
}

func (h *HealthHandler) recordHealthCheckError(check string, elapsed time.Duration, err error) {
	if h.server.LoggerService == nil || h.server.LoggerService.GetApplication() == nil {
		return
	}

	h.server.LoggerService.GetApplication().RecordCustomEvent(
		"HealthCheckError",
		map[string]interface{}{
			"check_type":       check,
			"operation":        "health_check",
			"error_type":       check + "_unhealthy",
			"response_time_ms": elapsed.Milliseconds(),
			"error_message":    err.Error(),
		},
	)
}
