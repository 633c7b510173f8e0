package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/deppfellow/appointment-service/internal/config"
	"github.com/deppfellow/appointment-service/internal/errs"
	"github.com/deppfellow/appointment-service/internal/server"
	"github.com/deppfellow/appointment-service/internal/sqlerr"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(rateLimit float64) *server.Server {
	logger := zerolog.Nop()
	return &server.Server{
		Config: &config.Config{
			Primary: config.Primary{Env: "test"},
			Server:  config.ServerConfig{Port: "8080", RateLimit: rateLimit},
		},
		Logger: &logger,
	}
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errs.HTTPError {
	t.Helper()
	var body errs.HTTPError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRequestID(t *testing.T) {
	e := echo.New()
	e.Use(RequestID())
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, GetRequestID(c))
	})

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := rec.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, generated)
	assert.Equal(t, generated, rec.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = serve(e, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestGatewayIdentity(t *testing.T) {
	s := testServer(0)

	e := echo.New()
	e.Use(NewIdentityMiddleware(s).GatewayIdentity)
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, GetUserID(c)+"|"+GetUserRole(c))
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(UserIDHeader, "42")
	req.Header.Set(UserRoleHeader, "doctor")
	assert.Equal(t, "42|doctor", serve(e, req).Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(UserIDHeader, "not-a-number")
	assert.Equal(t, "|", serve(e, req).Body.String())
}

func TestEnhanceContext(t *testing.T) {
	s := testServer(0)

	e := echo.New()
	e.Use(RequestID(), NewContextEnhancer(s).EnhanceContext())
	e.GET("/", func(c echo.Context) error {
		assert.NotNil(t, zerolog.Ctx(c.Request().Context()))
		assert.Same(t, GetLogger(c), zerolog.Ctx(c.Request().Context()))
		return c.NoContent(http.StatusNoContent)
	})

	assert.Equal(t, http.StatusNoContent, serve(e, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
}

func TestGlobalErrorHandler(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"domain error", errs.BadRequest(errs.CodeSlotUnavailable, "Selected time slot is not available"), http.StatusBadRequest, errs.CodeSlotUnavailable},
		{"wrapped domain error", fmt.Errorf("booking: %w", errs.NotFound(errs.CodeAppointmentNotFound, "Appointment", 1)), http.StatusNotFound, errs.CodeAppointmentNotFound},
		{"active slot index", &pgconn.PgError{Code: "23505", ConstraintName: sqlerr.ActiveSlotConstraint}, http.StatusBadRequest, errs.CodeSlotAlreadyBooked},
		{"echo error", echo.NewHTTPError(http.StatusMethodNotAllowed, "Method Not Allowed"), http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			e.HTTPErrorHandler = NewGlobalMiddlewares(testServer(0)).GlobalErrorHandler
			e.GET("/", func(c echo.Context) error { return tt.err })

			rec := serve(e, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, tt.status, rec.Code)

			body := decodeError(t, rec)
			assert.Equal(t, tt.code, body.Code)
			assert.Equal(t, tt.status, body.Status)
		})
	}
}

func TestGlobalErrorHandler_UnknownRoute(t *testing.T) {
	e := echo.New()
	e.HTTPErrorHandler = NewGlobalMiddlewares(testServer(0)).GlobalErrorHandler

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route not found", decodeError(t, rec).Message)
}

func TestRateLimit(t *testing.T) {
	s := testServer(1)

	e := echo.New()
	e.HTTPErrorHandler = NewGlobalMiddlewares(s).GlobalErrorHandler
	e.Use(NewRateLimitMiddleware(s).Limit())
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	// Burst is twice the rate.
	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusNoContent, serve(e, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	}

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "TOO_MANY_REQUESTS", decodeError(t, rec).Code)
}

func TestRateLimitDisabled(t *testing.T) {
	s := testServer(0)

	e := echo.New()
	e.Use(NewRateLimitMiddleware(s).Limit())
	e.GET("/", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })

	for i := 0; i < 20; i++ {
		assert.Equal(t, http.StatusNoContent, serve(e, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	}
}

func TestToHTTPError_KeepsDomainErrorIdentity(t *testing.T) {
	original := errs.BadRequest(errs.CodeRejectionReasonRequired, "Rejection reason is required")

	assert.Same(t, original, toHTTPError(fmt.Errorf("confirm: %w", original)))
}
