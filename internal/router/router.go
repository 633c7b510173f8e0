// Package router builds the echo instance: global middleware, system
// routes and the versioned API.
package router

import (
	"net/http"

	"github.com/deppfellow/appointment-service/internal/handler"
	"github.com/deppfellow/appointment-service/internal/middleware"
	"github.com/deppfellow/appointment-service/internal/model/appointment"
	"github.com/deppfellow/appointment-service/internal/model/department"
	"github.com/deppfellow/appointment-service/internal/model/doctor"
	"github.com/deppfellow/appointment-service/internal/model/slot"
	"github.com/deppfellow/appointment-service/internal/server"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
)

func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	middlewares := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true

	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	router.Pre(echoMiddleware.RemoveTrailingSlash())

	// Order matters: the context logger needs the request id, the New
	// Relic transaction and the gateway identity, and rejected requests
	// still reach the request logger.
	router.Use(
		middlewares.Global.CORS(),
		middlewares.Global.Secure(),
		middleware.RequestID(),
		middlewares.Identity.GatewayIdentity,
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.Tracing.EnhanceTracing(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Global.RequestLogger(),
		middlewares.Global.Recover(),
		middlewares.RateLimit.Limit(),
	)

	registerSystemRoutes(router, h)

	v1 := router.Group("/api/v1")
	registerAppointmentRoutes(v1.Group("/appointments"), h)

	return router
}

func registerAppointmentRoutes(g *echo.Group, h *handler.Handlers) {
	catalog := h.Catalog
	appointments := h.Appointment

	g.GET("/departments", handler.Handle(catalog.Handler, catalog.ListDepartments, http.StatusOK, &department.ListDepartmentsPayload{}))
	g.GET("/departments/:id/doctors", handler.Handle(catalog.Handler, catalog.ListDoctors, http.StatusOK, &department.ListDoctorsPayload{}))
	g.GET("/available-slots", handler.Handle(catalog.Handler, catalog.ListAvailableSlots, http.StatusOK, &slot.ListAvailablePayload{}))

	g.POST("", handler.Handle(appointments.Handler, appointments.Create, http.StatusCreated, &appointment.CreateAppointmentPayload{}))
	g.GET("", handler.Handle(appointments.Handler, appointments.List, http.StatusOK, &appointment.ListAppointmentsPayload{}))

	g.GET("/doctor/:doctor_id/pending", handler.Handle(appointments.Handler, appointments.ListPendingByDoctor, http.StatusOK, &doctor.ListPendingPayload{}))
	g.GET("/patient/:patient_id", handler.Handle(appointments.Handler, appointments.ListByPatient, http.StatusOK, &appointment.ListPatientAppointmentsPayload{}))

	g.GET("/:id", handler.Handle(appointments.Handler, appointments.Detail, http.StatusOK, &appointment.GetAppointmentPayload{}))
	g.PUT("/:id", handler.Handle(appointments.Handler, appointments.Update, http.StatusOK, &appointment.UpdateAppointmentPayload{}))
	g.PUT("/:id/confirm", handler.Handle(appointments.Handler, appointments.Confirm, http.StatusOK, &appointment.ConfirmAppointmentPayload{}))
	g.DELETE("/:id/cancel", handler.Handle(appointments.Handler, appointments.Cancel, http.StatusOK, &appointment.CancelAppointmentPayload{}))
}
