package handler

import (
	"github.com/deppfellow/appointment-service/internal/model"
	"github.com/deppfellow/appointment-service/internal/model/appointment"
	"github.com/deppfellow/appointment-service/internal/model/doctor"
	"github.com/deppfellow/appointment-service/internal/server"
	"github.com/deppfellow/appointment-service/internal/service"
	"github.com/labstack/echo/v4"
)

type AppointmentHandler struct {
	Handler
	appointments *service.AppointmentService
}

func NewAppointmentHandler(s *server.Server, appointments *service.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{
		Handler:      NewHandler(s),
		appointments: appointments,
	}
}

func (h *AppointmentHandler) Create(c echo.Context, payload *appointment.CreateAppointmentPayload) (*appointment.Response, error) {
	return h.appointments.Create(c.Request().Context(), payload)
}

func (h *AppointmentHandler) ListPendingByDoctor(c echo.Context, payload *doctor.ListPendingPayload) ([]appointment.PendingResponse, error) {
	return h.appointments.ListPendingByDoctor(c.Request().Context(), payload.DoctorID)
}

func (h *AppointmentHandler) Confirm(c echo.Context, payload *appointment.ConfirmAppointmentPayload) (model.MessageResponse, error) {
	return h.appointments.Confirm(c.Request().Context(), payload)
}

func (h *AppointmentHandler) Update(c echo.Context, payload *appointment.UpdateAppointmentPayload) (*appointment.Response, error) {
	return h.appointments.Update(c.Request().Context(), payload)
}

func (h *AppointmentHandler) Cancel(c echo.Context, payload *appointment.CancelAppointmentPayload) (model.MessageResponse, error) {
	return h.appointments.Cancel(c.Request().Context(), payload)
}

func (h *AppointmentHandler) List(c echo.Context, payload *appointment.ListAppointmentsPayload) (*model.PaginatedResponse[appointment.Response], error) {
	return h.appointments.List(c.Request().Context(), payload)
}

func (h *AppointmentHandler) Detail(c echo.Context, payload *appointment.GetAppointmentPayload) (*appointment.DetailResponse, error) {
	return h.appointments.Detail(c.Request().Context(), payload.ID)
}

func (h *AppointmentHandler) ListByPatient(c echo.Context, payload *appointment.ListPatientAppointmentsPayload) ([]appointment.Response, error) {
	return h.appointments.ListByPatient(c.Request().Context(), payload)
}
