package handler

import (
	"github.com/deppfellow/appointment-service/internal/model/department"
	"github.com/deppfellow/appointment-service/internal/model/doctor"
	"github.com/deppfellow/appointment-service/internal/model/slot"
	"github.com/deppfellow/appointment-service/internal/server"
	"github.com/deppfellow/appointment-service/internal/service"
	"github.com/labstack/echo/v4"
)

// CatalogHandler serves the lookups a patient needs before booking.
type CatalogHandler struct {
	Handler
	catalog *service.CatalogService
}

func NewCatalogHandler(s *server.Server, catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{
		Handler: NewHandler(s),
		catalog: catalog,
	}
}

func (h *CatalogHandler) ListDepartments(c echo.Context, _ *department.ListDepartmentsPayload) ([]department.Department, error) {
	return h.catalog.ListDepartments(c.Request().Context())
}

func (h *CatalogHandler) ListDoctors(c echo.Context, payload *department.ListDoctorsPayload) ([]doctor.Doctor, error) {
	return h.catalog.ListDoctorsByDepartment(c.Request().Context(), payload.DepartmentID)
}

func (h *CatalogHandler) ListAvailableSlots(c echo.Context, payload *slot.ListAvailablePayload) ([]slot.AvailableSlot, error) {
	return h.catalog.ListAvailableSlots(c.Request().Context(), payload)
}
