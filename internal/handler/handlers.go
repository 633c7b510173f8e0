// Package handler is the HTTP layer: it binds and validates requests,
// calls the services and writes their results.
package handler

import (
	"github.com/deppfellow/appointment-service/internal/server"
	"github.com/deppfellow/appointment-service/internal/service"
)

type Handlers struct {
	Health      *HealthHandler
	OpenAPI     *OpenAPIHandler
	Catalog     *CatalogHandler
	Appointment *AppointmentHandler
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health:      NewHealthHandler(s),
		OpenAPI:     NewOpenAPIHandler(s),
		Catalog:     NewCatalogHandler(s, services.Catalog),
		Appointment: NewAppointmentHandler(s, services.Appointment),
	}
}
