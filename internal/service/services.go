package service

import (
	"github.com/deppfellow/appointment-service/internal/lib/job"
	"github.com/deppfellow/appointment-service/internal/repository"
	"github.com/deppfellow/appointment-service/internal/server"
)

type Services struct {
	Catalog     *CatalogService
	Appointment *AppointmentService
	Job         *job.JobService
}

func NewService(s *server.Server, repos *repository.Repositories) (*Services, error) {
	clock := NewClock(s.Location)

	appointmentService := NewAppointmentService(AppointmentServiceDeps{
		Appointments: repos.Appointment,
		Patients:     repos.Patient,
		Doctors:      repos.Doctor,
		Slots:        repos.Slot,
		Notifier:     s.Job,
		Clock:        clock,
		Logger:       s.Logger,
	})

	return &Services{
		Catalog:     NewCatalogService(repos.Department, repos.Doctor, repos.Slot, clock),
		Appointment: appointmentService,
		Job:         s.Job,
	}, nil
}
