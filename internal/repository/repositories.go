package repository

import (
	"github.com/deppfellow/appointment-service/internal/server"
)

// Repositories is a container for all repository instances.
type Repositories struct {
	Department  *DepartmentRepository
	Doctor      *DoctorRepository
	Patient     *PatientRepository
	Slot        *SlotRepository
	Appointment *AppointmentRepository
}

// NewRepositories builds every repository on the shared pool.
func NewRepositories(s *server.Server) *Repositories {
	return newRepositories(s.DB.Pool)
}

func newRepositories(db DBTX) *Repositories {
	return &Repositories{
		Department:  NewDepartmentRepository(db),
		Doctor:      NewDoctorRepository(db),
		Patient:     NewPatientRepository(db),
		Slot:        NewSlotRepository(db),
		Appointment: NewAppointmentRepository(db),
	}
}
