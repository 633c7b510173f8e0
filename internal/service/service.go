// Package service contains the business logic.
//
// It sits between the handler and repository layers: it receives
// validated payloads, enforces the scheduling rules and calls the
// repositories through the interfaces below.
package service

import (
	"context"
	"time"

	"github.com/deppfellow/appointment-service/internal/lib/events"
	"github.com/deppfellow/appointment-service/internal/model"
	"github.com/deppfellow/appointment-service/internal/model/appointment"
	"github.com/deppfellow/appointment-service/internal/model/department"
	"github.com/deppfellow/appointment-service/internal/model/doctor"
	"github.com/deppfellow/appointment-service/internal/model/patient"
	"github.com/deppfellow/appointment-service/internal/model/slot"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

type DepartmentRepository interface {
	ListActive(ctx context.Context) ([]department.Department, error)
	GetByID(ctx context.Context, id int64) (*department.Department, error)
}

type DoctorRepository interface {
	GetByID(ctx context.Context, id int64) (*doctor.Doctor, error)
	ListActiveByDepartment(ctx context.Context, departmentID int64) ([]doctor.Doctor, error)
}

type PatientRepository interface {
	GetByID(ctx context.Context, id int64) (*patient.Patient, error)
}

type SlotRepository interface {
	GetByID(ctx context.Context, id int64) (*slot.Slot, error)
	ListAvailable(ctx context.Context, filter slot.Filter, today time.Time) ([]slot.AvailableSlot, error)
}

type AppointmentRepository interface {
	Create(ctx context.Context, a appointment.NewAppointment) (int64, error)
	GetByID(ctx context.Context, id int64) (*appointment.PopulatedAppointment, error)
	Update(ctx context.Context, id int64, changes appointment.Changes) error
	ListPendingByDoctor(ctx context.Context, doctorID int64) ([]appointment.PopulatedAppointment, error)
	List(ctx context.Context, filter appointment.Filter) ([]appointment.PopulatedAppointment, error)
	Count(ctx context.Context, filter appointment.Filter) (int, error)
}

// Notifier hands status changes to background delivery.
type Notifier interface {
	EnqueueAppointmentEvent(ctx context.Context, event events.Event) error
	EnqueueStatusEmail(ctx context.Context, to string, event events.Event) error
}

// Clock supplies the current time in the hospital's zone.
type Clock struct {
	Now      func() time.Time
	Location *time.Location
}

// NewClock returns a wall clock in loc.
func NewClock(loc *time.Location) Clock {
	return Clock{Now: time.Now, Location: loc}
}

func (c Clock) now() time.Time {
	return c.Now().In(c.Location)
}

// today returns midnight of the current date.
func (c Clock) today() time.Time {
	y, m, d := c.now().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.Location)
}

func (c Clock) todayString() string {
	return c.now().Format(model.DateLayout)
}

func isNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
