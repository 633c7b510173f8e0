package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/deppfellow/appointment-service/internal/errs"
	"github.com/deppfellow/appointment-service/internal/lib/events"
	"github.com/deppfellow/appointment-service/internal/model/appointment"
	"github.com/deppfellow/appointment-service/internal/model/department"
	"github.com/deppfellow/appointment-service/internal/model/doctor"
	"github.com/deppfellow/appointment-service/internal/model/patient"
	"github.com/deppfellow/appointment-service/internal/model/slot"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// testNow is 08:00 on 2026-03-10 in UTC.
var testNow = time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

func testClock() Clock {
	return Clock{Now: func() time.Time { return testNow }, Location: time.UTC}
}

func noRows(table string) error {
	return fmt.Errorf("table:%s:%w", table, pgx.ErrNoRows)
}

func requireHTTPError(t *testing.T, err error, status int, code string) *errs.HTTPError {
	t.Helper()

	var httpErr *errs.HTTPError
	require.True(t, errors.As(err, &httpErr), "expected *errs.HTTPError, got %v", err)
	require.Equal(t, status, httpErr.Status)
	if code != "" {
		require.Equal(t, code, httpErr.Code)
	}
	return httpErr
}

type fakeDepartments struct {
	items map[int64]*department.Department
}

func (f *fakeDepartments) ListActive(context.Context) ([]department.Department, error) {
	out := []department.Department{}
	for _, d := range f.items {
		if d.IsActive {
			out = append(out, *d)
		}
	}
	return out, nil
}

func (f *fakeDepartments) GetByID(_ context.Context, id int64) (*department.Department, error) {
	if d, ok := f.items[id]; ok {
		return d, nil
	}
	return nil, noRows("departments")
}

type fakeDoctors struct {
	items map[int64]*doctor.Doctor
}

func (f *fakeDoctors) GetByID(_ context.Context, id int64) (*doctor.Doctor, error) {
	if d, ok := f.items[id]; ok {
		return d, nil
	}
	return nil, noRows("doctors")
}

func (f *fakeDoctors) ListActiveByDepartment(_ context.Context, departmentID int64) ([]doctor.Doctor, error) {
	out := []doctor.Doctor{}
	for _, d := range f.items {
		if d.IsActive && d.DepartmentID == departmentID {
			out = append(out, *d)
		}
	}
	return out, nil
}

type fakePatients struct {
	items map[int64]*patient.Patient
}

func (f *fakePatients) GetByID(_ context.Context, id int64) (*patient.Patient, error) {
	if p, ok := f.items[id]; ok {
		return p, nil
	}
	return nil, noRows("patients")
}

type fakeSlots struct {
	items map[int64]*slot.Slot

	lastFilter slot.Filter
	lastToday  time.Time
}

func (f *fakeSlots) GetByID(_ context.Context, id int64) (*slot.Slot, error) {
	if s, ok := f.items[id]; ok {
		return s, nil
	}
	return nil, noRows("slots")
}

func (f *fakeSlots) ListAvailable(_ context.Context, filter slot.Filter, today time.Time) ([]slot.AvailableSlot, error) {
	f.lastFilter = filter
	f.lastToday = today
	return []slot.AvailableSlot{}, nil
}

type fakeAppointments struct {
	items  map[int64]*appointment.PopulatedAppointment
	nextID int64

	created    []appointment.NewAppointment
	updates    []appointment.Changes
	createErr  error
	updateErr  error
	count      int
	listed     []appointment.PopulatedAppointment
	lastFilter appointment.Filter

	// beforeUpdate runs between the service's read and its write, standing
	// in for a concurrent request.
	beforeUpdate func(stored *appointment.PopulatedAppointment)
}

func newFakeAppointments() *fakeAppointments {
	return &fakeAppointments{items: map[int64]*appointment.PopulatedAppointment{}, nextID: 100}
}

func (f *fakeAppointments) Create(_ context.Context, a appointment.NewAppointment) (int64, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.created = append(f.created, a)

	id := f.nextID
	f.nextID++
	f.items[id] = &appointment.PopulatedAppointment{
		Appointment: appointment.Appointment{
			ID:           id,
			PatientID:    a.PatientID,
			DoctorID:     a.DoctorID,
			DepartmentID: a.DepartmentID,
			SlotID:       a.SlotID,
			Reason:       a.Reason,
			IsEmergency:  a.IsEmergency,
			Status:       appointment.StatusPending,
		},
	}
	return id, nil
}

func (f *fakeAppointments) GetByID(_ context.Context, id int64) (*appointment.PopulatedAppointment, error) {
	if a, ok := f.items[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, noRows("appointments")
}

func (f *fakeAppointments) Update(_ context.Context, id int64, c appointment.Changes) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	a, ok := f.items[id]
	if !ok {
		return noRows("appointments")
	}
	if f.beforeUpdate != nil {
		f.beforeUpdate(a)
	}
	f.updates = append(f.updates, c)
	if c.ExpectedStatus != nil && *c.ExpectedStatus != a.Status {
		return fmt.Errorf("appointment %d: %w", id, appointment.ErrStatusChanged)
	}

	if c.Status != nil {
		a.Status = *c.Status
	}
	if c.DoctorID != nil {
		a.DoctorID = *c.DoctorID
	}
	if c.DepartmentID != nil {
		a.DepartmentID = *c.DepartmentID
	}
	if c.SlotID != nil {
		a.SlotID = *c.SlotID
	}
	if c.Reason != nil {
		a.Reason = *c.Reason
	}
	if c.IsEmergency != nil {
		a.IsEmergency = *c.IsEmergency
	}
	a.CancelledBy = c.CancelledBy
	return nil
}

func (f *fakeAppointments) ListPendingByDoctor(_ context.Context, doctorID int64) ([]appointment.PopulatedAppointment, error) {
	out := []appointment.PopulatedAppointment{}
	for _, a := range f.items {
		if a.DoctorID == doctorID && a.Status == appointment.StatusPending {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeAppointments) List(_ context.Context, filter appointment.Filter) ([]appointment.PopulatedAppointment, error) {
	f.lastFilter = filter
	return f.listed, nil
}

func (f *fakeAppointments) Count(_ context.Context, filter appointment.Filter) (int, error) {
	f.lastFilter = filter
	return f.count, nil
}

type fakeNotifier struct {
	events []events.Event
	emails []string
	err    error
}

func (f *fakeNotifier) EnqueueAppointmentEvent(_ context.Context, event events.Event) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeNotifier) EnqueueStatusEmail(_ context.Context, to string, _ events.Event) error {
	if f.err != nil {
		return f.err
	}
	f.emails = append(f.emails, to)
	return nil
}

// fixture is a small hospital: patient 1 (with e-mail) and 2, doctors 10
// and 11 in cardiology (1), doctor 12 inactive, doctor 20 in neurology (2).
type fixture struct {
	departments  *fakeDepartments
	doctors      *fakeDoctors
	patients     *fakePatients
	slots        *fakeSlots
	appointments *fakeAppointments
	notifier     *fakeNotifier

	svc     *AppointmentService
	catalog *CatalogService
}

func newFixture() *fixture {
	email := "asha@example.com"

	f := &fixture{
		departments: &fakeDepartments{items: map[int64]*department.Department{
			1: {Name: "Cardiology", IsActive: true},
			2: {Name: "Neurology", IsActive: true},
		}},
		doctors: &fakeDoctors{items: map[int64]*doctor.Doctor{
			10: {Name: "Dr. Rao", DepartmentID: 1, IsActive: true},
			11: {Name: "Dr. Lim", DepartmentID: 1, IsActive: true},
			12: {Name: "Dr. Gone", DepartmentID: 1, IsActive: false},
			20: {Name: "Dr. Sato", DepartmentID: 2, IsActive: true},
		}},
		patients: &fakePatients{items: map[int64]*patient.Patient{
			1: {Name: "Asha", Email: &email},
			2: {Name: "Binh"},
		}},
		slots: &fakeSlots{items: map[int64]*slot.Slot{
			1: {DoctorID: 10, AvailableDate: "2026-03-12", StartTime: "09:00:00", EndTime: "09:30:00"},
			2: {DoctorID: 10, AvailableDate: "2026-03-12", StartTime: "10:00:00", EndTime: "10:30:00", IsBooked: true},
			3: {DoctorID: 10, AvailableDate: "2026-03-01", StartTime: "09:00:00", EndTime: "09:30:00"},
			4: {DoctorID: 11, AvailableDate: "2026-03-13", StartTime: "11:00:00", EndTime: "11:30:00"},
			5: {DoctorID: 10, AvailableDate: "2026-03-14", StartTime: "08:00:00", EndTime: "08:30:00"},
		}},
		appointments: newFakeAppointments(),
		notifier:     &fakeNotifier{},
	}

	for id, d := range f.doctors.items {
		d.ID = id
	}
	for id, s := range f.slots.items {
		s.ID = id
	}
	for id, d := range f.departments.items {
		d.ID = id
	}

	logger := zerolog.Nop()
	f.svc = NewAppointmentService(AppointmentServiceDeps{
		Appointments: f.appointments,
		Patients:     f.patients,
		Doctors:      f.doctors,
		Slots:        f.slots,
		Notifier:     f.notifier,
		Clock:        testClock(),
		Logger:       &logger,
	})
	f.catalog = NewCatalogService(f.departments, f.doctors, f.slots, testClock())

	return f
}

// seed stores an appointment of patient 1 with doctor 10 on slot 1.
func (f *fixture) seed(id int64, status appointment.Status, date, clock string, emergency bool) *appointment.PopulatedAppointment {
	email := "asha@example.com"
	a := &appointment.PopulatedAppointment{
		Appointment: appointment.Appointment{
			ID:              id,
			PatientID:       1,
			DoctorID:        10,
			DepartmentID:    1,
			SlotID:          1,
			AppointmentDate: date,
			AppointmentTime: clock,
			Reason:          "chest pain checkup",
			IsEmergency:     emergency,
			Status:          status,
		},
		PatientName:    "Asha",
		PatientEmail:   &email,
		DoctorName:     "Dr. Rao",
		DepartmentName: "Cardiology",
	}
	f.appointments.items[id] = a
	return a
}
