package service

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/deppfellow/appointment-service/internal/errs"
	"github.com/deppfellow/appointment-service/internal/lib/events"
	"github.com/deppfellow/appointment-service/internal/model/appointment"
	"github.com/deppfellow/appointment-service/internal/sqlerr"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createPayload() *appointment.CreateAppointmentPayload {
	return &appointment.CreateAppointmentPayload{
		PatientID:    1,
		DoctorID:     10,
		DepartmentID: 1,
		SlotID:       1,
		Reason:       "chest pain checkup",
	}
}

func TestCreate(t *testing.T) {
	f := newFixture()

	resp, err := f.svc.Create(context.Background(), createPayload())
	require.NoError(t, err)

	assert.Equal(t, int64(100), resp.ID)
	assert.Equal(t, appointment.StatusPending, resp.Status)
	require.Len(t, f.appointments.created, 1)
	assert.Equal(t, int64(1), f.appointments.created[0].SlotID)
	assert.Empty(t, f.notifier.events)
}

func TestCreate_Rules(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *appointment.CreateAppointmentPayload)
		status int
		code   string
	}{
		{"unknown patient", func(p *appointment.CreateAppointmentPayload) { p.PatientID = 99 }, http.StatusNotFound, errs.CodePatientNotFound},
		{"unknown doctor", func(p *appointment.CreateAppointmentPayload) { p.DoctorID = 99 }, http.StatusNotFound, errs.CodeDoctorNotFound},
		{"inactive doctor", func(p *appointment.CreateAppointmentPayload) { p.DoctorID = 12 }, http.StatusNotFound, errs.CodeDoctorNotFound},
		{"doctor outside department", func(p *appointment.CreateAppointmentPayload) { p.DepartmentID = 2 }, http.StatusBadRequest, errs.CodeDoctorDepartmentMismatch},
		{"unknown slot", func(p *appointment.CreateAppointmentPayload) { p.SlotID = 99 }, http.StatusBadRequest, errs.CodeSlotUnavailable},
		{"booked slot", func(p *appointment.CreateAppointmentPayload) { p.SlotID = 2 }, http.StatusBadRequest, errs.CodeSlotUnavailable},
		{"past slot", func(p *appointment.CreateAppointmentPayload) { p.SlotID = 3 }, http.StatusBadRequest, errs.CodeSlotUnavailable},
		{"slot of another doctor", func(p *appointment.CreateAppointmentPayload) { p.SlotID = 4 }, http.StatusBadRequest, errs.CodeSlotDoctorMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			p := createPayload()
			tt.mutate(p)

			_, err := f.svc.Create(context.Background(), p)
			requireHTTPError(t, err, tt.status, tt.code)
			assert.Empty(t, f.appointments.created)
		})
	}
}

func TestCreate_PatientMessage(t *testing.T) {
	f := newFixture()
	p := createPayload()
	p.PatientID = 7

	_, err := f.svc.Create(context.Background(), p)
	httpErr := requireHTTPError(t, err, http.StatusNotFound, errs.CodePatientNotFound)
	assert.Equal(t, "Patient with id 7 not found. Please ensure patient is registered in the patient management system.", httpErr.Message)
}

func TestCreate_LostRaceForSlot(t *testing.T) {
	f := newFixture()
	f.appointments.createErr = &pgconn.PgError{Code: "23505", ConstraintName: sqlerr.ActiveSlotConstraint}

	_, err := f.svc.Create(context.Background(), createPayload())
	requireHTTPError(t, err, http.StatusBadRequest, errs.CodeSlotAlreadyBooked)
}

func TestListPendingByDoctor(t *testing.T) {
	f := newFixture()
	f.seed(1, appointment.StatusPending, "2026-03-12", "09:00:00", false)
	f.seed(2, appointment.StatusConfirmed, "2026-03-12", "10:00:00", false)

	items, err := f.svc.ListPendingByDoctor(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(1), items[0].ID)

	items, err = f.svc.ListPendingByDoctor(context.Background(), 11)
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = f.svc.ListPendingByDoctor(context.Background(), 99)
	requireHTTPError(t, err, http.StatusNotFound, errs.CodeDoctorNotFound)
}

func TestConfirm(t *testing.T) {
	f := newFixture()
	f.seed(1, appointment.StatusPending, "2026-03-12", "09:00:00", false)

	resp, err := f.svc.Confirm(context.Background(), &appointment.ConfirmAppointmentPayload{
		ID: 1, ConfirmedBy: 10, Action: "CONFIRM",
	})
	require.NoError(t, err)
	assert.Equal(t, "Appointment 1 has been confirmed successfully", resp.Message)
	assert.Equal(t, "success", resp.Status)

	require.Len(t, f.appointments.updates, 1)
	u := f.appointments.updates[0]
	assert.Equal(t, appointment.StatusConfirmed, *u.Status)
	assert.Equal(t, int64(10), *u.ConfirmedBy)
	assert.Equal(t, testNow, *u.ConfirmedAt)

	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, events.RoutingKeyConfirmed, f.notifier.events[0].EventType)
	assert.Equal(t, int64(1), f.notifier.events[0].Data.AppointmentID)
	assert.Equal(t, []string{"asha@example.com"}, f.notifier.emails)
}

func TestConfirm_Reject(t *testing.T) {
	f := newFixture()
	f.seed(1, appointment.StatusPending, "2026-03-12", "09:00:00", false)

	_, err := f.svc.Confirm(context.Background(), &appointment.ConfirmAppointmentPayload{
		ID: 1, ConfirmedBy: 10, Action: "reject",
	})
	requireHTTPError(t, err, http.StatusBadRequest, errs.CodeRejectionReasonRequired)

	blank := "   "
	_, err = f.svc.Confirm(context.Background(), &appointment.ConfirmAppointmentPayload{
		ID: 1, ConfirmedBy: 10, Action: "reject", RejectionReason: &blank,
	})
	requireHTTPError(t, err, http.StatusBadRequest, errs.CodeRejectionReasonRequired)

	reason := "Doctor on leave"
	resp, err := f.svc.Confirm(context.Background(), &appointment.ConfirmAppointmentPayload{
		ID: 1, ConfirmedBy: 10, Action: "reject", RejectionReason: &reason,
	})
	require.NoError(t, err)
	assert.Equal(t, "Appointment 1 has been rejected", resp.Message)

	u := f.appointments.updates[0]
	assert.Equal(t, appointment.StatusRejected, *u.Status)
	assert.Equal(t, reason, *u.RejectionReason)
	assert.Nil(t, u.ConfirmedBy)

	require.Len(t, f.notifier.events, 1)
	assert.Equal(t, events.RoutingKeyRejected, f.notifier.events[0].EventType)
}

func TestConfirm_Rules(t *testing.T) {
	f := newFixture()
	f.seed(1, appointment.StatusPending, "2026-03-12", "09:00:00", false)
	f.seed(2, appointment.StatusConfirmed, "2026-03-12", "10:00:00", false)

	_, err := f.svc.Confirm(context.Background(), &appointment.ConfirmAppointmentPayload{ID: 99, ConfirmedBy: 10, Action: "confirm"})
	requireHTTPError(t, err, http.StatusNotFound, errs.CodeAppointmentNotFound)

	_, err = f.svc.Confirm(context.Background(), &appointment.ConfirmAppointmentPayload{ID: 2, ConfirmedBy: 10, Action: "confirm"})
	httpErr := requireHTTPError(t, err, http.StatusBadRequest, errs.CodeInvalidStatusTransition)
	assert.Equal(t, "Appointment is not in PENDING status, current status: CONFIRMED", httpErr.Message)

	_, err = f.svc.Confirm(context.Background(), &appointment.ConfirmAppointmentPayload{ID: 1, ConfirmedBy: 11, Action: "confirm"})
	requireHTTPError(t, err, http.StatusForbidden, "")

	_, err = f.svc.Confirm(context.Background(), &appointment.ConfirmAppointmentPayload{ID: 1, ConfirmedBy: 10, Action: "maybe"})
	requireHTTPError(t, err, http.StatusBadRequest, errs.CodeInvalidConfirmationAction)

	assert.Empty(t, f.appointments.updates)
	assert.Empty(t, f.notifier.events)
}

func TestConfirm_NotificationFailureIsIgnored(t *testing.T) {
	f := newFixture()
	f.seed(1, appointment.StatusPending, "2026-03-12", "09:00:00", false)
	f.notifier.err = errors.New("redis down")

	_, err := f.svc.Confirm(context.Background(), &appointment.ConfirmAppointmentPayload{ID: 1, ConfirmedBy: 10, Action: "confirm"})
	require.NoError(t, err)
	assert.Equal(t, appointment.StatusConfirmed, f.appointments.items[1].Status)
}

func TestUpdate(t *testing.T) {
	f := newFixture()
	f.seed(1, appointment.StatusPending, "2026-03-12", "09:00:00", false)

	newSlot := int64(5)
	reason := "follow-up with results"
	resp, err := f.svc.Update(context.Background(), &appointment.UpdateAppointmentPayload{
		ID: 1, UpdatedBy: 1, SlotID: &newSlot, Reason: &reason,
	})
	require.NoError(t, err)
	assert.Equal(t, reason, resp.Reason)
	assert.Equal(t, int64(5), f.appointments.items[1].SlotID)

	u := f.appointments.updates[0]
	assert.Nil(t, u.DoctorID)
	assert.Equal(t, int64(5), *u.SlotID)
}

func TestUpdate_ChangeDoctorAndSlot(t *testing.T) {
	f := newFixture()
	f.seed(1, appointment.StatusConfirmed, "2026-03-12", "09:00:00", false)

	doctorID, slotID := int64(11), int64(4)
	_, err := f.svc.Update(context.Background(), &appointment.UpdateAppointmentPayload{
		ID: 1, UpdatedBy: 1, DoctorID: &doctorID, SlotID: &slotID,
	})
	require.NoError(t, err)

	u := f.appointments.updates[0]
	assert.Equal(t, int64(11), *u.DoctorID)
	assert.Nil(t, u.DepartmentID)
	assert.Equal(t, int64(4), *u.SlotID)
}

func TestUpdate_DoctorFromOtherDepartmentMovesDepartment(t *testing.T) {
	f := newFixture()
	f.slots.items[4].DoctorID = 20
	f.seed(1, appointment.StatusPending, "2026-03-12", "09:00:00", false)

	doctorID, slotID := int64(20), int64(4)
	_, err := f.svc.Update(context.Background(), &appointment.UpdateAppointmentPayload{
		ID: 1, UpdatedBy: 1, DoctorID: &doctorID, SlotID: &slotID,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), *f.appointments.updates[0].DepartmentID)
}

func TestUpdate_Rules(t *testing.T) {
	ptr := func(v int64) *int64 { return &v }

	tests := []struct {
		name    string
		status  appointment.Status
		date    string
		payload appointment.UpdateAppointmentPayload
		code    int
		errCode string
	}{
		{"not owner", appointment.StatusPending, "2026-03-12", appointment.UpdateAppointmentPayload{UpdatedBy: 2}, http.StatusForbidden, ""},
		{"rejected", appointment.StatusRejected, "2026-03-12", appointment.UpdateAppointmentPayload{UpdatedBy: 1}, http.StatusBadRequest, errs.CodeInvalidStatusTransition},
		{"cancelled", appointment.StatusCancelled, "2026-03-12", appointment.UpdateAppointmentPayload{UpdatedBy: 1}, http.StatusBadRequest, errs.CodeInvalidStatusTransition},
		{"past", appointment.StatusPending, "2026-03-09", appointment.UpdateAppointmentPayload{UpdatedBy: 1}, http.StatusBadRequest, errs.CodeAppointmentInPast},
		{"inactive doctor", appointment.StatusPending, "2026-03-12", appointment.UpdateAppointmentPayload{UpdatedBy: 1, DoctorID: ptr(12)}, http.StatusNotFound, errs.CodeDoctorNotFound},
		{"missing slot", appointment.StatusPending, "2026-03-12", appointment.UpdateAppointmentPayload{UpdatedBy: 1, SlotID: ptr(99)}, http.StatusBadRequest, errs.CodeSlotUnavailable},
		{"booked slot", appointment.StatusPending, "2026-03-12", appointment.UpdateAppointmentPayload{UpdatedBy: 1, SlotID: ptr(2)}, http.StatusBadRequest, errs.CodeSlotUnavailable},
		{"slot of other doctor", appointment.StatusPending, "2026-03-12", appointment.UpdateAppointmentPayload{UpdatedBy: 1, SlotID: ptr(4)}, http.StatusBadRequest, errs.CodeSlotDoctorMismatch},
		{"new doctor keeps old slot", appointment.StatusPending, "2026-03-12", appointment.UpdateAppointmentPayload{UpdatedBy: 1, DoctorID: ptr(11)}, http.StatusBadRequest, errs.CodeSlotDoctorMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.seed(1, tt.status, tt.date, "09:00:00", false)
			p := tt.payload
			p.ID = 1

			_, err := f.svc.Update(context.Background(), &p)
			requireHTTPError(t, err, tt.code, tt.errCode)
			assert.Empty(t, f.appointments.updates)
		})
	}
}

func TestUpdate_TodayIsNotPast(t *testing.T) {
	f := newFixture()
	f.seed(1, appointment.StatusPending, "2026-03-10", "17:00:00", false)

	emergency := true
	_, err := f.svc.Update(context.Background(), &appointment.UpdateAppointmentPayload{ID: 1, UpdatedBy: 1, IsEmergency: &emergency})
	require.NoError(t, err)
	assert.True(t, *f.appointments.updates[0].IsEmergency)
}

func TestCancel_PendingSendsEmailOnly(t *testing.T) {
	f := newFixture()
	f.seed(1, appointment.StatusPending, "2026-03-12", "09:00:00", false)

	reason := "feeling better"
	resp, err := f.svc.Cancel(context.Background(), &appointment.CancelAppointmentPayload{
		ID: 1, CancelledByUser: 1, CancelledBy: appointment.CancelledByPatient, CancellationReason: &reason,
	})
	require.NoError(t, err)
	assert.Equal(t, "Appointment 1 has been cancelled successfully", resp.Message)

	u := f.appointments.updates[0]
	assert.Equal(t, appointment.StatusCancelled, *u.Status)
	assert.Equal(t, appointment.CancelledByPatient, *u.CancelledBy)
	assert.Equal(t, testNow, *u.CancelledAt)

	assert.Empty(t, f.notifier.events)
	assert.Equal(t, []string{"asha@example.com"}, f.notifier.emails)
}

func TestCancel_ConfirmedPublishesEvent(t *testing.T) {
	f := newFixture()
	f.seed(1, appointment.StatusConfirmed, "2026-03-12", "09:00:00", false)

	_, err := f.svc.Cancel(context.Background(), &appointment.CancelAppointmentPayload{
		ID: 1, CancelledByUser: 10, CancelledBy: appointment.CancelledByDoctor,
	})
	require.NoError(t, err)

	require.Len(t, f.notifier.events, 1)
	event := f.notifier.events[0]
	assert.Equal(t, events.RoutingKeyCancelled, event.EventType)
	require.NotNil(t, event.Data.WasPreviouslyConfirmed)
	assert.True(t, *event.Data.WasPreviouslyConfirmed)
}

func TestCancel_Cutoffs(t *testing.T) {
	tests := []struct {
		name      string
		clock     string
		emergency bool
		ok        bool
	}{
		{"regular with 3h notice", "11:00:00", false, true},
		{"regular at exactly 2h", "10:00:00", false, true},
		{"regular with 1h59m notice", "09:59:00", false, false},
		{"emergency with 1h notice", "09:00:00", true, true},
		{"emergency with 20m notice", "08:20:00", true, false},
		{"already started", "07:00:00", true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.seed(1, appointment.StatusPending, "2026-03-10", tt.clock, tt.emergency)

			_, err := f.svc.Cancel(context.Background(), &appointment.CancelAppointmentPayload{
				ID: 1, CancelledByUser: 1, CancelledBy: appointment.CancelledByPatient,
			})
			if tt.ok {
				require.NoError(t, err)
				return
			}

			httpErr := requireHTTPError(t, err, http.StatusBadRequest, errs.CodeCancellationWindowClosed)
			if tt.emergency {
				assert.Contains(t, httpErr.Message, "30 minutes")
			} else {
				assert.Contains(t, httpErr.Message, "2 hours")
			}
		})
	}
}

func TestCancel_Rules(t *testing.T) {
	f := newFixture()
	f.seed(1, appointment.StatusCancelled, "2026-03-12", "09:00:00", false)
	f.seed(2, appointment.StatusRejected, "2026-03-12", "09:00:00", false)
	f.seed(3, appointment.StatusPending, "2026-03-12", "09:00:00", false)

	_, err := f.svc.Cancel(context.Background(), &appointment.CancelAppointmentPayload{ID: 1, CancelledByUser: 1, CancelledBy: appointment.CancelledByPatient})
	httpErr := requireHTTPError(t, err, http.StatusBadRequest, errs.CodeInvalidStatusTransition)
	assert.Equal(t, "Appointment is already cancelled", httpErr.Message)

	_, err = f.svc.Cancel(context.Background(), &appointment.CancelAppointmentPayload{ID: 2, CancelledByUser: 1, CancelledBy: appointment.CancelledByPatient})
	httpErr = requireHTTPError(t, err, http.StatusBadRequest, errs.CodeInvalidStatusTransition)
	assert.Equal(t, "Cannot cancel appointment with status: REJECTED", httpErr.Message)

	_, err = f.svc.Cancel(context.Background(), &appointment.CancelAppointmentPayload{ID: 3, CancelledByUser: 2, CancelledBy: appointment.CancelledByPatient})
	requireHTTPError(t, err, http.StatusForbidden, "")

	// A patient id that happens to equal the doctor id is still checked
	// against the doctor when cancelling as DOCTOR.
	_, err = f.svc.Cancel(context.Background(), &appointment.CancelAppointmentPayload{ID: 3, CancelledByUser: 1, CancelledBy: appointment.CancelledByDoctor})
	requireHTTPError(t, err, http.StatusForbidden, "")

	_, err = f.svc.Cancel(context.Background(), &appointment.CancelAppointmentPayload{ID: 42, CancelledByUser: 1, CancelledBy: appointment.CancelledByPatient})
	requireHTTPError(t, err, http.StatusNotFound, errs.CodeAppointmentNotFound)

	assert.Empty(t, f.appointments.updates)
}

func TestList(t *testing.T) {
	f := newFixture()
	a := f.seed(1, appointment.StatusPending, "2026-03-12", "09:00:00", false)
	f.appointments.count = 25
	f.appointments.listed = []appointment.PopulatedAppointment{*a}

	resp, err := f.svc.List(context.Background(), &appointment.ListAppointmentsPayload{
		Page: 3, PageSize: 10, Status: "pending", IsEmergency: "false", FromDate: "2026-03-01",
	})
	require.NoError(t, err)

	assert.Len(t, resp.Data, 1)
	assert.Equal(t, 3, resp.Meta.TotalPages)
	assert.False(t, resp.Meta.HasNext)
	assert.True(t, resp.Meta.HasPrev)

	filter := f.appointments.lastFilter
	assert.Equal(t, 10, filter.Limit)
	assert.Equal(t, 20, filter.Offset)
	assert.Equal(t, appointment.StatusPending, *filter.Status)
	assert.False(t, *filter.IsEmergency)
	assert.Equal(t, "2026-03-01", filter.FromDate.Format("2006-01-02"))
}

func TestList_Defaults(t *testing.T) {
	f := newFixture()
	f.appointments.count = 1

	resp, err := f.svc.List(context.Background(), &appointment.ListAppointmentsPayload{})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Meta.Page)
	assert.Equal(t, appointment.DefaultPageSize, resp.Meta.PageSize)
	assert.NotNil(t, resp.Data)
}

func TestList_Errors(t *testing.T) {
	f := newFixture()

	_, err := f.svc.List(context.Background(), &appointment.ListAppointmentsPayload{Page: 1, PageSize: 10})
	requireHTTPError(t, err, http.StatusNotFound, errs.CodeNoAppointmentsFound)

	f.appointments.count = 10
	_, err = f.svc.List(context.Background(), &appointment.ListAppointmentsPayload{Page: 2, PageSize: 10})
	requireHTTPError(t, err, http.StatusBadRequest, errs.CodePageOutOfRange)

	_, err = f.svc.List(context.Background(), &appointment.ListAppointmentsPayload{FromDate: "2026-03-10", ToDate: "2026-03-01"})
	requireHTTPError(t, err, http.StatusBadRequest, errs.CodeInvalidDateRange)
}

func TestDetail(t *testing.T) {
	f := newFixture()
	f.seed(1, appointment.StatusPending, "2026-03-12", "09:00:00", false)

	resp, err := f.svc.Detail(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), resp.SlotID)
	assert.Equal(t, "Dr. Rao", resp.DoctorName)

	_, err = f.svc.Detail(context.Background(), 2)
	httpErr := requireHTTPError(t, err, http.StatusNotFound, errs.CodeAppointmentNotFound)
	assert.Equal(t, "Appointment with id 2 not found", httpErr.Message)
}

func TestListByPatient(t *testing.T) {
	f := newFixture()
	a := f.seed(1, appointment.StatusConfirmed, "2026-03-12", "09:00:00", false)
	f.appointments.listed = []appointment.PopulatedAppointment{*a}

	items, err := f.svc.ListByPatient(context.Background(), &appointment.ListPatientAppointmentsPayload{PatientID: 1, Status: "Confirmed"})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, appointment.StatusConfirmed, *f.appointments.lastFilter.Status)
	assert.Zero(t, f.appointments.lastFilter.Limit)

	f.appointments.listed = nil
	items, err = f.svc.ListByPatient(context.Background(), &appointment.ListPatientAppointmentsPayload{PatientID: 2})
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)

	_, err = f.svc.ListByPatient(context.Background(), &appointment.ListPatientAppointmentsPayload{PatientID: 1, Status: "DONE"})
	httpErr := requireHTTPError(t, err, http.StatusBadRequest, errs.CodeInvalidStatus)
	assert.Equal(t, "Invalid status: DONE", httpErr.Message)

	_, err = f.svc.ListByPatient(context.Background(), &appointment.ListPatientAppointmentsPayload{PatientID: 9})
	requireHTTPError(t, err, http.StatusNotFound, errs.CodePatientNotFound)
}

func TestStatusWritesAreConditional(t *testing.T) {
	f := newFixture()
	f.seed(1, appointment.StatusPending, "2026-03-12", "09:00:00", false)
	f.seed(2, appointment.StatusConfirmed, "2026-03-14", "10:00:00", false)
	f.seed(3, appointment.StatusPending, "2026-03-14", "11:00:00", false)

	_, err := f.svc.Confirm(context.Background(), &appointment.ConfirmAppointmentPayload{ID: 1, ConfirmedBy: 10, Action: "confirm"})
	require.NoError(t, err)

	_, err = f.svc.Cancel(context.Background(), &appointment.CancelAppointmentPayload{ID: 2, CancelledBy: appointment.CancelledByPatient, CancelledByUser: 1})
	require.NoError(t, err)

	reason := "follow-up on results"
	_, err = f.svc.Update(context.Background(), &appointment.UpdateAppointmentPayload{ID: 3, UpdatedBy: 1, Reason: &reason})
	require.NoError(t, err)

	require.Len(t, f.appointments.updates, 3)
	for i, want := range []appointment.Status{appointment.StatusPending, appointment.StatusConfirmed, appointment.StatusPending} {
		require.NotNil(t, f.appointments.updates[i].ExpectedStatus)
		assert.Equal(t, want, *f.appointments.updates[i].ExpectedStatus)
	}
}

func TestConcurrentStatusChange(t *testing.T) {
	reason := "Doctor on leave"
	newReason := "need a later slot"

	tests := []struct {
		name    string
		initial appointment.Status
		stored  appointment.Status
		call    func(svc *AppointmentService) error
	}{
		{
			name:    "confirm after patient cancelled",
			initial: appointment.StatusPending,
			stored:  appointment.StatusCancelled,
			call: func(svc *AppointmentService) error {
				_, err := svc.Confirm(context.Background(), &appointment.ConfirmAppointmentPayload{ID: 1, ConfirmedBy: 10, Action: "confirm"})
				return err
			},
		},
		{
			name:    "reject after another confirm",
			initial: appointment.StatusPending,
			stored:  appointment.StatusConfirmed,
			call: func(svc *AppointmentService) error {
				_, err := svc.Confirm(context.Background(), &appointment.ConfirmAppointmentPayload{ID: 1, ConfirmedBy: 10, Action: "reject", RejectionReason: &reason})
				return err
			},
		},
		{
			name:    "cancel pending that was confirmed meanwhile",
			initial: appointment.StatusPending,
			stored:  appointment.StatusConfirmed,
			call: func(svc *AppointmentService) error {
				_, err := svc.Cancel(context.Background(), &appointment.CancelAppointmentPayload{ID: 1, CancelledBy: appointment.CancelledByPatient, CancelledByUser: 1})
				return err
			},
		},
		{
			name:    "update after doctor rejected",
			initial: appointment.StatusPending,
			stored:  appointment.StatusRejected,
			call: func(svc *AppointmentService) error {
				_, err := svc.Update(context.Background(), &appointment.UpdateAppointmentPayload{ID: 1, UpdatedBy: 1, Reason: &newReason})
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.seed(1, tt.initial, "2026-03-14", "09:00:00", false)
			f.appointments.beforeUpdate = func(stored *appointment.PopulatedAppointment) {
				stored.Status = tt.stored
			}

			err := tt.call(f.svc)

			requireHTTPError(t, err, http.StatusBadRequest, errs.CodeInvalidStatusTransition)
			assert.Equal(t, tt.stored, f.appointments.items[1].Status)
			assert.Empty(t, f.notifier.events)
			assert.Empty(t, f.notifier.emails)
		})
	}
}
