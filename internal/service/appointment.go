package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/deppfellow/appointment-service/internal/errs"
	"github.com/deppfellow/appointment-service/internal/lib/events"
	"github.com/deppfellow/appointment-service/internal/model"
	"github.com/deppfellow/appointment-service/internal/model/appointment"
	"github.com/deppfellow/appointment-service/internal/model/doctor"
	"github.com/deppfellow/appointment-service/internal/sqlerr"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

type AppointmentService struct {
	appointments AppointmentRepository
	patients     PatientRepository
	doctors      DoctorRepository
	slots        SlotRepository
	notifier     Notifier
	clock        Clock
	logger       *zerolog.Logger
}

type AppointmentServiceDeps struct {
	Appointments AppointmentRepository
	Patients     PatientRepository
	Doctors      DoctorRepository
	Slots        SlotRepository
	// Notifier may be nil, in which case no events or e-mails are sent.
	Notifier Notifier
	Clock    Clock
	Logger   *zerolog.Logger
}

func NewAppointmentService(deps AppointmentServiceDeps) *AppointmentService {
	return &AppointmentService{
		appointments: deps.Appointments,
		patients:     deps.Patients,
		doctors:      deps.Doctors,
		slots:        deps.Slots,
		notifier:     deps.Notifier,
		clock:        deps.Clock,
		logger:       deps.Logger,
	}
}

// Create books a slot for a patient. Checks run in a fixed order so the
// first failing rule decides the error.
func (s *AppointmentService) Create(ctx context.Context, p *appointment.CreateAppointmentPayload) (*appointment.Response, error) {
	if err := s.requirePatient(ctx, p.PatientID); err != nil {
		return nil, err
	}

	doc, err := s.doctors.GetByID(ctx, p.DoctorID)
	if err != nil && !isNotFound(err) {
		return nil, err
	}
	if doc == nil || !doc.IsActive {
		return nil, errs.NewNotFoundError(
			fmt.Sprintf("Doctor with id %d not found or inactive", p.DoctorID), true, strPtr(errs.CodeDoctorNotFound))
	}

	if doc.DepartmentID != p.DepartmentID {
		return nil, errs.BadRequest(errs.CodeDoctorDepartmentMismatch, "Doctor does not belong to the specified department")
	}

	sl, err := s.slots.GetByID(ctx, p.SlotID)
	if err != nil && !isNotFound(err) {
		return nil, err
	}
	if sl == nil || !sl.IsAvailable(s.clock.todayString()) {
		return nil, errs.BadRequest(errs.CodeSlotUnavailable, "Selected time slot is not available")
	}

	if sl.DoctorID != p.DoctorID {
		return nil, errs.BadRequest(errs.CodeSlotDoctorMismatch, "Invalid slot for the selected doctor")
	}

	id, err := s.appointments.Create(ctx, appointment.NewAppointment{
		PatientID:    p.PatientID,
		DoctorID:     p.DoctorID,
		DepartmentID: p.DepartmentID,
		SlotID:       p.SlotID,
		Reason:       p.Reason,
		IsEmergency:  p.IsEmergency,
	})
	if err != nil {
		return nil, slotConflict(err)
	}

	s.logger.Info().
		Int64("appointment_id", id).
		Int64("patient_id", p.PatientID).
		Int64("doctor_id", p.DoctorID).
		Int64("slot_id", p.SlotID).
		Bool("is_emergency", p.IsEmergency).
		Msg("appointment booked")

	created, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := created.ToResponse()
	return &resp, nil
}

func (s *AppointmentService) ListPendingByDoctor(ctx context.Context, doctorID int64) ([]appointment.PendingResponse, error) {
	if _, err := s.doctors.GetByID(ctx, doctorID); err != nil {
		if isNotFound(err) {
			return nil, errs.NotFound(errs.CodeDoctorNotFound, "Doctor", doctorID)
		}
		return nil, err
	}

	items, err := s.appointments.ListPendingByDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}

	out := make([]appointment.PendingResponse, 0, len(items))
	for i := range items {
		out = append(out, items[i].ToPendingResponse())
	}

	return out, nil
}

// Confirm applies the doctor's confirm or reject decision.
func (s *AppointmentService) Confirm(ctx context.Context, p *appointment.ConfirmAppointmentPayload) (model.MessageResponse, error) {
	current, err := s.getAppointment(ctx, p.ID)
	if err != nil {
		return model.MessageResponse{}, err
	}

	// Confirm and reject share PENDING as their only source.
	if !current.Status.CanTransitionTo(appointment.StatusConfirmed) {
		return model.MessageResponse{}, errs.BadRequest(errs.CodeInvalidStatusTransition,
			fmt.Sprintf("Appointment is not in PENDING status, current status: %s", current.Status))
	}

	if current.DoctorID != p.ConfirmedBy {
		return model.MessageResponse{}, errs.NewForbiddenError("You can only confirm your own appointments", true)
	}

	now := s.clock.now()
	var (
		changes   appointment.Changes
		message   string
		eventType string
	)

	switch strings.ToLower(strings.TrimSpace(p.Action)) {
	case appointment.ActionConfirm:
		changes = appointment.Changes{
			Status:      statusPtr(appointment.StatusConfirmed),
			ConfirmedBy: &p.ConfirmedBy,
			ConfirmedAt: &now,
		}
		message = fmt.Sprintf("Appointment %d has been confirmed successfully", p.ID)
		eventType = events.RoutingKeyConfirmed

	case appointment.ActionReject:
		if p.RejectionReason == nil || strings.TrimSpace(*p.RejectionReason) == "" {
			return model.MessageResponse{}, errs.BadRequest(errs.CodeRejectionReasonRequired,
				"Rejection reason is required when rejecting an appointment")
		}
		changes = appointment.Changes{
			Status:          statusPtr(appointment.StatusRejected),
			RejectionReason: p.RejectionReason,
			RejectedAt:      &now,
		}
		message = fmt.Sprintf("Appointment %d has been rejected", p.ID)
		eventType = events.RoutingKeyRejected

	default:
		return model.MessageResponse{}, errs.BadRequest(errs.CodeInvalidConfirmationAction,
			"Action must be either 'confirm' or 'reject'")
	}

	if !current.Status.CanTransitionTo(*changes.Status) {
		return model.MessageResponse{}, invalidTransition(current.Status, *changes.Status)
	}
	changes.ExpectedStatus = &current.Status

	if err := s.appointments.Update(ctx, p.ID, changes); err != nil {
		return model.MessageResponse{}, statusConflict(err)
	}

	s.logger.Info().
		Int64("appointment_id", p.ID).
		Int64("doctor_id", p.ConfirmedBy).
		Str("action", p.Action).
		Msg("appointment decision recorded")

	s.notifyStatusChange(ctx, p.ID, eventType, true, nil)

	return model.NewMessageResponse(message), nil
}

// Update lets the owning patient move an upcoming appointment to another
// doctor or slot, or change its reason or emergency flag.
func (s *AppointmentService) Update(ctx context.Context, p *appointment.UpdateAppointmentPayload) (*appointment.Response, error) {
	current, err := s.getAppointment(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	if current.PatientID != p.UpdatedBy {
		return nil, errs.NewForbiddenError("You can only update your own appointments", true)
	}

	if !current.Status.IsActive() {
		return nil, errs.BadRequest(errs.CodeInvalidStatusTransition,
			fmt.Sprintf("Cannot update appointment with status: %s", current.Status))
	}

	if current.AppointmentDate < s.clock.todayString() {
		return nil, errs.BadRequest(errs.CodeAppointmentInPast, "Cannot update past appointments")
	}

	changes := appointment.Changes{ExpectedStatus: &current.Status}
	doctorID := current.DoctorID

	if p.DoctorID != nil && *p.DoctorID != current.DoctorID {
		newDoctor, err := s.activeDoctor(ctx, *p.DoctorID)
		if err != nil {
			return nil, err
		}

		changes.DoctorID = &newDoctor.ID
		if newDoctor.DepartmentID != current.DepartmentID {
			changes.DepartmentID = &newDoctor.DepartmentID
		}
		doctorID = newDoctor.ID
	}

	if p.SlotID != nil && *p.SlotID != current.SlotID {
		newSlot, err := s.slots.GetByID(ctx, *p.SlotID)
		if err != nil && !isNotFound(err) {
			return nil, err
		}

		// An unknown slot is reported like a taken one.
		if newSlot == nil || !newSlot.IsAvailable(s.clock.todayString()) {
			return nil, errs.BadRequest(errs.CodeSlotUnavailable, "New time slot is not available")
		}

		if newSlot.DoctorID != doctorID {
			return nil, errs.BadRequest(errs.CodeSlotDoctorMismatch, "New slot does not belong to the selected doctor")
		}

		changes.SlotID = &newSlot.ID
	} else if changes.DoctorID != nil {
		if err := s.requireSlotOwnedBy(ctx, current.SlotID, doctorID); err != nil {
			return nil, err
		}
	}

	if p.Reason != nil {
		changes.Reason = p.Reason
	}
	if p.IsEmergency != nil {
		changes.IsEmergency = p.IsEmergency
	}

	if err := s.appointments.Update(ctx, p.ID, changes); err != nil {
		return nil, statusConflict(slotConflict(err))
	}

	updated, err := s.appointments.GetByID(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	resp := updated.ToResponse()
	return &resp, nil
}

// Cancel cancels a PENDING or CONFIRMED appointment on behalf of its
// patient or its doctor, subject to the cancellation cut-off.
func (s *AppointmentService) Cancel(ctx context.Context, p *appointment.CancelAppointmentPayload) (model.MessageResponse, error) {
	current, err := s.getAppointment(ctx, p.ID)
	if err != nil {
		return model.MessageResponse{}, err
	}

	if current.Status == appointment.StatusCancelled {
		return model.MessageResponse{}, errs.BadRequest(errs.CodeInvalidStatusTransition, "Appointment is already cancelled")
	}

	if !current.Status.CanTransitionTo(appointment.StatusCancelled) {
		return model.MessageResponse{}, errs.BadRequest(errs.CodeInvalidStatusTransition,
			fmt.Sprintf("Cannot cancel appointment with status: %s", current.Status))
	}

	owner := current.PatientID
	if p.CancelledBy == appointment.CancelledByDoctor {
		owner = current.DoctorID
	}
	if owner != p.CancelledByUser {
		return model.MessageResponse{}, errs.NewForbiddenError("You can only cancel your own appointments", true)
	}

	scheduledAt, err := current.ScheduledAt(s.clock.Location)
	if err != nil {
		return model.MessageResponse{}, fmt.Errorf("parse schedule of appointment %d: %w", current.ID, err)
	}

	now := s.clock.now()
	if scheduledAt.Sub(now) < current.CancellationCutoff() {
		return model.MessageResponse{}, errs.BadRequest(errs.CodeCancellationWindowClosed, cutoffMessage(current.IsEmergency))
	}

	wasConfirmed := current.Status == appointment.StatusConfirmed

	err = s.appointments.Update(ctx, p.ID, appointment.Changes{
		ExpectedStatus:     &current.Status,
		Status:             statusPtr(appointment.StatusCancelled),
		CancelledBy:        &p.CancelledBy,
		CancelledAt:        &now,
		CancellationReason: p.CancellationReason,
	})
	if err != nil {
		return model.MessageResponse{}, statusConflict(err)
	}

	s.logger.Info().
		Int64("appointment_id", p.ID).
		Str("cancelled_by", string(p.CancelledBy)).
		Bool("was_confirmed", wasConfirmed).
		Msg("appointment cancelled")

	// Only confirmed appointments are known downstream, so only their
	// cancellation is published. The patient is e-mailed either way.
	s.notifyStatusChange(ctx, p.ID, events.RoutingKeyCancelled, wasConfirmed, &wasConfirmed)

	return model.NewMessageResponse(fmt.Sprintf("Appointment %d has been cancelled successfully", p.ID)), nil
}

// List returns one page of appointments matching the filters.
func (s *AppointmentService) List(ctx context.Context, p *appointment.ListAppointmentsPayload) (*model.PaginatedResponse[appointment.Response], error) {
	p.Normalize()

	filter, err := s.listFilter(p)
	if err != nil {
		return nil, err
	}

	total, err := s.appointments.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	if total == 0 {
		return nil, errs.NewNotFoundError("No appointments found matching the criteria", true, strPtr(errs.CodeNoAppointmentsFound))
	}

	offset := (p.Page - 1) * p.PageSize
	if offset >= total {
		return nil, errs.BadRequest(errs.CodePageOutOfRange, "Page number exceeds total number of pages")
	}

	filter.Limit = p.PageSize
	filter.Offset = offset

	items, err := s.appointments.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	resp := model.NewPaginatedResponse(appointment.ToResponses(items), p.Page, p.PageSize, total)
	return &resp, nil
}

func (s *AppointmentService) Detail(ctx context.Context, id int64) (*appointment.DetailResponse, error) {
	a, err := s.getAppointment(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := a.ToDetailResponse()
	return &resp, nil
}

// ListByPatient returns the patient's history, newest first, optionally
// restricted to one status.
func (s *AppointmentService) ListByPatient(ctx context.Context, p *appointment.ListPatientAppointmentsPayload) ([]appointment.Response, error) {
	if err := s.requirePatient(ctx, p.PatientID); err != nil {
		return nil, err
	}

	filter := appointment.Filter{PatientID: p.PatientID}

	if p.Status != "" {
		status, err := appointment.ParseStatus(p.Status)
		if err != nil {
			return nil, errs.BadRequest(errs.CodeInvalidStatus, fmt.Sprintf("Invalid status: %s", p.Status))
		}
		filter.Status = &status
	}

	items, err := s.appointments.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	return appointment.ToResponses(items), nil
}

// ------------------------------------------------------------

func (s *AppointmentService) getAppointment(ctx context.Context, id int64) (*appointment.PopulatedAppointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, errs.NotFound(errs.CodeAppointmentNotFound, "Appointment", id)
		}
		return nil, err
	}
	return a, nil
}

func (s *AppointmentService) requirePatient(ctx context.Context, id int64) error {
	if _, err := s.patients.GetByID(ctx, id); err != nil {
		if isNotFound(err) {
			return errs.NewNotFoundError(
				fmt.Sprintf("Patient with id %d not found. Please ensure patient is registered in the patient management system.", id),
				true, strPtr(errs.CodePatientNotFound))
		}
		return err
	}
	return nil
}

func (s *AppointmentService) activeDoctor(ctx context.Context, id int64) (*doctor.Doctor, error) {
	d, err := s.doctors.GetByID(ctx, id)
	if err != nil && !isNotFound(err) {
		return nil, err
	}
	if d == nil || !d.IsActive {
		return nil, errs.NewNotFoundError("New doctor not found or inactive", true, strPtr(errs.CodeDoctorNotFound))
	}
	return d, nil
}

// requireSlotOwnedBy keeps an appointment from pointing at another
// doctor's slot when only the doctor changes.
func (s *AppointmentService) requireSlotOwnedBy(ctx context.Context, slotID, doctorID int64) error {
	sl, err := s.slots.GetByID(ctx, slotID)
	if err != nil {
		return err
	}
	if sl.DoctorID != doctorID {
		return errs.BadRequest(errs.CodeSlotDoctorMismatch,
			"Current slot does not belong to the new doctor, please choose one of the new doctor's slots")
	}
	return nil
}

func (s *AppointmentService) listFilter(p *appointment.ListAppointmentsPayload) (appointment.Filter, error) {
	loc := s.clock.Location

	filter := appointment.Filter{
		PatientID:    p.PatientID,
		DoctorID:     p.DoctorID,
		DepartmentID: p.DepartmentID,
	}

	if p.Status != "" {
		status, err := appointment.ParseStatus(p.Status)
		if err != nil {
			return filter, errs.BadRequest(errs.CodeInvalidStatus, fmt.Sprintf("Invalid status: %s", p.Status))
		}
		filter.Status = &status
	}

	if p.IsEmergency != "" {
		emergency := p.IsEmergency == "true"
		filter.IsEmergency = &emergency
	}

	var err error
	if filter.AppointmentDate, err = model.ParseDate(p.AppointmentDate, loc); err != nil {
		return filter, errs.ValidationError(err)
	}
	if filter.FromDate, err = model.ParseDate(p.FromDate, loc); err != nil {
		return filter, errs.ValidationError(err)
	}
	if filter.ToDate, err = model.ParseDate(p.ToDate, loc); err != nil {
		return filter, errs.ValidationError(err)
	}

	if filter.FromDate != nil && filter.ToDate != nil && filter.FromDate.After(*filter.ToDate) {
		return filter, errs.BadRequest(errs.CodeInvalidDateRange,
			fmt.Sprintf("from_date %s is after to_date %s", p.FromDate, p.ToDate))
	}

	return filter, nil
}

// notifyStatusChange enqueues the broker event (when publish is set) and
// the patient e-mail. Failures are logged; the status change stands.
func (s *AppointmentService) notifyStatusChange(ctx context.Context, id int64, eventType string, publish bool, previouslyConfirmed *bool) {
	if s.notifier == nil {
		return
	}

	log := s.logger.With().Int64("appointment_id", id).Str("event_type", eventType).Logger()

	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		log.Error().Err(err).Msg("failed to load appointment for notification")
		return
	}

	event := events.NewAppointmentEvent(eventType, a, s.clock.now())
	event.Data.WasPreviouslyConfirmed = previouslyConfirmed

	if publish {
		if err := s.notifier.EnqueueAppointmentEvent(ctx, event); err != nil {
			log.Error().Err(err).Msg("failed to enqueue appointment event")
		}
	}

	if a.PatientEmail != nil && *a.PatientEmail != "" {
		if err := s.notifier.EnqueueStatusEmail(ctx, *a.PatientEmail, event); err != nil {
			log.Error().Err(err).Msg("failed to enqueue status email")
		}
	}
}

// slotConflict reports a lost race for the same slot as a booking error.
func slotConflict(err error) error {
	if sqlerr.IsUniqueViolation(err, sqlerr.ActiveSlotConstraint) {
		return errs.BadRequest(errs.CodeSlotAlreadyBooked, "Selected time slot is already booked")
	}
	return err
}

// statusConflict reports a write that lost a race with another status
// change as an invalid transition.
func statusConflict(err error) error {
	if errors.Is(err, appointment.ErrStatusChanged) {
		return errs.BadRequest(errs.CodeInvalidStatusTransition,
			"Appointment status was changed by another request, reload it and try again")
	}
	return err
}

func invalidTransition(from, to appointment.Status) error {
	return errs.BadRequest(errs.CodeInvalidStatusTransition,
		fmt.Sprintf("Cannot change appointment status from %s to %s", from, to))
}

func cutoffMessage(emergency bool) string {
	if emergency {
		return "Cannot cancel emergency appointment within 30 minutes of scheduled time. Please contact the hospital directly."
	}
	return "Cannot cancel regular appointment within 2 hours of scheduled time. Please contact the hospital directly."
}

func statusPtr(s appointment.Status) *appointment.Status {
	return &s
}

func strPtr(s string) *string {
	return &s
}
