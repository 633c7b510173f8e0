package appointment

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/deppfellow/appointment-service/internal/model"
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusRejected  Status = "REJECTED"
	StatusCancelled Status = "CANCELLED"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusPending, StatusConfirmed, StatusRejected, StatusCancelled}

// ParseStatus accepts a status name in any letter case.
func ParseStatus(value string) (Status, error) {
	candidate := Status(strings.ToUpper(strings.TrimSpace(value)))
	for _, s := range Statuses {
		if s == candidate {
			return s, nil
		}
	}
	return "", fmt.Errorf("invalid status: %s", value)
}

// IsActive reports whether an appointment in this status holds its slot.
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusConfirmed
}

// CanTransitionTo encodes the lifecycle:
//
//	PENDING   -> CONFIRMED | REJECTED | CANCELLED
//	CONFIRMED -> CANCELLED
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusRejected || next == StatusCancelled
	case StatusConfirmed:
		return next == StatusCancelled
	default:
		return false
	}
}

// ErrStatusChanged is returned by a conditional update when the stored
// status no longer matches Changes.ExpectedStatus.
var ErrStatusChanged = errors.New("appointment status changed")

// CancelledBy identifies which party cancelled an appointment.
type CancelledBy string

const (
	CancelledByPatient CancelledBy = "PATIENT"
	CancelledByDoctor  CancelledBy = "DOCTOR"
)

// Cancellation cut-offs before the scheduled start.
const (
	RegularCancellationCutoff   = 2 * time.Hour
	EmergencyCancellationCutoff = 30 * time.Minute
)

// Appointment links a patient, a doctor and one slot. AppointmentDate and
// AppointmentTime are copied from the slot (YYYY-MM-DD, HH:MM:SS).
type Appointment struct {
	ID                 int64        `json:"id" db:"id"`
	PatientID          int64        `json:"patient_id" db:"patient_id"`
	DoctorID           int64        `json:"doctor_id" db:"doctor_id"`
	DepartmentID       int64        `json:"department_id" db:"department_id"`
	SlotID             int64        `json:"slot_id" db:"slot_id"`
	AppointmentDate    string       `json:"appointment_date" db:"appointment_date"`
	AppointmentTime    string       `json:"appointment_time" db:"appointment_time"`
	Reason             string       `json:"reason" db:"reason"`
	IsEmergency        bool         `json:"is_emergency" db:"is_emergency"`
	Status             Status       `json:"status" db:"status"`
	ConfirmedBy        *int64       `json:"confirmed_by" db:"confirmed_by"`
	ConfirmedAt        *time.Time   `json:"confirmed_at" db:"confirmed_at"`
	RejectionReason    *string      `json:"rejection_reason" db:"rejection_reason"`
	RejectedAt         *time.Time   `json:"rejected_at" db:"rejected_at"`
	CancelledBy        *CancelledBy `json:"cancelled_by" db:"cancelled_by"`
	CancelledAt        *time.Time   `json:"cancelled_at" db:"cancelled_at"`
	CancellationReason *string      `json:"cancellation_reason" db:"cancellation_reason"`
	CreatedAt          time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at" db:"updated_at"`
}

// ScheduledAt returns the appointment start as an instant in loc.
func (a *Appointment) ScheduledAt(loc *time.Location) (time.Time, error) {
	return model.CombineDateTime(a.AppointmentDate, a.AppointmentTime, loc)
}

// CancellationCutoff is the minimum notice required to cancel.
func (a *Appointment) CancellationCutoff() time.Duration {
	if a.IsEmergency {
		return EmergencyCancellationCutoff
	}
	return RegularCancellationCutoff
}

// PopulatedAppointment is an appointment joined with display names.
type PopulatedAppointment struct {
	Appointment
	PatientName    string  `json:"patient_name" db:"patient_name"`
	PatientPhone   *string `json:"patient_phone" db:"patient_phone"`
	PatientEmail   *string `json:"-" db:"patient_email"`
	DoctorName     string  `json:"doctor_name" db:"doctor_name"`
	DepartmentName string  `json:"department_name" db:"department_name"`
}

// Response is the list representation of an appointment.
type Response struct {
	ID              int64     `json:"id"`
	PatientID       int64     `json:"patient_id"`
	PatientName     string    `json:"patient_name"`
	DoctorID        int64     `json:"doctor_id"`
	DoctorName      string    `json:"doctor_name"`
	DepartmentID    int64     `json:"department_id"`
	DepartmentName  string    `json:"department_name"`
	AppointmentDate string    `json:"appointment_date"`
	AppointmentTime string    `json:"appointment_time"`
	Reason          string    `json:"reason"`
	IsEmergency     bool      `json:"is_emergency"`
	Status          Status    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DetailResponse adds the slot and the confirmation, rejection and
// cancellation trail.
type DetailResponse struct {
	Response
	SlotID             int64        `json:"slot_id"`
	ConfirmedBy        *int64       `json:"confirmed_by"`
	ConfirmedAt        *time.Time   `json:"confirmed_at"`
	RejectionReason    *string      `json:"rejection_reason"`
	RejectedAt         *time.Time   `json:"rejected_at"`
	CancelledBy        *CancelledBy `json:"cancelled_by"`
	CancelledAt        *time.Time   `json:"cancelled_at"`
	CancellationReason *string      `json:"cancellation_reason"`
}

// PendingResponse is a row of a doctor's confirmation queue.
type PendingResponse struct {
	ID              int64     `json:"id"`
	DoctorID        int64     `json:"doctor_id"`
	PatientName     string    `json:"patient_name"`
	PatientPhone    *string   `json:"patient_phone"`
	DoctorName      string    `json:"doctor_name"`
	DepartmentName  string    `json:"department_name"`
	AppointmentDate string    `json:"appointment_date"`
	AppointmentTime string    `json:"appointment_time"`
	Reason          string    `json:"reason"`
	IsEmergency     bool      `json:"is_emergency"`
	CreatedAt       time.Time `json:"created_at"`
}

func (p *PopulatedAppointment) ToResponse() Response {
	return Response{
		ID:              p.ID,
		PatientID:       p.PatientID,
		PatientName:     p.PatientName,
		DoctorID:        p.DoctorID,
		DoctorName:      p.DoctorName,
		DepartmentID:    p.DepartmentID,
		DepartmentName:  p.DepartmentName,
		AppointmentDate: p.AppointmentDate,
		AppointmentTime: p.AppointmentTime,
		Reason:          p.Reason,
		IsEmergency:     p.IsEmergency,
		Status:          p.Status,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func (p *PopulatedAppointment) ToDetailResponse() DetailResponse {
	return DetailResponse{
		Response:           p.ToResponse(),
		SlotID:             p.SlotID,
		ConfirmedBy:        p.ConfirmedBy,
		ConfirmedAt:        p.ConfirmedAt,
		RejectionReason:    p.RejectionReason,
		RejectedAt:         p.RejectedAt,
		CancelledBy:        p.CancelledBy,
		CancelledAt:        p.CancelledAt,
		CancellationReason: p.CancellationReason,
	}
}

func (p *PopulatedAppointment) ToPendingResponse() PendingResponse {
	return PendingResponse{
		ID:              p.ID,
		DoctorID:        p.DoctorID,
		PatientName:     p.PatientName,
		PatientPhone:    p.PatientPhone,
		DoctorName:      p.DoctorName,
		DepartmentName:  p.DepartmentName,
		AppointmentDate: p.AppointmentDate,
		AppointmentTime: p.AppointmentTime,
		Reason:          p.Reason,
		IsEmergency:     p.IsEmergency,
		CreatedAt:       p.CreatedAt,
	}
}

// ToResponses converts a slice for list endpoints.
func ToResponses(items []PopulatedAppointment) []Response {
	out := make([]Response, 0, len(items))
	for i := range items {
		out = append(out, items[i].ToResponse())
	}
	return out
}
