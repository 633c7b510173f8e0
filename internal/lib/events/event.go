// Package events publishes appointment lifecycle notifications to the
// configured message broker.
package events

import (
	"time"

	"github.com/deppfellow/appointment-service/internal/config"
	"github.com/deppfellow/appointment-service/internal/model/appointment"
	"github.com/google/uuid"
)

// Routing keys. The redis broker uses them as channel names; kafka carries
// them in the routing_key header.
const (
	RoutingKeyConfirmed = "appointment.confirmed"
	RoutingKeyCancelled = "appointment.cancelled"
	RoutingKeyRejected  = "appointment.rejected"
)

// AppointmentData is the appointment snapshot carried by every event.
type AppointmentData struct {
	AppointmentID          int64                    `json:"appointment_id"`
	PatientID              int64                    `json:"patient_id"`
	PatientName            string                   `json:"patient_name"`
	DoctorID               int64                    `json:"doctor_id"`
	DoctorName             string                   `json:"doctor_name"`
	DepartmentID           int64                    `json:"department_id"`
	DepartmentName         string                   `json:"department_name"`
	AppointmentDate        string                   `json:"appointment_date"`
	AppointmentTime        string                   `json:"appointment_time"`
	Reason                 string                   `json:"reason"`
	IsEmergency            bool                     `json:"is_emergency"`
	ConfirmedBy            *int64                   `json:"confirmed_by,omitempty"`
	ConfirmedAt            *time.Time               `json:"confirmed_at,omitempty"`
	RejectionReason        *string                  `json:"rejection_reason,omitempty"`
	CancelledBy            *appointment.CancelledBy `json:"cancelled_by,omitempty"`
	CancelledAt            *time.Time               `json:"cancelled_at,omitempty"`
	CancellationReason     *string                  `json:"cancellation_reason,omitempty"`
	WasPreviouslyConfirmed *bool                    `json:"was_previously_confirmed,omitempty"`
}

// Event is the envelope written to the broker.
type Event struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"source_service"`
	Data          AppointmentData `json:"data"`
}

// NewAppointmentEvent snapshots a after its status change.
func NewAppointmentEvent(eventType string, a *appointment.PopulatedAppointment, at time.Time) Event {
	return Event{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		Timestamp:     at.UTC(),
		SourceService: config.ServiceName,
		Data: AppointmentData{
			AppointmentID:      a.ID,
			PatientID:          a.PatientID,
			PatientName:        a.PatientName,
			DoctorID:           a.DoctorID,
			DoctorName:         a.DoctorName,
			DepartmentID:       a.DepartmentID,
			DepartmentName:     a.DepartmentName,
			AppointmentDate:    a.AppointmentDate,
			AppointmentTime:    a.AppointmentTime,
			Reason:             a.Reason,
			IsEmergency:        a.IsEmergency,
			ConfirmedBy:        a.ConfirmedBy,
			ConfirmedAt:        a.ConfirmedAt,
			RejectionReason:    a.RejectionReason,
			CancelledBy:        a.CancelledBy,
			CancelledAt:        a.CancelledAt,
			CancellationReason: a.CancellationReason,
		},
	}
}
