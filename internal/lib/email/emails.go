package email

import (
	"context"
	"strconv"
	"strings"

	"github.com/deppfellow/appointment-service/internal/lib/events"
	"github.com/pkg/errors"
)

var statusTemplates = map[string]struct {
	template Template
	subject  string
}{
	events.RoutingKeyConfirmed: {TemplateAppointmentConfirmed, "Your appointment is confirmed"},
	events.RoutingKeyRejected:  {TemplateAppointmentRejected, "Your appointment request was declined"},
	events.RoutingKeyCancelled: {TemplateAppointmentCancelled, "Your appointment was cancelled"},
}

// SendAppointmentStatusEmail tells the patient about a confirmation,
// rejection or cancellation.
func (c *Client) SendAppointmentStatusEmail(ctx context.Context, to string, event events.Event) error {
	tmpl, ok := statusTemplates[event.EventType]
	if !ok {
		return errors.Errorf("no email template for event %s", event.EventType)
	}

	return c.SendEmail(ctx, to, tmpl.subject, tmpl.template, templateData(event.Data))
}

func templateData(d events.AppointmentData) map[string]string {
	data := map[string]string{
		"AppointmentID":   strconv.FormatInt(d.AppointmentID, 10),
		"PatientName":     d.PatientName,
		"DoctorName":      d.DoctorName,
		"DepartmentName":  d.DepartmentName,
		"AppointmentDate": d.AppointmentDate,
		"AppointmentTime": d.AppointmentTime,
	}

	switch {
	case d.RejectionReason != nil:
		data["Reason"] = *d.RejectionReason
	case d.CancellationReason != nil:
		data["Reason"] = *d.CancellationReason
	}

	if d.CancelledBy != nil {
		data["CancelledBy"] = strings.ToLower(string(*d.CancelledBy))
	}

	return data
}
