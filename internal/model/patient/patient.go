// Package patient models the read-only patient replica. Patients are owned
// by the patient-management service; this service only looks them up.
package patient

import "github.com/deppfellow/appointment-service/internal/model"

type Patient struct {
	model.Base
	Name  string  `json:"name" db:"name"`
	Phone *string `json:"phone" db:"phone"`
	Email *string `json:"email" db:"email"`
}

// HasEmail reports whether status e-mails can be sent to the patient.
func (p *Patient) HasEmail() bool {
	return p.Email != nil && *p.Email != ""
}
