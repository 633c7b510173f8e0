package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"github.com/pkg/errors"
)

// Template names an embedded body template under templates/.
type Template string

const (
	TemplateAppointmentConfirmed Template = "appointment_confirmed"
	TemplateAppointmentRejected  Template = "appointment_rejected"
	TemplateAppointmentCancelled Template = "appointment_cancelled"
)

//go:embed templates/*.html
var templateFS embed.FS

// Render executes the shared layout with the body of name.
func Render(name Template, data map[string]string) (string, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/layout.html", fmt.Sprintf("templates/%s.html", name))
	if err != nil {
		return "", errors.Wrapf(err, "failed to parse email template %s", name)
	}

	var body bytes.Buffer
	if err := tmpl.ExecuteTemplate(&body, "layout", data); err != nil {
		return "", errors.Wrapf(err, "failed to execute email template %s", name)
	}

	return body.String(), nil
}
