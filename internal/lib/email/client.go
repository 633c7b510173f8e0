// Package email sends patient notifications through Resend using the
// embedded HTML templates.
package email

import (
	"context"
	"fmt"

	"github.com/deppfellow/appointment-service/internal/config"
	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"
)

type sender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

type Client struct {
	// sender is nil when no API key is configured.
	sender sender
	from   string
	logger *zerolog.Logger
}

func NewClient(cfg *config.Config, logger *zerolog.Logger) *Client {
	c := &Client{
		from:   cfg.Integration.EmailFrom,
		logger: logger,
	}

	if cfg.Integration.ResendAPIKey != "" {
		c.sender = resend.NewClient(cfg.Integration.ResendAPIKey).Emails
	}

	return c
}

// SendEmail renders templateName with data and sends it to a single
// recipient. Without an API key the e-mail is only logged.
func (c *Client) SendEmail(ctx context.Context, to, subject string, templateName Template, data map[string]string) error {
	values := make(map[string]string, len(data)+1)
	for k, v := range data {
		values[k] = v
	}
	values["Subject"] = subject

	html, err := Render(templateName, values)
	if err != nil {
		return err
	}

	if c.sender == nil {
		c.logger.Info().
			Str("to", to).
			Str("template", string(templateName)).
			Msg("resend api key not configured, skipping email")
		return nil
	}

	params := &resend.SendEmailRequest{
		From:    c.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	}

	if _, err := c.sender.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
