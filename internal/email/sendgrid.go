package email

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// sendgridMailer implements Mailer using the SendGrid v3 API.
type sendgridMailer struct {
	client *sendgrid.Client
	from   *sgmail.Email
}

var _ Mailer = (*sendgridMailer)(nil)

// NewSendgridMailer creates a SendGrid-backed mailer.
func NewSendgridMailer(key, fromName, fromEmail string) Mailer {
	return &sendgridMailer{
		client: sendgrid.NewSendClient(key),
		from:   sgmail.NewEmail(fromName, fromEmail),
	}
}

func (m *sendgridMailer) SendInvitation(ctx context.Context, inv Invitation) error {
	subject := "You have been invited to join " + inv.Organization
	plain := fmt.Sprintf(
		"Hi %s,\n\nYou have been invited to join %s as a coach.\n\nSet up your account here: %s\n",
		inv.ToName, inv.Organization, inv.Link,
	)
	html := fmt.Sprintf(
		"<p>Hi %s,</p><p>You have been invited to join <strong>%s</strong> as a coach.</p><p><a href=%q>Set up your account</a></p>",
		inv.ToName, inv.Organization, inv.Link,
	)

	msg := sgmail.NewSingleEmail(m.from, subject, sgmail.NewEmail(inv.ToName, inv.ToEmail), plain, html)
	resp, err := m.client.SendWithContext(ctx, msg)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, resp.Body)
	}
	return nil
}
