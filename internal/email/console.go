package email

import (
	"context"

	"go.uber.org/zap"
)

// consoleMailer logs invitations instead of sending them. Used in
// development when no SendGrid key is configured.
type consoleMailer struct{}

var _ Mailer = (*consoleMailer)(nil)

// NewConsoleMailer creates a mailer that writes invitations to the log.
func NewConsoleMailer() Mailer {
	return consoleMailer{}
}

func (consoleMailer) SendInvitation(_ context.Context, inv Invitation) error {
	zap.S().Infow("coach invitation (console mailer)",
		"to", inv.ToEmail,
		"name", inv.ToName,
		"organization", inv.Organization,
		"link", inv.Link,
	)
	return nil
}
