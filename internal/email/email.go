package email

import "context"

// Invitation is the one message this application sends: a coach invitation
// with a credential-setup link.
type Invitation struct {
	ToEmail      string
	ToName       string
	Organization string
	Link         string
}

// Mailer delivers invitation emails.
type Mailer interface {
	SendInvitation(ctx context.Context, inv Invitation) error
}
