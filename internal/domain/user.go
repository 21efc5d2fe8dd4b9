package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between account roles
type Role string

// Define constants for roles
const (
	RoleAdmin Role = "admin"
	RoleCoach Role = "coach"
)

// User represents an account in the system (either an Admin or a Coach).
// Coaches are created through the invitation flow: the account exists with an
// InviteToken and no password hash until the invite is accepted.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email        string             `bson:"email" json:"email"` // Should be unique
	PasswordHash string             `bson:"passwordHash,omitempty" json:"-"`
	Role         Role               `bson:"role" json:"role"`
	FirstName    string             `bson:"firstName" json:"firstName"`
	LastName     string             `bson:"lastName" json:"lastName"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`

	// --- Coach-specific ---
	// Organization the coach belongs to. Set by the invitation workflow.
	OrganizationID *primitive.ObjectID `bson:"organizationId,omitempty" json:"organizationId,omitempty"`

	// One-time token carried by the invitation email. Cleared when the
	// invite is accepted and a password is set.
	InviteToken string `bson:"inviteToken,omitempty" json:"-"`

	// Nil means "invited but never logged in".
	LastSignInAt *time.Time `bson:"lastSignInAt,omitempty" json:"lastSignInAt,omitempty"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsCoach() bool {
	return u.Role == RoleCoach
}

// HasAcceptedInvite reports whether the account has completed credential setup.
func (u *User) HasAcceptedInvite() bool {
	return u.InviteToken == "" && u.PasswordHash != ""
}
