package service

import (
	"context"
	"errors"
	"time"

	"strive/coaching-app/internal/cache"
	"strive/coaching-app/internal/domain"
	"strive/coaching-app/internal/email"
	"strive/coaching-app/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CoachListing is the admin roster row: account plus resolved organization
// and invitation status.
type CoachListing struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	Organization string     `json:"organization"`
	Accepted     bool       `json:"accepted"` // Invite accepted (credentials set)
	LastSignInAt *time.Time `json:"lastSignInAt,omitempty"`
}

// CoachService owns the coach invitation workflow and roster management.
type CoachService interface {
	InviteCoach(ctx context.Context, firstName, lastName, emailAddr, organizationName string) (*domain.User, error)
	DeleteCoach(ctx context.Context, coachID primitive.ObjectID) error
	ListCoaches(ctx context.Context) ([]CoachListing, error)
}

// coachService implements the CoachService interface.
type coachService struct {
	userRepo repository.UserRepository
	orgRepo  repository.OrganizationRepository
	grants   repository.CoachAccessRepository
	mailer   email.Mailer
	listings *cache.Cache
	baseURL  string
}

// NewCoachService creates a new instance of coachService.
func NewCoachService(
	userRepo repository.UserRepository,
	orgRepo repository.OrganizationRepository,
	grants repository.CoachAccessRepository,
	mailer email.Mailer,
	listings *cache.Cache,
	baseURL string,
) CoachService {
	return &coachService{
		userRepo: userRepo,
		orgRepo:  orgRepo,
		grants:   grants,
		mailer:   mailer,
		listings: listings,
		baseURL:  baseURL,
	}
}

// InviteCoach creates a coach account with a one-time token, emails the
// credential-setup link, and attaches the organization (created lazily by
// name) to the profile.
func (s *coachService) InviteCoach(ctx context.Context, firstName, lastName, emailAddr, organizationName string) (*domain.User, error) {
	// 1. All four fields are required.
	if firstName == "" || lastName == "" || emailAddr == "" || organizationName == "" {
		return nil, NewInvalidError("all fields are required")
	}

	// 2. Create the invited account. No password yet; the token is the
	// only way in until the invite is accepted.
	user := &domain.User{
		Email:       emailAddr,
		Role:        domain.RoleCoach,
		FirstName:   firstName,
		LastName:    lastName,
		InviteToken: uuid.NewString(),
	}
	userID, err := s.userRepo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, NewConflictError("a user with this email already exists")
		}
		return nil, err
	}
	user.ID = userID

	// 3. Deliver the invitation. On failure the account is removed again so
	// the invite can simply be re-sent later.
	inv := email.Invitation{
		ToEmail:      emailAddr,
		ToName:       firstName + " " + lastName,
		Organization: organizationName,
		Link:         s.baseURL + "/auth/confirm?token=" + user.InviteToken,
	}
	if err := s.mailer.SendInvitation(ctx, inv); err != nil {
		if delErr := s.userRepo.Delete(ctx, userID); delErr != nil {
			zap.S().Warnw("failed to clean up account after invitation failure",
				"user", userID.Hex(), "error", delErr)
		}
		return nil, NewUpstreamError("failed to send invitation: " + err.Error())
	}

	// 4. Find or create the organization by name.
	org, err := s.orgRepo.FindOrCreateByName(ctx, organizationName)
	if err != nil {
		return nil, NewUpstreamError("could not find or create organization")
	}

	// 5. Attach name and organization to the profile.
	if err := s.userRepo.UpdateProfile(ctx, userID, firstName, lastName, org.ID); err != nil {
		return nil, NewUpstreamError("invitation sent, but failed to update profile")
	}
	user.OrganizationID = &org.ID

	s.listings.Invalidate(ctx, cache.KeyCoachList)
	return user, nil
}

// DeleteCoach removes a coach account. The coach's access grant is removed
// with it: a grant must never reference a missing account.
func (s *coachService) DeleteCoach(ctx context.Context, coachID primitive.ObjectID) error {
	if coachID == primitive.NilObjectID {
		return NewInvalidError("coach ID is required")
	}

	user, err := s.userRepo.GetByID(ctx, coachID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NewNotFoundError("coach not found")
		}
		return err
	}
	if !user.IsCoach() {
		return NewInvalidError("account is not a coach")
	}

	if err := s.userRepo.Delete(ctx, coachID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NewNotFoundError("coach not found")
		}
		return err
	}

	if err := s.grants.DeleteByCoachID(ctx, coachID); err != nil {
		// The account is gone; an orphaned grant is an inconsistency worth
		// surfacing rather than swallowing.
		return NewUpstreamError("coach deleted, but failed to remove quiz access grant")
	}

	s.listings.Invalidate(ctx, cache.KeyCoachList)
	return nil
}

// ListCoaches returns the coach roster with organization names resolved,
// served from the listing cache when possible.
func (s *coachService) ListCoaches(ctx context.Context) ([]CoachListing, error) {
	var cached []CoachListing
	if hit, err := s.listings.Get(ctx, cache.KeyCoachList, &cached); err == nil && hit {
		return cached, nil
	} else if err != nil {
		zap.S().Warnw("coach listing cache read failed", "error", err)
	}

	coaches, err := s.userRepo.ListByRole(ctx, domain.RoleCoach)
	if err != nil {
		return nil, err
	}

	// Resolve each distinct organization once.
	orgNames := make(map[primitive.ObjectID]string)
	listings := make([]CoachListing, 0, len(coaches))
	for _, c := range coaches {
		listing := CoachListing{
			ID:           c.ID.Hex(),
			Email:        c.Email,
			FirstName:    c.FirstName,
			LastName:     c.LastName,
			Accepted:     c.HasAcceptedInvite(),
			LastSignInAt: c.LastSignInAt,
		}
		if c.OrganizationID != nil {
			name, ok := orgNames[*c.OrganizationID]
			if !ok {
				org, err := s.orgRepo.GetByID(ctx, *c.OrganizationID)
				if err == nil {
					name = org.Name
				}
				orgNames[*c.OrganizationID] = name
			}
			listing.Organization = name
		}
		listings = append(listings, listing)
	}

	if err := s.listings.Set(ctx, cache.KeyCoachList, listings); err != nil {
		zap.S().Warnw("coach listing cache write failed", "error", err)
	}
	return listings, nil
}
