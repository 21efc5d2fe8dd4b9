package repository

import (
	"context"

	"strive/coaching-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for the repository layer. The service layer translates
// these into its own taxonomy.
var (
	ErrNotFound     = RepositoryError("not found")
	ErrConflict     = RepositoryError("uniqueness conflict")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with account data.
// Delete removes the account row; dependent data (access grants) is cleaned
// up by the service layer through the other repositories, as an explicit
// cascade contract.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	GetByInviteToken(ctx context.Context, token string) (*domain.User, error)
	ListByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
	UpdateProfile(ctx context.Context, id primitive.ObjectID, firstName, lastName string, organizationID primitive.ObjectID) error
	SetCredentials(ctx context.Context, id primitive.ObjectID, passwordHash string) error // Also clears the invite token
	TouchLastSignIn(ctx context.Context, id primitive.ObjectID) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// OrganizationRepository defines the interface for interacting with
// organization data. Organizations are created lazily by name and never
// deleted by the workflows.
type OrganizationRepository interface {
	FindOrCreateByName(ctx context.Context, name string) (*domain.Organization, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Organization, error)
}

// PlayerRepository defines the interface for interacting with player data.
type PlayerRepository interface {
	Create(ctx context.Context, player *domain.Player) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Player, error)
	GetAll(ctx context.Context) ([]domain.Player, error)
	GetByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.Player, error)
	Update(ctx context.Context, player *domain.Player) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// QuizRepository defines the interface for interacting with quiz families.
type QuizRepository interface {
	Create(ctx context.Context, quiz *domain.Quiz) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Quiz, error)
	GetAll(ctx context.Context) ([]domain.Quiz, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// QuizVersionRepository defines the interface for interacting with quiz
// versions. Create must fail with ErrConflict when the (quizId,
// versionNumber) pair already exists, so racing clones can be retried.
type QuizVersionRepository interface {
	Create(ctx context.Context, version *domain.QuizVersion) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.QuizVersion, error)
	GetByQuizID(ctx context.Context, quizID primitive.ObjectID) ([]domain.QuizVersion, error)
	MaxVersionNumber(ctx context.Context, quizID primitive.ObjectID) (int, error) // 0 when the family has no versions
	UpdateData(ctx context.Context, id primitive.ObjectID, data domain.QuizData) error
	DeactivateAll(ctx context.Context, quizID primitive.ObjectID) error
	Activate(ctx context.Context, id primitive.ObjectID) error
	IncrementAdministered(ctx context.Context, id primitive.ObjectID) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByQuizID(ctx context.Context, quizID primitive.ObjectID) ([]primitive.ObjectID, error) // Returns deleted version IDs for grant cleanup
}

// CoachAccessRepository defines the interface for interacting with coach
// access grants. The collection carries a unique index on coachId alone:
// one grant per coach across all versions.
type CoachAccessRepository interface {
	GetByVersionID(ctx context.Context, versionID primitive.ObjectID) ([]domain.CoachAccess, error)
	GetByCoachID(ctx context.Context, coachID primitive.ObjectID) (*domain.CoachAccess, error)
	// FindConflicting returns grants held by any of the given coaches on a
	// version other than versionID.
	FindConflicting(ctx context.Context, versionID primitive.ObjectID, coachIDs []primitive.ObjectID) ([]domain.CoachAccess, error)
	DeleteByVersionID(ctx context.Context, versionID primitive.ObjectID) error
	DeleteByVersionIDs(ctx context.Context, versionIDs []primitive.ObjectID) error
	DeleteByCoachID(ctx context.Context, coachID primitive.ObjectID) error
	InsertMany(ctx context.Context, grants []domain.CoachAccess) error
}

// QuestionnaireRepository defines the interface for interacting with
// questionnaire templates and responses.
type QuestionnaireRepository interface {
	CreateTemplate(ctx context.Context, tpl *domain.QuestionnaireTemplate) (primitive.ObjectID, error)
	LatestTemplate(ctx context.Context) (*domain.QuestionnaireTemplate, error)
	GetTemplateByID(ctx context.Context, id primitive.ObjectID) (*domain.QuestionnaireTemplate, error)
	CreateResponses(ctx context.Context, responses []domain.QuestionnaireResponse) error // Single bulk insert
	GetResponseByID(ctx context.Context, id primitive.ObjectID) (*domain.QuestionnaireResponse, error)
	GetResponsesByPlayerID(ctx context.Context, playerID primitive.ObjectID) ([]domain.QuestionnaireResponse, error)
	CompleteResponse(ctx context.Context, id primitive.ObjectID, answers []string) error
	DeleteResponsesByPlayerID(ctx context.Context, playerID primitive.ObjectID) error
}
