package service

import (
	"context"
	"errors"

	"strive/coaching-app/internal/domain"
	"strive/coaching-app/internal/repository"

	"go.uber.org/zap"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// QuizDetail bundles a quiz family with its versions for the editor view.
type QuizDetail struct {
	Quiz     domain.Quiz          `json:"quiz"`
	Versions []domain.QuizVersion `json:"versions"`
}

// QuizService owns the quiz versioning workflow: family creation, the
// draft/active/frozen lifecycle, cloning, and coach access grants.
type QuizService interface {
	CreateQuiz(ctx context.Context, name string) (*domain.Quiz, *domain.QuizVersion, error)
	GetQuizzes(ctx context.Context) ([]domain.Quiz, error)
	GetQuiz(ctx context.Context, quizID primitive.ObjectID) (*QuizDetail, error)
	DeleteQuiz(ctx context.Context, quizID primitive.ObjectID) error

	GetVersion(ctx context.Context, versionID primitive.ObjectID) (*domain.QuizVersion, error)
	UpdateVersionData(ctx context.Context, versionID primitive.ObjectID, data domain.QuizData) error
	SetActiveVersion(ctx context.Context, quizID, versionID primitive.ObjectID) error
	CloneVersion(ctx context.Context, versionID primitive.ObjectID) (*domain.QuizVersion, error)
	DeleteVersion(ctx context.Context, quizID, versionID primitive.ObjectID) error

	UpdateCoachAccess(ctx context.Context, versionID primitive.ObjectID, coachIDs []primitive.ObjectID) error
	GetCoachAccess(ctx context.Context, versionID primitive.ObjectID) ([]domain.CoachAccess, error)
	// GetAssignedVersion resolves the quiz version a coach is granted,
	// with its family, for the coach dashboard.
	GetAssignedVersion(ctx context.Context, coachID primitive.ObjectID) (*domain.Quiz, *domain.QuizVersion, error)
	// RecordAdministration bumps the administered counter after a coach
	// runs their assigned version with a player.
	RecordAdministration(ctx context.Context, coachID, versionID primitive.ObjectID) error
}

// quizService implements the QuizService interface.
type quizService struct {
	quizRepo    repository.QuizRepository
	versionRepo repository.QuizVersionRepository
	grants      repository.CoachAccessRepository
	userRepo    repository.UserRepository
}

// NewQuizService creates a new instance of quizService.
func NewQuizService(
	quizRepo repository.QuizRepository,
	versionRepo repository.QuizVersionRepository,
	grants repository.CoachAccessRepository,
	userRepo repository.UserRepository,
) QuizService {
	return &quizService{
		quizRepo:    quizRepo,
		versionRepo: versionRepo,
		grants:      grants,
		userRepo:    userRepo,
	}
}

// CreateQuiz creates a family together with an empty, inactive version 1.
// A family must never exist without at least one version, so a failed
// version insert removes the family again.
func (s *quizService) CreateQuiz(ctx context.Context, name string) (*domain.Quiz, *domain.QuizVersion, error) {
	if name == "" {
		return nil, nil, NewInvalidError("quiz name is required")
	}

	quiz := &domain.Quiz{Name: name}
	quizID, err := s.quizRepo.Create(ctx, quiz)
	if err != nil {
		return nil, nil, NewUpstreamError("failed to create quiz: " + err.Error())
	}
	quiz.ID = quizID

	version := &domain.QuizVersion{
		QuizID:        quizID,
		VersionNumber: 1,
		QuizData:      domain.QuizData{Questions: []domain.Question{}},
		IsActive:      false,
	}
	versionID, err := s.versionRepo.Create(ctx, version)
	if err != nil {
		if delErr := s.quizRepo.Delete(ctx, quizID); delErr != nil {
			zap.S().Errorw("failed to remove orphaned quiz after version insert failure",
				"quiz", quizID.Hex(), "error", delErr)
		}
		return nil, nil, NewUpstreamError("failed to create initial quiz version")
	}
	version.ID = versionID

	return quiz, version, nil
}

// GetQuizzes lists every quiz family.
func (s *quizService) GetQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	return s.quizRepo.GetAll(ctx)
}

// GetQuiz returns a family with all of its versions.
func (s *quizService) GetQuiz(ctx context.Context, quizID primitive.ObjectID) (*QuizDetail, error) {
	quiz, err := s.quizRepo.GetByID(ctx, quizID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFoundError("quiz not found")
		}
		return nil, err
	}
	versions, err := s.versionRepo.GetByQuizID(ctx, quizID)
	if err != nil {
		return nil, err
	}
	return &QuizDetail{Quiz: *quiz, Versions: versions}, nil
}

// DeleteQuiz removes a family with all of its versions and any access
// grants pointing at them.
func (s *quizService) DeleteQuiz(ctx context.Context, quizID primitive.ObjectID) error {
	if _, err := s.quizRepo.GetByID(ctx, quizID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NewNotFoundError("quiz not found")
		}
		return err
	}

	versionIDs, err := s.versionRepo.DeleteByQuizID(ctx, quizID)
	if err != nil {
		return NewUpstreamError("failed to delete quiz versions")
	}
	if len(versionIDs) > 0 {
		if err := s.grants.DeleteByVersionIDs(ctx, versionIDs); err != nil {
			return NewUpstreamError("quiz versions deleted, but failed to remove access grants")
		}
	}
	if err := s.quizRepo.Delete(ctx, quizID); err != nil {
		return NewUpstreamError("failed to delete quiz")
	}
	return nil
}

// GetVersion retrieves one quiz version.
func (s *quizService) GetVersion(ctx context.Context, versionID primitive.ObjectID) (*domain.QuizVersion, error) {
	version, err := s.versionRepo.GetByID(ctx, versionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFoundError("quiz version not found")
		}
		return nil, err
	}
	return version, nil
}

// UpdateVersionData saves a draft's content. The freeze check happens here,
// against the stored record, so a stale client cannot edit a version that
// was activated or administered since it loaded the page.
func (s *quizService) UpdateVersionData(ctx context.Context, versionID primitive.ObjectID, data domain.QuizData) error {
	version, err := s.GetVersion(ctx, versionID)
	if err != nil {
		return err
	}
	if version.IsFrozen() {
		return NewConflictError("this version is frozen; clone it to make changes")
	}
	if err := s.versionRepo.UpdateData(ctx, versionID, data); err != nil {
		return NewUpstreamError("failed to save quiz version")
	}
	return nil
}

// SetActiveVersion makes versionID the family's single active version.
// Every version of the family is deactivated first, then the target is
// activated, so activation can never end with two active versions.
func (s *quizService) SetActiveVersion(ctx context.Context, quizID, versionID primitive.ObjectID) error {
	version, err := s.GetVersion(ctx, versionID)
	if err != nil {
		return err
	}
	if version.QuizID != quizID {
		return NewInvalidError("version does not belong to this quiz")
	}

	if err := s.versionRepo.DeactivateAll(ctx, quizID); err != nil {
		return NewUpstreamError("failed to update version status")
	}
	if err := s.versionRepo.Activate(ctx, versionID); err != nil {
		return NewUpstreamError("failed to set new active version")
	}
	return nil
}

// CloneVersion copies a version's content into a new inactive draft
// numbered max(versionNumber)+1 within the family. Two racing clones hit
// the unique (quizId, versionNumber) index; the loser gets a conflict and
// simply retries.
func (s *quizService) CloneVersion(ctx context.Context, versionID primitive.ObjectID) (*domain.QuizVersion, error) {
	source, err := s.GetVersion(ctx, versionID)
	if err != nil {
		return nil, err
	}

	maxNumber, err := s.versionRepo.MaxVersionNumber(ctx, source.QuizID)
	if err != nil {
		return nil, NewUpstreamError("failed to determine next version number")
	}

	clone := &domain.QuizVersion{
		QuizID:        source.QuizID,
		VersionNumber: maxNumber + 1,
		QuizData:      source.QuizData,
		IsActive:      false,
	}
	cloneID, err := s.versionRepo.Create(ctx, clone)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, NewConflictError("another version was created at the same time; please retry")
		}
		return nil, NewUpstreamError("failed to clone quiz version")
	}
	clone.ID = cloneID

	return clone, nil
}

// DeleteVersion removes one version and its access grants. The active
// version can be deleted; the family is then simply left without an
// active version until another is activated.
func (s *quizService) DeleteVersion(ctx context.Context, quizID, versionID primitive.ObjectID) error {
	version, err := s.GetVersion(ctx, versionID)
	if err != nil {
		return err
	}
	if version.QuizID != quizID {
		return NewInvalidError("version does not belong to this quiz")
	}

	if err := s.versionRepo.Delete(ctx, versionID); err != nil {
		return NewUpstreamError("failed to delete quiz version")
	}
	if err := s.grants.DeleteByVersionID(ctx, versionID); err != nil {
		return NewUpstreamError("version deleted, but failed to remove access grants")
	}
	return nil
}

// UpdateCoachAccess replaces the version's grant set with coachIDs.
// A coach already granted a different version blocks the whole update
// before anything is written; re-submitting the current set is a no-op
// rather than a conflict.
func (s *quizService) UpdateCoachAccess(ctx context.Context, versionID primitive.ObjectID, coachIDs []primitive.ObjectID) error {
	version, err := s.GetVersion(ctx, versionID)
	if err != nil {
		return err
	}

	for _, coachID := range coachIDs {
		user, err := s.userRepo.GetByID(ctx, coachID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return NewInvalidError("one or more selected coaches do not exist")
			}
			return err
		}
		if !user.IsCoach() {
			return NewInvalidError("one or more selected accounts are not coaches")
		}
	}

	if len(coachIDs) > 0 {
		conflicting, err := s.grants.FindConflicting(ctx, versionID, coachIDs)
		if err != nil {
			return NewUpstreamError("failed to check existing access grants")
		}
		if len(conflicting) > 0 {
			return NewConflictError("one or more coaches are already assigned to a different quiz version")
		}
	}

	if err := s.grants.DeleteByVersionID(ctx, versionID); err != nil {
		return NewUpstreamError("failed to update access grants")
	}
	if len(coachIDs) == 0 {
		return nil
	}

	newGrants := make([]domain.CoachAccess, 0, len(coachIDs))
	for _, coachID := range coachIDs {
		newGrants = append(newGrants, domain.CoachAccess{
			QuizVersionID: version.ID,
			CoachID:       coachID,
		})
	}
	if err := s.grants.InsertMany(ctx, newGrants); err != nil {
		// A grant created elsewhere between the pre-check and the insert
		// trips the unique coachId index. Same outcome as the pre-check.
		if errors.Is(err, repository.ErrConflict) {
			return NewConflictError("one or more coaches are already assigned to a different quiz version")
		}
		return NewUpstreamError("failed to update access grants")
	}
	return nil
}

// GetCoachAccess lists the grants on one version.
func (s *quizService) GetCoachAccess(ctx context.Context, versionID primitive.ObjectID) ([]domain.CoachAccess, error) {
	if _, err := s.GetVersion(ctx, versionID); err != nil {
		return nil, err
	}
	return s.grants.GetByVersionID(ctx, versionID)
}

// GetAssignedVersion resolves the coach's grant into the version and its
// family.
func (s *quizService) GetAssignedVersion(ctx context.Context, coachID primitive.ObjectID) (*domain.Quiz, *domain.QuizVersion, error) {
	grant, err := s.grants.GetByCoachID(ctx, coachID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, NewNotFoundError("no quiz has been assigned to you yet")
		}
		return nil, nil, err
	}

	version, err := s.versionRepo.GetByID(ctx, grant.QuizVersionID)
	if err != nil {
		return nil, nil, NewUpstreamError("assigned quiz version could not be loaded")
	}
	quiz, err := s.quizRepo.GetByID(ctx, version.QuizID)
	if err != nil {
		return nil, nil, NewUpstreamError("assigned quiz could not be loaded")
	}
	return quiz, version, nil
}

// RecordAdministration increments the administered counter of the coach's
// assigned version. The grant must match and the version must be active;
// administering a draft would freeze it without it ever being published.
func (s *quizService) RecordAdministration(ctx context.Context, coachID, versionID primitive.ObjectID) error {
	grant, err := s.grants.GetByCoachID(ctx, coachID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NewUnauthorizedError("you are not assigned to this quiz version")
		}
		return err
	}
	if grant.QuizVersionID != versionID {
		return NewUnauthorizedError("you are not assigned to this quiz version")
	}

	version, err := s.GetVersion(ctx, versionID)
	if err != nil {
		return err
	}
	if !version.IsActive {
		return NewConflictError("this quiz version is not active")
	}

	if err := s.versionRepo.IncrementAdministered(ctx, versionID); err != nil {
		return NewUpstreamError("failed to record quiz administration")
	}
	return nil
}
