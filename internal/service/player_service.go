package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"time"

	"strive/coaching-app/internal/cache"
	"strive/coaching-app/internal/domain"
	"strive/coaching-app/internal/repository"
	"strive/coaching-app/internal/storage"

	"go.uber.org/zap"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Playbook types accepted from the form.
const (
	PlaybookTypeText     = "text"
	PlaybookTypeDocument = "document"
)

// PlaybookUpload carries an uploaded playbook document.
type PlaybookUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// PlayerInput is the admin form payload for creating or updating a player.
type PlayerInput struct {
	FirstName string
	LastName  string
	CoachID   primitive.ObjectID

	ResilienceProfile domain.MetricLevel
	Reliability       domain.MetricLevel
	SelfBelief        domain.MetricLevel
	Focus             domain.MetricLevel
	Adversity         domain.MetricLevel
	Driver            domain.MetricLevel
	CoachingStyle     domain.MetricLevel

	PlaybookType string
	PlaybookText string
	PlaybookFile *PlaybookUpload
}

// PlayerService owns player CRUD and the playbook exclusivity invariant.
type PlayerService interface {
	AddPlayer(ctx context.Context, input PlayerInput) (*domain.Player, error)
	UpdatePlayer(ctx context.Context, playerID primitive.ObjectID, input PlayerInput) (*domain.Player, error)
	DeletePlayer(ctx context.Context, playerID primitive.ObjectID) error
	GetPlayer(ctx context.Context, playerID primitive.ObjectID) (*domain.Player, error)
	ListPlayers(ctx context.Context) ([]domain.Player, error)
	ListPlayersByCoach(ctx context.Context, coachID primitive.ObjectID) ([]domain.Player, error)
	// GetPlayerForCoach retrieves a player only if assigned to coachID.
	GetPlayerForCoach(ctx context.Context, playerID, coachID primitive.ObjectID) (*domain.Player, error)
	// PlaybookDownloadURL returns a temporary link to the uploaded document.
	PlaybookDownloadURL(ctx context.Context, playerID primitive.ObjectID) (string, error)
}

// playerService implements the PlayerService interface.
type playerService struct {
	playerRepo        repository.PlayerRepository
	userRepo          repository.UserRepository
	questionnaireRepo repository.QuestionnaireRepository
	fileStorage       storage.FileStorage
	listings          *cache.Cache
}

// NewPlayerService creates a new instance of playerService.
func NewPlayerService(
	playerRepo repository.PlayerRepository,
	userRepo repository.UserRepository,
	questionnaireRepo repository.QuestionnaireRepository,
	fileStorage storage.FileStorage,
	listings *cache.Cache,
) PlayerService {
	return &playerService{
		playerRepo:        playerRepo,
		userRepo:          userRepo,
		questionnaireRepo: questionnaireRepo,
		fileStorage:       fileStorage,
		listings:          listings,
	}
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// playbookObjectKey builds a collision-resistant object key:
// timestamp-prefixed, whitespace replaced with underscores.
func playbookObjectKey(fileName string) string {
	normalized := whitespaceRe.ReplaceAllString(fileName, "_")
	return fmt.Sprintf("playbooks/%d-%s", time.Now().UnixMilli(), normalized)
}

// AddPlayer creates a player. Exactly one playbook representation is stored;
// an upload failure aborts the whole operation and nothing is written.
func (s *playerService) AddPlayer(ctx context.Context, input PlayerInput) (*domain.Player, error) {
	if err := s.validate(ctx, input); err != nil {
		return nil, err
	}

	player := &domain.Player{}
	applyInput(player, input)

	if err := s.applyPlaybook(ctx, player, input); err != nil {
		return nil, err
	}

	playerID, err := s.playerRepo.Create(ctx, player)
	if err != nil {
		return nil, NewUpstreamError("failed to create player: " + err.Error())
	}
	player.ID = playerID

	s.listings.Invalidate(ctx, cache.KeyPlayerList)
	return player, nil
}

// UpdatePlayer overwrites a player's fields. On upload failure the stored
// record, including its previous playbook, is left fully unchanged.
func (s *playerService) UpdatePlayer(ctx context.Context, playerID primitive.ObjectID, input PlayerInput) (*domain.Player, error) {
	if playerID == primitive.NilObjectID {
		return nil, NewInvalidError("player ID is required")
	}
	if err := s.validate(ctx, input); err != nil {
		return nil, err
	}

	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFoundError("player not found")
		}
		return nil, err
	}

	applyInput(player, input)
	if err := s.applyPlaybook(ctx, player, input); err != nil {
		return nil, err
	}

	if err := s.playerRepo.Update(ctx, player); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFoundError("player not found")
		}
		return nil, NewUpstreamError("failed to update player: " + err.Error())
	}

	s.listings.Invalidate(ctx, cache.KeyPlayerList)
	return player, nil
}

// DeletePlayer removes a player. The uploaded playbook blob is removed
// best-effort first (non-fatal: the record is the primary goal), then the
// row and the player's questionnaire responses.
func (s *playerService) DeletePlayer(ctx context.Context, playerID primitive.ObjectID) error {
	if playerID == primitive.NilObjectID {
		return NewInvalidError("player ID is required")
	}

	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NewNotFoundError("could not find player to delete")
		}
		return err
	}

	if player.HasDocumentPlaybook() {
		if err := s.fileStorage.DeleteObject(ctx, player.PlaybookFileKey); err != nil {
			zap.S().Warnw("failed to delete playbook blob; deleting record anyway",
				"player", playerID.Hex(), "key", player.PlaybookFileKey, "error", err)
		}
	}

	if err := s.playerRepo.Delete(ctx, playerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NewNotFoundError("could not find player to delete")
		}
		return NewUpstreamError("failed to delete player: " + err.Error())
	}

	if err := s.questionnaireRepo.DeleteResponsesByPlayerID(ctx, playerID); err != nil {
		return NewUpstreamError("player deleted, but failed to remove questionnaire responses")
	}

	s.listings.Invalidate(ctx, cache.KeyPlayerList)
	return nil
}

// GetPlayer retrieves one player.
func (s *playerService) GetPlayer(ctx context.Context, playerID primitive.ObjectID) (*domain.Player, error) {
	player, err := s.playerRepo.GetByID(ctx, playerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFoundError("player not found")
		}
		return nil, err
	}
	return player, nil
}

// ListPlayers returns every player, served from the listing cache when possible.
func (s *playerService) ListPlayers(ctx context.Context) ([]domain.Player, error) {
	var cached []domain.Player
	if hit, err := s.listings.Get(ctx, cache.KeyPlayerList, &cached); err == nil && hit {
		return cached, nil
	} else if err != nil {
		zap.S().Warnw("player listing cache read failed", "error", err)
	}

	players, err := s.playerRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.listings.Set(ctx, cache.KeyPlayerList, players); err != nil {
		zap.S().Warnw("player listing cache write failed", "error", err)
	}
	return players, nil
}

// GetPlayerForCoach retrieves a player scoped to the coach's own roster.
// A player assigned to another coach reads as unauthorized, so the
// dashboard cannot browse foreign rosters by ID.
func (s *playerService) GetPlayerForCoach(ctx context.Context, playerID, coachID primitive.ObjectID) (*domain.Player, error) {
	player, err := s.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if player.CoachID != coachID {
		return nil, NewUnauthorizedError("this player is not assigned to you")
	}
	return player, nil
}

// ListPlayersByCoach returns the players assigned to one coach.
func (s *playerService) ListPlayersByCoach(ctx context.Context, coachID primitive.ObjectID) ([]domain.Player, error) {
	if coachID == primitive.NilObjectID {
		return nil, NewInvalidError("coach ID is required")
	}
	return s.playerRepo.GetByCoachID(ctx, coachID)
}

// PlaybookDownloadURL presigns a temporary download link for the uploaded
// playbook document.
func (s *playerService) PlaybookDownloadURL(ctx context.Context, playerID primitive.ObjectID) (string, error) {
	player, err := s.GetPlayer(ctx, playerID)
	if err != nil {
		return "", err
	}
	if !player.HasDocumentPlaybook() {
		return "", NewNotFoundError("player has no uploaded playbook document")
	}
	url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, player.PlaybookFileKey, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return "", NewUpstreamError("failed to generate playbook download link")
	}
	return url, nil
}

// validate checks required fields, metric values, and the coach reference.
func (s *playerService) validate(ctx context.Context, input PlayerInput) error {
	if input.FirstName == "" || input.LastName == "" {
		return NewInvalidError("first and last name are required")
	}
	if input.CoachID == primitive.NilObjectID {
		return NewInvalidError("an assigned coach is required")
	}

	for _, m := range []domain.MetricLevel{
		input.ResilienceProfile, input.Reliability, input.SelfBelief,
		input.Focus, input.Adversity, input.Driver, input.CoachingStyle,
	} {
		if !domain.ValidMetricLevel(m) {
			return NewInvalidError("metric values must be Low, Medium, or High")
		}
	}

	coach, err := s.userRepo.GetByID(ctx, input.CoachID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NewInvalidError("assigned coach not found")
		}
		return err
	}
	if !coach.IsCoach() {
		return NewInvalidError("assigned account is not a coach")
	}
	return nil
}

// applyInput copies the non-playbook fields onto the player.
func applyInput(player *domain.Player, input PlayerInput) {
	player.FirstName = input.FirstName
	player.LastName = input.LastName
	player.CoachID = input.CoachID
	player.ResilienceProfile = input.ResilienceProfile
	player.Reliability = input.Reliability
	player.SelfBelief = input.SelfBelief
	player.Focus = input.Focus
	player.Adversity = input.Adversity
	player.Driver = input.Driver
	player.CoachingStyle = input.CoachingStyle
}

// applyPlaybook stores exactly one playbook representation, clearing the
// other. Called before any row write so an upload failure aborts cleanly.
func (s *playerService) applyPlaybook(ctx context.Context, player *domain.Player, input PlayerInput) error {
	if input.PlaybookType == PlaybookTypeDocument && input.PlaybookFile != nil && input.PlaybookFile.Size > 0 {
		key := playbookObjectKey(input.PlaybookFile.FileName)
		if err := s.fileStorage.Upload(ctx, key, input.PlaybookFile.ContentType, input.PlaybookFile.Content); err != nil {
			return NewUpstreamError("failed to upload playbook document")
		}
		player.PlaybookFileKey = key
		player.PlaybookURL = s.fileStorage.PublicURL(key)
		player.PlaybookText = ""
		return nil
	}

	player.PlaybookText = input.PlaybookText
	player.PlaybookFileKey = ""
	player.PlaybookURL = ""
	return nil
}
