package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"strive/coaching-app/internal/domain"
	"strive/coaching-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AssignResult reports the outcome of a distribution run.
type AssignResult struct {
	Count   int    `json:"count"`
	Message string `json:"message"`
}

// QuestionnaireService owns questionnaire templates, scheduled distribution,
// and player response submission.
type QuestionnaireService interface {
	// SaveTemplate stores a new immutable template. Templates are
	// append-only; the latest one wins for distribution.
	SaveTemplate(ctx context.Context, questions []string) (*domain.QuestionnaireTemplate, error)
	LatestTemplate(ctx context.Context) (*domain.QuestionnaireTemplate, error)
	// Assign creates one pending response per player against the latest
	// template, in a single bulk insert.
	Assign(ctx context.Context) (*AssignResult, error)
	// Submit completes a pending response on behalf of a player.
	Submit(ctx context.Context, responseID, playerID primitive.ObjectID, answers []string) error
	ListResponsesForPlayer(ctx context.Context, playerID primitive.ObjectID) ([]domain.QuestionnaireResponse, error)
}

// questionnaireService implements the QuestionnaireService interface.
type questionnaireService struct {
	questionnaireRepo repository.QuestionnaireRepository
	playerRepo        repository.PlayerRepository
}

// NewQuestionnaireService creates a new instance of questionnaireService.
func NewQuestionnaireService(
	questionnaireRepo repository.QuestionnaireRepository,
	playerRepo repository.PlayerRepository,
) QuestionnaireService {
	return &questionnaireService{
		questionnaireRepo: questionnaireRepo,
		playerRepo:        playerRepo,
	}
}

// SaveTemplate validates and stores a new template.
func (s *questionnaireService) SaveTemplate(ctx context.Context, questions []string) (*domain.QuestionnaireTemplate, error) {
	trimmed := make([]string, 0, len(questions))
	for _, q := range questions {
		if t := strings.TrimSpace(q); t != "" {
			trimmed = append(trimmed, t)
		}
	}
	if len(trimmed) == 0 {
		return nil, NewInvalidError("at least one question is required")
	}

	tpl := &domain.QuestionnaireTemplate{Questions: trimmed}
	id, err := s.questionnaireRepo.CreateTemplate(ctx, tpl)
	if err != nil {
		return nil, NewUpstreamError("failed to save questionnaire template")
	}
	tpl.ID = id
	return tpl, nil
}

// LatestTemplate returns the most recently saved template.
func (s *questionnaireService) LatestTemplate(ctx context.Context) (*domain.QuestionnaireTemplate, error) {
	tpl, err := s.questionnaireRepo.LatestTemplate(ctx)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFoundError("no questionnaire template has been saved yet")
		}
		return nil, err
	}
	return tpl, nil
}

// Assign distributes the latest template to every player. Zero players is
// a successful no-op, not an error.
func (s *questionnaireService) Assign(ctx context.Context) (*AssignResult, error) {
	tpl, err := s.LatestTemplate(ctx)
	if err != nil {
		return nil, err
	}

	players, err := s.playerRepo.GetAll(ctx)
	if err != nil {
		return nil, NewUpstreamError("failed to load players for assignment")
	}
	if len(players) == 0 {
		return &AssignResult{Count: 0, Message: "No players to assign questionnaires to."}, nil
	}

	responses := make([]domain.QuestionnaireResponse, 0, len(players))
	for _, p := range players {
		responses = append(responses, domain.QuestionnaireResponse{
			PlayerID:   p.ID,
			TemplateID: tpl.ID,
			Status:     domain.ResponsePending,
		})
	}
	if err := s.questionnaireRepo.CreateResponses(ctx, responses); err != nil {
		return nil, NewUpstreamError("failed to assign questionnaires")
	}

	return &AssignResult{
		Count:   len(players),
		Message: fmt.Sprintf("Successfully assigned questionnaires to %d players.", len(players)),
	}, nil
}

// Submit records a player's answers and marks the response complete.
func (s *questionnaireService) Submit(ctx context.Context, responseID, playerID primitive.ObjectID, answers []string) error {
	if len(answers) == 0 {
		return NewInvalidError("answers are required")
	}

	response, err := s.questionnaireRepo.GetResponseByID(ctx, responseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return NewNotFoundError("questionnaire response not found")
		}
		return err
	}
	if response.PlayerID != playerID {
		return NewUnauthorizedError("this questionnaire belongs to another player")
	}
	if response.Status == domain.ResponseComplete {
		return NewConflictError("this questionnaire has already been submitted")
	}

	if err := s.questionnaireRepo.CompleteResponse(ctx, responseID, answers); err != nil {
		return NewUpstreamError("failed to submit questionnaire")
	}
	return nil
}

// ListResponsesForPlayer returns a player's responses, newest first.
func (s *questionnaireService) ListResponsesForPlayer(ctx context.Context, playerID primitive.ObjectID) ([]domain.QuestionnaireResponse, error) {
	if _, err := s.playerRepo.GetByID(ctx, playerID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, NewNotFoundError("player not found")
		}
		return nil, err
	}
	return s.questionnaireRepo.GetResponsesByPlayerID(ctx, playerID)
}
