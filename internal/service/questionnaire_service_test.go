package service

import (
	"context"
	"fmt"
	"testing"

	"strive/coaching-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newQuestionnaireFixture() (QuestionnaireService, *stubQuestionnaireRepo, *stubPlayerRepo) {
	questionnaires := newStubQuestionnaireRepo()
	players := newStubPlayerRepo()
	svc := NewQuestionnaireService(questionnaires, players)
	return svc, questionnaires, players
}

func seedPlayer(players *stubPlayerRepo, firstName string) primitive.ObjectID {
	id, _ := players.Create(context.Background(), &domain.Player{
		FirstName: firstName,
		LastName:  "Test",
		CoachID:   primitive.NewObjectID(),
	})
	return id
}

func TestSaveTemplateValidation(t *testing.T) {
	svc, _, _ := newQuestionnaireFixture()
	ctx := context.Background()

	_, err := svc.SaveTemplate(ctx, nil)
	requireCode(t, err, ErrorInvalid)

	// Whitespace-only questions do not count.
	_, err = svc.SaveTemplate(ctx, []string{"   ", "\t"})
	requireCode(t, err, ErrorInvalid)
}

func TestSaveTemplateIsAppendOnly(t *testing.T) {
	svc, _, _ := newQuestionnaireFixture()
	ctx := context.Background()

	first, err := svc.SaveTemplate(ctx, []string{"How was training this week?"})
	if err != nil {
		t.Fatalf("first save: %v", err)
	}
	second, err := svc.SaveTemplate(ctx, []string{"How was training?", "Anything bothering you?"})
	if err != nil {
		t.Fatalf("second save: %v", err)
	}
	if first.ID == second.ID {
		t.Fatal("saving again must create a new template")
	}

	latest, err := svc.LatestTemplate(ctx)
	if err != nil {
		t.Fatalf("LatestTemplate: %v", err)
	}
	if latest.ID != second.ID {
		t.Errorf("latest = %s, want %s", latest.ID.Hex(), second.ID.Hex())
	}
	if len(latest.Questions) != 2 {
		t.Errorf("latest has %d questions, want 2", len(latest.Questions))
	}
}

func TestAssignWithNoPlayersIsNoOp(t *testing.T) {
	svc, questionnaires, _ := newQuestionnaireFixture()
	ctx := context.Background()

	if _, err := svc.SaveTemplate(ctx, []string{"How was training?"}); err != nil {
		t.Fatalf("SaveTemplate: %v", err)
	}

	result, err := svc.Assign(ctx)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if result.Count != 0 {
		t.Errorf("count = %d, want 0", result.Count)
	}
	if result.Message != "No players to assign questionnaires to." {
		t.Errorf("message = %q", result.Message)
	}
	if questionnaires.bulkCalls != 0 {
		t.Errorf("bulk insert called %d times for zero players", questionnaires.bulkCalls)
	}
}

func TestAssignWithoutTemplate(t *testing.T) {
	svc, _, players := newQuestionnaireFixture()
	seedPlayer(players, "Jamie")

	_, err := svc.Assign(context.Background())
	requireCode(t, err, ErrorNotFound)
}

func TestAssignCreatesOnePendingResponsePerPlayer(t *testing.T) {
	svc, questionnaires, players := newQuestionnaireFixture()
	ctx := context.Background()

	tpl, err := svc.SaveTemplate(ctx, []string{"How was training?"})
	if err != nil {
		t.Fatalf("SaveTemplate: %v", err)
	}
	ids := []primitive.ObjectID{
		seedPlayer(players, "Jamie"),
		seedPlayer(players, "Riley"),
		seedPlayer(players, "Sam"),
	}

	result, err := svc.Assign(ctx)
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if result.Count != 3 {
		t.Errorf("count = %d, want 3", result.Count)
	}
	if want := fmt.Sprintf("Successfully assigned questionnaires to %d players.", 3); result.Message != want {
		t.Errorf("message = %q, want %q", result.Message, want)
	}
	if questionnaires.bulkCalls != 1 {
		t.Errorf("bulk insert called %d times, want a single batch", questionnaires.bulkCalls)
	}

	for _, playerID := range ids {
		responses, _ := questionnaires.GetResponsesByPlayerID(ctx, playerID)
		if len(responses) != 1 {
			t.Fatalf("player %s has %d responses, want 1", playerID.Hex(), len(responses))
		}
		resp := responses[0]
		if resp.Status != domain.ResponsePending {
			t.Errorf("status = %q, want pending", resp.Status)
		}
		if resp.TemplateID != tpl.ID {
			t.Errorf("response references template %s, want %s", resp.TemplateID.Hex(), tpl.ID.Hex())
		}
	}
}

func TestSubmitCompletesOwnResponse(t *testing.T) {
	svc, questionnaires, players := newQuestionnaireFixture()
	ctx := context.Background()

	if _, err := svc.SaveTemplate(ctx, []string{"How was training?"}); err != nil {
		t.Fatalf("SaveTemplate: %v", err)
	}
	playerID := seedPlayer(players, "Jamie")
	otherID := seedPlayer(players, "Riley")
	if _, err := svc.Assign(ctx); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	responses, _ := questionnaires.GetResponsesByPlayerID(ctx, playerID)
	responseID := responses[0].ID

	// Another player's identity is rejected.
	err := svc.Submit(ctx, responseID, otherID, []string{"Good"})
	requireCode(t, err, ErrorUnauthorized)

	if err := svc.Submit(ctx, responseID, playerID, []string{"Good"}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	stored, _ := questionnaires.GetResponseByID(ctx, responseID)
	if stored.Status != domain.ResponseComplete {
		t.Errorf("status = %q, want complete", stored.Status)
	}
	if len(stored.Answers) != 1 || stored.Answers[0] != "Good" {
		t.Errorf("answers = %v", stored.Answers)
	}

	// Double submission is a conflict.
	err = svc.Submit(ctx, responseID, playerID, []string{"Changed my mind"})
	requireCode(t, err, ErrorConflict)
}

func TestListResponsesForUnknownPlayer(t *testing.T) {
	svc, _, _ := newQuestionnaireFixture()
	_, err := svc.ListResponsesForPlayer(context.Background(), primitive.NewObjectID())
	requireCode(t, err, ErrorNotFound)
}
