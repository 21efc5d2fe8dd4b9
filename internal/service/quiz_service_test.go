package service

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"strive/coaching-app/internal/domain"
	"strive/coaching-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newQuizFixture() (QuizService, *stubQuizRepo, *stubVersionRepo, *stubAccessRepo, *stubUserRepo) {
	quizzes := newStubQuizRepo()
	versions := newStubVersionRepo()
	grants := newStubAccessRepo()
	users := newStubUserRepo()
	svc := NewQuizService(quizzes, versions, grants, users)
	return svc, quizzes, versions, grants, users
}

func requireCode(t *testing.T, err error, code ErrorCode) {
	t.Helper()
	se, ok := AsServiceError(err)
	if !ok {
		t.Fatalf("expected ServiceError, got %v", err)
	}
	if se.Code != code {
		t.Fatalf("expected error code %q, got %q (%s)", code, se.Code, se.Message)
	}
}

func TestCreateQuizCreatesInitialVersion(t *testing.T) {
	svc, _, versions, _, _ := newQuizFixture()
	ctx := context.Background()

	quiz, version, err := svc.CreateQuiz(ctx, "Resilience Assessment")
	if err != nil {
		t.Fatalf("CreateQuiz: %v", err)
	}
	if version.QuizID != quiz.ID {
		t.Errorf("version points at quiz %s, want %s", version.QuizID.Hex(), quiz.ID.Hex())
	}
	if version.VersionNumber != 1 {
		t.Errorf("initial version number = %d, want 1", version.VersionNumber)
	}
	if version.IsActive {
		t.Error("initial version must start inactive")
	}
	if len(version.QuizData.Questions) != 0 {
		t.Errorf("initial version has %d questions, want 0", len(version.QuizData.Questions))
	}
	if got, _ := versions.GetByQuizID(ctx, quiz.ID); len(got) != 1 {
		t.Errorf("stored %d versions, want 1", len(got))
	}
}

func TestCreateQuizRemovesOrphanOnVersionFailure(t *testing.T) {
	svc, quizzes, versions, _, _ := newQuizFixture()
	versions.createErr = errors.New("write failed")

	_, _, err := svc.CreateQuiz(context.Background(), "Doomed")
	requireCode(t, err, ErrorUpstream)

	if got, _ := quizzes.GetAll(context.Background()); len(got) != 0 {
		t.Errorf("orphaned quiz family left behind: %d families", len(got))
	}
}

func TestCreateQuizRequiresName(t *testing.T) {
	svc, _, _, _, _ := newQuizFixture()
	_, _, err := svc.CreateQuiz(context.Background(), "")
	requireCode(t, err, ErrorInvalid)
}

func TestSetActiveVersionIsExclusive(t *testing.T) {
	svc, _, versions, _, _ := newQuizFixture()
	ctx := context.Background()

	quiz, v1, err := svc.CreateQuiz(ctx, "Assessment")
	if err != nil {
		t.Fatalf("CreateQuiz: %v", err)
	}
	if err := svc.SetActiveVersion(ctx, quiz.ID, v1.ID); err != nil {
		t.Fatalf("activate v1: %v", err)
	}

	v2, err := svc.CloneVersion(ctx, v1.ID)
	if err != nil {
		t.Fatalf("CloneVersion: %v", err)
	}
	if err := svc.SetActiveVersion(ctx, quiz.ID, v2.ID); err != nil {
		t.Fatalf("activate v2: %v", err)
	}

	active := versions.activeVersions(quiz.ID)
	if len(active) != 1 {
		t.Fatalf("%d active versions after switching, want exactly 1", len(active))
	}
	if active[0].ID != v2.ID {
		t.Errorf("active version is %s, want %s", active[0].ID.Hex(), v2.ID.Hex())
	}
}

func TestSetActiveVersionRejectsForeignVersion(t *testing.T) {
	svc, _, _, _, _ := newQuizFixture()
	ctx := context.Background()

	quizA, _, _ := svc.CreateQuiz(ctx, "A")
	_, vB, _ := svc.CreateQuiz(ctx, "B")

	err := svc.SetActiveVersion(ctx, quizA.ID, vB.ID)
	requireCode(t, err, ErrorInvalid)
}

func TestCloneVersionNumbersFromMax(t *testing.T) {
	svc, _, _, _, _ := newQuizFixture()
	ctx := context.Background()

	quiz, v1, _ := svc.CreateQuiz(ctx, "Assessment")
	data := domain.QuizData{Questions: []domain.Question{
		{
			ID: "q1", Text: "How do you respond to setbacks?", Metric: "adversity",
			Choices: []domain.Choice{
				{ID: "c1", Text: "Recover quickly", Value: 3},
				{ID: "c2", Text: "Need time", Value: 1.5},
				{ID: "c3", Text: "Dwell on them", Value: 0.25},
			},
		},
		{
			ID: "q2", Text: "How steady is your focus under pressure?", Metric: "focus",
			Choices: []domain.Choice{
				{ID: "c1", Text: "Unshakeable", Value: 2},
				{ID: "c2", Text: "Variable", Value: 1},
			},
		},
	}}
	if err := svc.UpdateVersionData(ctx, v1.ID, data); err != nil {
		t.Fatalf("UpdateVersionData: %v", err)
	}

	// The save preserves question and choice order and the exact scores.
	saved, err := svc.GetVersion(ctx, v1.ID)
	if err != nil {
		t.Fatalf("GetVersion: %v", err)
	}
	if !reflect.DeepEqual(saved.QuizData, data) {
		t.Errorf("saved data = %+v, want %+v", saved.QuizData, data)
	}

	v2, err := svc.CloneVersion(ctx, v1.ID)
	if err != nil {
		t.Fatalf("clone v1: %v", err)
	}
	if v2.VersionNumber != 2 {
		t.Errorf("first clone number = %d, want 2", v2.VersionNumber)
	}
	if v2.QuizID != quiz.ID {
		t.Errorf("clone family = %s, want %s", v2.QuizID.Hex(), quiz.ID.Hex())
	}
	if v2.IsActive {
		t.Error("clone must start inactive")
	}
	if !reflect.DeepEqual(v2.QuizData, data) {
		t.Errorf("clone data = %+v, want %+v", v2.QuizData, data)
	}

	// Cloning the older version still numbers past the family max.
	v3, err := svc.CloneVersion(ctx, v1.ID)
	if err != nil {
		t.Fatalf("clone v1 again: %v", err)
	}
	if v3.VersionNumber != 3 {
		t.Errorf("second clone number = %d, want 3", v3.VersionNumber)
	}
}

func TestCloneVersionRaceSurfacesConflict(t *testing.T) {
	svc, _, versions, _, _ := newQuizFixture()
	ctx := context.Background()

	_, v1, _ := svc.CreateQuiz(ctx, "Assessment")
	versions.createErr = repository.ErrConflict

	_, err := svc.CloneVersion(ctx, v1.ID)
	requireCode(t, err, ErrorConflict)
}

func TestUpdateVersionDataRejectsFrozen(t *testing.T) {
	svc, _, versions, _, users := newQuizFixture()
	ctx := context.Background()

	quiz, v1, _ := svc.CreateQuiz(ctx, "Assessment")
	data := domain.QuizData{Questions: []domain.Question{{ID: "q1", Text: "?", Metric: "focus"}}}

	// Draft is editable.
	if err := svc.UpdateVersionData(ctx, v1.ID, data); err != nil {
		t.Fatalf("draft edit rejected: %v", err)
	}

	// Active freezes.
	if err := svc.SetActiveVersion(ctx, quiz.ID, v1.ID); err != nil {
		t.Fatalf("activate: %v", err)
	}
	requireCode(t, svc.UpdateVersionData(ctx, v1.ID, data), ErrorConflict)

	// Administered freezes even after deactivation.
	v2, _ := svc.CloneVersion(ctx, v1.ID)
	if err := svc.SetActiveVersion(ctx, quiz.ID, v2.ID); err != nil {
		t.Fatalf("activate v2: %v", err)
	}
	coachID := addCoach(users, "coach@test.io")
	if err := svc.UpdateCoachAccess(ctx, v2.ID, []primitive.ObjectID{coachID}); err != nil {
		t.Fatalf("grant access: %v", err)
	}
	if err := svc.RecordAdministration(ctx, coachID, v2.ID); err != nil {
		t.Fatalf("administer: %v", err)
	}
	if err := svc.SetActiveVersion(ctx, quiz.ID, v1.ID); err != nil {
		t.Fatalf("switch back to v1: %v", err)
	}
	requireCode(t, svc.UpdateVersionData(ctx, v2.ID, data), ErrorConflict)

	stored, _ := versions.GetByID(ctx, v2.ID)
	if stored.IsActive {
		t.Fatal("v2 should be inactive after the switch")
	}
	if stored.TimesAdministered != 1 {
		t.Fatalf("TimesAdministered = %d, want 1", stored.TimesAdministered)
	}
}

func TestUpdateCoachAccessReplacesGrantSet(t *testing.T) {
	svc, _, _, grants, users := newQuizFixture()
	ctx := context.Background()

	_, v1, _ := svc.CreateQuiz(ctx, "Assessment")
	coachA := addCoach(users, "a@test.io")
	coachB := addCoach(users, "b@test.io")

	if err := svc.UpdateCoachAccess(ctx, v1.ID, []primitive.ObjectID{coachA}); err != nil {
		t.Fatalf("grant A: %v", err)
	}
	if err := svc.UpdateCoachAccess(ctx, v1.ID, []primitive.ObjectID{coachB}); err != nil {
		t.Fatalf("replace with B: %v", err)
	}

	got, _ := grants.GetByVersionID(ctx, v1.ID)
	if len(got) != 1 || got[0].CoachID != coachB {
		t.Fatalf("grant set not replaced: %+v", got)
	}
}

func TestUpdateCoachAccessIdempotent(t *testing.T) {
	svc, _, _, grants, users := newQuizFixture()
	ctx := context.Background()

	_, v1, _ := svc.CreateQuiz(ctx, "Assessment")
	coachA := addCoach(users, "a@test.io")
	set := []primitive.ObjectID{coachA}

	if err := svc.UpdateCoachAccess(ctx, v1.ID, set); err != nil {
		t.Fatalf("first grant: %v", err)
	}
	// Re-submitting the identical set succeeds and changes nothing.
	if err := svc.UpdateCoachAccess(ctx, v1.ID, set); err != nil {
		t.Fatalf("idempotent re-grant rejected: %v", err)
	}
	got, _ := grants.GetByVersionID(ctx, v1.ID)
	if len(got) != 1 {
		t.Fatalf("%d grants after idempotent re-grant, want 1", len(got))
	}
}

func TestUpdateCoachAccessConflictLeavesGrantsUntouched(t *testing.T) {
	svc, _, _, grants, users := newQuizFixture()
	ctx := context.Background()

	_, v1, _ := svc.CreateQuiz(ctx, "Assessment A")
	_, v2, _ := svc.CreateQuiz(ctx, "Assessment B")
	coachA := addCoach(users, "a@test.io")
	coachB := addCoach(users, "b@test.io")

	if err := svc.UpdateCoachAccess(ctx, v1.ID, []primitive.ObjectID{coachA}); err != nil {
		t.Fatalf("grant A on v1: %v", err)
	}
	if err := svc.UpdateCoachAccess(ctx, v2.ID, []primitive.ObjectID{coachB}); err != nil {
		t.Fatalf("grant B on v2: %v", err)
	}

	// Moving A onto v2 must fail while A is granted elsewhere, and neither
	// version's grants may change.
	err := svc.UpdateCoachAccess(ctx, v2.ID, []primitive.ObjectID{coachA, coachB})
	requireCode(t, err, ErrorConflict)

	v1Grants, _ := grants.GetByVersionID(ctx, v1.ID)
	v2Grants, _ := grants.GetByVersionID(ctx, v2.ID)
	if len(v1Grants) != 1 || v1Grants[0].CoachID != coachA {
		t.Errorf("v1 grants mutated by failed update: %+v", v1Grants)
	}
	if len(v2Grants) != 1 || v2Grants[0].CoachID != coachB {
		t.Errorf("v2 grants mutated by failed update: %+v", v2Grants)
	}
}

func TestUpdateCoachAccessEmptyRevokesAll(t *testing.T) {
	svc, _, _, grants, users := newQuizFixture()
	ctx := context.Background()

	_, v1, _ := svc.CreateQuiz(ctx, "Assessment")
	coachA := addCoach(users, "a@test.io")
	if err := svc.UpdateCoachAccess(ctx, v1.ID, []primitive.ObjectID{coachA}); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if err := svc.UpdateCoachAccess(ctx, v1.ID, nil); err != nil {
		t.Fatalf("revoke all: %v", err)
	}
	if got, _ := grants.GetByVersionID(ctx, v1.ID); len(got) != 0 {
		t.Fatalf("%d grants after revoking all, want 0", len(got))
	}
}

func TestDeleteQuizCascades(t *testing.T) {
	svc, quizzes, versions, grants, users := newQuizFixture()
	ctx := context.Background()

	quiz, v1, _ := svc.CreateQuiz(ctx, "Assessment")
	v2, _ := svc.CloneVersion(ctx, v1.ID)
	coachA := addCoach(users, "a@test.io")
	if err := svc.UpdateCoachAccess(ctx, v2.ID, []primitive.ObjectID{coachA}); err != nil {
		t.Fatalf("grant: %v", err)
	}

	if err := svc.DeleteQuiz(ctx, quiz.ID); err != nil {
		t.Fatalf("DeleteQuiz: %v", err)
	}

	if _, err := quizzes.GetByID(ctx, quiz.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Error("family still present after delete")
	}
	if got, _ := versions.GetByQuizID(ctx, quiz.ID); len(got) != 0 {
		t.Errorf("%d versions left after family delete", len(got))
	}
	if _, err := grants.GetByCoachID(ctx, coachA); !errors.Is(err, repository.ErrNotFound) {
		t.Error("grant survived family delete")
	}
}

func TestDeleteVersionRemovesGrants(t *testing.T) {
	svc, _, _, grants, users := newQuizFixture()
	ctx := context.Background()

	quiz, v1, _ := svc.CreateQuiz(ctx, "Assessment")
	v2, _ := svc.CloneVersion(ctx, v1.ID)
	coachA := addCoach(users, "a@test.io")
	if err := svc.UpdateCoachAccess(ctx, v2.ID, []primitive.ObjectID{coachA}); err != nil {
		t.Fatalf("grant: %v", err)
	}

	if err := svc.DeleteVersion(ctx, quiz.ID, v2.ID); err != nil {
		t.Fatalf("DeleteVersion: %v", err)
	}
	if _, err := grants.GetByCoachID(ctx, coachA); !errors.Is(err, repository.ErrNotFound) {
		t.Error("grant survived version delete")
	}

	// The freed coach can now be granted another version.
	if err := svc.UpdateCoachAccess(ctx, v1.ID, []primitive.ObjectID{coachA}); err != nil {
		t.Fatalf("re-grant after version delete: %v", err)
	}
}

func TestGetAssignedVersionResolvesFamily(t *testing.T) {
	svc, _, _, _, users := newQuizFixture()
	ctx := context.Background()

	quiz, v1, _ := svc.CreateQuiz(ctx, "Assessment")
	coachA := addCoach(users, "a@test.io")
	if err := svc.UpdateCoachAccess(ctx, v1.ID, []primitive.ObjectID{coachA}); err != nil {
		t.Fatalf("grant: %v", err)
	}

	gotQuiz, gotVersion, err := svc.GetAssignedVersion(ctx, coachA)
	if err != nil {
		t.Fatalf("GetAssignedVersion: %v", err)
	}
	if gotQuiz.ID != quiz.ID || gotVersion.ID != v1.ID {
		t.Errorf("resolved (%s, %s), want (%s, %s)",
			gotQuiz.ID.Hex(), gotVersion.ID.Hex(), quiz.ID.Hex(), v1.ID.Hex())
	}
}

func TestGetAssignedVersionWithoutGrant(t *testing.T) {
	svc, _, _, _, users := newQuizFixture()
	coachA := addCoach(users, "a@test.io")

	_, _, err := svc.GetAssignedVersion(context.Background(), coachA)
	requireCode(t, err, ErrorNotFound)
}

func TestRecordAdministrationRequiresActiveGrantedVersion(t *testing.T) {
	svc, _, versions, _, users := newQuizFixture()
	ctx := context.Background()

	quiz, v1, _ := svc.CreateQuiz(ctx, "Assessment")
	coachA := addCoach(users, "a@test.io")
	coachB := addCoach(users, "b@test.io")
	if err := svc.UpdateCoachAccess(ctx, v1.ID, []primitive.ObjectID{coachA}); err != nil {
		t.Fatalf("grant: %v", err)
	}

	// Inactive version cannot be administered.
	requireCode(t, svc.RecordAdministration(ctx, coachA, v1.ID), ErrorConflict)

	if err := svc.SetActiveVersion(ctx, quiz.ID, v1.ID); err != nil {
		t.Fatalf("activate: %v", err)
	}

	// A coach without the grant is rejected.
	requireCode(t, svc.RecordAdministration(ctx, coachB, v1.ID), ErrorUnauthorized)

	if err := svc.RecordAdministration(ctx, coachA, v1.ID); err != nil {
		t.Fatalf("administer: %v", err)
	}
	stored, _ := versions.GetByID(ctx, v1.ID)
	if stored.TimesAdministered != 1 {
		t.Errorf("TimesAdministered = %d, want 1", stored.TimesAdministered)
	}
}
