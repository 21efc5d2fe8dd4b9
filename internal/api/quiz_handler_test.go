package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"strive/coaching-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// stubQuizService records administration calls. The embedded interface
// covers the methods this test never reaches.
type stubQuizService struct {
	service.QuizService
	calls           int
	recordedCoach   primitive.ObjectID
	recordedVersion primitive.ObjectID
}

func (s *stubQuizService) RecordAdministration(_ context.Context, coachID, versionID primitive.ObjectID) error {
	s.calls++
	s.recordedCoach = coachID
	s.recordedVersion = versionID
	return nil
}

func TestRecordAdministrationTakesVersionFromPath(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc := &stubQuizService{}
	handler := NewQuizHandler(svc)
	coachID := primitive.NewObjectID()
	versionID := primitive.NewObjectID()

	router := gin.New()
	router.POST("/dashboard/quiz/:versionId/administer", func(c *gin.Context) {
		c.Set(ContextUserIDKey, coachID.Hex())
		handler.RecordAdministration(c)
	})

	// The path names the version; no request body is needed.
	req := httptest.NewRequest(http.MethodPost, "/dashboard/quiz/"+versionID.Hex()+"/administer", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if svc.calls != 1 {
		t.Fatalf("RecordAdministration called %d times, want 1", svc.calls)
	}
	if svc.recordedVersion != versionID {
		t.Errorf("recorded version %s, want %s", svc.recordedVersion.Hex(), versionID.Hex())
	}
	if svc.recordedCoach != coachID {
		t.Errorf("recorded coach %s, want %s", svc.recordedCoach.Hex(), coachID.Hex())
	}

	// A malformed path segment is rejected before the service is reached.
	req = httptest.NewRequest(http.MethodPost, "/dashboard/quiz/not-an-id/administer", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed version id status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if svc.calls != 1 {
		t.Error("service reached despite malformed version id")
	}
}
