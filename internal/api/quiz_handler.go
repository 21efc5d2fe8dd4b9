package api

import (
	"fmt"
	"net/http"

	"strive/coaching-app/internal/domain"
	"strive/coaching-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// QuizHandler holds the quiz workflow service dependency.
type QuizHandler struct {
	quizService service.QuizService
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(quizService service.QuizService) *QuizHandler {
	return &QuizHandler{quizService: quizService}
}

type CreateQuizRequest struct {
	Name string `json:"name" binding:"required"`
}

type UpdateVersionDataRequest struct {
	QuizData domain.QuizData `json:"quizData" binding:"required"`
}

type UpdateCoachAccessRequest struct {
	// CoachIDs is the full replacement grant set; empty revokes all access.
	CoachIDs []string `json:"coachIds"`
}

// CreateQuiz creates a quiz family with its initial draft version.
func (h *QuizHandler) CreateQuiz(c *gin.Context) {
	var req CreateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	quiz, version, err := h.quizService.CreateQuiz(c.Request.Context(), req.Name)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"quiz": quiz, "version": version})
}

// ListQuizzes returns every quiz family.
func (h *QuizHandler) ListQuizzes(c *gin.Context) {
	quizzes, err := h.quizService.GetQuizzes(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, quizzes)
}

// GetQuiz returns one family with all its versions.
func (h *QuizHandler) GetQuiz(c *gin.Context) {
	quizID, err := primitive.ObjectIDFromHex(c.Param("quizId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid quiz ID format")
		return
	}

	detail, err := h.quizService.GetQuiz(c.Request.Context(), quizID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// DeleteQuiz removes a family, its versions, and their grants.
func (h *QuizHandler) DeleteQuiz(c *gin.Context) {
	quizID, err := primitive.ObjectIDFromHex(c.Param("quizId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid quiz ID format")
		return
	}

	if err := h.quizService.DeleteQuiz(c.Request.Context(), quizID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "quiz deleted"})
}

// UpdateVersionData saves a draft version's content.
func (h *QuizHandler) UpdateVersionData(c *gin.Context) {
	versionID, err := primitive.ObjectIDFromHex(c.Param("versionId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid version ID format")
		return
	}

	var req UpdateVersionDataRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	if err := h.quizService.UpdateVersionData(c.Request.Context(), versionID, req.QuizData); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "version saved"})
}

// SetActiveVersion makes one version the family's active version.
func (h *QuizHandler) SetActiveVersion(c *gin.Context) {
	quizID, err := primitive.ObjectIDFromHex(c.Param("quizId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid quiz ID format")
		return
	}

	versionID, err := primitive.ObjectIDFromHex(c.Param("versionId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid version ID format")
		return
	}

	if err := h.quizService.SetActiveVersion(c.Request.Context(), quizID, versionID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "active version updated"})
}

// CloneVersion copies a version into a new draft.
func (h *QuizHandler) CloneVersion(c *gin.Context) {
	versionID, err := primitive.ObjectIDFromHex(c.Param("versionId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid version ID format")
		return
	}

	clone, err := h.quizService.CloneVersion(c.Request.Context(), versionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, clone)
}

// DeleteVersion removes one version and its grants.
func (h *QuizHandler) DeleteVersion(c *gin.Context) {
	quizID, err := primitive.ObjectIDFromHex(c.Param("quizId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid quiz ID format")
		return
	}
	versionID, err := primitive.ObjectIDFromHex(c.Param("versionId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid version ID format")
		return
	}

	if err := h.quizService.DeleteVersion(c.Request.Context(), quizID, versionID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "version deleted"})
}

// GetCoachAccess lists the grants on a version.
func (h *QuizHandler) GetCoachAccess(c *gin.Context) {
	versionID, err := primitive.ObjectIDFromHex(c.Param("versionId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid version ID format")
		return
	}

	grants, err := h.quizService.GetCoachAccess(c.Request.Context(), versionID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, grants)
}

// UpdateCoachAccess replaces the grant set on a version.
func (h *QuizHandler) UpdateCoachAccess(c *gin.Context) {
	versionID, err := primitive.ObjectIDFromHex(c.Param("versionId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid version ID format")
		return
	}

	var req UpdateCoachAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	coachIDs := make([]primitive.ObjectID, 0, len(req.CoachIDs))
	for _, idStr := range req.CoachIDs {
		id, err := primitive.ObjectIDFromHex(idStr)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid coach ID format")
			return
		}
		coachIDs = append(coachIDs, id)
	}

	if err := h.quizService.UpdateCoachAccess(c.Request.Context(), versionID, coachIDs); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "coach access updated"})
}

// MyAssignedQuiz returns the quiz version granted to the signed-in coach.
func (h *QuizHandler) MyAssignedQuiz(c *gin.Context) {
	coachID, err := callerObjectID(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	quiz, version, err := h.quizService.GetAssignedVersion(c.Request.Context(), coachID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"quiz": quiz, "version": version})
}

// RecordAdministration marks the coach's assigned version as administered
// once more. The version is named by the route path; no body is required.
func (h *QuizHandler) RecordAdministration(c *gin.Context) {
	coachID, err := callerObjectID(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	versionID, err := primitive.ObjectIDFromHex(c.Param("versionId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid version ID format")
		return
	}

	if err := h.quizService.RecordAdministration(c.Request.Context(), coachID, versionID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "administration recorded"})
}

// callerObjectID resolves the authenticated user's ID from context claims.
func callerObjectID(c *gin.Context) (primitive.ObjectID, error) {
	userIDStr, err := getUserIDFromContext(c)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return primitive.ObjectIDFromHex(userIDStr)
}
