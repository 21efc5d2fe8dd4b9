package api

import (
	"fmt"
	"net/http"

	"strive/coaching-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// QuestionnaireHandler holds the questionnaire service dependency. The
// player service backs the roster ownership check on dashboard routes.
type QuestionnaireHandler struct {
	questionnaireService service.QuestionnaireService
	playerService        service.PlayerService
}

// NewQuestionnaireHandler creates a new QuestionnaireHandler.
func NewQuestionnaireHandler(questionnaireService service.QuestionnaireService, playerService service.PlayerService) *QuestionnaireHandler {
	return &QuestionnaireHandler{
		questionnaireService: questionnaireService,
		playerService:        playerService,
	}
}

type SaveTemplateRequest struct {
	Questions []string `json:"questions" binding:"required"`
}

type SubmitResponseRequest struct {
	PlayerID string   `json:"playerId" binding:"required"`
	Answers  []string `json:"answers" binding:"required"`
}

// SaveTemplate stores a new questionnaire template.
func (h *QuestionnaireHandler) SaveTemplate(c *gin.Context) {
	var req SaveTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	tpl, err := h.questionnaireService.SaveTemplate(c.Request.Context(), req.Questions)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tpl)
}

// LatestTemplate returns the template the next distribution run will use.
func (h *QuestionnaireHandler) LatestTemplate(c *gin.Context) {
	tpl, err := h.questionnaireService.LatestTemplate(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, tpl)
}

// Assign runs questionnaire distribution. Called by the scheduler through
// the service-key endpoint, or manually by an admin.
func (h *QuestionnaireHandler) Assign(c *gin.Context) {
	result, err := h.questionnaireService.Assign(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ListResponsesForPlayer returns a player's questionnaire responses.
func (h *QuestionnaireHandler) ListResponsesForPlayer(c *gin.Context) {
	playerID, err := primitive.ObjectIDFromHex(c.Param("playerId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid player ID format")
		return
	}

	responses, err := h.questionnaireService.ListResponsesForPlayer(c.Request.Context(), playerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, responses)
}

// MyPlayerResponses returns questionnaire responses for a player on the
// signed-in coach's own roster.
func (h *QuestionnaireHandler) MyPlayerResponses(c *gin.Context) {
	coachID, err := callerObjectID(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	playerID, err := primitive.ObjectIDFromHex(c.Param("playerId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid player ID format")
		return
	}

	if _, err := h.playerService.GetPlayerForCoach(c.Request.Context(), playerID, coachID); err != nil {
		respondServiceError(c, err)
		return
	}
	responses, err := h.questionnaireService.ListResponsesForPlayer(c.Request.Context(), playerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, responses)
}

// SubmitResponse records a player's answers for a pending response.
func (h *QuestionnaireHandler) SubmitResponse(c *gin.Context) {
	responseID, err := primitive.ObjectIDFromHex(c.Param("responseId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid response ID format")
		return
	}

	var req SubmitResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}
	playerID, err := primitive.ObjectIDFromHex(req.PlayerID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid player ID format")
		return
	}

	if err := h.questionnaireService.Submit(c.Request.Context(), responseID, playerID, req.Answers); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "questionnaire submitted"})
}
