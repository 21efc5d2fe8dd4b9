package api

import (
	"fmt"
	"net/http"

	"strive/coaching-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CoachHandler holds the coach management service dependency.
type CoachHandler struct {
	coachService service.CoachService
}

// NewCoachHandler creates a new CoachHandler.
func NewCoachHandler(coachService service.CoachService) *CoachHandler {
	return &CoachHandler{coachService: coachService}
}

type InviteCoachRequest struct {
	FirstName    string `json:"firstName" binding:"required"`
	LastName     string `json:"lastName" binding:"required"`
	Email        string `json:"email" binding:"required,email"`
	Organization string `json:"organization" binding:"required"`
}

// InviteCoach creates and emails a coach invitation.
func (h *CoachHandler) InviteCoach(c *gin.Context) {
	var req InviteCoachRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	user, err := h.coachService.InviteCoach(c.Request.Context(), req.FirstName, req.LastName, req.Email, req.Organization)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapUserToResponse(user))
}

// ListCoaches returns the coach roster.
func (h *CoachHandler) ListCoaches(c *gin.Context) {
	listings, err := h.coachService.ListCoaches(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, listings)
}

// DeleteCoach removes a coach account and its access grant.
func (h *CoachHandler) DeleteCoach(c *gin.Context) {
	coachID, err := primitive.ObjectIDFromHex(c.Param("coachId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid coach ID format")
		return
	}

	if err := h.coachService.DeleteCoach(c.Request.Context(), coachID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "coach deleted"})
}
