package api

import (
	"net/http"

	"strive/coaching-app/internal/domain"
	"strive/coaching-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlayerHandler holds the player management service dependency.
type PlayerHandler struct {
	playerService service.PlayerService
}

// NewPlayerHandler creates a new PlayerHandler.
func NewPlayerHandler(playerService service.PlayerService) *PlayerHandler {
	return &PlayerHandler{playerService: playerService}
}

// playerInputFromForm reads the multipart player form. The playbook file
// is optional; it is only opened when the document playbook type is chosen.
func playerInputFromForm(c *gin.Context) (service.PlayerInput, func(), error) {
	cleanup := func() {}

	coachID, err := primitive.ObjectIDFromHex(c.PostForm("coachId"))
	if err != nil {
		return service.PlayerInput{}, cleanup, err
	}

	input := service.PlayerInput{
		FirstName: c.PostForm("firstName"),
		LastName:  c.PostForm("lastName"),
		CoachID:   coachID,

		ResilienceProfile: domain.MetricLevel(c.PostForm("resilienceProfile")),
		Reliability:       domain.MetricLevel(c.PostForm("reliability")),
		SelfBelief:        domain.MetricLevel(c.PostForm("selfBelief")),
		Focus:             domain.MetricLevel(c.PostForm("focus")),
		Adversity:         domain.MetricLevel(c.PostForm("adversity")),
		Driver:            domain.MetricLevel(c.PostForm("driver")),
		CoachingStyle:     domain.MetricLevel(c.PostForm("coachingStyle")),

		PlaybookType: c.PostForm("playbookType"),
		PlaybookText: c.PostForm("playbookText"),
	}

	if input.PlaybookType == service.PlaybookTypeDocument {
		fileHeader, err := c.FormFile("playbookFile")
		if err == nil && fileHeader.Size > 0 {
			file, err := fileHeader.Open()
			if err != nil {
				return service.PlayerInput{}, cleanup, err
			}
			cleanup = func() { file.Close() }
			input.PlaybookFile = &service.PlaybookUpload{
				FileName:    fileHeader.Filename,
				ContentType: fileHeader.Header.Get("Content-Type"),
				Size:        fileHeader.Size,
				Content:     file,
			}
		}
	}

	return input, cleanup, nil
}

// AddPlayer creates a player from the multipart admin form.
func (h *PlayerHandler) AddPlayer(c *gin.Context) {
	input, cleanup, err := playerInputFromForm(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid player form data")
		return
	}
	defer cleanup()

	player, err := h.playerService.AddPlayer(c.Request.Context(), input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, player)
}

// UpdatePlayer overwrites a player from the multipart admin form.
func (h *PlayerHandler) UpdatePlayer(c *gin.Context) {
	playerID, err := primitive.ObjectIDFromHex(c.Param("playerId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid player ID format")
		return
	}

	input, cleanup, err := playerInputFromForm(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid player form data")
		return
	}
	defer cleanup()

	player, err := h.playerService.UpdatePlayer(c.Request.Context(), playerID, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, player)
}

// ListPlayers returns every player for the admin roster.
func (h *PlayerHandler) ListPlayers(c *gin.Context) {
	players, err := h.playerService.ListPlayers(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, players)
}

// GetPlayer returns one player.
func (h *PlayerHandler) GetPlayer(c *gin.Context) {
	playerID, err := primitive.ObjectIDFromHex(c.Param("playerId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid player ID format")
		return
	}

	player, err := h.playerService.GetPlayer(c.Request.Context(), playerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, player)
}

// DeletePlayer removes a player, their playbook document, and their
// questionnaire responses.
func (h *PlayerHandler) DeletePlayer(c *gin.Context) {
	playerID, err := primitive.ObjectIDFromHex(c.Param("playerId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid player ID format")
		return
	}

	if err := h.playerService.DeletePlayer(c.Request.Context(), playerID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "player deleted"})
}

// PlaybookDownload returns a presigned link for the player's uploaded
// playbook document.
func (h *PlayerHandler) PlaybookDownload(c *gin.Context) {
	playerID, err := primitive.ObjectIDFromHex(c.Param("playerId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid player ID format")
		return
	}

	url, err := h.playerService.PlaybookDownloadURL(c.Request.Context(), playerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// MyPlayers returns the players assigned to the signed-in coach.
func (h *PlayerHandler) MyPlayers(c *gin.Context) {
	coachID, err := callerObjectID(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	players, err := h.playerService.ListPlayersByCoach(c.Request.Context(), coachID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, players)
}

// MyPlayer returns one player from the signed-in coach's own roster.
func (h *PlayerHandler) MyPlayer(c *gin.Context) {
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

	player, err := h.playerService.GetPlayerForCoach(c.Request.Context(), playerID, coachID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, player)
}

// MyPlayerPlaybook presigns a playbook download for a player on the
// signed-in coach's roster.
func (h *PlayerHandler) MyPlayerPlaybook(c *gin.Context) {
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
	url, err := h.playerService.PlaybookDownloadURL(c.Request.Context(), playerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
