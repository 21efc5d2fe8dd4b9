package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PageHandler serves the gated page routes. The screens themselves are a
// separate frontend; the server's job on these paths is the identity gate
// plus a shell response the frontend hydrates.
type PageHandler struct{}

// NewPageHandler creates a new PageHandler.
func NewPageHandler() *PageHandler {
	return &PageHandler{}
}

// Shell answers a gated page request that passed the identity gate.
func (h *PageHandler) Shell(page string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"page": page})
	}
}

// AuthConfirm lands the invitation email link. The token travels in the
// query string and is consumed by the accept-invitation API call the page
// makes next.
func (h *PageHandler) AuthConfirm(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		abortWithError(c, http.StatusBadRequest, "Missing invitation token")
		return
	}
	c.JSON(http.StatusOK, gin.H{"page": "auth/confirm", "token": token})
}

// AuthCallback lands external identity redirects. Kept exempt from the
// gate so the exchange works in any session state.
func (h *PageHandler) AuthCallback(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"page": "auth/callback"})
}
