package api

import (
	"fmt"
	"net/http"
	"time"

	"strive/coaching-app/internal/domain"
	"strive/coaching-app/internal/service"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the authentication service dependency.
type AuthHandler struct {
	authService  service.AuthService
	cookieTTL    time.Duration
	cookieSecure bool
}

// NewAuthHandler creates a new AuthHandler. cookieSecure marks the session
// cookie HTTPS-only; it follows the deployment's external URL scheme.
func NewAuthHandler(authService service.AuthService, cookieTTL time.Duration, cookieSecure bool) *AuthHandler {
	return &AuthHandler{authService: authService, cookieTTL: cookieTTL, cookieSecure: cookieSecure}
}

// --- Request/Response Structs ---

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UserResponse excludes sensitive info like password hash
type UserResponse struct {
	ID        string      `json:"id"`
	Email     string      `json:"email"`
	FirstName string      `json:"firstName"`
	LastName  string      `json:"lastName"`
	Role      domain.Role `json:"role"`
	CreatedAt time.Time   `json:"createdAt"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type AcceptInviteRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

// --- Handler Methods ---

// Login authenticates a user, returns a JWT, and sets the session cookie
// so the browser page flow and API clients share one sign-in.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.SetCookie(SessionCookieName, token, int(h.cookieTTL.Seconds()), "/", "", h.cookieSecure, true)
	c.JSON(http.StatusOK, LoginResponse{
		Token: token,
		User:  MapUserToResponse(user),
	})
}

// Logout clears the session cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetCookie(SessionCookieName, "", -1, "/", "", h.cookieSecure, true)
	c.JSON(http.StatusOK, gin.H{"message": "signed out"})
}

// AcceptInvite completes credential setup from an emailed invitation link.
func (h *AuthHandler) AcceptInvite(c *gin.Context) {
	var req AcceptInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("Validation error: %v", err))
		return
	}

	user, err := h.authService.AcceptInvite(c.Request.Context(), req.Token, req.Password)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapUserToResponse(user))
}

// Me returns the authenticated caller's identity from the token claims.
func (h *AuthHandler) Me(c *gin.Context) {
	userIDStr, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
		return
	}
	role, _ := getUserRoleFromContext(c)
	c.JSON(http.StatusOK, gin.H{"userId": userIDStr, "role": role})
}

// MapUserToResponse converts a domain User to a UserResponse DTO.
// Crucially excludes PasswordHash and converts ObjectIDs to strings.
func MapUserToResponse(user *domain.User) UserResponse {
	if user == nil {
		return UserResponse{}
	}
	return UserResponse{
		ID:        user.ID.Hex(),
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}
