package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"strive/coaching-app/internal/domain"
	"strive/coaching-app/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

// Constants for context keys
const (
	ContextUserIDKey   = "userID"
	ContextUserRoleKey = "userRole"
)

// SessionCookieName is the cookie the browser flow authenticates with.
// API clients may use a Bearer header instead; both carry the same JWT.
const SessionCookieName = "session"

// jwtClaims defines the structure we expect in the JWT payload.
// Mirroring the structure used in authService.generateJWT
type jwtClaims struct {
	UserID string      `json:"uid"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// parseToken validates the JWT and returns its claims.
func parseToken(tokenString, jwtSecret string) (*jwtClaims, error) {
	claims := &jwtClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == "" || claims.Role == "" {
		return nil, errors.New("invalid token or missing claims")
	}
	return claims, nil
}

// extractToken pulls the JWT from the Authorization header or, failing
// that, the session cookie.
func extractToken(c *gin.Context) (string, error) {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return "", errors.New("Authorization header format must be Bearer {token}")
		}
		return parts[1], nil
	}
	if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie != "" {
		return cookie, nil
	}
	return "", errors.New("authentication required")
}

// AuthMiddleware creates a Gin middleware for JWT authentication.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := extractToken(c)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, err.Error())
			return
		}

		claims, err := parseToken(tokenString, jwtSecret)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				abortWithError(c, http.StatusUnauthorized, "Token has expired")
			} else {
				abortWithError(c, http.StatusUnauthorized, "Invalid token")
			}
			return
		}

		// Set user information in the context for downstream handlers
		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextUserRoleKey, claims.Role)

		c.Next()
	}
}

// RoleMiddleware creates middleware to check if user has the required role(s).
// Must run AFTER AuthMiddleware.
func RoleMiddleware(allowedRoles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		roleRaw, exists := c.Get(ContextUserRoleKey)
		if !exists {
			abortWithError(c, http.StatusInternalServerError, "User role not found in context")
			return
		}

		userRole, ok := roleRaw.(domain.Role)
		if !ok {
			abortWithError(c, http.StatusInternalServerError, "Invalid user role type in context")
			return
		}

		allowed := false
		for _, allowedRole := range allowedRoles {
			if userRole == allowedRole {
				allowed = true
				break
			}
		}
		if !allowed {
			abortWithError(c, http.StatusForbidden, fmt.Sprintf("Access denied: Role '%s' does not have permission", userRole))
			return
		}

		c.Next()
	}
}

// ServiceKeyMiddleware authenticates machine callers (the questionnaire
// scheduler) by shared secret instead of a user session.
func ServiceKeyMiddleware(serviceKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if serviceKey == "" {
			abortWithError(c, http.StatusServiceUnavailable, "Service endpoint is not configured")
			return
		}
		if c.GetHeader("X-Service-Key") != serviceKey {
			abortWithError(c, http.StatusUnauthorized, "Invalid service key")
			return
		}
		c.Next()
	}
}

// Helper to return JSON error response and abort request
func abortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, gin.H{"error": message})
}

// respondServiceError maps a workflow error onto an HTTP status.
func respondServiceError(c *gin.Context, err error) {
	if se, ok := service.AsServiceError(err); ok {
		switch se.Code {
		case service.ErrorInvalid:
			abortWithError(c, http.StatusBadRequest, se.Message)
		case service.ErrorConflict:
			abortWithError(c, http.StatusConflict, se.Message)
		case service.ErrorNotFound:
			abortWithError(c, http.StatusNotFound, se.Message)
		case service.ErrorUnauthorized:
			abortWithError(c, http.StatusUnauthorized, se.Message)
		case service.ErrorUpstream:
			abortWithError(c, http.StatusBadGateway, se.Message)
		default:
			abortWithError(c, http.StatusInternalServerError, se.Message)
		}
		return
	}
	abortWithError(c, http.StatusInternalServerError, "An unexpected error occurred")
}

// Helper function to get User ID from context (used by handlers)
func getUserIDFromContext(c *gin.Context) (string, error) {
	idRaw, exists := c.Get(ContextUserIDKey)
	if !exists {
		return "", errors.New("user ID not found in context")
	}
	idStr, ok := idRaw.(string)
	if !ok {
		return "", errors.New("invalid user ID type in context")
	}
	return idStr, nil
}

// Helper function to get User Role from context (used by handlers)
func getUserRoleFromContext(c *gin.Context) (domain.Role, error) {
	roleRaw, exists := c.Get(ContextUserRoleKey)
	if !exists {
		return "", errors.New("user role not found in context")
	}
	role, ok := roleRaw.(domain.Role)
	if !ok {
		return "", errors.New("invalid user role type in context")
	}
	return role, nil
}
