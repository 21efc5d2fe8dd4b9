package api

import (
	"net/http"
	"strings"

	"strive/coaching-app/internal/domain"

	"github.com/gin-gonic/gin"
)

// EvaluateGate decides whether a page request must be redirected.
// It returns the redirect target, or "" to let the request through.
//
// Rules:
//   - /auth/* is exempt: token confirmation links must work for visitors
//     in any session state.
//   - No session on /admin/* (except /admin/login) sends the visitor to
//     /admin/login; no session on /dashboard sends them to /login.
//   - A signed-in visitor on either login page is sent to their home
//     screen for their role.
func EvaluateGate(path string, hasSession bool, role domain.Role) string {
	if strings.HasPrefix(path, "/auth/") || path == "/auth" {
		return ""
	}

	isLoginPage := path == "/login" || path == "/admin/login"

	if !hasSession {
		if strings.HasPrefix(path, "/admin") && path != "/admin/login" {
			return "/admin/login"
		}
		if path == "/dashboard" || strings.HasPrefix(path, "/dashboard/") {
			return "/login"
		}
		return ""
	}

	if isLoginPage {
		if role == domain.RoleAdmin {
			return "/admin/coaches"
		}
		return "/dashboard"
	}
	return ""
}

// GateMiddleware applies the identity gate to page routes. The session
// cookie is the sole signal; an expired or garbled token counts as no
// session.
func GateMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		hasSession := false
		var role domain.Role

		if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie != "" {
			if claims, err := parseToken(cookie, jwtSecret); err == nil {
				hasSession = true
				role = claims.Role
			}
		}

		if target := EvaluateGate(c.Request.URL.Path, hasSession, role); target != "" {
			c.Redirect(http.StatusFound, target)
			c.Abort()
			return
		}
		c.Next()
	}
}
