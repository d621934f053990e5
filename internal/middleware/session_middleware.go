// internal/middleware/session_middleware.go
package middleware

import (
	"github.com/gin-gonic/gin"

	"skycover-agent/internal/pkg/response"
	"skycover-agent/internal/service/session"
)

type SessionMiddleware struct {
	sessions *session.Manager
}

func NewSessionMiddleware(sessions *session.Manager) *SessionMiddleware {
	return &SessionMiddleware{
		sessions: sessions,
	}
}

// RequireSession rejects requests when no authenticated session is held.
// The agent holds a single local session; there is no per-request token.
func (m *SessionMiddleware) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !m.sessions.Authenticated() {
			response.Unauthorized(c, "no active session")
			return
		}

		sess := m.sessions.Session()
		if sess.User != nil {
			c.Set("user_id", sess.User.ID)
			c.Set("user_email", sess.User.Email)
		}

		c.Next()
	}
}

// TouchActivity marks user activity on every request that passes through it,
// which feeds the session manager's debounced revalidation.
func (m *SessionMiddleware) TouchActivity() gin.HandlerFunc {
	return func(c *gin.Context) {
		m.sessions.Activity()
		c.Next()
	}
}

// GetUserEmail gets the session user's email from context.
func GetUserEmail(c *gin.Context) (string, bool) {
	email, exists := c.Get("user_email")
	if !exists {
		return "", false
	}

	emailStr, ok := email.(string)
	return emailStr, ok
}
