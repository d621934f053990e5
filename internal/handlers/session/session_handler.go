// internal/handlers/session/session_handler.go
package session

import (
	"net/http"

	sessionDomain "skycover-agent/internal/domain/session"
	"skycover-agent/internal/pkg/response"
	sessionUsecase "skycover-agent/internal/service/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type SessionHandler struct {
	sessions *sessionUsecase.Manager
	logger   *zap.Logger
}

func NewSessionHandler(sessions *sessionUsecase.Manager, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		logger:   logger,
	}
}

// Login installs a backend-issued token as the agent's session.
func (h *SessionHandler) Login(c *gin.Context) {
	var req sessionDomain.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	if err := h.sessions.Login(c.Request.Context(), req.Token, req.User); err != nil {
		h.logger.Error("login failed", zap.Error(err))
		response.Error(c, http.StatusUnauthorized, "login failed", err)
		return
	}

	response.Success(c, http.StatusOK, "login successful", h.sessions.Session())
}

// Logout ends the session and clears persisted credentials.
func (h *SessionHandler) Logout(c *gin.Context) {
	h.sessions.Logout(c.Request.Context())
	response.Success(c, http.StatusOK, "logout successful", nil)
}

// GetSession returns the current session snapshot. Always succeeds; an
// unauthenticated agent simply reports is_authenticated false.
func (h *SessionHandler) GetSession(c *gin.Context) {
	response.Success(c, http.StatusOK, "session state", h.sessions.Session())
}

// Validate forces an immediate token revalidation pass.
func (h *SessionHandler) Validate(c *gin.Context) {
	h.sessions.ValidateNow(c.Request.Context())
	response.Success(c, http.StatusOK, "validation triggered", h.sessions.Session())
}

// Activity records user activity, which schedules a debounced revalidation.
func (h *SessionHandler) Activity(c *gin.Context) {
	h.sessions.Activity()
	response.Success(c, http.StatusAccepted, "activity recorded", nil)
}
