// internal/handlers/websocket/ws_handler.go
package websocket

import (
	"net/http"

	agentws "skycover-agent/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The agent serves a local UI; origin checks add nothing here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type WebSocketHandler struct {
	hub    *agentws.Hub
	logger *zap.Logger
}

func NewWebSocketHandler(hub *agentws.Hub, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:    hub,
		logger: logger,
	}
}

// HandleConnection upgrades the request and streams notifications until the
// peer disconnects.
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	client := agentws.NewClient(h.hub, conn, h.logger)
	client.Start()
}
