// internal/handlers/notification/notification_handler.go
package notification

import (
	"net/http"
	"strconv"

	"skycover-agent/internal/pkg/response"
	"skycover-agent/internal/websocket"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	hub *websocket.Hub
}

func NewNotificationHandler(hub *websocket.Hub) *NotificationHandler {
	return &NotificationHandler{hub: hub}
}

// GetLatestNotifications returns the most recent notifications from the ring
// buffer, newest first. Clients that missed websocket frames catch up here.
func (h *NotificationHandler) GetLatestNotifications(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	response.Success(c, http.StatusOK, "latest notifications", h.hub.Recent(limit))
}
