// internal/websocket/client.go
package websocket

import (
	"encoding/json"
	"time"

	"skycover-agent/internal/domain/notification"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

// Client is one WebSocket consumer of the notification stream.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	logger *zap.Logger

	closeOnce chan struct{}
}

func NewClient(hub *Hub, conn *websocket.Conn, logger *zap.Logger) *Client {
	return &Client{
		hub:       hub,
		conn:      conn,
		send:      make(chan []byte, 64),
		logger:    logger,
		closeOnce: make(chan struct{}),
	}
}

// Start registers the client with the hub and runs its pumps. Blocks until
// the connection drops.
func (c *Client) Start() {
	c.hub.register <- c
	go c.writePump()
	c.readPump()
}

// Send serializes and queues a notification without blocking the hub.
func (c *Client) Send(n *notification.Notification) {
	data, err := json.Marshal(n)
	if err != nil {
		c.logger.Warn("failed to marshal notification", zap.Error(err))
		return
	}
	select {
	case c.send <- data:
	default:
		// Client too slow; drop instead of backing up the hub.
	}
}

func (c *Client) Close() {
	select {
	case <-c.closeOnce:
	default:
		close(c.closeOnce)
		c.conn.Close()
	}
}

// readPump consumes (and discards) inbound frames so pongs and close frames
// are processed.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.closeOnce:
			return
		}
	}
}
