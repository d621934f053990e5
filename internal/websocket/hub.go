// internal/websocket/hub.go
package websocket

import (
	"context"
	"sync"

	"skycover-agent/internal/domain/notification"

	"go.uber.org/zap"
)

const recentRingSize = 100

// Hub is the notification bus. The session manager, wallet binder and
// purchase orchestrator publish into it; WebSocket clients and in-process
// subscribers receive the stream, and a bounded ring keeps recent events
// for late readers.
type Hub struct {
	clients map[*Client]bool
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client
	publish    chan *notification.Notification

	subscribers []chan *notification.Notification

	recent     []*notification.Notification
	recentNext int

	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		publish:    make(chan *notification.Notification, 256),
		recent:     make([]*notification.Notification, 0, recentRingSize),
		logger:     logger,
	}
}

// Publish enqueues a notification for delivery. Never blocks the caller: the
// emitting state machines must not stall on a slow consumer.
func (h *Hub) Publish(n *notification.Notification) {
	select {
	case h.publish <- n:
	default:
		h.logger.Warn("notification dropped, hub queue full",
			zap.String("title", n.Title))
	}
}

// Subscribe registers an in-process consumer. The returned channel receives
// every notification published after the call.
func (h *Hub) Subscribe() <-chan *notification.Notification {
	ch := make(chan *notification.Notification, 64)
	h.mu.Lock()
	h.subscribers = append(h.subscribers, ch)
	h.mu.Unlock()
	return ch
}

// Recent returns up to limit notifications, newest first.
func (h *Hub) Recent(limit int) []*notification.Notification {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := len(h.recent)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]*notification.Notification, 0, limit)
	for i := 0; i < limit; i++ {
		idx := (h.recentNext - 1 - i + n + n) % n
		out = append(out, h.recent[idx])
	}
	return out
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case n := <-h.publish:
			h.deliver(n)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = true
	h.logger.Debug("notification client connected", zap.Int("total", len(h.clients)))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		client.Close()
		h.logger.Debug("notification client disconnected", zap.Int("total", len(h.clients)))
	}
}

func (h *Hub) deliver(n *notification.Notification) {
	h.mu.Lock()
	if len(h.recent) < recentRingSize {
		h.recent = append(h.recent, n)
		h.recentNext = len(h.recent) % recentRingSize
	} else {
		h.recent[h.recentNext] = n
		h.recentNext = (h.recentNext + 1) % recentRingSize
	}
	subscribers := append([]chan *notification.Notification(nil), h.subscribers...)
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.Unlock()

	for _, ch := range subscribers {
		select {
		case ch <- n:
		default:
			// Slow subscriber loses events rather than stalling delivery.
		}
	}
	for _, client := range clients {
		client.Send(n)
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		client.Close()
	}
	h.clients = make(map[*Client]bool)
}
