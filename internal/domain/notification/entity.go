// internal/domain/notification/entity.go
package notification

import (
	"time"

	"github.com/oklog/ulid/v2"
)

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Notification is one structured user-facing event emitted by the session
// manager, the wallet binder or the purchase orchestrator.
type Notification struct {
	ID        string                 `json:"id"`
	Severity  Severity               `json:"severity"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// New builds a notification with a fresh ULID and timestamp.
func New(severity Severity, title, message string, metadata map[string]interface{}) *Notification {
	return &Notification{
		ID:        ulid.Make().String(),
		Severity:  severity,
		Title:     title,
		Message:   message,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}
}

