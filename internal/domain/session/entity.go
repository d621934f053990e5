// internal/domain/session/entity.go
package session

import "time"

// User is the identity decoded from the credential token or supplied at login.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Credential is the bearer token plus its derived claims. Owned exclusively
// by the session manager and persisted through the token store.
type Credential struct {
	Token  string
	User   *User
	Expiry time.Time
}

// Expired reports whether the credential is locally expired at the given time.
// A zero expiry means the token carried no exp claim and never expires locally.
func (c *Credential) Expired(now time.Time) bool {
	if c.Expiry.IsZero() {
		return false
	}
	return !c.Expiry.After(now)
}

// Session is the derived authentication state. Consumers read snapshots only;
// all mutation goes through the session manager.
type Session struct {
	IsAuthenticated bool  `json:"is_authenticated"`
	User            *User `json:"user"`
	Loading         bool  `json:"loading"`
}

// DTOs

type LoginRequest struct {
	Token string `json:"token" binding:"required"`
	User  *User  `json:"user,omitempty"`
}
