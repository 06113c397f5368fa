package models

import (
	"time"

	"github.com/google/uuid"
)

// AuthSession represents a logged in caller (the login cookie), not a work session.
// The session ID is the only value carried in the cookie, all session data lives server-side.
type AuthSession struct {
	SessionID  uuid.UUID // UUIDv7
	EmployeeID string

	CreatedAt  time.Time
	ExpiresAt  time.Time
	LastUsedAt time.Time

	// Optional audit metadata
	UserAgent string
	IPAddress string
}

// IsExpired returns true if the session has expired.
func (s *AuthSession) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}
