package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is an account that can log in and be linked to itineraries.
// PasswordHash is a bcrypt hash and must never leave the service layer.
type User struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Session is a server-side login. The cookie handed to the client carries a
// signed token naming the session; Token is only populated when a session is
// first issued and is never persisted.
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	CreatedAt time.Time
	ExpiresAt time.Time
	Token     string
}

// Expired reports whether the session is no longer valid at now.
func (s Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
