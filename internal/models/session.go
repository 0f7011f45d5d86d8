package models

import "time"

// Session is the server-side state behind an opaque bearer token. The token
// itself is not stored here; the session store keys sessions by token.
type Session struct {
	UserID       string      `json:"user_id"`
	GrantedLevel AccessLevel `json:"granted_level"`
	CreatedAt    time.Time   `json:"created_at"`
	ExpiresAt    time.Time   `json:"expires_at"`
}

// ExpiredAt reports whether the session is past its expiry at the given
// moment. There is no grace window.
func (s *Session) ExpiredAt(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
