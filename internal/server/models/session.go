// Package models defines server-side data models persisted in the database.
package models

import "time"

// Session is the unit of sharing: a group of co-uploaded files behind one
// token and one expiry. Sessions are read-only after creation and are removed
// in their entirety by the expiry sweep.
type Session struct {
	// ID is the internal primary key.
	ID string `json:"id"`
	// Token is the 32-character lowercase-hex external identifier.
	Token string `json:"token"`
	// CreatedAt is the creation timestamp (UTC).
	CreatedAt time.Time `json:"createdAt"`
	// ExpiresAt is CreatedAt plus the configured TTL, fixed at creation.
	ExpiresAt time.Time `json:"expiresAt"`

	// Files are the records owned by this session. A persisted session always
	// has at least one.
	Files []*File `json:"files,omitempty"`
}

// ExpiredAt reports whether the session's TTL has passed at the given instant.
func (s *Session) ExpiredAt(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
