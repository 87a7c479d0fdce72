// Package sessions persists share-session rows.
package sessions

import (
	"context"
	"time"

	"github.com/Akshaj-Bisht/droply/internal/server/models"
)

// Repository is the metadata-store contract for sessions.
type Repository interface {
	// Create inserts a new session row. Returns shared.ErrorAlreadyExists on
	// a token collision so the caller can regenerate and retry.
	Create(ctx context.Context, session *models.Session) error

	// GetByToken returns the session row for token (without files), or
	// shared.ErrorNotFound.
	GetByToken(ctx context.Context, token string) (*models.Session, error)

	// GetByID returns the session row by primary key (without files), or
	// shared.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.Session, error)

	// SelectExpired returns all sessions whose expires_at lies before now.
	SelectExpired(ctx context.Context, now time.Time) ([]*models.Session, error)

	// Delete removes the session row by id. Returns false when no row was
	// affected (already gone), which callers treat as a no-op success.
	Delete(ctx context.Context, id string) (bool, error)
}
