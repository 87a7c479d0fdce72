// Package files persists per-file metadata rows owned by a session.
package files

import (
	"context"

	"github.com/Akshaj-Bisht/droply/internal/server/models"
)

// Repository is the metadata-store contract for file records.
type Repository interface {
	// Create inserts a new file row.
	Create(ctx context.Context, file *models.File) error

	// GetByID returns the file row for id, or shared.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.File, error)

	// ListBySession returns the session's files in insertion order.
	ListBySession(ctx context.Context, sessionID string) ([]*models.File, error)

	// IncrementDownloads bumps the download counter for id by one.
	IncrementDownloads(ctx context.Context, id string) error

	// DeleteBySession removes every file row of the session. Deleting an
	// already-empty session affects zero rows and is not an error.
	DeleteBySession(ctx context.Context, sessionID string) error
}
