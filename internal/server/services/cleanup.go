package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/Akshaj-Bisht/droply/internal/dbx"
	"github.com/Akshaj-Bisht/droply/internal/logging"
	"github.com/Akshaj-Bisht/droply/internal/server/blobstore"
	"github.com/Akshaj-Bisht/droply/internal/server/repositories/repomanager"
)

// CleanupService is the expiry reaper: the only code path that deletes blobs
// or session metadata. Everything else treats expired sessions as read-only
// ghosts until this sweep removes them.
type CleanupService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       blobstore.BlobStore
	logger      logging.Logger

	now func() time.Time
}

func NewCleanupService(db *sql.DB, rm repomanager.RepositoryManager, store blobstore.BlobStore, logger logging.Logger) *CleanupService {
	return &CleanupService{
		db:          db,
		repomanager: rm,
		store:       store,
		logger:      logger.With("module", "reaper"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Sweep removes every fully-expired session: blobs first, then the session
// and file rows in one transaction. A failure tears down nothing for that
// session and never blocks the rest of the sweep; the session stays visible
// to the next run. Returns how many sessions were fully removed.
func (s *CleanupService) Sweep(ctx context.Context) (int, error) {
	sessionRepo := s.repomanager.Sessions(s.db)

	expired, err := sessionRepo.SelectExpired(ctx, s.now())
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, session := range expired {
		if err := s.reapSession(ctx, session.ID); err != nil {
			// fault isolation: log and move on to the next session
			s.logger.Error(ctx, "failed to clean up session", "session_id", session.ID, "error", err.Error())
			continue
		}
		removed++
	}

	if len(expired) > 0 {
		s.logger.Info(ctx, "sweep finished", "expired", len(expired), "removed", removed)
	}
	return removed, nil
}

// reapSession deletes one session's blobs, then its metadata. Blob deletion
// goes first: removing the metadata first would orphan blobs with no record
// left to rediscover them by.
func (s *CleanupService) reapSession(ctx context.Context, sessionID string) error {
	fileRepo := s.repomanager.Files(s.db)

	files, err := fileRepo.ListBySession(ctx, sessionID)
	if err != nil {
		return err
	}

	for _, file := range files {
		if err := s.store.Delete(ctx, file.StorageKey); err != nil {
			return err
		}
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Files(tx).DeleteBySession(ctx, sessionID); err != nil {
			return err
		}
		// zero rows affected means a concurrent sweep got here first; that
		// is a no-op success, not an error
		_, err := s.repomanager.Sessions(tx).Delete(ctx, sessionID)
		return err
	})
}
