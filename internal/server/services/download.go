package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/Akshaj-Bisht/droply/internal/logging"
	sc "github.com/Akshaj-Bisht/droply/internal/server/config"
	"github.com/Akshaj-Bisht/droply/internal/server/blobstore"
	"github.com/Akshaj-Bisht/droply/internal/server/repositories/repomanager"
	"github.com/Akshaj-Bisht/droply/internal/shared"
)

// DownloadService resolves single-file downloads to presigned blob URLs.
type DownloadService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       blobstore.BlobStore
	config      *sc.Config
	logger      logging.Logger

	now func() time.Time
}

func NewDownloadService(db *sql.DB, rm repomanager.RepositoryManager, store blobstore.BlobStore, config *sc.Config, logger logging.Logger) *DownloadService {
	return &DownloadService{
		db:          db,
		repomanager: rm,
		store:       store,
		config:      config,
		logger:      logger.With("module", "downloads"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Resolve maps a file id to a time-limited download URL, after checking the
// file exists and its session is still alive. On success the download
// counter is bumped first; a failed bump is logged but never blocks the
// redirect (best-effort bookkeeping, not part of delivery correctness).
func (s *DownloadService) Resolve(ctx context.Context, fileID string) (string, error) {
	fileRepo := s.repomanager.Files(s.db)
	sessionRepo := s.repomanager.Sessions(s.db)

	file, err := fileRepo.GetByID(ctx, fileID)
	if err != nil {
		return "", err
	}

	session, err := sessionRepo.GetByID(ctx, file.SessionID)
	if err != nil {
		return "", err
	}
	if session.ExpiredAt(s.now()) {
		return "", shared.ErrorSessionExpired
	}

	url, err := s.store.PresignGet(ctx, file.StorageKey, s.config.PresignValidity)
	if err != nil {
		return "", err
	}

	if err := fileRepo.IncrementDownloads(ctx, fileID); err != nil {
		s.logger.Error(ctx, "failed to bump download counter", "file_id", fileID, "error", err.Error())
	}

	return url, nil
}
