// Package services holds the sharing engine's business logic: session
// creation and retrieval, the download gateway, the archive streamer, and
// the expiry sweep. Services receive their store handles at construction;
// nothing here reaches for globals.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Akshaj-Bisht/droply/internal/dbx"
	"github.com/Akshaj-Bisht/droply/internal/logging"
	sc "github.com/Akshaj-Bisht/droply/internal/server/config"
	"github.com/Akshaj-Bisht/droply/internal/server/models"
	"github.com/Akshaj-Bisht/droply/internal/server/repositories/repomanager"
	"github.com/Akshaj-Bisht/droply/internal/shared"
	"github.com/google/uuid"
)

// tokenCreateAttempts bounds token regeneration on unique-constraint
// collisions. With 128 bits of randomness a second collision in a row is
// practically impossible.
const tokenCreateAttempts = 5

// FileInput is one already-uploaded file to attach to a new session.
type FileInput struct {
	Name       string `json:"name" binding:"required"`
	Size       int64  `json:"size"`
	StorageKey string `json:"storageKey" binding:"required"`
	Path       string `json:"path" binding:"required"`
}

// SessionService creates and reads share sessions.
type SessionService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	logger      logging.Logger

	// now is injectable so expiry-boundary tests don't sleep
	now func() time.Time
}

func NewSessionService(db *sql.DB, rm repomanager.RepositoryManager, config *sc.Config, logger logging.Logger) *SessionService {
	return &SessionService{
		db:          db,
		repomanager: rm,
		config:      config,
		logger:      logger.With("module", "sessions"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// validate applies the server-side checks. The client runs its own pre-check
// but that one is advisory only; this is the source of truth.
func (s *SessionService) validate(inputs []FileInput) error {
	if len(inputs) == 0 {
		return fmt.Errorf("%w: at least one file is required", shared.ErrorValidation)
	}

	var total int64
	for _, in := range inputs {
		if in.Name == "" || in.StorageKey == "" || in.Path == "" {
			return fmt.Errorf("%w: name, storageKey and path must be non-empty", shared.ErrorValidation)
		}
		if in.Size < 0 {
			return fmt.Errorf("%w: file size cannot be negative", shared.ErrorValidation)
		}
		total += in.Size
	}
	if total > s.config.MaxTotalSizeBytes {
		return fmt.Errorf("%w: total file size cannot exceed %d bytes", shared.ErrorValidation, s.config.MaxTotalSizeBytes)
	}
	return nil
}

// Create atomically persists one session plus its file rows and returns the
// new token. Either everything is committed or nothing is; readers never see
// a partially created session.
func (s *SessionService) Create(ctx context.Context, inputs []FileInput) (string, error) {
	if err := s.validate(inputs); err != nil {
		return "", err
	}

	now := s.now()

	for attempt := 0; attempt < tokenCreateAttempts; attempt++ {
		token, err := newToken()
		if err != nil {
			return "", err
		}

		session := &models.Session{
			ID:        uuid.New().String(),
			Token:     token,
			CreatedAt: now,
			ExpiresAt: now.Add(s.config.SessionTTL),
		}

		err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			sessionRepo := s.repomanager.Sessions(tx)
			fileRepo := s.repomanager.Files(tx)

			if err := sessionRepo.Create(ctx, session); err != nil {
				return err
			}
			for i, in := range inputs {
				file := &models.File{
					ID:         uuid.New().String(),
					SessionID:  session.ID,
					Name:       in.Name,
					Size:       in.Size,
					Path:       in.Path,
					StorageKey: in.StorageKey,
					Position:   i,
				}
				if err := fileRepo.Create(ctx, file); err != nil {
					return err
				}
			}
			return nil
		})
		if errors.Is(err, shared.ErrorAlreadyExists) {
			// token collision: regenerate, never overwrite an existing session
			s.logger.Warn(ctx, "session token collision, regenerating", "attempt", attempt+1)
			continue
		}
		if err != nil {
			return "", fmt.Errorf("error creating session: %w", err)
		}

		s.logger.Info(ctx, "session created", "token", token, "files", len(inputs))
		return token, nil
	}

	return "", fmt.Errorf("could not allocate a unique session token")
}

// Get returns the session with its files, shared.ErrorNotFound for an
// unknown token, or shared.ErrorSessionExpired once the TTL has passed.
// Expired-but-present and reaped sessions are indistinguishable to callers;
// physical deletion is solely the sweep's job.
func (s *SessionService) Get(ctx context.Context, token string) (*models.Session, error) {
	sessionRepo := s.repomanager.Sessions(s.db)
	fileRepo := s.repomanager.Files(s.db)

	session, err := sessionRepo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if session.ExpiredAt(s.now()) {
		return nil, shared.ErrorSessionExpired
	}

	session.Files, err = fileRepo.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("error loading session files: %w", err)
	}
	return session, nil
}
