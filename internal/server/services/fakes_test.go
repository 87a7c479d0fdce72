package services

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Akshaj-Bisht/droply/internal/dbx"
	"github.com/Akshaj-Bisht/droply/internal/logging"
	sc "github.com/Akshaj-Bisht/droply/internal/server/config"
	"github.com/Akshaj-Bisht/droply/internal/server/models"
	filesrepo "github.com/Akshaj-Bisht/droply/internal/server/repositories/files"
	sessionsrepo "github.com/Akshaj-Bisht/droply/internal/server/repositories/sessions"
	"github.com/Akshaj-Bisht/droply/internal/shared"
	"github.com/stretchr/testify/require"
)

// -------- test fakes --------

type fakeSessionsRepo struct {
	mu       sync.Mutex
	byToken  map[string]*models.Session
	byID     map[string]*models.Session
	expired  []*models.Session
	createAt int

	createErrs []error // consumed per Create call; nil means success
	deleteErr  error
	deleted    []string
	deletedOK  bool // Delete return value when deleteErr is nil
}

func newFakeSessionsRepo() *fakeSessionsRepo {
	return &fakeSessionsRepo{
		byToken:   map[string]*models.Session{},
		byID:      map[string]*models.Session{},
		deletedOK: true,
	}
}

func (f *fakeSessionsRepo) Create(ctx context.Context, s *models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createAt < len(f.createErrs) {
		err := f.createErrs[f.createAt]
		f.createAt++
		if err != nil {
			return err
		}
	} else {
		f.createAt++
	}
	cp := *s
	f.byToken[s.Token] = &cp
	f.byID[s.ID] = &cp
	return nil
}

func (f *fakeSessionsRepo) GetByToken(ctx context.Context, token string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byToken[token]
	if !ok {
		return nil, shared.ErrorNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSessionsRepo) GetByID(ctx context.Context, id string) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[id]
	if !ok {
		return nil, shared.ErrorNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSessionsRepo) SelectExpired(ctx context.Context, now time.Time) ([]*models.Session, error) {
	return f.expired, nil
}

func (f *fakeSessionsRepo) Delete(ctx context.Context, id string) (bool, error) {
	if f.deleteErr != nil {
		return false, f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	delete(f.byID, id)
	return f.deletedOK, nil
}

type fakeFilesRepo struct {
	mu      sync.Mutex
	created []*models.File

	createErr error

	incremented map[string]int
	incErr      error

	deleteErr        error
	deletedSessions  []string
	listBySessionErr error
}

func newFakeFilesRepo() *fakeFilesRepo {
	return &fakeFilesRepo{incremented: map[string]int{}}
}

func (f *fakeFilesRepo) Create(ctx context.Context, file *models.File) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *file
	f.created = append(f.created, &cp)
	return nil
}

func (f *fakeFilesRepo) GetByID(ctx context.Context, id string) (*models.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, file := range f.created {
		if file.ID == id {
			cp := *file
			return &cp, nil
		}
	}
	return nil, shared.ErrorNotFound
}

func (f *fakeFilesRepo) ListBySession(ctx context.Context, sessionID string) ([]*models.File, error) {
	if f.listBySessionErr != nil {
		return nil, f.listBySessionErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []*models.File
	for _, file := range f.created {
		if file.SessionID == sessionID {
			cp := *file
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (f *fakeFilesRepo) IncrementDownloads(ctx context.Context, id string) error {
	if f.incErr != nil {
		return f.incErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.incremented[id]++
	for _, file := range f.created {
		if file.ID == id {
			file.Downloads++
		}
	}
	return nil
}

func (f *fakeFilesRepo) DeleteBySession(ctx context.Context, sessionID string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletedSessions = append(f.deletedSessions, sessionID)
	var kept []*models.File
	for _, file := range f.created {
		if file.SessionID != sessionID {
			kept = append(kept, file)
		}
	}
	f.created = kept
	return nil
}

type fakeRepoManager struct {
	sessions sessionsrepo.Repository
	files    filesrepo.Repository
}

func (m *fakeRepoManager) Sessions(db dbx.DBTX) sessionsrepo.Repository { return m.sessions }
func (m *fakeRepoManager) Files(db dbx.DBTX) filesrepo.Repository      { return m.files }
func (m *fakeRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return nil
}

type fakeBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte

	getErr     map[string]error // per-key fetch failures
	deleteErr  map[string]error // per-key delete failures
	deleted    []string
	presignErr error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{
		blobs:     map[string][]byte{},
		getErr:    map[string]error{},
		deleteErr: map[string]error{},
	}
}

func (f *fakeBlobStore) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobs[key] = b
	return nil
}

func (f *fakeBlobStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.getErr[key]; err != nil {
		return nil, err
	}
	b, ok := f.blobs[key]
	if !ok {
		return nil, shared.ErrorNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (f *fakeBlobStore) PresignGet(ctx context.Context, key string, expires time.Duration) (string, error) {
	if f.presignErr != nil {
		return "", f.presignErr
	}
	return "https://blobs.test/" + key + "?sig=tmp", nil
}

func (f *fakeBlobStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.deleteErr[key]; err != nil {
		return err
	}
	f.deleted = append(f.deleted, key)
	delete(f.blobs, key)
	return nil
}

// -------- shared helpers --------

func mkStoredSession(id, token string, expiresAt time.Time) *models.Session {
	return &models.Session{
		ID:        id,
		Token:     token,
		CreatedAt: expiresAt.Add(-24 * time.Hour),
		ExpiresAt: expiresAt,
	}
}

func mkStoredFile(id, sessionID, path string, position int) *models.File {
	return &models.File{
		ID:         id,
		SessionID:  sessionID,
		Name:       path,
		Size:       int64(len(path)),
		Path:       path,
		StorageKey: "blob-" + id,
		Position:   position,
	}
}

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testConfig() *sc.Config {
	cfg := &sc.Config{}
	cfg.LoadDefaults()
	return cfg
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}
