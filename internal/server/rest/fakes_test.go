package rest

import (
	"context"
	"io"
	"log/slog"

	"github.com/Akshaj-Bisht/droply/internal/logging"
	sc "github.com/Akshaj-Bisht/droply/internal/server/config"
	"github.com/Akshaj-Bisht/droply/internal/server/models"
	"github.com/Akshaj-Bisht/droply/internal/server/services"
	"github.com/Akshaj-Bisht/droply/internal/server/uploader"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeUploader struct {
	descriptors []uploader.Descriptor
	err         error
	gotInputs   []uploader.Input
}

func (f *fakeUploader) Upload(ctx context.Context, inputs []uploader.Input, onProgress uploader.ProgressFunc) ([]uploader.Descriptor, error) {
	f.gotInputs = inputs
	if f.err != nil {
		return nil, f.err
	}
	return f.descriptors, nil
}

type fakeSessions struct {
	token     string
	createErr error
	gotInputs []services.FileInput

	session *models.Session
	getErr  error
}

func (f *fakeSessions) Create(ctx context.Context, inputs []services.FileInput) (string, error) {
	f.gotInputs = inputs
	if f.createErr != nil {
		return "", f.createErr
	}
	return f.token, nil
}

func (f *fakeSessions) Get(ctx context.Context, token string) (*models.Session, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.session, nil
}

type fakeDownloads struct {
	url   string
	err   error
	calls int
}

func (f *fakeDownloads) Resolve(ctx context.Context, fileID string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.url, nil
}

// fakeArchive writes its payload before reporting err, mirroring a fetch
// failure that strikes mid-stream.
type fakeArchive struct {
	payload []byte
	err     error
}

func (f *fakeArchive) WriteArchive(ctx context.Context, session *models.Session, w io.Writer) error {
	if _, err := w.Write(f.payload); err != nil {
		return err
	}
	return f.err
}

type fakeSweeper struct {
	removed int
	err     error
	calls   int
}

func (f *fakeSweeper) Sweep(ctx context.Context) (int, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	return f.removed, nil
}

type routerDeps struct {
	uploader  *fakeUploader
	sessions  *fakeSessions
	downloads *fakeDownloads
	archive   *fakeArchive
	sweeper   *fakeSweeper
}

func newTestRouter(overrides ...func(*sc.Config)) (*gin.Engine, *routerDeps) {
	deps := &routerDeps{
		uploader:  &fakeUploader{},
		sessions:  &fakeSessions{},
		downloads: &fakeDownloads{},
		archive:   &fakeArchive{},
		sweeper:   &fakeSweeper{},
	}

	cfg := &sc.Config{}
	cfg.LoadDefaults()
	for _, override := range overrides {
		override(cfg)
	}

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	router := NewRouter(cfg, logger, deps.uploader, deps.sessions, deps.downloads, deps.archive, deps.sweeper)
	return router, deps
}
