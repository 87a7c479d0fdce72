// Package rest exposes the sharing engine over HTTP: the upload endpoint, the
// session API, single-file and archive downloads, and the guarded cleanup
// trigger. Controllers translate service sentinels into status codes and hold
// no business logic of their own.
package rest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Akshaj-Bisht/droply/internal/logging"
	sc "github.com/Akshaj-Bisht/droply/internal/server/config"
	"github.com/Akshaj-Bisht/droply/internal/server/models"
	"github.com/Akshaj-Bisht/droply/internal/server/services"
	"github.com/Akshaj-Bisht/droply/internal/server/uploader"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Uploader pushes file content to the blob store.
type Uploader interface {
	Upload(ctx context.Context, inputs []uploader.Input, onProgress uploader.ProgressFunc) ([]uploader.Descriptor, error)
}

// SessionProvider creates and reads share sessions.
type SessionProvider interface {
	Create(ctx context.Context, inputs []services.FileInput) (string, error)
	Get(ctx context.Context, token string) (*models.Session, error)
}

// DownloadResolver maps a file id to a presigned download URL.
type DownloadResolver interface {
	Resolve(ctx context.Context, fileID string) (string, error)
}

// ArchiveWriter streams a session's files into w as a zip archive.
type ArchiveWriter interface {
	WriteArchive(ctx context.Context, session *models.Session, w io.Writer) error
}

// Sweeper removes expired sessions and reports how many were reaped.
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// NewRouter assembles the gin engine with all API routes under /api.
func NewRouter(
	config *sc.Config,
	logger logging.Logger,
	up Uploader,
	sessions SessionProvider,
	downloads DownloadResolver,
	archive ArchiveWriter,
	sweeper Sweeper,
) *gin.Engine {
	router := gin.New()
	router.Use(recovery(logger))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	router.Use(cors.New(corsConfig))

	api := router.Group("/api")
	NewUploadController(up, config, logger).RegisterRoutes(api)
	NewSessionController(sessions, logger).RegisterRoutes(api)
	NewDownloadController(downloads, sessions, archive, logger).RegisterRoutes(api)
	NewCleanupController(sweeper, config, logger).RegisterRoutes(api)

	return router
}

// recovery turns handler panics into opaque 500s. http.ErrAbortHandler is
// re-raised untouched: net/http then drops the connection without the
// terminating chunk, which is the only way to signal failure once response
// emission has begun.
func recovery(logger logging.Logger) gin.HandlerFunc {
	log := logger.With("module", "rest")
	return func(ctx *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				if err, ok := r.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(r)
				}
				log.Error(ctx.Request.Context(), "handler panic", "panic", fmt.Sprint(r))
				ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			}
		}()
		ctx.Next()
	}
}
