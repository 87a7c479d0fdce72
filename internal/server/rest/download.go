package rest

import (
	"fmt"
	"net/http"

	"github.com/Akshaj-Bisht/droply/internal/logging"
	"github.com/Akshaj-Bisht/droply/internal/server/services"
	"github.com/gin-gonic/gin"
)

// DownloadController serves single-file redirects and whole-session archives.
type DownloadController struct {
	downloads DownloadResolver
	sessions  SessionProvider
	archive   ArchiveWriter
	logger    logging.Logger
}

func NewDownloadController(downloads DownloadResolver, sessions SessionProvider, archive ArchiveWriter, logger logging.Logger) *DownloadController {
	return &DownloadController{
		downloads: downloads,
		sessions:  sessions,
		archive:   archive,
		logger:    logger.With("module", "rest"),
	}
}

func (c *DownloadController) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/download/session/:token", c.DownloadArchive)
	router.GET("/download/:fileId", c.DownloadFile)
}

// DownloadFile redirects to a time-limited presigned URL for one file. The
// blob bytes never pass through this server.
func (c *DownloadController) DownloadFile(ctx *gin.Context) {
	url, err := c.downloads.Resolve(ctx.Request.Context(), ctx.Param("fileId"))
	if err != nil {
		abortWithError(ctx, err)
		return
	}

	ctx.Redirect(http.StatusFound, url)
}

// DownloadArchive streams the whole session as one zip attachment. Existence
// and expiry are settled before the first body byte; a blob fetch failure
// after that can only abort the connection mid-stream.
func (c *DownloadController) DownloadArchive(ctx *gin.Context) {
	token := ctx.Param("token")
	if !tokenPattern.MatchString(token) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid session token"})
		return
	}

	session, err := c.sessions.Get(ctx.Request.Context(), token)
	if err != nil {
		abortWithError(ctx, err)
		return
	}

	ctx.Header("Content-Type", "application/zip")
	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", services.ArchiveFilename(token)))
	ctx.Status(http.StatusOK)

	if err := c.archive.WriteArchive(ctx.Request.Context(), session, ctx.Writer); err != nil {
		c.logger.Error(ctx.Request.Context(), "archive stream aborted", "token", token, "error", err.Error())
		// headers are out; a clean end-of-body would read as success, so tear
		// the connection down instead
		panic(http.ErrAbortHandler)
	}
}
