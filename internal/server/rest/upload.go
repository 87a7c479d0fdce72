package rest

import (
	"fmt"
	"io"
	"net/http"
	"path"

	"github.com/Akshaj-Bisht/droply/internal/logging"
	sc "github.com/Akshaj-Bisht/droply/internal/server/config"
	"github.com/Akshaj-Bisht/droply/internal/server/uploader"
	"github.com/gin-gonic/gin"
)

// UploadController accepts multipart file uploads and hands back the blob
// descriptors needed to create a session.
type UploadController struct {
	uploader Uploader
	config   *sc.Config
	logger   logging.Logger
}

func NewUploadController(up Uploader, config *sc.Config, logger logging.Logger) *UploadController {
	return &UploadController{
		uploader: up,
		config:   config,
		logger:   logger.With("module", "rest"),
	}
}

func (c *UploadController) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/upload", c.Upload)
}

// Upload reads the "files" multipart field and pushes each part to the blob
// store. Folder structure travels in a parallel "paths" field, one value per
// file in the same order; multipart part filenames are base-named by the
// parser and cannot carry it. Without "paths" the upload is treated as flat.
// Responds with one descriptor per file, in request order.
func (c *UploadController) Upload(ctx *gin.Context) {
	form, err := ctx.MultipartForm()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "at least one file is required"})
		return
	}

	paths := form.Value["paths"]
	if len(paths) != 0 && len(paths) != len(headers) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "paths must have one entry per file"})
		return
	}

	var total int64
	inputs := make([]uploader.Input, 0, len(headers))
	for i, fh := range headers {
		relPath := fh.Filename
		if len(paths) != 0 && paths[i] != "" {
			relPath = paths[i]
		}

		total += fh.Size
		inputs = append(inputs, uploader.Input{
			Name: path.Base(relPath),
			Size: fh.Size,
			Path: relPath,
			Open: func() (io.ReadCloser, error) { return fh.Open() },
		})
	}
	if total > c.config.MaxTotalSizeBytes {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("total file size cannot exceed %d bytes", c.config.MaxTotalSizeBytes),
		})
		return
	}

	descriptors, err := c.uploader.Upload(ctx.Request.Context(), inputs, nil)
	if err != nil {
		c.logger.Error(ctx.Request.Context(), "upload failed", "files", len(inputs), "error", err.Error())
		abortWithError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"files": descriptors})
}
