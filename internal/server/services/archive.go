package services

import (
	"archive/zip"
	"context"
	"fmt"
	"io"

	"github.com/Akshaj-Bisht/droply/internal/logging"
	"github.com/Akshaj-Bisht/droply/internal/server/blobstore"
	"github.com/Akshaj-Bisht/droply/internal/server/models"
)

// ArchiveService assembles a zip archive over a session's blobs without ever
// materializing the archive, or any single blob, in memory. The zip writer
// emits straight into w; when w is an HTTP response writer, transport
// backpressure is what bounds memory.
type ArchiveService struct {
	store  blobstore.BlobStore
	logger logging.Logger
}

func NewArchiveService(store blobstore.BlobStore, logger logging.Logger) *ArchiveService {
	return &ArchiveService{
		store:  store,
		logger: logger.With("module", "archive"),
	}
}

// ArchiveFilename derives the attachment filename for a session token.
func ArchiveFilename(token string) string {
	return fmt.Sprintf("droply-%s.zip", token)
}

// WriteArchive streams every file of the session into w as a zip entry named
// by the file's recorded path, in session file order. One blob is fully
// fetched and appended before the next begins. Existence and expiry must be
// checked by the caller before any byte is written; an error returned here
// after that point can only surface as an aborted stream.
func (s *ArchiveService) WriteArchive(ctx context.Context, session *models.Session, w io.Writer) error {
	zw := zip.NewWriter(w)

	for _, file := range session.Files {
		if err := ctx.Err(); err != nil {
			// client went away; stop pulling blobs
			return err
		}

		entry, err := zw.CreateHeader(&zip.FileHeader{
			Name:   file.Path,
			Method: zip.Deflate,
		})
		if err != nil {
			return fmt.Errorf("archive entry %q: %w", file.Path, err)
		}

		if err := s.copyBlob(ctx, file.StorageKey, entry); err != nil {
			return fmt.Errorf("archive entry %q: %w", file.Path, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}

	s.logger.Info(ctx, "archive streamed", "token", session.Token, "files", len(session.Files))
	return nil
}

func (s *ArchiveService) copyBlob(ctx context.Context, key string, dst io.Writer) error {
	rc, err := s.store.Get(ctx, key)
	if err != nil {
		return err
	}
	defer rc.Close()

	_, err = io.Copy(dst, rc)
	return err
}
