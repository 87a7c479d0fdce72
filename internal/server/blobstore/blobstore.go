// Package blobstore abstracts the external object store holding file bytes.
// The metadata store only keeps opaque storage keys; every byte of content
// goes through this interface.
package blobstore

import (
	"context"
	"io"
	"time"
)

// BlobStore is the blob-store capability required by the sharing engine:
// put, streamed get, presigned download URL, and delete.
type BlobStore interface {
	// Put uploads size bytes from r under key.
	Put(ctx context.Context, key string, r io.Reader, size int64) error

	// Get returns a streaming reader over the blob's bytes. The caller must
	// close it.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// PresignGet returns a time-limited URL from which the blob can be
	// downloaded directly.
	PresignGet(ctx context.Context, key string, expires time.Duration) (string, error)

	// Delete removes the blob. Deleting a missing key is a no-op success.
	Delete(ctx context.Context, key string) error
}
