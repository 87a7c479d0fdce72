// Package uploader implements the batched, rate-limit-aware blob upload
// orchestrator. Files go to the blob store in fixed-size concurrent batches
// with a deliberate pause between batches; rate-limited uploads are retried
// with exponential backoff, anything else aborts the whole operation.
package uploader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Akshaj-Bisht/droply/internal/logging"
	"github.com/Akshaj-Bisht/droply/internal/server/blobstore"
	"github.com/Akshaj-Bisht/droply/internal/shared"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultBatchSize is how many files upload concurrently per batch.
	DefaultBatchSize = 3
	// DefaultBatchDelay is the pause between batches. This is a throttle to
	// stay under provider rate limits, not an optimization knob.
	DefaultBatchDelay = 800 * time.Millisecond
	// DefaultMaxRetries bounds retries of a rate-limited upload.
	DefaultMaxRetries = 5
	// DefaultInitialRetryDelay seeds the backoff; each attempt multiplies it
	// by backoffMultiplier.
	DefaultInitialRetryDelay = 2 * time.Second
	// DefaultPutTimeout bounds a single blob upload call.
	DefaultPutTimeout = 2 * time.Minute

	backoffMultiplier = 1.5
)

// Input is one file to upload. Open must return a fresh reader over the full
// content on every call; a retried attempt re-opens rather than reusing a
// half-consumed reader.
type Input struct {
	Name string
	Size int64
	Path string
	Open func() (io.ReadCloser, error)
}

// Descriptor is the per-file upload result handed to session creation.
type Descriptor struct {
	Name       string `json:"name"`
	Size       int64  `json:"size"`
	StorageKey string `json:"storageKey"`
	Path       string `json:"path"`
}

// ProgressFunc receives (completed, total) after each finished batch.
type ProgressFunc func(completed, total int)

// Options tune the orchestrator; zero values fall back to the defaults above.
// Tests shrink the delays, production keeps them.
type Options struct {
	BatchSize         int
	BatchDelay        time.Duration
	MaxRetries        uint64
	InitialRetryDelay time.Duration
	PutTimeout        time.Duration
}

// Orchestrator uploads batches of files to the blob store.
type Orchestrator struct {
	store  blobstore.BlobStore
	logger logging.Logger
	opts   Options

	// sleep seam so tests don't wait out the inter-batch delay
	sleep func(ctx context.Context, d time.Duration) error
}

// NewOrchestrator wires an orchestrator around the given blob store.
func NewOrchestrator(store blobstore.BlobStore, logger logging.Logger, opts Options) *Orchestrator {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.BatchDelay <= 0 {
		opts.BatchDelay = DefaultBatchDelay
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.InitialRetryDelay <= 0 {
		opts.InitialRetryDelay = DefaultInitialRetryDelay
	}
	if opts.PutTimeout <= 0 {
		opts.PutTimeout = DefaultPutTimeout
	}
	return &Orchestrator{
		store:  store,
		logger: logger.With("module", "uploader"),
		opts:   opts,
		sleep:  sleepCtx,
	}
}

// Upload pushes every input to the blob store and returns one descriptor per
// input, in input order. The whole operation fails if any file exhausts its
// retry budget or hits a non-retryable error.
func (o *Orchestrator) Upload(ctx context.Context, inputs []Input, onProgress ProgressFunc) ([]Descriptor, error) {
	results := make([]Descriptor, len(inputs))

	for start := 0; start < len(inputs); start += o.opts.BatchSize {
		end := min(start+o.opts.BatchSize, len(inputs))

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				key, err := o.uploadWithRetry(gctx, inputs[i])
				if err != nil {
					return fmt.Errorf("upload %q: %w", inputs[i].Name, err)
				}
				results[i] = Descriptor{
					Name:       inputs[i].Name,
					Size:       inputs[i].Size,
					StorageKey: key,
					Path:       inputs[i].Path,
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		if onProgress != nil {
			onProgress(end, len(inputs))
		}

		// throttle before the next batch; nothing to wait for after the last
		if end < len(inputs) {
			if err := o.sleep(ctx, o.opts.BatchDelay); err != nil {
				return nil, err
			}
		}
	}

	o.logger.Info(ctx, "upload complete", "files", len(inputs))
	return results, nil
}

// uploadWithRetry uploads one file under a fresh storage key. Only
// rate-limit failures are retried; each retry re-opens the content and
// multiplies the wait by backoffMultiplier.
func (o *Orchestrator) uploadWithRetry(ctx context.Context, in Input) (string, error) {
	var key string

	b := retry.WithMaxRetries(o.opts.MaxRetries, geometricBackoff(o.opts.InitialRetryDelay))

	err := retry.Do(ctx, b, func(ctx context.Context) error {
		rc, err := in.Open()
		if err != nil {
			return fmt.Errorf("open content: %w", err)
		}
		defer rc.Close()

		k := blobstore.NewStorageKey()

		putCtx, cancel := context.WithTimeout(ctx, o.opts.PutTimeout)
		defer cancel()

		if err := o.store.Put(putCtx, k, rc, in.Size); err != nil {
			if errors.Is(err, shared.ErrorRateLimited) {
				o.logger.Warn(ctx, "rate limited, will retry", "name", in.Name)
				return retry.RetryableError(err)
			}
			return err
		}

		o.logger.Debug(ctx, "blob uploaded", "name", in.Name, "key", k)
		key = k
		return nil
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

// geometricBackoff yields initial, initial×1.5, initial×1.5², ...
func geometricBackoff(initial time.Duration) retry.Backoff {
	next := initial
	return retry.BackoffFunc(func() (time.Duration, bool) {
		cur := next
		next = time.Duration(float64(next) * backoffMultiplier)
		return cur, false
	})
}

// sleepCtx waits for d or until ctx is done, whichever comes first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
