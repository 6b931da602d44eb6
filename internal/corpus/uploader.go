package corpus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/corpuschat/corpuschat/internal/ragapi"
)

// IngestAPI is the slice of the remote index service the uploader needs.
type IngestAPI interface {
	SubmitDocument(ctx context.Context, params *ragapi.UploadParams) (*ragapi.UploadResponse, error)
	PollOperation(ctx context.Context, operationID string) (*ragapi.Operation, error)
}

// SleepFunc suspends for d or until ctx is done. Injectable so tests can
// simulate time without real delays.
type SleepFunc func(ctx context.Context, d time.Duration) error

func realSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// UploaderConfig bounds the upload protocol. The poll and retry bounds are
// load-bearing safety valves against an ingestion pipeline that has been
// observed to stall indefinitely on specific documents; the right values
// are discovered per deployment, so none of them are hard-coded.
type UploaderConfig struct {
	// MaxAttempts bounds full submit-and-poll sequences per document.
	MaxAttempts int
	// BackoffBase is the base of the exponential backoff between attempts
	// (base, 2*base, 4*base, ...).
	BackoffBase time.Duration
	// PollInterval is the fixed delay between operation polls.
	PollInterval time.Duration
	// MaxPolls bounds polls per attempt before the attempt counts as timed out.
	MaxPolls int
	// PostUploadDelay is applied after each successful upload as a
	// rate-limiting courtesy to the remote API.
	PostUploadDelay time.Duration
}

// DefaultUploaderConfig matches the observed sweet spot: 5 attempts, 2s
// backoff base, 3s polls bounded at 120 (~6 minutes per attempt).
func DefaultUploaderConfig() UploaderConfig {
	return UploaderConfig{
		MaxAttempts:     5,
		BackoffBase:     2 * time.Second,
		PollInterval:    3 * time.Second,
		MaxPolls:        120,
		PostUploadDelay: 1500 * time.Millisecond,
	}
}

// TimeoutError means an ingestion operation did not complete within the
// poll bound. Treated like any transient error: it consumes one attempt.
type TimeoutError struct {
	Elapsed time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("ingestion not done after %s", e.Elapsed)
}

// UploadError is terminal for a single document: every attempt was used.
type UploadError struct {
	FileName string
	Attempts int
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s failed after %d attempts: %v", e.FileName, e.Attempts, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// Uploader drives a single document through the remote ingestion protocol:
// submit, poll until done, retry the whole sequence with exponential
// backoff on any error.
type Uploader struct {
	api   IngestAPI
	cfg   UploaderConfig
	sleep SleepFunc
}

func NewUploader(api IngestAPI, cfg UploaderConfig) *Uploader {
	return &Uploader{api: api, cfg: cfg, sleep: realSleep}
}

// Upload ingests one document into storeID. The returned error is either a
// context error or an *UploadError; the caller records it per file and
// moves on, it never aborts the batch.
func (u *Uploader) Upload(ctx context.Context, storeID string, doc *Document) error {
	var lastErr error

	for attempt := 0; attempt < u.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := u.cfg.BackoffBase << (attempt - 1)
			slog.Warn("upload retry", "file", doc.FileName, "attempt", attempt+1, "backoff", delay, "error", lastErr)
			if err := u.sleep(ctx, delay); err != nil {
				return err
			}
		}

		err := u.attempt(ctx, storeID, doc)
		if err == nil {
			// rate-limiting courtesy between consecutive uploads
			if err := u.sleep(ctx, u.cfg.PostUploadDelay); err != nil {
				return err
			}
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		lastErr = err
	}

	return &UploadError{FileName: doc.FileName, Attempts: u.cfg.MaxAttempts, Err: lastErr}
}

// attempt runs one full submit-and-poll sequence.
func (u *Uploader) attempt(ctx context.Context, storeID string, doc *Document) error {
	resp, err := u.api.SubmitDocument(ctx, &ragapi.UploadParams{
		StoreID:     storeID,
		FilePath:    doc.Path,
		FileName:    doc.FileName,
		ContentType: doc.ContentType,
	})
	if err != nil {
		return fmt.Errorf("submit: %w", err)
	}

	start := time.Now()
	for poll := 0; poll < u.cfg.MaxPolls; poll++ {
		op, err := u.api.PollOperation(ctx, resp.OperationID)
		if err != nil {
			return fmt.Errorf("poll: %w", err)
		}
		if op.Done {
			if op.Error != "" {
				return fmt.Errorf("ingestion failed: %s", op.Error)
			}
			return nil
		}
		if err := u.sleep(ctx, u.cfg.PollInterval); err != nil {
			return err
		}
	}

	return &TimeoutError{Elapsed: time.Since(start)}
}
