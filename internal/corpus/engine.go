package corpus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"

	"github.com/corpuschat/corpuschat/internal/ragapi"
)

// ErrSyncRunning is returned by StartAsync when a run for the same logical
// name is already in flight.
var ErrSyncRunning = errors.New("sync already running for this store")

// RemoteAPI is everything the engine needs from the remote index service.
type RemoteAPI interface {
	StoreAPI
	IngestAPI
}

// SyncOptions select the run mode.
type SyncOptions struct {
	// ForceReload deletes the canonical existing store first, guaranteeing
	// a full re-upload.
	ForceReload bool
	// Resume restricts the run to documents not already in the ledger.
	Resume bool
}

// FileError is one document's terminal failure inside a batch.
type FileError struct {
	FileName string `json:"fileName"`
	Error    string `json:"error"`
}

// SyncResult aggregates one orchestration run. It is only returned after
// every document in the upload set has been attempted.
type SyncResult struct {
	RunID               string        `json:"runId"`
	StoreID             string        `json:"storeId"`
	StoreName           string        `json:"storeName"`
	StoreIsNew          bool          `json:"storeIsNew"`
	CacheHit            bool          `json:"cacheHit"`
	Successful          []string      `json:"successful"`
	Failed              []*FileError  `json:"failed"`
	Skipped             []string      `json:"skipped"`
	RemoteDocumentCount int           `json:"remoteDocumentCount"`
	Duration            time.Duration `json:"-"`
}

// SyncStatus is the read-only completeness view for one logical name.
type SyncStatus struct {
	StoreID             string  `json:"storeId"`
	RemoteDocumentCount int     `json:"remoteDocumentCount"`
	LedgerDocumentCount int     `json:"ledgerDocumentCount"`
	TargetCount         int     `json:"targetCount"`
	CompletenessPct     float64 `json:"completenessPct"`
	HasLedgerDuplicates bool    `json:"hasLedgerDuplicates"`
	Running             bool    `json:"running"`
}

// Engine is the sync orchestrator: it resolves the target store, diffs the
// corpus against the ledger and drives uploads one at a time. Uploads are
// strictly sequential within a run; the remote ingestion endpoint degrades
// under concurrent submission.
type Engine struct {
	api      RemoteAPI
	dir      *Directory
	ledger   *Ledger
	uploader *Uploader
	broker   *ProgressBroker

	// TargetCount is the expected corpus size, used only for completeness
	// reporting.
	TargetCount int

	locks     *keyedMutex
	runningMu sync.Mutex
	running   map[string]bool
	bg        sync.WaitGroup
}

func NewEngine(api RemoteAPI, ledger *Ledger, cfg UploaderConfig) *Engine {
	return &Engine{
		api:      api,
		dir:      NewDirectory(api, ledger),
		ledger:   ledger,
		uploader: NewUploader(api, cfg),
		broker:   NewProgressBroker(),
		locks:    newKeyedMutex(),
		running:  make(map[string]bool),
	}
}

// Directory exposes the store directory for maintenance commands.
func (e *Engine) Directory() *Directory { return e.dir }

// Ledger exposes the upload ledger for maintenance commands.
func (e *Engine) Ledger() *Ledger { return e.ledger }

// Progress exposes the progress broker for streaming consumers.
func (e *Engine) Progress() *ProgressBroker { return e.broker }

// Running reports whether a sync run is in flight for name.
func (e *Engine) Running(name string) bool {
	e.runningMu.Lock()
	defer e.runningMu.Unlock()
	return e.running[name]
}

// Sync reconciles the source directory against the remote store for name.
// Runs for the same name are serialized FIFO; runs for different names may
// proceed concurrently. Per-file failures are converted to entries in the
// result, never allowed to unwind the loop; only setup failures (store
// resolution, unreadable source directory) are fatal to the run.
func (e *Engine) Sync(ctx context.Context, name, dirPath string, opts SyncOptions) (*SyncResult, error) {
	if err := e.locks.Lock(ctx, name); err != nil {
		return nil, err
	}
	defer e.locks.Unlock(name)

	e.setRunning(name, true)
	defer e.setRunning(name, false)

	start := time.Now()
	result := &SyncResult{
		RunID:     uuid.NewString(),
		StoreName: name,
	}

	docs, err := ListDocuments(dirPath)
	if err != nil {
		return nil, err
	}

	store, isNew, err := e.resolveStore(ctx, name, opts)
	if err != nil {
		return nil, err
	}
	result.StoreID = store.StoreID
	result.StoreIsNew = isNew

	if !isNew && !opts.ForceReload && !opts.Resume {
		// pure cache hit: the store exists and nothing asked for uploads
		result.CacheHit = true
		result.RemoteDocumentCount = store.ActiveDocumentCount
		slog.Info("sync cache hit", "name", name, "store", store.StoreID, "documents", store.ActiveDocumentCount)
		return result, nil
	}

	uploaded := mapset.NewSet[string]()
	if opts.Resume {
		if uploaded, err = e.ledger.ListUploaded(store.StoreID); err != nil {
			return nil, fmt.Errorf("read ledger: %w", err)
		}
	}

	diff := ComputeUploadSet(docs, uploaded, opts.Resume)
	result.Skipped = append(result.Skipped, diff.SkippedDuplicateFilenames...)
	result.Skipped = append(result.Skipped, diff.SkippedAlreadyUploaded...)

	slog.Info("sync start", "run", result.RunID, "name", name, "store", store.StoreID,
		"toUpload", len(diff.ToUpload), "skipped", len(result.Skipped), "resume", opts.Resume, "forceReload", opts.ForceReload)

	e.drive(ctx, result, diff.ToUpload)

	result.RemoteDocumentCount = e.finalDocumentCount(ctx, name, store.ActiveDocumentCount, len(result.Successful))
	result.Duration = time.Since(start)
	slog.Info("sync done", "run", result.RunID, "name", name,
		"successful", len(result.Successful), "failed", len(result.Failed), "skipped", len(result.Skipped),
		"took", result.Duration.Round(time.Millisecond))
	return result, nil
}

// StartAsync launches Sync on a goroutine, rejecting a trigger while a run
// for the same name is in flight instead of queueing it. Meant for
// interactive triggers where piling up queued runs helps nobody. The
// running flag is claimed here, under the same mutex Sync uses, so two
// simultaneous triggers cannot both pass the check.
func (e *Engine) StartAsync(ctx context.Context, name, dirPath string, opts SyncOptions) error {
	e.runningMu.Lock()
	if e.running[name] {
		e.runningMu.Unlock()
		return ErrSyncRunning
	}
	e.running[name] = true
	e.runningMu.Unlock()

	e.bg.Add(1)
	go func() {
		defer e.bg.Done()
		// Sync clears the flag itself; this covers the paths where it
		// never gets that far (lock wait cancelled).
		defer e.setRunning(name, false)
		if _, err := e.Sync(ctx, name, dirPath, opts); err != nil {
			slog.Error("background sync failed", "name", name, "error", err)
		}
	}()
	return nil
}

// Wait blocks until every background run started by StartAsync has
// finished. Called on daemon shutdown before shared state (the ledger) is
// torn down.
func (e *Engine) Wait() {
	e.bg.Wait()
}

func (e *Engine) setRunning(name string, v bool) {
	e.runningMu.Lock()
	defer e.runningMu.Unlock()
	if v {
		e.running[name] = true
	} else {
		delete(e.running, name)
	}
}

// resolveStore implements the ResolveStore state: force reload deletes the
// canonical store (if any) then creates fresh; otherwise get-or-create with
// duplicate cleanup.
func (e *Engine) resolveStore(ctx context.Context, name string, opts SyncOptions) (*ragapi.RemoteStore, bool, error) {
	if opts.ForceReload {
		existing, err := e.dir.ResolveCanonical(ctx, name)
		if err != nil {
			return nil, false, fmt.Errorf("resolve store %q: %w", name, err)
		}
		if existing != nil {
			slog.Info("force reload, deleting store", "name", name, "store", existing.StoreID)
			if err := e.dir.Delete(ctx, existing.StoreID); err != nil {
				return nil, false, err
			}
		}
		created, err := e.api.CreateStore(ctx, &ragapi.CreateStoreParams{DisplayName: name})
		if err != nil {
			return nil, false, fmt.Errorf("create store %q: %w", name, err)
		}
		return created, true, nil
	}

	return e.dir.GetOrCreate(ctx, name)
}

// drive uploads every document in order, recording outcomes per file. The
// sessionSet guards against the differ's input going stale mid-run: a
// filename handled once this run is never uploaded again.
func (e *Engine) drive(ctx context.Context, result *SyncResult, toUpload []*Document) {
	sessionSet := mapset.NewThreadUnsafeSet[string]()
	total := len(toUpload)

	for i, doc := range toUpload {
		if !sessionSet.Add(doc.FileName) {
			result.Skipped = append(result.Skipped, doc.FileName)
			continue
		}

		e.broker.Publish(ProgressEvent{
			RunID: result.RunID, StoreName: result.StoreName, FileName: doc.FileName,
			Index: i + 1, Total: total, State: ProgressUploading, Timestamp: time.Now(),
		})

		err := e.uploader.Upload(ctx, result.StoreID, doc)
		if err != nil {
			result.Failed = append(result.Failed, &FileError{FileName: doc.FileName, Error: err.Error()})
			slog.Error("upload failed", "run", result.RunID, "file", doc.FileName, "error", err)
			e.broker.Publish(ProgressEvent{
				RunID: result.RunID, StoreName: result.StoreName, FileName: doc.FileName,
				Index: i + 1, Total: total, State: ProgressFailed, Error: err.Error(), Timestamp: time.Now(),
			})
			continue
		}

		// ledger write happens-before the success event for this file
		if err := e.ledger.RecordSuccess(result.StoreID, doc.FileName); err != nil {
			// loud: a lost ledger write risks a duplicate re-upload on the
			// next resume run
			slog.Error("ledger write failed after successful upload", "run", result.RunID,
				"store", result.StoreID, "file", doc.FileName, "error", err)
		}
		result.Successful = append(result.Successful, doc.FileName)
		slog.Info("uploaded", "run", result.RunID, "file", doc.FileName, "progress", fmt.Sprintf("%d/%d", i+1, total))
		e.broker.Publish(ProgressEvent{
			RunID: result.RunID, StoreName: result.StoreName, FileName: doc.FileName,
			Index: i + 1, Total: total, State: ProgressSucceeded, Timestamp: time.Now(),
		})
	}
}

// finalDocumentCount re-reads the store's document count for completeness
// reporting, falling back to an estimate when the listing fails.
func (e *Engine) finalDocumentCount(ctx context.Context, name string, before, uploaded int) int {
	store, err := e.dir.ResolveCanonical(ctx, name)
	if err != nil || store == nil {
		return before + uploaded
	}
	return store.ActiveDocumentCount
}

// Status reports remote vs ledger document counts for name. TargetCount is
// reporting-only: correctness never depends on it.
func (e *Engine) Status(ctx context.Context, name string) (*SyncStatus, error) {
	status := &SyncStatus{
		TargetCount: e.TargetCount,
		Running:     e.Running(name),
	}

	store, err := e.dir.ResolveCanonical(ctx, name)
	if err != nil {
		return nil, err
	}
	if store == nil {
		return status, nil
	}
	status.StoreID = store.StoreID
	status.RemoteDocumentCount = store.ActiveDocumentCount

	unique, hasDupes, err := e.ledger.Count(store.StoreID)
	if err != nil {
		return nil, err
	}
	status.LedgerDocumentCount = unique
	status.HasLedgerDuplicates = hasDupes

	if e.TargetCount > 0 {
		status.CompletenessPct = float64(status.RemoteDocumentCount) / float64(e.TargetCount) * 100.0
	}
	return status, nil
}
