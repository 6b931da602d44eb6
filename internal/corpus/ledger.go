package corpus

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/jmoiron/sqlx"

	"github.com/corpuschat/corpuschat/internal/db"
)

// The table deliberately carries no unique constraint: duplicate rows should
// never appear through RecordSuccess, but legacy or externally edited state
// may contain them and the ledger has to stay readable in that case.
const ledgerSchema = `
CREATE TABLE IF NOT EXISTS upload_ledger (
    store_id TEXT NOT NULL,
    file_name TEXT NOT NULL,
    uploaded_at TEXT NOT NULL -- RFC3339
);

CREATE INDEX IF NOT EXISTS idx_ledger_store ON upload_ledger(store_id);
`

// ErrLedgerClosed means an operation was attempted before Open or after
// Close. Callers treat it like any other ledger I/O error: logged, never a
// panic or a batch abort.
var ErrLedgerClosed = errors.New("ledger is not open")

// LedgerEntry is the per-store view of the ledger.
type LedgerEntry struct {
	StoreID       string
	UploadedFiles []string
	LastUpdate    time.Time
	HasDuplicates bool
}

// DedupeReport summarizes an explicit ledger deduplication pass.
type DedupeReport struct {
	Before  int `json:"before"`
	After   int `json:"after"`
	Removed int `json:"removed"`
}

// Ledger is the durable local record of which filenames have been ingested
// into which remote store. It is the sole source of truth for "already
// uploaded": the remote API cannot list ingested documents by name.
//
// All read-modify-write sequences are serialized behind mu so two logically
// concurrent callers cannot interleave and lose an update.
type Ledger struct {
	db     *sqlx.DB
	dbPath string
	mu     sync.Mutex
}

// NewLedger creates a Ledger backed by an SQLite database at dbPath.
func NewLedger(dbPath string) *Ledger {
	return &Ledger{dbPath: dbPath}
}

// Open opens the underlying database and ensures the schema exists. A
// corrupt ledger is not fatal: the damaged file is moved aside and the
// ledger starts empty, which at worst re-uploads documents on the next
// resume run.
func (l *Ledger) Open() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.db != nil {
		return fmt.Errorf("ledger already open")
	}

	database, err := l.openDB()
	if err != nil {
		if l.dbPath == ":memory:" {
			return err
		}
		backup := fmt.Sprintf("%s.corrupt-%d", l.dbPath, time.Now().Unix())
		slog.Warn("ledger unreadable, starting fresh", "path", l.dbPath, "backup", backup, "error", err)
		if renameErr := os.Rename(l.dbPath, backup); renameErr != nil {
			return fmt.Errorf("move corrupt ledger aside: %w", renameErr)
		}
		if database, err = l.openDB(); err != nil {
			return err
		}
	}

	l.db = database
	return nil
}

func (l *Ledger) openDB() (*sqlx.DB, error) {
	database, err := db.NewSqliteDB(db.WithPath(l.dbPath), db.WithMaxOpenConns(1))
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	if _, err := database.Exec(ledgerSchema); err != nil {
		database.Close()
		return nil, fmt.Errorf("initialize ledger schema: %w", err)
	}
	return database, nil
}

// Close closes the underlying database connection. Operations on a closed
// ledger fail with ErrLedgerClosed.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.db == nil {
		return ErrLedgerClosed
	}
	err := l.db.Close()
	l.db = nil
	return err
}

// RecordSuccess appends fileName to the store's entry. Re-recording an
// already present filename is a no-op; it signals an upstream logic defect
// and is logged as such.
func (l *Ledger) RecordSuccess(storeID, fileName string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.db == nil {
		return ErrLedgerClosed
	}

	var count int
	if err := l.db.Get(&count, "SELECT COUNT(*) FROM upload_ledger WHERE store_id = ? AND file_name = ?", storeID, fileName); err != nil {
		return fmt.Errorf("ledger lookup %s: %w", fileName, err)
	}
	if count > 0 {
		slog.Warn("ledger already contains file, skipping record", "store", storeID, "file", fileName)
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := l.db.Exec("INSERT INTO upload_ledger (store_id, file_name, uploaded_at) VALUES (?, ?, ?)", storeID, fileName, now); err != nil {
		return fmt.Errorf("ledger insert %s: %w", fileName, err)
	}
	return nil
}

// ListUploaded returns the set of filenames recorded for storeID. If the
// underlying rows contain duplicates the ledger self-heals: the duplicates
// are collapsed and the corrected state persisted before returning.
func (l *Ledger) ListUploaded(storeID string) (mapset.Set[string], error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.db == nil {
		return nil, ErrLedgerClosed
	}

	names, err := l.fileNames(storeID)
	if err != nil {
		return nil, err
	}

	uploaded := mapset.NewSet(names...)
	if uploaded.Cardinality() < len(names) {
		slog.Warn("ledger contains duplicate entries, collapsing", "store", storeID, "rows", len(names), "unique", uploaded.Cardinality())
		if _, err := l.collapseDuplicates(storeID); err != nil {
			return nil, err
		}
	}
	return uploaded, nil
}

// Clear removes the entry for storeID entirely. Called when that remote
// store is deleted.
func (l *Ledger) Clear(storeID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.db == nil {
		return ErrLedgerClosed
	}

	if _, err := l.db.Exec("DELETE FROM upload_ledger WHERE store_id = ?", storeID); err != nil {
		return fmt.Errorf("ledger clear %s: %w", storeID, err)
	}
	return nil
}

// Deduplicate collapses duplicate rows for storeID and reports the counts.
// Exposed as an operator maintenance command.
func (l *Ledger) Deduplicate(storeID string) (*DedupeReport, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.db == nil {
		return nil, ErrLedgerClosed
	}

	names, err := l.fileNames(storeID)
	if err != nil {
		return nil, err
	}

	removed, err := l.collapseDuplicates(storeID)
	if err != nil {
		return nil, err
	}

	return &DedupeReport{
		Before:  len(names),
		After:   len(names) - removed,
		Removed: removed,
	}, nil
}

// Entries returns the full ledger grouped by store, flagging duplicates.
// Read-only; used by the inspection view.
func (l *Ledger) Entries() ([]*LedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.db == nil {
		return nil, ErrLedgerClosed
	}

	var rows []struct {
		StoreID    string `db:"store_id"`
		FileName   string `db:"file_name"`
		UploadedAt string `db:"uploaded_at"`
	}
	if err := l.db.Select(&rows, "SELECT store_id, file_name, uploaded_at FROM upload_ledger ORDER BY store_id, rowid"); err != nil {
		return nil, fmt.Errorf("ledger select: %w", err)
	}

	byStore := map[string]*LedgerEntry{}
	var order []string
	seen := map[string]mapset.Set[string]{}
	for _, row := range rows {
		entry, ok := byStore[row.StoreID]
		if !ok {
			entry = &LedgerEntry{StoreID: row.StoreID}
			byStore[row.StoreID] = entry
			seen[row.StoreID] = mapset.NewThreadUnsafeSet[string]()
			order = append(order, row.StoreID)
		}
		if !seen[row.StoreID].Add(row.FileName) {
			entry.HasDuplicates = true
		} else {
			entry.UploadedFiles = append(entry.UploadedFiles, row.FileName)
		}
		if ts, err := time.Parse(time.RFC3339, row.UploadedAt); err == nil && ts.After(entry.LastUpdate) {
			entry.LastUpdate = ts
		}
	}

	entries := make([]*LedgerEntry, 0, len(order))
	for _, id := range order {
		entries = append(entries, byStore[id])
	}
	return entries, nil
}

// Count returns the number of unique filenames recorded for storeID and
// whether duplicate rows exist, without mutating anything.
func (l *Ledger) Count(storeID string) (unique int, hasDuplicates bool, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.db == nil {
		return 0, false, ErrLedgerClosed
	}

	names, err := l.fileNames(storeID)
	if err != nil {
		return 0, false, err
	}
	set := mapset.NewThreadUnsafeSet(names...)
	return set.Cardinality(), set.Cardinality() < len(names), nil
}

// fileNames returns raw rows in insertion order. Caller holds mu.
func (l *Ledger) fileNames(storeID string) ([]string, error) {
	var names []string
	if err := l.db.Select(&names, "SELECT file_name FROM upload_ledger WHERE store_id = ? ORDER BY rowid", storeID); err != nil {
		return nil, fmt.Errorf("ledger select %s: %w", storeID, err)
	}
	return names, nil
}

// collapseDuplicates keeps the earliest row per filename. Caller holds mu.
func (l *Ledger) collapseDuplicates(storeID string) (int, error) {
	res, err := l.db.Exec(`DELETE FROM upload_ledger WHERE store_id = ? AND rowid NOT IN (
		SELECT MIN(rowid) FROM upload_ledger WHERE store_id = ? GROUP BY file_name
	)`, storeID, storeID)
	if err != nil {
		return 0, fmt.Errorf("ledger dedupe %s: %w", storeID, err)
	}
	removed, _ := res.RowsAffected()
	return int(removed), nil
}
