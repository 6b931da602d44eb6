package corpus

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/corpuschat/corpuschat/internal/utils"
)

var (
	// ErrSourceDirNotFound means the configured corpus directory does not exist.
	ErrSourceDirNotFound = errors.New("source directory not found")

	// ErrNoDocuments means the corpus directory holds no files with a
	// supported extension.
	ErrNoDocuments = errors.New("no supported documents in source directory")
)

// Document is a single source file to be ingested into a remote store.
// Documents are enumerated once at the start of a sync run and never mutated.
type Document struct {
	FileName    string
	Path        string
	SizeBytes   int64
	ContentType string
}

// ListDocuments enumerates the supported documents in dir, in directory
// order. Subdirectories are not descended into; the corpus is a flat set of
// files keyed by name.
func ListDocuments(dir string) ([]*Document, error) {
	resolved, err := utils.ResolvePath(dir)
	if err != nil {
		return nil, err
	}
	if !utils.DirExists(resolved) {
		return nil, fmt.Errorf("%w: %s", ErrSourceDirNotFound, dir)
	}

	entries, err := os.ReadDir(resolved)
	if err != nil {
		return nil, fmt.Errorf("read source directory %s: %w", dir, err)
	}

	var docs []*Document
	var totalSize int64
	for _, entry := range entries {
		if entry.IsDir() || !utils.SupportedExtension(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			slog.Warn("corpus stat", "file", entry.Name(), "error", err)
			continue
		}
		docs = append(docs, &Document{
			FileName:    entry.Name(),
			Path:        filepath.Join(resolved, entry.Name()),
			SizeBytes:   info.Size(),
			ContentType: utils.DetectContentType(entry.Name()),
		})
		totalSize += info.Size()
	}

	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoDocuments, dir)
	}

	slog.Debug("corpus listed", "dir", resolved, "documents", len(docs), "size", humanize.Bytes(uint64(totalSize)))
	return docs, nil
}
