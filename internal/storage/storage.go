package storage

import (
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Tiliavir/ti/internal/model"
)

// Store errors. All of them are fatal to the calling operation.
var (
	// ErrSchema means the on-disk layout does not match the expected fields.
	ErrSchema = errors.New("store layout does not match expected fields")
	// ErrConsistency means the entry passed to FinishTracking is not the
	// stored open entry.
	ErrConsistency = errors.New("inconsistent entries")
	// ErrParse means manually edited data could not be read back.
	ErrParse = errors.New("edited data could not be parsed")
	// ErrNoEditor means Edit was called without an editor command.
	ErrNoEditor = errors.New("no editor command given")
)

// Store persists entries. Implementations are not safe for concurrent use
// and perform no cross-process locking.
type Store interface {
	// GetCurrent returns the open entry, or nil. When more than one entry is
	// open only the most recently started one is returned.
	GetCurrent() (*model.Entry, error)
	// AddTracking appends a new open entry. It does not check whether another
	// entry is already open; callers must call GetCurrent first.
	AddTracking(task, project string, start time.Time) error
	// FinishTracking closes current at end. It fails with ErrConsistency
	// unless current matches the stored open entry field for field.
	FinishTracking(current model.Entry, end time.Time) error
	// GetLogs yields entries with start_date in [from, to], ordered by start.
	GetLogs(from, to string) iter.Seq2[model.Entry, error]
	// GetAggregatedLogs yields per (project, task) totals of the closed
	// entries with start_date in [from, to].
	GetAggregatedLogs(from, to string) iter.Seq2[model.AggregatedLog, error]
	// Edit lets the user rewrite the whole data set with an external editor.
	Edit(editor string) error
	Close() error
}

// Backend names a concrete Store implementation.
type Backend string

const (
	BackendCSV    Backend = "csv"
	BackendJSON   Backend = "json"
	BackendSQLite Backend = "sqlite"
)

var backendByExt = map[string]Backend{
	".csv":    BackendCSV,
	".txt":    BackendCSV,
	".json":   BackendJSON,
	".sqlite": BackendSQLite,
}

// Kind returns the backend used for path, chosen by file extension.
// Unknown or missing extensions use the CSV backend.
func Kind(path string) Backend {
	if b, ok := backendByExt[strings.ToLower(filepath.Ext(path))]; ok {
		return b
	}
	return BackendCSV
}

// DefaultPath returns the store used when none is configured (~/.ti-sheet.csv).
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".ti-sheet.csv"), nil
}

// Open opens the store at path with the backend chosen by Kind.
func Open(path string) (Store, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	switch Kind(path) {
	case BackendJSON:
		return NewJSONStore(path)
	case BackendSQLite:
		return NewSQLiteStore(path)
	default:
		return NewCSVStore(path)
	}
}

// Collect drains seq into a slice, stopping at the first error.
func Collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	var out []T
	for v, err := range seq {
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
