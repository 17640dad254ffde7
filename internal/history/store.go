package history

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/Mavwarf/mkicns/internal/paths"
)

// Store abstracts build history storage. FileStore keeps a flat log file;
// SQLiteStore is the default backend.
type Store interface {
	// Write
	LogRun(r Run) error

	// Read
	Runs(days int) ([]Run, error)              // parsed runs, 0 = all
	RunsSince(cutoff time.Time) ([]Run, error) // runs at or after cutoff
	ReadContent() (string, error)              // raw log text

	// Maintenance
	Clean(days int) (int, error) // remove old runs, return removed count
	Clear() error                // delete all data

	// Metadata
	Path() string
}

// Open returns the history store for the configured backend, rooted in
// dataDir. An empty backend selects SQLite.
func Open(dataDir, backend string) (Store, error) {
	switch backend {
	case "file":
		return NewFileStore(filepath.Join(dataDir, paths.HistoryFileName)), nil
	case "", "sqlite":
		return NewSQLiteStore(filepath.Join(dataDir, paths.HistoryDBFileName))
	default:
		return nil, fmt.Errorf("unknown history backend %q", backend)
	}
}
