package history

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Mavwarf/mkicns/internal/paths"
)

// FileStore implements Store using a flat log file.
type FileStore struct {
	path string
}

// NewFileStore returns a FileStore that reads and writes the given log file.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// openLog opens (or creates) the log file for appending, creating the
// parent directory if needed.
func (f *FileStore) openLog() (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(f.path), paths.DirPerm); err != nil {
		return nil, err
	}
	return os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, paths.FilePerm)
}

// writeLog opens the log file, generates a timestamp, and calls fn to
// write the entry.
func (f *FileStore) writeLog(fn func(file *os.File, ts string)) error {
	file, err := f.openLog()
	if err != nil {
		return err
	}
	defer file.Close()
	fn(file, time.Now().Format(time.RFC3339))
	return nil
}

// LogRun appends a summary line followed by one detail line per staged file,
// then a blank line separating runs. The record is stamped at write time.
func (f *FileStore) LogRun(r Run) error {
	return f.writeLog(func(file *os.File, ts string) {
		if r.Failed() {
			fmt.Fprintf(file, "%s  source=%s  output=%s  status=%s  error=%q\n\n",
				ts, r.Source, r.Output, StatusError, r.Error)
			return
		}

		fmt.Fprintf(file, "%s  source=%s  output=%s  files=%d  bytes=%d  duration=%s  status=%s\n",
			ts, r.Source, r.Output, r.Files, r.Bytes, r.Duration, StatusOK)

		for i, d := range r.Details {
			fmt.Fprintf(file, "%s    file[%d] %s  %d\n", ts, i+1, d.Name, d.Bytes)
		}

		fmt.Fprintln(file)
	})
}

func (f *FileStore) Runs(days int) ([]Run, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	runs := ParseRuns(string(data))
	if days <= 0 {
		return runs, nil
	}

	cutoff := DayCutoff(days)
	var filtered []Run
	for _, r := range runs {
		if !r.Time.In(cutoff.Location()).Before(cutoff) {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

func (f *FileStore) RunsSince(cutoff time.Time) ([]Run, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	runs := ParseRuns(string(data))
	var filtered []Run
	for _, r := range runs {
		if !r.Time.Before(cutoff) {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

func (f *FileStore) ReadContent() (string, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return string(data), nil
}

func (f *FileStore) Clean(days int) (int, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	content := strings.TrimRight(string(data), "\n\r ")
	if content == "" {
		return 0, nil
	}

	origBlocks := len(SplitBlocks(content))
	filtered := FilterBlocksByDays(content, days)
	keptBlocks := 0
	if filtered != "" {
		keptBlocks = len(SplitBlocks(filtered))
	}
	removed := origBlocks - keptBlocks

	if filtered == "" {
		_ = os.Remove(f.path)
		return removed, nil
	}

	out := filtered + "\n\n"
	if err := os.WriteFile(f.path, []byte(out), paths.FilePerm); err != nil {
		return 0, err
	}
	return removed, nil
}

func (f *FileStore) Clear() error {
	err := os.Remove(f.path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (f *FileStore) Path() string {
	return f.path
}
