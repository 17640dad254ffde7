package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Mavwarf/mkicns/internal/paths"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using a SQLite database.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (or creates) a SQLite database at path, creates
// tables and indexes, and performs one-time migration from mkicns.log
// if it exists in the same directory.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), paths.DirPerm); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Set PRAGMAs before any DDL.
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite pragma: %w", err)
		}
	}

	ddl := `
CREATE TABLE IF NOT EXISTS runs (
    id        INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp TEXT    NOT NULL,
    source    TEXT    NOT NULL DEFAULT '',
    output    TEXT    NOT NULL DEFAULT '',
    files     INTEGER NOT NULL DEFAULT 0,
    bytes     INTEGER NOT NULL DEFAULT 0,
    duration  TEXT    NOT NULL DEFAULT '',
    status    TEXT    NOT NULL,
    error     TEXT    NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS run_files (
    id       INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id   INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
    file_num INTEGER NOT NULL,
    name     TEXT    NOT NULL,
    bytes    INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_runs_output    ON runs(output, status);
`
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	s := &SQLiteStore{db: db, path: path}

	// One-time migration from flat file.
	logPath := filepath.Join(filepath.Dir(path), paths.HistoryFileName)
	if _, err := os.Stat(logPath); err == nil {
		if err := s.migrateFromFile(logPath); err != nil {
			fmt.Fprintf(os.Stderr, "history: migration: %v\n", err)
		}
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) LogRun(r Run) error {
	ts := time.Now().Format(time.RFC3339)

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	status := StatusOK
	if r.Failed() {
		status = StatusError
	}

	res, err := tx.Exec(
		`INSERT INTO runs (timestamp, source, output, files, bytes, duration, status, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ts, r.Source, r.Output, r.Files, r.Bytes, r.Duration.String(), status, r.Error,
	)
	if err != nil {
		return err
	}

	runID, err := res.LastInsertId()
	if err != nil {
		return err
	}

	for i, d := range r.Details {
		if _, err := tx.Exec(
			`INSERT INTO run_files (run_id, file_num, name, bytes) VALUES (?, ?, ?, ?)`,
			runID, i+1, d.Name, d.Bytes,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) Runs(days int) ([]Run, error) {
	query := `SELECT timestamp, source, output, files, bytes, duration, status, error FROM runs`
	var args []any
	if days > 0 {
		query += ` WHERE timestamp >= ?`
		args = append(args, DayCutoff(days).Format(time.RFC3339))
	}
	query += ` ORDER BY id`

	return s.queryRuns(query, args...)
}

func (s *SQLiteStore) RunsSince(cutoff time.Time) ([]Run, error) {
	query := `SELECT timestamp, source, output, files, bytes, duration, status, error
		FROM runs WHERE timestamp >= ? ORDER BY id`
	return s.queryRuns(query, cutoff.Format(time.RFC3339))
}

func (s *SQLiteStore) queryRuns(query string, args ...any) ([]Run, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var tsStr, durStr string
		var r Run
		if err := rows.Scan(&tsStr, &r.Source, &r.Output, &r.Files, &r.Bytes, &durStr, &r.Status, &r.Error); err != nil {
			return nil, err
		}
		ts, err := time.Parse(time.RFC3339, tsStr)
		if err != nil {
			continue
		}
		r.Time = ts
		if d, err := time.ParseDuration(durStr); err == nil {
			r.Duration = d
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ReadContent reconstructs the flat-log text from the database so callers
// can render raw history regardless of backend.
func (s *SQLiteStore) ReadContent() (string, error) {
	rows, err := s.db.Query(
		`SELECT id, timestamp, source, output, files, bytes, duration, status, error
		 FROM runs ORDER BY id`)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	type runRow struct {
		id       int64
		ts       string
		source   string
		output   string
		files    int
		bytes    int64
		duration string
		status   string
		errText  string
	}

	var runs []runRow
	for rows.Next() {
		var rr runRow
		if err := rows.Scan(&rr.id, &rr.ts, &rr.source, &rr.output, &rr.files, &rr.bytes,
			&rr.duration, &rr.status, &rr.errText); err != nil {
			return "", err
		}
		runs = append(runs, rr)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	if len(runs) == 0 {
		return "", nil
	}

	type fileRow struct {
		num   int
		name  string
		bytes int64
	}
	filesByRun := map[int64][]fileRow{}

	frRows, err := s.db.Query(
		`SELECT run_id, file_num, name, bytes FROM run_files ORDER BY run_id, file_num`)
	if err != nil {
		return "", err
	}
	defer frRows.Close()

	for frRows.Next() {
		var runID int64
		var fr fileRow
		if err := frRows.Scan(&runID, &fr.num, &fr.name, &fr.bytes); err != nil {
			return "", err
		}
		filesByRun[runID] = append(filesByRun[runID], fr)
	}
	if err := frRows.Err(); err != nil {
		return "", err
	}

	var b strings.Builder
	for _, rr := range runs {
		if rr.status == StatusError {
			fmt.Fprintf(&b, "%s  source=%s  output=%s  status=%s  error=%q\n\n",
				rr.ts, rr.source, rr.output, rr.status, rr.errText)
			continue
		}

		fmt.Fprintf(&b, "%s  source=%s  output=%s  files=%d  bytes=%d  duration=%s  status=%s\n",
			rr.ts, rr.source, rr.output, rr.files, rr.bytes, rr.duration, rr.status)
		for _, fr := range filesByRun[rr.id] {
			fmt.Fprintf(&b, "%s    file[%d] %s  %d\n", rr.ts, fr.num, fr.name, fr.bytes)
		}
		b.WriteByte('\n')
	}

	return b.String(), nil
}

func (s *SQLiteStore) Clean(days int) (int, error) {
	cutoff := DayCutoff(days).Format(time.RFC3339)
	res, err := s.db.Exec(`DELETE FROM runs WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s *SQLiteStore) Clear() error {
	_, err := s.db.Exec(`DELETE FROM runs`)
	return err
}

func (s *SQLiteStore) Path() string {
	return s.path
}

// migrateFromFile reads an existing mkicns.log and imports its runs into
// the SQLite database. On success, renames the log to mkicns.log.migrated.
func (s *SQLiteStore) migrateFromFile(logPath string) error {
	data, err := os.ReadFile(logPath)
	if err != nil {
		return err
	}
	content := strings.TrimRight(string(data), "\n\r ")
	if content == "" {
		return os.Rename(logPath, logPath+".migrated")
	}

	blocks := SplitBlocks(content)

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	migrated := 0
	for _, block := range blocks {
		lines := strings.Split(block, "\n")
		if len(lines) == 0 {
			continue
		}

		firstLine := lines[0]
		ts, ok := ExtractTimestamp(firstLine)
		if !ok {
			continue
		}

		status := extractField(firstLine, "status")
		if status == "" {
			continue
		}

		files := 0
		if n, err := strconv.Atoi(extractField(firstLine, "files")); err == nil {
			files = n
		}
		var bytes int64
		if n, err := strconv.ParseInt(extractField(firstLine, "bytes"), 10, 64); err == nil {
			bytes = n
		}
		duration := extractField(firstLine, "duration")

		res, err := tx.Exec(
			`INSERT INTO runs (timestamp, source, output, files, bytes, duration, status, error)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			ts.Format(time.RFC3339),
			extractField(firstLine, "source"),
			extractField(firstLine, "output"),
			files, bytes, duration, status,
			extractQuotedField(firstLine, "error"),
		)
		if err != nil {
			return fmt.Errorf("migrate run: %w", err)
		}

		runID, _ := res.LastInsertId()

		for _, line := range lines[1:] {
			num, name, size := parseFileLine(line)
			if name == "" {
				continue
			}
			if _, err := tx.Exec(
				`INSERT INTO run_files (run_id, file_num, name, bytes) VALUES (?, ?, ?, ?)`,
				runID, num, name, size,
			); err != nil {
				return fmt.Errorf("migrate file: %w", err)
			}
		}

		migrated++
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "history: migrated %d runs from %s\n", migrated, paths.HistoryFileName)
	return os.Rename(logPath, logPath+".migrated")
}

// parseFileLine extracts the file number, name, and byte size from a detail
// line like:
//
//	2025-01-01T00:00:00Z    file[3] icon_32x32.png  4096
func parseFileLine(line string) (num int, name string, size int64) {
	idx := strings.Index(line, "file[")
	if idx < 0 {
		return 0, "", 0
	}

	after := line[idx+5:] // after "file["
	bracket := strings.Index(after, "]")
	if bracket < 0 {
		return 0, "", 0
	}

	fmt.Sscanf(after[:bracket], "%d", &num)

	rest := strings.TrimLeft(after[bracket+1:], " ")
	spaceIdx := strings.Index(rest, " ")
	if spaceIdx < 0 {
		return num, rest, 0
	}
	name = rest[:spaceIdx]
	fmt.Sscanf(strings.TrimSpace(rest[spaceIdx:]), "%d", &size)
	return num, name, size
}
