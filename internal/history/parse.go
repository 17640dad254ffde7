package history

import (
	"strconv"
	"strings"
	"time"
)

// Run status values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Run is a single recorded build.
type Run struct {
	Time     time.Time
	Source   string
	Output   string
	Files    int
	Bytes    int64
	Duration time.Duration
	Status   string
	Error    string
	Details  []FileDetail
}

// FileDetail is one staged PNG recorded with a run. Stores accept details on
// LogRun but do not return them from Runs.
type FileDetail struct {
	Name  string
	Bytes int64
}

// Failed reports whether the run ended in an error.
func (r Run) Failed() bool {
	return r.Status == StatusError
}

// ParseRuns splits log content on blank lines and parses summary lines into
// runs. Per-file detail lines (indented, containing "file[") are skipped.
// Malformed lines are silently skipped.
func ParseRuns(content string) []Run {
	content = strings.TrimRight(content, "\n\r ")
	if content == "" {
		return nil
	}

	blocks := strings.Split(content, "\n\n")
	var runs []Run
	for _, block := range blocks {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}

		for _, line := range strings.Split(block, "\n") {
			// Skip file detail lines (indented, contain "file[").
			if strings.Contains(line, "file[") {
				continue
			}

			ts, ok := ExtractTimestamp(line)
			if !ok {
				continue
			}

			status := extractField(line, "status")
			if status == "" {
				continue
			}

			run := Run{
				Time:   ts,
				Source: extractField(line, "source"),
				Output: extractField(line, "output"),
				Status: status,
				Error:  extractQuotedField(line, "error"),
			}
			if n, err := strconv.Atoi(extractField(line, "files")); err == nil {
				run.Files = n
			}
			if n, err := strconv.ParseInt(extractField(line, "bytes"), 10, 64); err == nil {
				run.Bytes = n
			}
			if d, err := time.ParseDuration(extractField(line, "duration")); err == nil {
				run.Duration = d
			}
			runs = append(runs, run)
		}
	}
	return runs
}

// ExtractTimestamp parses the RFC3339 timestamp at the start of a log line
// (everything before the first "  " double-space separator). Returns the
// parsed time and true on success, or zero time and false on failure.
func ExtractTimestamp(line string) (time.Time, bool) {
	tsEnd := strings.Index(line, "  ")
	if tsEnd < 0 {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339, line[:tsEnd])
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// extractField returns the value after "key=" in a space-separated line.
// Returns "" if not found.
func extractField(line, key string) string {
	prefix := key + "="
	for _, field := range strings.Fields(line) {
		if strings.HasPrefix(field, prefix) {
			return field[len(prefix):]
		}
	}
	return ""
}

// extractQuotedField returns the %q-decoded value after "key=" in a line.
// Unlike extractField it tolerates spaces inside the quoted value.
func extractQuotedField(line, key string) string {
	prefix := key + "="
	idx := strings.Index(line, prefix)
	if idx < 0 {
		return ""
	}
	return extractQuoted(line[idx+len(prefix):])
}

// extractQuoted extracts a Go %q-encoded string from the start of s.
// It finds the matching closing quote (respecting backslash escapes),
// then uses strconv.Unquote to decode the value. Returns "" on failure.
func extractQuoted(s string) string {
	if len(s) == 0 || s[0] != '"' {
		return ""
	}
	// Find closing quote (skip escaped quotes).
	for i := 1; i < len(s); i++ {
		if s[i] == '\\' {
			i++ // skip escaped character
			continue
		}
		if s[i] == '"' {
			text, err := strconv.Unquote(s[:i+1])
			if err != nil {
				return ""
			}
			return text
		}
	}
	return ""
}
