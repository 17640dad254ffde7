package history

import (
	"testing"
	"time"
)

func TestParseRuns_Success(t *testing.T) {
	content := "2026-08-22T10:00:00+01:00  source=logo.png  output=AppIcon.icns  files=11  bytes=524288  duration=1.2s  status=ok\n" +
		"2026-08-22T10:00:00+01:00    file[1] icon_16x16.png  1234\n" +
		"2026-08-22T10:00:00+01:00    file[2] icon_16x16@2x.png  2345\n"

	runs := ParseRuns(content)
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	r := runs[0]
	if r.Source != "logo.png" {
		t.Errorf("source = %q, want %q", r.Source, "logo.png")
	}
	if r.Output != "AppIcon.icns" {
		t.Errorf("output = %q, want %q", r.Output, "AppIcon.icns")
	}
	if r.Files != 11 {
		t.Errorf("files = %d, want 11", r.Files)
	}
	if r.Bytes != 524288 {
		t.Errorf("bytes = %d, want 524288", r.Bytes)
	}
	if r.Duration != 1200*time.Millisecond {
		t.Errorf("duration = %s, want 1.2s", r.Duration)
	}
	if r.Failed() {
		t.Error("Failed() = true, want false")
	}
}

func TestParseRuns_Failure(t *testing.T) {
	content := "2026-08-22T10:05:00+01:00  source=missing.png  output=AppIcon.icns  status=error  error=\"loading missing.png: no such file\"\n"

	runs := ParseRuns(content)
	if len(runs) != 1 {
		t.Fatalf("expected 1 run, got %d", len(runs))
	}
	if !runs[0].Failed() {
		t.Error("Failed() = false, want true")
	}
	if runs[0].Error != "loading missing.png: no such file" {
		t.Errorf("error = %q", runs[0].Error)
	}
}

func TestParseRuns_MultipleBlocks(t *testing.T) {
	content := "2026-08-22T10:00:00+01:00  source=a.png  output=A.icns  files=11  bytes=100  duration=1s  status=ok\n" +
		"2026-08-22T10:00:00+01:00    file[1] icon_16x16.png  10\n" +
		"\n" +
		"2026-08-22T10:05:00+01:00  source=b.png  output=B.icns  status=error  error=\"boom\"\n" +
		"\n" +
		"2026-08-22T11:00:00+01:00  source=a.png  output=A.icns  files=11  bytes=100  duration=1s  status=ok\n"

	runs := ParseRuns(content)
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	if runs[0].Failed() {
		t.Error("run[0] should be ok")
	}
	if !runs[1].Failed() {
		t.Error("run[1] should be a failure")
	}
	if runs[2].Output != "A.icns" {
		t.Errorf("run[2] output = %q, want A.icns", runs[2].Output)
	}
}

func TestParseRuns_MalformedTimestamp(t *testing.T) {
	content := "not-a-timestamp  source=a.png  output=A.icns  status=ok\n"

	runs := ParseRuns(content)
	if len(runs) != 0 {
		t.Fatalf("expected 0 runs for malformed timestamp, got %d", len(runs))
	}
}

func TestParseRuns_MissingDoubleSpace(t *testing.T) {
	content := "2026-08-22T10:00:00+01:00 source=a.png output=A.icns status=ok\n"

	runs := ParseRuns(content)
	if len(runs) != 0 {
		t.Fatalf("expected 0 runs for missing double-space separator, got %d", len(runs))
	}
}

func TestParseRuns_MissingStatusIgnored(t *testing.T) {
	content := "2026-08-22T10:00:00+01:00  source=a.png  output=A.icns\n"

	runs := ParseRuns(content)
	if len(runs) != 0 {
		t.Fatalf("expected 0 runs for line without status, got %d", len(runs))
	}
}

func TestParseRuns_Empty(t *testing.T) {
	runs := ParseRuns("")
	if runs != nil {
		t.Fatalf("expected nil for empty content, got %v", runs)
	}

	runs = ParseRuns("   \n\n  ")
	if runs != nil {
		t.Fatalf("expected nil for whitespace-only content, got %v", runs)
	}
}

func TestExtractField(t *testing.T) {
	line := "2026-08-22T10:00:00+01:00  source=logo.png  output=AppIcon.icns  files=11  status=ok"

	tests := []struct {
		key, want string
	}{
		{"source", "logo.png"},
		{"output", "AppIcon.icns"},
		{"files", "11"},
		{"status", "ok"},
		{"missing", ""},
	}

	for _, tt := range tests {
		got := extractField(line, tt.key)
		if got != tt.want {
			t.Errorf("extractField(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestExtractQuotedField(t *testing.T) {
	line := `2026-08-22T10:00:00+01:00  source=a.png  status=error  error="open \"weird name\": denied"`

	got := extractQuotedField(line, "error")
	want := `open "weird name": denied`
	if got != want {
		t.Errorf("extractQuotedField = %q, want %q", got, want)
	}

	if got := extractQuotedField(line, "missing"); got != "" {
		t.Errorf("extractQuotedField(missing) = %q, want empty", got)
	}
}

func TestExtractTimestamp(t *testing.T) {
	ts, ok := ExtractTimestamp("2026-08-22T10:00:00Z  source=a.png  status=ok")
	if !ok {
		t.Fatal("expected timestamp to parse")
	}
	if ts.Year() != 2026 || ts.Month() != 8 || ts.Day() != 22 {
		t.Errorf("timestamp = %v", ts)
	}

	if _, ok := ExtractTimestamp("garbage"); ok {
		t.Error("expected failure for garbage line")
	}
}
