package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestUnmarshalDefaults(t *testing.T) {
	var cfg Config
	if err := json.Unmarshal([]byte(`{}`), &cfg); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if cfg.Options.Output != DefaultOutput {
		t.Errorf("Output = %q, want %q", cfg.Options.Output, DefaultOutput)
	}
	if !cfg.Options.Log {
		t.Error("Log = false, want true")
	}
	if cfg.Options.HistoryBackend != DefaultHistoryBackend {
		t.Errorf("HistoryBackend = %q, want %q", cfg.Options.HistoryBackend, DefaultHistoryBackend)
	}
}

func TestUnmarshalOverrides(t *testing.T) {
	data := []byte(`{
		"config": {
			"source": "logo.png",
			"output": "build/AppIcon.icns",
			"staging": "/tmp/icons.iconset",
			"keep_staging": true,
			"native": true,
			"history_backend": "file"
		}
	}`)

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if cfg.Options.Source != "logo.png" {
		t.Errorf("Source = %q, want logo.png", cfg.Options.Source)
	}
	if cfg.Options.Output != "build/AppIcon.icns" {
		t.Errorf("Output = %q, want build/AppIcon.icns", cfg.Options.Output)
	}
	if cfg.Options.Staging != "/tmp/icons.iconset" {
		t.Errorf("Staging = %q", cfg.Options.Staging)
	}
	if !cfg.Options.KeepStaging {
		t.Error("KeepStaging = false, want true")
	}
	if !cfg.Options.Native {
		t.Error("Native = false, want true")
	}
	if cfg.Options.HistoryBackend != "file" {
		t.Errorf("HistoryBackend = %q, want file", cfg.Options.HistoryBackend)
	}
	if !cfg.Options.Log {
		t.Error("Log = false, want true (default)")
	}
}

func TestUnmarshalLogFalse(t *testing.T) {
	data := []byte(`{"config": {"log": false}}`)

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if cfg.Options.Log {
		t.Error("Log = true, want false")
	}
}

func TestStagingDir(t *testing.T) {
	cases := []struct {
		opts Options
		want string
	}{
		{Options{Output: "AppIcon.icns"}, "AppIcon.iconset"},
		{Options{Output: "build/out.icns"}, "build/out.iconset"},
		{Options{Output: "noext"}, "noext.iconset"},
		{Options{Output: "AppIcon.icns", Staging: "/tmp/work"}, "/tmp/work"},
	}
	for _, c := range cases {
		if got := c.opts.StagingDir(); got != c.want {
			t.Errorf("StagingDir(%+v) = %q, want %q", c.opts, got, c.want)
		}
	}
}

func TestLoadExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mkicns-config.json")
	data := []byte(`{"config": {"source": "logo.png", "output": "Custom.icns"}}`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Options.Source != "logo.png" {
		t.Errorf("Source = %q, want logo.png", cfg.Options.Source)
	}
	if cfg.Options.Output != "Custom.icns" {
		t.Errorf("Output = %q, want Custom.icns", cfg.Options.Output)
	}
}

func TestLoadMissingExplicitPath(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mkicns-config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Options.Output != DefaultOutput {
		t.Errorf("Output = %q, want %q", cfg.Options.Output, DefaultOutput)
	}
	if !cfg.Options.Log {
		t.Error("Log = false, want true")
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mkicns-config.json")
	data := []byte(`{"config": {"output": "FromFile.icns", "log": true}}`)
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MKICNS_OUTPUT", "FromEnv.icns")
	t.Setenv("MKICNS_LOG", "false")
	t.Setenv("MKICNS_KEEP_STAGING", "true")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Options.Output != "FromEnv.icns" {
		t.Errorf("Output = %q, want FromEnv.icns", cfg.Options.Output)
	}
	if cfg.Options.Log {
		t.Error("Log = true, want false (env override)")
	}
	if !cfg.Options.KeepStaging {
		t.Error("KeepStaging = false, want true (env override)")
	}
}

func TestFindPathExplicit(t *testing.T) {
	if got := FindPath("/some/explicit.json"); got != "/some/explicit.json" {
		t.Errorf("FindPath = %q, want the explicit path", got)
	}
}
