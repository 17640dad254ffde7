package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/Mavwarf/mkicns/internal/paths"
)

// DefaultOutput is the .icns path used when neither config nor flags set one.
const DefaultOutput = "AppIcon.icns"

// DefaultHistoryBackend selects where build runs are recorded.
const DefaultHistoryBackend = "sqlite"

// Options holds global settings parsed from the "config" key.
type Options struct {
	Source         string `json:"source,omitempty"`
	Output         string `json:"output,omitempty"`
	Staging        string `json:"staging,omitempty"`
	KeepStaging    bool   `json:"keep_staging,omitempty"`
	Native         bool   `json:"native,omitempty"`
	Log            bool   `json:"log,omitempty"`
	HistoryBackend string `json:"history_backend,omitempty"`
}

// Config holds the top-level configuration.
type Config struct {
	Options Options `json:"config"`
}

// Default returns the built-in configuration used when no file is found.
func Default() Config {
	var c Config
	c.Options.Output = DefaultOutput
	c.Options.Log = true
	c.Options.HistoryBackend = DefaultHistoryBackend
	return c
}

// UnmarshalJSON sets defaults then decodes the JSON structure.
// Go's json.Unmarshal merges into existing struct fields, so only
// values present in JSON override the defaults.
func (c *Config) UnmarshalJSON(data []byte) error {
	*c = Default()
	type Alias Config
	return json.Unmarshal(data, (*Alias)(c))
}

// StagingDir returns the directory the iconset is staged in: the configured
// one, or the output path with its extension swapped for .iconset.
func (o Options) StagingDir() string {
	if o.Staging != "" {
		return o.Staging
	}
	return strings.TrimSuffix(o.Output, filepath.Ext(o.Output)) + ".iconset"
}

// FindPath returns the config file Load would read: explicitPath if set,
// otherwise the first existing candidate. Empty when no file exists.
func FindPath(explicitPath string) string {
	if explicitPath != "" {
		return explicitPath
	}
	for _, p := range candidates() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func candidates() []string {
	var out []string
	if exe, err := os.Executable(); err == nil {
		out = append(out, filepath.Join(filepath.Dir(exe), paths.ConfigFileName))
	}
	if home, err := os.UserHomeDir(); err == nil {
		if runtime.GOOS == "windows" {
			out = append(out, filepath.Join(home, "AppData", "Roaming", paths.AppDirName, paths.ConfigFileName))
		} else {
			out = append(out, filepath.Join(home, ".config", paths.AppDirName, paths.ConfigFileName))
		}
	}
	return out
}

// Load returns the effective configuration. It tries, in order:
//  1. explicitPath (if non-empty)
//  2. mkicns-config.json next to the running binary
//  3. ~/.config/mkicns/mkicns-config.json
//
// A config file is optional; without one the built-in defaults apply.
// MKICNS_* environment variables overlay whatever was read.
func Load(explicitPath string) (Config, error) {
	cfg := Default()
	if p := FindPath(explicitPath); p != "" {
		var err error
		cfg, err = readConfig(p)
		if err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg.Options); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}
