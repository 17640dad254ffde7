package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// envOptions mirrors Options for environment overrides. Bool fields are
// pointers so an unset variable is distinguishable from an explicit false.
type envOptions struct {
	Source         string `env:"MKICNS_SOURCE"`
	Output         string `env:"MKICNS_OUTPUT"`
	Staging        string `env:"MKICNS_STAGING"`
	KeepStaging    *bool  `env:"MKICNS_KEEP_STAGING"`
	Native         *bool  `env:"MKICNS_NATIVE"`
	Log            *bool  `env:"MKICNS_LOG"`
	HistoryBackend string `env:"MKICNS_HISTORY_BACKEND"`
}

// applyEnv overlays MKICNS_* environment variables onto opts.
func applyEnv(opts *Options) error {
	var raw envOptions
	if err := env.Parse(&raw); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if raw.Source != "" {
		opts.Source = raw.Source
	}
	if raw.Output != "" {
		opts.Output = raw.Output
	}
	if raw.Staging != "" {
		opts.Staging = raw.Staging
	}
	if raw.KeepStaging != nil {
		opts.KeepStaging = *raw.KeepStaging
	}
	if raw.Native != nil {
		opts.Native = *raw.Native
	}
	if raw.Log != nil {
		opts.Log = *raw.Log
	}
	if raw.HistoryBackend != "" {
		opts.HistoryBackend = raw.HistoryBackend
	}
	return nil
}
