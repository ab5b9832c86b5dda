// Package config defines the fusion configuration and its loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers defaults, an optional YAML file and RBC_* env vars.
// - CLI flags are applied by the caller on top of the loaded Config.
// - External errors are wrapped with this package's sentinels.
package config

import (
	"context"
	"fmt"
	"runtime"
	"strings"

	"github.com/okian/rbcfuse/internal/domain/weight"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log encoding: text or json.
	LogFormat string `koanf:"log_format"`

	// Persistence is the RBC parameter φ, in (0, 1].
	Persistence float64 `koanf:"persistence"`

	// Depth is the number of documents output per topic.
	Depth int `koanf:"depth"`

	// RunID tags every output line.
	RunID string `koanf:"run_id"`

	// Workers bounds run parsing and per-topic extraction concurrency.
	Workers int `koanf:"workers"`

	// MaxRuns caps the number of input run files.
	MaxRuns int `koanf:"max_runs"`

	// MetricsFile, when set, receives a Prometheus textfile dump after fusion.
	MetricsFile string `koanf:"metrics_file"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:    "info",
		LogFormat:   "text",
		Persistence: 0.8,
		Depth:       1000,
		RunID:       "rbc-combine",
		Workers:     runtime.NumCPU(),
		MaxRuns:     32,
	}
}

// Validate reports the first invalid field, wrapped with ErrInvalidConfig.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log_format %q", ErrInvalidConfig, c.LogFormat)
	}
	if err := weight.Validate(c.Persistence); err != nil {
		return fmt.Errorf("%w: persistence %v: %w", ErrInvalidConfig, c.Persistence, err)
	}
	if c.Depth < 1 {
		return fmt.Errorf("%w: depth must be at least 1, got %d", ErrInvalidConfig, c.Depth)
	}
	if c.RunID == "" || strings.ContainsAny(c.RunID, " \t\r\n") {
		return fmt.Errorf("%w: run_id must be a non-empty token, got %q", ErrInvalidConfig, c.RunID)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalidConfig, c.Workers)
	}
	if c.MaxRuns < 2 {
		return fmt.Errorf("%w: max_runs must be at least 2, got %d", ErrInvalidConfig, c.MaxRuns)
	}
	return nil
}
