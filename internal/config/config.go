// Benchcompress - Compression Benchmarks for Scientific Array Data
// Copyright 2026 Benchcompress contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/magland/benchcompress

// Package config loads and validates benchcompress configuration via
// Koanf v2 with layered sources (highest priority wins):
//
//  1. Environment variables (BENCHCOMPRESS_ prefix)
//  2. Config file (benchcompress.yaml)
//  3. Built-in defaults
package config

import (
	"errors"
	"fmt"
	"runtime"
	"time"
)

// SystemVersion invalidates every cached result when the measurement
// methodology changes. Bump it whenever timing or verification semantics
// change in a way that makes old numbers incomparable.
const SystemVersion = "v4"

// Config is the root configuration for a benchcompress run.
type Config struct {
	Log    LogConfig    `koanf:"log"`
	Cache  CacheConfig  `koanf:"cache"`
	Engine EngineConfig `koanf:"engine"`
	Run    RunConfig    `koanf:"run"`
	Server ServerConfig `koanf:"server"`
}

// LogConfig controls the global zerolog logger.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// CacheConfig controls the two-tier fingerprint cache.
type CacheConfig struct {
	// Dir is the BadgerDB directory for the local tier.
	Dir string `koanf:"dir"`

	// RemoteURL is the base URL of the shared HTTP blob store. Empty
	// disables the remote tier entirely.
	RemoteURL string `koanf:"remote_url"`

	// RemoteAPIKey authorizes remote uploads. Reads need no key.
	RemoteAPIKey string `koanf:"remote_api_key"`

	// RemoteUser namespaces uploads in the shared store.
	RemoteUser string `koanf:"remote_user"`

	// UploadEnabled gates all remote writes (results and datasets).
	UploadEnabled bool `koanf:"upload_enabled"`

	// UploadRatePerSec bounds best-effort remote uploads so a cold run
	// with hundreds of misses does not hammer the shared store.
	UploadRatePerSec float64 `koanf:"upload_rate_per_sec"`

	// RemoteTimeout bounds a single remote fetch or upload.
	RemoteTimeout time.Duration `koanf:"remote_timeout"`
}

// EngineConfig controls per-pair execution.
type EngineConfig struct {
	// PairTimeout bounds the whole encode+decode measurement for one
	// algorithm/dataset pair. On expiry the pair is marked failed.
	PairTimeout time.Duration `koanf:"pair_timeout"`

	// MinTrialWindow is the minimum total elapsed time over which timing
	// trials are repeated before taking the median.
	MinTrialWindow time.Duration `koanf:"min_trial_window"`

	// MaxTrials caps trial repetition for very slow codecs.
	MaxTrials int `koanf:"max_trials"`
}

// RunConfig controls the orchestrator.
type RunConfig struct {
	// Workers is the benchmark worker pool size. 0 means NumCPU.
	Workers int `koanf:"workers"`

	// ResultsPath is where the results JSON document is written.
	ResultsPath string `koanf:"results_path"`

	// ProgressPath is where the progress snapshot JSON is written for
	// external pollers.
	ProgressPath string `koanf:"progress_path"`

	// ProgressInterval is the republish cadence for the progress
	// snapshot, in addition to per-completion updates.
	ProgressInterval time.Duration `koanf:"progress_interval"`

	// Datasets and Algorithms optionally restrict the run to matching
	// component names. Empty means all.
	Datasets   []string `koanf:"datasets"`
	Algorithms []string `koanf:"algorithms"`
}

// ServerConfig controls the serve-mode HTTP API.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// defaultConfig returns a Config with all defaults applied. These are
// overridden by the config file and then environment variables.
func defaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Cache: CacheConfig{
			Dir:              ".benchmark_cache",
			RemoteURL:        "",
			RemoteAPIKey:     "",
			RemoteUser:       "default",
			UploadEnabled:    false,
			UploadRatePerSec: 4,
			RemoteTimeout:    15 * time.Second,
		},
		Engine: EngineConfig{
			PairTimeout:    5 * time.Minute,
			MinTrialWindow: time.Second,
			MaxTrials:      100,
		},
		Run: RunConfig{
			Workers:          0, // NumCPU
			ResultsPath:      "benchmark_results.json",
			ProgressPath:     "benchmark_progress.json",
			ProgressInterval: 30 * time.Second,
		},
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8380,
			Timeout: 30 * time.Second,
		},
	}
}

// Validation errors.
var (
	ErrInvalidWorkers  = errors.New("run.workers must be >= 0")
	ErrInvalidTimeout  = errors.New("engine.pair_timeout must be positive")
	ErrInvalidTrials   = errors.New("engine.max_trials must be >= 1")
	ErrInvalidCacheDir = errors.New("cache.dir must not be empty")
	ErrInvalidPort     = errors.New("server.port must be in 1..65535")
)

// Validate checks configuration invariants. Configuration errors are
// fatal for the whole run, so Validate is called before any component is
// constructed.
func (c *Config) Validate() error {
	if c.Run.Workers < 0 {
		return ErrInvalidWorkers
	}
	if c.Engine.PairTimeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Engine.MaxTrials < 1 {
		return ErrInvalidTrials
	}
	if c.Engine.MinTrialWindow < 0 {
		return fmt.Errorf("engine.min_trial_window must be >= 0, got %s", c.Engine.MinTrialWindow)
	}
	if c.Cache.Dir == "" {
		return ErrInvalidCacheDir
	}
	if c.Cache.UploadRatePerSec <= 0 {
		return fmt.Errorf("cache.upload_rate_per_sec must be positive, got %g", c.Cache.UploadRatePerSec)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return ErrInvalidPort
	}
	return nil
}

// WorkerCount resolves Run.Workers, treating 0 as NumCPU.
func (c *Config) WorkerCount() int {
	if c.Run.Workers > 0 {
		return c.Run.Workers
	}
	return runtime.NumCPU()
}
