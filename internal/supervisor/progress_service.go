// Benchcompress - Compression Benchmarks for Scientific Array Data
// Copyright 2026 Benchcompress contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/magland/benchcompress

package supervisor

import (
	"context"
	"time"

	"github.com/magland/benchcompress/internal/logging"
	"github.com/magland/benchcompress/internal/results"
)

// ProgressWriter periodically snapshots run progress to a JSON file so
// external pollers can follow a run without hitting the HTTP API.
type ProgressWriter struct {
	snapshot func() results.Progress
	path     string
	interval time.Duration
}

// NewProgressWriter builds the service. interval <= 0 defaults to 30s.
func NewProgressWriter(snapshot func() results.Progress, path string, interval time.Duration) *ProgressWriter {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &ProgressWriter{snapshot: snapshot, path: path, interval: interval}
}

// Serve implements suture.Service. A write failure is logged and
// retried on the next tick rather than crashing the service.
func (p *ProgressWriter) Serve(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.write()
			return ctx.Err()
		case <-ticker.C:
			p.write()
		}
	}
}

func (p *ProgressWriter) write() {
	snap := p.snapshot()
	if err := snap.WriteFile(p.path); err != nil {
		logging.Warn().Err(err).Str("path", p.path).Msg("failed to write progress snapshot")
	}
}

func (p *ProgressWriter) String() string { return "progress-writer" }
