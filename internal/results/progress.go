// Benchcompress - Compression Benchmarks for Scientific Array Data
// Copyright 2026 Benchcompress contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/magland/benchcompress

package results

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
)

// CompletedBenchmark is the abbreviated per-pair record in the progress
// snapshot, kept small because status pages poll it frequently.
type CompletedBenchmark struct {
	Dataset          string  `json:"dataset"`
	Algorithm        string  `json:"algorithm"`
	CompressionRatio float64 `json:"compression_ratio"`
	EncodeTime       float64 `json:"encode_time"`
	DecodeTime       float64 `json:"decode_time"`
}

// Progress is the run-progress snapshot polled by external monitors.
// LastUpdate is ISO-8601; ElapsedTime is seconds.
type Progress struct {
	RunID               string               `json:"run_id"`
	CurrentDataset      string               `json:"current_dataset"`
	CurrentAlgorithm    string               `json:"current_algorithm"`
	CompletedCount      int                  `json:"completed_count"`
	TotalCount          int                  `json:"total_count"`
	ProgressPercentage  float64              `json:"progress_percentage"`
	ElapsedTime         float64              `json:"elapsed_time"`
	LastUpdate          string               `json:"last_update"`
	CompletedBenchmarks []CompletedBenchmark `json:"completed_benchmarks"`
}

// WriteFile writes the snapshot atomically so pollers never observe a
// truncated document.
func (p *Progress) WriteFile(path string) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal progress snapshot: %w", err)
	}
	return writeFileAtomic(path, data)
}

// ReadProgress loads a progress snapshot from disk.
func ReadProgress(path string) (*Progress, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read progress snapshot: %w", err)
	}
	var p Progress
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parse progress snapshot %s: %w", path, err)
	}
	return &p, nil
}
