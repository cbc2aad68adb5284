// Benchcompress - Compression Benchmarks for Scientific Array Data
// Copyright 2026 Benchcompress contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/magland/benchcompress

// Package results accumulates verified benchmark results and exposes
// the JSON documents consumed by the dashboard and status monitors.
package results

import (
	"fmt"

	"github.com/magland/benchcompress/internal/array"
)

// Result is one verified benchmark measurement. Field names and types
// are the persisted wire format served to the dashboard; do not rename
// without bumping the system version.
type Result struct {
	Dataset          string      `json:"dataset"`
	Algorithm        string      `json:"algorithm"`
	AlgorithmVersion string      `json:"algorithm_version"`
	DatasetVersion   string      `json:"dataset_version"`
	SystemVersion    string      `json:"system_version"`
	CompressionRatio float64     `json:"compression_ratio"`
	EncodeTime       float64     `json:"encode_time"`
	DecodeTime       float64     `json:"decode_time"`
	EncodeMBPerSec   float64     `json:"encode_mb_per_sec"`
	DecodeMBPerSec   float64     `json:"decode_mb_per_sec"`
	OriginalSize     int         `json:"original_size"`
	CompressedSize   int         `json:"compressed_size"`
	ArrayShape       []int       `json:"array_shape"`
	ArrayDtype       array.Dtype `json:"array_dtype"`
	Timestamp        float64     `json:"timestamp"`
}

// Validate checks the stored-result invariants: positive sizes and a
// consistent compression ratio.
func (r *Result) Validate() error {
	if r.Dataset == "" || r.Algorithm == "" {
		return fmt.Errorf("result missing component names: dataset=%q algorithm=%q", r.Dataset, r.Algorithm)
	}
	if r.AlgorithmVersion == "" || r.DatasetVersion == "" {
		return fmt.Errorf("result missing versions for %s/%s", r.Dataset, r.Algorithm)
	}
	if r.OriginalSize <= 0 || r.CompressedSize <= 0 {
		return fmt.Errorf("result has non-positive sizes: original=%d compressed=%d", r.OriginalSize, r.CompressedSize)
	}
	if r.CompressionRatio <= 0 {
		return fmt.Errorf("compression ratio must be positive, got %g", r.CompressionRatio)
	}
	return nil
}

// ComponentInfo describes a registered component in the results
// document, so the dashboard can label and link what it plots.
type ComponentInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Version     string   `json:"version"`
	Tags        []string `json:"tags"`
}

// Document is the full results JSON document: every verified result
// plus the component inventory it was produced from.
type Document struct {
	Results    []Result        `json:"results"`
	Algorithms []ComponentInfo `json:"algorithms"`
	Datasets   []ComponentInfo `json:"datasets"`
}
