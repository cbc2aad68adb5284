// Benchcompress - Compression Benchmarks for Scientific Array Data
// Copyright 2026 Benchcompress contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/magland/benchcompress

package results

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
)

func sampleResult(dataset, algorithm, algVersion string) Result {
	return Result{
		Dataset:          dataset,
		Algorithm:        algorithm,
		AlgorithmVersion: algVersion,
		DatasetVersion:   "1",
		SystemVersion:    "v4",
		CompressionRatio: 2.5,
		EncodeTime:       0.01,
		DecodeTime:       0.005,
		EncodeMBPerSec:   200,
		DecodeMBPerSec:   400,
		OriginalSize:     1000,
		CompressedSize:   400,
		ArrayShape:       []int{500},
		ArrayDtype:       "int16",
		Timestamp:        1700000000,
	}
}

func TestStore_AddAndSnapshot(t *testing.T) {
	s := NewStore(nil, nil)
	if err := s.Add(sampleResult("ds1", "alg1", "1")); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(sampleResult("ds1", "alg2", "1")); err != nil {
		t.Fatal(err)
	}

	got := s.Results()
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	if got[0].Algorithm != "alg1" || got[1].Algorithm != "alg2" {
		t.Error("results not in insertion order")
	}
}

func TestStore_ReplaceByPair(t *testing.T) {
	s := NewStore(nil, nil)
	if err := s.Add(sampleResult("ds1", "alg1", "1")); err != nil {
		t.Fatal(err)
	}
	updated := sampleResult("ds1", "alg1", "2")
	updated.CompressionRatio = 3.0
	if err := s.Add(updated); err != nil {
		t.Fatal(err)
	}

	got := s.Results()
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1 (replacement)", len(got))
	}
	if got[0].AlgorithmVersion != "2" || got[0].CompressionRatio != 3.0 {
		t.Errorf("stored result not replaced: %+v", got[0])
	}
}

func TestStore_RejectsInvalid(t *testing.T) {
	s := NewStore(nil, nil)

	t.Run("zero_ratio", func(t *testing.T) {
		r := sampleResult("ds1", "alg1", "1")
		r.CompressionRatio = 0
		if err := s.Add(r); err == nil {
			t.Error("expected rejection of non-positive ratio")
		}
	})

	t.Run("missing_version", func(t *testing.T) {
		r := sampleResult("ds1", "alg1", "1")
		r.DatasetVersion = ""
		if err := s.Add(r); err == nil {
			t.Error("expected rejection of missing version")
		}
	})

	if s.Len() != 0 {
		t.Errorf("invalid results were stored: len=%d", s.Len())
	}
}

func TestStore_Failures(t *testing.T) {
	s := NewStore(nil, nil)
	s.AddFailure("ds1", "alg1", "timeout after 5m0s")
	s.AddFailure("ds2", "alg1", "verification failed")

	got := s.Failures()
	if len(got) != 2 {
		t.Fatalf("got %d failures, want 2", len(got))
	}
	if got[0].Reason != "timeout after 5m0s" {
		t.Errorf("unexpected failure reason %q", got[0].Reason)
	}
}

func TestStore_WriteFile(t *testing.T) {
	s := NewStore(
		[]ComponentInfo{{Name: "zstd-4", Version: "1", Tags: []string{}}},
		[]ComponentInfo{{Name: "gaussian-1", Version: "1", Tags: []string{}}},
	)
	if err := s.Add(sampleResult("gaussian-1", "zstd-4", "1")); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "results.json")
	if err := s.WriteFile(path); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("written document is not valid JSON: %v", err)
	}
	if len(doc.Results) != 1 || doc.Results[0].Dataset != "gaussian-1" {
		t.Errorf("unexpected document contents: %+v", doc)
	}
	if len(doc.Algorithms) != 1 || doc.Algorithms[0].Name != "zstd-4" {
		t.Errorf("algorithm info missing from document: %+v", doc.Algorithms)
	}
}

func TestProgress_WriteFile(t *testing.T) {
	p := &Progress{
		RunID:              "run-1",
		CurrentDataset:     "gaussian-1",
		CurrentAlgorithm:   "zstd-4",
		CompletedCount:     3,
		TotalCount:         10,
		ProgressPercentage: 30,
		ElapsedTime:        12.5,
		LastUpdate:         "2026-08-30T12:00:00Z",
		CompletedBenchmarks: []CompletedBenchmark{
			{Dataset: "gaussian-1", Algorithm: "zlib-6", CompressionRatio: 2.1},
		},
	}

	path := filepath.Join(t.TempDir(), "progress.json")
	if err := p.WriteFile(path); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got Progress
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got.CompletedCount != 3 || got.TotalCount != 10 {
		t.Errorf("round-tripped progress mismatch: %+v", got)
	}
}
