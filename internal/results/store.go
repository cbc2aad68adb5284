// Benchcompress - Compression Benchmarks for Scientific Array Data
// Copyright 2026 Benchcompress contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/magland/benchcompress

package results

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
)

// Store accumulates results for one run. It is safe for concurrent use:
// orchestrator workers add results while the API and progress publisher
// read snapshots.
//
// At most one result is held per (dataset, algorithm) pair; adding a
// result for an existing pair replaces it. Replacement only happens when
// version fields changed upstream, since unchanged versions are cache
// hits that re-emit the identical result.
type Store struct {
	mu      sync.RWMutex
	order   []string
	byKey   map[string]Result
	failed  []Failure
	algInfo []ComponentInfo
	dsInfo  []ComponentInfo
}

// Failure records a pair excluded from the result set, with the reason
// surfaced in the run summary.
type Failure struct {
	Dataset   string `json:"dataset"`
	Algorithm string `json:"algorithm"`
	Reason    string `json:"reason"`
}

// NewStore creates an empty Store carrying the component inventory for
// the results document.
func NewStore(algInfo, dsInfo []ComponentInfo) *Store {
	return &Store{
		byKey:   make(map[string]Result),
		algInfo: algInfo,
		dsInfo:  dsInfo,
	}
}

// NewStoreFromDocument seeds a Store from a previously written results
// document, so serve mode can expose a finished run.
func NewStoreFromDocument(doc *Document) (*Store, error) {
	s := NewStore(doc.Algorithms, doc.Datasets)
	for _, r := range doc.Results {
		if err := s.Add(r); err != nil {
			return nil, fmt.Errorf("result %s/%s: %w", r.Dataset, r.Algorithm, err)
		}
	}
	return s, nil
}

// ReadDocument loads a results document from disk.
func ReadDocument(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read results document: %w", err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse results document %s: %w", path, err)
	}
	return &doc, nil
}

func pairKey(dataset, algorithm string) string {
	return dataset + "\x00" + algorithm
}

// Add inserts or replaces the result for its pair. Unverified or
// inconsistent results are rejected so the store can never serve an
// invariant-violating record.
func (s *Store) Add(r Result) error {
	if err := r.Validate(); err != nil {
		return err
	}
	key := pairKey(r.Dataset, r.Algorithm)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byKey[key]; !exists {
		s.order = append(s.order, key)
	}
	s.byKey[key] = r
	return nil
}

// AddFailure records a failed pair for the run summary.
func (s *Store) AddFailure(dataset, algorithm, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed = append(s.failed, Failure{Dataset: dataset, Algorithm: algorithm, Reason: reason})
}

// Results returns the stored results in insertion order.
func (s *Store) Results() []Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Result, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, s.byKey[key])
	}
	return out
}

// Failures returns the recorded failures in occurrence order.
func (s *Store) Failures() []Failure {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Failure, len(s.failed))
	copy(out, s.failed)
	return out
}

// Len returns the number of stored results.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byKey)
}

// Document assembles the full results document.
func (s *Store) Document() *Document {
	return &Document{
		Results:    s.Results(),
		Algorithms: s.algInfo,
		Datasets:   s.dsInfo,
	}
}

// WriteFile marshals the results document and writes it atomically:
// a temp file in the same directory renamed over the target, so a
// polling consumer never reads a partial document.
func (s *Store) WriteFile(path string) error {
	doc := s.Document()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal results document: %w", err)
	}
	return writeFileAtomic(path, data)
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
