// Benchcompress - Compression Benchmarks for Scientific Array Data
// Copyright 2026 Benchcompress contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/magland/benchcompress

// Package cache is the two-tier fingerprint cache mapping a benchmark
// key to a previously verified result.
//
// The local tier is a BadgerDB store on the machine running the
// benchmarks. The remote tier is a shared HTTP blob store read in
// read-through mode and written best-effort, so distributed CI runs
// share results without ever depending on the remote being up.
//
// A version bump is the only invalidation signal. Lookups are a pure
// function of the key fields plus the system version; no entry ever
// expires by time.
package cache

import (
	"fmt"

	"github.com/magland/benchcompress/internal/results"
)

// Key identifies one cacheable unit of work. Two keys are equal iff all
// four fields match exactly.
type Key struct {
	Dataset          string
	Algorithm        string
	DatasetVersion   string
	AlgorithmVersion string
}

// KeyFor builds the key for a result's identity fields.
func KeyFor(r *results.Result) Key {
	return Key{
		Dataset:          r.Dataset,
		Algorithm:        r.Algorithm,
		DatasetVersion:   r.DatasetVersion,
		AlgorithmVersion: r.AlgorithmVersion,
	}
}

// Matches reports whether a stored result carries exactly this key's
// identity plus the given system version. Every cache hit is revalidated
// with Matches before being served.
func (k Key) Matches(r *results.Result, systemVersion string) bool {
	return r.Dataset == k.Dataset &&
		r.Algorithm == k.Algorithm &&
		r.DatasetVersion == k.DatasetVersion &&
		r.AlgorithmVersion == k.AlgorithmVersion &&
		r.SystemVersion == systemVersion
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s@%s/%s", k.Dataset, k.Algorithm, k.DatasetVersion, k.AlgorithmVersion)
}

// Entry is the stored cache value. The wrapper object mirrors the
// persisted wire format of earlier releases, so local caches written by
// them remain readable.
type Entry struct {
	Result results.Result `json:"result"`
}
