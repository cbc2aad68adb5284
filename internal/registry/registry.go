// Benchcompress - Compression Benchmarks for Scientific Array Data
// Copyright 2026 Benchcompress contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/magland/benchcompress

// Package registry holds the fixed, validated collection of algorithm
// and dataset components for a benchmark run.
//
// Components are registered through explicit manifests at startup, never
// discovered by scanning. Registration order is preserved: it defines the
// deterministic pair ordering that makes progress and ETA reporting
// reproducible across runs. A Registry is read-only after construction.
package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/magland/benchcompress/internal/array"
	"github.com/magland/benchcompress/internal/verify"
)

// Load errors. Both are fatal for the whole run: with a broken component
// set there is no safe way to resolve pairs.
var (
	ErrDuplicateComponent = errors.New("duplicate component name")
	ErrMalformedComponent = errors.New("component missing required metadata")
)

// DatasetInfo is the dataset metadata visible to compatibility
// predicates. It never includes the generated data itself.
type DatasetInfo struct {
	Name  string
	Shape []int
	Dtype array.Dtype
	Tags  []string
}

// HasTag reports whether the dataset carries the given tag.
func (d DatasetInfo) HasTag(tag string) bool {
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Algorithm is a versioned compression component. Implementations must
// be safe for concurrent use: the orchestrator may run the same
// algorithm against different datasets in parallel.
//
// Version must be bumped on any behavior change; it is the only cache
// invalidation signal.
type Algorithm interface {
	Name() string
	Version() string
	Description() string
	Tags() []string

	// Compatible reports whether this algorithm should run against the
	// described dataset. Incompatible pairs are skipped, not failed.
	Compatible(info DatasetInfo) bool

	Encode(ctx context.Context, data *array.Array) ([]byte, error)
	Decode(ctx context.Context, encoded []byte, dtype array.Dtype, shape []int) (*array.Array, error)

	// Tolerance returns nil for lossless algorithms. Lossy algorithms
	// return the element-wise bound their round-trip is held to.
	Tolerance() *verify.Tolerance
}

// Dataset is a versioned data component. Generate must be deterministic
// for a given version: the same version always produces the same array.
type Dataset interface {
	Name() string
	Version() string
	Description() string
	Tags() []string

	// Info describes the dataset without generating it.
	Info() DatasetInfo

	Generate(ctx context.Context) (*array.Array, error)
}

// Registry is the validated component collection. Construct with New;
// the zero value is not usable.
type Registry struct {
	algorithms []Algorithm
	datasets   []Dataset
	algByName  map[string]Algorithm
	dsByName   map[string]Dataset
}

// New validates the manifests and builds a Registry. Components with a
// missing name or version are rejected with ErrMalformedComponent, and
// two components of the same kind sharing a name with
// ErrDuplicateComponent.
func New(algorithms []Algorithm, datasets []Dataset) (*Registry, error) {
	r := &Registry{
		algorithms: make([]Algorithm, 0, len(algorithms)),
		datasets:   make([]Dataset, 0, len(datasets)),
		algByName:  make(map[string]Algorithm, len(algorithms)),
		dsByName:   make(map[string]Dataset, len(datasets)),
	}
	for _, alg := range algorithms {
		if alg.Name() == "" || alg.Version() == "" {
			return nil, fmt.Errorf("%w: algorithm %q version %q", ErrMalformedComponent, alg.Name(), alg.Version())
		}
		if _, exists := r.algByName[alg.Name()]; exists {
			return nil, fmt.Errorf("%w: algorithm %q", ErrDuplicateComponent, alg.Name())
		}
		r.algByName[alg.Name()] = alg
		r.algorithms = append(r.algorithms, alg)
	}
	for _, ds := range datasets {
		if ds.Name() == "" || ds.Version() == "" {
			return nil, fmt.Errorf("%w: dataset %q version %q", ErrMalformedComponent, ds.Name(), ds.Version())
		}
		if _, exists := r.dsByName[ds.Name()]; exists {
			return nil, fmt.Errorf("%w: dataset %q", ErrDuplicateComponent, ds.Name())
		}
		r.dsByName[ds.Name()] = ds
		r.datasets = append(r.datasets, ds)
	}
	return r, nil
}

// Algorithms returns the algorithms in registration order.
func (r *Registry) Algorithms() []Algorithm {
	out := make([]Algorithm, len(r.algorithms))
	copy(out, r.algorithms)
	return out
}

// Datasets returns the datasets in registration order.
func (r *Registry) Datasets() []Dataset {
	out := make([]Dataset, len(r.datasets))
	copy(out, r.datasets)
	return out
}

// Algorithm looks up an algorithm by name.
func (r *Registry) Algorithm(name string) (Algorithm, bool) {
	alg, ok := r.algByName[name]
	return alg, ok
}

// Dataset looks up a dataset by name.
func (r *Registry) Dataset(name string) (Dataset, bool) {
	ds, ok := r.dsByName[name]
	return ds, ok
}
