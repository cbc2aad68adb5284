// Benchcompress - Compression Benchmarks for Scientific Array Data
// Copyright 2026 Benchcompress contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/magland/benchcompress

// Package datasets provides the built-in synthetic dataset components.
//
// Generators are deterministic per (name, version): a fixed PCG seed is
// part of each definition, so the same version always produces the same
// array on every machine. That determinism is what makes benchmark
// results shareable through the remote cache.
package datasets

import (
	"context"
	"math"
	"math/rand/v2"

	"github.com/magland/benchcompress/internal/array"
	"github.com/magland/benchcompress/internal/registry"
)

// dataset implements registry.Dataset over a generator function.
type dataset struct {
	name        string
	version     string
	description string
	tags        []string
	shape       []int
	dtype       array.Dtype
	generate    func() *array.Array
}

func (d *dataset) Name() string        { return d.name }
func (d *dataset) Version() string     { return d.version }
func (d *dataset) Description() string { return d.description }
func (d *dataset) Tags() []string      { return d.tags }

func (d *dataset) Info() registry.DatasetInfo {
	return registry.DatasetInfo{
		Name:  d.name,
		Shape: d.shape,
		Dtype: d.dtype,
		Tags:  d.tags,
	}
}

func (d *dataset) Generate(ctx context.Context) (*array.Array, error) {
	return d.generate(), nil
}

// Builtin returns the standard dataset manifest in its canonical
// registration order.
func Builtin() []registry.Dataset {
	return []registry.Dataset{
		gaussian("gaussian-1", 1, 1_000_000, 0),
		gaussian("gaussian-2", 2, 1_000_000, 0),
		gaussian("gaussian-3", 3, 1_000_000, 0),
		gaussian("gaussian-5", 5, 1_000_000, 0),
		gaussian("gaussian-8", 8, 1_000_000, 0),
		ephysSample("ephys_sample", 10_000, 32, 42),
		ramp("ramp-int16", 500_000, 3),
		bernoulli("bernoulli-0.1", 1_000_000, 0.1, 9),
	}
}

// gaussian produces rounded normal samples as int16, the classic
// electrophysiology noise model.
func gaussian(name string, stddev float64, n int, seed uint64) registry.Dataset {
	return &dataset{
		name:        name,
		version:     "1",
		description: "Rounded Gaussian integers",
		tags:        []string{},
		shape:       []int{n},
		dtype:       array.Int16,
		generate: func() *array.Array {
			rng := rand.New(rand.NewPCG(seed, seed+1))
			vals := make([]int16, n)
			for i := range vals {
				vals[i] = int16(math.Round(rng.NormFloat64() * stddev))
			}
			return array.FromInt16(vals)
		},
	}
}

// ephysSample mimics a multi-channel extracellular recording: smooth
// per-channel drift plus noise, stored as float32 [samples, channels].
func ephysSample(name string, samples, channels int, seed uint64) registry.Dataset {
	return &dataset{
		name:        name,
		version:     "2",
		description: "Synthetic multi-channel recording with drift and noise",
		tags:        []string{},
		shape:       []int{samples, channels},
		dtype:       array.Float32,
		generate: func() *array.Array {
			rng := rand.New(rand.NewPCG(seed, seed+1))
			vals := make([]float32, samples*channels)
			drift := make([]float64, channels)
			for i := 0; i < samples; i++ {
				for c := 0; c < channels; c++ {
					drift[c] += rng.NormFloat64() * 0.05
					vals[i*channels+c] = float32(drift[c] + rng.NormFloat64())
				}
			}
			return array.FromFloat32(vals, []int{samples, channels})
		},
	}
}

// ramp produces a monotonic staircase, the favorable case for delta
// encoding. Tagged continuous so delta variants resolve against it.
func ramp(name string, n int, step int16) registry.Dataset {
	return &dataset{
		name:        name,
		version:     "1",
		description: "Monotonic int16 staircase",
		tags:        []string{"continuous"},
		shape:       []int{n},
		dtype:       array.Int16,
		generate: func() *array.Array {
			vals := make([]int16, n)
			var v int16
			for i := range vals {
				vals[i] = v
				v += step
			}
			return array.FromInt16(vals)
		},
	}
}

// bernoulli produces sparse uint8 events at probability p.
func bernoulli(name string, n int, p float64, seed uint64) registry.Dataset {
	return &dataset{
		name:        name,
		version:     "1",
		description: "Sparse binary events",
		tags:        []string{},
		shape:       []int{n},
		dtype:       array.Uint8,
		generate: func() *array.Array {
			rng := rand.New(rand.NewPCG(seed, seed+1))
			vals := make([]byte, n)
			for i := range vals {
				if rng.Float64() < p {
					vals[i] = 1
				}
			}
			return array.FromUint8(vals)
		},
	}
}
