// Benchcompress - Compression Benchmarks for Scientific Array Data
// Copyright 2026 Benchcompress contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/magland/benchcompress

// Package testinfra provides stub components shared by tests across
// packages: configurable fake algorithms and datasets with execution
// counters for asserting cache and concurrency behavior.
package testinfra

import (
	"context"
	"sync/atomic"

	"github.com/magland/benchcompress/internal/array"
	"github.com/magland/benchcompress/internal/registry"
	"github.com/magland/benchcompress/internal/verify"
)

// FakeAlgorithm is a registry.Algorithm whose behavior is configured per
// test. The zero value of the function fields gives a pass-through codec
// that copies bytes verbatim.
type FakeAlgorithm struct {
	AlgName    string
	AlgVersion string
	AlgTags    []string
	Tol        *verify.Tolerance

	// CompatibleFunc overrides the compatibility predicate. Nil means
	// compatible with everything.
	CompatibleFunc func(registry.DatasetInfo) bool

	// EncodeFunc and DecodeFunc override the codec. Nil means verbatim
	// byte copy (a perfect lossless "compressor" with ratio 1).
	EncodeFunc func(ctx context.Context, data *array.Array) ([]byte, error)
	DecodeFunc func(ctx context.Context, encoded []byte, dtype array.Dtype, shape []int) (*array.Array, error)

	// EncodeCalls counts Encode invocations, for duplicate-execution
	// assertions under concurrency.
	EncodeCalls atomic.Int64
}

func (f *FakeAlgorithm) Name() string        { return f.AlgName }
func (f *FakeAlgorithm) Version() string     { return f.AlgVersion }
func (f *FakeAlgorithm) Description() string { return "test algorithm" }
func (f *FakeAlgorithm) Tags() []string      { return f.AlgTags }

func (f *FakeAlgorithm) Tolerance() *verify.Tolerance { return f.Tol }

func (f *FakeAlgorithm) Compatible(info registry.DatasetInfo) bool {
	if f.CompatibleFunc != nil {
		return f.CompatibleFunc(info)
	}
	return true
}

func (f *FakeAlgorithm) Encode(ctx context.Context, data *array.Array) ([]byte, error) {
	f.EncodeCalls.Add(1)
	if f.EncodeFunc != nil {
		return f.EncodeFunc(ctx, data)
	}
	out := make([]byte, len(data.Data))
	copy(out, data.Data)
	return out, nil
}

func (f *FakeAlgorithm) Decode(ctx context.Context, encoded []byte, dtype array.Dtype, shape []int) (*array.Array, error) {
	if f.DecodeFunc != nil {
		return f.DecodeFunc(ctx, encoded, dtype, shape)
	}
	out := make([]byte, len(encoded))
	copy(out, encoded)
	return array.New(dtype, shape, out)
}

// FakeDataset is a registry.Dataset backed by a fixed array.
type FakeDataset struct {
	DSName    string
	DSVersion string
	DSTags    []string
	Arr       *array.Array

	// GenerateCalls counts Generate invocations.
	GenerateCalls atomic.Int64
}

func (f *FakeDataset) Name() string        { return f.DSName }
func (f *FakeDataset) Version() string     { return f.DSVersion }
func (f *FakeDataset) Description() string { return "test dataset" }
func (f *FakeDataset) Tags() []string      { return f.DSTags }

func (f *FakeDataset) Info() registry.DatasetInfo {
	return registry.DatasetInfo{
		Name:  f.DSName,
		Shape: f.Arr.Shape,
		Dtype: f.Arr.Dtype,
		Tags:  f.DSTags,
	}
}

func (f *FakeDataset) Generate(ctx context.Context) (*array.Array, error) {
	f.GenerateCalls.Add(1)
	return f.Arr, nil
}

// Int16Dataset builds a FakeDataset over packed int16 values.
func Int16Dataset(name, version string, vals []int16, tags ...string) *FakeDataset {
	return &FakeDataset{
		DSName:    name,
		DSVersion: version,
		DSTags:    tags,
		Arr:       array.FromInt16(vals),
	}
}
