// Benchcompress - Compression Benchmarks for Scientific Array Data
// Copyright 2026 Benchcompress contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/magland/benchcompress

package algorithms

import (
	"bytes"
	"context"
	"math/rand/v2"
	"testing"

	"github.com/magland/benchcompress/internal/array"
	"github.com/magland/benchcompress/internal/registry"
	"github.com/magland/benchcompress/internal/verify"
)

// compressibleInt16 produces a slowly varying signal that every codec
// should shrink.
func compressibleInt16(n int) *array.Array {
	rng := rand.New(rand.NewPCG(7, 11))
	vals := make([]int16, n)
	v := int16(0)
	for i := range vals {
		v += int16(rng.IntN(5) - 2)
		vals[i] = v
	}
	return array.FromInt16(vals)
}

func TestBuiltin_RoundTrip(t *testing.T) {
	data := compressibleInt16(4096)
	ctx := context.Background()

	for _, alg := range Builtin() {
		t.Run(alg.Name(), func(t *testing.T) {
			encoded, err := alg.Encode(ctx, data)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			if len(encoded) == 0 {
				t.Fatal("empty payload")
			}
			decoded, err := alg.Decode(ctx, encoded, data.Dtype, data.Shape)
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if err := verify.Verify(data, decoded, alg.Tolerance()); err != nil {
				t.Errorf("round-trip verification failed: %v", err)
			}
		})
	}
}

func TestBuiltin_Compresses(t *testing.T) {
	data := compressibleInt16(16384)
	ctx := context.Background()

	for _, name := range []string{"zstd-4", "zlib-6", "brotli-6"} {
		alg := findAlg(t, name)
		encoded, err := alg.Encode(ctx, data)
		if err != nil {
			t.Fatal(err)
		}
		if len(encoded) >= data.SizeBytes() {
			t.Errorf("%s: no compression on compressible data (%d >= %d)",
				name, len(encoded), data.SizeBytes())
		}
	}
}

func TestBuiltin_UniqueNames(t *testing.T) {
	seen := map[string]bool{}
	for _, alg := range Builtin() {
		if seen[alg.Name()] {
			t.Errorf("duplicate algorithm name %q", alg.Name())
		}
		seen[alg.Name()] = true
		if alg.Version() == "" {
			t.Errorf("algorithm %q missing version", alg.Name())
		}
	}
}

func TestDeltaCompatibility(t *testing.T) {
	delta := findAlg(t, "zstd-7-delta")

	continuous := registry.DatasetInfo{
		Name: "ramp", Shape: []int{100}, Dtype: array.Int16, Tags: []string{"continuous"},
	}
	if !delta.Compatible(continuous) {
		t.Error("delta codec should accept continuous int16 data")
	}

	noisy := continuous
	noisy.Tags = nil
	if delta.Compatible(noisy) {
		t.Error("delta codec should reject non-continuous data")
	}

	floats := continuous
	floats.Dtype = array.Float32
	if delta.Compatible(floats) {
		t.Error("delta codec should reject float data")
	}

	multi := continuous
	multi.Shape = []int{10, 10}
	if delta.Compatible(multi) {
		t.Error("delta codec should reject multi-dimensional data")
	}

	plain := findAlg(t, "zstd-4")
	if !plain.Compatible(floats) || !plain.Compatible(multi) {
		t.Error("plain codec should accept any dataset")
	}
}

func TestDeltaTransform_Invertible(t *testing.T) {
	t.Run("int16_with_wraparound", func(t *testing.T) {
		a := array.FromInt16([]int16{32767, -32768, 0, 5, -5, 12345})
		enc, err := deltaEncode(a)
		if err != nil {
			t.Fatal(err)
		}
		dec, err := deltaDecode(enc, array.Int16)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(dec, a.Data) {
			t.Error("delta int16 round-trip not exact")
		}
	})

	t.Run("int32", func(t *testing.T) {
		a := array.FromInt32([]int32{0, 1, -1, 2147483647, -2147483648})
		enc, err := deltaEncode(a)
		if err != nil {
			t.Fatal(err)
		}
		dec, err := deltaDecode(enc, array.Int32)
		if err != nil {
			t.Fatal(err)
		}
		if !bytes.Equal(dec, a.Data) {
			t.Error("delta int32 round-trip not exact")
		}
	})

	t.Run("rejects_floats", func(t *testing.T) {
		a := array.FromFloat32([]float32{1, 2}, nil)
		if _, err := deltaEncode(a); err == nil {
			t.Error("expected error for float dtype")
		}
	})
}

func findAlg(t *testing.T, name string) registry.Algorithm {
	t.Helper()
	for _, alg := range Builtin() {
		if alg.Name() == name {
			return alg
		}
	}
	t.Fatalf("algorithm %q not in manifest", name)
	return nil
}
