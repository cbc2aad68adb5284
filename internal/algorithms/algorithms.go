// Benchcompress - Compression Benchmarks for Scientific Array Data
// Copyright 2026 Benchcompress contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/magland/benchcompress

// Package algorithms provides the built-in compression components.
//
// Each codec is registered at a fixed name and version; bump the
// version on any behavior change, since cached results are keyed on it.
// Delta variants difference integer samples before compression, which
// helps continuous signals (recordings, ramps) and requires the dataset
// tag "continuous".
package algorithms

import (
	"context"

	"github.com/magland/benchcompress/internal/array"
	"github.com/magland/benchcompress/internal/registry"
	"github.com/magland/benchcompress/internal/verify"
)

// encodeFunc compresses a raw little-endian buffer.
type encodeFunc func(src []byte) ([]byte, error)

// decodeFunc decompresses back to the raw buffer.
type decodeFunc func(src []byte) ([]byte, error)

// codec adapts a byte-oriented compressor to registry.Algorithm.
// Lossless by construction: Tolerance is always nil. If delta is set,
// the integer samples are differenced before compression and cumulative-
// summed after decompression.
type codec struct {
	name        string
	version     string
	description string
	tags        []string
	delta       bool
	encode      encodeFunc
	decode      decodeFunc
}

func (c *codec) Name() string                 { return c.name }
func (c *codec) Version() string              { return c.version }
func (c *codec) Description() string          { return c.description }
func (c *codec) Tags() []string               { return c.tags }
func (c *codec) Tolerance() *verify.Tolerance { return nil }

// Compatible implements the tag rule: delta encoding only applies to
// 1-D continuous integer data; plain byte codecs take anything.
func (c *codec) Compatible(info registry.DatasetInfo) bool {
	if !c.delta {
		return true
	}
	return info.HasTag("continuous") && array.IsInteger(info.Dtype) && len(info.Shape) == 1
}

func (c *codec) Encode(ctx context.Context, data *array.Array) ([]byte, error) {
	src := data.Data
	if c.delta {
		var err error
		src, err = deltaEncode(data)
		if err != nil {
			return nil, err
		}
	}
	return c.encode(src)
}

func (c *codec) Decode(ctx context.Context, encoded []byte, dtype array.Dtype, shape []int) (*array.Array, error) {
	raw, err := c.decode(encoded)
	if err != nil {
		return nil, err
	}
	if c.delta {
		raw, err = deltaDecode(raw, dtype)
		if err != nil {
			return nil, err
		}
	}
	return array.New(dtype, shape, raw)
}

// Builtin returns the standard algorithm manifest in its canonical
// registration order.
func Builtin() []registry.Algorithm {
	return []registry.Algorithm{
		newZstd("zstd-4", 4, false),
		newZstd("zstd-7", 7, false),
		newZstd("zstd-7-delta", 7, true),
		newZlib("zlib-6", 6, false),
		newZlib("zlib-6-delta", 6, true),
		newFlate("flate-9", 9),
		newLZ4("lz4"),
		newBrotli("brotli-6", 6),
		newS2("s2"),
	}
}
