// Benchcompress - Compression Benchmarks for Scientific Array Data
// Copyright 2026 Benchcompress contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/magland/benchcompress

package algorithms

import (
	"bytes"
	"fmt"
	"io"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

func newZstd(name string, level int, delta bool) *codec {
	return &codec{
		name:        name,
		version:     "1",
		description: fmt.Sprintf("Zstandard level %d", level),
		tags:        tagsFor(delta),
		delta:       delta,
		encode: func(src []byte) ([]byte, error) {
			enc, err := zstd.NewWriter(nil,
				zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
			if err != nil {
				return nil, fmt.Errorf("init zstd encoder: %w", err)
			}
			defer enc.Close()
			return enc.EncodeAll(src, nil), nil
		},
		decode: func(src []byte) ([]byte, error) {
			dec, err := zstd.NewReader(nil)
			if err != nil {
				return nil, fmt.Errorf("init zstd decoder: %w", err)
			}
			defer dec.Close()
			return dec.DecodeAll(src, nil)
		},
	}
}

func newZlib(name string, level int, delta bool) *codec {
	return &codec{
		name:        name,
		version:     "1",
		description: fmt.Sprintf("zlib level %d", level),
		tags:        tagsFor(delta),
		delta:       delta,
		encode: func(src []byte) ([]byte, error) {
			var buf bytes.Buffer
			w, err := zlib.NewWriterLevel(&buf, level)
			if err != nil {
				return nil, fmt.Errorf("init zlib writer: %w", err)
			}
			if _, err := w.Write(src); err != nil {
				return nil, err
			}
			if err := w.Close(); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		},
		decode: func(src []byte) ([]byte, error) {
			r, err := zlib.NewReader(bytes.NewReader(src))
			if err != nil {
				return nil, fmt.Errorf("init zlib reader: %w", err)
			}
			defer r.Close()
			return io.ReadAll(r)
		},
	}
}

func newFlate(name string, level int) *codec {
	return &codec{
		name:        name,
		version:     "1",
		description: fmt.Sprintf("DEFLATE level %d", level),
		tags:        []string{},
		encode: func(src []byte) ([]byte, error) {
			var buf bytes.Buffer
			w, err := flate.NewWriter(&buf, level)
			if err != nil {
				return nil, fmt.Errorf("init flate writer: %w", err)
			}
			if _, err := w.Write(src); err != nil {
				return nil, err
			}
			if err := w.Close(); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		},
		decode: func(src []byte) ([]byte, error) {
			r := flate.NewReader(bytes.NewReader(src))
			defer r.Close()
			return io.ReadAll(r)
		},
	}
}

func newLZ4(name string) *codec {
	return &codec{
		name:        name,
		version:     "1",
		description: "LZ4 frame format, default level",
		tags:        []string{},
		encode: func(src []byte) ([]byte, error) {
			var buf bytes.Buffer
			w := lz4.NewWriter(&buf)
			if _, err := w.Write(src); err != nil {
				return nil, err
			}
			if err := w.Close(); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		},
		decode: func(src []byte) ([]byte, error) {
			return io.ReadAll(lz4.NewReader(bytes.NewReader(src)))
		},
	}
}

func newBrotli(name string, quality int) *codec {
	return &codec{
		name:        name,
		version:     "1",
		description: fmt.Sprintf("Brotli quality %d", quality),
		tags:        []string{},
		encode: func(src []byte) ([]byte, error) {
			var buf bytes.Buffer
			w := brotli.NewWriterLevel(&buf, quality)
			if _, err := w.Write(src); err != nil {
				return nil, err
			}
			if err := w.Close(); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		},
		decode: func(src []byte) ([]byte, error) {
			return io.ReadAll(brotli.NewReader(bytes.NewReader(src)))
		},
	}
}

func newS2(name string) *codec {
	return &codec{
		name:        name,
		version:     "1",
		description: "S2 (Snappy-compatible) block format",
		tags:        []string{},
		encode: func(src []byte) ([]byte, error) {
			return s2.Encode(nil, src), nil
		},
		decode: func(src []byte) ([]byte, error) {
			return s2.Decode(nil, src)
		},
	}
}

func tagsFor(delta bool) []string {
	if delta {
		return []string{"delta_encoding"}
	}
	return []string{}
}
