// Benchcompress - Compression Benchmarks for Scientific Array Data
// Copyright 2026 Benchcompress contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/magland/benchcompress

package algorithms

import (
	"encoding/binary"
	"fmt"

	"github.com/magland/benchcompress/internal/array"
)

// deltaEncode differences consecutive integer samples; the first sample
// is kept verbatim. Wrapping arithmetic makes the transform exactly
// invertible regardless of value range.
func deltaEncode(a *array.Array) ([]byte, error) {
	switch a.Dtype {
	case array.Int16, array.Uint16:
		return delta16(a.Data), nil
	case array.Int32:
		return delta32(a.Data), nil
	case array.Int64:
		return delta64(a.Data), nil
	case array.Uint8:
		return delta8(a.Data), nil
	default:
		return nil, fmt.Errorf("delta encoding does not support dtype %q", a.Dtype)
	}
}

// deltaDecode inverts deltaEncode via cumulative sum.
func deltaDecode(raw []byte, dtype array.Dtype) ([]byte, error) {
	switch dtype {
	case array.Int16, array.Uint16:
		return cumsum16(raw), nil
	case array.Int32:
		return cumsum32(raw), nil
	case array.Int64:
		return cumsum64(raw), nil
	case array.Uint8:
		return cumsum8(raw), nil
	default:
		return nil, fmt.Errorf("delta decoding does not support dtype %q", dtype)
	}
}

func delta8(src []byte) []byte {
	out := make([]byte, len(src))
	var prev byte
	for i, v := range src {
		out[i] = v - prev
		prev = v
	}
	return out
}

func cumsum8(src []byte) []byte {
	out := make([]byte, len(src))
	var acc byte
	for i, v := range src {
		acc += v
		out[i] = acc
	}
	return out
}

func delta16(src []byte) []byte {
	out := make([]byte, len(src))
	var prev uint16
	for i := 0; i+1 < len(src); i += 2 {
		v := binary.LittleEndian.Uint16(src[i:])
		binary.LittleEndian.PutUint16(out[i:], v-prev)
		prev = v
	}
	return out
}

func cumsum16(src []byte) []byte {
	out := make([]byte, len(src))
	var acc uint16
	for i := 0; i+1 < len(src); i += 2 {
		acc += binary.LittleEndian.Uint16(src[i:])
		binary.LittleEndian.PutUint16(out[i:], acc)
	}
	return out
}

func delta32(src []byte) []byte {
	out := make([]byte, len(src))
	var prev uint32
	for i := 0; i+3 < len(src); i += 4 {
		v := binary.LittleEndian.Uint32(src[i:])
		binary.LittleEndian.PutUint32(out[i:], v-prev)
		prev = v
	}
	return out
}

func cumsum32(src []byte) []byte {
	out := make([]byte, len(src))
	var acc uint32
	for i := 0; i+3 < len(src); i += 4 {
		acc += binary.LittleEndian.Uint32(src[i:])
		binary.LittleEndian.PutUint32(out[i:], acc)
	}
	return out
}

func delta64(src []byte) []byte {
	out := make([]byte, len(src))
	var prev uint64
	for i := 0; i+7 < len(src); i += 8 {
		v := binary.LittleEndian.Uint64(src[i:])
		binary.LittleEndian.PutUint64(out[i:], v-prev)
		prev = v
	}
	return out
}

func cumsum64(src []byte) []byte {
	out := make([]byte, len(src))
	var acc uint64
	for i := 0; i+7 < len(src); i += 8 {
		acc += binary.LittleEndian.Uint64(src[i:])
		binary.LittleEndian.PutUint64(out[i:], acc)
	}
	return out
}
