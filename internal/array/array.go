// Benchcompress - Compression Benchmarks for Scientific Array Data
// Copyright 2026 Benchcompress contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/magland/benchcompress

// Package array provides the typed numeric array that flows between
// dataset generators, compression algorithms, and the verifier.
//
// An Array is a dense little-endian buffer plus a dtype and shape, the
// minimal common currency of scientific array formats. Algorithms
// compress the raw buffer; the verifier compares element-wise.
package array

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Dtype identifies the element type of an Array.
type Dtype string

// Supported element types.
const (
	Int16   Dtype = "int16"
	Int32   Dtype = "int32"
	Int64   Dtype = "int64"
	Uint8   Dtype = "uint8"
	Uint16  Dtype = "uint16"
	Float32 Dtype = "float32"
	Float64 Dtype = "float64"
)

var itemSizes = map[Dtype]int{
	Int16:   2,
	Int32:   4,
	Int64:   8,
	Uint8:   1,
	Uint16:  2,
	Float32: 4,
	Float64: 8,
}

// Errors returned by array construction and access.
var (
	ErrUnknownDtype = errors.New("unknown dtype")
	ErrSizeMismatch = errors.New("buffer size does not match shape and dtype")
	ErrEmptyShape   = errors.New("shape must have at least one dimension")
)

// ItemSize returns the byte width of one element of d.
func ItemSize(d Dtype) (int, error) {
	n, ok := itemSizes[d]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownDtype, d)
	}
	return n, nil
}

// IsInteger reports whether d is an integer dtype. Delta-style
// preprocessors only apply to integer data.
func IsInteger(d Dtype) bool {
	switch d {
	case Int16, Int32, Int64, Uint8, Uint16:
		return true
	default:
		return false
	}
}

// Array is a dense numeric array over a little-endian byte buffer.
// Arrays are treated as immutable once constructed.
type Array struct {
	Dtype Dtype
	Shape []int
	Data  []byte
}

// New validates and constructs an Array over data.
func New(dtype Dtype, shape []int, data []byte) (*Array, error) {
	if len(shape) == 0 {
		return nil, ErrEmptyShape
	}
	size, err := ItemSize(dtype)
	if err != nil {
		return nil, err
	}
	n := 1
	for _, dim := range shape {
		if dim < 0 {
			return nil, fmt.Errorf("negative dimension %d in shape %v", dim, shape)
		}
		n *= dim
	}
	if len(data) != n*size {
		return nil, fmt.Errorf("%w: have %d bytes, want %d (%v x %s)",
			ErrSizeMismatch, len(data), n*size, shape, dtype)
	}
	return &Array{Dtype: dtype, Shape: shape, Data: data}, nil
}

// NumElements returns the total element count.
func (a *Array) NumElements() int {
	n := 1
	for _, dim := range a.Shape {
		n *= dim
	}
	return n
}

// SizeBytes returns the raw buffer length.
func (a *Array) SizeBytes() int {
	return len(a.Data)
}

// ShapeEquals reports whether two shapes match exactly.
func (a *Array) ShapeEquals(b *Array) bool {
	if len(a.Shape) != len(b.Shape) {
		return false
	}
	for i := range a.Shape {
		if a.Shape[i] != b.Shape[i] {
			return false
		}
	}
	return true
}

// Float64At returns element i widened to float64, for tolerance-based
// comparison. i indexes the flattened array.
func (a *Array) Float64At(i int) float64 {
	size := itemSizes[a.Dtype]
	off := i * size
	switch a.Dtype {
	case Uint8:
		return float64(a.Data[off])
	case Int16:
		return float64(int16(binary.LittleEndian.Uint16(a.Data[off:])))
	case Uint16:
		return float64(binary.LittleEndian.Uint16(a.Data[off:]))
	case Int32:
		return float64(int32(binary.LittleEndian.Uint32(a.Data[off:])))
	case Int64:
		return float64(int64(binary.LittleEndian.Uint64(a.Data[off:])))
	case Float32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(a.Data[off:])))
	case Float64:
		return math.Float64frombits(binary.LittleEndian.Uint64(a.Data[off:]))
	default:
		panic(fmt.Sprintf("unreachable: dtype %q", a.Dtype))
	}
}

// FromInt16 packs vals into a fresh 1-D int16 Array.
func FromInt16(vals []int16) *Array {
	data := make([]byte, 2*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint16(data[2*i:], uint16(v))
	}
	return &Array{Dtype: Int16, Shape: []int{len(vals)}, Data: data}
}

// FromInt32 packs vals into a fresh 1-D int32 Array.
func FromInt32(vals []int32) *Array {
	data := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(data[4*i:], uint32(v))
	}
	return &Array{Dtype: Int32, Shape: []int{len(vals)}, Data: data}
}

// FromFloat32 packs vals into a float32 Array with the given shape.
// Passing a nil shape produces a 1-D array.
func FromFloat32(vals []float32, shape []int) *Array {
	data := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(data[4*i:], math.Float32bits(v))
	}
	if shape == nil {
		shape = []int{len(vals)}
	}
	return &Array{Dtype: Float32, Shape: shape, Data: data}
}

// FromUint8 wraps vals as a 1-D uint8 Array. The slice is not copied.
func FromUint8(vals []byte) *Array {
	return &Array{Dtype: Uint8, Shape: []int{len(vals)}, Data: vals}
}
