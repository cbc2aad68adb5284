// Benchcompress - Compression Benchmarks for Scientific Array Data
// Copyright 2026 Benchcompress contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/magland/benchcompress

// Package verify confirms that a decoded array reproduces the original.
//
// Lossless algorithms must round-trip bit-exactly. Algorithms tagged
// lossy declare a Tolerance and are compared element-wise with both
// absolute and relative bounds. A result is never stored unless
// verification succeeds.
package verify

import (
	"bytes"
	"fmt"
	"math"

	"github.com/magland/benchcompress/internal/array"
)

// Tolerance bounds the allowed element-wise deviation for lossy codecs:
// |decoded - original| <= Abs + Rel*|original|.
type Tolerance struct {
	Abs float64
	Rel float64
}

// MismatchError reports a failed verification with enough detail to
// debug the offending codec.
type MismatchError struct {
	Reason        string
	FirstMismatch int
	MaxDeviation  float64
}

func (e *MismatchError) Error() string {
	if e.FirstMismatch < 0 {
		return fmt.Sprintf("verification failed: %s", e.Reason)
	}
	return fmt.Sprintf("verification failed: %s (first mismatch at index %d, max deviation %g)",
		e.Reason, e.FirstMismatch, e.MaxDeviation)
}

// Verify compares decoded against original. A nil tolerance demands
// exact equality: matching dtype, shape, and bytes. With a tolerance,
// dtype and shape must still match and every element must satisfy the
// bound. Returns nil on success and a *MismatchError on failure.
func Verify(original, decoded *array.Array, tol *Tolerance) error {
	if original.Dtype != decoded.Dtype {
		return &MismatchError{
			Reason:        fmt.Sprintf("dtype mismatch: %s vs %s", original.Dtype, decoded.Dtype),
			FirstMismatch: -1,
		}
	}
	if !original.ShapeEquals(decoded) {
		return &MismatchError{
			Reason:        fmt.Sprintf("shape mismatch: %v vs %v", original.Shape, decoded.Shape),
			FirstMismatch: -1,
		}
	}

	if tol == nil {
		return verifyExact(original, decoded)
	}
	return verifyTolerance(original, decoded, tol)
}

func verifyExact(original, decoded *array.Array) error {
	if bytes.Equal(original.Data, decoded.Data) {
		return nil
	}
	// Locate the first differing element for the report.
	first := -1
	maxDev := 0.0
	n := original.NumElements()
	for i := 0; i < n; i++ {
		a, b := original.Float64At(i), decoded.Float64At(i)
		if a != b && !(math.IsNaN(a) && math.IsNaN(b)) {
			if first < 0 {
				first = i
			}
			if dev := math.Abs(a - b); dev > maxDev {
				maxDev = dev
			}
		}
	}
	if first < 0 {
		// Bytes differ but values compare equal (e.g. NaN payloads or
		// signed zeros). Exact mode requires bit equality.
		first = 0
	}
	return &MismatchError{
		Reason:        "decoded array is not bit-exact",
		FirstMismatch: first,
		MaxDeviation:  maxDev,
	}
}

func verifyTolerance(original, decoded *array.Array, tol *Tolerance) error {
	first := -1
	maxDev := 0.0
	n := original.NumElements()
	for i := 0; i < n; i++ {
		a, b := original.Float64At(i), decoded.Float64At(i)
		if math.IsNaN(a) && math.IsNaN(b) {
			continue
		}
		dev := math.Abs(b - a)
		if dev > maxDev {
			maxDev = dev
		}
		if dev > tol.Abs+tol.Rel*math.Abs(a) {
			if first < 0 {
				first = i
			}
		}
	}
	if first < 0 {
		return nil
	}
	return &MismatchError{
		Reason:        fmt.Sprintf("deviation exceeds tolerance (abs=%g rel=%g)", tol.Abs, tol.Rel),
		FirstMismatch: first,
		MaxDeviation:  maxDev,
	}
}
