// Benchcompress - Compression Benchmarks for Scientific Array Data
// Copyright 2026 Benchcompress contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/magland/benchcompress

// Package engine executes one algorithm against one dataset under an
// isolated call boundary, measuring encode and decode timing.
//
// Each operation runs on its own goroutine with panic recovery, so a
// crash inside an algorithm's native code surfaces as a per-pair
// failure instead of aborting sibling executions. A per-pair timeout
// bounds worst-case runtime.
//
// Timing policy: trials repeat until their total elapsed time reaches
// MinTrialWindow (or MaxTrials), and the reported time is the median.
// This policy is held constant across a comparison set; changing it
// requires a system version bump.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/magland/benchcompress/internal/array"
	"github.com/magland/benchcompress/internal/registry"
)

// ErrorKind classifies an execution failure.
type ErrorKind string

const (
	// KindTimeout means the pair exceeded its configured timeout.
	KindTimeout ErrorKind = "timeout"
	// KindCrash means the algorithm panicked.
	KindCrash ErrorKind = "crash"
	// KindInvalidOutput means the algorithm returned an error or
	// produced an unusable payload.
	KindInvalidOutput ErrorKind = "invalid_output"
)

// ExecutionError is a per-pair failure. It is logged and the pair is
// marked failed; it never propagates past the worker boundary.
type ExecutionError struct {
	Kind ErrorKind
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution failed (%s): %v", e.Kind, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Outcome is a successful execution: the compressed payload, the
// decoded array awaiting verification, and the timing measurements.
type Outcome struct {
	Encoded []byte
	Decoded *array.Array

	// Median wall-clock seconds per operation.
	EncodeTime float64
	DecodeTime float64

	EncodeMBPerSec float64
	DecodeMBPerSec float64

	EncodeTrials int
	DecodeTrials int
}

// Options configures the engine. The zero value is not usable; use
// DefaultOptions as a base.
type Options struct {
	// PairTimeout bounds one full encode+decode measurement.
	PairTimeout time.Duration

	// MinTrialWindow is the minimum total time spent repeating trials
	// before the median is taken.
	MinTrialWindow time.Duration

	// MaxTrials caps repetition for slow codecs. At least one trial
	// always runs.
	MaxTrials int
}

// DefaultOptions returns the standard measurement policy.
func DefaultOptions() Options {
	return Options{
		PairTimeout:    5 * time.Minute,
		MinTrialWindow: time.Second,
		MaxTrials:      100,
	}
}

// Engine runs benchmark executions. Safe for concurrent use.
type Engine struct {
	opts Options
}

// New creates an Engine with the given options.
func New(opts Options) *Engine {
	if opts.MaxTrials < 1 {
		opts.MaxTrials = 1
	}
	return &Engine{opts: opts}
}

// Run executes alg against data and returns the measured outcome. On
// failure the returned error is an *ExecutionError classifying what
// went wrong; the pair must not be cached.
func (e *Engine) Run(ctx context.Context, alg registry.Algorithm, data *array.Array) (*Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, e.opts.PairTimeout)
	defer cancel()

	sizeMB := float64(data.SizeBytes()) / (1024 * 1024)
	out := &Outcome{}

	// Encode measurement plus one final encode for the payload.
	err := e.isolate(ctx, func() error {
		times, err := e.timedTrials(ctx, func() error {
			_, err := alg.Encode(ctx, data)
			return err
		})
		if err != nil {
			return err
		}
		encoded, err := alg.Encode(ctx, data)
		if err != nil {
			return &ExecutionError{Kind: KindInvalidOutput, Err: err}
		}
		if len(encoded) == 0 {
			return &ExecutionError{Kind: KindInvalidOutput, Err: errors.New("encoder produced empty payload")}
		}
		out.Encoded = encoded
		out.EncodeTrials = len(times)
		out.EncodeTime = median(times)
		out.EncodeMBPerSec = throughput(sizeMB, out.EncodeTime)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Decode measurement plus one final decode for verification.
	err = e.isolate(ctx, func() error {
		times, err := e.timedTrials(ctx, func() error {
			_, err := alg.Decode(ctx, out.Encoded, data.Dtype, data.Shape)
			return err
		})
		if err != nil {
			return err
		}
		decoded, err := alg.Decode(ctx, out.Encoded, data.Dtype, data.Shape)
		if err != nil {
			return &ExecutionError{Kind: KindInvalidOutput, Err: err}
		}
		if decoded == nil {
			return &ExecutionError{Kind: KindInvalidOutput, Err: errors.New("decoder returned nil array")}
		}
		out.Decoded = decoded
		out.DecodeTrials = len(times)
		out.DecodeTime = median(times)
		out.DecodeMBPerSec = throughput(sizeMB, out.DecodeTime)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return out, nil
}

// isolate runs fn on its own goroutine, converting panics to Crash
// errors and context expiry to Timeout. The goroutine is abandoned on
// timeout; it cannot be forcibly killed, but its failure can no longer
// affect the run.
func (e *Engine) isolate(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- &ExecutionError{Kind: KindCrash, Err: fmt.Errorf("panic: %v", r)}
			}
		}()
		done <- fn()
	}()

	select {
	case err := <-done:
		var execErr *ExecutionError
		if err == nil || errors.As(err, &execErr) {
			return err
		}
		return &ExecutionError{Kind: KindInvalidOutput, Err: err}
	case <-ctx.Done():
		return &ExecutionError{Kind: KindTimeout, Err: ctx.Err()}
	}
}

// timedTrials repeats op until the accumulated wall-clock time reaches
// MinTrialWindow or MaxTrials trials have run, returning the individual
// trial durations in seconds.
func (e *Engine) timedTrials(ctx context.Context, op func() error) ([]float64, error) {
	var times []float64
	var total time.Duration
	for len(times) < e.opts.MaxTrials {
		if ctx.Err() != nil {
			return nil, &ExecutionError{Kind: KindTimeout, Err: ctx.Err()}
		}
		start := time.Now()
		if err := op(); err != nil {
			return nil, &ExecutionError{Kind: KindInvalidOutput, Err: err}
		}
		elapsed := time.Since(start)
		times = append(times, elapsed.Seconds())
		total += elapsed
		if total >= e.opts.MinTrialWindow {
			break
		}
	}
	return times, nil
}

// throughput converts a measured duration to MB/s. The duration is
// floored at one nanosecond so a sub-resolution median can never put
// +Inf into a stored result.
func throughput(sizeMB, seconds float64) float64 {
	const floor = 1e-9
	if seconds < floor {
		seconds = floor
	}
	return sizeMB / seconds
}

// median returns the median of vals. vals must be non-empty.
func median(vals []float64) float64 {
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
