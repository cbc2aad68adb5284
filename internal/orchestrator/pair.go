// Benchcompress - Compression Benchmarks for Scientific Array Data
// Copyright 2026 Benchcompress contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/magland/benchcompress

package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/magland/benchcompress/internal/array"
	"github.com/magland/benchcompress/internal/cache"
	"github.com/magland/benchcompress/internal/engine"
	"github.com/magland/benchcompress/internal/logging"
	"github.com/magland/benchcompress/internal/metrics"
	"github.com/magland/benchcompress/internal/registry"
	"github.com/magland/benchcompress/internal/results"
	"github.com/magland/benchcompress/internal/verify"
)

// processPair walks one key through the state machine. All failures
// stay inside this function: they are logged, recorded on the store,
// and counted, never propagated past the worker boundary.
func (o *Orchestrator) processPair(ctx context.Context, pair registry.Pair) {
	key := cache.Key{
		Dataset:          pair.Dataset.Name(),
		Algorithm:        pair.Algorithm.Name(),
		DatasetVersion:   pair.Dataset.Version(),
		AlgorithmVersion: pair.Algorithm.Version(),
	}
	log := logging.With().
		Str("dataset", key.Dataset).
		Str("algorithm", key.Algorithm).
		Logger()

	o.markCurrent(pair)

	// Pending -> CacheHit | CacheMiss
	if cached, err := o.cache.Get(ctx, key); err != nil {
		log.Error().Err(err).Msg("local cache read failed")
		o.failPair(key, "cache error: "+err.Error())
		return
	} else if cached != nil {
		// CacheHit -> Stored: re-emit without executing.
		if err := o.store.Add(*cached); err != nil {
			log.Error().Err(err).Msg("cached result failed validation")
			o.failPair(key, "invalid cached result: "+err.Error())
			return
		}
		o.progMu.Lock()
		o.cacheHits++
		o.progMu.Unlock()
		log.Debug().Msg("cache hit")
		o.completePair(cached)
		return
	}

	// CacheMiss -> Reserved
	acquired, release, wait := o.reservations.Acquire(key)
	if !acquired {
		// Another worker is executing this key: wait for its terminal
		// transition and re-read instead of re-running.
		select {
		case <-wait:
		case <-ctx.Done():
			o.failPair(key, "cancelled while waiting for concurrent execution")
			return
		}
		cached, err := o.cache.Get(ctx, key)
		if err == nil && cached != nil {
			if addErr := o.store.Add(*cached); addErr == nil {
				o.progMu.Lock()
				o.cacheHits++
				o.progMu.Unlock()
				o.completePair(cached)
				return
			}
		}
		// The winner failed; it already recorded the failure. This
		// waiter still owes a terminal transition for its own dispatch.
		o.failPair(key, "concurrent execution of this key failed")
		return
	}
	defer release()

	// Reserved -> Running
	data, err := o.datasetArray(ctx, pair.Dataset)
	if err != nil {
		log.Error().Err(err).Msg("dataset generation failed")
		o.failPair(key, "dataset generation: "+err.Error())
		return
	}

	o.maybeUploadDataset(ctx, pair.Dataset, data)

	out, err := o.engine.Run(ctx, pair.Algorithm, data)
	if err != nil {
		var execErr *engine.ExecutionError
		if errors.As(err, &execErr) {
			metrics.Executions.WithLabelValues(string(execErr.Kind)).Inc()
		}
		log.Warn().Err(err).Msg("execution failed")
		o.failPair(key, err.Error())
		return
	}

	// Running -> Verified | Failed
	if err := verify.Verify(data, out.Decoded, pair.Algorithm.Tolerance()); err != nil {
		metrics.Executions.WithLabelValues("verification_failed").Inc()
		log.Error().Err(err).Msg("round-trip verification failed")
		o.failPair(key, err.Error())
		return
	}

	// Verified -> Stored
	res := &results.Result{
		Dataset:          key.Dataset,
		Algorithm:        key.Algorithm,
		AlgorithmVersion: key.AlgorithmVersion,
		DatasetVersion:   key.DatasetVersion,
		SystemVersion:    o.opts.SystemVersion,
		CompressionRatio: float64(data.SizeBytes()) / float64(len(out.Encoded)),
		EncodeTime:       out.EncodeTime,
		DecodeTime:       out.DecodeTime,
		EncodeMBPerSec:   out.EncodeMBPerSec,
		DecodeMBPerSec:   out.DecodeMBPerSec,
		OriginalSize:     data.SizeBytes(),
		CompressedSize:   len(out.Encoded),
		ArrayShape:       data.Shape,
		ArrayDtype:       data.Dtype,
		Timestamp:        float64(time.Now().UnixMilli()) / 1000,
	}
	if err := o.store.Add(*res); err != nil {
		log.Error().Err(err).Msg("result rejected by store")
		o.failPair(key, "invalid result: "+err.Error())
		return
	}
	if err := o.cache.Put(ctx, key, res, out.Encoded); err != nil {
		// The result is already stored and served; a local cache write
		// failure only costs a re-execution next run.
		log.Warn().Err(err).Msg("failed to cache verified result")
	}

	metrics.Executions.WithLabelValues("stored").Inc()
	metrics.EncodeSeconds.Observe(out.EncodeTime)
	metrics.DecodeSeconds.Observe(out.DecodeTime)
	o.progMu.Lock()
	o.executed++
	o.progMu.Unlock()

	log.Info().
		Float64("ratio", res.CompressionRatio).
		Float64("encode_mb_per_sec", res.EncodeMBPerSec).
		Float64("decode_mb_per_sec", res.DecodeMBPerSec).
		Int("encode_trials", out.EncodeTrials).
		Msg("benchmark stored")
	o.completePair(res)
}

// failPair records a Failed terminal transition.
func (o *Orchestrator) failPair(key cache.Key, reason string) {
	o.store.AddFailure(key.Dataset, key.Algorithm, reason)
	o.completePair(nil)
}

// maybeUploadDataset pushes the raw array to the remote store once per
// dataset per run, best-effort.
func (o *Orchestrator) maybeUploadDataset(ctx context.Context, ds registry.Dataset, data *array.Array) {
	if !o.opts.UploadDatasets {
		return
	}
	o.uploadedMu.Lock()
	_, already := o.uploaded[ds.Name()]
	if !already {
		o.uploaded[ds.Name()] = struct{}{}
	}
	o.uploadedMu.Unlock()
	if already {
		return
	}
	o.cache.UploadDataset(ctx, ds.Name(), ds.Version(), data.Data)
}
