// Benchcompress - Compression Benchmarks for Scientific Array Data
// Copyright 2026 Benchcompress contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/magland/benchcompress

// Package metrics exposes Prometheus instrumentation for the benchmark
// engine: cache efficiency per tier, execution outcomes, verification
// failures, and codec timing distributions. Served at /metrics in serve
// mode.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CacheHits counts fingerprint cache hits per tier ("local",
	// "remote").
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "benchcompress_cache_hits_total",
			Help: "Total fingerprint cache hits by tier",
		},
		[]string{"tier"},
	)

	// CacheMisses counts lookups that fell through both tiers.
	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "benchcompress_cache_misses_total",
			Help: "Total fingerprint cache misses",
		},
	)

	// RemoteErrors counts degraded remote-tier operations.
	RemoteErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "benchcompress_remote_errors_total",
			Help: "Total remote cache operations that failed and degraded to local-only",
		},
		[]string{"operation"}, // "get", "put", "dataset_put"
	)

	// Executions counts per-pair executions by terminal outcome.
	Executions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "benchcompress_executions_total",
			Help: "Total benchmark executions by outcome",
		},
		[]string{"outcome"}, // "stored", "timeout", "crash", "invalid_output", "verification_failed"
	)

	// EncodeSeconds observes measured (median) encode times.
	EncodeSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "benchcompress_encode_seconds",
			Help:    "Median encode time per executed pair",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 12),
		},
	)

	// DecodeSeconds observes measured (median) decode times.
	DecodeSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "benchcompress_decode_seconds",
			Help:    "Median decode time per executed pair",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 12),
		},
	)

	// RunProgress mirrors the progress snapshot for scrapers that
	// prefer Prometheus over the JSON document.
	RunProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "benchcompress_run_progress_percentage",
			Help: "Current run progress percentage",
		},
	)
)
