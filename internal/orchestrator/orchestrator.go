// Benchcompress - Compression Benchmarks for Scientific Array Data
// Copyright 2026 Benchcompress contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/magland/benchcompress

// Package orchestrator drives the benchmark pipeline: for every
// resolved algorithm/dataset pair, consult the fingerprint cache,
// execute on a miss, verify, store, and update run progress.
//
// Per-key state machine:
//
//	Pending -> {CacheHit | CacheMiss}
//	CacheHit -> Stored (cached result re-emitted, no execution)
//	CacheMiss -> Reserved -> Running -> {Verified -> Stored | Failed}
//
// Failed is terminal for the pair and never halts the run. A bounded
// worker pool processes keys in parallel; result emission order is
// unordered but progress counters are monotonic.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/magland/benchcompress/internal/array"
	"github.com/magland/benchcompress/internal/cache"
	"github.com/magland/benchcompress/internal/engine"
	"github.com/magland/benchcompress/internal/logging"
	"github.com/magland/benchcompress/internal/metrics"
	"github.com/magland/benchcompress/internal/registry"
	"github.com/magland/benchcompress/internal/results"
)

// Options configures a run.
type Options struct {
	// Workers bounds the worker pool. Must be >= 1.
	Workers int

	// SystemVersion stamps every stored result.
	SystemVersion string

	// DatasetFilter and AlgorithmFilter restrict the run; empty means
	// everything in the registry.
	DatasetFilter   []string
	AlgorithmFilter []string

	// UploadDatasets pushes raw dataset arrays to the remote store.
	UploadDatasets bool

	// Publish, when set, receives a progress snapshot after every
	// terminal transition. Periodic republishing for pollers is the
	// supervisor's progress writer, fed from Progress().
	Publish func(results.Progress)
}

// Summary reports how a run ended. Aborted distinguishes cancellation
// from a run that completed (possibly with per-pair failures).
type Summary struct {
	RunID      string
	TotalPairs int
	Stored     int
	CacheHits  int
	Executed   int
	Failures   []results.Failure
	Elapsed    time.Duration
	Aborted    bool
}

// Orchestrator coordinates one or more runs over fixed components.
type Orchestrator struct {
	reg    *registry.Registry
	cache  *cache.TwoTier
	engine *engine.Engine
	store  *results.Store
	opts   Options

	// run state, recreated by Run
	reservations *cache.Reservations
	loaders      map[string]*datasetLoader
	loadersMu    sync.Mutex
	uploaded     map[string]struct{} // remote dataset uploads done this run
	uploadedMu   sync.Mutex

	progMu    sync.Mutex
	pubMu     sync.Mutex
	progress  results.Progress
	started   time.Time
	cacheHits int
	executed  int
}

// datasetLoader generates a dataset at most once per run, shared by all
// workers benchmarking pairs on it.
type datasetLoader struct {
	once sync.Once
	arr  *array.Array
	err  error
}

// New creates an Orchestrator.
func New(reg *registry.Registry, c *cache.TwoTier, e *engine.Engine, store *results.Store, opts Options) *Orchestrator {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Orchestrator{
		reg:    reg,
		cache:  c,
		engine: e,
		store:  store,
		opts:   opts,
	}
}

// Run executes the full pipeline and blocks until every resolved pair
// reaches a terminal state or ctx is cancelled. Already-stored results
// remain valid after cancellation.
func (o *Orchestrator) Run(ctx context.Context) (*Summary, error) {
	pairs := o.reg.Resolve(o.opts.DatasetFilter, o.opts.AlgorithmFilter)

	o.reservations = cache.NewReservations()
	o.loaders = make(map[string]*datasetLoader)
	o.uploaded = make(map[string]struct{})
	o.started = time.Now()
	o.progress = results.Progress{
		RunID:               uuid.NewString(),
		TotalCount:          len(pairs),
		CompletedBenchmarks: []results.CompletedBenchmark{},
	}
	o.cacheHits = 0
	o.executed = 0

	logging.Info().
		Str("run_id", o.progress.RunID).
		Int("pairs", len(pairs)).
		Int("workers", o.opts.Workers).
		Msg("starting benchmark run")

	jobs := make(chan registry.Pair)
	var wg sync.WaitGroup
	for i := 0; i < o.opts.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pair := range jobs {
				o.processPair(ctx, pair)
			}
		}()
	}

	aborted := false
dispatch:
	for _, pair := range pairs {
		select {
		case jobs <- pair:
		case <-ctx.Done():
			// Stop dispatching; in-flight executions finish or time out.
			aborted = true
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	o.publishProgress()

	summary := o.buildSummary(len(pairs), aborted)
	logging.Info().
		Str("run_id", summary.RunID).
		Int("stored", summary.Stored).
		Int("cache_hits", summary.CacheHits).
		Int("executed", summary.Executed).
		Int("failures", len(summary.Failures)).
		Bool("aborted", summary.Aborted).
		Dur("elapsed", summary.Elapsed).
		Msg("benchmark run finished")

	if aborted {
		return summary, ctx.Err()
	}
	return summary, nil
}

func (o *Orchestrator) buildSummary(total int, aborted bool) *Summary {
	o.progMu.Lock()
	defer o.progMu.Unlock()
	return &Summary{
		RunID:      o.progress.RunID,
		TotalPairs: total,
		Stored:     o.store.Len(),
		CacheHits:  o.cacheHits,
		Executed:   o.executed,
		Failures:   o.store.Failures(),
		Elapsed:    time.Since(o.started),
		Aborted:    aborted,
	}
}

// Progress returns a read-only snapshot of the live run progress.
func (o *Orchestrator) Progress() results.Progress {
	o.progMu.Lock()
	defer o.progMu.Unlock()
	return o.snapshotLocked()
}

func (o *Orchestrator) snapshotLocked() results.Progress {
	p := o.progress
	p.ElapsedTime = time.Since(o.started).Seconds()
	p.LastUpdate = time.Now().UTC().Format(time.RFC3339)
	if p.TotalCount > 0 {
		p.ProgressPercentage = 100 * float64(p.CompletedCount) / float64(p.TotalCount)
	}
	p.CompletedBenchmarks = make([]results.CompletedBenchmark, len(o.progress.CompletedBenchmarks))
	copy(p.CompletedBenchmarks, o.progress.CompletedBenchmarks)
	return p
}

// publishProgress snapshots and delivers under pubMu so subscribers
// observe completed_count monotonically even with concurrent workers.
func (o *Orchestrator) publishProgress() {
	if o.opts.Publish == nil {
		return
	}
	o.pubMu.Lock()
	defer o.pubMu.Unlock()
	p := o.Progress()
	metrics.RunProgress.Set(p.ProgressPercentage)
	o.opts.Publish(p)
}

// markCurrent records the pair a worker just picked up, for the status
// page's "currently benchmarking" display.
func (o *Orchestrator) markCurrent(pair registry.Pair) {
	o.progMu.Lock()
	o.progress.CurrentDataset = pair.Dataset.Name()
	o.progress.CurrentAlgorithm = pair.Algorithm.Name()
	o.progMu.Unlock()
}

// completePair records a terminal transition. completed_count is
// incremented exactly once per pair, keeping it monotonic and bounded
// by total_count.
func (o *Orchestrator) completePair(stored *results.Result) {
	o.progMu.Lock()
	o.progress.CompletedCount++
	if stored != nil {
		o.progress.CompletedBenchmarks = append(o.progress.CompletedBenchmarks, results.CompletedBenchmark{
			Dataset:          stored.Dataset,
			Algorithm:        stored.Algorithm,
			CompressionRatio: stored.CompressionRatio,
			EncodeTime:       stored.EncodeTime,
			DecodeTime:       stored.DecodeTime,
		})
	}
	o.progMu.Unlock()
	o.publishProgress()
}

// datasetArray generates the dataset at most once per run.
func (o *Orchestrator) datasetArray(ctx context.Context, ds registry.Dataset) (*array.Array, error) {
	o.loadersMu.Lock()
	loader, ok := o.loaders[ds.Name()]
	if !ok {
		loader = &datasetLoader{}
		o.loaders[ds.Name()] = loader
	}
	o.loadersMu.Unlock()

	loader.once.Do(func() {
		loader.arr, loader.err = ds.Generate(ctx)
		if loader.err == nil {
			logging.Debug().
				Str("dataset", ds.Name()).
				Ints("shape", loader.arr.Shape).
				Str("dtype", string(loader.arr.Dtype)).
				Int("bytes", loader.arr.SizeBytes()).
				Msg("generated dataset")
		}
	})
	if loader.err != nil {
		return nil, fmt.Errorf("generate dataset %s: %w", ds.Name(), loader.err)
	}
	return loader.arr, nil
}
