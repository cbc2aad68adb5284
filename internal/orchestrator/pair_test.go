// Benchcompress - Compression Benchmarks for Scientific Array Data
// Copyright 2026 Benchcompress contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/magland/benchcompress

package orchestrator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/magland/benchcompress/internal/array"
	"github.com/magland/benchcompress/internal/cache"
	"github.com/magland/benchcompress/internal/engine"
	"github.com/magland/benchcompress/internal/registry"
	"github.com/magland/benchcompress/internal/results"
	"github.com/magland/benchcompress/internal/testinfra"
)

// TestProcessPair_DuplicateKeySingleExecution drives the same key
// through processPair from two goroutines at once. The loser must
// observe the reservation, wait for the winner, and re-read the cache
// instead of executing a second time.
func TestProcessPair_DuplicateKeySingleExecution(t *testing.T) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	tiered := cache.NewTwoTier(cache.NewLocalWithDB(db, "v4"), nil, false)

	alg := &testinfra.FakeAlgorithm{
		AlgName:    "slow",
		AlgVersion: "1",
		EncodeFunc: func(_ context.Context, data *array.Array) ([]byte, error) {
			time.Sleep(50 * time.Millisecond)
			out := make([]byte, len(data.Data))
			copy(out, data.Data)
			return out, nil
		},
	}
	ds := testinfra.Int16Dataset("ds1", "1", []int16{1, 2, 3})
	reg, err := registry.New([]registry.Algorithm{alg}, []registry.Dataset{ds})
	if err != nil {
		t.Fatal(err)
	}
	store := results.NewStore(nil, nil)
	eng := engine.New(engine.Options{
		PairTimeout:    10 * time.Second,
		MinTrialWindow: 0,
		MaxTrials:      1,
	})

	o := New(reg, tiered, eng, store, Options{Workers: 2, SystemVersion: "v4"})
	o.reservations = cache.NewReservations()
	o.loaders = make(map[string]*datasetLoader)
	o.uploaded = make(map[string]struct{})
	o.started = time.Now()
	o.progress = results.Progress{TotalCount: 2}

	pair := registry.Pair{Algorithm: alg, Dataset: ds}
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(delay time.Duration) {
			defer wg.Done()
			time.Sleep(delay)
			o.processPair(context.Background(), pair)
		}(time.Duration(i) * 10 * time.Millisecond)
	}
	wg.Wait()

	// One execution is two encode calls: a timing trial plus the final
	// payload encode.
	if calls := alg.EncodeCalls.Load(); calls != 2 {
		t.Errorf("encode calls = %d, want 2 (exactly one execution)", calls)
	}
	if store.Len() != 1 {
		t.Errorf("store holds %d results, want 1", store.Len())
	}
	if len(store.Failures()) != 0 {
		t.Errorf("failures = %+v, want none", store.Failures())
	}
	if got := o.Progress().CompletedCount; got != 2 {
		t.Errorf("completed_count = %d, want 2 (both dispatches terminal)", got)
	}
}
