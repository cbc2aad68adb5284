// Benchcompress - Compression Benchmarks for Scientific Array Data
// Copyright 2026 Benchcompress contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/magland/benchcompress

package supervisor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/magland/benchcompress/internal/results"
)

func TestProgressWriter_WritesSnapshots(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	snapshot := func() results.Progress {
		return results.Progress{RunID: "run-7", CompletedCount: 4, TotalCount: 9}
	}
	svc := NewProgressWriter(snapshot, path, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	deadline := time.After(time.Second)
	for {
		if _, err := os.Stat(path); err == nil {
			break
		}
		select {
		case <-deadline:
			t.Fatal("snapshot file never appeared")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("Serve returned %v, want context.Canceled", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var p results.Progress
	if err := json.Unmarshal(raw, &p); err != nil {
		t.Fatalf("snapshot is not valid JSON: %v", err)
	}
	if p.RunID != "run-7" || p.CompletedCount != 4 || p.TotalCount != 9 {
		t.Errorf("snapshot = %+v", p)
	}
}

func TestTree_RunsServicesUntilCancelled(t *testing.T) {
	tree := NewTree(DefaultTreeConfig())
	path := filepath.Join(t.TempDir(), "progress.json")
	tree.Add(NewProgressWriter(func() results.Progress {
		return results.Progress{RunID: "tree-run"}
	}, path, 5*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tree.Serve(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("tree.Serve returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not stop after cancellation")
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("progress writer never wrote under the tree: %v", err)
	}
}
