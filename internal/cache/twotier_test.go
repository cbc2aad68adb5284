// Benchcompress - Compression Benchmarks for Scientific Array Data
// Copyright 2026 Benchcompress contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/magland/benchcompress

package cache

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestTwoTier_LocalHitSkipsRemote(t *testing.T) {
	remoteCalled := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		remoteCalled = true
		http.NotFound(w, r)
	}))
	defer srv.Close()

	k := testKey()
	local := newTestLocal(t)
	if err := local.Put(k, testResult(k)); err != nil {
		t.Fatal(err)
	}
	tt := NewTwoTier(local, newRemoteForTest(srv.URL), false)

	got, err := tt.Get(context.Background(), k)
	if err != nil || got == nil {
		t.Fatalf("expected local hit, got %v, %v", got, err)
	}
	if remoteCalled {
		t.Error("remote was consulted despite local hit")
	}
}

func TestTwoTier_RemoteHitPopulatesLocal(t *testing.T) {
	k := testKey()
	body, _ := json.Marshal(Entry{Result: *testResult(k)})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer srv.Close()

	local := newTestLocal(t)
	tt := NewTwoTier(local, newRemoteForTest(srv.URL), false)

	got, err := tt.Get(context.Background(), k)
	if err != nil || got == nil {
		t.Fatalf("expected remote hit, got %v, %v", got, err)
	}

	// Local tier must now hold the entry.
	fromLocal, err := local.Get(k)
	if err != nil {
		t.Fatal(err)
	}
	if fromLocal == nil {
		t.Error("remote hit did not populate local tier")
	}
}

func TestTwoTier_RemoteOutageDegradesToMiss(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	tt := NewTwoTier(newTestLocal(t), newRemoteForTest(srv.URL), false)

	got, err := tt.Get(context.Background(), testKey())
	if err != nil {
		t.Fatalf("remote outage must not surface as an error: %v", err)
	}
	if got != nil {
		t.Errorf("expected miss under outage, got %+v", got)
	}
}

func TestTwoTier_PutWritesLocalSynchronously(t *testing.T) {
	k := testKey()
	local := newTestLocal(t)
	tt := NewTwoTier(local, nil, false)

	if err := tt.Put(context.Background(), k, testResult(k), []byte{9, 9}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	got, err := local.Get(k)
	if err != nil || got == nil {
		t.Fatalf("local tier missing entry after Put: %v, %v", got, err)
	}
	payload, err := local.Payload(k)
	if err != nil || len(payload) != 2 {
		t.Errorf("payload not stored: %v, %v", payload, err)
	}
}

func TestTwoTier_PutUploadsRemoteBestEffort(t *testing.T) {
	k := testKey()
	var mu sync.Mutex
	var uploads []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			mu.Lock()
			uploads = append(uploads, r.URL.Path)
			mu.Unlock()
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tt := NewTwoTier(newTestLocal(t), newRemoteForTest(srv.URL), true)

	if err := tt.Put(context.Background(), k, testResult(k), nil); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := tt.Flush(ctx); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(uploads) != 1 {
		t.Fatalf("expected 1 remote upload, got %d", len(uploads))
	}
	want := "/benchcompress/v4/gaussian-1/zstd-4/2/1.0/metadata.json"
	if uploads[0] != want {
		t.Errorf("upload path = %q, want %q", uploads[0], want)
	}
}

func TestTwoTier_RemoteWriteFailureIsNotFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no", http.StatusForbidden)
	}))
	defer srv.Close()

	k := testKey()
	tt := NewTwoTier(newTestLocal(t), newRemoteForTest(srv.URL), true)

	if err := tt.Put(context.Background(), k, testResult(k), nil); err != nil {
		t.Fatalf("Put must not fail on remote rejection: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	tt.Flush(ctx)
}
