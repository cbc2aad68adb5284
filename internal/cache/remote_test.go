// Benchcompress - Compression Benchmarks for Scientific Array Data
// Copyright 2026 Benchcompress contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/magland/benchcompress

package cache

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func newRemoteForTest(baseURL string) *Remote {
	return NewRemote(RemoteConfig{
		BaseURL:          baseURL,
		APIKey:           "test-key",
		User:             "tester",
		Timeout:          2 * time.Second,
		UploadRatePerSec: 1000,
	}, "v4")
}

func TestRemote_GetHit(t *testing.T) {
	k := testKey()
	entry := Entry{Result: *testResult(k)}
	body, _ := json.Marshal(entry)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("unexpected method %s", r.Method)
		}
		w.Write(body)
	}))
	defer srv.Close()

	remote := newRemoteForTest(srv.URL)
	got, err := remote.Get(context.Background(), k)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got == nil || got.CompressionRatio != 2.0 {
		t.Errorf("unexpected result: %+v", got)
	}
}

func TestRemote_GetMissOn404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	remote := newRemoteForTest(srv.URL)
	got, err := remote.Get(context.Background(), testKey())
	if err != nil {
		t.Fatalf("404 should be a miss, got error: %v", err)
	}
	if got != nil {
		t.Errorf("404 should be a miss, got %+v", got)
	}
}

func TestRemote_GetVersionMismatchIsMiss(t *testing.T) {
	k := testKey()
	stale := *testResult(k)
	stale.AlgorithmVersion = "0.9"
	body, _ := json.Marshal(Entry{Result: stale})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(body)
	}))
	defer srv.Close()

	remote := newRemoteForTest(srv.URL)
	got, err := remote.Get(context.Background(), k)
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("version-mismatched remote entry should be a miss, got %+v", got)
	}
}

func TestRemote_UnavailableOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	remote := newRemoteForTest(srv.URL)
	_, err := remote.Get(context.Background(), testKey())
	if !errors.Is(err, ErrRemoteUnavailable) {
		t.Errorf("expected ErrRemoteUnavailable, got %v", err)
	}
}

func TestRemote_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var mu sync.Mutex
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests++
		mu.Unlock()
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	remote := newRemoteForTest(srv.URL)
	for i := 0; i < 10; i++ {
		_, err := remote.Get(context.Background(), testKey())
		if !errors.Is(err, ErrRemoteUnavailable) {
			t.Fatalf("attempt %d: expected ErrRemoteUnavailable, got %v", i, err)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	// The breaker trips after 3 consecutive failures; later lookups must
	// fail fast without hitting the store.
	if requests >= 10 {
		t.Errorf("breaker never opened: %d requests reached the store", requests)
	}
	if remote.BreakerState() != "open" {
		t.Errorf("breaker state = %q, want open", remote.BreakerState())
	}
}

func TestRemote_PutSendsAuthHeaders(t *testing.T) {
	k := testKey()
	var gotKey, gotUser string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("unexpected method %s", r.Method)
		}
		gotKey = r.Header.Get("X-API-Key")
		gotUser = r.Header.Get("X-User-ID")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	remote := newRemoteForTest(srv.URL)
	if err := remote.Put(context.Background(), k, testResult(k)); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if gotKey != "test-key" || gotUser != "tester" {
		t.Errorf("auth headers not sent: key=%q user=%q", gotKey, gotUser)
	}
}

func TestRemote_DatasetExists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("unexpected method %s", r.Method)
		}
		if r.URL.Path == "/benchcompress/datasets/gaussian-1/2/data.dat" {
			w.WriteHeader(http.StatusOK)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	remote := newRemoteForTest(srv.URL)
	exists, err := remote.DatasetExists(context.Background(), "gaussian-1", "2")
	if err != nil || !exists {
		t.Errorf("DatasetExists = %v, %v; want true, nil", exists, err)
	}
	exists, err = remote.DatasetExists(context.Background(), "gaussian-1", "3")
	if err != nil || exists {
		t.Errorf("DatasetExists = %v, %v; want false, nil", exists, err)
	}
}

func TestRemote_DisabledWithoutBaseURL(t *testing.T) {
	var remote *Remote
	if remote.Enabled() {
		t.Error("nil remote reported enabled")
	}
	remote = NewRemote(RemoteConfig{}, "v4")
	if remote.Enabled() {
		t.Error("remote without base URL reported enabled")
	}
}
