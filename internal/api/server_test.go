// Benchcompress - Compression Benchmarks for Scientific Array Data
// Copyright 2026 Benchcompress contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/magland/benchcompress

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"

	"github.com/magland/benchcompress/internal/registry"
	"github.com/magland/benchcompress/internal/results"
	"github.com/magland/benchcompress/internal/testinfra"
)

func testServer(t *testing.T, progress ProgressFunc) *Server {
	t.Helper()
	reg, err := registry.New(
		[]registry.Algorithm{&testinfra.FakeAlgorithm{AlgName: "copy", AlgVersion: "1"}},
		[]registry.Dataset{testinfra.Int16Dataset("ds1", "1", []int16{1, 2, 3})},
	)
	if err != nil {
		t.Fatal(err)
	}
	store := results.NewStore(nil, nil)
	store.Add(results.Result{
		Dataset:          "ds1",
		Algorithm:        "copy",
		AlgorithmVersion: "1",
		DatasetVersion:   "1",
		SystemVersion:    "v4",
		CompressionRatio: 1,
		OriginalSize:     6,
		CompressedSize:   6,
		ArrayShape:       []int{3},
		ArrayDtype:       "int16",
	})
	store.Add(results.Result{
		Dataset:          "ds2",
		Algorithm:        "zstd-4",
		AlgorithmVersion: "1",
		DatasetVersion:   "1",
		SystemVersion:    "v4",
		CompressionRatio: 2.5,
		OriginalSize:     10,
		CompressedSize:   4,
		ArrayShape:       []int{5},
		ArrayDtype:       "int16",
	})
	return New(store, progress, reg)
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) APIResponse {
	t.Helper()
	var resp APIResponse
	resp.Data = data
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid response body: %v\n%s", err, rec.Body.String())
	}
	return resp
}

func TestHealthz(t *testing.T) {
	h := testServer(t, nil).Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestResults(t *testing.T) {
	h := testServer(t, nil).Handler()

	t.Run("all", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/results", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var doc results.Document
		resp := decodeResponse(t, rec, &doc)
		if !resp.Success {
			t.Fatal("success = false")
		}
		if len(doc.Results) != 2 {
			t.Errorf("got %d results, want 2", len(doc.Results))
		}
	})

	t.Run("filtered by dataset", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/results?dataset=ds2", nil))
		var doc results.Document
		decodeResponse(t, rec, &doc)
		if len(doc.Results) != 1 || doc.Results[0].Dataset != "ds2" {
			t.Errorf("filtered results = %+v", doc.Results)
		}
	})

	t.Run("filter with no matches", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/results?algorithm=nope", nil))
		var doc results.Document
		decodeResponse(t, rec, &doc)
		if len(doc.Results) != 0 {
			t.Errorf("got %d results, want 0", len(doc.Results))
		}
	})
}

func TestProgress(t *testing.T) {
	t.Run("attached run", func(t *testing.T) {
		progress := func() *results.Progress {
			return &results.Progress{RunID: "run-1", CompletedCount: 3, TotalCount: 10, ProgressPercentage: 30}
		}
		h := testServer(t, progress).Handler()
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/progress", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var p results.Progress
		decodeResponse(t, rec, &p)
		if p.RunID != "run-1" || p.CompletedCount != 3 {
			t.Errorf("progress = %+v", p)
		}
	})

	t.Run("no run attached", func(t *testing.T) {
		h := testServer(t, nil).Handler()
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/progress", nil))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
		resp := decodeResponse(t, rec, nil)
		if resp.Success || resp.Error == nil || resp.Error.Code != "no_active_run" {
			t.Errorf("error response = %+v", resp)
		}
	})

	t.Run("snapshot unavailable", func(t *testing.T) {
		// An unreadable snapshot yields nil, which must 404 rather
		// than serve a zero-valued document.
		h := testServer(t, func() *results.Progress { return nil }).Handler()
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/progress", nil))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want 404", rec.Code)
		}
		resp := decodeResponse(t, rec, nil)
		if resp.Success || resp.Error == nil || resp.Error.Code != "no_active_run" {
			t.Errorf("error response = %+v", resp)
		}
	})
}

func TestComponents(t *testing.T) {
	h := testServer(t, nil).Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/components", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var comps componentList
	decodeResponse(t, rec, &comps)
	if len(comps.Algorithms) != 1 || comps.Algorithms[0].Name != "copy" {
		t.Errorf("algorithms = %+v", comps.Algorithms)
	}
	if len(comps.Datasets) != 1 || comps.Datasets[0].Name != "ds1" {
		t.Errorf("datasets = %+v", comps.Datasets)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := testServer(t, nil).Handler()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.Len() == 0 {
		t.Error("empty metrics exposition")
	}
}
