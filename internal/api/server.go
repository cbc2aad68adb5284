// Benchcompress - Compression Benchmarks for Scientific Array Data
// Copyright 2026 Benchcompress contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/magland/benchcompress

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/magland/benchcompress/internal/logging"
	"github.com/magland/benchcompress/internal/registry"
	"github.com/magland/benchcompress/internal/results"
)

// ProgressFunc returns the latest run progress snapshot, or nil when no
// snapshot is available (no run yet, or an unreadable snapshot file). It
// must be safe for concurrent use.
type ProgressFunc func() *results.Progress

// Server exposes the read-only benchmark API.
type Server struct {
	store    *results.Store
	progress ProgressFunc
	registry *registry.Registry
}

// New builds a Server over the given result store and registry. progress
// may be nil when no run is attached; the progress endpoint then reports
// 404.
func New(store *results.Store, progress ProgressFunc, reg *registry.Registry) *Server {
	return &Server{store: store, progress: progress, registry: reg}
}

// Handler assembles the chi route tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.RequestID)
	r.Use(requestLogging)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/results", s.handleResults)
		r.Get("/progress", s.handleProgress)
		r.Get("/components", s.handleComponents)
	})

	return r
}

// requestLogging logs one line per request at debug level.
func requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logging.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}
