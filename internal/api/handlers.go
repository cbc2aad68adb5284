// Benchcompress - Compression Benchmarks for Scientific Array Data
// Copyright 2026 Benchcompress contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/magland/benchcompress

package api

import (
	"net/http"

	"github.com/magland/benchcompress/internal/results"
)

// handleHealth reports liveness. The server holds no external
// connections at rest, so alive means ready.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleResults returns the full results document, optionally filtered
// by dataset and algorithm query parameters.
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	doc := s.store.Document()

	dataset := r.URL.Query().Get("dataset")
	algorithm := r.URL.Query().Get("algorithm")
	if dataset != "" || algorithm != "" {
		filtered := make([]results.Result, 0, len(doc.Results))
		for _, res := range doc.Results {
			if dataset != "" && res.Dataset != dataset {
				continue
			}
			if algorithm != "" && res.Algorithm != algorithm {
				continue
			}
			filtered = append(filtered, res)
		}
		doc.Results = filtered
	}

	writeJSON(w, http.StatusOK, doc)
}

// handleProgress returns the latest progress snapshot of the attached
// run. A nil snapshot (no run started, or an unreadable snapshot file)
// reports 404 rather than a zero-valued document.
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	if s.progress == nil {
		writeError(w, http.StatusNotFound, "no_active_run", "no benchmark run is attached to this server")
		return
	}
	p := s.progress()
	if p == nil {
		writeError(w, http.StatusNotFound, "no_active_run", "no progress snapshot is available")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// componentList mirrors the algorithms/datasets sections of the results
// document.
type componentList struct {
	Algorithms []results.ComponentInfo `json:"algorithms"`
	Datasets   []results.ComponentInfo `json:"datasets"`
}

// handleComponents returns the registered algorithm and dataset
// inventory.
func (s *Server) handleComponents(w http.ResponseWriter, r *http.Request) {
	out := componentList{
		Algorithms: make([]results.ComponentInfo, 0, len(s.registry.Algorithms())),
		Datasets:   make([]results.ComponentInfo, 0, len(s.registry.Datasets())),
	}
	for _, alg := range s.registry.Algorithms() {
		out.Algorithms = append(out.Algorithms, results.ComponentInfo{
			Name:        alg.Name(),
			Description: alg.Description(),
			Version:     alg.Version(),
			Tags:        alg.Tags(),
		})
	}
	for _, ds := range s.registry.Datasets() {
		out.Datasets = append(out.Datasets, results.ComponentInfo{
			Name:        ds.Name(),
			Description: ds.Description(),
			Version:     ds.Version(),
			Tags:        ds.Tags(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}
