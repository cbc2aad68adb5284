// Benchcompress - Compression Benchmarks for Scientific Array Data
// Copyright 2026 Benchcompress contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/magland/benchcompress

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/magland/benchcompress/internal/api"
	"github.com/magland/benchcompress/internal/config"
	"github.com/magland/benchcompress/internal/logging"
	"github.com/magland/benchcompress/internal/results"
	"github.com/magland/benchcompress/internal/supervisor"
)

// serveCommand exposes a finished (or in-flight) run over HTTP. Results
// are loaded from the results document at startup; progress is re-read
// from the snapshot file on every request, so a concurrent `run` process
// writing those files is observed live.
func serveCommand(cfg *config.Config, args []string) int {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addrFlag := fs.String("addr", "", "listen address (overrides config host:port)")
	if err := fs.Parse(args); err != nil {
		return exitFatal
	}
	if err := cfg.Validate(); err != nil {
		logging.Error().Err(err).Msg("invalid configuration")
		return exitFatal
	}

	reg, err := builtinRegistry()
	if err != nil {
		logging.Error().Err(err).Msg("failed to build component registry")
		return exitFatal
	}

	store := results.NewStore(componentInfo(reg))
	if doc, err := results.ReadDocument(cfg.Run.ResultsPath); err == nil {
		loaded, err := results.NewStoreFromDocument(doc)
		if err != nil {
			logging.Error().Err(err).Msg("results document is invalid")
			return exitFatal
		}
		store = loaded
		logging.Info().
			Str("path", cfg.Run.ResultsPath).
			Int("results", store.Len()).
			Msg("results document loaded")
	} else if !errors.Is(err, os.ErrNotExist) {
		logging.Warn().Err(err).Str("path", cfg.Run.ResultsPath).Msg("could not load results document")
	}

	// nil means no snapshot: a missing file reads as "no run yet", and a
	// corrupt file must not masquerade as zero progress.
	progress := func() *results.Progress {
		p, err := results.ReadProgress(cfg.Run.ProgressPath)
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				logging.Warn().Err(err).Str("path", cfg.Run.ProgressPath).Msg("could not read progress snapshot")
			}
			return nil
		}
		return p
	}

	addr := *addrFlag
	if addr == "" {
		addr = fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	server := &http.Server{
		Addr:         addr,
		Handler:      api.New(store, progress, reg).Handler(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	tree := supervisor.NewTree(supervisor.DefaultTreeConfig())
	tree.Add(supervisor.NewHTTPService(server, addr, cfg.Server.Timeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := tree.Serve(ctx); err != nil {
		logging.Error().Err(err).Msg("serve failed")
		return exitFatal
	}
	return exitOK
}
