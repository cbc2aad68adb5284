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
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/magland/benchcompress/internal/algorithms"
	"github.com/magland/benchcompress/internal/cache"
	"github.com/magland/benchcompress/internal/config"
	"github.com/magland/benchcompress/internal/datasets"
	"github.com/magland/benchcompress/internal/engine"
	"github.com/magland/benchcompress/internal/logging"
	"github.com/magland/benchcompress/internal/orchestrator"
	"github.com/magland/benchcompress/internal/registry"
	"github.com/magland/benchcompress/internal/results"
	"github.com/magland/benchcompress/internal/supervisor"
)

// builtinRegistry assembles the compiled-in components.
func builtinRegistry() (*registry.Registry, error) {
	return registry.New(algorithms.Builtin(), datasets.Builtin())
}

// componentInfo flattens the registry into the results document's
// algorithms/datasets sections.
func componentInfo(reg *registry.Registry) (algs, dsets []results.ComponentInfo) {
	for _, a := range reg.Algorithms() {
		algs = append(algs, results.ComponentInfo{
			Name:        a.Name(),
			Description: a.Description(),
			Version:     a.Version(),
			Tags:        a.Tags(),
		})
	}
	for _, d := range reg.Datasets() {
		dsets = append(dsets, results.ComponentInfo{
			Name:        d.Name(),
			Description: d.Description(),
			Version:     d.Version(),
			Tags:        d.Tags(),
		})
	}
	return algs, dsets
}

// openCache wires the two-tier fingerprint cache from configuration.
// The remote tier is optional; a missing URL leaves it nil.
func openCache(cfg *config.Config) (*cache.TwoTier, error) {
	local, err := cache.OpenLocal(cfg.Cache.Dir, config.SystemVersion)
	if err != nil {
		return nil, fmt.Errorf("open local cache: %w", err)
	}
	var remote *cache.Remote
	if cfg.Cache.RemoteURL != "" {
		remote = cache.NewRemote(cache.RemoteConfig{
			BaseURL:          cfg.Cache.RemoteURL,
			APIKey:           cfg.Cache.RemoteAPIKey,
			User:             cfg.Cache.RemoteUser,
			Timeout:          cfg.Cache.RemoteTimeout,
			UploadRatePerSec: cfg.Cache.UploadRatePerSec,
		}, config.SystemVersion)
	}
	return cache.NewTwoTier(local, remote, cfg.Cache.UploadEnabled), nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func runCommand(cfg *config.Config, args []string) int {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	datasetsFlag := fs.String("datasets", "", "comma-separated dataset names to run (default: all)")
	algorithmsFlag := fs.String("algorithms", "", "comma-separated algorithm names to run (default: all)")
	upload := fs.Bool("upload", false, "upload results and datasets to the remote cache")
	resultsPath := fs.String("results", "", "results document path (overrides config)")
	if err := fs.Parse(args); err != nil {
		return exitFatal
	}

	if *datasetsFlag != "" {
		cfg.Run.Datasets = splitList(*datasetsFlag)
	}
	if *algorithmsFlag != "" {
		cfg.Run.Algorithms = splitList(*algorithmsFlag)
	}
	if *upload {
		cfg.Cache.UploadEnabled = true
	}
	if *resultsPath != "" {
		cfg.Run.ResultsPath = *resultsPath
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

	tiered, err := openCache(cfg)
	if err != nil {
		logging.Error().Err(err).Msg("failed to open fingerprint cache")
		return exitFatal
	}
	defer func() {
		if err := tiered.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing cache")
		}
	}()

	algInfo, dsInfo := componentInfo(reg)
	store := results.NewStore(algInfo, dsInfo)

	eng := engine.New(engine.Options{
		PairTimeout:    cfg.Engine.PairTimeout,
		MinTrialWindow: cfg.Engine.MinTrialWindow,
		MaxTrials:      cfg.Engine.MaxTrials,
	})

	orch := orchestrator.New(reg, tiered, eng, store, orchestrator.Options{
		Workers:         cfg.WorkerCount(),
		SystemVersion:   config.SystemVersion,
		DatasetFilter:   cfg.Run.Datasets,
		AlgorithmFilter: cfg.Run.Algorithms,
		UploadDatasets:  cfg.Cache.UploadEnabled,
		Publish: func(p results.Progress) {
			if err := p.WriteFile(cfg.Run.ProgressPath); err != nil {
				logging.Warn().Err(err).Msg("failed to write progress snapshot")
			}
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Periodic republishing for external pollers runs supervised
	// alongside the per-completion writes from Publish.
	tree := supervisor.NewTree(supervisor.DefaultTreeConfig())
	tree.Add(supervisor.NewProgressWriter(orch.Progress, cfg.Run.ProgressPath, cfg.Run.ProgressInterval))
	treeCtx, stopTree := context.WithCancel(ctx)
	treeDone := make(chan error, 1)
	go func() { treeDone <- tree.Serve(treeCtx) }()

	summary, err := orch.Run(ctx)
	stopTree()
	<-treeDone
	aborted := errors.Is(err, context.Canceled)
	if err != nil && !aborted {
		logging.Error().Err(err).Msg("benchmark run failed")
		return exitFatal
	}

	// Persist whatever completed, even on abort.
	if err := store.WriteFile(cfg.Run.ResultsPath); err != nil {
		logging.Error().Err(err).Str("path", cfg.Run.ResultsPath).Msg("failed to write results document")
		return exitFatal
	}
	logging.Info().
		Str("path", cfg.Run.ResultsPath).
		Int("results", store.Len()).
		Msg("results document written")

	// Wait for best-effort remote uploads before closing.
	if err := tiered.Flush(context.Background()); err != nil {
		logging.Warn().Err(err).Msg("remote upload flush incomplete")
	}

	switch {
	case aborted:
		fmt.Fprintf(os.Stderr, "aborted: %d/%d pairs completed\n", summary.Stored, summary.TotalPairs)
		return exitAborted
	case len(summary.Failures) > 0:
		fmt.Fprintf(os.Stderr, "completed with %d failed pairs:\n", len(summary.Failures))
		for _, f := range summary.Failures {
			fmt.Fprintf(os.Stderr, "  %s / %s: %s\n", f.Dataset, f.Algorithm, f.Reason)
		}
		return exitWithFailures
	default:
		return exitOK
	}
}

func listCommand(args []string) int {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return exitFatal
	}

	reg, err := builtinRegistry()
	if err != nil {
		logging.Error().Err(err).Msg("failed to build component registry")
		return exitFatal
	}

	fmt.Println("Algorithms:")
	for _, a := range reg.Algorithms() {
		fmt.Printf("  %-14s v%-4s %s", a.Name(), a.Version(), a.Description())
		if tags := a.Tags(); len(tags) > 0 {
			fmt.Printf("  [%s]", strings.Join(tags, ", "))
		}
		fmt.Println()
	}
	fmt.Println("\nDatasets:")
	for _, d := range reg.Datasets() {
		info := d.Info()
		fmt.Printf("  %-14s v%-4s %s  (%s, shape %v)", d.Name(), d.Version(), d.Description(), info.Dtype, info.Shape)
		if tags := d.Tags(); len(tags) > 0 {
			fmt.Printf("  [%s]", strings.Join(tags, ", "))
		}
		fmt.Println()
	}
	return exitOK
}
