// Benchcompress - Compression Benchmarks for Scientific Array Data
// Copyright 2026 Benchcompress contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/magland/benchcompress

// Package main is the benchcompress command line entry point.
//
// Benchcompress measures lossless and near-lossless compression of
// scientific array data. Every (dataset, algorithm) pair is executed in
// isolation, timed by median-of-trials, verified by exact decode, and
// fingerprint-cached so unchanged pairs are never re-run.
//
// # Commands
//
//	benchcompress run    # execute the benchmark matrix
//	benchcompress list   # print registered algorithms and datasets
//	benchcompress serve  # expose results and progress over HTTP
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (BENCHCOMPRESS_ prefix)
//   - Config file (benchcompress.yaml)
//   - Built-in defaults
//
// A shared remote cache tier is enabled by setting
// BENCHCOMPRESS_CACHE_REMOTE_URL; uploads additionally require
// BENCHCOMPRESS_CACHE_UPLOAD_ENABLED=true and an API key.
//
// # Exit Codes
//
//	0   run completed, all pairs verified and stored
//	1   fatal error (configuration, cache, or I/O)
//	2   run completed, but one or more pairs failed
//	130 run aborted by SIGINT/SIGTERM before completion
package main

import (
	"fmt"
	"os"

	"github.com/magland/benchcompress/internal/config"
	"github.com/magland/benchcompress/internal/logging"
)

const (
	exitOK           = 0
	exitFatal        = 1
	exitWithFailures = 2
	exitAborted      = 130
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: benchcompress <command> [flags]

Commands:
  run      execute the benchmark matrix
  list     print registered algorithms and datasets
  serve    expose results and progress over HTTP

Run "benchcompress <command> -h" for command flags.
`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(exitFatal)
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	var code int
	switch os.Args[1] {
	case "run":
		code = runCommand(cfg, os.Args[2:])
	case "list":
		code = listCommand(os.Args[2:])
	case "serve":
		code = serveCommand(cfg, os.Args[2:])
	case "-h", "--help", "help":
		usage()
		code = exitOK
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		usage()
		code = exitFatal
	}
	os.Exit(code)
}
