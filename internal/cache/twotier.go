// Benchcompress - Compression Benchmarks for Scientific Array Data
// Copyright 2026 Benchcompress contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/magland/benchcompress

package cache

import (
	"context"
	"sync"

	"github.com/magland/benchcompress/internal/logging"
	"github.com/magland/benchcompress/internal/metrics"
	"github.com/magland/benchcompress/internal/results"
)

// TwoTier composes the local and remote tiers with an explicit
// read-through / write-behind policy: Get checks local, then remote
// (populating local on a remote hit); Put writes local synchronously
// and queues the remote write on a background goroutine. Remote
// failures degrade to local-only and are never fatal.
type TwoTier struct {
	local  *Local
	remote *Remote

	// uploadEnabled gates all remote writes; reads are always attempted
	// when a remote is configured.
	uploadEnabled bool

	wg     sync.WaitGroup
	closed chan struct{}
}

// NewTwoTier composes the tiers. remote may be nil for local-only runs.
func NewTwoTier(local *Local, remote *Remote, uploadEnabled bool) *TwoTier {
	return &TwoTier{
		local:         local,
		remote:        remote,
		uploadEnabled: uploadEnabled,
		closed:        make(chan struct{}),
	}
}

// Get returns the cached verified result for k, or (nil, nil) on a
// miss. The lookup is a pure function of the key fields; no entry ever
// expires by time.
func (t *TwoTier) Get(ctx context.Context, k Key) (*results.Result, error) {
	res, err := t.local.Get(k)
	if err != nil {
		return nil, err
	}
	if res != nil {
		metrics.CacheHits.WithLabelValues("local").Inc()
		return res, nil
	}

	if t.remote.Enabled() {
		res, err = t.remote.Get(ctx, k)
		if err != nil {
			// RemoteUnavailable: degrade to local-only for this lookup.
			metrics.RemoteErrors.WithLabelValues("get").Inc()
			logging.Warn().Str("key", k.String()).Err(err).
				Msg("remote cache lookup failed, continuing local-only")
		} else if res != nil {
			metrics.CacheHits.WithLabelValues("remote").Inc()
			// Populate local before returning so the next run on this
			// machine hits the fast tier.
			if putErr := t.local.Put(k, res); putErr != nil {
				logging.Warn().Str("key", k.String()).Err(putErr).
					Msg("failed to populate local cache from remote hit")
			}
			return res, nil
		}
	}

	metrics.CacheMisses.Inc()
	return nil, nil
}

// Put stores the verified result: local tier synchronously, remote tier
// asynchronously and best-effort. A remote write failure is logged and
// dropped; it never blocks or fails the orchestrator.
func (t *TwoTier) Put(ctx context.Context, k Key, res *results.Result, payload []byte) error {
	if err := t.local.Put(k, res); err != nil {
		return err
	}
	if payload != nil {
		if err := t.local.PutPayload(k, payload); err != nil {
			logging.Warn().Str("key", k.String()).Err(err).Msg("failed to store compressed payload")
		}
	}

	if t.remote.Enabled() && t.uploadEnabled {
		resCopy := *res
		t.wg.Add(1)
		go func() {
			defer t.wg.Done()
			select {
			case <-t.closed:
				return
			default:
			}
			if err := t.remote.Put(ctx, k, &resCopy); err != nil {
				metrics.RemoteErrors.WithLabelValues("put").Inc()
				logging.Warn().Str("key", k.String()).Err(err).
					Msg("best-effort remote cache write failed")
			}
		}()
	}
	return nil
}

// UploadDataset pushes the raw dataset array to the remote store if it
// is not already there. Best-effort like all remote writes.
func (t *TwoTier) UploadDataset(ctx context.Context, name, version string, data []byte) {
	if !t.remote.Enabled() || !t.uploadEnabled {
		return
	}
	exists, err := t.remote.DatasetExists(ctx, name, version)
	if err != nil {
		metrics.RemoteErrors.WithLabelValues("dataset_put").Inc()
		logging.Warn().Str("dataset", name).Err(err).Msg("remote dataset existence check failed")
		return
	}
	if exists {
		return
	}
	if err := t.remote.PutDataset(ctx, name, version, data); err != nil {
		metrics.RemoteErrors.WithLabelValues("dataset_put").Inc()
		logging.Warn().Str("dataset", name).Err(err).Msg("remote dataset upload failed")
	}
}

// Flush waits for queued remote writes to finish, bounded by ctx.
func (t *TwoTier) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting background writes and closes the local tier.
func (t *TwoTier) Close() error {
	close(t.closed)
	t.wg.Wait()
	return t.local.Close()
}
