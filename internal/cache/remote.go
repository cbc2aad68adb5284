// Benchcompress - Compression Benchmarks for Scientific Array Data
// Copyright 2026 Benchcompress contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/magland/benchcompress

package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/magland/benchcompress/internal/results"
)

// ErrRemoteUnavailable wraps every remote-tier failure. Callers degrade
// to local-only caching; the error is logged, never fatal.
var ErrRemoteUnavailable = errors.New("remote cache unavailable")

// RemoteConfig configures the shared blob store client.
type RemoteConfig struct {
	// BaseURL of the blob store. Empty disables the remote tier.
	BaseURL string

	// APIKey authorizes uploads. Reads are anonymous.
	APIKey string

	// User namespaces uploads in the shared store.
	User string

	// Timeout bounds one fetch or upload.
	Timeout time.Duration

	// UploadRatePerSec paces best-effort uploads.
	UploadRatePerSec float64
}

// Remote is the shared cache tier: an HTTP blob store addressed by the
// benchmark key plus system version. Because every version participates
// in the path, a stale entry is simply never fetched; there is nothing
// to invalidate remotely.
//
// All operations run behind a circuit breaker so a store outage costs a
// handful of failed requests, not one per pair.
type Remote struct {
	cfg           RemoteConfig
	client        *http.Client
	breaker       *gobreaker.CircuitBreaker[any]
	uploadLimiter *rate.Limiter
	systemVersion string
}

// NewRemote builds the remote tier client.
func NewRemote(cfg RemoteConfig, systemVersion string) *Remote {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.UploadRatePerSec <= 0 {
		cfg.UploadRatePerSec = 4
	}
	settings := gobreaker.Settings{
		Name:    "remote-cache",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	}
	return &Remote{
		cfg:           cfg,
		client:        &http.Client{Timeout: cfg.Timeout},
		breaker:       gobreaker.NewCircuitBreaker[any](settings),
		uploadLimiter: rate.NewLimiter(rate.Limit(cfg.UploadRatePerSec), 1),
		systemVersion: systemVersion,
	}
}

// Enabled reports whether a remote store is configured at all.
func (r *Remote) Enabled() bool {
	return r != nil && r.cfg.BaseURL != ""
}

// entryURL addresses a cached result document. Every identity field is
// part of the path, so a lookup for new versions misses cleanly.
func (r *Remote) entryURL(k Key) string {
	return fmt.Sprintf("%s/benchcompress/%s/%s/%s/%s/%s/metadata.json",
		r.cfg.BaseURL,
		url.PathEscape(r.systemVersion),
		url.PathEscape(k.Dataset),
		url.PathEscape(k.Algorithm),
		url.PathEscape(k.DatasetVersion),
		url.PathEscape(k.AlgorithmVersion),
	)
}

// datasetURL addresses an uploaded raw dataset array.
func (r *Remote) datasetURL(name, version string) string {
	return fmt.Sprintf("%s/benchcompress/datasets/%s/%s/data.dat",
		r.cfg.BaseURL, url.PathEscape(name), url.PathEscape(version))
}

// Get fetches the cached result for k, or (nil, nil) when the store has
// no entry. Transport failures and non-2xx responses other than 404
// return ErrRemoteUnavailable.
func (r *Remote) Get(ctx context.Context, k Key) (*results.Result, error) {
	out, err := r.breaker.Execute(func() (any, error) {
		return r.fetch(ctx, r.entryURL(k))
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
	}
	raw, _ := out.([]byte)
	if raw == nil {
		return nil, nil
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		// A malformed remote document is a miss, not an outage.
		return nil, nil
	}
	if !k.Matches(&entry.Result, r.systemVersion) {
		return nil, nil
	}
	return &entry.Result, nil
}

// Put uploads the result entry for k. The call blocks on the upload
// rate limiter, so it is intended to run on the write-behind goroutine,
// never on a benchmark worker.
func (r *Remote) Put(ctx context.Context, k Key, res *results.Result) error {
	data, err := json.Marshal(Entry{Result: *res})
	if err != nil {
		return fmt.Errorf("marshal remote entry: %w", err)
	}
	return r.upload(ctx, r.entryURL(k), data, "application/json")
}

// DatasetExists checks whether the raw dataset array is already in the
// store.
func (r *Remote) DatasetExists(ctx context.Context, name, version string) (bool, error) {
	out, err := r.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, r.datasetURL(name, version), nil)
		if err != nil {
			return nil, err
		}
		resp, err := r.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body) //nolint:errcheck // drain for keep-alive
		switch {
		case resp.StatusCode == http.StatusOK:
			return true, nil
		case resp.StatusCode == http.StatusNotFound:
			return false, nil
		default:
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
	})
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
	}
	exists, _ := out.(bool)
	return exists, nil
}

// PutDataset uploads the raw dataset array so the dashboard can fetch
// it for display.
func (r *Remote) PutDataset(ctx context.Context, name, version string, data []byte) error {
	return r.upload(ctx, r.datasetURL(name, version), data, "application/octet-stream")
}

func (r *Remote) fetch(ctx context.Context, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck // drain for keep-alive
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, u)
	}
	return io.ReadAll(resp.Body)
}

func (r *Remote) upload(ctx context.Context, u string, data []byte, contentType string) error {
	if err := r.uploadLimiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
	}
	_, err := r.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, u, bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		if r.cfg.APIKey != "" {
			req.Header.Set("X-API-Key", r.cfg.APIKey)
		}
		if r.cfg.User != "" {
			req.Header.Set("X-User-ID", r.cfg.User)
		}
		resp, err := r.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body) //nolint:errcheck // drain for keep-alive
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, fmt.Errorf("unexpected status %d uploading %s", resp.StatusCode, u)
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
	}
	return nil
}

// BreakerState exposes the circuit breaker state for the status API.
func (r *Remote) BreakerState() string {
	if r == nil {
		return "disabled"
	}
	return r.breaker.State().String()
}
