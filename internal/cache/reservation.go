// Benchcompress - Compression Benchmarks for Scientific Array Data
// Copyright 2026 Benchcompress contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/magland/benchcompress

package cache

import "sync"

// Reservations enforces at-most-one execution per key per run. A worker
// acquires its key before executing; a second worker racing on the same
// key loses the acquisition and instead waits for the winner's terminal
// transition, then re-reads the cache. It must never re-run the work.
type Reservations struct {
	mu       sync.Mutex
	inflight map[Key]chan struct{}
}

// NewReservations creates an empty reservation set for one run.
func NewReservations() *Reservations {
	return &Reservations{inflight: make(map[Key]chan struct{})}
}

// Acquire attempts to reserve k. On success it returns acquired=true
// and a release function the winner must call at its terminal
// transition (stored or failed). On failure it returns acquired=false
// and a channel closed when the winner releases.
func (r *Reservations) Acquire(k Key) (acquired bool, release func(), wait <-chan struct{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ch, exists := r.inflight[k]; exists {
		return false, nil, ch
	}
	ch := make(chan struct{})
	r.inflight[k] = ch
	var once sync.Once
	release = func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.inflight, k)
			r.mu.Unlock()
			close(ch)
		})
	}
	return true, release, nil
}

// InFlight returns the number of reserved keys, for tests and status.
func (r *Reservations) InFlight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.inflight)
}
