// Benchcompress - Compression Benchmarks for Scientific Array Data
// Copyright 2026 Benchcompress contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/magland/benchcompress

package cache

import (
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/magland/benchcompress/internal/logging"
	"github.com/magland/benchcompress/internal/results"
)

// Badger key prefixes. Result entries are addressed by pair only; the
// stored versions are compared on read, so a version bump naturally
// overwrites the stale entry on the next Put.
const (
	resultKeyPrefix  = "result:"
	payloadKeyPrefix = "payload:"
)

// Local is the machine-scoped cache tier backed by BadgerDB.
type Local struct {
	db            *badger.DB
	systemVersion string
}

// OpenLocal opens (creating if needed) the local cache at dir.
func OpenLocal(dir, systemVersion string) (*Local, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // badger's own logger is too chatty for a CLI run
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open local cache at %s: %w", dir, err)
	}
	return &Local{db: db, systemVersion: systemVersion}, nil
}

// NewLocalWithDB wraps an already-open badger instance, used by tests
// running against in-memory databases.
func NewLocalWithDB(db *badger.DB, systemVersion string) *Local {
	return &Local{db: db, systemVersion: systemVersion}
}

// Close releases the underlying database.
func (l *Local) Close() error {
	return l.db.Close()
}

func resultKey(k Key) []byte {
	return []byte(resultKeyPrefix + k.Dataset + ":" + k.Algorithm)
}

func payloadKey(k Key) []byte {
	return []byte(payloadKeyPrefix + k.Dataset + ":" + k.Algorithm)
}

// Get returns the cached result for k, or (nil, nil) on a miss. Three
// conditions count as a miss: no entry, an entry whose stored versions
// do not match k, and a corrupt entry. Corrupt entries are deleted so
// they cannot shadow a future write.
func (l *Local) Get(k Key) (*results.Result, error) {
	var raw []byte
	err := l.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(resultKey(k))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get result entry: %w", err)
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, nil
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		// Cache corruption: discard and treat as a miss.
		logging.Warn().
			Str("key", k.String()).
			Err(err).
			Msg("discarding corrupt local cache entry")
		if delErr := l.delete(k); delErr != nil {
			logging.Warn().Err(delErr).Str("key", k.String()).Msg("failed to delete corrupt entry")
		}
		return nil, nil
	}

	if !k.Matches(&entry.Result, l.systemVersion) {
		return nil, nil
	}
	return &entry.Result, nil
}

// Put stores the result for k synchronously. The write is atomic per
// key: a concurrent reader sees either the old entry or the new one.
func (l *Local) Put(k Key, r *results.Result) error {
	data, err := json.Marshal(Entry{Result: *r})
	if err != nil {
		return fmt.Errorf("marshal cache entry: %w", err)
	}
	err = l.db.Update(func(txn *badger.Txn) error {
		return txn.Set(resultKey(k), data)
	})
	if err != nil {
		return fmt.Errorf("put cache entry %s: %w", k, err)
	}
	return nil
}

// PutPayload stores the compressed bytes alongside the result entry, so
// a later inspection can examine what the codec actually produced.
func (l *Local) PutPayload(k Key, payload []byte) error {
	err := l.db.Update(func(txn *badger.Txn) error {
		return txn.Set(payloadKey(k), payload)
	})
	if err != nil {
		return fmt.Errorf("put payload %s: %w", k, err)
	}
	return nil
}

// Payload returns the stored compressed bytes for k, or nil if absent.
func (l *Local) Payload(k Key) ([]byte, error) {
	var raw []byte
	err := l.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(payloadKey(k))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get payload %s: %w", k, err)
	}
	return raw, nil
}

func (l *Local) delete(k Key) error {
	return l.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(resultKey(k))
	})
}
