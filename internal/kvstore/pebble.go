// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

package kvstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"

	"github.com/tomtom215/localdb/internal/logging"
)

// PebbleStore is a durable Store on Pebble. It uses the same
// "<category>/<key>" layout as BadgerStore. Multi-key writes go through
// a single batch, which Pebble commits atomically.
type PebbleStore struct {
	lifecycle

	db        *pebble.DB
	config    Config
	writeOpts *pebble.WriteOptions
}

// NewPebbleStore returns an unopened PebbleStore.
func NewPebbleStore(cfg Config) *PebbleStore {
	wo := pebble.NoSync
	if cfg.SyncWrites {
		wo = pebble.Sync
	}
	return &PebbleStore{config: cfg, writeOpts: wo}
}

// Kind returns "pebble".
func (p *PebbleStore) Kind() string { return BackendPebble }

// Open opens (or creates) the database at the configured path.
func (p *PebbleStore) Open(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status != StatusNew {
		return p.markOpen()
	}

	db, err := pebble.Open(p.config.Path, &pebble.Options{})
	if err != nil {
		return fmt.Errorf("open Pebble: %w", err)
	}
	p.db = db

	logging.Info().
		Str("path", p.config.Path).
		Bool("sync_writes", p.config.SyncWrites).
		Msg("Pebble store opened")
	return p.markOpen()
}

// Close flushes and closes the database.
func (p *PebbleStore) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status != StatusOpen {
		p.status = StatusClosed
		return nil
	}
	p.status = StatusClosed
	if err := p.db.Close(); err != nil {
		return fmt.Errorf("close Pebble: %w", err)
	}
	logging.Info().Msg("Pebble store closed")
	return nil
}

// prefixUpperBound returns the smallest key greater than every key with prefix.
func prefixUpperBound(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

func (p *PebbleStore) Get(ctx context.Context, cat Category, key string) (value string, found bool, err error) {
	start := time.Now()
	defer func() { RecordOperation(BackendPebble, "get", start, err) }()

	done, err := p.begin(ctx, "get", cat)
	if err != nil {
		return "", false, err
	}
	defer done()

	val, closer, err := p.db.Get(badgerKey(cat, key))
	if errors.Is(err, pebble.ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, opError("get", cat, err)
	}
	value = string(val)
	if err := closer.Close(); err != nil {
		return "", false, opError("get", cat, err)
	}
	return value, true, nil
}

// Put is not atomic with respect to the existence check. Callers that need
// that guarantee serialize writes to a category themselves, as the queue does.
func (p *PebbleStore) Put(ctx context.Context, cat Category, key, value string) (existed bool, err error) {
	start := time.Now()
	defer func() { RecordOperation(BackendPebble, "put", start, err) }()

	done, err := p.begin(ctx, "put", cat)
	if err != nil {
		return false, err
	}
	defer done()

	k := badgerKey(cat, key)
	existed, err = p.has(k)
	if err != nil {
		return false, opError("put", cat, err)
	}
	return existed, opError("put", cat, p.db.Set(k, []byte(value), p.writeOpts))
}

func (p *PebbleStore) PutAll(ctx context.Context, cat Category, values map[string]string) (err error) {
	start := time.Now()
	defer func() { RecordOperation(BackendPebble, "put_all", start, err) }()

	done, err := p.begin(ctx, "put_all", cat)
	if err != nil {
		return err
	}
	defer done()

	b := p.db.NewBatch()
	defer b.Close()
	for k, v := range values {
		if err := b.Set(badgerKey(cat, k), []byte(v), nil); err != nil {
			return opError("put_all", cat, err)
		}
	}
	return opError("put_all", cat, b.Commit(p.writeOpts))
}

func (p *PebbleStore) Remove(ctx context.Context, cat Category, key string) (existed bool, err error) {
	start := time.Now()
	defer func() { RecordOperation(BackendPebble, "remove", start, err) }()

	done, err := p.begin(ctx, "remove", cat)
	if err != nil {
		return false, err
	}
	defer done()

	k := badgerKey(cat, key)
	existed, err = p.has(k)
	if err != nil || !existed {
		return false, opError("remove", cat, err)
	}
	return true, opError("remove", cat, p.db.Delete(k, p.writeOpts))
}

func (p *PebbleStore) RemoveAll(ctx context.Context, cat Category, keys []string) (err error) {
	start := time.Now()
	defer func() { RecordOperation(BackendPebble, "remove_all", start, err) }()

	done, err := p.begin(ctx, "remove_all", cat)
	if err != nil {
		return err
	}
	defer done()

	b := p.db.NewBatch()
	defer b.Close()
	for _, k := range keys {
		if err := b.Delete(badgerKey(cat, k), nil); err != nil {
			return opError("remove_all", cat, err)
		}
	}
	return opError("remove_all", cat, b.Commit(p.writeOpts))
}

func (p *PebbleStore) Contains(ctx context.Context, cat Category, key string) (found bool, err error) {
	start := time.Now()
	defer func() { RecordOperation(BackendPebble, "contains", start, err) }()

	done, err := p.begin(ctx, "contains", cat)
	if err != nil {
		return false, err
	}
	defer done()

	found, err = p.has(badgerKey(cat, key))
	return found, opError("contains", cat, err)
}

func (p *PebbleStore) Size(ctx context.Context, cat Category) (n int64, err error) {
	start := time.Now()
	defer func() { RecordOperation(BackendPebble, "size", start, err) }()

	done, err := p.begin(ctx, "size", cat)
	if err != nil {
		return 0, err
	}
	defer done()

	keys, err := p.keys(cat)
	if err != nil {
		return 0, opError("size", cat, err)
	}
	for _, k := range keys {
		if !IsReserved(k) {
			n++
		}
	}
	return n, nil
}

func (p *PebbleStore) Truncate(ctx context.Context, cat Category) (err error) {
	start := time.Now()
	defer func() { RecordOperation(BackendPebble, "truncate", start, err) }()

	done, err := p.begin(ctx, "truncate", cat)
	if err != nil {
		return err
	}
	defer done()

	prefix := badgerPrefix(cat)
	return opError("truncate", cat, p.db.DeleteRange(prefix, prefixUpperBound(prefix), p.writeOpts))
}

// Iterator returns the category's keys as seen by a single snapshot.
func (p *PebbleStore) Iterator(ctx context.Context, cat Category) (it Iterator, err error) {
	start := time.Now()
	defer func() { RecordOperation(BackendPebble, "iterator", start, err) }()

	done, err := p.begin(ctx, "iterator", cat)
	if err != nil {
		return nil, err
	}
	defer done()

	keys, err := p.keys(cat)
	if err != nil {
		return nil, opError("iterator", cat, err)
	}
	return newSliceIterator(keys), nil
}

// DiskSpaceUsed returns Pebble's own accounting of its on-disk footprint.
func (p *PebbleStore) DiskSpaceUsed() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.status != StatusOpen {
		return 0
	}
	n := int64(p.db.Metrics().DiskSpaceUsage())
	RecordDiskSpace(BackendPebble, n)
	return n
}

func (p *PebbleStore) has(k []byte) (bool, error) {
	_, closer, err := p.db.Get(k)
	if errors.Is(err, pebble.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, closer.Close()
}

// keys reads the category's keys from a snapshot.
func (p *PebbleStore) keys(cat Category) (keys []string, err error) {
	snap := p.db.NewSnapshot()
	defer func() {
		if cerr := snap.Close(); err == nil {
			err = cerr
		}
	}()

	prefix := badgerPrefix(cat)
	iter, err := snap.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: prefixUpperBound(prefix),
	})
	if err != nil {
		return nil, err
	}
	for iter.First(); iter.Valid(); iter.Next() {
		keys = append(keys, string(iter.Key()[len(prefix):]))
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return keys, nil
}
