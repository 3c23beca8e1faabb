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

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/tomtom215/localdb/internal/logging"
)

// BadgerStore is a durable Store on BadgerDB. Every key is stored as
// "<category>/<key>" so that a category maps to one key prefix.
type BadgerStore struct {
	lifecycle

	db     *badger.DB
	config Config
}

// NewBadgerStore returns an unopened BadgerStore.
func NewBadgerStore(cfg Config) *BadgerStore {
	return &BadgerStore{config: cfg}
}

// Kind returns "badger".
func (b *BadgerStore) Kind() string { return BackendBadger }

// Open opens (or creates) the database at the configured path.
func (b *BadgerStore) Open(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.status != StatusNew {
		return b.markOpen()
	}

	opts := badger.DefaultOptions(b.config.Path)
	opts.SyncWrites = b.config.SyncWrites
	if b.config.MemTableSize > 0 {
		opts.MemTableSize = b.config.MemTableSize
	}
	if b.config.ValueLogFileSize > 0 {
		opts.ValueLogFileSize = b.config.ValueLogFileSize
	}
	if b.config.NumCompactors >= 2 {
		opts.NumCompactors = b.config.NumCompactors
	}
	if b.config.Compression {
		opts.Compression = options.Snappy
	}

	// Badger's own logger is noisy at info level
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("open BadgerDB: %w", err)
	}
	b.db = db

	logging.Info().
		Str("path", b.config.Path).
		Bool("sync_writes", b.config.SyncWrites).
		Bool("compression", b.config.Compression).
		Msg("Badger store opened")
	return b.markOpen()
}

// Close closes the database, giving up after Config.CloseTimeout.
func (b *BadgerStore) Close() error {
	b.mu.Lock()
	if b.status != StatusOpen {
		b.status = StatusClosed
		b.mu.Unlock()
		return nil
	}
	b.status = StatusClosed
	timeout := b.config.CloseTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	b.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		done <- b.db.Close()
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("close BadgerDB: %w", err)
		}
		logging.Info().Msg("Badger store closed")
		return nil
	case <-time.After(timeout):
		logging.Warn().Dur("timeout", timeout).Msg("BadgerDB close timed out")
		return fmt.Errorf("badgerdb close timeout after %v", timeout)
	}
}

func badgerKey(cat Category, key string) []byte {
	return []byte(string(cat) + "/" + key)
}

func badgerPrefix(cat Category) []byte {
	return []byte(string(cat) + "/")
}

func (b *BadgerStore) Get(ctx context.Context, cat Category, key string) (value string, found bool, err error) {
	start := time.Now()
	defer func() { RecordOperation(BackendBadger, "get", start, err) }()

	done, err := b.begin(ctx, "get", cat)
	if err != nil {
		return "", false, err
	}
	defer done()

	err = b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(cat, key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			value = string(val)
			return nil
		})
	})
	return value, found, opError("get", cat, err)
}

func (b *BadgerStore) Put(ctx context.Context, cat Category, key, value string) (existed bool, err error) {
	start := time.Now()
	defer func() { RecordOperation(BackendBadger, "put", start, err) }()

	done, err := b.begin(ctx, "put", cat)
	if err != nil {
		return false, err
	}
	defer done()

	k := badgerKey(cat, key)
	err = b.db.Update(func(txn *badger.Txn) error {
		_, getErr := txn.Get(k)
		switch {
		case getErr == nil:
			existed = true
		case !errors.Is(getErr, badger.ErrKeyNotFound):
			return getErr
		}
		return txn.Set(k, []byte(value))
	})
	return existed, opError("put", cat, err)
}

// PutAll writes values in one transaction. If the map is too large for a
// single transaction it falls back to a WriteBatch, which is not atomic.
func (b *BadgerStore) PutAll(ctx context.Context, cat Category, values map[string]string) (err error) {
	start := time.Now()
	defer func() { RecordOperation(BackendBadger, "put_all", start, err) }()

	done, err := b.begin(ctx, "put_all", cat)
	if err != nil {
		return err
	}
	defer done()

	err = b.db.Update(func(txn *badger.Txn) error {
		for k, v := range values {
			if err := txn.Set(badgerKey(cat, k), []byte(v)); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, badger.ErrTxnTooBig) {
		logging.Warn().
			Str("category", string(cat)).
			Int("entries", len(values)).
			Msg("PutAll exceeds transaction size, using non-atomic write batch")
		err = b.writeBatch(func(wb *badger.WriteBatch) error {
			for k, v := range values {
				if err := wb.Set(badgerKey(cat, k), []byte(v)); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return opError("put_all", cat, err)
}

func (b *BadgerStore) Remove(ctx context.Context, cat Category, key string) (existed bool, err error) {
	start := time.Now()
	defer func() { RecordOperation(BackendBadger, "remove", start, err) }()

	done, err := b.begin(ctx, "remove", cat)
	if err != nil {
		return false, err
	}
	defer done()

	k := badgerKey(cat, key)
	err = b.db.Update(func(txn *badger.Txn) error {
		_, getErr := txn.Get(k)
		if errors.Is(getErr, badger.ErrKeyNotFound) {
			return nil
		}
		if getErr != nil {
			return getErr
		}
		existed = true
		return txn.Delete(k)
	})
	return existed, opError("remove", cat, err)
}

func (b *BadgerStore) RemoveAll(ctx context.Context, cat Category, keys []string) (err error) {
	start := time.Now()
	defer func() { RecordOperation(BackendBadger, "remove_all", start, err) }()

	done, err := b.begin(ctx, "remove_all", cat)
	if err != nil {
		return err
	}
	defer done()

	err = b.db.Update(func(txn *badger.Txn) error {
		for _, k := range keys {
			if err := txn.Delete(badgerKey(cat, k)); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, badger.ErrTxnTooBig) {
		err = b.writeBatch(func(wb *badger.WriteBatch) error {
			for _, k := range keys {
				if err := wb.Delete(badgerKey(cat, k)); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return opError("remove_all", cat, err)
}

func (b *BadgerStore) Contains(ctx context.Context, cat Category, key string) (found bool, err error) {
	start := time.Now()
	defer func() { RecordOperation(BackendBadger, "contains", start, err) }()

	done, err := b.begin(ctx, "contains", cat)
	if err != nil {
		return false, err
	}
	defer done()

	err = b.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(badgerKey(cat, key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	return found, opError("contains", cat, err)
}

func (b *BadgerStore) Size(ctx context.Context, cat Category) (n int64, err error) {
	start := time.Now()
	defer func() { RecordOperation(BackendBadger, "size", start, err) }()

	done, err := b.begin(ctx, "size", cat)
	if err != nil {
		return 0, err
	}
	defer done()

	err = b.eachKey(cat, func(key string) {
		if !IsReserved(key) {
			n++
		}
	})
	return n, opError("size", cat, err)
}

func (b *BadgerStore) Truncate(ctx context.Context, cat Category) (err error) {
	start := time.Now()
	defer func() { RecordOperation(BackendBadger, "truncate", start, err) }()

	done, err := b.begin(ctx, "truncate", cat)
	if err != nil {
		return err
	}
	defer done()

	// DropPrefix would block writes to every category while it runs, so
	// delete the keys like any other transaction.
	var keys [][]byte
	prefix := badgerPrefix(cat)
	err = b.eachKey(cat, func(key string) {
		keys = append(keys, append(append([]byte(nil), prefix...), key...))
	})
	if err != nil {
		return opError("truncate", cat, err)
	}
	if len(keys) == 0 {
		return nil
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		for _, k := range keys {
			if err := txn.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, badger.ErrTxnTooBig) {
		err = b.writeBatch(func(wb *badger.WriteBatch) error {
			for _, k := range keys {
				if err := wb.Delete(k); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return opError("truncate", cat, err)
}

// Iterator returns the category's keys as of a single read transaction.
func (b *BadgerStore) Iterator(ctx context.Context, cat Category) (it Iterator, err error) {
	start := time.Now()
	defer func() { RecordOperation(BackendBadger, "iterator", start, err) }()

	done, err := b.begin(ctx, "iterator", cat)
	if err != nil {
		return nil, err
	}
	defer done()

	var keys []string
	if err := b.eachKey(cat, func(key string) { keys = append(keys, key) }); err != nil {
		return nil, opError("iterator", cat, err)
	}
	return newSliceIterator(keys), nil
}

// DiskSpaceUsed returns the LSM plus value log size.
func (b *BadgerStore) DiskSpaceUsed() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.status != StatusOpen {
		return 0
	}
	lsm, vlog := b.db.Size()
	RecordDiskSpace(BackendBadger, lsm+vlog)
	return lsm + vlog
}

// RunGC runs value log garbage collection until nothing is left to rewrite.
func (b *BadgerStore) RunGC() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.status != StatusOpen {
		return ErrNotOpen
	}

	ratio := b.config.GCRatio
	if ratio <= 0 || ratio >= 1 {
		ratio = 0.5
	}
	RecordGCRun()
	for {
		err := b.db.RunValueLogGC(ratio)
		if errors.Is(err, badger.ErrNoRewrite) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("run GC: %w", err)
		}
	}
}

// eachKey calls fn for every key of cat, without the category prefix.
func (b *BadgerStore) eachKey(cat Category, fn func(key string)) error {
	prefix := badgerPrefix(cat)
	return b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			fn(string(it.Item().Key()[len(prefix):]))
		}
		return nil
	})
}

func (b *BadgerStore) writeBatch(fill func(wb *badger.WriteBatch) error) error {
	wb := b.db.NewWriteBatch()
	defer wb.Cancel()
	if err := fill(wb); err != nil {
		return err
	}
	return wb.Flush()
}
