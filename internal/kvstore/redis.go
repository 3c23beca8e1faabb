// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

package kvstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/localdb/internal/logging"
)

// RedisStore keeps each category in one Redis hash named
// "<prefix><category>". Multi-key writes run inside MULTI/EXEC.
type RedisStore struct {
	lifecycle

	client *redis.Client
	config Config

	// touched records categories written by this process, for DiskSpaceUsed.
	touched sync.Map
}

// NewRedisStore returns an unopened RedisStore.
func NewRedisStore(cfg Config) *RedisStore {
	if cfg.RedisPrefix == "" {
		cfg.RedisPrefix = "localdb:"
	}
	return &RedisStore{config: cfg}
}

// Kind returns "redis".
func (r *RedisStore) Kind() string { return BackendRedis }

// Open connects and verifies the server with PING.
func (r *RedisStore) Open(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != StatusNew {
		return r.markOpen()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     r.config.RedisAddr,
		Password: r.config.RedisPassword,
		DB:       r.config.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("connect Redis at %s: %w", r.config.RedisAddr, err)
	}
	r.client = client

	logging.Info().
		Str("addr", r.config.RedisAddr).
		Int("db", r.config.RedisDB).
		Msg("Redis store opened")
	return r.markOpen()
}

// Close closes the client connection pool. Data stays on the server.
func (r *RedisStore) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != StatusOpen {
		r.status = StatusClosed
		return nil
	}
	r.status = StatusClosed
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("close Redis client: %w", err)
	}
	return nil
}

func (r *RedisStore) hash(cat Category) string {
	return r.config.RedisPrefix + string(cat)
}

func (r *RedisStore) touch(cat Category) {
	r.touched.Store(cat, struct{}{})
}

func (r *RedisStore) Get(ctx context.Context, cat Category, key string) (value string, found bool, err error) {
	start := time.Now()
	defer func() { RecordOperation(BackendRedis, "get", start, err) }()

	done, err := r.begin(ctx, "get", cat)
	if err != nil {
		return "", false, err
	}
	defer done()

	value, err = r.client.HGet(ctx, r.hash(cat), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, opError("get", cat, err)
	}
	return value, true, nil
}

func (r *RedisStore) Put(ctx context.Context, cat Category, key, value string) (existed bool, err error) {
	start := time.Now()
	defer func() { RecordOperation(BackendRedis, "put", start, err) }()

	done, err := r.begin(ctx, "put", cat)
	if err != nil {
		return false, err
	}
	defer done()

	r.touch(cat)
	added, err := r.client.HSet(ctx, r.hash(cat), key, value).Result()
	if err != nil {
		return false, opError("put", cat, err)
	}
	return added == 0, nil
}

func (r *RedisStore) PutAll(ctx context.Context, cat Category, values map[string]string) (err error) {
	start := time.Now()
	defer func() { RecordOperation(BackendRedis, "put_all", start, err) }()

	done, err := r.begin(ctx, "put_all", cat)
	if err != nil {
		return err
	}
	defer done()

	if len(values) == 0 {
		return nil
	}
	r.touch(cat)
	args := make([]interface{}, 0, len(values)*2)
	for k, v := range values {
		args = append(args, k, v)
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.hash(cat), args...)
		return nil
	})
	return opError("put_all", cat, err)
}

func (r *RedisStore) Remove(ctx context.Context, cat Category, key string) (existed bool, err error) {
	start := time.Now()
	defer func() { RecordOperation(BackendRedis, "remove", start, err) }()

	done, err := r.begin(ctx, "remove", cat)
	if err != nil {
		return false, err
	}
	defer done()

	n, err := r.client.HDel(ctx, r.hash(cat), key).Result()
	if err != nil {
		return false, opError("remove", cat, err)
	}
	return n > 0, nil
}

func (r *RedisStore) RemoveAll(ctx context.Context, cat Category, keys []string) (err error) {
	start := time.Now()
	defer func() { RecordOperation(BackendRedis, "remove_all", start, err) }()

	done, err := r.begin(ctx, "remove_all", cat)
	if err != nil {
		return err
	}
	defer done()

	if len(keys) == 0 {
		return nil
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, r.hash(cat), keys...)
		return nil
	})
	return opError("remove_all", cat, err)
}

func (r *RedisStore) Contains(ctx context.Context, cat Category, key string) (found bool, err error) {
	start := time.Now()
	defer func() { RecordOperation(BackendRedis, "contains", start, err) }()

	done, err := r.begin(ctx, "contains", cat)
	if err != nil {
		return false, err
	}
	defer done()

	found, err = r.client.HExists(ctx, r.hash(cat), key).Result()
	return found, opError("contains", cat, err)
}

func (r *RedisStore) Size(ctx context.Context, cat Category) (n int64, err error) {
	start := time.Now()
	defer func() { RecordOperation(BackendRedis, "size", start, err) }()

	done, err := r.begin(ctx, "size", cat)
	if err != nil {
		return 0, err
	}
	defer done()

	keys, err := r.client.HKeys(ctx, r.hash(cat)).Result()
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

func (r *RedisStore) Truncate(ctx context.Context, cat Category) (err error) {
	start := time.Now()
	defer func() { RecordOperation(BackendRedis, "truncate", start, err) }()

	done, err := r.begin(ctx, "truncate", cat)
	if err != nil {
		return err
	}
	defer done()

	return opError("truncate", cat, r.client.Del(ctx, r.hash(cat)).Err())
}

// Iterator returns a snapshot of the hash's fields from one HKEYS call.
func (r *RedisStore) Iterator(ctx context.Context, cat Category) (it Iterator, err error) {
	start := time.Now()
	defer func() { RecordOperation(BackendRedis, "iterator", start, err) }()

	done, err := r.begin(ctx, "iterator", cat)
	if err != nil {
		return nil, err
	}
	defer done()

	keys, err := r.client.HKeys(ctx, r.hash(cat)).Result()
	if err != nil {
		return nil, opError("iterator", cat, err)
	}
	return newSliceIterator(keys), nil
}

// DiskSpaceUsed sums MEMORY USAGE over the hashes this process has written.
func (r *RedisStore) DiskSpaceUsed() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.status != StatusOpen {
		return 0
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var total int64
	r.touched.Range(func(k, _ any) bool {
		n, err := r.client.MemoryUsage(ctx, r.hash(k.(Category))).Result()
		if err == nil {
			total += n
		}
		return true
	})
	RecordDiskSpace(BackendRedis, total)
	return total
}
