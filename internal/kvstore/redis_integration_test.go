// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

//go:build integration

package kvstore

import (
	"context"
	"fmt"
	"testing"

	"github.com/tomtom215/localdb/internal/testinfra"
)

func TestRedisStoreContract(t *testing.T) {
	testinfra.SkipIfNoDocker(t)
	ctx := context.Background()

	redis, err := testinfra.NewRedisContainer(ctx)
	if err != nil {
		t.Fatalf("start redis: %v", err)
	}
	defer testinfra.CleanupContainer(t, ctx, redis.Container)

	n := 0
	runStoreContract(t, func(t *testing.T) Store {
		n++
		s := NewRedisStore(Config{
			Backend:     BackendRedis,
			RedisAddr:   redis.Addr,
			RedisPrefix: fmt.Sprintf("test%d:", n),
		})
		if err := s.Open(ctx); err != nil {
			t.Fatalf("open redis store: %v", err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestRedisStoreMemoryUsage(t *testing.T) {
	testinfra.SkipIfNoDocker(t)
	ctx := context.Background()

	redis, err := testinfra.NewRedisContainer(ctx)
	if err != nil {
		t.Fatalf("start redis: %v", err)
	}
	defer testinfra.CleanupContainer(t, ctx, redis.Container)

	s := NewRedisStore(Config{Backend: BackendRedis, RedisAddr: redis.Addr})
	if err := s.Open(ctx); err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if s.DiskSpaceUsed() != 0 {
		t.Error("expected zero usage before any write")
	}
	if _, err := s.Put(ctx, CategoryEventLog, "000000", "payload"); err != nil {
		t.Fatal(err)
	}
	if s.DiskSpaceUsed() <= 0 {
		t.Error("expected positive memory usage after write")
	}
}
