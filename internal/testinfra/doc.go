// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

// Package testinfra provides test infrastructure for LocalDB.
//
// # Redis Container
//
// Integration tests for the Redis store backend run against a real Redis
// server started with testcontainers-go. These helpers are only compiled
// with the integration build tag:
//
//	//go:build integration
//
//	func TestRedisStore(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    redis, err := testinfra.NewRedisContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, redis)
//
//	    store := kvstore.NewRedisStore(kvstore.Config{RedisAddr: redis.Addr})
//	    // ...
//	}
//
// Run them with:
//
//	go test -tags integration ./...
//
// Tests are skipped gracefully if Docker is unavailable.
//
// # Mock Gateway
//
// MockGateway is an in-process HTTP server standing in for an SMS or
// e-mail delivery gateway. It records every request so outbox tests can
// assert on what was delivered, and can be told to fail.
package testinfra
