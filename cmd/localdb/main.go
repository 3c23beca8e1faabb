// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

// Command localdb runs the LocalDB server: a persistent queue store, an
// event log with retention and search, and an SMS/e-mail outbox, served
// over HTTP.
//
// # Startup
//
//  1. Configuration: defaults, then a YAML file, then environment (koanf)
//  2. Logging: zerolog, optionally mirrored into the event log
//  3. Store: memory, badger, pebble or redis
//  4. Queues: one per category, shared through a registry
//  5. Event log and outboxes
//  6. Supervisor tree: storage, pipeline and api layers
//
// # Signals
//
// SIGINT and SIGTERM cancel the tree. After every service has stopped the
// event log is closed, flushing pending events, and the store is closed.
//
// # Example
//
//	export STORE_BACKEND=badger
//	export STORE_PATH=/var/lib/localdb
//	export OUTBOX_GATEWAY_URL=https://gateway.example.com
//	./localdb
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/localdb/internal/config"
	"github.com/tomtom215/localdb/internal/logging"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(cfg.LoggingConfig())

	logging.Info().
		Str("backend", cfg.Store.Backend).
		Str("path", cfg.Store.Path).
		Str("addr", cfg.Server.Addr()).
		Bool("outbox", cfg.Outbox.Enabled).
		Msg("Starting LocalDB")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := build(ctx, cfg)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to initialize LocalDB")
		os.Exit(1)
	}

	errCh := a.tree.ServeBackground(ctx)
	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, stopping services")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}
	cancel()
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := a.tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
	}

	if err := a.close(); err != nil {
		logging.Error().Err(err).Msg("Shutdown incomplete")
		os.Exit(1)
	}
	logging.Info().Msg("LocalDB stopped")
}
