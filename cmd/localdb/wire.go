// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/localdb/internal/api"
	"github.com/tomtom215/localdb/internal/config"
	"github.com/tomtom215/localdb/internal/eventlog"
	"github.com/tomtom215/localdb/internal/kvstore"
	"github.com/tomtom215/localdb/internal/logging"
	"github.com/tomtom215/localdb/internal/outbox"
	"github.com/tomtom215/localdb/internal/queue"
	"github.com/tomtom215/localdb/internal/supervisor"
	"github.com/tomtom215/localdb/internal/supervisor/services"
)

// app holds everything main must shut down.
type app struct {
	store    kvstore.Store
	registry *queue.Registry
	events   *eventlog.EventLog
	outbox   *outbox.Router
	handler  http.Handler
	tree     *supervisor.SupervisorTree

	// baseLogger is the global logger before the event log hook was added.
	baseLogger zerolog.Logger
}

// build wires the components. On error everything opened so far is closed.
func build(ctx context.Context, cfg *config.Config) (a *app, err error) {
	a = &app{baseLogger: logging.Logger()}

	store, err := kvstore.New(cfg.StoreConfig())
	if err != nil {
		return nil, err
	}
	if err := store.Open(ctx); err != nil {
		return nil, fmt.Errorf("open %s store: %w", store.Kind(), err)
	}
	a.store = store
	defer func() {
		if err != nil {
			_ = a.close()
		}
	}()

	a.registry = queue.NewRegistry(store)
	eventQueue, err := a.registry.Open(ctx, kvstore.CategoryEventLog)
	if err != nil {
		return nil, fmt.Errorf("open event queue: %w", err)
	}
	a.events, err = eventlog.New(eventQueue, cfg.EventLogConfig(), nil)
	if err != nil {
		return nil, err
	}
	if cfg.EventLog.CaptureLogs {
		logging.SetLogger(a.baseLogger.Hook(eventlog.NewHook(a.events, "localdb")))
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: cfg.Supervisor.FailureThreshold,
		FailureDecay:     cfg.Supervisor.FailureDecay,
		FailureBackoff:   cfg.Supervisor.FailureBackoff,
		ShutdownTimeout:  cfg.Supervisor.ShutdownTimeout,
	})
	if err != nil {
		return nil, err
	}
	a.tree = tree

	if gc, ok := store.(services.GarbageCollector); ok && cfg.Store.GCInterval > 0 {
		tree.AddStorageService(services.NewGCService(gc, cfg.Store.GCInterval))
	}
	tree.AddPipelineService(services.NewEventLogWriterService(a.events))

	if cfg.Outbox.Enabled {
		if err := a.buildOutbox(ctx, cfg); err != nil {
			return nil, err
		}
	}

	h, err := api.NewHandler(api.Deps{
		Events:       a.events,
		Registry:     a.registry,
		Outbox:       a.outbox,
		MaxQueryTime: cfg.Server.MaxQueryTime,
	})
	if err != nil {
		return nil, err
	}
	a.handler = api.NewRouter(h, api.RouterConfig{
		CORSOrigins:       cfg.Server.CORSOrigins,
		RateLimitRequests: cfg.Server.RateLimitReqs,
		RateLimitWindow:   cfg.Server.RateLimitWindow,
	})
	tree.AddAPIService(services.NewHTTPServerService(&http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           a.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		IdleTimeout:       2 * time.Minute,
	}, cfg.Supervisor.ShutdownTimeout))

	return a, nil
}

// buildOutbox creates one outbox per kind. Without a gateway URL messages
// are recorded in the event log instead of being sent.
func (a *app) buildOutbox(ctx context.Context, cfg *config.Config) error {
	var sender outbox.Sender = outbox.LogSender{Events: a.events}
	if cfg.Outbox.GatewayURL != "" {
		sender = outbox.NewHTTPSender(cfg.Outbox.GatewayURL, cfg.Outbox.GatewayToken)
	} else {
		logging.Warn().Msg("No outbox gateway configured, messages will only be logged")
	}

	boxes := make([]*outbox.Outbox, 0, 2)
	for _, kind := range []outbox.Kind{outbox.KindSMS, outbox.KindEmail} {
		q, err := a.registry.Open(ctx, kind.Category())
		if err != nil {
			return fmt.Errorf("open %s queue: %w", kind, err)
		}
		box, err := outbox.New(q, kind, sender, cfg.OutboxConfig())
		if err != nil {
			return err
		}
		a.tree.AddPipelineService(services.NewOutboxService(string(kind), box))
		boxes = append(boxes, box)
	}
	a.outbox = outbox.NewRouter(boxes...)
	return nil
}

// close flushes the event log and closes the store. The supervisor tree
// must already have stopped.
func (a *app) close() error {
	logging.SetLogger(a.baseLogger)

	var errs []error
	if a.events != nil {
		if err := a.events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close event log: %w", err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	return errors.Join(errs...)
}
