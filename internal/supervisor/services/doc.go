// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

/*
Package services adapts LocalDB components to the suture v4 Service model.

Each wrapper turns a component lifecycle (Start/Stop, ListenAndServe, a
periodic job) into a context-aware Serve method:

	type Service interface {
	    Serve(ctx context.Context) error
	}

# Available Services

LifecycleService:
  - Wraps anything with Start(ctx) error and Stop() error
  - Used for the event log writer and each outbox dispatcher

HTTPServerService:
  - Wraps *http.Server with graceful shutdown
  - http.ErrServerClosed is treated as a clean exit

GCService:
  - Runs value log garbage collection on an interval
  - Only registered for the badger store backend

All wrappers implement fmt.Stringer so suture can name them in log output.
*/
package services
