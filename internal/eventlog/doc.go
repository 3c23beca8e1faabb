// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

// Package eventlog stores application events in a persistent queue.
//
// Producers call WriteEvent, which never blocks: the event goes into a
// bounded in-memory pending buffer, or is dropped with a rate-limited
// warning when the buffer is full. A single writer goroutine moves pending
// events into the queue in batches and trims the oldest events to honor
// the retention policy.
//
// # Lifecycle
//
//	NEW ──Start──▶ OPEN ──Close──▶ CLOSING ──▶ CLOSED
//
// Close stops the writer (bounded by Config.StopTimeout), then writes the
// events still pending (bounded by Config.FlushTimeout). Whatever is left
// after both waits is logged and discarded.
//
// # Retention
//
// Each writer cycle removes up to BatchSize events beyond MaxEvents from
// the tail. When the count is within bounds and MaxAge is set, the tail
// event is removed if it is older than MaxAge or cannot be decoded. At most
// one event is removed for age per cycle.
//
// # Search
//
// ReadStoredEvents scans from newest to oldest and stops at MaxCount
// matches or when MaxQueryTime runs out, whichever comes first. Results
// are sorted by timestamp, newest first.
//
// # Application Logs
//
// NewHook returns a zerolog.Hook that copies application log lines into
// the event log:
//
//	logging.SetLogger(logging.Logger().Hook(eventlog.NewHook(el, "app")))
package eventlog
