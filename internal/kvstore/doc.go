// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

// Package kvstore defines the key-value store contract that the persistent
// queue is built on, along with its backends.
//
// A Store holds any number of categories. Each category is a flat
// string-to-string namespace. The queue keeps its control keys (names
// starting with ReservedPrefix) in the same namespace as its elements,
// and Size excludes them.
//
// # Backends
//
//   - memory: map per category, volatile, used by tests
//   - badger: BadgerDB, keys stored as "<category>/<key>"
//   - pebble: CockroachDB Pebble, same key layout as badger
//   - redis: one hash per category named "<prefix><category>"
//
// Use New to construct the backend named in Config.Backend:
//
//	store, err := kvstore.New(cfg)
//	if err != nil {
//	    return err
//	}
//	if err := store.Open(ctx); err != nil {
//	    return err
//	}
//	defer store.Close()
//
// # Lifecycle
//
// A store starts in StatusNew. Open moves it to StatusOpen and Close to
// StatusClosed. Every data operation on a store that is not open fails
// with ErrNotOpen, which callers must treat as fatal for that call.
//
// # Iteration
//
// Iterators work on a snapshot of the category's keys taken when the
// iterator is created. Any number of iterators may be open at once.
package kvstore
