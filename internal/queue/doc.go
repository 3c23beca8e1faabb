// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

// Package queue implements a persistent, circular, double-ended queue on
// top of a kvstore.Store category.
//
// Elements are stored under keys produced by position.Position.String.
// The queue occupies the positions from tail forward to head, wrapping
// through zero if needed. Head is the newest end: AddFirst moves head
// forward and AddLast moves tail backward.
//
// Three control keys live in the same category as the elements:
//
//	_HEAD_POSITION  position of the head element
//	_TAIL_POSITION  position of the tail element
//	_KEY_VERSION    storage format tag, FormatVersion
//
// If the stored format tag does not match FormatVersion when a queue is
// opened, the category is cleared and a warning is logged. Stored data in
// an unknown format is never interpreted.
//
// # Concurrency
//
// Each Queue has one sync.RWMutex. Structural changes (Add*, Remove*,
// Poll*, Clear) are exclusive. Reads (Get*, Peek*, Scan) are shared.
// Iterators do not hold the lock between steps and instead fail with
// ErrConcurrentModification when the queue changes under them. Scan holds
// the read lock for its whole walk and never fails that way.
//
// Use a Registry to make sure only one Queue exists per category.
package queue
