// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

package queue

import (
	"context"
	"sort"
	"sync"

	"github.com/tomtom215/localdb/internal/kvstore"
)

// Registry hands out one shared Queue per category of a store. The
// composition root owns it and passes queues to their consumers.
type Registry struct {
	store kvstore.Store

	mu     sync.Mutex
	queues map[kvstore.Category]*Queue
}

// NewRegistry returns a registry over store.
func NewRegistry(store kvstore.Store) *Registry {
	return &Registry{
		store:  store,
		queues: make(map[kvstore.Category]*Queue),
	}
}

// Store returns the underlying store.
func (r *Registry) Store() kvstore.Store {
	return r.store
}

// Open returns the queue for cat, opening it on first use.
func (r *Registry) Open(ctx context.Context, cat kvstore.Category) (*Queue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if q, ok := r.queues[cat]; ok {
		return q, nil
	}
	q, err := Open(ctx, r.store, cat)
	if err != nil {
		return nil, err
	}
	r.queues[cat] = q
	return q, nil
}

// Categories returns the categories opened so far, sorted.
func (r *Registry) Categories() []kvstore.Category {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]kvstore.Category, 0, len(r.queues))
	for c := range r.queues {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
