// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

package outbox

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// ErrNoOutbox is returned for a message kind with no configured outbox.
var ErrNoOutbox = errors.New("no outbox for message kind")

// Router sends each message to the outbox for its kind.
type Router struct {
	boxes map[Kind]*Outbox
}

// NewRouter returns a router over the given outboxes. Later outboxes of the
// same kind replace earlier ones.
func NewRouter(boxes ...*Outbox) *Router {
	r := &Router{boxes: make(map[Kind]*Outbox, len(boxes))}
	for _, b := range boxes {
		r.boxes[b.Kind()] = b
	}
	return r
}

// Enqueue adds m to the outbox for m.Kind.
func (r *Router) Enqueue(ctx context.Context, m *Message) error {
	b, ok := r.boxes[m.Kind]
	if !ok {
		return fmt.Errorf("%w %q", ErrNoOutbox, m.Kind)
	}
	return b.Enqueue(ctx, m)
}

// Outbox returns the outbox for kind, if configured.
func (r *Router) Outbox(kind Kind) (*Outbox, bool) {
	b, ok := r.boxes[kind]
	return b, ok
}

// Stats returns the stats of every outbox ordered by kind.
func (r *Router) Stats() []Stats {
	out := make([]Stats, 0, len(r.boxes))
	for _, b := range r.boxes {
		out = append(out, b.Stats())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kind < out[j].Kind })
	return out
}
