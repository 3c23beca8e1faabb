// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

package queue

import (
	"context"

	"github.com/tomtom215/localdb/internal/position"
)

// Direction selects the end a walk starts from.
type Direction int

const (
	// FromHead walks newest to oldest.
	FromHead Direction = iota
	// FromTail walks oldest to newest.
	FromTail
)

func (d Direction) String() string {
	if d == FromTail {
		return "tail"
	}
	return "head"
}

// Iterator walks the queue without holding its lock between steps. It is
// fail-fast: once the queue is structurally modified, Next returns false
// and Err returns ErrConcurrentModification.
//
//	it := q.Iterator(queue.FromHead)
//	for it.Next(ctx) {
//	    use(it.Value())
//	}
//	if err := it.Err(); err != nil {
//	    // restart on ErrConcurrentModification
//	}
type Iterator struct {
	q         *Queue
	dir       Direction
	expected  uint64
	next      position.Position
	remaining int

	value string
	err   error
}

// Iterator returns an iterator positioned before the first element of dir.
func (q *Queue) Iterator(dir Direction) *Iterator {
	q.mu.RLock()
	defer q.mu.RUnlock()

	start := q.head
	if dir == FromTail {
		start = q.tail
	}
	return &Iterator{
		q:         q,
		dir:       dir,
		expected:  q.modCount.Load(),
		next:      start,
		remaining: q.sizeLocked(),
	}
}

// Next advances to the next element.
func (it *Iterator) Next(ctx context.Context) bool {
	if it.err != nil || it.remaining <= 0 {
		return false
	}
	if err := ctx.Err(); err != nil {
		it.err = err
		return false
	}

	it.q.mu.RLock()
	defer it.q.mu.RUnlock()

	if it.q.modCount.Load() != it.expected {
		it.err = ErrConcurrentModification
		return false
	}
	v, err := it.q.valueAt(ctx, it.next)
	if err != nil {
		it.err = err
		return false
	}

	it.value = v
	it.remaining--
	if it.dir == FromHead {
		it.next = it.next.Prev()
	} else {
		it.next = it.next.Next()
	}
	return true
}

// Value returns the element at the current position.
func (it *Iterator) Value() string {
	return it.value
}

// Err returns the error that stopped iteration, if any.
func (it *Iterator) Err() error {
	return it.err
}

// Scan calls fn for each element in dir order while holding the read lock,
// stopping early when fn returns false. Writers wait until Scan returns,
// so fn must not call back into q.
func (q *Queue) Scan(ctx context.Context, dir Direction, fn func(value string) bool) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	p := q.head
	if dir == FromTail {
		p = q.tail
	}
	for n := q.sizeLocked(); n > 0; n-- {
		if err := ctx.Err(); err != nil {
			return err
		}
		v, err := q.valueAt(ctx, p)
		if err != nil {
			return err
		}
		if !fn(v) {
			return nil
		}
		if dir == FromHead {
			p = p.Prev()
		} else {
			p = p.Next()
		}
	}
	return nil
}
