// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/tomtom215/localdb/internal/kvstore"
	"github.com/tomtom215/localdb/internal/logging"
	"github.com/tomtom215/localdb/internal/position"
)

// Control keys.
const (
	KeyHead    = "_HEAD_POSITION"
	KeyTail    = "_TAIL_POSITION"
	KeyVersion = "_KEY_VERSION"
)

// FormatVersion is written to KeyVersion. Changing it discards every
// queue stored under the old value on next open.
const FormatVersion = "localdb-queue-1"

// MaxSize is the largest number of elements a queue can hold.
const MaxSize = int(position.RingSize)

// Errors
var (
	ErrEmpty                  = errors.New("queue is empty")
	ErrCapacity               = errors.New("queue capacity exceeded")
	ErrConcurrentModification = errors.New("queue modified during iteration")
	ErrCorrupt                = errors.New("queue control data is corrupt")
	ErrMissingElement         = errors.New("queue element missing from store")
)

// Queue is a persistent double-ended queue over one store category.
type Queue struct {
	mu    sync.RWMutex
	store kvstore.Store
	cat   kvstore.Category
	log   zerolog.Logger

	head  position.Position
	tail  position.Position
	empty bool

	modCount atomic.Uint64
}

// Open loads the queue stored in cat, initializing the category if it has
// never held a queue or if its format tag is stale.
func Open(ctx context.Context, store kvstore.Store, cat kvstore.Category) (*Queue, error) {
	q := &Queue{
		store: store,
		cat:   cat,
		log:   logging.WithComponent("queue").With().Str("category", string(cat)).Logger(),
	}

	version, found, err := store.Get(ctx, cat, KeyVersion)
	if err != nil {
		return nil, fmt.Errorf("read format version: %w", err)
	}
	if !found || version != FormatVersion {
		if err := q.reinitialize(ctx, version, found); err != nil {
			return nil, err
		}
		return q, nil
	}

	head, err := q.loadPosition(ctx, KeyHead)
	if err != nil {
		return nil, err
	}
	tail, err := q.loadPosition(ctx, KeyTail)
	if err != nil {
		return nil, err
	}
	present, err := store.Contains(ctx, cat, head.String())
	if err != nil {
		return nil, fmt.Errorf("check head element: %w", err)
	}

	q.head, q.tail, q.empty = head, tail, !present
	if q.empty {
		q.tail = q.head
	}
	recordSize(cat, q.sizeLocked())

	q.log.Debug().
		Str("head", q.head.String()).
		Str("tail", q.tail.String()).
		Int("size", q.sizeLocked()).
		Msg("Queue opened")
	return q, nil
}

func (q *Queue) reinitialize(ctx context.Context, stored string, found bool) error {
	existing, err := q.store.Size(ctx, q.cat)
	if err != nil {
		return fmt.Errorf("inspect category: %w", err)
	}
	if found || existing > 0 {
		q.log.Warn().
			Str("stored_version", stored).
			Str("expected_version", FormatVersion).
			Int64("discarded", existing).
			Msg("Queue format version mismatch, clearing stored data")
		recordReset(q.cat)
	} else {
		q.log.Info().Msg("Initializing new queue")
	}
	return q.clearLocked(ctx)
}

func (q *Queue) loadPosition(ctx context.Context, key string) (position.Position, error) {
	raw, found, err := q.store.Get(ctx, q.cat, key)
	if err != nil {
		return position.Zero, fmt.Errorf("read %s: %w", key, err)
	}
	if !found {
		return position.Zero, fmt.Errorf("%w: %s missing", ErrCorrupt, key)
	}
	p, err := position.Parse(raw)
	if err != nil {
		return position.Zero, fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	return p, nil
}

// Category returns the store category backing the queue.
func (q *Queue) Category() kvstore.Category {
	return q.cat
}

// ModCount returns the structural modification counter.
func (q *Queue) ModCount() uint64 {
	return q.modCount.Load()
}

// Size returns the number of elements.
func (q *Queue) Size() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.sizeLocked()
}

func (q *Queue) sizeLocked() int {
	if q.empty {
		return 0
	}
	return int(q.tail.DistanceTo(q.head)) + 1
}

// IsEmpty reports whether the queue has no elements.
func (q *Queue) IsEmpty() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.empty
}

// Head returns the head position. When the queue is empty it is the
// position the next AddFirst will use.
func (q *Queue) Head() position.Position {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.head
}

// Tail returns the tail position.
func (q *Queue) Tail() position.Position {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.tail
}

// AddFirst inserts values at the head, in order, so the last value becomes
// the new head.
func (q *Queue) AddFirst(ctx context.Context, values ...string) error {
	if len(values) == 0 {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.checkCapacity(len(values)); err != nil {
		return err
	}

	batch := make(map[string]string, len(values)+2)
	next := q.head
	for i, v := range values {
		if i > 0 || !q.empty {
			next = next.Next()
		}
		batch[next.String()] = v
	}
	batch[KeyHead] = next.String()
	if q.empty {
		batch[KeyTail] = q.tail.String()
	}

	if err := q.store.PutAll(ctx, q.cat, batch); err != nil {
		return fmt.Errorf("add first: %w", err)
	}
	q.head = next
	q.empty = false
	q.mutated()
	return nil
}

// AddLast inserts values at the tail, in order, so the last value becomes
// the new tail.
func (q *Queue) AddLast(ctx context.Context, values ...string) error {
	if len(values) == 0 {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()

	if err := q.checkCapacity(len(values)); err != nil {
		return err
	}

	batch := make(map[string]string, len(values)+2)
	next := q.tail
	for i, v := range values {
		if i > 0 || !q.empty {
			next = next.Prev()
		}
		batch[next.String()] = v
	}
	batch[KeyTail] = next.String()
	if q.empty {
		batch[KeyHead] = q.head.String()
	}

	if err := q.store.PutAll(ctx, q.cat, batch); err != nil {
		return fmt.Errorf("add last: %w", err)
	}
	q.tail = next
	q.empty = false
	q.mutated()
	return nil
}

func (q *Queue) checkCapacity(adding int) error {
	if size := q.sizeLocked(); size+adding > MaxSize {
		return fmt.Errorf("%w: size %d + %d > %d", ErrCapacity, size, adding, MaxSize)
	}
	return nil
}

// RemoveFirst removes n elements from the head. Removing at least Size
// elements clears the queue.
func (q *Queue) RemoveFirst(ctx context.Context, n int) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.removeLocked(ctx, n, true)
}

// RemoveLast removes n elements from the tail. Removing at least Size
// elements clears the queue.
func (q *Queue) RemoveLast(ctx context.Context, n int) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.removeLocked(ctx, n, false)
}

func (q *Queue) removeLocked(ctx context.Context, n int, fromHead bool) error {
	if n <= 0 {
		return nil
	}
	if q.empty {
		return ErrEmpty
	}
	if n >= q.sizeLocked() {
		return q.clearLocked(ctx)
	}

	keys := make([]string, 0, n)
	p := q.tail
	if fromHead {
		p = q.head
	}
	for i := 0; i < n; i++ {
		keys = append(keys, p.String())
		if fromHead {
			p = p.Prev()
		} else {
			p = p.Next()
		}
	}

	// The boundary moves first so a failed delete leaves unreachable
	// elements rather than a boundary pointing at deleted ones.
	controlKey := KeyTail
	if fromHead {
		controlKey = KeyHead
	}
	if _, err := q.store.Put(ctx, q.cat, controlKey, p.String()); err != nil {
		return fmt.Errorf("move %s: %w", controlKey, err)
	}
	if fromHead {
		q.head = p
	} else {
		q.tail = p
	}
	q.mutated()

	if err := q.store.RemoveAll(ctx, q.cat, keys); err != nil {
		return fmt.Errorf("remove elements: %w", err)
	}
	return nil
}

// Clear removes every element and resets both boundaries to zero.
func (q *Queue) Clear(ctx context.Context) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.clearLocked(ctx)
}

func (q *Queue) clearLocked(ctx context.Context) error {
	if err := q.store.Truncate(ctx, q.cat); err != nil {
		return fmt.Errorf("clear: %w", err)
	}
	q.head, q.tail, q.empty = position.Zero, position.Zero, true
	q.mutated()

	if err := q.store.PutAll(ctx, q.cat, map[string]string{
		KeyVersion: FormatVersion,
		KeyHead:    position.Zero.String(),
		KeyTail:    position.Zero.String(),
	}); err != nil {
		return fmt.Errorf("clear: write control keys: %w", err)
	}
	return nil
}

// GetFirst returns up to n elements starting at the head, newest first.
func (q *Queue) GetFirst(ctx context.Context, n int) ([]string, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.getLocked(ctx, n, true)
}

// GetLast returns up to n elements starting at the tail, oldest first.
func (q *Queue) GetLast(ctx context.Context, n int) ([]string, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.getLocked(ctx, n, false)
}

func (q *Queue) getLocked(ctx context.Context, n int, fromHead bool) ([]string, error) {
	if size := q.sizeLocked(); n > size {
		n = size
	}
	if n <= 0 {
		return nil, nil
	}

	out := make([]string, 0, n)
	p := q.tail
	if fromHead {
		p = q.head
	}
	for i := 0; i < n; i++ {
		v, err := q.valueAt(ctx, p)
		if err != nil {
			return out, err
		}
		out = append(out, v)
		if fromHead {
			p = p.Prev()
		} else {
			p = p.Next()
		}
	}
	return out, nil
}

func (q *Queue) valueAt(ctx context.Context, p position.Position) (string, error) {
	v, found, err := q.store.Get(ctx, q.cat, p.String())
	if err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("%w: %s", ErrMissingElement, p)
	}
	return v, nil
}

// PeekFirst returns the head element without removing it.
func (q *Queue) PeekFirst(ctx context.Context) (string, bool, error) {
	return q.peek(ctx, true)
}

// PeekLast returns the tail element without removing it.
func (q *Queue) PeekLast(ctx context.Context) (string, bool, error) {
	return q.peek(ctx, false)
}

func (q *Queue) peek(ctx context.Context, fromHead bool) (string, bool, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.peekLocked(ctx, fromHead)
}

func (q *Queue) peekLocked(ctx context.Context, fromHead bool) (string, bool, error) {
	if q.empty {
		return "", false, nil
	}
	p := q.tail
	if fromHead {
		p = q.head
	}
	v, err := q.valueAt(ctx, p)
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// PollFirst removes and returns the head element. ok is false when the
// queue is empty.
func (q *Queue) PollFirst(ctx context.Context) (string, bool, error) {
	return q.poll(ctx, true)
}

// PollLast removes and returns the tail element. ok is false when the
// queue is empty.
func (q *Queue) PollLast(ctx context.Context) (string, bool, error) {
	return q.poll(ctx, false)
}

func (q *Queue) poll(ctx context.Context, fromHead bool) (string, bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	v, ok, err := q.peekLocked(ctx, fromHead)
	if err != nil || !ok {
		return "", false, err
	}
	if err := q.removeLocked(ctx, 1, fromHead); err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Push inserts value at the head.
func (q *Queue) Push(ctx context.Context, value string) error {
	return q.AddFirst(ctx, value)
}

// Pop removes and returns the head element, or ErrEmpty.
func (q *Queue) Pop(ctx context.Context) (string, error) {
	v, ok, err := q.PollFirst(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrEmpty
	}
	return v, nil
}

// mutated must be called with mu held for writing.
func (q *Queue) mutated() {
	q.modCount.Add(1)
	recordSize(q.cat, q.sizeLocked())
}
