// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

package kvstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Category names a logical partition of a store.
type Category string

// Categories used by LocalDB.
const (
	CategoryEventLog   Category = "EVENTLOG_EVENTS"
	CategorySMSQueue   Category = "SMS_QUEUE"
	CategoryEmailQueue Category = "EMAIL_QUEUE"
	CategoryMeta       Category = "META"
)

// AllCategories lists every known category.
func AllCategories() []Category {
	return []Category{CategoryEventLog, CategorySMSQueue, CategoryEmailQueue, CategoryMeta}
}

// ParseCategory returns the known category with the given name.
func ParseCategory(name string) (Category, error) {
	for _, c := range AllCategories() {
		if strings.EqualFold(string(c), name) {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, name)
}

// ReservedPrefix marks control keys that Size does not count.
const ReservedPrefix = "_"

// IsReserved reports whether key is a control key.
func IsReserved(key string) bool {
	return strings.HasPrefix(key, ReservedPrefix)
}

// Status is the lifecycle state of a store.
type Status int32

const (
	StatusNew Status = iota
	StatusOpen
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusNew:
		return "NEW"
	case StatusOpen:
		return "OPEN"
	case StatusClosed:
		return "CLOSED"
	default:
		return fmt.Sprintf("Status(%d)", int32(s))
	}
}

// Store is a categorized string key-value store.
type Store interface {
	// Open moves the store from StatusNew to StatusOpen.
	Open(ctx context.Context) error

	// Status returns the current lifecycle state.
	Status() Status

	// Get returns the value stored under key and whether it was present.
	Get(ctx context.Context, cat Category, key string) (string, bool, error)

	// Put stores value under key, overwriting. It reports whether a value
	// was present before.
	Put(ctx context.Context, cat Category, key, value string) (bool, error)

	// PutAll stores every entry of values. Backends with transactions apply
	// the whole map or nothing.
	PutAll(ctx context.Context, cat Category, values map[string]string) error

	// Remove deletes key and reports whether it existed.
	Remove(ctx context.Context, cat Category, key string) (bool, error)

	// RemoveAll deletes every key in keys. Missing keys are ignored.
	RemoveAll(ctx context.Context, cat Category, keys []string) error

	// Contains reports whether key is present.
	Contains(ctx context.Context, cat Category, key string) (bool, error)

	// Size returns the number of non-reserved keys in the category.
	Size(ctx context.Context, cat Category) (int64, error)

	// Truncate removes every key in the category, reserved keys included.
	Truncate(ctx context.Context, cat Category) error

	// Iterator returns an iterator over a snapshot of the category's keys,
	// in no particular order. The caller must Close it.
	Iterator(ctx context.Context, cat Category) (Iterator, error)

	// DiskSpaceUsed is an advisory storage footprint in bytes. Volatile
	// backends return 0.
	DiskSpaceUsed() int64

	// Close releases backend resources and moves the store to StatusClosed.
	Close() error

	// Kind returns the backend name.
	Kind() string
}

// Iterator walks the keys of one category.
//
//	it, err := store.Iterator(ctx, cat)
//	if err != nil {
//	    return err
//	}
//	defer it.Close()
//	for it.Next() {
//	    use(it.Key())
//	}
//	return it.Err()
type Iterator interface {
	Next() bool
	Key() string
	Err() error
	Close() error
}

// Errors
var (
	ErrNotOpen         = errors.New("store is not open")
	ErrAlreadyOpen     = errors.New("store is already open")
	ErrClosed          = errors.New("store is closed")
	ErrUnknownBackend  = errors.New("unknown store backend")
	ErrUnknownCategory = errors.New("unknown category")
	ErrEmptyCategory   = errors.New("category must not be empty")
)

// OperationError wraps a failure of a store operation with the operation
// name and category.
type OperationError struct {
	Op       string
	Category Category
	Err      error
}

func (e *OperationError) Error() string {
	if e.Category == "" {
		return fmt.Sprintf("kvstore %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("kvstore %s %s: %v", e.Op, e.Category, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

func opError(op string, cat Category, err error) error {
	if err == nil {
		return nil
	}
	return &OperationError{Op: op, Category: cat, Err: err}
}

// lifecycle tracks the NEW/OPEN/CLOSED state shared by every backend.
// Data operations hold the read lock for their duration so Close waits
// for them to finish.
type lifecycle struct {
	mu     sync.RWMutex
	status Status
}

// begin acquires the read lock if the store is open. The caller must call
// the returned function when done.
func (l *lifecycle) begin(ctx context.Context, op string, cat Category) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, opError(op, cat, err)
	}
	if cat == "" {
		return nil, opError(op, cat, ErrEmptyCategory)
	}
	l.mu.RLock()
	if l.status != StatusOpen {
		l.mu.RUnlock()
		return nil, opError(op, cat, ErrNotOpen)
	}
	return l.mu.RUnlock, nil
}

func (l *lifecycle) Status() Status {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.status
}

// markOpen must be called with mu held.
func (l *lifecycle) markOpen() error {
	switch l.status {
	case StatusOpen:
		return ErrAlreadyOpen
	case StatusClosed:
		return ErrClosed
	}
	l.status = StatusOpen
	return nil
}

// sliceIterator iterates over a key snapshot.
type sliceIterator struct {
	keys []string
	pos  int
}

func newSliceIterator(keys []string) *sliceIterator {
	return &sliceIterator{keys: keys, pos: -1}
}

func (it *sliceIterator) Next() bool {
	if it.pos+1 >= len(it.keys) {
		it.pos = len(it.keys)
		return false
	}
	it.pos++
	return true
}

func (it *sliceIterator) Key() string {
	if it.pos < 0 || it.pos >= len(it.keys) {
		return ""
	}
	return it.keys[it.pos]
}

func (it *sliceIterator) Err() error { return nil }

func (it *sliceIterator) Close() error {
	it.keys = nil
	return nil
}
