// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

package kvstore

import (
	"context"
	"sync"
)

// MemoryStore is a volatile Store backed by one map per category.
type MemoryStore struct {
	lifecycle

	dataMu sync.RWMutex
	data   map[Category]map[string]string
}

// NewMemoryStore returns an unopened MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[Category]map[string]string)}
}

// Kind returns "memory".
func (m *MemoryStore) Kind() string { return BackendMemory }

// Open moves the store to StatusOpen.
func (m *MemoryStore) Open(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.markOpen()
}

// Close drops all data.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status == StatusClosed {
		return nil
	}
	m.status = StatusClosed
	m.dataMu.Lock()
	m.data = make(map[Category]map[string]string)
	m.dataMu.Unlock()
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, cat Category, key string) (string, bool, error) {
	done, err := m.begin(ctx, "get", cat)
	if err != nil {
		return "", false, err
	}
	defer done()

	m.dataMu.RLock()
	defer m.dataMu.RUnlock()
	v, ok := m.data[cat][key]
	return v, ok, nil
}

func (m *MemoryStore) Put(ctx context.Context, cat Category, key, value string) (bool, error) {
	done, err := m.begin(ctx, "put", cat)
	if err != nil {
		return false, err
	}
	defer done()

	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	bucket := m.bucket(cat)
	_, existed := bucket[key]
	bucket[key] = value
	return existed, nil
}

func (m *MemoryStore) PutAll(ctx context.Context, cat Category, values map[string]string) error {
	done, err := m.begin(ctx, "put_all", cat)
	if err != nil {
		return err
	}
	defer done()

	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	bucket := m.bucket(cat)
	for k, v := range values {
		bucket[k] = v
	}
	return nil
}

func (m *MemoryStore) Remove(ctx context.Context, cat Category, key string) (bool, error) {
	done, err := m.begin(ctx, "remove", cat)
	if err != nil {
		return false, err
	}
	defer done()

	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	bucket := m.data[cat]
	if _, ok := bucket[key]; !ok {
		return false, nil
	}
	delete(bucket, key)
	return true, nil
}

func (m *MemoryStore) RemoveAll(ctx context.Context, cat Category, keys []string) error {
	done, err := m.begin(ctx, "remove_all", cat)
	if err != nil {
		return err
	}
	defer done()

	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	bucket := m.data[cat]
	for _, k := range keys {
		delete(bucket, k)
	}
	return nil
}

func (m *MemoryStore) Contains(ctx context.Context, cat Category, key string) (bool, error) {
	done, err := m.begin(ctx, "contains", cat)
	if err != nil {
		return false, err
	}
	defer done()

	m.dataMu.RLock()
	defer m.dataMu.RUnlock()
	_, ok := m.data[cat][key]
	return ok, nil
}

func (m *MemoryStore) Size(ctx context.Context, cat Category) (int64, error) {
	done, err := m.begin(ctx, "size", cat)
	if err != nil {
		return 0, err
	}
	defer done()

	m.dataMu.RLock()
	defer m.dataMu.RUnlock()
	var n int64
	for k := range m.data[cat] {
		if !IsReserved(k) {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) Truncate(ctx context.Context, cat Category) error {
	done, err := m.begin(ctx, "truncate", cat)
	if err != nil {
		return err
	}
	defer done()

	m.dataMu.Lock()
	delete(m.data, cat)
	m.dataMu.Unlock()
	return nil
}

func (m *MemoryStore) Iterator(ctx context.Context, cat Category) (Iterator, error) {
	done, err := m.begin(ctx, "iterator", cat)
	if err != nil {
		return nil, err
	}
	defer done()

	m.dataMu.RLock()
	defer m.dataMu.RUnlock()
	keys := make([]string, 0, len(m.data[cat]))
	for k := range m.data[cat] {
		keys = append(keys, k)
	}
	return newSliceIterator(keys), nil
}

// DiskSpaceUsed is always 0.
func (m *MemoryStore) DiskSpaceUsed() int64 { return 0 }

// bucket must be called with dataMu held for writing.
func (m *MemoryStore) bucket(cat Category) map[string]string {
	b, ok := m.data[cat]
	if !ok {
		b = make(map[string]string)
		m.data[cat] = b
	}
	return b
}
