// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

package kvstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
)

// runStoreContract exercises the Store contract against a fresh, opened
// store returned by newStore.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("get missing", func(t *testing.T) {
		s := newStore(t)
		v, ok, err := s.Get(ctx, CategoryMeta, "nope")
		if err != nil || ok || v != "" {
			t.Errorf("Get missing = (%q, %v, %v), want empty, false, nil", v, ok, err)
		}
	})

	t.Run("put reports previous presence", func(t *testing.T) {
		s := newStore(t)
		existed, err := s.Put(ctx, CategoryMeta, "k", "v1")
		if err != nil || existed {
			t.Fatalf("first Put = (%v, %v), want false, nil", existed, err)
		}
		existed, err = s.Put(ctx, CategoryMeta, "k", "v2")
		if err != nil || !existed {
			t.Fatalf("second Put = (%v, %v), want true, nil", existed, err)
		}
		v, ok, err := s.Get(ctx, CategoryMeta, "k")
		if err != nil || !ok || v != "v2" {
			t.Errorf("Get = (%q, %v, %v), want v2", v, ok, err)
		}
	})

	t.Run("categories are isolated", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.Put(ctx, CategorySMSQueue, "k", "sms"); err != nil {
			t.Fatal(err)
		}
		if _, err := s.Put(ctx, CategoryEmailQueue, "k", "email"); err != nil {
			t.Fatal(err)
		}
		if err := s.Truncate(ctx, CategorySMSQueue); err != nil {
			t.Fatal(err)
		}
		if ok, _ := s.Contains(ctx, CategorySMSQueue, "k"); ok {
			t.Error("truncated category still contains key")
		}
		v, ok, err := s.Get(ctx, CategoryEmailQueue, "k")
		if err != nil || !ok || v != "email" {
			t.Errorf("other category affected by truncate: (%q, %v, %v)", v, ok, err)
		}
	})

	t.Run("put all and remove all", func(t *testing.T) {
		s := newStore(t)
		values := make(map[string]string)
		for i := 0; i < 50; i++ {
			values[fmt.Sprintf("%06d", i)] = fmt.Sprintf("value-%d", i)
		}
		values["_HEAD_POSITION"] = "000031"
		if err := s.PutAll(ctx, CategoryEventLog, values); err != nil {
			t.Fatal(err)
		}
		n, err := s.Size(ctx, CategoryEventLog)
		if err != nil {
			t.Fatal(err)
		}
		if n != 50 {
			t.Errorf("Size = %d, want 50 (reserved keys excluded)", n)
		}

		var remove []string
		for i := 0; i < 20; i++ {
			remove = append(remove, fmt.Sprintf("%06d", i))
		}
		remove = append(remove, "missing")
		if err := s.RemoveAll(ctx, CategoryEventLog, remove); err != nil {
			t.Fatal(err)
		}
		if n, _ := s.Size(ctx, CategoryEventLog); n != 30 {
			t.Errorf("Size after RemoveAll = %d, want 30", n)
		}
		if ok, _ := s.Contains(ctx, CategoryEventLog, "_HEAD_POSITION"); !ok {
			t.Error("reserved key removed unexpectedly")
		}
	})

	t.Run("remove reports existence", func(t *testing.T) {
		s := newStore(t)
		if _, err := s.Put(ctx, CategoryMeta, "k", "v"); err != nil {
			t.Fatal(err)
		}
		if existed, err := s.Remove(ctx, CategoryMeta, "k"); err != nil || !existed {
			t.Errorf("Remove present = (%v, %v)", existed, err)
		}
		if existed, err := s.Remove(ctx, CategoryMeta, "k"); err != nil || existed {
			t.Errorf("Remove absent = (%v, %v)", existed, err)
		}
	})

	t.Run("truncate removes reserved keys", func(t *testing.T) {
		s := newStore(t)
		if err := s.PutAll(ctx, CategoryMeta, map[string]string{"_KEY_VERSION": "1", "a": "b"}); err != nil {
			t.Fatal(err)
		}
		if err := s.Truncate(ctx, CategoryMeta); err != nil {
			t.Fatal(err)
		}
		it, err := s.Iterator(ctx, CategoryMeta)
		if err != nil {
			t.Fatal(err)
		}
		defer it.Close()
		if it.Next() {
			t.Errorf("iterator after truncate yielded %q", it.Key())
		}
	})

	t.Run("concurrent iterators", func(t *testing.T) {
		s := newStore(t)
		if err := s.PutAll(ctx, CategoryMeta, map[string]string{"a": "1", "b": "2", "c": "3"}); err != nil {
			t.Fatal(err)
		}
		first, err := s.Iterator(ctx, CategoryMeta)
		if err != nil {
			t.Fatal(err)
		}
		defer first.Close()
		second, err := s.Iterator(ctx, CategoryMeta)
		if err != nil {
			t.Fatalf("second iterator on same category: %v", err)
		}
		defer second.Close()

		// Snapshot: later writes are not visible.
		if _, err := s.Put(ctx, CategoryMeta, "d", "4"); err != nil {
			t.Fatal(err)
		}

		for _, it := range []Iterator{first, second} {
			var keys []string
			for it.Next() {
				keys = append(keys, it.Key())
			}
			if err := it.Err(); err != nil {
				t.Fatal(err)
			}
			sort.Strings(keys)
			if fmt.Sprint(keys) != "[a b c]" {
				t.Errorf("iterator keys = %v, want [a b c]", keys)
			}
		}
	})

	t.Run("operations after close fail", func(t *testing.T) {
		s := newStore(t)
		if err := s.Close(); err != nil {
			t.Fatal(err)
		}
		if s.Status() != StatusClosed {
			t.Errorf("Status = %v, want CLOSED", s.Status())
		}
		_, _, err := s.Get(ctx, CategoryMeta, "k")
		if !errors.Is(err, ErrNotOpen) {
			t.Errorf("Get after close error = %v, want ErrNotOpen", err)
		}
		var opErr *OperationError
		if !errors.As(err, &opErr) || opErr.Op != "get" {
			t.Errorf("error %v is not an OperationError for get", err)
		}
		if err := s.Open(ctx); !errors.Is(err, ErrClosed) {
			t.Errorf("reopen after close error = %v, want ErrClosed", err)
		}
	})

	t.Run("open twice", func(t *testing.T) {
		s := newStore(t)
		if err := s.Open(ctx); !errors.Is(err, ErrAlreadyOpen) {
			t.Errorf("second Open error = %v, want ErrAlreadyOpen", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		s := newStore(t)
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		if _, err := s.Put(cctx, CategoryMeta, "k", "v"); !errors.Is(err, context.Canceled) {
			t.Errorf("Put with cancelled ctx error = %v, want context.Canceled", err)
		}
	})
}

func TestMemoryStoreContract(t *testing.T) {
	t.Parallel()

	runStoreContract(t, func(t *testing.T) Store {
		s := NewMemoryStore()
		if err := s.Open(context.Background()); err != nil {
			t.Fatal(err)
		}
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestOperationsBeforeOpen(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	if s.Status() != StatusNew {
		t.Fatalf("Status = %v, want NEW", s.Status())
	}
	if _, err := s.Size(context.Background(), CategoryMeta); !errors.Is(err, ErrNotOpen) {
		t.Errorf("Size before open error = %v, want ErrNotOpen", err)
	}
	if s.DiskSpaceUsed() != 0 {
		t.Error("memory store reported disk usage")
	}
}

func TestEmptyCategoryRejected(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	if err := s.Open(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Put(context.Background(), "", "k", "v"); !errors.Is(err, ErrEmptyCategory) {
		t.Errorf("Put with empty category error = %v, want ErrEmptyCategory", err)
	}
}

func TestIsReserved(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"_HEAD_POSITION": true,
		"_KEY_VERSION":   true,
		"000000":         false,
		"ZZZZZZ":         false,
		"":               false,
	}
	for key, want := range tests {
		if got := IsReserved(key); got != want {
			t.Errorf("IsReserved(%q) = %v, want %v", key, got, want)
		}
	}
}

func TestParseCategory(t *testing.T) {
	t.Parallel()

	c, err := ParseCategory("eventlog_events")
	if err != nil || c != CategoryEventLog {
		t.Errorf("ParseCategory = (%q, %v)", c, err)
	}
	if _, err := ParseCategory("nope"); !errors.Is(err, ErrUnknownCategory) {
		t.Errorf("ParseCategory unknown error = %v", err)
	}
}
