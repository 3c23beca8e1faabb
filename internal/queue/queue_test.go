// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

package queue

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/localdb/internal/kvstore"
	"github.com/tomtom215/localdb/internal/position"
)

func newStore(t *testing.T) kvstore.Store {
	t.Helper()
	s := kvstore.NewMemoryStore()
	if err := s.Open(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func openQueue(t *testing.T, s kvstore.Store, cat kvstore.Category) *Queue {
	t.Helper()
	q, err := Open(context.Background(), s, cat)
	if err != nil {
		t.Fatalf("Open(%s): %v", cat, err)
	}
	return q
}

// seed writes a queue state directly into the store.
func seed(t *testing.T, s kvstore.Store, cat kvstore.Category, head, tail position.Position, elems map[position.Position]string) {
	t.Helper()
	values := map[string]string{
		KeyVersion: FormatVersion,
		KeyHead:    head.String(),
		KeyTail:    tail.String(),
	}
	for p, v := range elems {
		values[p.String()] = v
	}
	if err := s.PutAll(context.Background(), cat, values); err != nil {
		t.Fatal(err)
	}
}

func TestNewQueueIsEmpty(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)
	q := openQueue(t, s, kvstore.CategoryEventLog)

	if !q.IsEmpty() || q.Size() != 0 {
		t.Errorf("new queue: empty=%v size=%d", q.IsEmpty(), q.Size())
	}
	if q.Head() != position.Zero || q.Tail() != position.Zero {
		t.Errorf("new queue boundaries = %v/%v", q.Head(), q.Tail())
	}
	v, _, _ := s.Get(ctx, kvstore.CategoryEventLog, KeyVersion)
	if v != FormatVersion {
		t.Errorf("version tag = %q, want %q", v, FormatVersion)
	}
}

func TestAddFirstNewestAtHead(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	q := openQueue(t, newStore(t), kvstore.CategoryEventLog)

	for _, v := range []string{"a", "b", "c"} {
		if err := q.AddFirst(ctx, v); err != nil {
			t.Fatal(err)
		}
	}
	got, err := q.GetFirst(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"c", "b", "a"}; !reflect.DeepEqual(got, want) {
		t.Errorf("GetFirst(3) = %v, want %v", got, want)
	}
	if q.Size() != 3 {
		t.Errorf("Size = %d, want 3", q.Size())
	}
	last, _ := q.GetLast(ctx, 10)
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(last, want) {
		t.Errorf("GetLast(10) = %v, want %v", last, want)
	}
}

func TestAddBatchOrder(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	q := openQueue(t, newStore(t), kvstore.CategoryEventLog)

	if err := q.AddFirst(ctx, "1", "2", "3"); err != nil {
		t.Fatal(err)
	}
	if err := q.AddLast(ctx, "0", "-1"); err != nil {
		t.Fatal(err)
	}
	got, _ := q.GetFirst(ctx, 5)
	if want := []string{"3", "2", "1", "0", "-1"}; !reflect.DeepEqual(got, want) {
		t.Errorf("GetFirst = %v, want %v", got, want)
	}
	if q.Tail() != position.Max-1 {
		t.Errorf("tail = %v, want wrapped to %v", q.Tail(), position.Max-1)
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		fromHead bool
		n        int
	}{
		{"head one", true, 1},
		{"head many", true, 25},
		{"tail one", false, 1},
		{"tail many", false, 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			q := openQueue(t, newStore(t), kvstore.CategoryEventLog)
			if err := q.AddFirst(ctx, "x", "y"); err != nil {
				t.Fatal(err)
			}
			size, head, tail := q.Size(), q.Head(), q.Tail()

			values := make([]string, tt.n)
			for i := range values {
				values[i] = fmt.Sprint(i)
			}
			var err error
			if tt.fromHead {
				err = q.AddFirst(ctx, values...)
			} else {
				err = q.AddLast(ctx, values...)
			}
			if err != nil {
				t.Fatal(err)
			}
			if q.Size() != size+tt.n {
				t.Fatalf("Size after add = %d, want %d", q.Size(), size+tt.n)
			}
			if tt.fromHead {
				err = q.RemoveFirst(ctx, tt.n)
			} else {
				err = q.RemoveLast(ctx, tt.n)
			}
			if err != nil {
				t.Fatal(err)
			}
			if q.Size() != size || q.Head() != head || q.Tail() != tail {
				t.Errorf("after round trip size=%d head=%v tail=%v, want %d %v %v",
					q.Size(), q.Head(), q.Tail(), size, head, tail)
			}
		})
	}
}

func TestPushPop(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	q := openQueue(t, newStore(t), kvstore.CategoryEventLog)

	if err := q.AddFirst(ctx, "older"); err != nil {
		t.Fatal(err)
	}
	if err := q.Push(ctx, "pushed"); err != nil {
		t.Fatal(err)
	}
	v, err := q.Pop(ctx)
	if err != nil || v != "pushed" {
		t.Errorf("Pop = (%q, %v), want pushed", v, err)
	}
	v, err = q.Pop(ctx)
	if err != nil || v != "older" {
		t.Errorf("Pop = (%q, %v), want older", v, err)
	}
	if _, err := q.Pop(ctx); !errors.Is(err, ErrEmpty) {
		t.Errorf("Pop on empty error = %v, want ErrEmpty", err)
	}
}

func TestEmptyQueueOperations(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	q := openQueue(t, newStore(t), kvstore.CategoryEventLog)

	if _, ok, err := q.PollFirst(ctx); ok || err != nil {
		t.Errorf("PollFirst on empty = (%v, %v)", ok, err)
	}
	if _, ok, err := q.PollLast(ctx); ok || err != nil {
		t.Errorf("PollLast on empty = (%v, %v)", ok, err)
	}
	if _, ok, err := q.PeekFirst(ctx); ok || err != nil {
		t.Errorf("PeekFirst on empty = (%v, %v)", ok, err)
	}
	if err := q.RemoveFirst(ctx, 1); !errors.Is(err, ErrEmpty) {
		t.Errorf("RemoveFirst on empty error = %v", err)
	}
	if err := q.RemoveLast(ctx, 1); !errors.Is(err, ErrEmpty) {
		t.Errorf("RemoveLast on empty error = %v", err)
	}
	if got, err := q.GetFirst(ctx, 5); err != nil || len(got) != 0 {
		t.Errorf("GetFirst on empty = (%v, %v)", got, err)
	}
}

func TestPollFromBothEnds(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	q := openQueue(t, newStore(t), kvstore.CategorySMSQueue)

	if err := q.AddFirst(ctx, "first", "second", "third"); err != nil {
		t.Fatal(err)
	}
	if v, ok, _ := q.PollLast(ctx); !ok || v != "first" {
		t.Errorf("PollLast = %q, want first", v)
	}
	if v, ok, _ := q.PeekLast(ctx); !ok || v != "second" {
		t.Errorf("PeekLast = %q, want second", v)
	}
	if v, ok, _ := q.PollFirst(ctx); !ok || v != "third" {
		t.Errorf("PollFirst = %q, want third", v)
	}
	if q.Size() != 1 {
		t.Errorf("Size = %d, want 1", q.Size())
	}
}

func TestRemoveAtLeastSizeClears(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)
	q := openQueue(t, s, kvstore.CategoryEventLog)

	if err := q.AddFirst(ctx, "a", "b", "c", "d"); err != nil {
		t.Fatal(err)
	}
	// Corrupt the tag to prove it is rewritten.
	if _, err := s.Put(ctx, kvstore.CategoryEventLog, KeyVersion, "stale"); err != nil {
		t.Fatal(err)
	}
	before := q.ModCount()

	if err := q.RemoveFirst(ctx, 10); err != nil {
		t.Fatal(err)
	}
	if !q.IsEmpty() || q.Size() != 0 {
		t.Errorf("after RemoveFirst(10): empty=%v size=%d", q.IsEmpty(), q.Size())
	}
	if q.Head() != position.Zero || q.Tail() != position.Zero {
		t.Errorf("boundaries = %v/%v, want zero", q.Head(), q.Tail())
	}
	if v, _, _ := s.Get(ctx, kvstore.CategoryEventLog, KeyVersion); v != FormatVersion {
		t.Errorf("version tag = %q after clear", v)
	}
	if n, _ := s.Size(ctx, kvstore.CategoryEventLog); n != 0 {
		t.Errorf("store still holds %d elements", n)
	}
	if q.ModCount() == before {
		t.Error("clear did not bump modCount")
	}
}

func TestClear(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	q := openQueue(t, newStore(t), kvstore.CategoryEventLog)

	if err := q.AddLast(ctx, "x", "y"); err != nil {
		t.Fatal(err)
	}
	if err := q.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if q.Size() != 0 || !q.IsEmpty() {
		t.Errorf("Size after Clear = %d", q.Size())
	}
	// Usable after clear.
	if err := q.AddFirst(ctx, "z"); err != nil {
		t.Fatal(err)
	}
	if v, ok, _ := q.PeekFirst(ctx); !ok || v != "z" {
		t.Errorf("PeekFirst after clear+add = %q", v)
	}
	if q.Head() != position.Zero {
		t.Errorf("first element after clear stored at %v, want %v", q.Head(), position.Zero)
	}
}

func TestWraparound(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)
	cat := kvstore.CategoryEventLog
	seed(t, s, cat, position.Max-1, position.Max-1, map[position.Position]string{position.Max - 1: "x"})

	q := openQueue(t, s, cat)
	if q.Size() != 1 {
		t.Fatalf("seeded Size = %d", q.Size())
	}
	if err := q.AddFirst(ctx, "y", "z"); err != nil {
		t.Fatal(err)
	}
	if q.Head() != position.Zero {
		t.Errorf("head = %v, want wrapped to 000000", q.Head())
	}
	got, _ := q.GetFirst(ctx, 3)
	if want := []string{"z", "y", "x"}; !reflect.DeepEqual(got, want) {
		t.Errorf("GetFirst across wrap = %v, want %v", got, want)
	}
	if err := q.RemoveLast(ctx, 1); err != nil {
		t.Fatal(err)
	}
	if q.Tail() != position.Max {
		t.Errorf("tail = %v, want %v", q.Tail(), position.Max)
	}
	if got, _ := q.GetLast(ctx, 2); !reflect.DeepEqual(got, []string{"y", "z"}) {
		t.Errorf("GetLast = %v", got)
	}
}

func TestCapacity(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)
	cat := kvstore.CategoryEventLog

	// Tail one step ahead of head means every position is occupied.
	seed(t, s, cat, 5, 6, map[position.Position]string{5: "head", 6: "tail"})
	q := openQueue(t, s, cat)

	if q.Size() != MaxSize {
		t.Fatalf("Size = %d, want %d", q.Size(), MaxSize)
	}
	if err := q.AddFirst(ctx, "overflow"); !errors.Is(err, ErrCapacity) {
		t.Errorf("AddFirst on full queue error = %v, want ErrCapacity", err)
	}
	if err := q.AddLast(ctx, "overflow"); !errors.Is(err, ErrCapacity) {
		t.Errorf("AddLast on full queue error = %v, want ErrCapacity", err)
	}
	if q.Head() != 5 || q.Tail() != 6 {
		t.Error("rejected add moved a boundary")
	}
}

func TestVersionMismatchResets(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)
	cat := kvstore.Category("TEST_VERSION_RESET")

	if err := s.PutAll(ctx, cat, map[string]string{
		KeyVersion: "localdb-queue-0",
		KeyHead:    "000001",
		KeyTail:    "000000",
		"000000":   "old-a",
		"000001":   "old-b",
	}); err != nil {
		t.Fatal(err)
	}

	q := openQueue(t, s, cat)
	if !q.IsEmpty() {
		t.Errorf("queue with stale format not cleared, size=%d", q.Size())
	}
	if n, _ := s.Size(ctx, cat); n != 0 {
		t.Errorf("stale elements remain: %d", n)
	}
	if v, _, _ := s.Get(ctx, cat, KeyVersion); v != FormatVersion {
		t.Errorf("version tag = %q", v)
	}
	if got := testutil.ToFloat64(queueResetsTotal.WithLabelValues(string(cat))); got != 1 {
		t.Errorf("reset counter = %v, want 1", got)
	}
}

func TestCorruptPosition(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)

	if err := s.PutAll(ctx, kvstore.CategoryMeta, map[string]string{
		KeyVersion: FormatVersion,
		KeyHead:    "nope!!",
		KeyTail:    "000000",
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(ctx, s, kvstore.CategoryMeta); !errors.Is(err, ErrCorrupt) {
		t.Errorf("Open with corrupt head error = %v, want ErrCorrupt", err)
	}
}

func TestReopenRestoresState(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)

	q := openQueue(t, s, kvstore.CategoryEmailQueue)
	if err := q.AddFirst(ctx, "a", "b", "c"); err != nil {
		t.Fatal(err)
	}
	if err := q.RemoveLast(ctx, 1); err != nil {
		t.Fatal(err)
	}

	again := openQueue(t, s, kvstore.CategoryEmailQueue)
	if again.Size() != 2 || again.Head() != q.Head() || again.Tail() != q.Tail() {
		t.Errorf("reopened size=%d head=%v tail=%v, want %d %v %v",
			again.Size(), again.Head(), again.Tail(), q.Size(), q.Head(), q.Tail())
	}
	got, _ := again.GetFirst(ctx, 2)
	if !reflect.DeepEqual(got, []string{"c", "b"}) {
		t.Errorf("reopened GetFirst = %v", got)
	}
}

func TestReopenEmptyAfterDrain(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)

	q := openQueue(t, s, kvstore.CategorySMSQueue)
	if err := q.AddFirst(ctx, "a", "b", "c"); err != nil {
		t.Fatal(err)
	}
	if err := q.RemoveLast(ctx, 2); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := q.PollFirst(ctx); !ok || err != nil {
		t.Fatalf("PollFirst = (%v, %v)", ok, err)
	}

	again := openQueue(t, s, kvstore.CategorySMSQueue)
	if !again.IsEmpty() {
		t.Errorf("reopened drained queue size=%d", again.Size())
	}
}

func TestIteratorDirections(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	q := openQueue(t, newStore(t), kvstore.CategoryEventLog)
	if err := q.AddFirst(ctx, "a", "b", "c"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		dir  Direction
		want []string
	}{
		{FromHead, []string{"c", "b", "a"}},
		{FromTail, []string{"a", "b", "c"}},
	}
	for _, tt := range tests {
		var got []string
		it := q.Iterator(tt.dir)
		for it.Next(ctx) {
			got = append(got, it.Value())
		}
		if err := it.Err(); err != nil {
			t.Fatalf("%s iterator: %v", tt.dir, err)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%s iterator = %v, want %v", tt.dir, got, tt.want)
		}
	}
}

func TestIteratorFailFast(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	q := openQueue(t, newStore(t), kvstore.CategoryEventLog)
	if err := q.AddFirst(ctx, "a", "b", "c"); err != nil {
		t.Fatal(err)
	}

	it := q.Iterator(FromHead)
	if !it.Next(ctx) {
		t.Fatalf("first Next failed: %v", it.Err())
	}
	if err := q.AddFirst(ctx, "d"); err != nil {
		t.Fatal(err)
	}
	if it.Next(ctx) {
		t.Error("Next succeeded after concurrent modification")
	}
	if !errors.Is(it.Err(), ErrConcurrentModification) {
		t.Errorf("Err = %v, want ErrConcurrentModification", it.Err())
	}
	if it.Next(ctx) {
		t.Error("Next succeeded after failure")
	}
}

func TestScan(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	q := openQueue(t, newStore(t), kvstore.CategoryEventLog)
	if err := q.AddFirst(ctx, "1", "2", "3", "4", "5"); err != nil {
		t.Fatal(err)
	}

	var got []string
	err := q.Scan(ctx, FromTail, func(v string) bool {
		got = append(got, v)
		return len(got) < 3
	})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, []string{"1", "2", "3"}) {
		t.Errorf("Scan from tail = %v", got)
	}

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	if err := q.Scan(cctx, FromHead, func(string) bool { return true }); !errors.Is(err, context.Canceled) {
		t.Errorf("Scan with cancelled ctx error = %v", err)
	}
}

func TestMissingElement(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newStore(t)
	q := openQueue(t, s, kvstore.CategoryEventLog)
	if err := q.AddFirst(ctx, "a", "b", "c"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Remove(ctx, kvstore.CategoryEventLog, position.New(1).String()); err != nil {
		t.Fatal(err)
	}
	if _, err := q.GetFirst(ctx, 3); !errors.Is(err, ErrMissingElement) {
		t.Errorf("GetFirst over hole error = %v, want ErrMissingElement", err)
	}
}

func TestConcurrentAdds(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	q := openQueue(t, newStore(t), kvstore.CategoryEventLog)

	const writers, perWriter = 8, 50
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				if err := q.AddFirst(ctx, fmt.Sprintf("%d-%d", w, i)); err != nil {
					t.Error(err)
					return
				}
				_, _ = q.GetFirst(ctx, 2)
			}
		}(w)
	}
	wg.Wait()

	if q.Size() != writers*perWriter {
		t.Errorf("Size = %d, want %d", q.Size(), writers*perWriter)
	}
	if q.ModCount() < uint64(writers*perWriter) {
		t.Errorf("ModCount = %d, want at least %d", q.ModCount(), writers*perWriter)
	}
}

func TestStoreNotOpen(t *testing.T) {
	t.Parallel()

	s := kvstore.NewMemoryStore()
	if _, err := Open(context.Background(), s, kvstore.CategoryMeta); !errors.Is(err, kvstore.ErrNotOpen) {
		t.Errorf("Open on unopened store error = %v, want ErrNotOpen", err)
	}
}
