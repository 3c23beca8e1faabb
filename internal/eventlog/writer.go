// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

package eventlog

import (
	"context"
	"fmt"
	"time"
)

// run is the writer goroutine. It closes done on exit.
func (l *EventLog) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(l.cfg.CycleInterval)
	defer timer.Stop()

	for {
		if ctx.Err() != nil {
			return
		}
		if l.cycle(ctx) {
			continue
		}

		timer.Reset(l.cfg.CycleInterval)
		select {
		case <-ctx.Done():
			return
		case <-l.wake:
		case <-timer.C:
		}
	}
}

// cycle performs one write step and one retention step and reports
// whether either did any work.
func (l *EventLog) cycle(ctx context.Context) bool {
	wrote := l.writeBatch(ctx)
	trimmed := l.trim(ctx)
	return wrote || trimmed
}

// writeBatch moves up to BatchSize events into the queue. A failed batch is
// kept and retried first on the next cycle.
func (l *EventLog) writeBatch(ctx context.Context) bool {
	batch := l.retry
	if room := l.cfg.BatchSize - len(batch); room > 0 {
		batch = append(batch, l.drainPending(room)...)
	}
	RecordPending(len(l.pending))
	if len(batch) == 0 {
		return false
	}

	if err := l.persist(ctx, batch); err != nil {
		l.retry = batch
		if ctx.Err() == nil {
			l.log.Error().Err(err).Int("batch", len(batch)).Msg("Event batch write failed, will retry")
		}
		return false
	}
	l.retry = nil
	return true
}

// persist encodes events and adds them to the head of the queue in order.
// Events that cannot be encoded are dropped.
func (l *EventLog) persist(ctx context.Context, events []*Event) error {
	encoded := make([]string, 0, len(events))
	for _, e := range events {
		s, err := l.codec.Encode(e)
		if err != nil {
			l.log.Warn().Err(err).Str("topic", e.Topic).Msg("Dropping event that cannot be encoded")
			l.dropped.Add(1)
			RecordDropped(dropEncode, 1)
			continue
		}
		encoded = append(encoded, s)
	}
	if len(encoded) == 0 {
		return nil
	}

	start := time.Now()
	err := l.q.AddFirst(ctx, encoded...)
	RecordBatchWrite(time.Since(start).Seconds(), err)
	if err != nil {
		l.failures.Add(1)
		return fmt.Errorf("write %d events: %w", len(encoded), err)
	}
	l.written.Add(int64(len(encoded)))
	RecordWritten(len(encoded))
	return nil
}

// trim applies retention to the tail of the queue and reports whether it
// removed anything.
func (l *EventLog) trim(ctx context.Context) bool {
	size := l.q.Size()
	if size == 0 {
		return false
	}

	if excess := size - l.cfg.MaxEvents; excess > 0 {
		n := min(excess, l.cfg.BatchSize)
		return l.removeTail(ctx, n, trimCount)
	}

	if l.cfg.MaxAge <= 0 {
		return false
	}
	raw, ok, err := l.q.PeekLast(ctx)
	if err != nil {
		if ctx.Err() == nil {
			l.log.Error().Err(err).Msg("Failed to read tail event for age check")
		}
		return false
	}
	if !ok {
		return false
	}

	e, err := l.codec.Decode(raw)
	if err != nil {
		l.log.Warn().Err(err).Msg("Removing undecodable tail event")
		return l.removeTail(ctx, 1, trimUndecodable)
	}
	if time.Since(e.Timestamp) > l.cfg.MaxAge {
		return l.removeTail(ctx, 1, trimAge)
	}
	return false
}

func (l *EventLog) removeTail(ctx context.Context, n int, reason string) bool {
	if err := l.q.RemoveLast(ctx, n); err != nil {
		if ctx.Err() == nil {
			l.log.Error().Err(err).Int("count", n).Str("reason", reason).Msg("Retention trim failed")
		}
		return false
	}
	l.trimmed.Add(int64(n))
	RecordTrimmed(reason, n)
	l.log.Debug().Int("count", n).Str("reason", reason).Msg("Trimmed events")
	return true
}
