// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

package eventlog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/localdb/internal/logging"
	"github.com/tomtom215/localdb/internal/queue"
)

// Status is the lifecycle state of an EventLog.
type Status int32

const (
	StatusNew Status = iota
	StatusOpen
	StatusClosing
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusNew:
		return "NEW"
	case StatusOpen:
		return "OPEN"
	case StatusClosing:
		return "CLOSING"
	case StatusClosed:
		return "CLOSED"
	default:
		return fmt.Sprintf("Status(%d)", int32(s))
	}
}

// Errors
var (
	ErrClosed         = errors.New("event log is closed")
	ErrAlreadyRunning = errors.New("event log writer is already running")
	ErrNilQueue       = errors.New("event log requires a queue")
)

// EventLog buffers events in memory and persists them to a queue from a
// single writer goroutine.
type EventLog struct {
	q     *queue.Queue
	cfg   Config
	codec Codec
	log   zerolog.Logger

	pending chan *Event
	wake    chan struct{}

	// dropWarn limits "dropping event" warnings to one per second.
	dropWarn *rate.Limiter

	// admit is held shared by WriteEvent from its status check through the
	// send, and exclusively by Close while it leaves StatusOpen, so every
	// accepted event is in pending before Close drains it.
	admit sync.RWMutex

	mu      sync.Mutex
	status  atomic.Int32
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	// retry holds a batch whose write failed. Only the writer goroutine
	// touches it while running; Close reads it after the writer exits.
	retry []*Event

	written  atomic.Int64
	dropped  atomic.Int64
	ignored  atomic.Int64
	trimmed  atomic.Int64
	failures atomic.Int64
}

// Stats is a snapshot of event log counters.
type Stats struct {
	Status      string `json:"status"`
	Running     bool   `json:"running"`
	Pending     int    `json:"pending"`
	Stored      int    `json:"stored"`
	Written     int64  `json:"written"`
	Dropped     int64  `json:"dropped"`
	Ignored     int64  `json:"ignored"`
	Trimmed     int64  `json:"trimmed"`
	WriteErrors int64  `json:"write_errors"`
	MaxEvents   int    `json:"max_events"`
	MaxPending  int    `json:"max_pending"`
}

// New creates an event log over q. A nil codec selects JSONCodec.
func New(q *queue.Queue, cfg Config, codec Codec) (*EventLog, error) {
	if q == nil {
		return nil, ErrNilQueue
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid event log config: %w", err)
	}
	cfg = cfg.withDefaults()
	if codec == nil {
		codec = JSONCodec{}
	}

	return &EventLog{
		q:        q,
		cfg:      cfg,
		codec:    codec,
		log:      logging.WithComponent("eventlog").With().Str("category", string(q.Category())).Logger(),
		pending:  make(chan *Event, cfg.MaxPending),
		wake:     make(chan struct{}, 1),
		dropWarn: rate.NewLimiter(rate.Every(time.Second), 1),
	}, nil
}

// Config returns the effective configuration.
func (l *EventLog) Config() Config {
	return l.cfg
}

// Status returns the lifecycle state.
func (l *EventLog) Status() Status {
	return Status(l.status.Load())
}

// Start launches the writer goroutine and moves the log to StatusOpen. It
// may be called again after Stop.
func (l *EventLog) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.Status() {
	case StatusClosing, StatusClosed:
		return ErrClosed
	}
	if l.running {
		return ErrAlreadyRunning
	}
	if l.done != nil {
		select {
		case <-l.done:
		default:
			// A previous writer missed its stop deadline and still owns retry.
			return ErrAlreadyRunning
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.done = make(chan struct{})
	l.running = true
	l.status.Store(int32(StatusOpen))

	go l.run(runCtx, l.done)

	l.log.Info().
		Int("max_events", l.cfg.MaxEvents).
		Dur("max_age", l.cfg.MaxAge).
		Int("batch_size", l.cfg.BatchSize).
		Int("max_pending", l.cfg.MaxPending).
		Msg("Event log writer started")
	return nil
}

// Stop stops the writer goroutine without closing the log. Pending events
// stay buffered until the writer is started again or the log is closed.
func (l *EventLog) Stop() error {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return nil
	}
	l.running = false
	cancel, done := l.cancel, l.done
	l.mu.Unlock()

	cancel()
	select {
	case <-done:
		l.log.Info().Msg("Event log writer stopped")
		return nil
	case <-time.After(l.cfg.StopTimeout):
		l.log.Warn().Dur("timeout", l.cfg.StopTimeout).Msg("Event log writer did not stop in time")
		return fmt.Errorf("event log writer stop timeout after %v", l.cfg.StopTimeout)
	}
}

// IsRunning reports whether the writer goroutine is running.
func (l *EventLog) IsRunning() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

// WriteEvent queues e for persistence and reports whether it was accepted.
// It never waits on the writer. Events below Config.MinLevel are ignored,
// and events arriving while the pending buffer is full or the log is
// closing are dropped. An accepted event is always written or counted by
// Close.
func (l *EventLog) WriteEvent(e *Event) bool {
	if e == nil {
		return false
	}
	if e.Level < l.cfg.MinLevel {
		l.ignored.Add(1)
		return false
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	// The drop warning is logged after admit is released; it may come back
	// here through the log hook.
	if reason := l.admitEvent(e); reason != "" {
		l.drop(reason)
		return false
	}
	return true
}

// admitEvent sends e to the pending buffer unless the log is closing or the
// buffer is full, and returns the drop reason otherwise.
func (l *EventLog) admitEvent(e *Event) string {
	l.admit.RLock()
	defer l.admit.RUnlock()

	switch l.Status() {
	case StatusClosing, StatusClosed:
		return dropClosed
	}

	select {
	case l.pending <- e:
	default:
		return dropOverflow
	}
	n := len(l.pending)
	RecordPending(n)
	if n >= l.cfg.WakeThreshold {
		select {
		case l.wake <- struct{}{}:
		default:
		}
	}
	return ""
}

func (l *EventLog) drop(reason string) {
	n := l.dropped.Add(1)
	RecordDropped(reason, 1)
	if l.dropWarn.Allow() {
		l.log.Warn().
			Str("reason", reason).
			Int64("dropped_total", n).
			Int("max_pending", l.cfg.MaxPending).
			Msg("Event log buffer full or closed, dropping event")
	}
}

// PendingCount returns the number of buffered events not yet written.
func (l *EventLog) PendingCount() int {
	return len(l.pending)
}

// Size returns the number of stored events.
func (l *EventLog) Size() int {
	return l.q.Size()
}

// Stats returns a snapshot of counters.
func (l *EventLog) Stats() Stats {
	return Stats{
		Status:      l.Status().String(),
		Running:     l.IsRunning(),
		Pending:     l.PendingCount(),
		Stored:      l.q.Size(),
		Written:     l.written.Load(),
		Dropped:     l.dropped.Load(),
		Ignored:     l.ignored.Load(),
		Trimmed:     l.trimmed.Load(),
		WriteErrors: l.failures.Load(),
		MaxEvents:   l.cfg.MaxEvents,
		MaxPending:  l.cfg.MaxPending,
	}
}

// Close stops the writer, flushes pending events and moves the log to
// StatusClosed. Events that cannot be written within the two timeouts are
// discarded. Close is idempotent.
func (l *EventLog) Close() error {
	l.admit.Lock()
	l.mu.Lock()
	switch l.Status() {
	case StatusClosing, StatusClosed:
		l.mu.Unlock()
		l.admit.Unlock()
		return nil
	}
	l.status.Store(int32(StatusClosing))
	l.admit.Unlock()
	l.running = false
	cancel, done := l.cancel, l.done
	l.mu.Unlock()

	l.log.Info().Int("pending", l.PendingCount()).Msg("Closing event log")

	writerStopped := true
	if cancel != nil {
		cancel()
		select {
		case <-done:
		case <-time.After(l.cfg.StopTimeout):
			writerStopped = false
			l.log.Warn().Dur("timeout", l.cfg.StopTimeout).Msg("Event log writer did not stop in time")
		}
	}

	var leftovers []*Event
	if writerStopped {
		leftovers = append(leftovers, l.retry...)
		l.retry = nil
	}
	leftovers = append(leftovers, l.drainPending(-1)...)

	var err error
	if len(leftovers) > 0 {
		err = l.flush(leftovers)
	}

	l.status.Store(int32(StatusClosed))
	RecordPending(0)
	l.log.Info().
		Int64("written", l.written.Load()).
		Int64("dropped", l.dropped.Load()).
		Msg("Event log closed")
	return err
}

// flush writes events synchronously in batches within FlushTimeout.
func (l *EventLog) flush(events []*Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), l.cfg.FlushTimeout)
	defer cancel()

	result := make(chan int, 1)
	go func() {
		written := 0
		for written < len(events) && ctx.Err() == nil {
			end := written + l.cfg.BatchSize
			if end > len(events) {
				end = len(events)
			}
			if err := l.persist(ctx, events[written:end]); err != nil {
				l.log.Error().Err(err).Msg("Flush batch write failed")
				break
			}
			written = end
		}
		result <- written
	}()

	select {
	case written := <-result:
		if lost := len(events) - written; lost > 0 {
			RecordDropped(dropShutdown, lost)
			l.dropped.Add(int64(lost))
			l.log.Warn().Int("discarded", lost).Msg("Discarding events not flushed at close")
			return fmt.Errorf("event log flush incomplete: %d events discarded", lost)
		}
		return nil
	case <-ctx.Done():
		RecordDropped(dropShutdown, len(events))
		l.log.Warn().
			Dur("timeout", l.cfg.FlushTimeout).
			Int("unflushed", len(events)).
			Msg("Event log flush timed out, discarding remaining events")
		return fmt.Errorf("event log flush timeout after %v", l.cfg.FlushTimeout)
	}
}

// drainPending takes up to limit events from the pending buffer without
// blocking. A negative limit drains everything.
func (l *EventLog) drainPending(limit int) []*Event {
	var out []*Event
	for limit < 0 || len(out) < limit {
		select {
		case e := <-l.pending:
			out = append(out, e)
		default:
			return out
		}
	}
	return out
}
