// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

package outbox

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/localdb/internal/logging"
	"github.com/tomtom215/localdb/internal/queue"
)

// Errors
var (
	ErrNilQueue       = errors.New("outbox requires a queue")
	ErrNilSender      = errors.New("outbox requires a sender")
	ErrKindMismatch   = errors.New("message kind does not match outbox")
	ErrAlreadyRunning = errors.New("outbox dispatcher is already running")
)

// Outbox is a durable delivery queue for one message kind.
type Outbox struct {
	q      *queue.Queue
	kind   Kind
	cfg    Config
	sender Sender
	log    zerolog.Logger

	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[struct{}]
	wake    chan struct{}

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}

	// Attempt tracking for the tail message, owned by the dispatcher.
	attemptID uuid.UUID
	attempts  int

	sent    atomic.Int64
	failed  atomic.Int64
	dropped atomic.Int64
}

// Stats is a snapshot of outbox counters.
type Stats struct {
	Kind    Kind   `json:"kind"`
	Running bool   `json:"running"`
	Pending int    `json:"pending"`
	Sent    int64  `json:"sent"`
	Failed  int64  `json:"failed"`
	Dropped int64  `json:"dropped"`
	Breaker string `json:"breaker"`
}

// New creates an outbox for kind over q.
func New(q *queue.Queue, kind Kind, sender Sender, cfg Config) (*Outbox, error) {
	if q == nil {
		return nil, ErrNilQueue
	}
	if sender == nil {
		return nil, ErrNilSender
	}
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid outbox config: %w", err)
	}
	cfg = cfg.withDefaults()

	limit := rate.Inf
	if cfg.SendRate > 0 {
		limit = rate.Limit(cfg.SendRate)
	}

	o := &Outbox{
		q:       q,
		kind:    kind,
		cfg:     cfg,
		sender:  sender,
		log:     logging.WithComponent("outbox").With().Str("kind", string(kind)).Logger(),
		limiter: rate.NewLimiter(limit, cfg.SendBurst),
		wake:    make(chan struct{}, 1),
	}
	o.cb = o.newBreaker()
	return o, nil
}

func (o *Outbox) newBreaker() *gobreaker.CircuitBreaker[struct{}] {
	name := "outbox-" + string(o.kind)
	breakerState.WithLabelValues(name).Set(0)

	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     o.cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < o.cfg.BreakerMinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= o.cfg.BreakerFailureRatio {
				o.log.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", math.Round(ratio*100)).
					Msg("Opening delivery circuit")
				return true
			}
			return false
		},
		// A permanent rejection says nothing about gateway health.
		IsSuccessful: func(err error) bool {
			return err == nil || IsPermanent(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			o.log.Info().Str("from", from.String()).Str("to", to.String()).Msg("Delivery circuit state change")
			breakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})
}

// Kind returns the message kind this outbox delivers.
func (o *Outbox) Kind() Kind {
	return o.kind
}

// Enqueue validates m and stores it for delivery. A zero ID or CreatedAt
// is filled in.
func (o *Outbox) Enqueue(ctx context.Context, m *Message) error {
	if m.Kind == "" {
		m.Kind = o.kind
	}
	if m.Kind != o.kind {
		return fmt.Errorf("%w: %s outbox got %s", ErrKindMismatch, o.kind, m.Kind)
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if err := m.Validate(); err != nil {
		return err
	}

	raw, err := encodeMessage(m)
	if err != nil {
		return err
	}
	if err := o.q.AddFirst(ctx, raw); err != nil {
		return fmt.Errorf("enqueue %s message: %w", o.kind, err)
	}
	messagesEnqueued.WithLabelValues(string(o.kind)).Inc()

	select {
	case o.wake <- struct{}{}:
	default:
	}
	return nil
}

// Len returns the number of undelivered messages.
func (o *Outbox) Len() int {
	return o.q.Size()
}

// BreakerState returns the current circuit breaker state.
func (o *Outbox) BreakerState() gobreaker.State {
	return o.cb.State()
}

// Stats returns a snapshot of counters.
func (o *Outbox) Stats() Stats {
	return Stats{
		Kind:    o.kind,
		Running: o.IsRunning(),
		Pending: o.Len(),
		Sent:    o.sent.Load(),
		Failed:  o.failed.Load(),
		Dropped: o.dropped.Load(),
		Breaker: o.cb.State().String(),
	}
}

// Start launches the dispatcher goroutine.
func (o *Outbox) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.running {
		return ErrAlreadyRunning
	}
	if o.done != nil {
		select {
		case <-o.done:
		default:
			return ErrAlreadyRunning
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.done = make(chan struct{})
	o.running = true
	go o.run(runCtx, o.done)

	o.log.Info().
		Float64("send_rate", o.cfg.SendRate).
		Int("max_attempts", o.cfg.MaxAttempts).
		Int("pending", o.Len()).
		Msg("Outbox dispatcher started")
	return nil
}

// Stop stops the dispatcher and waits up to Config.StopTimeout. Messages
// stay queued.
func (o *Outbox) Stop() error {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return nil
	}
	o.running = false
	cancel, done := o.cancel, o.done
	o.mu.Unlock()

	cancel()
	select {
	case <-done:
		o.log.Info().Msg("Outbox dispatcher stopped")
		return nil
	case <-time.After(o.cfg.StopTimeout):
		return fmt.Errorf("outbox dispatcher stop timeout after %v", o.cfg.StopTimeout)
	}
}

// IsRunning reports whether the dispatcher is running.
func (o *Outbox) IsRunning() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running
}
