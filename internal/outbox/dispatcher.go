// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

package outbox

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	gobreaker "github.com/sony/gobreaker/v2"
)

// run is the dispatcher goroutine. It closes done on exit.
func (o *Outbox) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(o.cfg.PollInterval)
	defer timer.Stop()

	for ctx.Err() == nil {
		delay, idle := o.dispatchOne(ctx)
		if delay == 0 {
			continue
		}

		timer.Reset(delay)
		if idle {
			select {
			case <-ctx.Done():
			case <-o.wake:
			case <-timer.C:
			}
			continue
		}
		select {
		case <-ctx.Done():
		case <-timer.C:
		}
	}
}

// dispatchOne handles the tail message. It returns how long to wait before
// the next call and whether the wait is because the queue is empty.
func (o *Outbox) dispatchOne(ctx context.Context) (time.Duration, bool) {
	raw, ok, err := o.q.PeekLast(ctx)
	if err != nil {
		if ctx.Err() == nil {
			o.log.Error().Err(err).Msg("Failed to read outbox tail")
		}
		return o.cfg.RetryDelay, false
	}
	if !ok {
		return o.cfg.PollInterval, true
	}

	m, err := decodeMessage(raw)
	if err != nil {
		o.log.Warn().Err(err).Msg("Dropping undecodable message")
		return o.discard(ctx, dropUndecodable), false
	}
	log := o.log.With().Str("id", m.ID.String()).Logger()

	if o.cfg.MaxAge > 0 && time.Since(m.CreatedAt) > o.cfg.MaxAge {
		log.Warn().Time("created_at", m.CreatedAt).Dur("max_age", o.cfg.MaxAge).Msg("Dropping expired message")
		return o.discard(ctx, dropExpired), false
	}

	if err := o.limiter.Wait(ctx); err != nil {
		return 0, false
	}

	start := time.Now()
	_, err = o.cb.Execute(func() (struct{}, error) {
		sendCtx, cancel := context.WithTimeout(ctx, o.cfg.SendTimeout)
		defer cancel()
		return struct{}{}, o.sender.Send(sendCtx, m)
	})

	kind := string(o.kind)
	switch {
	case err == nil:
		sendLatency.WithLabelValues(kind).Observe(time.Since(start).Seconds())
		if rmErr := o.q.RemoveLast(ctx, 1); rmErr != nil {
			// The message stays at the tail and is sent again.
			log.Error().Err(rmErr).Msg("Delivered message could not be removed")
			return o.cfg.RetryDelay, false
		}
		o.resetAttempts()
		o.sent.Add(1)
		messagesSent.WithLabelValues(kind).Inc()
		log.Debug().Msg("Message delivered")
		return 0, false

	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		sendRejected.WithLabelValues(kind).Inc()
		return o.cfg.RetryDelay, false

	case ctx.Err() != nil:
		return 0, false
	}

	sendLatency.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	o.failed.Add(1)
	sendFailures.WithLabelValues(kind).Inc()

	if IsPermanent(err) {
		log.Warn().Err(err).Msg("Dropping message rejected by sender")
		return o.discard(ctx, dropPermanent), false
	}

	if o.attemptID != m.ID {
		o.attemptID, o.attempts = m.ID, 0
	}
	o.attempts++
	if o.cfg.MaxAttempts > 0 && o.attempts >= o.cfg.MaxAttempts {
		log.Warn().Err(err).Int("attempts", o.attempts).Msg("Dropping message after repeated failures")
		return o.discard(ctx, dropAttempts), false
	}
	log.Warn().Err(err).Int("attempt", o.attempts).Msg("Message send failed, will retry")
	return o.cfg.RetryDelay, false
}

// discard removes the tail message without delivering it.
func (o *Outbox) discard(ctx context.Context, reason string) time.Duration {
	if err := o.q.RemoveLast(ctx, 1); err != nil {
		if ctx.Err() == nil {
			o.log.Error().Err(err).Str("reason", reason).Msg("Failed to drop message")
		}
		return o.cfg.RetryDelay
	}
	o.resetAttempts()
	o.dropped.Add(1)
	messagesDropped.WithLabelValues(string(o.kind), reason).Inc()
	return 0
}

func (o *Outbox) resetAttempts() {
	o.attemptID, o.attempts = uuid.Nil, 0
}
