// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

package outbox

import (
	"fmt"
	"time"
)

// Config controls delivery of one outbox.
type Config struct {
	// SendRate is the sustained sends per second. 0 disables throttling.
	SendRate float64

	// SendBurst is the token bucket size.
	SendBurst int

	// MaxAge drops messages older than this before sending. 0 keeps
	// messages forever.
	MaxAge time.Duration

	// MaxAttempts drops a message after this many failed sends. 0 retries
	// forever.
	MaxAttempts int

	// PollInterval is how often an idle dispatcher checks the queue when
	// no Enqueue wakes it.
	PollInterval time.Duration

	// RetryDelay is the pause after a failed send or a rejected request
	// while the breaker is open.
	RetryDelay time.Duration

	// SendTimeout bounds one Sender call.
	SendTimeout time.Duration

	// StopTimeout bounds how long Stop waits for the dispatcher.
	StopTimeout time.Duration

	// BreakerMinRequests is the number of requests in a window before the
	// failure ratio can open the breaker.
	BreakerMinRequests uint32

	// BreakerFailureRatio opens the breaker at or above this ratio.
	BreakerFailureRatio float64

	// BreakerTimeout is how long the breaker stays open before probing.
	BreakerTimeout time.Duration
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		SendRate:            5,
		SendBurst:           5,
		MaxAge:              24 * time.Hour,
		MaxAttempts:         5,
		PollInterval:        time.Second,
		RetryDelay:          5 * time.Second,
		SendTimeout:         10 * time.Second,
		StopTimeout:         5 * time.Second,
		BreakerMinRequests:  5,
		BreakerFailureRatio: 0.6,
		BreakerTimeout:      time.Minute,
	}
}

// Validate reports out-of-range values.
func (c *Config) Validate() error {
	switch {
	case c.SendRate < 0:
		return fmt.Errorf("send rate must be >= 0, got %v", c.SendRate)
	case c.SendBurst < 0:
		return fmt.Errorf("send burst must be >= 0, got %d", c.SendBurst)
	case c.MaxAge < 0:
		return fmt.Errorf("max age must be >= 0, got %v", c.MaxAge)
	case c.MaxAttempts < 0:
		return fmt.Errorf("max attempts must be >= 0, got %d", c.MaxAttempts)
	case c.BreakerFailureRatio < 0 || c.BreakerFailureRatio > 1:
		return fmt.Errorf("breaker failure ratio must be in [0,1], got %v", c.BreakerFailureRatio)
	}
	return nil
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.SendBurst == 0 {
		c.SendBurst = 1
	}
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = d.RetryDelay
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = d.SendTimeout
	}
	if c.StopTimeout <= 0 {
		c.StopTimeout = d.StopTimeout
	}
	if c.BreakerMinRequests == 0 {
		c.BreakerMinRequests = d.BreakerMinRequests
	}
	if c.BreakerFailureRatio == 0 {
		c.BreakerFailureRatio = d.BreakerFailureRatio
	}
	if c.BreakerTimeout <= 0 {
		c.BreakerTimeout = d.BreakerTimeout
	}
	return c
}
