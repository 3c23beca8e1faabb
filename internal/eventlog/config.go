// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

package eventlog

import (
	"fmt"
	"time"
)

// MinMaxEvents is the floor applied to Config.MaxEvents.
const MinMaxEvents = 1

// Config holds event log settings. They are fixed for the life of an
// EventLog.
type Config struct {
	// MaxEvents is the most events kept in the queue.
	// Default: 100000, minimum MinMaxEvents
	MaxEvents int

	// MaxAge removes tail events older than this. 0 disables age retention.
	// Default: 28 days
	MaxAge time.Duration

	// BatchSize is the most events written, or trimmed for count, per cycle.
	// Default: 100
	BatchSize int

	// MaxPending is the pending buffer capacity. Events beyond it are dropped.
	// Default: 10000
	MaxPending int

	// WakeThreshold wakes a sleeping writer once this many events are pending.
	// Default: BatchSize
	WakeThreshold int

	// CycleInterval is how long an idle writer sleeps.
	// Default: 1s
	CycleInterval time.Duration

	// StopTimeout bounds the wait for the writer during Close and Stop.
	// Default: 5s
	StopTimeout time.Duration

	// FlushTimeout bounds the synchronous flush during Close.
	// Default: 5s
	FlushTimeout time.Duration

	// MinLevel drops events below this level at WriteEvent.
	// Default: LevelTrace
	MinLevel Level
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		MaxEvents:     100000,
		MaxAge:        28 * 24 * time.Hour,
		BatchSize:     100,
		MaxPending:    10000,
		WakeThreshold: 100,
		CycleInterval: time.Second,
		StopTimeout:   5 * time.Second,
		FlushTimeout:  5 * time.Second,
		MinLevel:      LevelTrace,
	}
}

// Validate rejects settings that cannot work.
func (c *Config) Validate() error {
	if c.MaxAge < 0 {
		return fmt.Errorf("MaxAge must not be negative, got %v", c.MaxAge)
	}
	if c.BatchSize < 0 || c.MaxPending < 0 || c.WakeThreshold < 0 {
		return fmt.Errorf("BatchSize, MaxPending and WakeThreshold must not be negative")
	}
	if c.CycleInterval < 0 || c.StopTimeout < 0 || c.FlushTimeout < 0 {
		return fmt.Errorf("intervals and timeouts must not be negative")
	}
	if c.MinLevel < LevelTrace || c.MinLevel > LevelFatal {
		return fmt.Errorf("invalid MinLevel %d", c.MinLevel)
	}
	return nil
}

// withDefaults fills zero fields from DefaultConfig and applies floors.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxEvents < MinMaxEvents {
		c.MaxEvents = MinMaxEvents
	}
	if c.BatchSize == 0 {
		c.BatchSize = d.BatchSize
	}
	if c.MaxPending == 0 {
		c.MaxPending = d.MaxPending
	}
	if c.WakeThreshold == 0 {
		c.WakeThreshold = c.BatchSize
	}
	if c.WakeThreshold > c.MaxPending {
		c.WakeThreshold = c.MaxPending
	}
	if c.CycleInterval == 0 {
		c.CycleInterval = d.CycleInterval
	}
	if c.StopTimeout == 0 {
		c.StopTimeout = d.StopTimeout
	}
	if c.FlushTimeout == 0 {
		c.FlushTimeout = d.FlushTimeout
	}
	return c
}
