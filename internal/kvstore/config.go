// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

package kvstore

import (
	"fmt"
	"strings"
	"time"
)

// Backend names accepted by New.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendPebble = "pebble"
	BackendRedis  = "redis"
)

// Config selects and tunes a store backend. Only the fields of the chosen
// backend are read.
type Config struct {
	// Backend is one of memory, badger, pebble, redis.
	// Default: badger
	Backend string

	// Path is the data directory for badger and pebble.
	Path string

	// SyncWrites fsyncs every commit.
	// Default: true
	SyncWrites bool

	// CloseTimeout bounds how long Close waits for the backend.
	// Default: 30s
	CloseTimeout time.Duration

	// Badger tuning
	MemTableSize     int64
	ValueLogFileSize int64
	NumCompactors    int
	Compression      bool
	GCRatio          float64

	// Redis connection
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// Badger rejects a value threshold (1MB by default) above 15% of the memtable,
// and value log files outside [1MB, 2GB). Zero sizes keep badger's defaults.
const (
	MinBadgerMemTableSize     int64 = 8 << 20
	MinBadgerValueLogFileSize int64 = 1 << 20
	MaxBadgerValueLogFileSize int64 = 2<<30 - 1
)

// DefaultConfig returns a durable badger configuration.
func DefaultConfig() Config {
	return Config{
		Backend:          BackendBadger,
		Path:             "/data/localdb",
		SyncWrites:       true,
		CloseTimeout:     30 * time.Second,
		MemTableSize:     16 * 1024 * 1024,
		ValueLogFileSize: 64 * 1024 * 1024,
		NumCompactors:    2,
		Compression:      true,
		GCRatio:          0.5,
		RedisAddr:        "localhost:6379",
		RedisPrefix:      "localdb:",
	}
}

// Validate checks the fields used by the selected backend.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Backend) {
	case BackendMemory:
		return nil
	case BackendBadger:
		if c.Path == "" {
			return fmt.Errorf("badger backend requires a path")
		}
		if c.NumCompactors < 2 {
			return fmt.Errorf("badger NumCompactors must be at least 2, got %d", c.NumCompactors)
		}
		if c.GCRatio <= 0 || c.GCRatio >= 1 {
			return fmt.Errorf("badger GCRatio must be in (0, 1), got %v", c.GCRatio)
		}
		return c.validateBadgerSizes()
	case BackendPebble:
		if c.Path == "" {
			return fmt.Errorf("pebble backend requires a path")
		}
		return nil
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("redis backend requires an address")
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Backend)
	}
}

// New constructs, but does not open, the backend named by cfg.Backend.
func New(cfg Config) (Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid store config: %w", err)
	}
	if cfg.CloseTimeout <= 0 {
		cfg.CloseTimeout = 30 * time.Second
	}
	switch strings.ToLower(cfg.Backend) {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendBadger:
		return NewBadgerStore(cfg), nil
	case BackendPebble:
		return NewPebbleStore(cfg), nil
	default:
		return NewRedisStore(cfg), nil
	}
}

func (c *Config) validateBadgerSizes() error {
	if c.MemTableSize != 0 && c.MemTableSize < MinBadgerMemTableSize {
		return fmt.Errorf("badger MemTableSize must be at least %d bytes, got %d", MinBadgerMemTableSize, c.MemTableSize)
	}
	if c.ValueLogFileSize != 0 &&
		(c.ValueLogFileSize < MinBadgerValueLogFileSize || c.ValueLogFileSize > MaxBadgerValueLogFileSize) {
		return fmt.Errorf("badger ValueLogFileSize must be between %d and %d bytes, got %d",
			MinBadgerValueLogFileSize, MaxBadgerValueLogFileSize, c.ValueLogFileSize)
	}
	return nil
}
