// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

package config

import (
	"time"

	"github.com/tomtom215/localdb/internal/eventlog"
	"github.com/tomtom215/localdb/internal/kvstore"
	"github.com/tomtom215/localdb/internal/logging"
	"github.com/tomtom215/localdb/internal/outbox"
)

// Config is the complete application configuration.
type Config struct {
	Store      StoreConfig      `koanf:"store"`
	EventLog   EventLogConfig   `koanf:"eventlog"`
	Outbox     OutboxConfig     `koanf:"outbox"`
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// StoreConfig selects and tunes the key-value backend.
type StoreConfig struct {
	Backend      string        `koanf:"backend" validate:"required,oneof=memory badger pebble redis"`
	Path         string        `koanf:"path"`
	SyncWrites   bool          `koanf:"sync_writes"`
	CloseTimeout time.Duration `koanf:"close_timeout" validate:"gte=0"`

	// Badger tuning
	MemTableSize     int64         `koanf:"mem_table_size" validate:"gte=0"`
	ValueLogFileSize int64         `koanf:"value_log_file_size" validate:"gte=0"`
	NumCompactors    int           `koanf:"num_compactors" validate:"gte=0"`
	Compression      bool          `koanf:"compression"`
	GCInterval       time.Duration `koanf:"gc_interval" validate:"gte=0"`
	GCRatio          float64       `koanf:"gc_ratio" validate:"gte=0,lt=1"`

	Redis RedisConfig `koanf:"redis"`
}

// RedisConfig holds the Redis backend connection.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db" validate:"gte=0,lte=15"`
	Prefix   string `koanf:"prefix"`
}

// EventLogConfig holds event log retention and buffering settings.
type EventLogConfig struct {
	MaxEvents     int           `koanf:"max_events" validate:"gte=0"`
	MaxAge        time.Duration `koanf:"max_age" validate:"gte=0"`
	BatchSize     int           `koanf:"batch_size" validate:"gte=0"`
	MaxPending    int           `koanf:"max_pending" validate:"gte=0"`
	WakeThreshold int           `koanf:"wake_threshold" validate:"gte=0"`
	CycleInterval time.Duration `koanf:"cycle_interval" validate:"gte=0"`
	StopTimeout   time.Duration `koanf:"stop_timeout" validate:"gte=0"`
	FlushTimeout  time.Duration `koanf:"flush_timeout" validate:"gte=0"`
	MinLevel      string        `koanf:"min_level" validate:"omitempty,level"`

	// CaptureLogs copies application log lines into the event log.
	CaptureLogs bool `koanf:"capture_logs"`
}

// OutboxConfig holds SMS and e-mail delivery settings.
type OutboxConfig struct {
	Enabled      bool          `koanf:"enabled"`
	GatewayURL   string        `koanf:"gateway_url"`
	GatewayToken string        `koanf:"gateway_token"`
	SendRate     float64       `koanf:"send_rate" validate:"gte=0"`
	SendBurst    int           `koanf:"send_burst" validate:"gte=0"`
	MaxAge       time.Duration `koanf:"max_age" validate:"gte=0"`
	MaxAttempts  int           `koanf:"max_attempts" validate:"gte=0"`
	PollInterval time.Duration `koanf:"poll_interval" validate:"gte=0"`
	RetryDelay   time.Duration `koanf:"retry_delay" validate:"gte=0"`
	SendTimeout  time.Duration `koanf:"send_timeout" validate:"gte=0"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"gte=1,lte=65535"`
	Timeout         time.Duration `koanf:"timeout" validate:"gt=0"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_requests" validate:"gte=0"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window" validate:"gte=0"`
	MaxQueryTime    time.Duration `koanf:"max_query_time" validate:"gte=0"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"omitempty,oneof=trace debug info warn warning error fatal panic disabled"`
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// SupervisorConfig tunes the suture supervisor tree.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold" validate:"gt=0"`
	FailureDecay     float64       `koanf:"failure_decay" validate:"gt=0"`
	FailureBackoff   time.Duration `koanf:"failure_backoff" validate:"gt=0"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// StoreConfig converts to the kvstore settings.
func (c *Config) StoreConfig() kvstore.Config {
	s := c.Store
	return kvstore.Config{
		Backend:          s.Backend,
		Path:             s.Path,
		SyncWrites:       s.SyncWrites,
		CloseTimeout:     s.CloseTimeout,
		MemTableSize:     s.MemTableSize,
		ValueLogFileSize: s.ValueLogFileSize,
		NumCompactors:    s.NumCompactors,
		Compression:      s.Compression,
		GCRatio:          s.GCRatio,
		RedisAddr:        s.Redis.Addr,
		RedisPassword:    s.Redis.Password,
		RedisDB:          s.Redis.DB,
		RedisPrefix:      s.Redis.Prefix,
	}
}

// EventLogConfig converts to the eventlog settings. MinLevel has been
// validated, so an unparsable value cannot reach here.
func (c *Config) EventLogConfig() eventlog.Config {
	e := c.EventLog
	level := eventlog.LevelTrace
	if e.MinLevel != "" {
		level, _ = eventlog.ParseLevel(e.MinLevel)
	}
	return eventlog.Config{
		MaxEvents:     e.MaxEvents,
		MaxAge:        e.MaxAge,
		BatchSize:     e.BatchSize,
		MaxPending:    e.MaxPending,
		WakeThreshold: e.WakeThreshold,
		CycleInterval: e.CycleInterval,
		StopTimeout:   e.StopTimeout,
		FlushTimeout:  e.FlushTimeout,
		MinLevel:      level,
	}
}

// OutboxConfig converts to the outbox settings. Breaker tuning keeps the
// package defaults.
func (c *Config) OutboxConfig() outbox.Config {
	o := c.Outbox
	cfg := outbox.DefaultConfig()
	cfg.SendRate = o.SendRate
	cfg.SendBurst = o.SendBurst
	cfg.MaxAge = o.MaxAge
	cfg.MaxAttempts = o.MaxAttempts
	cfg.PollInterval = o.PollInterval
	cfg.RetryDelay = o.RetryDelay
	cfg.SendTimeout = o.SendTimeout
	return cfg
}

// LoggingConfig converts to the logging settings.
func (c *Config) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = c.Logging.Level
	cfg.Format = c.Logging.Format
	cfg.Caller = c.Logging.Caller
	return cfg
}
