// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

package config

import (
	"fmt"
	"net"
	"strconv"

	"github.com/tomtom215/localdb/internal/kvstore"
	"github.com/tomtom215/localdb/internal/validation"
)

// ConfigError reports an invalid setting.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Validate checks struct constraints, then settings that depend on each
// other.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		field := "unknown"
		if errs := verr.Errors(); len(errs) > 0 {
			field = errs[0].Field()
		}
		return &ConfigError{Field: field, Err: verr}
	}

	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateEventLog(); err != nil {
		return err
	}
	if err := c.validateOutbox(); err != nil {
		return err
	}
	return c.validateServer()
}

func (c *Config) validateStore() error {
	switch c.Store.Backend {
	case "badger":
		if c.Store.Path == "" {
			return &ConfigError{Field: "store.path", Err: fmt.Errorf("required for the badger backend")}
		}
		if c.Store.NumCompactors < 2 {
			return &ConfigError{Field: "store.num_compactors", Err: fmt.Errorf("must be at least 2, got %d", c.Store.NumCompactors)}
		}
		if c.Store.GCRatio <= 0 {
			return &ConfigError{Field: "store.gc_ratio", Err: fmt.Errorf("must be in (0, 1), got %v", c.Store.GCRatio)}
		}
		if s := c.Store.MemTableSize; s != 0 && s < kvstore.MinBadgerMemTableSize {
			return &ConfigError{Field: "store.mem_table_size", Err: fmt.Errorf("must be at least %d bytes, got %d", kvstore.MinBadgerMemTableSize, s)}
		}
		if s := c.Store.ValueLogFileSize; s != 0 && (s < kvstore.MinBadgerValueLogFileSize || s > kvstore.MaxBadgerValueLogFileSize) {
			return &ConfigError{Field: "store.value_log_file_size", Err: fmt.Errorf("must be between %d and %d bytes, got %d",
				kvstore.MinBadgerValueLogFileSize, kvstore.MaxBadgerValueLogFileSize, s)}
		}
	case "pebble":
		if c.Store.Path == "" {
			return &ConfigError{Field: "store.path", Err: fmt.Errorf("required for the pebble backend")}
		}
	case "redis":
		if verr := validation.ValidateVar("store.redis.addr", c.Store.Redis.Addr, "required,hostname_port"); verr != nil {
			return &ConfigError{Field: "store.redis.addr", Err: verr}
		}
	}
	return nil
}

func (c *Config) validateEventLog() error {
	e := c.EventLog
	if e.MaxPending > 0 && e.WakeThreshold > e.MaxPending {
		return &ConfigError{
			Field: "eventlog.wake_threshold",
			Err:   fmt.Errorf("%d exceeds max_pending %d and would never fire", e.WakeThreshold, e.MaxPending),
		}
	}
	return nil
}

func (c *Config) validateOutbox() error {
	if !c.Outbox.Enabled || c.Outbox.GatewayURL == "" {
		return nil
	}
	if err := validateHTTPURL(c.Outbox.GatewayURL, "OUTBOX_GATEWAY_URL"); err != nil {
		return &ConfigError{Field: "outbox.gateway_url", Err: err}
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Host != "" && net.ParseIP(c.Server.Host) == nil {
		if verr := validation.ValidateVar("server.host", c.Server.Host, "hostname"); verr != nil {
			return &ConfigError{Field: "server.host", Err: verr}
		}
	}
	return nil
}

// Addr returns the listen address.
func (s *ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}
