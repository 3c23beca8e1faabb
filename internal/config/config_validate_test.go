// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

package config

import (
	"errors"
	"testing"

	"github.com/tomtom215/localdb/internal/kvstore"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{"defaults", func(*Config) {}, ""},
		{"memory needs no path", func(c *Config) { c.Store.Backend = "memory"; c.Store.Path = "" }, ""},
		{"unknown backend", func(c *Config) { c.Store.Backend = "bolt" }, "Backend"},
		{"badger without path", func(c *Config) { c.Store.Path = "" }, "store.path"},
		{"pebble without path", func(c *Config) { c.Store.Backend = "pebble"; c.Store.Path = "" }, "store.path"},
		{"badger one compactor", func(c *Config) { c.Store.NumCompactors = 1 }, "store.num_compactors"},
		{"gc ratio one", func(c *Config) { c.Store.GCRatio = 1 }, "GCRatio"},
		{"mem table too small", func(c *Config) { c.Store.MemTableSize = 4 << 20 }, "store.mem_table_size"},
		{"mem table badger default", func(c *Config) { c.Store.MemTableSize = 0 }, ""},
		{"value log too small", func(c *Config) { c.Store.ValueLogFileSize = 1 << 10 }, "store.value_log_file_size"},
		{"redis bad addr", func(c *Config) { c.Store.Backend = "redis"; c.Store.Redis.Addr = "nohost" }, "store.redis.addr"},
		{"redis ok", func(c *Config) { c.Store.Backend = "redis"; c.Store.Redis.Addr = "cache:6379" }, ""},
		{"negative max events", func(c *Config) { c.EventLog.MaxEvents = -1 }, "MaxEvents"},
		{"bad min level", func(c *Config) { c.EventLog.MinLevel = "chatty" }, "MinLevel"},
		{"wake above pending", func(c *Config) { c.EventLog.WakeThreshold = 20000 }, "eventlog.wake_threshold"},
		{"gateway ftp", func(c *Config) { c.Outbox.GatewayURL = "ftp://gw.example.com" }, "outbox.gateway_url"},
		{"gateway with path", func(c *Config) { c.Outbox.GatewayURL = "https://gw.example.com/v1" }, ""},
		{"gateway ignored when disabled", func(c *Config) { c.Outbox.Enabled = false; c.Outbox.GatewayURL = "::" }, ""},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, "Port"},
		{"bad host", func(c *Config) { c.Server.Host = "bad host!" }, "server.host"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "Format"},
		{"zero supervisor backoff", func(c *Config) { c.Supervisor.FailureBackoff = 0 }, "FailureBackoff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := defaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var cerr *ConfigError
			if !errors.As(err, &cerr) {
				t.Fatalf("error = %v, want *ConfigError", err)
			}
			if cerr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", cerr.Field, tt.wantField)
			}
		})
	}
}

func TestConverters(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()
	cfg.Store.Redis.Addr = "cache:6379"
	sc := cfg.StoreConfig()
	if sc.Backend != kvstore.BackendBadger || sc.RedisAddr != "cache:6379" || !sc.SyncWrites {
		t.Errorf("StoreConfig = %+v", sc)
	}
	if err := sc.Validate(); err != nil {
		t.Errorf("converted store config invalid: %v", err)
	}

	oc := cfg.OutboxConfig()
	if oc.MaxAttempts != 5 || oc.BreakerTimeout == 0 {
		t.Errorf("OutboxConfig = %+v", oc)
	}
	if err := oc.Validate(); err != nil {
		t.Errorf("converted outbox config invalid: %v", err)
	}

	el := cfg.EventLogConfig()
	if err := el.Validate(); err != nil {
		t.Errorf("converted event log config invalid: %v", err)
	}
}
