// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where a config file is looked for, in order.
var DefaultConfigPaths = []string{
	"localdb.yaml",
	"localdb.yml",
	"/etc/localdb/config.yaml",
	"/etc/localdb/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Backend:          "badger",
			Path:             "/data/localdb",
			SyncWrites:       true,
			CloseTimeout:     30 * time.Second,
			MemTableSize:     16 << 20,
			ValueLogFileSize: 64 << 20,
			NumCompactors:    2,
			Compression:      true,
			GCInterval:       10 * time.Minute,
			GCRatio:          0.5,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "localdb:",
			},
		},
		EventLog: EventLogConfig{
			MaxEvents:     100000,
			MaxAge:        28 * 24 * time.Hour,
			BatchSize:     100,
			MaxPending:    10000,
			WakeThreshold: 100,
			CycleInterval: time.Second,
			StopTimeout:   5 * time.Second,
			FlushTimeout:  5 * time.Second,
			MinLevel:      "trace",
			CaptureLogs:   true,
		},
		Outbox: OutboxConfig{
			Enabled:      true,
			SendRate:     5,
			SendBurst:    5,
			MaxAge:       24 * time.Hour,
			MaxAttempts:  5,
			PollInterval: time.Second,
			RetryDelay:   5 * time.Second,
			SendTimeout:  10 * time.Second,
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            3870,
			Timeout:         30 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			MaxQueryTime:    10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// LoadWithKoanf loads configuration from defaults, the discovered config
// file and the environment.
func LoadWithKoanf() (*Config, error) {
	return Load("")
}

// Load is LoadWithKoanf with an explicit config file. An empty path falls
// back to discovery; a non-empty path must exist.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// STORE_BACKEND -> store.backend, LOG_LEVEL -> logging.level
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed from comma-separated strings when they come
// from the environment.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to config paths.
// Unlisted variables are ignored.
var envMappings = map[string]string{
	"store_backend":             "store.backend",
	"store_path":                "store.path",
	"store_sync_writes":         "store.sync_writes",
	"store_close_timeout":       "store.close_timeout",
	"store_mem_table_size":      "store.mem_table_size",
	"store_value_log_file_size": "store.value_log_file_size",
	"store_num_compactors":      "store.num_compactors",
	"store_compression":         "store.compression",
	"store_gc_interval":         "store.gc_interval",
	"store_gc_ratio":            "store.gc_ratio",
	"redis_addr":                "store.redis.addr",
	"redis_password":            "store.redis.password",
	"redis_db":                  "store.redis.db",
	"redis_prefix":              "store.redis.prefix",

	"eventlog_max_events":     "eventlog.max_events",
	"eventlog_max_age":        "eventlog.max_age",
	"eventlog_batch_size":     "eventlog.batch_size",
	"eventlog_max_pending":    "eventlog.max_pending",
	"eventlog_wake_threshold": "eventlog.wake_threshold",
	"eventlog_cycle_interval": "eventlog.cycle_interval",
	"eventlog_stop_timeout":   "eventlog.stop_timeout",
	"eventlog_flush_timeout":  "eventlog.flush_timeout",
	"eventlog_min_level":      "eventlog.min_level",
	"eventlog_capture_logs":   "eventlog.capture_logs",

	"outbox_enabled":       "outbox.enabled",
	"outbox_gateway_url":   "outbox.gateway_url",
	"outbox_gateway_token": "outbox.gateway_token",
	"outbox_send_rate":     "outbox.send_rate",
	"outbox_send_burst":    "outbox.send_burst",
	"outbox_max_age":       "outbox.max_age",
	"outbox_max_attempts":  "outbox.max_attempts",
	"outbox_poll_interval": "outbox.poll_interval",
	"outbox_retry_delay":   "outbox.retry_delay",
	"outbox_send_timeout":  "outbox.send_timeout",

	"http_host":           "server.host",
	"http_port":           "server.port",
	"http_timeout":        "server.timeout",
	"cors_origins":        "server.cors_origins",
	"rate_limit_requests": "server.rate_limit_requests",
	"rate_limit_window":   "server.rate_limit_window",
	"max_query_time":      "server.max_query_time",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_decay":     "supervisor.failure_decay",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",
}

func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
