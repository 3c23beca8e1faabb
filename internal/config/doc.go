// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

/*
Package config provides configuration loading for LocalDB.

Configuration is layered with koanf, later layers overriding earlier ones:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML file: the path given to Load, else CONFIG_PATH, else
    the first of DefaultConfigPaths that exists
 3. Environment variables

The result is validated once and is not modified afterwards. Components
receive their settings through the converter methods (StoreConfig,
EventLogConfig, OutboxConfig, LoggingConfig).

# Environment Variables

Store:
  - STORE_BACKEND: memory, badger, pebble or redis (default: badger)
  - STORE_PATH: data directory for badger and pebble (default: /data/localdb)
  - STORE_SYNC_WRITES: fsync every commit (default: true)
  - STORE_GC_INTERVAL: badger value log GC interval (default: 10m, 0 disables)
  - REDIS_ADDR, REDIS_PASSWORD, REDIS_DB, REDIS_PREFIX

Event log:
  - EVENTLOG_MAX_EVENTS: retained events (default: 100000)
  - EVENTLOG_MAX_AGE: retained age (default: 672h)
  - EVENTLOG_BATCH_SIZE, EVENTLOG_MAX_PENDING, EVENTLOG_CYCLE_INTERVAL
  - EVENTLOG_MIN_LEVEL: lowest level accepted (default: trace)
  - EVENTLOG_CAPTURE_LOGS: copy application log lines into the event log

Outbox:
  - OUTBOX_ENABLED (default: true)
  - OUTBOX_GATEWAY_URL: delivery gateway; empty records deliveries in the event log
  - OUTBOX_GATEWAY_TOKEN, OUTBOX_SEND_RATE, OUTBOX_SEND_BURST
  - OUTBOX_MAX_AGE, OUTBOX_MAX_ATTEMPTS

Server:
  - HTTP_HOST, HTTP_PORT, HTTP_TIMEOUT
  - CORS_ORIGINS: comma-separated list
  - RATE_LIMIT_REQUESTS, RATE_LIMIT_WINDOW

Logging:
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

Supervisor:
  - SUPERVISOR_FAILURE_THRESHOLD, SUPERVISOR_FAILURE_BACKOFF, SUPERVISOR_SHUTDOWN_TIMEOUT

# Errors

Validation failures are returned as *ConfigError naming the offending
setting.
*/
package config
