// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

// Command localdbctl talks to a running LocalDB server over its HTTP API.
//
//	localdbctl stats
//	localdbctl events search --min-level warn --text disk
//	localdbctl events export --format parquet -o events.parquet
//	localdbctl messages send --kind sms --to +14155550100 --body "hi"
//	localdbctl queues clear SMS_QUEUE --yes
//
// The server URL comes from --server or LOCALDB_URL.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/localdb/internal/logging"
)

func main() {
	logging.Init(logging.Config{Level: "warn", Format: "console", Output: os.Stderr})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
