// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

// Package logging provides the process-wide zerolog logger for LocalDB.
//
// Every package logs through this package rather than the standard log
// package so output format and level are controlled in one place.
//
// # Quick Start
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logging.Info().Str("category", "EVENTLOG_EVENTS").Msg("Queue opened")
//	logging.Error().Err(err).Msg("Batch write failed")
//
// Components that log frequently derive a child logger once:
//
//	log := logging.WithComponent("eventlog")
//	log.Warn().Int("pending", n).Msg("Pending buffer full, dropping event")
//
// # Configuration
//
// Environment Variables (through internal/config):
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false (default: false)
//
// # Suture Integration
//
// The supervisor tree requires an *slog.Logger. NewSlogLogger returns one
// whose records are written through zerolog, keeping a single output stream.
//
// # Always Terminate Chains
//
// A zerolog event is only emitted by Msg, Msgf or Send:
//
//	logging.Info().Str("key", "value").Msg("message")  // emitted
//	logging.Info().Str("key", "value")                 // dropped
package logging
