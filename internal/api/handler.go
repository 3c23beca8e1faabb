// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

package api

import (
	"errors"
	"time"

	"github.com/tomtom215/localdb/internal/eventlog"
	"github.com/tomtom215/localdb/internal/kvstore"
	"github.com/tomtom215/localdb/internal/outbox"
	"github.com/tomtom215/localdb/internal/queue"
)

// Deps are the components the handlers serve.
type Deps struct {
	Events   *eventlog.EventLog
	Registry *queue.Registry

	// Outbox is nil when message delivery is disabled.
	Outbox *outbox.Router

	// MaxQueryTime caps search duration. Default: 10s
	MaxQueryTime time.Duration
}

// Handler holds the HTTP handlers.
type Handler struct {
	events       *eventlog.EventLog
	registry     *queue.Registry
	store        kvstore.Store
	outbox       *outbox.Router
	maxQueryTime time.Duration
	startedAt    time.Time
}

// NewHandler validates deps and builds a Handler.
func NewHandler(d Deps) (*Handler, error) {
	if d.Events == nil {
		return nil, errors.New("api: event log is required")
	}
	if d.Registry == nil || d.Registry.Store() == nil {
		return nil, errors.New("api: queue registry is required")
	}
	if d.MaxQueryTime <= 0 {
		d.MaxQueryTime = 10 * time.Second
	}
	return &Handler{
		events:       d.Events,
		registry:     d.Registry,
		store:        d.Registry.Store(),
		outbox:       d.Outbox,
		maxQueryTime: d.MaxQueryTime,
		startedAt:    time.Now(),
	}, nil
}
