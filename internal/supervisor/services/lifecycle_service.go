// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

package services

import (
	"context"
	"fmt"
)

// StartStopper matches the background worker lifecycle shared by
// *eventlog.EventLog and *outbox.Outbox.
type StartStopper interface {
	Start(ctx context.Context) error
	Stop() error
}

// LifecycleService adapts a StartStopper to suture. Serve starts the
// component, blocks until ctx is done, then stops it. A failed Start is
// returned so the supervisor backs off and retries.
type LifecycleService struct {
	component StartStopper
	name      string
}

// NewLifecycleService wraps component under the given service name.
func NewLifecycleService(name string, component StartStopper) *LifecycleService {
	return &LifecycleService{component: component, name: name}
}

// NewEventLogWriterService wraps the event log writer.
func NewEventLogWriterService(el StartStopper) *LifecycleService {
	return NewLifecycleService("eventlog-writer", el)
}

// NewOutboxService wraps the dispatcher for one outbox kind.
func NewOutboxService(kind string, box StartStopper) *LifecycleService {
	return NewLifecycleService("outbox-"+kind, box)
}

// Serve implements suture.Service.
func (s *LifecycleService) Serve(ctx context.Context) error {
	if err := s.component.Start(ctx); err != nil {
		return fmt.Errorf("%s start failed: %w", s.name, err)
	}

	<-ctx.Done()

	if err := s.component.Stop(); err != nil {
		return fmt.Errorf("%s stop failed: %w", s.name, err)
	}
	return ctx.Err()
}

// String implements fmt.Stringer.
func (s *LifecycleService) String() string {
	return s.name
}
