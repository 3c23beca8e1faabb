// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

package services

import (
	"context"
	"time"

	"github.com/tomtom215/localdb/internal/logging"
)

// GarbageCollector is satisfied by *kvstore.BadgerStore.
type GarbageCollector interface {
	RunGC() error
}

// GCService reclaims value log space on a fixed interval. GC errors are
// logged and do not stop the service; only context cancellation does.
type GCService struct {
	gc       GarbageCollector
	interval time.Duration
	name     string
}

// NewGCService runs gc every interval. A non-positive interval becomes 10m.
func NewGCService(gc GarbageCollector, interval time.Duration) *GCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &GCService{gc: gc, interval: interval, name: "store-gc"}
}

// Serve implements suture.Service.
func (s *GCService) Serve(ctx context.Context) error {
	log := logging.WithComponent(s.name)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			start := time.Now()
			if err := s.gc.RunGC(); err != nil {
				log.Warn().Err(err).Msg("Value log GC failed")
				continue
			}
			log.Debug().Dur("took", time.Since(start)).Msg("Value log GC complete")
		}
	}
}

// String implements fmt.Stringer.
func (s *GCService) String() string {
	return s.name
}
