// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/localdb/internal/eventlog"
	"github.com/tomtom215/localdb/internal/outbox"
)

// StoreStats describes the key-value store.
type StoreStats struct {
	Backend       string `json:"backend"`
	Status        string `json:"status"`
	DiskSpaceUsed int64  `json:"disk_space_used"`
}

// StatsResponse is the body of GET /api/v1/stats.
type StatsResponse struct {
	Uptime   string         `json:"uptime"`
	Store    StoreStats     `json:"store"`
	EventLog eventlog.Stats `json:"eventlog"`
	Outbox   []outbox.Stats `json:"outbox,omitempty"`
	Queues   []QueueInfo    `json:"queues"`
}

// Stats handles GET /api/v1/stats.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	resp := StatsResponse{
		Uptime: time.Since(h.startedAt).Truncate(time.Second).String(),
		Store: StoreStats{
			Backend:       h.store.Kind(),
			Status:        h.store.Status().String(),
			DiskSpaceUsed: h.store.DiskSpaceUsed(),
		},
		EventLog: h.events.Stats(),
		Queues:   h.queueInfos(r),
	}
	if h.outbox != nil {
		resp.Outbox = h.outbox.Stats()
	}
	respondOK(w, r, http.StatusOK, resp, start)
}
