// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

package api

import (
	"net"
	"net/http"
	"time"

	"github.com/tomtom215/localdb/internal/eventlog"
	"github.com/tomtom215/localdb/internal/kvstore"
)

// Health handles GET /health. It only proves the process serves HTTP.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondOK(w, r, http.StatusOK, map[string]string{"status": "ok"}, time.Now())
}

// HealthReady handles GET /health/ready.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	checks := map[string]string{
		"store":    h.store.Status().String(),
		"eventlog": h.events.Status().String(),
	}
	if h.store.Status() != kvstore.StatusOpen || h.events.Status() != eventlog.StatusOpen {
		respondJSON(w, http.StatusServiceUnavailable, &APIResponse{
			Status:   "error",
			Data:     checks,
			Metadata: Metadata{Timestamp: time.Now().UTC()},
		})
		return
	}
	respondOK(w, r, http.StatusOK, checks, start)
}

// clientIP returns the request's remote address without the port. chi's
// RealIP middleware is not mounted, so proxies are not trusted.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
