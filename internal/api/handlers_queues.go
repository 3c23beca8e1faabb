// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/localdb/internal/kvstore"
	"github.com/tomtom215/localdb/internal/logging"
)

// QueueInfo describes one open queue.
type QueueInfo struct {
	Category string `json:"category"`
	Size     int    `json:"size"`
	Head     string `json:"head"`
	Tail     string `json:"tail"`
}

func (h *Handler) queueInfos(r *http.Request) []QueueInfo {
	cats := h.registry.Categories()
	out := make([]QueueInfo, 0, len(cats))
	for _, cat := range cats {
		q, err := h.registry.Open(r.Context(), cat)
		if err != nil {
			continue
		}
		out = append(out, QueueInfo{
			Category: string(cat),
			Size:     q.Size(),
			Head:     q.Head().String(),
			Tail:     q.Tail().String(),
		})
	}
	return out
}

// Queues handles GET /api/v1/queues.
func (h *Handler) Queues(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	respondOK(w, r, http.StatusOK, h.queueInfos(r), start)
}

// ClearQueue handles DELETE /api/v1/queues/{category}. Only queues already
// opened by a component can be cleared.
func (h *Handler) ClearQueue(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	cat, err := kvstore.ParseCategory(chi.URLParam(r, "category"))
	if err != nil {
		respondError(w, r, http.StatusNotFound, CodeNotFound, err.Error(), nil)
		return
	}
	opened := false
	for _, c := range h.registry.Categories() {
		if c == cat {
			opened = true
			break
		}
	}
	if !opened {
		respondError(w, r, http.StatusNotFound, CodeNotFound, "Queue "+string(cat)+" is not open", nil)
		return
	}

	q, err := h.registry.Open(r.Context(), cat)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, CodeStore, "Failed to open queue", err)
		return
	}
	removed := q.Size()
	if err := q.Clear(r.Context()); err != nil {
		respondError(w, r, http.StatusInternalServerError, CodeStore, "Failed to clear queue", err)
		return
	}

	logging.Ctx(r.Context()).Warn().Str("category", string(cat)).Int("removed", removed).Msg("Queue cleared")
	respondOK(w, r, http.StatusOK, map[string]interface{}{"category": cat, "removed": removed}, start)
}
