// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tomtom215/localdb/internal/eventlog"
	"github.com/tomtom215/localdb/internal/logging"
	"github.com/tomtom215/localdb/internal/validation"
)

// SearchEvents handles GET /api/v1/events.
func (h *Handler) SearchEvents(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	req, err := parseSearchRequest(r)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, CodeBadRequest, err.Error(), nil)
		return
	}
	if verr := validation.ValidateStruct(req); verr != nil {
		respondValidation(w, r, verr)
		return
	}

	params := eventlog.SearchParameters{
		MaxCount:          req.MaxCount,
		Actor:             req.Actor,
		Text:              req.Text,
		Categories:        req.Categories,
		ExcludeCategories: req.Exclude,
		MaxQueryTime:      h.maxQueryTime,
	}
	if req.MaxQueryTime > 0 && req.MaxQueryTime < h.maxQueryTime {
		params.MaxQueryTime = req.MaxQueryTime
	}
	if req.MinLevel != "" {
		// Already checked by the level tag.
		params.MinLevel, _ = eventlog.ParseLevel(req.MinLevel)
	}

	results, err := h.events.ReadStoredEvents(r.Context(), params)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		respondError(w, r, http.StatusInternalServerError, CodeStore, "Failed to read events", err)
		return
	}

	logging.Ctx(r.Context()).Debug().
		Int("matched", len(results.Events)).
		Int("examined", results.Examined).
		Bool("time_exceeded", results.TimeExceeded).
		Msg("Event search served")
	respondOK(w, r, http.StatusOK, results, start)
}

// WriteEvent handles POST /api/v1/events. The event is queued for the
// background writer, so a 202 does not mean it is stored yet.
func (h *Handler) WriteEvent(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req WriteEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, CodeBadRequest, err.Error(), nil)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidation(w, r, verr)
		return
	}

	level, _ := eventlog.ParseLevel(req.Level)
	e := &eventlog.Event{
		Level:         level,
		Topic:         req.Topic,
		Category:      req.Category,
		Message:       req.Message,
		Actor:         req.Actor,
		SourceAddress: req.SourceAddress,
		SourceHost:    req.SourceHost,
		Error:         req.Error,
	}
	if req.Timestamp != nil {
		e.Timestamp = *req.Timestamp
	}
	if e.SourceAddress == "" {
		e.SourceAddress = clientIP(r)
	}

	if level < h.events.Config().MinLevel {
		respondOK(w, r, http.StatusAccepted, map[string]interface{}{"accepted": false, "reason": "below minimum level"}, start)
		return
	}
	if !h.events.WriteEvent(e) {
		respondError(w, r, http.StatusServiceUnavailable, CodeQueueFull,
			"Event was dropped: the log is closing or its buffer is full", nil)
		return
	}
	respondOK(w, r, http.StatusAccepted, map[string]interface{}{"accepted": true}, start)
}

// ExportEvents handles GET /api/v1/events/export?format=jsonl|csv|parquet.
func (h *Handler) ExportEvents(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("format")
	if name == "" {
		name = string(eventlog.FormatJSONL)
	}
	format, err := eventlog.ParseFormat(name)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, CodeBadRequest, err.Error(), nil)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "events-"+time.Now().UTC().Format("20060102T150405Z")+"."+string(format)))

	n, err := h.events.Export(r.Context(), w, format)
	if err != nil {
		// Headers may be out already; the client sees a truncated body.
		logging.Ctx(r.Context()).Error().Err(err).Str("format", string(format)).Msg("Event export failed")
		return
	}
	logging.Ctx(r.Context()).Info().Int("events", n).Str("format", string(format)).Msg("Events exported")
}
