// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/tomtom215/localdb/internal/outbox"
	"github.com/tomtom215/localdb/internal/validation"
)

// EnqueueMessage handles POST /api/v1/messages.
func (h *Handler) EnqueueMessage(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if h.outbox == nil {
		respondError(w, r, http.StatusServiceUnavailable, CodeOutboxAbsent, "Message delivery is disabled", nil)
		return
	}

	var req MessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, CodeBadRequest, err.Error(), nil)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidation(w, r, verr)
		return
	}

	m := outbox.NewMessage(outbox.Kind(req.Kind), req.To, req.Subject, req.Body)
	err := h.outbox.Enqueue(r.Context(), m)

	var verr *validation.RequestValidationError
	switch {
	case err == nil:
		respondOK(w, r, http.StatusAccepted, map[string]interface{}{
			"id":   m.ID.String(),
			"kind": m.Kind,
		}, start)
	case errors.As(err, &verr):
		respondValidation(w, r, verr)
	case errors.Is(err, outbox.ErrNoOutbox):
		respondError(w, r, http.StatusServiceUnavailable, CodeOutboxAbsent, err.Error(), nil)
	default:
		respondError(w, r, http.StatusInternalServerError, CodeStore, "Failed to enqueue message", err)
	}
}
