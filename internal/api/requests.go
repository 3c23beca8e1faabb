// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// defaultSearchCount applies when max_count is absent.
const defaultSearchCount = 100

// SearchRequest holds the parsed search query.
type SearchRequest struct {
	MinLevel     string        `validate:"omitempty,level"`
	MaxCount     int           `validate:"gte=0,lte=10000"`
	Actor        string        `validate:"max=256"`
	Text         string        `validate:"max=256"`
	Categories   []string      `validate:"max=32,dive,category"`
	Exclude      []string      `validate:"max=32,dive,category"`
	MaxQueryTime time.Duration `validate:"gte=0"`
}

// WriteEventRequest is the body of POST /api/v1/events.
type WriteEventRequest struct {
	Timestamp     *time.Time `json:"timestamp,omitempty"`
	Level         string     `json:"level" validate:"required,level"`
	Topic         string     `json:"topic,omitempty" validate:"max=128"`
	Category      string     `json:"category,omitempty" validate:"omitempty,category"`
	Message       string     `json:"message" validate:"required,max=8192"`
	Actor         string     `json:"actor,omitempty" validate:"max=256"`
	SourceAddress string     `json:"source_address,omitempty" validate:"omitempty,ip"`
	SourceHost    string     `json:"source_host,omitempty" validate:"max=253"`
	Error         string     `json:"error,omitempty" validate:"max=8192"`
}

// MessageRequest is the body of POST /api/v1/messages.
type MessageRequest struct {
	Kind    string `json:"kind" validate:"required,oneof=sms email"`
	To      string `json:"to" validate:"required"`
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body" validate:"required"`
}

// parseSearchRequest reads the query string. Syntax errors are returned;
// range checks are left to validation.
func parseSearchRequest(r *http.Request) (*SearchRequest, error) {
	q := r.URL.Query()
	req := &SearchRequest{
		MinLevel:   q.Get("min_level"),
		MaxCount:   defaultSearchCount,
		Actor:      q.Get("actor"),
		Text:       q.Get("text"),
		Categories: listParam(q["category"]),
		Exclude:    listParam(q["exclude"]),
	}

	if s := q.Get("max_count"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("max_count: %q is not an integer", s)
		}
		req.MaxCount = n
	}
	if s := q.Get("max_query_time"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return nil, fmt.Errorf("max_query_time: %w", err)
		}
		req.MaxQueryTime = d
	}
	return req, nil
}

// listParam flattens repeated and comma separated values.
func listParam(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
