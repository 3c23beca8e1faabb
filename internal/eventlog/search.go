// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

package eventlog

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/tomtom215/localdb/internal/queue"
)

// SearchParameters filter ReadStoredEvents.
type SearchParameters struct {
	// MinLevel drops events below this level.
	MinLevel Level

	// MaxCount stops the search after this many matches. 0 means no limit.
	MaxCount int

	// Actor matches events whose actor equals it or fully matches it as a
	// regular expression. Empty matches every event.
	Actor string

	// Text matches events whose message or topic contains it, ignoring case.
	Text string

	// MaxQueryTime bounds the scan. 0 returns at once with TimeExceeded set;
	// a negative value means no limit.
	MaxQueryTime time.Duration

	// Categories keeps only events in these categories, if non-empty.
	Categories []string

	// ExcludeCategories drops events in these categories.
	ExcludeCategories []string
}

// SearchResults is the outcome of ReadStoredEvents.
type SearchResults struct {
	Events       []*Event      `json:"events"`
	TimeExceeded bool          `json:"time_exceeded"`
	Examined     int           `json:"examined"`
	Undecodable  int           `json:"undecodable"`
	Duration     time.Duration `json:"duration"`
}

// ReadStoredEvents scans stored events from newest to oldest and returns
// those matching p, sorted by timestamp with the newest first. When the
// time budget runs out the partial result is returned with TimeExceeded
// set. Events still pending are not visible.
func (l *EventLog) ReadStoredEvents(ctx context.Context, p SearchParameters) (*SearchResults, error) {
	start := time.Now()
	res := &SearchResults{Events: []*Event{}}
	defer func() {
		res.Duration = time.Since(start)
		RecordSearch(res.Duration.Seconds(), res.TimeExceeded)
	}()

	var deadline time.Time
	if p.MaxQueryTime >= 0 {
		deadline = start.Add(p.MaxQueryTime)
	}
	expired := func() bool {
		return !deadline.IsZero() && !time.Now().Before(deadline)
	}
	if expired() {
		res.TimeExceeded = true
		return res, nil
	}

	m := newMatcher(&p)
	err := l.q.Scan(ctx, queue.FromHead, func(raw string) bool {
		if expired() {
			res.TimeExceeded = true
			return false
		}
		res.Examined++

		e, err := l.codec.Decode(raw)
		if err != nil {
			if res.Undecodable == 0 {
				l.log.Warn().Err(err).Msg("Skipping undecodable event during search")
			}
			res.Undecodable++
			return true
		}
		if !m.match(e) {
			return true
		}
		res.Events = append(res.Events, e)
		return p.MaxCount <= 0 || len(res.Events) < p.MaxCount
	})
	if err != nil {
		return res, err
	}

	sort.SliceStable(res.Events, func(i, j int) bool {
		return res.Events[i].Timestamp.After(res.Events[j].Timestamp)
	})
	return res, nil
}

type matcher struct {
	minLevel Level
	actor    string
	actorRe  *regexp.Regexp
	text     string
	include  map[string]struct{}
	exclude  map[string]struct{}
}

func newMatcher(p *SearchParameters) *matcher {
	m := &matcher{
		minLevel: p.MinLevel,
		actor:    p.Actor,
		text:     strings.ToLower(p.Text),
		include:  lowerSet(p.Categories),
		exclude:  lowerSet(p.ExcludeCategories),
	}
	if p.Actor != "" {
		// An invalid pattern falls back to exact matching.
		if re, err := regexp.Compile("^(?:" + p.Actor + ")$"); err == nil {
			m.actorRe = re
		}
	}
	return m
}

func (m *matcher) match(e *Event) bool {
	if e.Level < m.minLevel {
		return false
	}
	if m.actor != "" && e.Actor != m.actor {
		if m.actorRe == nil || !m.actorRe.MatchString(e.Actor) {
			return false
		}
	}
	if m.text != "" &&
		!strings.Contains(strings.ToLower(e.Message), m.text) &&
		!strings.Contains(strings.ToLower(e.Topic), m.text) {
		return false
	}
	cat := strings.ToLower(e.Category)
	if len(m.include) > 0 {
		if _, ok := m.include[cat]; !ok {
			return false
		}
	}
	if _, ok := m.exclude[cat]; ok {
		return false
	}
	return true
}

func lowerSet(values []string) map[string]struct{} {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[strings.ToLower(v)] = struct{}{}
	}
	return set
}
