// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

package eventlog

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/parquet-go/parquet-go"

	"github.com/tomtom215/localdb/internal/queue"
)

// Format is an export file format.
type Format string

const (
	FormatJSONL   Format = "jsonl"
	FormatCSV     Format = "csv"
	FormatParquet Format = "parquet"
)

// ParseFormat returns the format with the given name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatJSONL, FormatCSV, FormatParquet:
		return f, nil
	case "json", "ndjson":
		return FormatJSONL, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", s)
	}
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatParquet:
		return "application/vnd.apache.parquet"
	default:
		return "application/x-ndjson"
	}
}

// EventRow is the parquet schema for exported events.
type EventRow struct {
	TimestampMs   int64  `parquet:"timestamp_ms"`
	Level         string `parquet:"level,dict"`
	Topic         string `parquet:"topic,zstd"`
	Category      string `parquet:"category,dict"`
	Message       string `parquet:"message,zstd"`
	Actor         string `parquet:"actor,optional,zstd"`
	SourceAddress string `parquet:"source_address,optional"`
	SourceHost    string `parquet:"source_host,optional"`
	Error         string `parquet:"error,optional,zstd"`
}

// ToRow converts an event to its parquet row.
func ToRow(e *Event) EventRow {
	return EventRow{
		TimestampMs:   e.Timestamp.UnixMilli(),
		Level:         e.Level.String(),
		Topic:         e.Topic,
		Category:      e.Category,
		Message:       e.Message,
		Actor:         e.Actor,
		SourceAddress: e.SourceAddress,
		SourceHost:    e.SourceHost,
		Error:         e.Error,
	}
}

var csvHeader = []string{
	"timestamp", "level", "topic", "category", "message",
	"actor", "source_address", "source_host", "error",
}

// Export writes every stored event, oldest first, to w and returns the
// number of events written. Undecodable records are skipped.
func (l *EventLog) Export(ctx context.Context, w io.Writer, format Format) (int, error) {
	var events []*Event
	skipped := 0
	err := l.q.Scan(ctx, queue.FromTail, func(raw string) bool {
		e, err := l.codec.Decode(raw)
		if err != nil {
			skipped++
			return true
		}
		events = append(events, e)
		return true
	})
	if err != nil {
		return 0, fmt.Errorf("read events: %w", err)
	}
	if skipped > 0 {
		l.log.Warn().Int("skipped", skipped).Msg("Export skipped undecodable events")
	}

	switch format {
	case FormatJSONL:
		err = writeJSONL(w, events)
	case FormatCSV:
		err = writeCSV(w, events)
	case FormatParquet:
		err = writeParquet(w, events)
	default:
		return 0, fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return 0, err
	}
	return len(events), nil
}

func writeJSONL(w io.Writer, events []*Event) error {
	enc := json.NewEncoder(w)
	for _, e := range events {
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("write jsonl: %w", err)
		}
	}
	return nil
}

func writeCSV(w io.Writer, events []*Event) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range events {
		record := []string{
			e.Timestamp.UTC().Format(time.RFC3339Nano),
			e.Level.String(),
			e.Topic,
			e.Category,
			e.Message,
			e.Actor,
			e.SourceAddress,
			e.SourceHost,
			e.Error,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeParquet(w io.Writer, events []*Event) error {
	rows := make([]EventRow, len(events))
	for i, e := range events {
		rows[i] = ToRow(e)
	}

	pw := parquet.NewGenericWriter[EventRow](w, parquet.Compression(&parquet.Zstd))
	if _, err := pw.Write(rows); err != nil {
		return fmt.Errorf("write parquet rows: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}
