// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

package eventlog

import (
	"fmt"
	"strings"
	"time"
)

// Level is the severity of an event. Levels are ordered.
type Level int8

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelFatal
)

var levelNames = [...]string{"trace", "debug", "info", "warn", "error", "fatal"}

func (l Level) String() string {
	if l < LevelTrace || l > LevelFatal {
		return fmt.Sprintf("level(%d)", int8(l))
	}
	return levelNames[l]
}

// ParseLevel parses a level name, case-insensitively. "warning" is
// accepted for LevelWarn.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return LevelTrace, nil
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "fatal":
		return LevelFatal, nil
	default:
		return LevelTrace, fmt.Errorf("unknown event level %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	if l < LevelTrace || l > LevelFatal {
		return nil, fmt.Errorf("invalid event level %d", int8(l))
	}
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Event is one stored log record.
type Event struct {
	Timestamp     time.Time `json:"timestamp"`
	Level         Level     `json:"level"`
	Topic         string    `json:"topic,omitempty"`
	Category      string    `json:"category,omitempty"`
	Message       string    `json:"message"`
	Actor         string    `json:"actor,omitempty"`
	SourceAddress string    `json:"source_address,omitempty"`
	SourceHost    string    `json:"source_host,omitempty"`
	Error         string    `json:"error,omitempty"`
}
