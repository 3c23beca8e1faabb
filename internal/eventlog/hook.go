// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

package eventlog

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// CategoryApplication is the category of events copied from application logs.
const CategoryApplication = "application"

// Hook copies zerolog records into an EventLog. zerolog does not expose
// the fields of an event to hooks, so only level and message are kept.
type Hook struct {
	el    *EventLog
	topic string
	host  string
}

// NewHook returns a hook that writes to el under topic.
//
// The event log's own logger is captured in New, so installing the hook
// on the global logger afterwards does not feed its warnings back into it.
func NewHook(el *EventLog, topic string) *Hook {
	host, _ := os.Hostname()
	return &Hook{el: el, topic: topic, host: host}
}

// Run implements zerolog.Hook.
func (h *Hook) Run(_ *zerolog.Event, level zerolog.Level, message string) {
	if level == zerolog.Disabled || message == "" {
		return
	}
	h.el.WriteEvent(&Event{
		Timestamp:  time.Now(),
		Level:      FromZerolog(level),
		Topic:      h.topic,
		Category:   CategoryApplication,
		Message:    message,
		SourceHost: h.host,
	})
}

// FromZerolog maps a zerolog level to an event level.
func FromZerolog(level zerolog.Level) Level {
	switch level {
	case zerolog.TraceLevel:
		return LevelTrace
	case zerolog.DebugLevel:
		return LevelDebug
	case zerolog.WarnLevel:
		return LevelWarn
	case zerolog.ErrorLevel:
		return LevelError
	case zerolog.FatalLevel, zerolog.PanicLevel:
		return LevelFatal
	default:
		return LevelInfo
	}
}
