// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

package eventlog

import (
	"io"
	"testing"

	"github.com/rs/zerolog"
)

func TestHookCopiesRecords(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.MinLevel = LevelInfo
	el, _ := newTestLog(t, newMemoryStore(t), cfg)

	logger := zerolog.New(io.Discard).Level(zerolog.TraceLevel).Hook(NewHook(el, "app"))
	logger.Debug().Msg("below min level")
	logger.Warn().Str("k", "v").Msg("disk nearly full")

	if el.PendingCount() != 1 {
		t.Fatalf("PendingCount = %d, want 1", el.PendingCount())
	}
	e := <-el.pending
	if e.Level != LevelWarn || e.Message != "disk nearly full" {
		t.Errorf("event = %+v", e)
	}
	if e.Topic != "app" || e.Category != CategoryApplication {
		t.Errorf("topic/category = %q/%q", e.Topic, e.Category)
	}
	if e.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}
}

func TestFromZerolog(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   zerolog.Level
		want Level
	}{
		{zerolog.TraceLevel, LevelTrace},
		{zerolog.DebugLevel, LevelDebug},
		{zerolog.InfoLevel, LevelInfo},
		{zerolog.WarnLevel, LevelWarn},
		{zerolog.ErrorLevel, LevelError},
		{zerolog.FatalLevel, LevelFatal},
		{zerolog.PanicLevel, LevelFatal},
		{zerolog.NoLevel, LevelInfo},
	}
	for _, tt := range tests {
		if got := FromZerolog(tt.in); got != tt.want {
			t.Errorf("FromZerolog(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
