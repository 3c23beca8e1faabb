// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

package eventlog

import (
	"strings"
	"testing"
	"time"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"trace", LevelTrace, false},
		{"DEBUG", LevelDebug, false},
		{" info ", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"fatal", LevelFatal, false},
		{"loud", LevelTrace, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseLevel(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLevelOrdering(t *testing.T) {
	t.Parallel()

	if !(LevelTrace < LevelDebug && LevelDebug < LevelInfo && LevelInfo < LevelWarn &&
		LevelWarn < LevelError && LevelError < LevelFatal) {
		t.Error("levels are not ordered by severity")
	}
	if s := Level(42).String(); s != "level(42)" {
		t.Errorf("String of invalid level = %q", s)
	}
	if _, err := Level(42).MarshalText(); err == nil {
		t.Error("invalid level marshalled")
	}
}

func TestJSONCodec(t *testing.T) {
	t.Parallel()

	in := &Event{
		Timestamp:     time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC),
		Level:         LevelError,
		Topic:         "sms",
		Category:      "sms",
		Message:       "Delivery failed",
		Actor:         "gateway",
		SourceAddress: "10.0.0.7",
		Error:         "timeout",
	}
	s, err := JSONCodec{}.Encode(in)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(s, `"level":"error"`) {
		t.Errorf("level not encoded by name: %s", s)
	}
	out, err := JSONCodec{}.Decode(s)
	if err != nil {
		t.Fatal(err)
	}
	if !out.Timestamp.Equal(in.Timestamp) {
		t.Errorf("timestamp = %v, want %v", out.Timestamp, in.Timestamp)
	}
	out.Timestamp = in.Timestamp
	if *out != *in {
		t.Errorf("decoded %+v, want %+v", out, in)
	}
}

func TestJSONCodecRejects(t *testing.T) {
	t.Parallel()

	for _, s := range []string{
		"",
		"{not json",
		`{"level":"info","message":"no timestamp"}`,
		`{"timestamp":"2026-01-01T00:00:00Z","level":"shouting","message":"x"}`,
	} {
		if _, err := (JSONCodec{}).Decode(s); err == nil {
			t.Errorf("Decode(%q) succeeded", s)
		}
	}
}
