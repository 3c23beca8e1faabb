// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/localdb/internal/config"
	"github.com/tomtom215/localdb/internal/eventlog"
	"github.com/tomtom215/localdb/internal/kvstore"
	"github.com/tomtom215/localdb/internal/logging"
	"github.com/tomtom215/localdb/internal/outbox"
)

// syncBuffer is a log sink written from background goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func testConfig(t *testing.T, backend string) *config.Config {
	t.Helper()
	t.Setenv("STORE_BACKEND", backend)
	t.Setenv("STORE_PATH", filepath.Join(t.TempDir(), "db"))
	t.Setenv("HTTP_HOST", "127.0.0.1")
	t.Setenv("HTTP_PORT", "38719")
	t.Setenv("EVENTLOG_CYCLE_INTERVAL", "10ms")
	t.Setenv("OUTBOX_POLL_INTERVAL", "10ms")
	t.Setenv("SUPERVISOR_FAILURE_BACKOFF", "10ms")
	t.Setenv(config.ConfigPathEnvVar, "")
	t.Chdir(t.TempDir())

	cfg, err := config.LoadWithKoanf()
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

func TestBuildWiresComponents(t *testing.T) {
	var logs syncBuffer
	logging.SetLogger(logging.NewTestLogger(&logs))
	t.Cleanup(func() { logging.Init(logging.DefaultConfig()) })

	cfg := testConfig(t, kvstore.BackendBadger)
	a, err := build(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}

	if a.store.Kind() != kvstore.BackendBadger {
		t.Errorf("store kind = %s", a.store.Kind())
	}
	cats := a.registry.Categories()
	if len(cats) != 3 {
		t.Errorf("open categories = %v, want event log plus both outboxes", cats)
	}
	if _, ok := a.outbox.Outbox(outbox.KindEmail); !ok {
		t.Error("email outbox missing")
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := a.tree.ServeBackground(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for !a.events.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if !a.events.IsRunning() {
		t.Fatal("event log writer not started")
	}

	// Without a gateway the outbox records deliveries in the event log.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/messages",
		strings.NewReader(`{"kind":"sms","to":"+14155550100","body":"hello"}`))
	a.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("enqueue = %d: %s", rec.Code, rec.Body.String())
	}
	sms, _ := a.outbox.Outbox(outbox.KindSMS)
	for sms.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if sms.Len() != 0 {
		t.Error("sms message was not dispatched")
	}

	cancel()
	<-errCh
	if err := a.close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestBuildCapturesLogsIntoEventLog(t *testing.T) {
	var logs syncBuffer
	logging.SetLogger(logging.NewTestLogger(&logs))
	t.Cleanup(func() { logging.Init(logging.DefaultConfig()) })

	cfg := testConfig(t, kvstore.BackendMemory)
	cfg.Outbox.Enabled = false
	a, err := build(context.Background(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	if a.outbox != nil {
		t.Error("outbox built while disabled")
	}

	logging.Warn().Msg("captured warning")
	if err := a.close(); err != nil {
		t.Fatal(err)
	}
	if a.events.Status() != eventlog.StatusClosed {
		t.Errorf("event log status = %v", a.events.Status())
	}
	if a.store.Status() != kvstore.StatusClosed {
		t.Errorf("store status = %v", a.store.Status())
	}
	if !strings.Contains(logs.String(), "captured warning") {
		t.Errorf("warning missing from log output: %s", logs.String())
	}
}
