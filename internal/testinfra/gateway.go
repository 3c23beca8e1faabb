// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

package testinfra

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// GatewayCapture is one request received by a MockGateway.
type GatewayCapture struct {
	Method  string
	Path    string
	Headers http.Header
	Body    []byte
}

// MockGateway is a stand-in for an SMS or e-mail delivery gateway.
type MockGateway struct {
	Server *httptest.Server

	mu       sync.Mutex
	captures []GatewayCapture
	status   int
}

// NewMockGateway starts a gateway that answers 202 Accepted. It is closed
// when the test ends.
func NewMockGateway(t *testing.T) *MockGateway {
	t.Helper()

	g := &MockGateway{status: http.StatusAccepted}
	g.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body.Close()

		g.mu.Lock()
		g.captures = append(g.captures, GatewayCapture{
			Method:  r.Method,
			Path:    r.URL.Path,
			Headers: r.Header.Clone(),
			Body:    body,
		})
		status := g.status
		g.mu.Unlock()

		w.WriteHeader(status)
	}))
	t.Cleanup(g.Server.Close)
	return g
}

// URL returns the server's base URL.
func (g *MockGateway) URL() string {
	return g.Server.URL
}

// SetStatus changes the status code returned for subsequent requests.
func (g *MockGateway) SetStatus(code int) {
	g.mu.Lock()
	g.status = code
	g.mu.Unlock()
}

// Captures returns a copy of every request received so far.
func (g *MockGateway) Captures() []GatewayCapture {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]GatewayCapture, len(g.captures))
	copy(out, g.captures)
	return out
}

// WaitForCaptures waits until at least n requests have arrived.
func (g *MockGateway) WaitForCaptures(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		g.mu.Lock()
		count := len(g.captures)
		g.mu.Unlock()
		if count >= n {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return false
}
