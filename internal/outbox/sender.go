// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

package outbox

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/localdb/internal/eventlog"
	"github.com/tomtom215/localdb/internal/logging"
)

// Sender delivers one message. Returning nil removes the message from the
// outbox.
type Sender interface {
	Send(ctx context.Context, m *Message) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, m *Message) error

// Send calls f.
func (f SenderFunc) Send(ctx context.Context, m *Message) error {
	return f(ctx, m)
}

// PermanentError marks a failure that retrying cannot fix.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return "permanent: " + e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Permanent wraps err so the outbox drops the message instead of retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err was wrapped by Permanent.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// LogSender records deliveries in the event log instead of contacting a
// gateway. It is the default when no gateway URL is configured.
type LogSender struct {
	Events *eventlog.EventLog
}

// Send writes an event describing m.
func (s LogSender) Send(_ context.Context, m *Message) error {
	if s.Events == nil {
		logging.Info().Str("id", m.ID.String()).Str("kind", string(m.Kind)).Msg("Message delivered to log")
		return nil
	}
	s.Events.WriteEvent(&eventlog.Event{
		Timestamp: time.Now(),
		Level:     eventlog.LevelInfo,
		Topic:     "outbox." + string(m.Kind),
		Category:  string(m.Kind),
		Message:   fmt.Sprintf("Delivered message %s", m.ID),
		Actor:     m.To,
	})
	return nil
}

// HTTPSender posts messages as JSON to a gateway at BaseURL/<kind>.
type HTTPSender struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

// NewHTTPSender returns a sender for the gateway at baseURL. An empty
// token sends no Authorization header.
func NewHTTPSender(baseURL, token string) *HTTPSender {
	return &HTTPSender{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Send posts m. 2xx is success; 429 and 5xx are retried; any other status
// is a permanent failure.
func (s *HTTPSender) Send(ctx context.Context, m *Message) error {
	body, err := json.Marshal(m)
	if err != nil {
		return Permanent(fmt.Errorf("encode message: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.BaseURL+"/"+string(m.Kind), bytes.NewReader(body))
	if err != nil {
		return Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", m.ID.String())
	if s.Token != "" {
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("gateway returned %d", resp.StatusCode)
	default:
		return Permanent(fmt.Errorf("gateway rejected message: %d", resp.StatusCode))
	}
}
