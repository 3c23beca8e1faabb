// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

package eventlog

import (
	"fmt"

	"github.com/goccy/go-json"
)

// Codec converts events to and from the strings stored in the queue.
type Codec interface {
	Encode(e *Event) (string, error)
	Decode(s string) (*Event, error)
}

// JSONCodec stores events as JSON objects.
type JSONCodec struct{}

// Encode marshals e to JSON.
func (JSONCodec) Encode(e *Event) (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("encode event: %w", err)
	}
	return string(data), nil
}

// Decode unmarshals a JSON event. A record without a timestamp is rejected
// because retention depends on it.
func (JSONCodec) Decode(s string) (*Event, error) {
	var e Event
	if err := json.Unmarshal([]byte(s), &e); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	if e.Timestamp.IsZero() {
		return nil, fmt.Errorf("decode event: missing timestamp")
	}
	return &e, nil
}
