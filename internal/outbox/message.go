// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

package outbox

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/localdb/internal/kvstore"
	"github.com/tomtom215/localdb/internal/validation"
)

// Kind is the delivery channel of a message.
type Kind string

const (
	KindSMS   Kind = "sms"
	KindEmail Kind = "email"
)

// ParseKind returns the kind with the given name.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case KindSMS, KindEmail:
		return k, nil
	default:
		return "", fmt.Errorf("unknown message kind %q", s)
	}
}

// Category returns the store category holding messages of this kind.
func (k Kind) Category() kvstore.Category {
	if k == KindEmail {
		return kvstore.CategoryEmailQueue
	}
	return kvstore.CategorySMSQueue
}

// Message is one send request.
type Message struct {
	ID        uuid.UUID `json:"id"`
	Kind      Kind      `json:"kind" validate:"required,oneof=sms email"`
	To        string    `json:"to" validate:"required,max=320"`
	Subject   string    `json:"subject,omitempty" validate:"max=998"`
	Body      string    `json:"body" validate:"required,max=65536"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMessage creates a message with a fresh ID.
func NewMessage(kind Kind, to, subject, body string) *Message {
	return &Message{
		ID:        uuid.New(),
		Kind:      kind,
		To:        to,
		Subject:   subject,
		Body:      body,
		CreatedAt: time.Now().UTC(),
	}
}

// Validate checks field limits and the recipient format for the kind:
// E.164 numbers for SMS and addresses for e-mail.
func (m *Message) Validate() error {
	if verr := validation.ValidateStruct(m); verr != nil {
		return verr
	}
	tag := "e164"
	if m.Kind == KindEmail {
		tag = "email"
	}
	if verr := validation.ValidateVar("To", m.To, tag); verr != nil {
		return verr
	}
	return nil
}

func encodeMessage(m *Message) (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode message: %w", err)
	}
	return string(data), nil
}

func decodeMessage(s string) (*Message, error) {
	var m Message
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, fmt.Errorf("decode message: %w", err)
	}
	if m.ID == uuid.Nil {
		return nil, fmt.Errorf("decode message: missing id")
	}
	return &m, nil
}
