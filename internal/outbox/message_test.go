// LocalDB - Embedded Queue Store and Event Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/localdb

package outbox

import (
	"strings"
	"testing"

	"github.com/tomtom215/localdb/internal/kvstore"
)

func TestMessageValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		msg     *Message
		wantErr bool
	}{
		{"sms", NewMessage(KindSMS, "+14155550123", "", "hi"), false},
		{"email", NewMessage(KindEmail, "a@example.com", "Subject", "hi"), false},
		{"sms to address", NewMessage(KindSMS, "a@example.com", "", "hi"), true},
		{"email to number", NewMessage(KindEmail, "+14155550123", "", "hi"), true},
		{"missing body", NewMessage(KindSMS, "+14155550123", "", ""), true},
		{"missing recipient", NewMessage(KindSMS, "", "", "hi"), true},
		{"unknown kind", NewMessage(Kind("fax"), "+14155550123", "", "hi"), true},
		{"body too long", NewMessage(KindSMS, "+14155550123", "", strings.Repeat("x", 65537)), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if err := tt.msg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDecodeMessage(t *testing.T) {
	t.Parallel()

	m := NewMessage(KindEmail, "a@example.com", "s", "b")
	raw, err := encodeMessage(m)
	if err != nil {
		t.Fatal(err)
	}
	got, err := decodeMessage(raw)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != m.ID || got.Kind != KindEmail || !got.CreatedAt.Equal(m.CreatedAt) {
		t.Errorf("decoded %+v", got)
	}

	for _, bad := range []string{"", "{", `{"kind":"sms","to":"x","body":"y"}`} {
		if _, err := decodeMessage(bad); err == nil {
			t.Errorf("decodeMessage(%q) succeeded", bad)
		}
	}
}

func TestKindCategory(t *testing.T) {
	t.Parallel()

	if KindSMS.Category() != kvstore.CategorySMSQueue || KindEmail.Category() != kvstore.CategoryEmailQueue {
		t.Error("kind to category mapping wrong")
	}
	if _, err := ParseKind("email"); err != nil {
		t.Error(err)
	}
	if _, err := ParseKind("pigeon"); err == nil {
		t.Error("unknown kind parsed")
	}
}
