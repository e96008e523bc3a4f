// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package events

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/ledgerview/internal/validation"
)

func TestCustomerCreatedEnvelope(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	env, err := CustomerCreated{
		EventID:          "evt-1",
		AggregateID:      "C1",
		AggregateVersion: 1,
		OccurredAt:       at,
		Firstname:        "Ann",
		Lastname:         "Lee",
	}.Envelope()
	if err != nil {
		t.Fatalf("Envelope() error: %v", err)
	}

	if env.EventID != "evt-1" {
		t.Errorf("EventID = %q, want evt-1", env.EventID)
	}
	if env.EventType != TypeCustomerCreated {
		t.Errorf("EventType = %q, want %q", env.EventType, TypeCustomerCreated)
	}
	if !env.OccurredAt.Equal(at) {
		t.Errorf("OccurredAt = %v, want %v", env.OccurredAt, at)
	}
	if err := env.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}

	var p CustomerCreatedPayload
	if err := env.DecodePayload(&p); err != nil {
		t.Fatalf("DecodePayload() error: %v", err)
	}
	if p.Firstname != "Ann" || p.Lastname != "Lee" {
		t.Errorf("payload = %+v, want Ann Lee", p)
	}
}

func TestAccountCreatedEnvelopeGeneratesID(t *testing.T) {
	t.Parallel()

	env, err := AccountCreated{AggregateID: "A1", AggregateVersion: 1, OwnerID: "C1"}.Envelope()
	if err != nil {
		t.Fatalf("Envelope() error: %v", err)
	}
	if env.EventID == "" {
		t.Error("expected generated event ID")
	}
	if env.OccurredAt.IsZero() {
		t.Error("expected generated timestamp")
	}
	if env.SchemaVersion != SchemaVersion {
		t.Errorf("SchemaVersion = %d, want %d", env.SchemaVersion, SchemaVersion)
	}
}

func TestEnvelopeValidate(t *testing.T) {
	t.Parallel()

	valid := Envelope{EventID: "e", EventType: TypeCustomerCreated, AggregateID: "C1", AggregateVersion: 1}

	tests := []struct {
		name   string
		mutate func(*Envelope)
		field  string
	}{
		{"valid", func(*Envelope) {}, ""},
		{"missing event id", func(e *Envelope) { e.EventID = "" }, "event_id"},
		{"missing type", func(e *Envelope) { e.EventType = "" }, "event_type"},
		{"missing aggregate", func(e *Envelope) { e.AggregateID = "" }, "aggregate_id"},
		{"zero version", func(e *Envelope) { e.AggregateVersion = 0 }, "aggregate_version"},
		{"negative version", func(e *Envelope) { e.AggregateVersion = -3 }, "aggregate_version"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := valid
			tt.mutate(&env)
			err := env.Validate()

			if tt.field == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			var structErr *validation.StructError
			if !errors.As(err, &structErr) || !structErr.Has(tt.field) {
				t.Errorf("Validate() = %v, want error on %s", err, tt.field)
			}
		})
	}
}

func TestDecodePayloadErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		payload string
		want    string
	}{
		{"empty", "", "empty payload"},
		{"not json", "{oops", "decode payload"},
		{"missing owner", `{"currency":"EUR"}`, "owner_id is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env := Envelope{EventType: TypeAccountCreated, Payload: []byte(tt.payload)}
			var p AccountCreatedPayload
			err := env.DecodePayload(&p)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("DecodePayload() = %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestSubject(t *testing.T) {
	t.Parallel()

	tests := []struct {
		eventType string
		want      string
	}{
		{TypeCustomerCreated, "bank.customer.created"},
		{TypeAccountCreated, "bank.account.created"},
		{"AccountClosed", "bank.other.accountclosed"},
	}
	for _, tt := range tests {
		if got := Subject(tt.eventType); got != tt.want {
			t.Errorf("Subject(%q) = %q, want %q", tt.eventType, got, tt.want)
		}
	}
}
