// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package events

import (
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/tomtom215/ledgerview/internal/validation"
)

// SchemaVersion is the current envelope schema version.
const SchemaVersion = 1

// SubjectPrefix is the root of every bank event subject.
const SubjectPrefix = "bank"

// Envelope is one domain event as delivered by the transport.
type Envelope struct {
	SchemaVersion    int             `json:"schema_version,omitempty"`
	EventID          string          `json:"event_id" validate:"required"`
	EventType        string          `json:"event_type" validate:"required"`
	AggregateID      string          `json:"aggregate_id" validate:"required"`
	AggregateVersion int64           `json:"aggregate_version" validate:"gte=1"`
	OccurredAt       time.Time       `json:"occurred_at"`
	Payload          json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope builds an envelope with a fresh event ID and the payload
// encoded as JSON.
func NewEnvelope(eventType, aggregateID string, aggregateVersion int64, payload interface{}) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}
	return Envelope{
		SchemaVersion:    SchemaVersion,
		EventID:          uuid.NewString(),
		EventType:        eventType,
		AggregateID:      aggregateID,
		AggregateVersion: aggregateVersion,
		OccurredAt:       time.Now().UTC(),
		Payload:          raw,
	}, nil
}

// Validate checks the header fields every event must carry.
func (e *Envelope) Validate() error {
	return validation.ValidateStruct(e)
}

// DecodePayload unmarshals the payload into v and validates it.
func (e *Envelope) DecodePayload(v interface{}) error {
	if len(e.Payload) == 0 {
		return fmt.Errorf("%s: empty payload", e.EventType)
	}
	if err := json.Unmarshal(e.Payload, v); err != nil {
		return fmt.Errorf("%s: decode payload: %w", e.EventType, err)
	}
	if err := validation.ValidateStruct(v); err != nil {
		return fmt.Errorf("%s: %w", e.EventType, err)
	}
	return nil
}

// Subject returns the NATS subject the envelope is published on.
func (e *Envelope) Subject() string {
	return Subject(e.EventType)
}

// Subject maps an event type to its NATS subject, e.g.
// CustomerCreated -> bank.customer.created.
func Subject(eventType string) string {
	switch eventType {
	case TypeCustomerCreated:
		return SubjectPrefix + ".customer.created"
	case TypeAccountCreated:
		return SubjectPrefix + ".account.created"
	default:
		return SubjectPrefix + ".other." + strings.ToLower(eventType)
	}
}
