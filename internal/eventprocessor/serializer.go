// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package eventprocessor

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/tomtom215/ledgerview/internal/events"
)

// Serializer handles envelope encoding/decoding for NATS messages.
type Serializer struct{}

// NewSerializer creates a new serializer.
func NewSerializer() *Serializer {
	return &Serializer{}
}

// Marshal validates an envelope and converts it to JSON bytes.
func (s *Serializer) Marshal(env *events.Envelope) ([]byte, error) {
	if err := env.Validate(); err != nil {
		return nil, fmt.Errorf("validate envelope: %w", err)
	}

	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}

	return data, nil
}

// Unmarshal converts JSON bytes to an envelope. It does not validate;
// the projection engine rejects invalid envelopes as malformed.
func (s *Serializer) Unmarshal(data []byte) (*events.Envelope, error) {
	var env events.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	return &env, nil
}

// SerializeEnvelope is a convenience function that marshals an envelope to JSON.
func SerializeEnvelope(env *events.Envelope) ([]byte, error) {
	return NewSerializer().Marshal(env)
}

// DeserializeEnvelope is a convenience function that unmarshals JSON to an envelope.
func DeserializeEnvelope(data []byte) (*events.Envelope, error) {
	return NewSerializer().Unmarshal(data)
}
