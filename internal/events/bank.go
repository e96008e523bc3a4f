// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package events

import (
	"time"
)

// Event types.
const (
	// TypeCustomerCreated is emitted once when a customer aggregate is created.
	TypeCustomerCreated = "CustomerCreated"

	// TypeAccountCreated is emitted once when an account aggregate is created
	// for an owning customer.
	TypeAccountCreated = "AccountCreated"
)

// CustomerCreatedPayload is the type-specific part of CustomerCreated.
type CustomerCreatedPayload struct {
	Firstname string `json:"firstname" validate:"required"`
	Lastname  string `json:"lastname" validate:"required"`
}

// AccountCreatedPayload is the type-specific part of AccountCreated.
type AccountCreatedPayload struct {
	OwnerID  string `json:"owner_id" validate:"required"`
	Currency string `json:"currency,omitempty"`
}

// CustomerCreated is the typed form of a customer creation event.
type CustomerCreated struct {
	EventID          string
	AggregateID      string
	AggregateVersion int64
	OccurredAt       time.Time
	Firstname        string
	Lastname         string
}

// Envelope converts the event to its wire form. A missing event ID or
// timestamp is generated.
func (e CustomerCreated) Envelope() (Envelope, error) {
	env, err := NewEnvelope(TypeCustomerCreated, e.AggregateID, e.AggregateVersion, CustomerCreatedPayload{
		Firstname: e.Firstname,
		Lastname:  e.Lastname,
	})
	if err != nil {
		return Envelope{}, err
	}
	fillHeader(&env, e.EventID, e.OccurredAt)
	return env, nil
}

// AccountCreated is the typed form of an account creation event.
// AggregateID identifies the account; OwnerID the owning customer.
type AccountCreated struct {
	EventID          string
	AggregateID      string
	AggregateVersion int64
	OccurredAt       time.Time
	OwnerID          string
	Currency         string
}

// Envelope converts the event to its wire form.
func (e AccountCreated) Envelope() (Envelope, error) {
	env, err := NewEnvelope(TypeAccountCreated, e.AggregateID, e.AggregateVersion, AccountCreatedPayload{
		OwnerID:  e.OwnerID,
		Currency: e.Currency,
	})
	if err != nil {
		return Envelope{}, err
	}
	fillHeader(&env, e.EventID, e.OccurredAt)
	return env, nil
}

func fillHeader(env *Envelope, eventID string, occurredAt time.Time) {
	if eventID != "" {
		env.EventID = eventID
	}
	if !occurredAt.IsZero() {
		env.OccurredAt = occurredAt.UTC()
	}
}
