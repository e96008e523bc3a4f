// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

// Package events defines the bank domain events consumed by the projection
// engine and the envelope they travel in.
//
// An Envelope carries exactly one domain event: the aggregate identity and
// version, the event type discriminator and the type-specific payload as raw
// JSON. Envelopes are the NATS wire format; the projection handlers decode
// the payload into the typed structs declared here.
//
// Aggregate versions start at 1 and increase by one per state transition of
// the aggregate. Versions of different aggregates are unrelated.
package events
