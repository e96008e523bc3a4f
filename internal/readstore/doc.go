// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

/*
Package readstore provides durable projection.Store implementations.

  - BadgerStore: embedded key-value store. Every upsert is one optimistic
    transaction, retried on write conflicts, so writers of the same document
    are serialized without locks.
  - DuckDBStore: embedded analytical database. Documents are rows keyed by
    id and written with INSERT ... ON CONFLICT DO UPDATE inside a
    transaction on a single connection.
  - BreakerStore: circuit breaker decorator for any store.

Open builds the configured backend wrapped with metrics and, when enabled,
the circuit breaker.
*/
package readstore
