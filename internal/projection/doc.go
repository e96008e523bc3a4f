// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

/*
Package projection builds read-model documents from domain events.

The package is the core of ledgerview. It receives one event envelope at a
time, possibly duplicated or out of order, and turns it into conditional
upserts against a versioned document store:

	transport -> Engine.Process -> Router -> Handler.Translate -> Guard.Apply -> Store.Upsert

# Components

  - Store: versioned document collection with conditional upsert. MemoryStore
    is the in-process implementation; durable ones live in internal/readstore.
  - Guard: applies Commands. Field-set commands are gated on the document
    version (VersionGate); set-add commands apply unconditionally.
  - Router: event type to ordered handler registry. Every handler runs even
    when a sibling fails or panics.
  - Handler: pure translation of one event type into one Command.
  - Engine: composition root and the entry point used by the transport.

# Delivery Semantics

Stale and duplicate events are reported as success (DecisionSkipped).
Unregistered event types are a no-op. A malformed event fails with
ErrMalformedEvent and should be dead-lettered; any other failure is
transient and the transport should redeliver the notification.

# Example

	store := projection.NewMemoryStore()
	engine, err := projection.NewEngine(store, projection.WithLogger(logger))
	if err != nil {
		return err
	}
	res := engine.Process(ctx, env)
	if err := res.Err(); err != nil && !res.Permanent() {
		return err // redeliver
	}
*/
package projection
