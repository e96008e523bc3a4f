// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

// Package eventprocessor carries bank events from NATS JetStream into the
// projection engine using Watermill.
//
// # Architecture
//
//	┌──────────────┐   ┌──────────────┐
//	│ write model  │   │  ledgerctl   │
//	│  (external)  │   │   publish    │
//	└──────┬───────┘   └──────┬───────┘
//	       └────────┬─────────┘
//	                ▼
//	      ┌───────────────────┐
//	      │  NATS JetStream   │  stream BANK_EVENTS: bank.>, dlq.>
//	      └─────────┬─────────┘
//	                ▼
//	      ┌───────────────────┐
//	      │  Watermill Router │  Recoverer, Retry, Throttle, PoisonQueue
//	      └─────────┬─────────┘
//	                ▼
//	      ┌───────────────────┐
//	      │ ProjectionHandler │  envelope decode, Engine.Process
//	      └─────────┬─────────┘
//	                ▼
//	      ┌───────────────────┐
//	      │  projection.Store │  badger, duckdb or memory
//	      └───────────────────┘
//
// # Delivery
//
// Delivery is at-least-once. Every event is published with its event ID as
// Nats-Msg-Id, so the broker drops duplicates inside the stream's duplicate
// window, and the projection guard makes any remaining redelivery a no-op.
//
// Handler errors are classified before they reach the router:
//
//   - PermanentError: the envelope or payload is malformed. The message is
//     routed to the poison topic and acknowledged.
//   - RetryableError: the store failed or the context ended. The Retry
//     middleware backs off in-process, then the message is nacked and
//     JetStream redelivers it up to MaxDeliver times.
//
// Stale, duplicate and unregistered events are successes and are acked.
//
// # Components
//
// Components wires the embedded server, connection, stream, publisher,
// subscriber, router and handler, and exposes Start and Shutdown for the
// supervisor tree.
package eventprocessor
