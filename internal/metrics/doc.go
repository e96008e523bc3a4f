// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

/*
Package metrics provides Prometheus instrumentation for ledgerview.

All collectors are registered on the default registry through promauto and
exposed by the API server at /metrics.

# Metric Families

Projection:
  - ledgerview_projection_events_total{event_type,outcome}
  - ledgerview_projection_decisions_total{handler,decision}
  - ledgerview_projection_duration_seconds

Store:
  - ledgerview_store_upsert_duration_seconds{backend}
  - ledgerview_store_errors_total{backend,operation}

Transport:
  - ledgerview_nats_messages_consumed_total
  - ledgerview_nats_messages_published_total
  - ledgerview_nats_messages_poisoned_total
  - ledgerview_nats_processing_duration_seconds

Resilience:
  - ledgerview_circuit_breaker_state{name}
  - ledgerview_circuit_breaker_state_transitions_total{name,from_state,to_state}

API:
  - ledgerview_api_requests_total{method,route,status}
  - ledgerview_api_request_duration_seconds{method,route}
  - ledgerview_cache_hits_total{cache}, ledgerview_cache_misses_total{cache}

ProjectionObserver adapts the projection engine's Observer hook onto the
projection families.
*/
package metrics
