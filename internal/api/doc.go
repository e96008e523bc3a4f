// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

/*
Package api serves the CustomerDetails read model over HTTP.

Routes:

	GET /api/v1/customers/{id}   CustomerDetails document, 404 when unknown
	GET /healthz                 aggregated component health, 503 when unhealthy
	GET /healthz/live            liveness, always 200
	GET /metrics                 Prometheus exposition

The middleware stack is built from the chi ecosystem: request IDs wired
into the logging context, panic recovery, go-chi/cors and per-IP rate
limiting with go-chi/httprate. Every request is recorded on the
ledgerview_api_requests_total and ledgerview_api_request_duration_seconds
series labelled with the chi route pattern.

Customer lookups go through a read-through LRU cache with a short TTL. The
read model is eventually consistent, so a cached document is at most TTL
older than what the store holds.

Responses use a common envelope:

	{"success": true, "data": {...}, "meta": {"request_id": "...", "timestamp": "..."}}
	{"success": false, "error": {"code": "NOT_FOUND", "message": "..."}}
*/
package api
