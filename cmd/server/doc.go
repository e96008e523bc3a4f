// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

// Package main is the Ledgerview projection server.
//
// It consumes bank domain events (CustomerCreated, AccountCreated) from a
// NATS JetStream stream, folds them into CustomerDetails documents in the
// configured read store and serves those documents over HTTP.
//
// # Startup
//
//  1. Configuration via koanf: defaults, optional config.yaml, environment
//  2. Logging: zerolog, bridged to slog for the supervisor
//  3. Read store: memory, badger or duckdb, with metrics and a circuit breaker
//  4. Projection engine with the customer details handlers registered
//  5. NATS (optional): embedded server, stream, router, publisher
//  6. Query API: chi router with cache, CORS and rate limiting
//  7. Supervisor tree: data, messaging and api layers
//
// # Configuration
//
//	NATS_ENABLED=true            consume events (default true)
//	NATS_URL=nats://host:4222    external server when NATS_EMBEDDED_SERVER=false
//	STORE_BACKEND=badger         memory | badger | duckdb
//	STORE_PATH=/data/ledgerview  badger directory or duckdb file
//	API_PORT=8080
//	LOG_LEVEL=debug
//
// # Signals
//
// SIGINT and SIGTERM cancel the supervisor tree. The router stops taking
// messages, in-flight events finish or are left unacked for redelivery, the
// HTTP server drains and the read store is closed last.
package main
