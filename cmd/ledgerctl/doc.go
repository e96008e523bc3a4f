// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

// Ledgerctl is an operator tool for the ledgerview read model.
//
// Usage:
//
//	ledgerctl publish --file events.ndjson --url nats://127.0.0.1:4222 --rate 50
//	ledgerctl inspect --path /data/readmodel [--id C1]
//
// publish reads one event envelope per line and publishes it to the
// bank event stream. inspect opens a Badger read store read-only and
// prints customer documents as JSON lines.
package main
