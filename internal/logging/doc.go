// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

// Package logging provides centralized zerolog-based structured logging for Ledgerview.
//
// The package provides:
//   - A global zerolog logger configured once at startup (JSON or console)
//   - Context-aware logging with correlation ID propagation
//   - An slog adapter for the suture supervisor tree (sutureslog)
//   - A watermill.LoggerAdapter so the NATS router logs through zerolog
//
// # Quick Start
//
//	logging.Init(logging.Config{
//	    Level:  "info",
//	    Format: "json",
//	})
//
//	logging.Info().Str("stream", "BANK_EVENTS").Msg("Stream ready")
//	logging.Ctx(ctx).Warn().Err(err).Msg("Event routed to poison queue")
//
// Components that must not depend on global state, such as the projection
// engine, receive a zerolog.Logger at construction instead.
//
// # Best Practices
//
// Always terminate log chains with .Msg() or .Send():
//
//	logging.Info().Str("key", "value").Msg("message")  // Correct
//	logging.Info().Str("key", "value")                 // WRONG - log not emitted
package logging
