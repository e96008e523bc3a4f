// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package projection

import "errors"

var (
	// ErrMalformedEvent marks a permanent failure: the event is missing an
	// identity or a required field and redelivery cannot fix it.
	ErrMalformedEvent = errors.New("malformed event")

	// ErrDocumentNotFound is returned by Store.Get for unknown identities.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrDuplicateHandler is returned when a handler name is registered twice
	// for the same event type.
	ErrDuplicateHandler = errors.New("handler already registered")

	// ErrHandlerPanic wraps a recovered handler panic.
	ErrHandlerPanic = errors.New("handler panicked")

	// ErrNilStore is returned by NewEngine without a store.
	ErrNilStore = errors.New("projection store is nil")

	// ErrNilHandler is returned when registering a nil handler.
	ErrNilHandler = errors.New("handler is nil")
)

// IsMalformed reports whether err is a permanent, non-retriable failure.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformedEvent)
}
