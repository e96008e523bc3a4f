// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type ctxKey int

const (
	fieldsKey ctxKey = iota
	loggerKey
)

// fields are the identifiers Ctx attaches to every line. A context holds
// one copy; each setter stores a modified copy.
type fields struct {
	correlationID string
	requestID     string
	eventType     string
	aggregateID   string
}

func fieldsFrom(ctx context.Context) fields {
	f, _ := ctx.Value(fieldsKey).(fields)
	return f
}

func updateFields(ctx context.Context, update func(*fields)) context.Context {
	f := fieldsFrom(ctx)
	update(&f)
	return context.WithValue(ctx, fieldsKey, f)
}

// GenerateCorrelationID returns a short random correlation ID.
func GenerateCorrelationID() string {
	return uuid.NewString()[:8]
}

// ContextWithCorrelationID sets the correlation ID.
func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return updateFields(ctx, func(f *fields) { f.correlationID = id })
}

// ContextWithNewCorrelationID sets a freshly generated correlation ID.
func ContextWithNewCorrelationID(ctx context.Context) context.Context {
	return ContextWithCorrelationID(ctx, GenerateCorrelationID())
}

// CorrelationIDFromContext returns the correlation ID, or "".
func CorrelationIDFromContext(ctx context.Context) string {
	return fieldsFrom(ctx).correlationID
}

// ContextWithRequestID sets the HTTP request ID.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return updateFields(ctx, func(f *fields) { f.requestID = id })
}

// RequestIDFromContext returns the HTTP request ID, or "".
func RequestIDFromContext(ctx context.Context) string {
	return fieldsFrom(ctx).requestID
}

// ContextWithEvent marks ctx as processing one event. The event ID becomes
// the correlation ID.
func ContextWithEvent(ctx context.Context, eventID, eventType, aggregateID string) context.Context {
	return updateFields(ctx, func(f *fields) {
		f.correlationID = eventID
		f.eventType = eventType
		f.aggregateID = aggregateID
	})
}

// ContextWithLogger stores the base logger Ctx builds on.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func ContextWithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// LoggerFromContext returns the stored logger or the global one.
func LoggerFromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(loggerKey).(zerolog.Logger); ok {
		return logger
	}
	return Logger()
}

// Ctx returns the context logger with every identifier set on ctx.
//
//	logging.Ctx(ctx).Warn().Err(err).Msg("Projection failed")
func Ctx(ctx context.Context) *zerolog.Logger {
	f := fieldsFrom(ctx)
	c := LoggerFromContext(ctx).With()
	for _, kv := range [...][2]string{
		{"correlation_id", f.correlationID},
		{"request_id", f.requestID},
		{"event_type", f.eventType},
		{"aggregate_id", f.aggregateID},
	} {
		if kv[1] != "" {
			c = c.Str(kv[0], kv[1])
		}
	}
	logger := c.Logger()
	return &logger
}
