// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package eventprocessor

import (
	"context"
	"errors"
	"strings"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/ledgerview/internal/projection"
)

// ErrNilEngine is returned when a handler is built without a projection engine.
var ErrNilEngine = errors.New("projection engine cannot be nil")

// ErrNilPublisher is returned when attempting to create a publisher with nil input.
var ErrNilPublisher = errors.New("publisher cannot be nil")

// ErrPublisherClosed is returned by Publish after Close.
var ErrPublisherClosed = errors.New("publisher is closed")

// ErrInvalidConfig is returned when configuration is invalid.
var ErrInvalidConfig = errors.New("invalid configuration")

// ErrorCategory categorizes errors for DLQ routing and metrics.
type ErrorCategory int

const (
	// ErrorCategoryUnknown is the default category for unclassified errors.
	ErrorCategoryUnknown ErrorCategory = iota
	// ErrorCategoryConnection indicates network or connection failures.
	ErrorCategoryConnection
	// ErrorCategoryTimeout indicates operation timeout or cancellation.
	ErrorCategoryTimeout
	// ErrorCategoryValidation indicates a malformed envelope or payload.
	ErrorCategoryValidation
	// ErrorCategoryStorage indicates read-model store failures.
	ErrorCategoryStorage
	// ErrorCategoryCapacity indicates an open circuit breaker or throttling.
	ErrorCategoryCapacity
)

// String returns the string representation of the error category.
func (c ErrorCategory) String() string {
	switch c {
	case ErrorCategoryConnection:
		return "connection"
	case ErrorCategoryTimeout:
		return "timeout"
	case ErrorCategoryValidation:
		return "validation"
	case ErrorCategoryStorage:
		return "storage"
	case ErrorCategoryCapacity:
		return "capacity"
	default:
		return "unknown"
	}
}

// RetryableError represents an error that can be retried.
// These errors are transient: store outages, timeouts, open breakers.
type RetryableError struct {
	Message  string
	Cause    error
	Category ErrorCategory
}

// NewRetryableError creates a new retryable error.
func NewRetryableError(message string, cause error) *RetryableError {
	return &RetryableError{
		Message:  message,
		Cause:    cause,
		Category: categorize(cause),
	}
}

// Error implements the error interface.
func (e *RetryableError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for error unwrapping.
func (e *RetryableError) Unwrap() error {
	return e.Cause
}

// PermanentError represents an error that should not be retried.
// Redelivering a malformed event cannot make it valid.
type PermanentError struct {
	Message  string
	Cause    error
	Category ErrorCategory
}

// NewPermanentError creates a new permanent error.
func NewPermanentError(message string, cause error) *PermanentError {
	category := categorize(cause)
	if category == ErrorCategoryUnknown {
		category = ErrorCategoryValidation
	}
	return &PermanentError{
		Message:  message,
		Cause:    cause,
		Category: category,
	}
}

// Error implements the error interface.
func (e *PermanentError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the underlying cause for error unwrapping.
func (e *PermanentError) Unwrap() error {
	return e.Cause
}

func categorize(err error) ErrorCategory {
	if err == nil {
		return ErrorCategoryUnknown
	}
	switch {
	case projection.IsMalformed(err):
		return ErrorCategoryValidation
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return ErrorCategoryTimeout
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return ErrorCategoryCapacity
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "connection") || strings.Contains(msg, "no responders"):
		return ErrorCategoryConnection
	case strings.Contains(msg, "upsert") || strings.Contains(msg, "badger") || strings.Contains(msg, "duckdb"):
		return ErrorCategoryStorage
	case strings.Contains(msg, "timeout"):
		return ErrorCategoryTimeout
	default:
		return ErrorCategoryUnknown
	}
}

// IsRetryableError reports whether err wraps a RetryableError.
func IsRetryableError(err error) bool {
	var re *RetryableError
	return errors.As(err, &re)
}

// IsPermanentError reports whether err wraps a PermanentError.
// It is the poison queue filter: only permanent failures are dead-lettered.
func IsPermanentError(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// CategoryOf returns the category of a classified error, or unknown.
func CategoryOf(err error) ErrorCategory {
	var pe *PermanentError
	if errors.As(err, &pe) {
		return pe.Category
	}
	var re *RetryableError
	if errors.As(err, &re) {
		return re.Category
	}
	return ErrorCategoryUnknown
}
