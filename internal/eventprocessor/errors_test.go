// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"testing"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/ledgerview/internal/projection"
)

func TestErrorCategoryString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		category ErrorCategory
		want     string
	}{
		{ErrorCategoryUnknown, "unknown"},
		{ErrorCategoryConnection, "connection"},
		{ErrorCategoryTimeout, "timeout"},
		{ErrorCategoryValidation, "validation"},
		{ErrorCategoryStorage, "storage"},
		{ErrorCategoryCapacity, "capacity"},
		{ErrorCategory(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.category.String(); got != tt.want {
			t.Errorf("ErrorCategory(%d).String() = %q, want %q", tt.category, got, tt.want)
		}
	}
}

func TestNewRetryableErrorCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		cause error
		want  ErrorCategory
	}{
		{"deadline", context.DeadlineExceeded, ErrorCategoryTimeout},
		{"canceled", fmt.Errorf("upsert C1: %w", context.Canceled), ErrorCategoryTimeout},
		{"open breaker", gobreaker.ErrOpenState, ErrorCategoryCapacity},
		{"half-open limit", gobreaker.ErrTooManyRequests, ErrorCategoryCapacity},
		{"store", errors.New("upsert C1: badger: disk full"), ErrorCategoryStorage},
		{"connection", errors.New("connection refused"), ErrorCategoryConnection},
		{"nil", nil, ErrorCategoryUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := NewRetryableError("project", tt.cause)
			if err.Category != tt.want {
				t.Errorf("Category = %v, want %v", err.Category, tt.want)
			}
		})
	}
}

func TestNewPermanentErrorDefaultsToValidation(t *testing.T) {
	t.Parallel()

	err := NewPermanentError("decode envelope", errors.New("unexpected end of JSON input"))
	if err.Category != ErrorCategoryValidation {
		t.Errorf("Category = %v, want %v", err.Category, ErrorCategoryValidation)
	}

	malformed := NewPermanentError("malformed", fmt.Errorf("%w: missing owner", projection.ErrMalformedEvent))
	if !errors.Is(malformed, projection.ErrMalformedEvent) {
		t.Error("PermanentError should unwrap to ErrMalformedEvent")
	}
}

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	permanent := fmt.Errorf("handler: %w", NewPermanentError("bad", nil))
	retryable := fmt.Errorf("handler: %w", NewRetryableError("later", errStoreDown))

	if !IsPermanentError(permanent) {
		t.Error("IsPermanentError(wrapped permanent) = false, want true")
	}
	if IsPermanentError(retryable) {
		t.Error("IsPermanentError(retryable) = true, want false")
	}
	if !IsRetryableError(retryable) {
		t.Error("IsRetryableError(wrapped retryable) = false, want true")
	}
	if IsRetryableError(errStoreDown) {
		t.Error("IsRetryableError(plain error) = true, want false")
	}
	if !errors.Is(retryable, errStoreDown) {
		t.Error("RetryableError should unwrap to its cause")
	}
	if got := CategoryOf(permanent); got != ErrorCategoryValidation {
		t.Errorf("CategoryOf(permanent) = %v, want %v", got, ErrorCategoryValidation)
	}
	if got := CategoryOf(errStoreDown); got != ErrorCategoryUnknown {
		t.Errorf("CategoryOf(plain) = %v, want %v", got, ErrorCategoryUnknown)
	}
}

func TestErrorMessages(t *testing.T) {
	t.Parallel()

	if got := NewPermanentError("decode", nil).Error(); got != "decode" {
		t.Errorf("Error() = %q, want %q", got, "decode")
	}
	if got := NewRetryableError("project", errStoreDown).Error(); got != "project: store unavailable" {
		t.Errorf("Error() = %q, want %q", got, "project: store unavailable")
	}
}
