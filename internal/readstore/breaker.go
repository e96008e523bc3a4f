// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package readstore

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/ledgerview/internal/logging"
	"github.com/tomtom215/ledgerview/internal/metrics"
	"github.com/tomtom215/ledgerview/internal/projection"
)

// BreakerConfig configures a BreakerStore.
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// DefaultBreakerConfig returns production defaults.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "readstore",
		MaxRequests:      3,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// BreakerStore guards a Store with a circuit breaker. While open, calls
// fail fast with gobreaker.ErrOpenState, which callers treat as transient.
type BreakerStore struct {
	next projection.Store
	cb   *gobreaker.CircuitBreaker[interface{}]
}

// NewBreakerStore wraps next.
func NewBreakerStore(next projection.Store, cfg BreakerConfig) *BreakerStore {
	logger := logging.WithComponent("readstore")

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.RecordCircuitBreakerTransition(name, from.String(), to.String())
			logStateChange(&logger, name, from, to)
		},
		IsSuccessful: isBreakerSuccess,
	}

	return &BreakerStore{
		next: next,
		cb:   gobreaker.NewCircuitBreaker[interface{}](settings),
	}
}

// Upsert implements projection.Store.
func (s *BreakerStore) Upsert(ctx context.Context, documentID string, m projection.Mutation, pre projection.Precondition) (projection.UpsertResult, error) {
	out, err := s.cb.Execute(func() (interface{}, error) {
		return s.next.Upsert(ctx, documentID, m, pre)
	})
	if err != nil {
		return projection.UpsertResult{}, err
	}
	return out.(projection.UpsertResult), nil
}

// Get implements projection.Store.
func (s *BreakerStore) Get(ctx context.Context, documentID string) (*projection.Document, error) {
	out, err := s.cb.Execute(func() (interface{}, error) {
		return s.next.Get(ctx, documentID)
	})
	if err != nil {
		return nil, err
	}
	return out.(*projection.Document), nil
}

// Ping implements projection.Pinger. An open breaker is unhealthy.
func (s *BreakerStore) Ping(ctx context.Context) error {
	if s.cb.State() == gobreaker.StateOpen {
		return gobreaker.ErrOpenState
	}
	if p, ok := s.next.(projection.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// State returns the breaker state name.
func (s *BreakerStore) State() string {
	return s.cb.State().String()
}

// isBreakerSuccess keeps caller-side outcomes from tripping the breaker:
// missing documents and cancelled requests say nothing about store health.
func isBreakerSuccess(err error) bool {
	return err == nil ||
		errors.Is(err, projection.ErrDocumentNotFound) ||
		errors.Is(err, context.Canceled)
}

func logStateChange(logger *zerolog.Logger, name string, from, to gobreaker.State) {
	event := logger.Info()
	if to == gobreaker.StateOpen {
		event = logger.Warn()
	}
	event.Str("breaker", name).
		Str("from", from.String()).
		Str("to", to.String()).
		Msg("Circuit breaker state changed")
}
