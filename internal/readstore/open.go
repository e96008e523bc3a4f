// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package readstore

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/tomtom215/ledgerview/internal/config"
	"github.com/tomtom215/ledgerview/internal/logging"
	"github.com/tomtom215/ledgerview/internal/metrics"
	"github.com/tomtom215/ledgerview/internal/projection"
)

// Maintainer is implemented by backends that need periodic housekeeping.
type Maintainer interface {
	Maintain(ctx context.Context) error
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the store selected by cfg.Backend, instrumented with metrics
// and guarded by the circuit breaker when enabled. The returned closer
// releases the underlying database.
func Open(ctx context.Context, cfg config.StoreConfig) (projection.Store, io.Closer, error) {
	var (
		base   projection.Store
		closer io.Closer = nopCloser{}
	)

	switch cfg.Backend {
	case config.BackendMemory:
		base = projection.NewMemoryStore()
	case config.BackendBadger:
		s, err := OpenBadger(BadgerOptions{
			Path:            cfg.Path,
			SyncWrites:      cfg.SyncWrites,
			ConflictRetries: cfg.ConflictRetries,
		})
		if err != nil {
			return nil, nil, err
		}
		base, closer = s, s
	case config.BackendDuckDB:
		s, err := OpenDuckDB(ctx, cfg.Path)
		if err != nil {
			return nil, nil, err
		}
		base, closer = s, s
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}

	var store projection.Store = NewInstrumentedStore(base, cfg.Backend)
	if cfg.Breaker.Enabled {
		store = NewBreakerStore(store, BreakerConfig{
			Name:             "readstore-" + cfg.Backend,
			MaxRequests:      cfg.Breaker.MaxRequests,
			Interval:         cfg.Breaker.Interval,
			Timeout:          cfg.Breaker.Timeout,
			FailureThreshold: cfg.Breaker.FailureThreshold,
		})
	}

	logging.Info().
		Str("backend", cfg.Backend).
		Str("path", cfg.Path).
		Bool("circuit_breaker", cfg.Breaker.Enabled).
		Msg("Read-model store opened")
	return store, closer, nil
}

// InstrumentedStore records upsert latency and failures per backend.
type InstrumentedStore struct {
	next    projection.Store
	backend string
}

// NewInstrumentedStore wraps next.
func NewInstrumentedStore(next projection.Store, backend string) *InstrumentedStore {
	return &InstrumentedStore{next: next, backend: backend}
}

// Upsert implements projection.Store.
func (s *InstrumentedStore) Upsert(ctx context.Context, documentID string, m projection.Mutation, pre projection.Precondition) (projection.UpsertResult, error) {
	start := time.Now()
	res, err := s.next.Upsert(ctx, documentID, m, pre)
	metrics.RecordStoreUpsert(s.backend, time.Since(start), err)
	return res, err
}

// Get implements projection.Store.
func (s *InstrumentedStore) Get(ctx context.Context, documentID string) (*projection.Document, error) {
	doc, err := s.next.Get(ctx, documentID)
	if err != nil && !isBreakerSuccess(err) {
		metrics.RecordStoreGetError(s.backend)
	}
	return doc, err
}

// Ping implements projection.Pinger.
func (s *InstrumentedStore) Ping(ctx context.Context) error {
	if p, ok := s.next.(projection.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
