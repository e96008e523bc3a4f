// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package services

import (
	"context"
	"time"

	"github.com/tomtom215/ledgerview/internal/logging"
)

// Maintainer is satisfied by the badger and duckdb read stores.
type Maintainer interface {
	Maintain(ctx context.Context) error
}

// StoreMaintenanceService calls Maintain every interval until canceled.
//
// A failed run is logged and retried on the next tick; it does not restart
// the service.
type StoreMaintenanceService struct {
	store    Maintainer
	interval time.Duration
	name     string
	now      func() time.Time
}

// NewStoreMaintenanceService creates the service. Non-positive intervals
// use 10 minutes.
func NewStoreMaintenanceService(store Maintainer, interval time.Duration) *StoreMaintenanceService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &StoreMaintenanceService{
		store:    store,
		interval: interval,
		name:     "store-maintenance",
		now:      time.Now,
	}
}

// Serve implements suture.Service.
func (s *StoreMaintenanceService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *StoreMaintenanceService) runOnce(ctx context.Context) {
	start := s.now()
	if err := s.store.Maintain(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		logging.Warn().Err(err).Str("service", s.name).Msg("Read store maintenance failed")
		return
	}
	logging.Debug().
		Str("service", s.name).
		Dur("duration", s.now().Sub(start)).
		Msg("Read store maintenance completed")
}

// String implements fmt.Stringer for suture log events.
func (s *StoreMaintenanceService) String() string {
	return s.name
}
