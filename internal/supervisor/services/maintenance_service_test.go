// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

var _ suture.Service = (*StoreMaintenanceService)(nil)

type countingMaintainer struct {
	calls atomic.Int32
	err   error
}

func (m *countingMaintainer) Maintain(context.Context) error {
	m.calls.Add(1)
	return m.err
}

func TestStoreMaintenanceServiceRunsPeriodically(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
	}{
		{"success", nil},
		{"failures keep the loop alive", errors.New("value log busy")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			store := &countingMaintainer{err: tt.err}
			svc := NewStoreMaintenanceService(store, 10*time.Millisecond)

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- svc.Serve(ctx) }()

			deadline := time.Now().Add(2 * time.Second)
			for store.calls.Load() < 3 && time.Now().Before(deadline) {
				time.Sleep(5 * time.Millisecond)
			}
			cancel()

			if err := <-done; !errors.Is(err, context.Canceled) {
				t.Errorf("Serve() error = %v, want %v", err, context.Canceled)
			}
			if store.calls.Load() < 3 {
				t.Errorf("Maintain called %d times, want >= 3", store.calls.Load())
			}
		})
	}
}

func TestStoreMaintenanceServiceStopsBeforeFirstTick(t *testing.T) {
	t.Parallel()

	store := &countingMaintainer{}
	svc := NewStoreMaintenanceService(store, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := svc.Serve(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() error = %v, want %v", err, context.Canceled)
	}
	if store.calls.Load() != 0 {
		t.Errorf("Maintain called %d times, want 0", store.calls.Load())
	}
}

func TestNewStoreMaintenanceServiceDefaults(t *testing.T) {
	t.Parallel()

	svc := NewStoreMaintenanceService(&countingMaintainer{}, 0)
	if svc.interval != 10*time.Minute {
		t.Errorf("interval = %v, want 10m", svc.interval)
	}
	if svc.String() != "store-maintenance" {
		t.Errorf("String() = %q, want store-maintenance", svc.String())
	}
}
