// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package main

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/tomtom215/ledgerview/internal/config"
	"github.com/tomtom215/ledgerview/internal/projection"
	"github.com/tomtom215/ledgerview/internal/readstore"
	"github.com/tomtom215/ledgerview/internal/supervisor"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func newTestTree(t *testing.T) *supervisor.SupervisorTree {
	t.Helper()
	tree, err := supervisor.NewSupervisorTree(slog.New(slog.NewTextHandler(io.Discard, nil)), supervisor.TreeConfig{})
	if err != nil {
		t.Fatalf("NewSupervisorTree() error: %v", err)
	}
	return tree
}

func TestInitNATSDisabled(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{NATS: config.NATSConfig{Enabled: false}}
	engine, err := projection.NewEngine(projection.NewMemoryStore())
	if err != nil {
		t.Fatalf("NewEngine() error: %v", err)
	}

	components, err := InitNATS(context.Background(), cfg, engine, projection.NewMemoryStore())
	if err != nil {
		t.Fatalf("InitNATS() error: %v", err)
	}
	if components != nil {
		t.Error("InitNATS() with NATS disabled should return nil components")
	}

	// Must not panic.
	AddNATSToSupervisor(newTestTree(t), nil)
}

func TestAddMaintenanceToSupervisor(t *testing.T) {
	t.Parallel()

	badger, err := readstore.OpenBadger(readstore.BadgerOptions{InMemory: true})
	if err != nil {
		t.Fatalf("OpenBadger() error: %v", err)
	}
	t.Cleanup(func() { _ = badger.Close() })

	tests := []struct {
		name     string
		backend  io.Closer
		interval time.Duration
		want     bool
	}{
		{"badger", badger, time.Minute, true},
		{"disabled", badger, 0, false},
		{"memory has nothing to maintain", nopCloser{}, time.Minute, false},
	}

	for _, tt := range tests {
		if got := AddMaintenanceToSupervisor(newTestTree(t), tt.backend, tt.interval); got != tt.want {
			t.Errorf("%s: AddMaintenanceToSupervisor() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestRunWithMemoryStore(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		Store: config.StoreConfig{Backend: config.BackendMemory},
		Supervisor: config.SupervisorConfig{
			ShutdownTimeout: time.Second,
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		t.Errorf("run() error = %v, want nil on cancellation", err)
	}
}
