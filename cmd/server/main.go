// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/ledgerview/internal/api"
	"github.com/tomtom215/ledgerview/internal/config"
	"github.com/tomtom215/ledgerview/internal/logging"
	"github.com/tomtom215/ledgerview/internal/metrics"
	"github.com/tomtom215/ledgerview/internal/projection"
	"github.com/tomtom215/ledgerview/internal/readstore"
	"github.com/tomtom215/ledgerview/internal/supervisor"
	"github.com/tomtom215/ledgerview/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Error().Err(err).Msg("Ledgerview stopped with error")
		stop()
		os.Exit(1)
	}
	logging.Info().Msg("Application stopped gracefully")
}

// run wires every component and blocks until ctx is canceled or the
// supervisor tree gives up.
func run(ctx context.Context, cfg *config.Config) error {
	logging.Info().
		Bool("nats_enabled", cfg.NATS.Enabled).
		Str("store_backend", cfg.Store.Backend).
		Bool("api_enabled", cfg.API.Enabled).
		Msg("Starting Ledgerview")

	store, storeCloser, err := readstore.Open(ctx, cfg.Store)
	if err != nil {
		return fmt.Errorf("open read store: %w", err)
	}
	defer closeStore(storeCloser)

	engine, err := projection.NewEngine(store,
		projection.WithLogger(logging.With().Str("component", "projection").Logger()),
		projection.WithObserver(metrics.ProjectionObserver{}),
	)
	if err != nil {
		return fmt.Errorf("create projection engine: %w", err)
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfigFrom(cfg.Supervisor))
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	AddMaintenanceToSupervisor(tree, storeCloser, cfg.Store.MaintenanceInterval)

	natsComponents, err := InitNATS(ctx, cfg, engine, store)
	if err != nil {
		return fmt.Errorf("initialize NATS: %w", err)
	}
	AddNATSToSupervisor(tree, natsComponents)

	if cfg.API.Enabled {
		opts := []api.HandlerOption{api.WithCustomerCache(cfg.API.CacheSize, cfg.API.CacheTTL)}
		if natsComponents != nil {
			opts = append(opts, api.WithHealthReporter(natsComponents.HealthChecker()))
		}
		handler := api.NewHandler(store, opts...)
		router := api.NewRouter(handler, api.NewMiddleware(api.MiddlewareConfigFrom(&cfg.API)))
		server := api.NewServer(&cfg.API, router.Setup())

		tree.AddAPIService(services.NewHTTPServerService(server, cfg.API.ShutdownTimeout))
		logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")
	}

	logging.Info().Msg("Starting supervisor tree")
	treeErr := <-tree.ServeBackground(ctx)
	if ctx.Err() != nil && errors.Is(treeErr, ctx.Err()) {
		treeErr = nil
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	return treeErr
}

func closeStore(c io.Closer) {
	if err := c.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing read store")
	}
}
