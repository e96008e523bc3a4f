// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package main

import (
	"context"

	"github.com/tomtom215/ledgerview/internal/config"
	"github.com/tomtom215/ledgerview/internal/eventprocessor"
	"github.com/tomtom215/ledgerview/internal/logging"
	"github.com/tomtom215/ledgerview/internal/projection"
	"github.com/tomtom215/ledgerview/internal/supervisor"
	"github.com/tomtom215/ledgerview/internal/supervisor/services"
)

// InitNATS builds the projection transport. It returns nil components when
// NATS is disabled, in which case the API serves the store as it is.
func InitNATS(ctx context.Context, cfg *config.Config, engine eventprocessor.Processor, store projection.Store) (*eventprocessor.Components, error) {
	if !cfg.NATS.Enabled {
		logging.Info().Msg("NATS event processing disabled (NATS_ENABLED=false)")
		return nil, nil
	}

	logging.Info().Msg("Initializing NATS event processing")
	return eventprocessor.NewComponents(ctx, cfg, engine, store)
}

// AddNATSToSupervisor runs components in the messaging layer. No-op when
// components is nil.
func AddNATSToSupervisor(tree *supervisor.SupervisorTree, components *eventprocessor.Components) {
	if components == nil {
		return
	}
	tree.AddMessagingService(services.NewNATSComponentsService(components))
	logging.Info().Msg("NATS components added to supervisor tree (messaging layer)")
}
