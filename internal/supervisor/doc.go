// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

/*
Package supervisor provides process supervision for Ledgerview using suture v4.

Long-running services are organized into three layers so that each can
restart independently:

	RootSupervisor ("ledgerview")
	├── DataSupervisor ("data-layer")
	│   └── StoreMaintenanceService (badger value log GC / duckdb CHECKPOINT)
	├── MessagingSupervisor ("messaging-layer")
	│   └── NATSComponentsService (subscriber, projection router, publisher)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService (customer details queries, health, metrics)

A crashing service is restarted with suture's failure decay and backoff. When
the failure threshold is exceeded the supervisor backs off for FailureBackoff
before trying again. Supervisor events are logged through sutureslog using the
slog bridge from the logging package:

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfigFrom(cfg.Supervisor))
	if err != nil {
		return err
	}
	tree.AddMessagingService(services.NewNATSComponentsService(components))
	tree.AddAPIService(services.NewHTTPServerService(srv, cfg.API.ShutdownTimeout))
	return tree.Serve(ctx)

Canceling the context passed to Serve stops every layer. Services are given
ShutdownTimeout to return; UnstoppedServiceReport lists the stragglers.

The service adapters live in the services subpackage.
*/
package supervisor
