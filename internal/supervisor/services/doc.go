// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

/*
Package services adapts Ledgerview components to suture.Service.

Each adapter translates a component's own lifecycle (Start/Shutdown,
ListenAndServe/Shutdown, or a periodic task) into a context-aware Serve
method that blocks until the supervisor cancels it:

  - NATSComponentsService: embedded NATS server, JetStream stream, the
    projection router and the publisher. Added to the messaging layer.
  - HTTPServerService: the query API. Added to the api layer.
  - StoreMaintenanceService: periodic read store maintenance. Added to the
    data layer.

The adapters depend on small interfaces rather than concrete types so the
supervisor packages do not import the components they run.

Returning an error from Serve makes suture restart the service with backoff.
Returning suture.ErrDoNotRestart stops it for good.
*/
package services
