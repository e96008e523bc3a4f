// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

// Package testinfra provides container-backed infrastructure for
// integration tests. It is only compiled with the integration build tag:
//
//	go test -tags integration ./...
//
// # NATS Container
//
// NATSContainer runs a real nats-server with JetStream enabled so the
// projection transport can be tested against an external broker rather
// than the embedded server:
//
//	func TestProjectionOverExternalNATS(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    natsC, err := testinfra.NewNATSContainer(context.Background())
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    testinfra.TerminateOnCleanup(t, natsC.Container)
//
//	    cfg.NATS.URL = natsC.URL
//	    cfg.NATS.EmbeddedServer = false
//	    ...
//	}
//
// Tests skip cleanly when Docker is not available.
package testinfra
