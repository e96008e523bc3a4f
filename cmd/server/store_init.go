// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package main

import (
	"io"
	"time"

	"github.com/tomtom215/ledgerview/internal/logging"
	"github.com/tomtom215/ledgerview/internal/readstore"
	"github.com/tomtom215/ledgerview/internal/supervisor"
	"github.com/tomtom215/ledgerview/internal/supervisor/services"
)

// AddMaintenanceToSupervisor schedules backend maintenance in the data
// layer. It reports whether a service was added: the memory backend has
// nothing to maintain and a zero interval disables it.
func AddMaintenanceToSupervisor(tree *supervisor.SupervisorTree, backend io.Closer, interval time.Duration) bool {
	m, ok := backend.(readstore.Maintainer)
	if !ok || interval <= 0 {
		return false
	}
	tree.AddDataService(services.NewStoreMaintenanceService(m, interval))
	logging.Info().Dur("interval", interval).Msg("Read store maintenance added to supervisor tree (data layer)")
	return true
}
