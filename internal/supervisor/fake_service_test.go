// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package supervisor

import (
	"context"
	"sync"
	"sync/atomic"
)

// fakeService returns the scripted errors from successive Serve calls and
// then runs until its context ends.
type fakeService struct {
	name    string
	starts  atomic.Int32
	stops   atomic.Int32
	mu      sync.Mutex
	results []error
}

func newFakeService(name string, results ...error) *fakeService {
	return &fakeService{name: name, results: results}
}

func (s *fakeService) Serve(ctx context.Context) error {
	s.starts.Add(1)
	defer s.stops.Add(1)

	s.mu.Lock()
	var next error
	if len(s.results) > 0 {
		next, s.results = s.results[0], s.results[1:]
	}
	s.mu.Unlock()
	if next != nil {
		return next
	}

	<-ctx.Done()
	return ctx.Err()
}

func (s *fakeService) String() string { return s.name }
