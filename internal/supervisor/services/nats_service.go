// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/ledgerview/internal/logging"
)

const (
	defaultPipelineShutdown = 10 * time.Second
	defaultLivenessInterval = time.Second
)

// ErrRouterStopped is returned from Serve when the projection router exits
// while the supervisor still wants it running.
var ErrRouterStopped = errors.New("projection router stopped unexpectedly")

// NATSComponentsRunner is the lifecycle of *eventprocessor.Components.
type NATSComponentsRunner interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
	IsRunning() bool
}

// NATSComponentsService supervises the projection pipeline: JetStream
// subscriber, router and engine handler.
//
//	components, _ := eventprocessor.NewComponents(ctx, cfg, engine, store)
//	tree.AddMessagingService(services.NewNATSComponentsService(components))
type NATSComponentsService struct {
	pipeline NATSComponentsRunner
	drain    time.Duration
	poll     time.Duration
}

// NewNATSComponentsService supervises components with the default drain budget.
func NewNATSComponentsService(components NATSComponentsRunner) *NATSComponentsService {
	return NewNATSComponentsServiceWithTimeout(components, defaultPipelineShutdown)
}

// NewNATSComponentsServiceWithTimeout supervises components, giving Shutdown
// at most drain to finish in-flight events. Non-positive values use 10s.
func NewNATSComponentsServiceWithTimeout(components NATSComponentsRunner, drain time.Duration) *NATSComponentsService {
	if drain <= 0 {
		drain = defaultPipelineShutdown
	}
	return &NATSComponentsService{
		pipeline: components,
		drain:    drain,
		poll:     defaultLivenessInterval,
	}
}

// Serve implements suture.Service.
//
// Start failures and a router that dies on its own are both returned as
// errors so suture applies its restart backoff. Cancellation drains the
// pipeline and returns ctx.Err().
func (s *NATSComponentsService) Serve(ctx context.Context) error {
	if err := s.pipeline.Start(ctx); err != nil {
		return fmt.Errorf("start projection pipeline: %w", err)
	}

	ticker := time.NewTicker(s.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.drainPipeline()
			return ctx.Err()
		case <-ticker.C:
			if !s.pipeline.IsRunning() {
				s.drainPipeline()
				return ErrRouterStopped
			}
		}
	}
}

func (s *NATSComponentsService) drainPipeline() {
	// The supervisor context is already done here.
	ctx, cancel := context.WithTimeout(context.Background(), s.drain)
	defer cancel()

	if err := s.pipeline.Shutdown(ctx); err != nil {
		logging.Warn().Err(err).Str("service", s.String()).Dur("drain", s.drain).
			Msg("Projection pipeline did not drain cleanly")
	}
}

// String implements fmt.Stringer for suture log events.
func (s *NATSComponentsService) String() string {
	return "nats-components"
}
