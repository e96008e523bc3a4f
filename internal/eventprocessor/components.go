// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/ledgerview/internal/config"
	"github.com/tomtom215/ledgerview/internal/logging"
	"github.com/tomtom215/ledgerview/internal/projection"
)

// Components holds every NATS-side component of the projection for
// lifecycle management.
type Components struct {
	server     *EmbeddedServer
	natsConn   *natsgo.Conn
	stream     *StreamManager
	publisher  *Publisher
	subscriber *Subscriber
	router     *Router
	handler    *ProjectionHandler
	health     *HealthChecker

	subscribeTopic string

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewComponents starts the embedded server when configured, connects,
// ensures the stream and builds the publisher, subscriber, router and
// projection handler. Nothing is consumed until Start.
//
//nolint:gocyclo // Initialization is a fixed sequence of steps.
func NewComponents(ctx context.Context, cfg *config.Config, engine Processor, store projection.Store) (*Components, error) {
	if engine == nil {
		return nil, ErrNilEngine
	}

	logger := logging.WithComponent("eventprocessor")
	wmLogger := logging.NewWatermillAdapterWithLogger(logger)

	c := &Components{
		subscribeTopic: cfg.NATS.SubscribeTopic,
		health:         NewHealthChecker(DefaultHealthConfig()),
	}

	natsURL := cfg.NATS.URL
	if cfg.NATS.EmbeddedServer {
		serverCfg := ServerConfigFrom(&cfg.NATS)
		srv, err := NewEmbeddedServer(&serverCfg)
		if err != nil {
			return nil, err
		}
		c.server = srv
		c.health.RegisterComponent("nats_server", srv)
		natsURL = srv.ClientURL()
		logger.Info().Str("url", natsURL).Msg("Embedded NATS server started")
	} else {
		logger.Info().Str("url", natsURL).Msg("Using external NATS server")
	}

	nc, err := natsgo.Connect(natsURL,
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(-1),
		natsgo.ReconnectWait(2*time.Second),
	)
	if err != nil {
		c.abort()
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	c.natsConn = nc

	streamCfg := StreamConfigFrom(&cfg.NATS)
	c.stream, err = NewStreamManager(nc, &streamCfg)
	if err != nil {
		c.abort()
		return nil, err
	}
	stream, err := c.stream.EnsureStream(ctx)
	if err != nil {
		c.abort()
		return nil, fmt.Errorf("ensure stream exists: %w", err)
	}
	info := stream.CachedInfo()
	logger.Info().
		Str("name", info.Config.Name).
		Strs("subjects", info.Config.Subjects).
		Dur("max_age", info.Config.MaxAge).
		Dur("duplicate_window", info.Config.Duplicates).
		Msg("JetStream stream ready")
	c.health.RegisterComponent("stream", c.stream)

	c.publisher, err = NewPublisher(DefaultPublisherConfig(natsURL), wmLogger)
	if err != nil {
		c.abort()
		return nil, err
	}
	c.publisher.SetCircuitBreaker(NewCircuitBreaker(DefaultCircuitBreakerConfig("nats-publisher")))
	c.health.RegisterComponent("publisher", c.publisher)

	subCfg := SubscriberConfigFrom(&cfg.NATS, natsURL)
	c.subscriber, err = NewSubscriber(&subCfg, wmLogger)
	if err != nil {
		c.abort()
		return nil, err
	}

	c.handler, err = NewProjectionHandler(engine)
	if err != nil {
		c.abort()
		return nil, err
	}
	c.health.RegisterComponent("projection_handler", c.handler)

	routerCfg := RouterConfigFrom(&cfg.Router)
	c.router, err = NewRouter(&routerCfg, c.publisher.WatermillPublisher(), wmLogger)
	if err != nil {
		c.abort()
		return nil, err
	}
	c.router.AddConsumerHandler(ProjectionHandlerName, c.subscribeTopic, c.subscriber, c.handler.Handle)
	c.health.RegisterComponent("router", c.router)

	if store != nil {
		c.health.RegisterComponent("store", StoreHealth(store))
	}

	logger.Info().
		Str("topic", c.subscribeTopic).
		Str("durable", subCfg.DurableName).
		Int("retry", routerCfg.RetryMaxRetries).
		Str("poison_topic", routerCfg.PoisonQueueTopic).
		Msg("Projection consumer configured")

	return c, nil
}

// Start runs the router until ctx ends or Shutdown is called. It returns
// once the router is running.
func (c *Components) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	c.running = true
	c.mu.Unlock()

	go func() {
		defer close(c.done)
		if err := c.router.Run(runCtx); err != nil {
			logging.Error().Err(err).Msg("Projection router stopped with error")
		}
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()

	select {
	case <-c.router.Running():
		logging.Info().Str("topic", c.subscribeTopic).Msg("Projection consumer running")
		return nil
	case <-c.done:
		return errors.New("projection router exited before running")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops consumption and closes every component in reverse
// order of creation.
func (c *Components) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.mu.Unlock()

	var errs []error
	if c.router != nil {
		if err := c.router.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close router: %w", err))
		}
	}
	if cancel != nil {
		cancel()
	}
	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			errs = append(errs, ctx.Err())
		}
	}

	errs = append(errs, c.closeTransport(ctx)...)
	logging.Info().Msg("NATS components shut down")
	return errors.Join(errs...)
}

// abort releases whatever NewComponents created before failing.
func (c *Components) abort() {
	for _, err := range c.closeTransport(context.Background()) {
		logging.Warn().Err(err).Msg("Cleanup after failed NATS initialization")
	}
}

func (c *Components) closeTransport(ctx context.Context) []error {
	var errs []error
	if c.subscriber != nil {
		if err := c.subscriber.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close subscriber: %w", err))
		}
	}
	if c.publisher != nil {
		if err := c.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
	}
	if c.natsConn != nil {
		if err := c.natsConn.Drain(); err != nil && !errors.Is(err, natsgo.ErrConnectionClosed) {
			errs = append(errs, fmt.Errorf("drain NATS connection: %w", err))
		}
	}
	if c.server != nil {
		if err := c.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown NATS server: %w", err))
		}
	}
	return errs
}

// IsRunning reports whether the projection router is consuming.
func (c *Components) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Publisher returns the envelope publisher.
func (c *Components) Publisher() *Publisher {
	return c.publisher
}

// Handler returns the projection handler.
func (c *Components) Handler() *ProjectionHandler {
	return c.handler
}

// HealthChecker returns the aggregated health checker.
func (c *Components) HealthChecker() *HealthChecker {
	return c.health
}
