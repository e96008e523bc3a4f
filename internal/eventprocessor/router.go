// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package eventprocessor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	natsgo "github.com/nats-io/nats.go"

	"github.com/tomtom215/ledgerview/internal/logging"
	"github.com/tomtom215/ledgerview/internal/metrics"
)

// MetadataOriginalUUID holds the UUID of the message a poisoned copy came from.
const MetadataOriginalUUID = "original_uuid"

// Router wraps the Watermill Router with pre-configured middleware.
// It provides Ack/Nack handling, panic recovery, retry with backoff and
// poison queue routing for permanent failures.
type Router struct {
	router   *message.Router
	config   RouterConfig
	logger   watermill.LoggerAdapter
	running  atomic.Bool
	mu       sync.Mutex
	handlers map[string]*message.Handler
	stats    *RouterMetrics
}

// RouterMetrics holds runtime counters for the Router.
type RouterMetrics struct {
	MessagesReceived  atomic.Int64
	MessagesProcessed atomic.Int64
	MessagesFailed    atomic.Int64
	MessagesPoisoned  atomic.Int64
}

// NewRouter creates a Watermill Router with, from outer to inner:
//   - Recoverer: panics become errors
//   - Retry: exponential backoff for transient failures
//   - Throttle: optional rate limit
//   - PoisonQueue: permanent failures are published to the poison topic and acked
//
// The poison queue is only installed when both poisonPublisher and
// cfg.PoisonQueueTopic are set. Without it permanent failures are logged
// and acked. Because the poison queue sits inside Retry, permanent
// failures are never retried.
func NewRouter(
	cfg *RouterConfig,
	poisonPublisher message.Publisher,
	logger watermill.LoggerAdapter,
) (*Router, error) {
	if logger == nil {
		logger = logging.NewWatermillAdapter()
	}

	if cfg == nil {
		defaultCfg := DefaultRouterConfig()
		cfg = &defaultCfg
	}

	wmRouter, err := message.NewRouter(message.RouterConfig{
		CloseTimeout: cfg.CloseTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill router: %w", err)
	}

	r := &Router{
		router:   wmRouter,
		config:   *cfg,
		logger:   logger,
		handlers: make(map[string]*message.Handler),
		stats:    &RouterMetrics{},
	}

	wmRouter.AddMiddleware(middleware.Recoverer)

	if cfg.RetryMaxRetries > 0 {
		retry := middleware.Retry{
			MaxRetries:      cfg.RetryMaxRetries,
			InitialInterval: cfg.RetryInitialInterval,
			MaxInterval:     cfg.RetryMaxInterval,
			Multiplier:      cfg.RetryMultiplier,
			Logger:          logger,
		}
		wmRouter.AddMiddleware(retry.Middleware)
	}

	if cfg.ThrottlePerSecond > 0 {
		throttle := middleware.NewThrottle(cfg.ThrottlePerSecond, time.Second)
		wmRouter.AddMiddleware(throttle.Middleware)
	}

	if poisonPublisher != nil && cfg.PoisonQueueTopic != "" {
		poison, err := middleware.PoisonQueueWithFilter(
			&poisonPublisherDecorator{next: poisonPublisher, stats: r.stats},
			cfg.PoisonQueueTopic,
			IsPermanentError,
		)
		if err != nil {
			return nil, fmt.Errorf("create poison queue middleware: %w", err)
		}
		wmRouter.AddMiddleware(poison)
	} else {
		wmRouter.AddMiddleware(r.dropPermanentMiddleware)
	}

	wmRouter.AddMiddleware(r.countMiddleware)

	return r, nil
}

// countMiddleware records the innermost handler result, before the poison
// queue converts a permanent failure into an ack.
func (r *Router) countMiddleware(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		r.stats.MessagesReceived.Add(1)
		out, err := h(msg)
		if err != nil {
			r.stats.MessagesFailed.Add(1)
			return out, err
		}
		r.stats.MessagesProcessed.Add(1)
		return out, nil
	}
}

// dropPermanentMiddleware acks permanent failures when no poison queue is
// configured. Redelivering them would only burn MaxDeliver attempts.
func (r *Router) dropPermanentMiddleware(h message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		out, err := h(msg)
		if err != nil && IsPermanentError(err) {
			r.logger.Error("Dropping permanently failed message", err, watermill.LogFields{
				"message_uuid": msg.UUID,
			})
			return nil, nil
		}
		return out, err
	}
}

// poisonPublisherDecorator republishes poisoned messages under a fresh UUID.
// JetStream drops a publish whose Nats-Msg-Id was already seen inside the
// duplicate window, so the original ID is moved into metadata instead.
type poisonPublisherDecorator struct {
	next  message.Publisher
	stats *RouterMetrics
}

func (p *poisonPublisherDecorator) Publish(topic string, msgs ...*message.Message) error {
	out := make([]*message.Message, 0, len(msgs))
	for _, msg := range msgs {
		poisoned := message.NewMessage(watermill.NewUUID(), msg.Payload)
		for k, v := range msg.Metadata {
			if k == natsgo.MsgIdHdr {
				continue
			}
			poisoned.Metadata.Set(k, v)
		}
		poisoned.Metadata.Set(MetadataOriginalUUID, msg.UUID)
		poisoned.SetContext(msg.Context())
		out = append(out, poisoned)
	}

	if err := p.next.Publish(topic, out...); err != nil {
		return err
	}
	for range out {
		p.stats.MessagesPoisoned.Add(1)
		metrics.RecordNATSPoisoned()
	}
	return nil
}

func (p *poisonPublisherDecorator) Close() error {
	return nil
}

// AddHandler registers a handler that publishes output messages to publishTopic.
func (r *Router) AddHandler(
	name string,
	subscribeTopic string,
	subscriber message.Subscriber,
	publishTopic string,
	publisher message.Publisher,
	handler message.HandlerFunc,
) *message.Handler {
	h := r.router.AddHandler(name, subscribeTopic, subscriber, publishTopic, publisher, handler)
	r.mu.Lock()
	r.handlers[name] = h
	r.mu.Unlock()
	return h
}

// AddConsumerHandler registers a handler that doesn't produce output messages.
func (r *Router) AddConsumerHandler(
	name string,
	subscribeTopic string,
	subscriber message.Subscriber,
	handler message.NoPublishHandlerFunc,
) *message.Handler {
	h := r.router.AddConsumerHandler(name, subscribeTopic, subscriber, handler)
	r.mu.Lock()
	r.handlers[name] = h
	r.mu.Unlock()
	return h
}

// AddHandlerMiddleware adds middleware to a specific handler.
// Handler-level middleware runs after router-level middleware.
func (r *Router) AddHandlerMiddleware(handlerName string, m ...message.HandlerMiddleware) error {
	r.mu.Lock()
	h, exists := r.handlers[handlerName]
	r.mu.Unlock()
	if !exists {
		return fmt.Errorf("handler %q not found", handlerName)
	}
	h.AddMiddleware(m...)
	return nil
}

// Run starts the router and blocks until context cancellation or Close().
func (r *Router) Run(ctx context.Context) error {
	r.running.Store(true)
	defer r.running.Store(false)
	return r.router.Run(ctx)
}

// RunAsync starts the router in a goroutine. The returned channel closes
// once the router is running.
func (r *Router) RunAsync(ctx context.Context) <-chan struct{} {
	go func() {
		if err := r.Run(ctx); err != nil {
			r.logger.Error("Router error", err, nil)
		}
	}()
	return r.router.Running()
}

// Running returns a channel that closes when the router is running.
func (r *Router) Running() <-chan struct{} {
	return r.router.Running()
}

// Close gracefully stops the router.
// Waits for in-flight messages to complete up to CloseTimeout.
func (r *Router) Close() error {
	return r.router.Close()
}

// IsRunning returns whether the router is currently processing messages.
func (r *Router) IsRunning() bool {
	return r.running.Load()
}

// Metrics returns the router counters.
func (r *Router) Metrics() *RouterMetrics {
	return r.stats
}

// HealthCheck implements HealthCheckable.
func (r *Router) HealthCheck(_ context.Context) ComponentHealth {
	health := ComponentHealth{
		Name:      "router",
		LastCheck: time.Now(),
		Details:   make(map[string]interface{}),
	}

	if !r.IsRunning() {
		health.Error = "Router is not running"
		return health
	}

	r.mu.Lock()
	handlers := len(r.handlers)
	r.mu.Unlock()

	health.Healthy = true
	health.Message = "Router is running"
	health.Details["handlers"] = handlers
	health.Details["messages_received"] = r.stats.MessagesReceived.Load()
	health.Details["messages_processed"] = r.stats.MessagesProcessed.Load()
	health.Details["messages_failed"] = r.stats.MessagesFailed.Load()
	health.Details["messages_poisoned"] = r.stats.MessagesPoisoned.Load()
	return health
}
