// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package eventprocessor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/ledgerview/internal/events"
	"github.com/tomtom215/ledgerview/internal/logging"
	"github.com/tomtom215/ledgerview/internal/metrics"
)

// Metadata keys set on every published envelope.
const (
	MetadataEventType   = "event_type"
	MetadataAggregateID = "aggregate_id"
)

// Publisher wraps a Watermill publisher with circuit breaker protection.
type Publisher struct {
	publisher      message.Publisher
	circuitBreaker *gobreaker.CircuitBreaker[interface{}]
	serializer     *Serializer
	mu             sync.RWMutex
	closed         bool
	logger         watermill.LoggerAdapter
}

// NewPublisher creates a Watermill NATS JetStream publisher.
// Message ID tracking is enabled so the broker can deduplicate by event ID.
func NewPublisher(cfg PublisherConfig, logger watermill.LoggerAdapter) (*Publisher, error) {
	if logger == nil {
		logger = logging.NewWatermillAdapter()
	}

	natsOpts := append(
		connectionOptions("publisher", cfg.MaxReconnects, cfg.ReconnectWait, logger),
		natsgo.ReconnectBufSize(cfg.ReconnectBuffer),
	)

	wmConfig := wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: false, // Stream is created by StreamManager
			TrackMsgId:    cfg.EnableTrackMsgID,
			PublishOptions: []natsgo.PubOpt{
				natsgo.RetryAttempts(3),
				natsgo.RetryWait(100 * time.Millisecond),
			},
		},
	}

	pub, err := wmNats.NewPublisher(wmConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	return NewPublisherFrom(pub, logger)
}

// NewPublisherFrom wraps an existing Watermill publisher.
func NewPublisherFrom(pub message.Publisher, logger watermill.LoggerAdapter) (*Publisher, error) {
	if pub == nil {
		return nil, ErrNilPublisher
	}
	if logger == nil {
		logger = logging.NewWatermillAdapter()
	}
	return &Publisher{
		publisher:  pub,
		serializer: NewSerializer(),
		logger:     logger,
	}, nil
}

// SetCircuitBreaker configures the circuit breaker for publish operations.
func (p *Publisher) SetCircuitBreaker(cb *gobreaker.CircuitBreaker[interface{}]) {
	p.circuitBreaker = cb
}

// Publish sends a message to topic. The message UUID becomes Nats-Msg-Id
// unless one is already set.
func (p *Publisher) Publish(ctx context.Context, topic string, msg *message.Message) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if msg.Metadata.Get(natsgo.MsgIdHdr) == "" {
		msg.Metadata.Set(natsgo.MsgIdHdr, msg.UUID)
	}
	msg.SetContext(ctx)

	var err error
	if p.circuitBreaker != nil {
		_, err = p.circuitBreaker.Execute(func() (interface{}, error) {
			return nil, p.publisher.Publish(topic, msg)
		})
	} else {
		err = p.publisher.Publish(topic, msg)
	}

	if err == nil {
		metrics.RecordNATSPublished()
	}
	return err
}

// PublishEnvelope serializes env and publishes it on its subject, using the
// event ID as both message UUID and Nats-Msg-Id.
func (p *Publisher) PublishEnvelope(ctx context.Context, env *events.Envelope) error {
	data, err := p.serializer.Marshal(env)
	if err != nil {
		return fmt.Errorf("serialize envelope: %w", err)
	}

	msg := message.NewMessage(env.EventID, data)
	msg.Metadata.Set(natsgo.MsgIdHdr, env.EventID)
	msg.Metadata.Set(MetadataEventType, env.EventType)
	msg.Metadata.Set(MetadataAggregateID, env.AggregateID)

	return p.Publish(ctx, env.Subject(), msg)
}

// PublishBatch publishes envelopes in order and stops at the first error.
func (p *Publisher) PublishBatch(ctx context.Context, envs ...*events.Envelope) error {
	for _, env := range envs {
		if err := p.PublishEnvelope(ctx, env); err != nil {
			return fmt.Errorf("publish event %s: %w", env.EventID, err)
		}
	}
	return nil
}

// Close gracefully shuts down the publisher.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	return p.publisher.Close()
}

// WatermillPublisher returns the underlying Watermill publisher.
func (p *Publisher) WatermillPublisher() message.Publisher {
	return p.publisher
}

// HealthCheck implements HealthCheckable.
func (p *Publisher) HealthCheck(_ context.Context) ComponentHealth {
	health := ComponentHealth{
		Name:      "publisher",
		LastCheck: time.Now(),
		Details:   make(map[string]interface{}),
	}

	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()

	if closed {
		health.Error = "publisher is closed"
		return health
	}

	health.Healthy = true
	health.Message = "Publisher is open"
	if p.circuitBreaker != nil {
		state := p.circuitBreaker.State()
		health.Details["circuit_breaker"] = state.String()
		switch state {
		case gobreaker.StateOpen:
			health.Healthy = false
			health.Error = "circuit breaker is open"
		case gobreaker.StateHalfOpen:
			health.Degraded = true
			health.Message = "Circuit breaker is half-open"
		}
	}
	return health
}
