// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package eventprocessor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/ledgerview/internal/events"
)

func TestNewPublisherFromNil(t *testing.T) {
	t.Parallel()

	if _, err := NewPublisherFrom(nil, nil); !errors.Is(err, ErrNilPublisher) {
		t.Errorf("NewPublisherFrom(nil) error = %v, want %v", err, ErrNilPublisher)
	}
}

func TestPublishEnvelope(t *testing.T) {
	t.Parallel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{Persistent: true}, watermill.NopLogger{})
	t.Cleanup(func() { _ = pubSub.Close() })

	p, err := NewPublisherFrom(pubSub, watermill.NopLogger{})
	if err != nil {
		t.Fatalf("NewPublisherFrom() error: %v", err)
	}

	env := accountEnvelope(t, "A1", "C1")
	if err := p.PublishEnvelope(context.Background(), &env); err != nil {
		t.Fatalf("PublishEnvelope() error: %v", err)
	}

	msgs, err := pubSub.Subscribe(context.Background(), events.Subject(events.TypeAccountCreated))
	if err != nil {
		t.Fatalf("Subscribe() error: %v", err)
	}

	select {
	case msg := <-msgs:
		msg.Ack()
		if msg.UUID != env.EventID {
			t.Errorf("UUID = %q, want %q", msg.UUID, env.EventID)
		}
		if got := msg.Metadata.Get(natsgo.MsgIdHdr); got != env.EventID {
			t.Errorf("Nats-Msg-Id = %q, want %q", got, env.EventID)
		}
		if got := msg.Metadata.Get(MetadataEventType); got != events.TypeAccountCreated {
			t.Errorf("event_type = %q, want %q", got, events.TypeAccountCreated)
		}
		if got := msg.Metadata.Get(MetadataAggregateID); got != "A1" {
			t.Errorf("aggregate_id = %q, want %q", got, "A1")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("published envelope not received")
	}
}

func TestPublishEnvelopeRejectsInvalid(t *testing.T) {
	t.Parallel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { _ = pubSub.Close() })
	p, err := NewPublisherFrom(pubSub, nil)
	if err != nil {
		t.Fatalf("NewPublisherFrom() error: %v", err)
	}

	env := customerEnvelope(t, "C1", 1, "Ann", "Lee")
	env.AggregateVersion = 0
	if err := p.PublishEnvelope(context.Background(), &env); err == nil {
		t.Error("PublishEnvelope() with version 0 should fail")
	}
}

func TestPublishAfterClose(t *testing.T) {
	t.Parallel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	p, err := NewPublisherFrom(pubSub, nil)
	if err != nil {
		t.Fatalf("NewPublisherFrom() error: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("second Close() error = %v, want nil", err)
	}

	err = p.Publish(context.Background(), testTopic, message.NewMessage("m1", nil))
	if !errors.Is(err, ErrPublisherClosed) {
		t.Errorf("Publish() after Close error = %v, want %v", err, ErrPublisherClosed)
	}
	if health := p.HealthCheck(context.Background()); health.Healthy {
		t.Error("HealthCheck() of a closed publisher should be unhealthy")
	}
}

func TestPublisherCircuitBreakerOpens(t *testing.T) {
	t.Parallel()

	p, err := NewPublisherFrom(failingPublisher{}, nil)
	if err != nil {
		t.Fatalf("NewPublisherFrom() error: %v", err)
	}
	cfg := DefaultCircuitBreakerConfig("test-publisher")
	cfg.FailureThreshold = 2
	cfg.Timeout = time.Hour
	p.SetCircuitBreaker(NewCircuitBreaker(cfg))

	for i := 0; i < 2; i++ {
		if err := p.Publish(context.Background(), testTopic, message.NewMessage(watermill.NewUUID(), nil)); err == nil {
			t.Fatal("Publish() through failing publisher should fail")
		}
	}

	err = p.Publish(context.Background(), testTopic, message.NewMessage(watermill.NewUUID(), nil))
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("Publish() with open breaker error = %v, want %v", err, gobreaker.ErrOpenState)
	}

	health := p.HealthCheck(context.Background())
	if health.Healthy {
		t.Error("HealthCheck() with open breaker should be unhealthy")
	}
	if got := health.Details["circuit_breaker"]; got != "open" {
		t.Errorf("circuit_breaker = %v, want open", got)
	}
}

func TestPublishCancelledContext(t *testing.T) {
	t.Parallel()

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { _ = pubSub.Close() })
	p, err := NewPublisherFrom(pubSub, nil)
	if err != nil {
		t.Fatalf("NewPublisherFrom() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Publish(ctx, testTopic, message.NewMessage("m1", nil)); !errors.Is(err, context.Canceled) {
		t.Errorf("Publish() error = %v, want %v", err, context.Canceled)
	}
}
