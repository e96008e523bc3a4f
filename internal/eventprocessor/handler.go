// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package eventprocessor

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/ledgerview/internal/events"
	"github.com/tomtom215/ledgerview/internal/logging"
	"github.com/tomtom215/ledgerview/internal/metrics"
	"github.com/tomtom215/ledgerview/internal/projection"
)

// ProjectionHandlerName is the router handler name of the customer details projection.
const ProjectionHandlerName = "customer-details-projection"

// Processor applies one envelope to the read model.
// *projection.Engine implements it.
type Processor interface {
	Process(ctx context.Context, env events.Envelope) projection.Result
}

// ProjectionHandler feeds bank event messages into the projection engine.
//
// Error handling:
//   - Undecodable payloads and malformed events return PermanentError (DLQ)
//   - Store failures and cancellation return RetryableError (redelivered)
//   - Stale, duplicate and unregistered events return nil (ack)
type ProjectionHandler struct {
	engine     Processor
	serializer *Serializer

	messagesReceived  atomic.Int64
	messagesProjected atomic.Int64
	messagesIgnored   atomic.Int64
	malformed         atomic.Int64
	transientFailures atomic.Int64
	lastMessageTime   atomic.Value // time.Time
}

// ProjectionHandlerStats is a snapshot of handler counters.
type ProjectionHandlerStats struct {
	MessagesReceived  int64     `json:"messages_received"`
	MessagesProjected int64     `json:"messages_projected"`
	MessagesIgnored   int64     `json:"messages_ignored"`
	Malformed         int64     `json:"malformed"`
	TransientFailures int64     `json:"transient_failures"`
	LastMessageTime   time.Time `json:"last_message_time"`
}

// NewProjectionHandler creates a handler over engine.
func NewProjectionHandler(engine Processor) (*ProjectionHandler, error) {
	if engine == nil {
		return nil, ErrNilEngine
	}
	h := &ProjectionHandler{
		engine:     engine,
		serializer: NewSerializer(),
	}
	h.lastMessageTime.Store(time.Time{})
	return h, nil
}

// Handle processes a single bank event message.
// This is the handler function passed to Router.AddConsumerHandler.
func (h *ProjectionHandler) Handle(msg *message.Message) error {
	start := time.Now()
	h.messagesReceived.Add(1)
	h.lastMessageTime.Store(start)
	defer func() { metrics.RecordNATSConsumed(time.Since(start)) }()

	ctx := msg.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	env, err := h.serializer.Unmarshal(msg.Payload)
	if err != nil {
		h.malformed.Add(1)
		logging.Ctx(ctx).Warn().Err(err).Str("message_uuid", msg.UUID).Msg("Failed to decode event envelope")
		return NewPermanentError("decode envelope", err)
	}

	ctx = logging.ContextWithEvent(ctx, env.EventID, env.EventType, env.AggregateID)
	ctx = logging.ContextWithLogger(ctx, logging.With().Str("message_uuid", msg.UUID).Logger())

	res := h.engine.Process(ctx, *env)
	err = res.Err()
	switch {
	case err == nil && len(res.Outcomes) == 0:
		h.messagesIgnored.Add(1)
		return nil
	case err == nil:
		h.messagesProjected.Add(1)
		return nil
	case res.Permanent():
		h.malformed.Add(1)
		return NewPermanentError("malformed event "+env.EventID, err)
	default:
		h.transientFailures.Add(1)
		logging.Ctx(ctx).Warn().Err(err).Msg("Projection failed, event will be redelivered")
		return NewRetryableError("project event "+env.EventID, err)
	}
}

// Stats returns a snapshot of the handler counters.
func (h *ProjectionHandler) Stats() ProjectionHandlerStats {
	last, _ := h.lastMessageTime.Load().(time.Time)
	return ProjectionHandlerStats{
		MessagesReceived:  h.messagesReceived.Load(),
		MessagesProjected: h.messagesProjected.Load(),
		MessagesIgnored:   h.messagesIgnored.Load(),
		Malformed:         h.malformed.Load(),
		TransientFailures: h.transientFailures.Load(),
		LastMessageTime:   last,
	}
}

// HealthCheck implements HealthCheckable.
func (h *ProjectionHandler) HealthCheck(_ context.Context) ComponentHealth {
	stats := h.Stats()
	health := ComponentHealth{
		Name:      "projection_handler",
		Healthy:   true,
		Message:   "Projection handler ready",
		LastCheck: time.Now(),
		Details: map[string]interface{}{
			"messages_received":  stats.MessagesReceived,
			"messages_projected": stats.MessagesProjected,
			"messages_ignored":   stats.MessagesIgnored,
			"malformed":          stats.Malformed,
			"transient_failures": stats.TransientFailures,
		},
	}
	if !stats.LastMessageTime.IsZero() {
		health.Details["last_message_time"] = stats.LastMessageTime
	}
	return health
}
