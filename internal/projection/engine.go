// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package projection

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/ledgerview/internal/events"
)

// Observer receives projection measurements. Implementations must be safe
// for concurrent use.
type Observer interface {
	EventProcessed(eventType, outcome string, duration time.Duration)
	HandlerDecided(handler string, decision Decision)
}

type nopObserver struct{}

func (nopObserver) EventProcessed(string, string, time.Duration) {}
func (nopObserver) HandlerDecided(string, Decision)              {}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger. The default discards everything.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithObserver sets the metrics hook.
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		if o != nil {
			e.observer = o
		}
	}
}

// WithRouter replaces the default CustomerDetails router.
func WithRouter(r *Router) Option {
	return func(e *Engine) {
		if r != nil {
			e.router = r
		}
	}
}

// Engine wires router, handlers, guard and store. It holds no cross-call
// locks; concurrent Process calls race only inside Store.Upsert.
type Engine struct {
	store    Store
	guard    *Guard
	router   *Router
	logger   zerolog.Logger
	observer Observer
}

// NewEngine creates an engine over store. Without WithRouter the
// CustomerDetails handlers are registered.
func NewEngine(store Store, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, ErrNilStore
	}

	e := &Engine{
		store:    store,
		guard:    NewGuard(store),
		logger:   zerolog.Nop(),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(e)
	}

	if e.router == nil {
		e.router = NewRouter()
		if err := RegisterCustomerDetails(e.router); err != nil {
			return nil, fmt.Errorf("register customer details handlers: %w", err)
		}
	}
	return e, nil
}

// Router returns the engine's handler registry.
func (e *Engine) Router() *Router {
	return e.router
}

// Store returns the engine's document store.
func (e *Engine) Store() Store {
	return e.store
}

// Process applies one event to every handler registered for its type.
//
// The result is successful once every mutation is durably applied or found
// already applied. Unregistered event types succeed with no outcomes.
func (e *Engine) Process(ctx context.Context, env events.Envelope) Result {
	start := time.Now()
	res := Result{EventID: env.EventID, EventType: env.EventType}

	logger := e.logger.With().
		Str("event_id", env.EventID).
		Str("event_type", env.EventType).
		Str("aggregate_id", env.AggregateID).
		Int64("aggregate_version", env.AggregateVersion).
		Logger()

	if err := env.Validate(); err != nil {
		res.envelopeErr = fmt.Errorf("%w: %w", ErrMalformedEvent, err)
		logger.Warn().Err(err).Msg("Rejected malformed event envelope")
		e.observer.EventProcessed(env.EventType, res.Outcome(), time.Since(start))
		return res
	}

	res.Outcomes = e.router.Dispatch(ctx, env, func(ctx context.Context, h Handler) (Decision, error) {
		cmd, err := h.Translate(env)
		if err != nil {
			return DecisionSkipped, err
		}
		decision, err := e.guard.Apply(ctx, cmd)
		if err == nil && (decision == DecisionCreated || decision == DecisionApplied) {
			logger.Info().
				Str("handler", h.Name()).
				Str("document_id", cmd.DocumentID).
				Stringer("decision", decision).
				Msg("Projected event")
		}
		return decision, err
	})

	if len(res.Outcomes) == 0 {
		logger.Trace().Msg("No handlers registered for event type")
	}
	for _, o := range res.Outcomes {
		e.logOutcome(&logger, o)
		if o.Err == nil {
			e.observer.HandlerDecided(o.Handler, o.Decision)
		}
	}

	e.observer.EventProcessed(env.EventType, res.Outcome(), time.Since(start))
	return res
}

func (e *Engine) logOutcome(logger *zerolog.Logger, o HandlerOutcome) {
	switch {
	case o.Err != nil && IsMalformed(o.Err):
		logger.Warn().Err(o.Err).Str("handler", o.Handler).Msg("Handler rejected malformed event")
	case o.Err != nil:
		logger.Error().Err(o.Err).Str("handler", o.Handler).Msg("Handler failed")
	case o.Decision == DecisionSkipped:
		logger.Trace().Str("handler", o.Handler).Msg("Skipped stale or duplicate event")
	case o.Decision == DecisionUnchanged:
		logger.Debug().Str("handler", o.Handler).Msg("Event already reflected in read model")
	}
}

// CustomerCreated processes a typed customer creation event.
func (e *Engine) CustomerCreated(ctx context.Context, evt events.CustomerCreated) Result {
	return e.processTyped(ctx, events.TypeCustomerCreated, evt.EventID, evt.Envelope)
}

// AccountCreated processes a typed account creation event.
func (e *Engine) AccountCreated(ctx context.Context, evt events.AccountCreated) Result {
	return e.processTyped(ctx, events.TypeAccountCreated, evt.EventID, evt.Envelope)
}

func (e *Engine) processTyped(ctx context.Context, eventType, eventID string, envelope func() (events.Envelope, error)) Result {
	env, err := envelope()
	if err != nil {
		return Result{
			EventID:     eventID,
			EventType:   eventType,
			envelopeErr: fmt.Errorf("%w: %w", ErrMalformedEvent, err),
		}
	}
	return e.Process(ctx, env)
}

// CustomerDetails returns the CustomerDetails document for id, or
// ErrDocumentNotFound.
func (e *Engine) CustomerDetails(ctx context.Context, id string) (*CustomerDetails, error) {
	return LoadCustomerDetails(ctx, e.store, id)
}
