// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package projection

import (
	"context"
	"fmt"
	"runtime/debug"
	"slices"
	"sync"

	"github.com/tomtom215/ledgerview/internal/events"
)

// Router maps event types to the ordered handlers registered for them.
// Registration happens at startup; dispatch only reads.
type Router struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

// NewRouter creates an empty Router.
func NewRouter() *Router {
	return &Router{handlers: make(map[string][]Handler)}
}

// Register appends h to the handlers of eventType.
func (r *Router) Register(eventType string, h Handler) error {
	if h == nil {
		return ErrNilHandler
	}
	if eventType == "" {
		return fmt.Errorf("register %s: empty event type", h.Name())
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.handlers[eventType] {
		if existing.Name() == h.Name() {
			return fmt.Errorf("%w: %s for %s", ErrDuplicateHandler, h.Name(), eventType)
		}
	}
	r.handlers[eventType] = append(r.handlers[eventType], h)
	return nil
}

// Handlers returns a copy of the handlers for eventType in registration
// order. Unregistered types yield nil.
func (r *Router) Handlers(eventType string) []Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.handlers[eventType])
}

// EventTypes returns the registered event types, sorted.
func (r *Router) EventTypes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]string, 0, len(r.handlers))
	for t := range r.handlers {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// Dispatch runs apply for every handler of env.EventType in order. Each
// call is isolated: an error or panic becomes that handler's outcome and
// the remaining handlers still run.
func (r *Router) Dispatch(ctx context.Context, env events.Envelope, apply func(context.Context, Handler) (Decision, error)) []HandlerOutcome {
	handlers := r.Handlers(env.EventType)
	if len(handlers) == 0 {
		return nil
	}

	outcomes := make([]HandlerOutcome, 0, len(handlers))
	for _, h := range handlers {
		decision, err := invoke(ctx, h, apply)
		outcomes = append(outcomes, HandlerOutcome{Handler: h.Name(), Decision: decision, Err: err})
	}
	return outcomes
}

func invoke(ctx context.Context, h Handler, apply func(context.Context, Handler) (Decision, error)) (decision Decision, err error) {
	defer func() {
		if p := recover(); p != nil {
			decision = DecisionSkipped
			err = fmt.Errorf("%w: %v\n%s", ErrHandlerPanic, p, debug.Stack())
		}
	}()
	return apply(ctx, h)
}
