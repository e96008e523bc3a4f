// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package eventprocessor

import (
	"context"
	"errors"
	"maps"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/ledgerview/internal/projection"
)

// HealthStatusType is the aggregated status reported by /healthz.
type HealthStatusType string

// Statuses, from best to worst.
const (
	HealthStatusHealthy   HealthStatusType = "healthy"
	HealthStatusDegraded  HealthStatusType = "degraded"
	HealthStatusUnhealthy HealthStatusType = "unhealthy"
)

// statusOf classifies a single component result.
func statusOf(c ComponentHealth) HealthStatusType {
	switch {
	case !c.Healthy:
		return HealthStatusUnhealthy
	case c.Degraded:
		return HealthStatusDegraded
	default:
		return HealthStatusHealthy
	}
}

// worse returns the worse of two statuses.
func worse(a, b HealthStatusType) HealthStatusType {
	rank := map[HealthStatusType]int{HealthStatusHealthy: 0, HealthStatusDegraded: 1, HealthStatusUnhealthy: 2}
	if rank[b] > rank[a] {
		return b
	}
	return a
}

// HealthConfig bounds each component check.
type HealthConfig struct {
	Timeout time.Duration
}

// DefaultHealthConfig returns a 5s per-component timeout.
func DefaultHealthConfig() HealthConfig {
	return HealthConfig{Timeout: 5 * time.Second}
}

// ComponentHealth is one component's answer to a health check.
type ComponentHealth struct {
	Healthy   bool                   `json:"healthy"`
	Degraded  bool                   `json:"degraded,omitempty"`
	Name      string                 `json:"name"`
	Message   string                 `json:"message,omitempty"`
	Error     string                 `json:"error,omitempty"`
	LastCheck time.Time              `json:"last_check"`
	Latency   time.Duration          `json:"latency_ns"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// HealthCheckable is implemented by the projection pipeline's parts.
type HealthCheckable interface {
	HealthCheck(ctx context.Context) ComponentHealth
}

// HealthCheckFunc adapts a function to HealthCheckable.
type HealthCheckFunc func(ctx context.Context) ComponentHealth

// HealthCheck implements HealthCheckable.
func (f HealthCheckFunc) HealthCheck(ctx context.Context) ComponentHealth {
	return f(ctx)
}

// OverallHealth is the worst status across all components.
type OverallHealth struct {
	Healthy    bool                       `json:"healthy"`
	Status     HealthStatusType           `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Components map[string]ComponentHealth `json:"components"`
}

// HealthChecker runs the registered component checks.
type HealthChecker struct {
	timeout    time.Duration
	mu         sync.RWMutex
	components map[string]HealthCheckable
}

// NewHealthChecker creates a checker. A non-positive timeout uses the default.
func NewHealthChecker(cfg HealthConfig) *HealthChecker {
	if cfg.Timeout <= 0 {
		cfg = DefaultHealthConfig()
	}
	return &HealthChecker{
		timeout:    cfg.Timeout,
		components: make(map[string]HealthCheckable),
	}
}

// RegisterComponent adds or replaces the check for name.
func (h *HealthChecker) RegisterComponent(name string, component HealthCheckable) {
	h.mu.Lock()
	h.components[name] = component
	h.mu.Unlock()
}

// UnregisterComponent removes the check for name.
func (h *HealthChecker) UnregisterComponent(name string) {
	h.mu.Lock()
	delete(h.components, name)
	h.mu.Unlock()
}

// CheckAll runs every check concurrently and reports the worst status.
func (h *HealthChecker) CheckAll(ctx context.Context) OverallHealth {
	h.mu.RLock()
	components := maps.Clone(h.components)
	h.mu.RUnlock()

	results := make(chan ComponentHealth, len(components))
	for name, comp := range components {
		go func() { results <- h.check(ctx, name, comp) }()
	}

	overall := OverallHealth{
		Status:     HealthStatusHealthy,
		Timestamp:  time.Now(),
		Components: make(map[string]ComponentHealth, len(components)),
	}
	for range components {
		r := <-results
		overall.Components[r.Name] = r
		overall.Status = worse(overall.Status, statusOf(r))
	}
	overall.Healthy = overall.Status != HealthStatusUnhealthy
	return overall
}

// CheckComponent runs the check registered under name.
func (h *HealthChecker) CheckComponent(ctx context.Context, name string) ComponentHealth {
	h.mu.RLock()
	comp, ok := h.components[name]
	h.mu.RUnlock()

	if !ok {
		return ComponentHealth{Name: name, Error: "component not found", LastCheck: time.Now()}
	}
	return h.check(ctx, name, comp)
}

// check runs one component check under the checker timeout. A check that
// ignores its context is abandoned and reported unhealthy.
func (h *HealthChecker) check(ctx context.Context, name string, comp HealthCheckable) ComponentHealth {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	start := time.Now()
	done := make(chan ComponentHealth, 1)
	go func() { done <- comp.HealthCheck(ctx) }()

	var result ComponentHealth
	select {
	case result = <-done:
	case <-ctx.Done():
		result = ComponentHealth{Error: "health check timeout"}
	}
	result.Name = name
	result.LastCheck = time.Now()
	result.Latency = result.LastCheck.Sub(start)
	return result
}

// StoreHealth reports the health of a projection store. Stores that do
// not implement projection.Pinger are assumed healthy.
func StoreHealth(store projection.Store) HealthCheckable {
	return HealthCheckFunc(func(ctx context.Context) ComponentHealth {
		health := ComponentHealth{
			Name:      "store",
			LastCheck: time.Now(),
		}
		pinger, ok := store.(projection.Pinger)
		if !ok {
			health.Healthy = true
			health.Message = "Store does not report health"
			return health
		}

		err := pinger.Ping(ctx)
		switch {
		case err == nil:
			health.Healthy = true
			health.Message = "Store reachable"
		case errors.Is(err, gobreaker.ErrOpenState):
			health.Error = "store circuit breaker is open"
		default:
			health.Error = err.Error()
		}
		return health
	})
}
