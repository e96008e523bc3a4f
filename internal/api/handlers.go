// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/ledgerview/internal/cache"
	"github.com/tomtom215/ledgerview/internal/eventprocessor"
	"github.com/tomtom215/ledgerview/internal/projection"
)

const customerCacheName = "customers"

// maxCustomerIDLength bounds the path parameter before it reaches the store.
const maxCustomerIDLength = 256

// HealthReporter aggregates component health. Satisfied by
// *eventprocessor.HealthChecker.
type HealthReporter interface {
	CheckAll(ctx context.Context) eventprocessor.OverallHealth
}

// Handler serves the read model.
type Handler struct {
	store     projection.Store
	health    HealthReporter
	customers *cache.LRU[projection.CustomerDetails]
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithHealthReporter replaces the default store-only health check.
func WithHealthReporter(h HealthReporter) HandlerOption {
	return func(handler *Handler) {
		if h != nil {
			handler.health = h
		}
	}
}

// WithCustomerCache caches customer documents for ttl. size 0 disables it.
func WithCustomerCache(size int, ttl time.Duration) HandlerOption {
	return func(handler *Handler) {
		if size <= 0 {
			handler.customers = nil
			return
		}
		handler.customers = cache.NewLRU[projection.CustomerDetails](customerCacheName, size, ttl)
	}
}

// NewHandler creates a Handler reading from store. Without a health
// reporter, /healthz checks only the store.
func NewHandler(store projection.Store, opts ...HandlerOption) *Handler {
	h := &Handler{store: store}
	for _, opt := range opts {
		opt(h)
	}
	if h.health == nil {
		checker := eventprocessor.NewHealthChecker(eventprocessor.DefaultHealthConfig())
		checker.RegisterComponent("store", eventprocessor.StoreHealth(store))
		h.health = checker
	}
	return h
}

// GetCustomer handles GET /api/v1/customers/{id}.
func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" || len(id) > maxCustomerIDLength {
		rw.BadRequest("customer id must be 1-256 characters")
		return
	}

	if h.customers != nil {
		if details, ok := h.customers.Get(id); ok {
			rw.Success(details)
			return
		}
	}

	details, err := projection.LoadCustomerDetails(r.Context(), h.store, id)
	switch {
	case errors.Is(err, projection.ErrDocumentNotFound):
		rw.NotFound("customer " + id + " not found")
		return
	case err != nil:
		rw.StoreError(err)
		return
	}

	if h.customers != nil {
		h.customers.Add(id, *details)
	}
	rw.Success(details)
}

// Health handles GET /healthz. Only an unhealthy component turns the
// answer into 503; a degraded one still answers 200 with its status in
// the body.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	overall := h.health.CheckAll(r.Context())
	status := http.StatusOK
	if !overall.Healthy {
		status = http.StatusServiceUnavailable
	}
	NewResponseWriter(w, r).JSON(status, overall.Healthy, overall)
}

// Live handles GET /healthz/live.
func (h *Handler) Live(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]string{"status": "alive"})
}
