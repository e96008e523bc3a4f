// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateNATS,
		c.validateRouter,
		c.validateStore,
		c.validateAPI,
		c.validateSupervisor,
		c.validateLogging,
	}

	for _, validator := range validators {
		if err := validator(); err != nil {
			return err
		}
	}
	return nil
}

// NATS limit constants
const (
	natsMinMemory      = 64 * 1024 * 1024  // 64MB
	natsMinStore       = 100 * 1024 * 1024 // 100MB
	natsMaxRetention   = 3650
	natsMinRetention   = 1
	natsMaxSubscribers = 64
)

// validateNATS validates the transport settings (only if enabled)
func (c *Config) validateNATS() error {
	if !c.NATS.Enabled {
		return nil
	}

	if err := validateNATSURL(c.NATS.URL); err != nil {
		return fmt.Errorf("NATS_URL is invalid: %w", err)
	}
	if c.NATS.EmbeddedServer {
		if c.NATS.MaxMemory < natsMinMemory {
			return fmt.Errorf("NATS_MAX_MEMORY must be at least 64MB (67108864 bytes)")
		}
		if c.NATS.MaxStore < natsMinStore {
			return fmt.Errorf("NATS_MAX_STORE must be at least 100MB (104857600 bytes)")
		}
		if c.NATS.Port < 1 || c.NATS.Port > 65535 {
			return fmt.Errorf("NATS_PORT must be between 1 and 65535")
		}
	}
	if c.NATS.StreamName == "" {
		return fmt.Errorf("NATS_STREAM_NAME is required")
	}
	if c.NATS.StreamRetentionDays < natsMinRetention || c.NATS.StreamRetentionDays > natsMaxRetention {
		return fmt.Errorf("NATS_RETENTION_DAYS must be between 1 and 3650")
	}
	if c.NATS.DurableName == "" {
		return fmt.Errorf("NATS_DURABLE_NAME is required")
	}
	if c.NATS.SubscribersCount < 1 || c.NATS.SubscribersCount > natsMaxSubscribers {
		return fmt.Errorf("NATS_SUBSCRIBERS must be between 1 and 64")
	}
	if c.NATS.MaxDeliver < 1 {
		return fmt.Errorf("NATS_MAX_DELIVER must be at least 1")
	}
	if c.NATS.AckWait < time.Second {
		return fmt.Errorf("NATS_ACK_WAIT must be at least 1s")
	}
	return nil
}

// validateRouter validates the router middleware settings
func (c *Config) validateRouter() error {
	if c.Router.RetryCount < 0 {
		return fmt.Errorf("ROUTER_RETRY_COUNT must not be negative")
	}
	if c.Router.RetryMaxInterval > 0 && c.Router.RetryMaxInterval < c.Router.RetryInitialInterval {
		return fmt.Errorf("ROUTER_RETRY_MAX_INTERVAL must not be below ROUTER_RETRY_INITIAL_INTERVAL")
	}
	if c.Router.ThrottlePerSecond < 0 {
		return fmt.Errorf("ROUTER_THROTTLE_PER_SECOND must not be negative")
	}
	if c.Router.PoisonQueueEnabled {
		if c.Router.PoisonQueueTopic == "" {
			return fmt.Errorf("ROUTER_POISON_QUEUE_TOPIC is required when the poison queue is enabled")
		}
		if c.NATS.Enabled && matchesSubject(c.NATS.SubscribeTopic, c.Router.PoisonQueueTopic) {
			return fmt.Errorf("ROUTER_POISON_QUEUE_TOPIC %q must not match NATS_SUBSCRIBE_TOPIC %q", c.Router.PoisonQueueTopic, c.NATS.SubscribeTopic)
		}
	}
	return nil
}

// validateStore validates the read-model backend
func (c *Config) validateStore() error {
	switch c.Store.Backend {
	case BackendMemory:
	case BackendBadger, BackendDuckDB:
		if c.Store.Path == "" {
			return fmt.Errorf("STORE_PATH is required for the %s backend", c.Store.Backend)
		}
	default:
		return fmt.Errorf("STORE_BACKEND must be one of: memory, badger, duckdb")
	}
	if c.Store.ConflictRetries < 0 {
		return fmt.Errorf("STORE_CONFLICT_RETRIES must not be negative")
	}
	if c.Store.MaintenanceInterval < 0 {
		return fmt.Errorf("STORE_MAINTENANCE_INTERVAL must not be negative")
	}
	if c.Store.Breaker.Enabled && c.Store.Breaker.FailureThreshold == 0 {
		return fmt.Errorf("STORE_BREAKER_FAILURE_THRESHOLD must be at least 1")
	}
	return nil
}

// validateAPI validates the query server settings (only if enabled)
func (c *Config) validateAPI() error {
	if !c.API.Enabled {
		return nil
	}
	if c.API.Port < 1 || c.API.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.API.RateLimitRequests < 0 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must not be negative")
	}
	if c.API.RateLimitRequests > 0 && c.API.RateLimitWindow < time.Second {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be at least 1s")
	}
	if c.API.CacheSize < 0 {
		return fmt.Errorf("API_CACHE_SIZE must not be negative")
	}
	return nil
}

// validateSupervisor validates the supervisor tree settings
func (c *Config) validateSupervisor() error {
	if c.Supervisor.FailureThreshold < 0 || c.Supervisor.FailureDecay < 0 {
		return fmt.Errorf("SUPERVISOR_FAILURE_THRESHOLD and SUPERVISOR_FAILURE_DECAY must not be negative")
	}
	return nil
}

var validLogLevels = map[string]bool{
	"trace": true,
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if !validLogLevels[c.Logging.Level] {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[c.Logging.Format] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// matchesSubject reports whether the NATS subject filter matches subject.
// Supports the * and > wildcards.
func matchesSubject(filter, subject string) bool {
	ft := strings.Split(filter, ".")
	st := strings.Split(subject, ".")
	for i, tok := range ft {
		if tok == ">" {
			return len(st) > i
		}
		if i >= len(st) {
			return false
		}
		if tok != "*" && tok != st[i] {
			return false
		}
	}
	return len(ft) == len(st)
}
