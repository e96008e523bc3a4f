// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/ledgerview/config.yaml",
	"/etc/ledgerview/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Default returns the built-in configuration before any file or
// environment overrides are applied.
func Default() *Config {
	return defaultConfig()
}

// defaultConfig returns a Config struct with all default values.
func defaultConfig() *Config {
	return &Config{
		NATS: NATSConfig{
			Enabled:             true,
			URL:                 "nats://127.0.0.1:4222",
			EmbeddedServer:      true,
			Host:                "127.0.0.1",
			Port:                4222,
			StoreDir:            "/data/nats/jetstream",
			MaxMemory:           256 << 20, // 256MB
			MaxStore:            1 << 30,   // 1GB
			StreamName:          "BANK_EVENTS",
			StreamRetentionDays: 30,
			DuplicateWindow:     2 * time.Minute,
			SubscribeTopic:      "bank.>",
			DurableName:         "customer-details",
			QueueGroup:          "projections",
			SubscribersCount:    4,
			MaxDeliver:          10,
			AckWait:             30 * time.Second,
			MaxAckPending:       1000,
		},
		Router: RouterConfig{
			RetryCount:           3,
			RetryInitialInterval: 100 * time.Millisecond,
			RetryMaxInterval:     5 * time.Second,
			ThrottlePerSecond:    0, // Unlimited
			PoisonQueueEnabled:   true,
			PoisonQueueTopic:     "dlq.customerdetails",
			CloseTimeout:         30 * time.Second,
		},
		Store: StoreConfig{
			Backend:             BackendBadger,
			Path:                "/data/readmodel",
			SyncWrites:          true,
			ConflictRetries:     10,
			MaintenanceInterval: 10 * time.Minute,
			Breaker: BreakerConfig{
				Enabled:          true,
				MaxRequests:      3,
				Interval:         time.Minute,
				Timeout:          30 * time.Second,
				FailureThreshold: 5,
			},
		},
		API: APIConfig{
			Enabled:           true,
			Host:              "0.0.0.0",
			Port:              8080,
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			CORSOrigins:       []string{"*"},
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
			CacheSize:         1024,
			CacheTTL:          2 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5.0,
			FailureDecay:     30.0,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// NATS_URL -> nats.url, STORE_BACKEND -> store.backend
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile returns the first config file found, or empty string.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths are comma-separated in env vars.
var sliceConfigPaths = []string{
	"api.cors_origins",
}

// processSliceFields converts comma-separated string values to slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to koanf paths.
var envMappings = map[string]string{
	// NATS
	"nats_enabled":         "nats.enabled",
	"nats_url":             "nats.url",
	"nats_embedded":        "nats.embedded_server",
	"nats_host":            "nats.host",
	"nats_port":            "nats.port",
	"nats_store_dir":       "nats.store_dir",
	"nats_max_memory":      "nats.max_memory",
	"nats_max_store":       "nats.max_store",
	"nats_stream_name":     "nats.stream_name",
	"nats_retention_days":  "nats.stream_retention_days",
	"nats_dedup_window":    "nats.duplicate_window",
	"nats_subscribe_topic": "nats.subscribe_topic",
	"nats_durable_name":    "nats.durable_name",
	"nats_queue_group":     "nats.queue_group",
	"nats_subscribers":     "nats.subscribers",
	"nats_max_deliver":     "nats.max_deliver",
	"nats_ack_wait":        "nats.ack_wait",
	"nats_max_ack_pending": "nats.max_ack_pending",

	// Router
	"router_retry_count":            "router.retry_count",
	"router_retry_initial_interval": "router.retry_initial_interval",
	"router_retry_max_interval":     "router.retry_max_interval",
	"router_throttle_per_second":    "router.throttle_per_second",
	"router_poison_queue_enabled":   "router.poison_queue_enabled",
	"router_poison_queue_topic":     "router.poison_queue_topic",
	"router_close_timeout":          "router.close_timeout",

	// Store
	"store_backend":                   "store.backend",
	"store_path":                      "store.path",
	"store_sync_writes":               "store.sync_writes",
	"store_conflict_retries":          "store.conflict_retries",
	"store_maintenance_interval":      "store.maintenance_interval",
	"store_breaker_enabled":           "store.breaker.enabled",
	"store_breaker_max_requests":      "store.breaker.max_requests",
	"store_breaker_interval":          "store.breaker.interval",
	"store_breaker_timeout":           "store.breaker.timeout",
	"store_breaker_failure_threshold": "store.breaker.failure_threshold",

	// API
	"api_enabled":           "api.enabled",
	"http_host":             "api.host",
	"http_port":             "api.port",
	"http_read_timeout":     "api.read_timeout",
	"http_write_timeout":    "api.write_timeout",
	"http_shutdown_timeout": "api.shutdown_timeout",
	"cors_origins":          "api.cors_origins",
	"rate_limit_requests":   "api.rate_limit_requests",
	"rate_limit_window":     "api.rate_limit_window",
	"api_cache_size":        "api.cache_size",
	"api_cache_ttl":         "api.cache_ttl",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Supervisor
	"supervisor_failure_threshold": "supervisor.failure_threshold",
	"supervisor_failure_decay":     "supervisor.failure_decay",
	"supervisor_failure_backoff":   "supervisor.failure_backoff",
	"supervisor_shutdown_timeout":  "supervisor.shutdown_timeout",
}

// envTransformFunc maps environment variable names to koanf paths.
// Unmapped keys return "" so unrelated environment variables are skipped.
//
// Examples:
//   - NATS_URL -> nats.url
//   - STORE_BACKEND -> store.backend
//   - HTTP_PORT -> api.port
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
