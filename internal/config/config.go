// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	NATS       NATSConfig       `koanf:"nats"`
	Router     RouterConfig     `koanf:"router"`
	Store      StoreConfig      `koanf:"store"`
	API        APIConfig        `koanf:"api"`
	Logging    LoggingConfig    `koanf:"logging"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// NATSConfig configures the JetStream transport.
type NATSConfig struct {
	// Enabled controls whether events are consumed from NATS. When false
	// the API serves whatever the store already holds.
	Enabled bool `koanf:"enabled"`

	// URL is the NATS server connection URL.
	URL string `koanf:"url"`

	// EmbeddedServer starts an in-process NATS server with JetStream.
	// If false, expects an external server at URL.
	EmbeddedServer bool `koanf:"embedded_server"`

	// Host and Port are the embedded server listen address.
	Host string `koanf:"host"`
	Port int    `koanf:"port"`

	// StoreDir is the JetStream storage directory of the embedded server.
	StoreDir string `koanf:"store_dir"`

	// MaxMemory is the maximum memory for JetStream in bytes.
	MaxMemory int64 `koanf:"max_memory"`

	// MaxStore is the maximum disk storage for JetStream in bytes.
	MaxStore int64 `koanf:"max_store"`

	// StreamName is the JetStream stream holding bank and dead-letter subjects.
	StreamName string `koanf:"stream_name"`

	// StreamRetentionDays is how long to keep events.
	StreamRetentionDays int `koanf:"stream_retention_days"`

	// DuplicateWindow is the broker-side Nats-Msg-Id deduplication window.
	DuplicateWindow time.Duration `koanf:"duplicate_window"`

	// SubscribeTopic is the subject filter consumed by the projection.
	SubscribeTopic string `koanf:"subscribe_topic"`

	// DurableName is the durable consumer name.
	DurableName string `koanf:"durable_name"`

	// QueueGroup spreads deliveries over replicas.
	QueueGroup string `koanf:"queue_group"`

	// SubscribersCount is the number of concurrent subscriber goroutines.
	SubscribersCount int `koanf:"subscribers"`

	// MaxDeliver bounds redelivery of transient failures.
	MaxDeliver int `koanf:"max_deliver"`

	// AckWait is how long JetStream waits for an ack before redelivering.
	AckWait time.Duration `koanf:"ack_wait"`

	// MaxAckPending bounds unacknowledged messages per consumer.
	MaxAckPending int `koanf:"max_ack_pending"`
}

// RouterConfig configures the Watermill router middleware.
type RouterConfig struct {
	RetryCount           int           `koanf:"retry_count"`
	RetryInitialInterval time.Duration `koanf:"retry_initial_interval"`
	RetryMaxInterval     time.Duration `koanf:"retry_max_interval"`

	// ThrottlePerSecond limits handled messages per second. 0 disables it.
	ThrottlePerSecond int64 `koanf:"throttle_per_second"`

	// PoisonQueueEnabled routes malformed events to PoisonQueueTopic.
	PoisonQueueEnabled bool   `koanf:"poison_queue_enabled"`
	PoisonQueueTopic   string `koanf:"poison_queue_topic"`

	CloseTimeout time.Duration `koanf:"close_timeout"`
}

// StoreConfig selects and tunes the read-model store.
type StoreConfig struct {
	// Backend is one of memory, badger or duckdb.
	Backend string `koanf:"backend"`

	// Path is the badger directory or the duckdb file.
	Path string `koanf:"path"`

	// SyncWrites fsyncs badger writes before acknowledging.
	SyncWrites bool `koanf:"sync_writes"`

	// ConflictRetries bounds badger transaction retries on write conflicts.
	ConflictRetries int `koanf:"conflict_retries"`

	// MaintenanceInterval is how often badger value-log GC or a duckdb
	// checkpoint runs. 0 disables maintenance.
	MaintenanceInterval time.Duration `koanf:"maintenance_interval"`

	Breaker BreakerConfig `koanf:"breaker"`
}

// BreakerConfig configures the store circuit breaker.
type BreakerConfig struct {
	Enabled          bool          `koanf:"enabled"`
	MaxRequests      uint32        `koanf:"max_requests"`
	Interval         time.Duration `koanf:"interval"`
	Timeout          time.Duration `koanf:"timeout"`
	FailureThreshold uint32        `koanf:"failure_threshold"`
}

// APIConfig configures the query HTTP server.
type APIConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	CORSOrigins []string `koanf:"cors_origins"`

	// RateLimitRequests per RateLimitWindow per client IP. 0 disables it.
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`

	// CacheSize documents are cached for CacheTTL. 0 disables the cache.
	CacheSize int           `koanf:"cache_size"`
	CacheTTL  time.Duration `koanf:"cache_ttl"`
}

// Addr returns host:port for http.Server.
func (c APIConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: info
	Level string `koanf:"level"`

	// Format is the output format: json or console.
	// Default: json
	Format string `koanf:"format"`

	// Caller includes caller file and line number in logs.
	// Default: false
	Caller bool `koanf:"caller"`
}

// SupervisorConfig holds suture tree settings.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

// Store backends.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendDuckDB = "duckdb"
)

// Load reads configuration from defaults, an optional config file and the
// environment. See LoadWithKoanf.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
