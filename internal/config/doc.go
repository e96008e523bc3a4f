// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

/*
Package config provides centralized configuration management for ledgerview.

Configuration is layered with Koanf v2, later layers overriding earlier ones:

 1. Defaults from defaultConfig()
 2. Optional YAML file: CONFIG_PATH, ./config.yaml, /etc/ledgerview/config.yaml
 3. Environment variables mapped by envTransformFunc

# Configuration Structure

  - NATSConfig: JetStream connection, embedded server, stream and consumer
  - RouterConfig: Watermill router retry, throttle and poison queue
  - StoreConfig: read-model backend (memory, badger, duckdb) and circuit breaker
  - APIConfig: query HTTP server, CORS, rate limit and document cache
  - LoggingConfig: zerolog level and format
  - SupervisorConfig: suture failure thresholds and shutdown timeout

# Environment Variables

Only mapped variables are read; everything else in the environment is
ignored. Examples:

  - NATS_URL, NATS_EMBEDDED, NATS_STORE_DIR, NATS_MAX_DELIVER
  - ROUTER_RETRY_COUNT, ROUTER_POISON_QUEUE_TOPIC
  - STORE_BACKEND, STORE_PATH, STORE_BREAKER_ENABLED
  - HTTP_HOST, HTTP_PORT, CORS_ORIGINS, RATE_LIMIT_REQUESTS
  - LOG_LEVEL, LOG_FORMAT, LOG_CALLER

# Usage

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	store, closer, err := readstore.Open(cfg.Store)

Config is immutable after Load() and safe for concurrent reads.
*/
package config
