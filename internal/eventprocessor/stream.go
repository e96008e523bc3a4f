// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package eventprocessor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// JetStreamContext is the subset of jetstream.JetStream used by StreamManager.
type JetStreamContext interface {
	Stream(ctx context.Context, name string) (jetstream.Stream, error)
	CreateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
	UpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
	DeleteStream(ctx context.Context, name string) error
}

// StreamManager handles JetStream stream lifecycle.
type StreamManager struct {
	js     JetStreamContext
	config StreamConfig
}

// NewStreamManager creates a stream manager on an open connection.
func NewStreamManager(nc *nats.Conn, cfg *StreamConfig) (*StreamManager, error) {
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("create JetStream context: %w", err)
	}
	return NewStreamManagerWithContext(js, cfg)
}

// NewStreamManagerWithContext creates a stream manager on an existing
// JetStream context.
func NewStreamManagerWithContext(js JetStreamContext, cfg *StreamConfig) (*StreamManager, error) {
	if js == nil {
		return nil, fmt.Errorf("%w: JetStream context required", ErrInvalidConfig)
	}
	if cfg == nil || cfg.Name == "" || len(cfg.Subjects) == 0 {
		return nil, fmt.Errorf("%w: stream name and subjects required", ErrInvalidConfig)
	}

	return &StreamManager{
		js:     js,
		config: *cfg,
	}, nil
}

func (m *StreamManager) streamConfig() jetstream.StreamConfig {
	return jetstream.StreamConfig{
		Name:       m.config.Name,
		Subjects:   m.config.Subjects,
		Retention:  jetstream.LimitsPolicy,
		MaxAge:     m.config.MaxAge,
		MaxBytes:   m.config.MaxBytes,
		MaxMsgs:    m.config.MaxMsgs,
		Duplicates: m.config.DuplicateWindow,
		Replicas:   m.config.Replicas,
		Storage:    jetstream.FileStorage,
		Discard:    jetstream.DiscardOld,
	}
}

// EnsureStream creates the stream or updates it to the configured settings.
// Calling it repeatedly is safe.
func (m *StreamManager) EnsureStream(ctx context.Context) (jetstream.Stream, error) {
	streamCfg := m.streamConfig()

	_, err := m.js.Stream(ctx, m.config.Name)
	switch {
	case err == nil:
		stream, err := m.js.UpdateStream(ctx, streamCfg)
		if err != nil {
			return nil, fmt.Errorf("update stream: %w", err)
		}
		return stream, nil
	case errors.Is(err, jetstream.ErrStreamNotFound):
		stream, err := m.js.CreateStream(ctx, streamCfg)
		if err != nil {
			return nil, fmt.Errorf("create stream: %w", err)
		}
		return stream, nil
	default:
		return nil, fmt.Errorf("lookup stream: %w", err)
	}
}

// GetStreamInfo returns current stream state.
func (m *StreamManager) GetStreamInfo(ctx context.Context) (*jetstream.StreamInfo, error) {
	stream, err := m.js.Stream(ctx, m.config.Name)
	if err != nil {
		return nil, fmt.Errorf("get stream: %w", err)
	}
	return stream.Info(ctx)
}

// DeleteStream removes the stream entirely.
func (m *StreamManager) DeleteStream(ctx context.Context) error {
	return m.js.DeleteStream(ctx, m.config.Name)
}

// Config returns the managed stream configuration.
func (m *StreamManager) Config() StreamConfig {
	return m.config
}

// HealthCheck implements HealthCheckable.
func (m *StreamManager) HealthCheck(ctx context.Context) ComponentHealth {
	health := ComponentHealth{
		Name:      "stream",
		LastCheck: time.Now(),
		Details:   make(map[string]interface{}),
	}

	info, err := m.GetStreamInfo(ctx)
	if err != nil {
		health.Error = err.Error()
		return health
	}

	health.Healthy = true
	health.Message = "Stream available"
	health.Details["name"] = info.Config.Name
	health.Details["messages"] = info.State.Msgs
	health.Details["bytes"] = info.State.Bytes
	health.Details["consumers"] = info.State.Consumers
	return health
}
