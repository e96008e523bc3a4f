// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package eventprocessor

import (
	"slices"
	"testing"
	"time"

	"github.com/tomtom215/ledgerview/internal/config"
)

func TestDefaultStreamConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultStreamConfig()
	if cfg.Name != "BANK_EVENTS" {
		t.Errorf("Name = %q, want %q", cfg.Name, "BANK_EVENTS")
	}
	if !slices.Equal(cfg.Subjects, []string{"bank.>", "dlq.>"}) {
		t.Errorf("Subjects = %v, want [bank.> dlq.>]", cfg.Subjects)
	}
	if cfg.DuplicateWindow != 2*time.Minute {
		t.Errorf("DuplicateWindow = %v, want %v", cfg.DuplicateWindow, 2*time.Minute)
	}
	if cfg.MaxMsgs != -1 {
		t.Errorf("MaxMsgs = %d, want -1", cfg.MaxMsgs)
	}
}

func TestDefaultSubscriberConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultSubscriberConfig("nats://localhost:4222")
	if cfg.URL != "nats://localhost:4222" {
		t.Errorf("URL = %q, want %q", cfg.URL, "nats://localhost:4222")
	}
	if cfg.StreamName != DefaultStreamName {
		t.Errorf("StreamName = %q, want %q", cfg.StreamName, DefaultStreamName)
	}
	if cfg.DurableName != "customer-details" {
		t.Errorf("DurableName = %q, want %q", cfg.DurableName, "customer-details")
	}
	if cfg.MaxDeliver <= 0 {
		t.Errorf("MaxDeliver = %d, want > 0", cfg.MaxDeliver)
	}
}

func TestDefaultPublisherConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultPublisherConfig("nats://localhost:4222")
	if !cfg.EnableTrackMsgID {
		t.Error("EnableTrackMsgID should be true so the broker deduplicates by event ID")
	}
	if cfg.MaxReconnects != -1 {
		t.Errorf("MaxReconnects = %d, want -1", cfg.MaxReconnects)
	}
}

func TestConfigFromApplicationConfig(t *testing.T) {
	t.Parallel()

	nats := config.NATSConfig{
		Host:                "0.0.0.0",
		Port:                4333,
		StoreDir:            "/tmp/js",
		StreamName:          "LEDGER",
		StreamRetentionDays: 3,
		DuplicateWindow:     time.Minute,
		DurableName:         "cd",
		QueueGroup:          "q",
		SubscribersCount:    2,
		MaxDeliver:          7,
		AckWait:             10 * time.Second,
		MaxAckPending:       50,
	}

	server := ServerConfigFrom(&nats)
	if server.Host != "0.0.0.0" || server.Port != 4333 || server.StoreDir != "/tmp/js" {
		t.Errorf("ServerConfigFrom() = %+v", server)
	}
	if server.JetStreamMaxMem != DefaultServerConfig().JetStreamMaxMem {
		t.Errorf("JetStreamMaxMem = %d, want default", server.JetStreamMaxMem)
	}

	stream := StreamConfigFrom(&nats)
	if stream.Name != "LEDGER" {
		t.Errorf("stream Name = %q, want %q", stream.Name, "LEDGER")
	}
	if stream.MaxAge != 72*time.Hour {
		t.Errorf("stream MaxAge = %v, want %v", stream.MaxAge, 72*time.Hour)
	}
	if stream.DuplicateWindow != time.Minute {
		t.Errorf("stream DuplicateWindow = %v, want %v", stream.DuplicateWindow, time.Minute)
	}

	sub := SubscriberConfigFrom(&nats, "nats://x:1")
	want := SubscriberConfig{
		URL:              "nats://x:1",
		DurableName:      "cd",
		QueueGroup:       "q",
		SubscribersCount: 2,
		AckWaitTimeout:   10 * time.Second,
		MaxDeliver:       7,
		MaxAckPending:    50,
		CloseTimeout:     DefaultSubscriberConfig("").CloseTimeout,
		MaxReconnects:    -1,
		ReconnectWait:    2 * time.Second,
		StreamName:       "LEDGER",
	}
	if sub != want {
		t.Errorf("SubscriberConfigFrom() = %+v, want %+v", sub, want)
	}
}

func TestRouterConfigFrom(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		in         config.RouterConfig
		wantPoison string
		wantRetry  int
	}{
		{
			name:       "poison enabled",
			in:         config.RouterConfig{RetryCount: 4, PoisonQueueEnabled: true, PoisonQueueTopic: "dlq.x"},
			wantPoison: "dlq.x",
			wantRetry:  4,
		},
		{
			name:       "poison disabled",
			in:         config.RouterConfig{RetryCount: 0, PoisonQueueTopic: "dlq.x"},
			wantPoison: "",
			wantRetry:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := RouterConfigFrom(&tt.in)
			if got.PoisonQueueTopic != tt.wantPoison {
				t.Errorf("PoisonQueueTopic = %q, want %q", got.PoisonQueueTopic, tt.wantPoison)
			}
			if got.RetryMaxRetries != tt.wantRetry {
				t.Errorf("RetryMaxRetries = %d, want %d", got.RetryMaxRetries, tt.wantRetry)
			}
			if got.RetryInitialInterval != DefaultRouterConfig().RetryInitialInterval {
				t.Errorf("RetryInitialInterval = %v, want default", got.RetryInitialInterval)
			}
		})
	}
}
