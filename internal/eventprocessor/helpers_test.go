// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package eventprocessor

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/tomtom215/ledgerview/internal/events"
	"github.com/tomtom215/ledgerview/internal/projection"
)

var errStoreDown = errors.New("store unavailable")

// flakyStore fails the first failures upserts, then delegates to memory.
type flakyStore struct {
	*projection.MemoryStore
	failures atomic.Int64
}

func newFlakyStore(failures int64) *flakyStore {
	s := &flakyStore{MemoryStore: projection.NewMemoryStore()}
	s.failures.Store(failures)
	return s
}

func (s *flakyStore) Upsert(ctx context.Context, id string, m projection.Mutation, pre projection.Precondition) (projection.UpsertResult, error) {
	if s.failures.Add(-1) >= 0 {
		return projection.UpsertResult{}, errStoreDown
	}
	return s.MemoryStore.Upsert(ctx, id, m, pre)
}

func newTestEngine(t *testing.T, store projection.Store) *projection.Engine {
	t.Helper()
	engine, err := projection.NewEngine(store)
	if err != nil {
		t.Fatalf("NewEngine() error: %v", err)
	}
	return engine
}

func customerEnvelope(t *testing.T, id string, version int64, first, last string) events.Envelope {
	t.Helper()
	env, err := events.CustomerCreated{AggregateID: id, AggregateVersion: version, Firstname: first, Lastname: last}.Envelope()
	if err != nil {
		t.Fatalf("Envelope() error: %v", err)
	}
	return env
}

func accountEnvelope(t *testing.T, accountID, ownerID string) events.Envelope {
	t.Helper()
	env, err := events.AccountCreated{AggregateID: accountID, AggregateVersion: 1, OwnerID: ownerID}.Envelope()
	if err != nil {
		t.Fatalf("Envelope() error: %v", err)
	}
	return env
}

func envelopeMessage(t *testing.T, env events.Envelope) *message.Message {
	t.Helper()
	data, err := SerializeEnvelope(&env)
	if err != nil {
		t.Fatalf("SerializeEnvelope() error: %v", err)
	}
	return message.NewMessage(env.EventID, data)
}
