// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package projection

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store. Upserts are serialized by a single
// mutex; reads return copies.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]*Document)}
}

// Upsert implements Store.
func (s *MemoryStore) Upsert(ctx context.Context, documentID string, m Mutation, pre Precondition) (UpsertResult, error) {
	if err := ctx.Err(); err != nil {
		return UpsertResult{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, res := ApplyUpsert(s.docs[documentID], documentID, m, pre)
	if doc != nil {
		s.docs[documentID] = doc
	}
	return res, nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, documentID string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[documentID]
	if !ok {
		return nil, ErrDocumentNotFound
	}
	return doc.Clone(), nil
}

// Len returns the number of stored documents.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Ping implements Pinger.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}
