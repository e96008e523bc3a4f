// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package projection

import "context"

// Precondition decides whether a mutation may be applied to the current
// state of a document. exists is false when the document is absent, in
// which case doc is nil.
type Precondition interface {
	Satisfied(doc *Document, exists bool) bool
}

// PreconditionFunc adapts a function to Precondition.
type PreconditionFunc func(doc *Document, exists bool) bool

// Satisfied implements Precondition.
func (f PreconditionFunc) Satisfied(doc *Document, exists bool) bool {
	return f(doc, exists)
}

// UpsertResult reports what a conditional upsert did.
type UpsertResult struct {
	// Applied is false when the precondition failed and nothing was written.
	Applied bool

	// Created is true when the document did not exist before the call.
	Created bool

	// Changed is true when the stored document differs from before.
	Changed bool
}

// Store is a versioned document collection.
//
// Upsert creates the document with default fields if absent, then applies
// the mutation if the precondition holds. A failed precondition is not an
// error. Implementations must be safe for concurrent use and must serialize
// upserts of the same document so no update is lost.
type Store interface {
	Upsert(ctx context.Context, documentID string, m Mutation, pre Precondition) (UpsertResult, error)
	Get(ctx context.Context, documentID string) (*Document, error)
}

// Pinger is implemented by stores that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ApplyUpsert computes the outcome of a conditional upsert against the
// current state of a document (nil when absent). The returned document is
// non-nil only when it must be written back.
func ApplyUpsert(existing *Document, documentID string, m Mutation, pre Precondition) (*Document, UpsertResult) {
	exists := existing != nil
	if pre != nil && !pre.Satisfied(existing, exists) {
		return nil, UpsertResult{}
	}

	var doc *Document
	if exists {
		doc = existing.Clone()
	} else {
		doc = NewDocument(documentID)
	}
	doc.ID = documentID

	changed := m.Apply(doc)
	if exists && !changed {
		return nil, UpsertResult{Applied: true}
	}
	return doc, UpsertResult{Applied: true, Created: !exists, Changed: true}
}
