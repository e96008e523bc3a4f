// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package projection

import (
	"context"
	"fmt"
)

// Decision is the Guard's verdict for one command.
type Decision int

const (
	// DecisionSkipped means the precondition failed: the event is stale or
	// a duplicate. This is a success.
	DecisionSkipped Decision = iota

	// DecisionCreated means the document did not exist and was created.
	DecisionCreated

	// DecisionApplied means an existing document was changed.
	DecisionApplied

	// DecisionUnchanged means the mutation applied but was already
	// reflected, e.g. a repeated set-add.
	DecisionUnchanged
)

// String returns the decision label used in logs and metrics.
func (d Decision) String() string {
	switch d {
	case DecisionSkipped:
		return "skipped"
	case DecisionCreated:
		return "created"
	case DecisionApplied:
		return "applied"
	case DecisionUnchanged:
		return "unchanged"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// VersionGate is satisfied iff the document does not exist or its version
// is lower than Version.
type VersionGate struct {
	Version int64
}

// Satisfied implements Precondition.
func (g VersionGate) Satisfied(doc *Document, exists bool) bool {
	return !exists || doc.Version < g.Version
}

// Command is one conditional upsert produced by a handler.
type Command struct {
	DocumentID   string
	Mutation     Mutation
	Precondition Precondition
}

// FieldSet builds a version-gated field-set. The version is written
// atomically with the fields.
func FieldSet(documentID string, version int64, fields map[string]string) Command {
	return Command{
		DocumentID: documentID,
		Mutation: Mutation{
			SetFields:  fields,
			SetVersion: version,
		},
		Precondition: VersionGate{Version: version},
	}
}

// SetAdd builds an unconditional set-add. The document version is not
// touched.
func SetAdd(documentID, field string, members ...string) Command {
	return Command{
		DocumentID: documentID,
		Mutation: Mutation{
			AddToSet: map[string][]string{field: members},
		},
	}
}

// Validate rejects commands that can never be applied.
func (c Command) Validate() error {
	if c.DocumentID == "" {
		return fmt.Errorf("%w: empty document id", ErrMalformedEvent)
	}
	if gate, ok := c.Precondition.(VersionGate); ok && gate.Version < 1 {
		return fmt.Errorf("%w: version %d for document %s", ErrMalformedEvent, gate.Version, c.DocumentID)
	}
	for name, members := range c.Mutation.AddToSet {
		for _, member := range members {
			if member == "" {
				return fmt.Errorf("%w: empty member for set %s of document %s", ErrMalformedEvent, name, c.DocumentID)
			}
		}
	}
	return nil
}

// Guard applies commands to a store and classifies the outcome.
type Guard struct {
	store Store
}

// NewGuard creates a Guard over store.
func NewGuard(store Store) *Guard {
	return &Guard{store: store}
}

// Apply runs one command as a single conditional upsert.
//
// A stale or duplicate field-set returns DecisionSkipped with a nil error.
// Store failures and cancellation are returned wrapped and must be treated
// as not applied.
func (g *Guard) Apply(ctx context.Context, cmd Command) (Decision, error) {
	if err := cmd.Validate(); err != nil {
		return DecisionSkipped, err
	}
	if err := ctx.Err(); err != nil {
		return DecisionSkipped, fmt.Errorf("upsert %s: %w", cmd.DocumentID, err)
	}

	res, err := g.store.Upsert(ctx, cmd.DocumentID, cmd.Mutation, cmd.Precondition)
	if err != nil {
		return DecisionSkipped, fmt.Errorf("upsert %s: %w", cmd.DocumentID, err)
	}

	switch {
	case !res.Applied:
		return DecisionSkipped, nil
	case res.Created:
		return DecisionCreated, nil
	case res.Changed:
		return DecisionApplied, nil
	default:
		return DecisionUnchanged, nil
	}
}
