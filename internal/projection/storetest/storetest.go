// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

// Package storetest holds the behavioral suite every projection.Store
// implementation must pass.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/tomtom215/ledgerview/internal/projection"
)

// Factory returns a fresh, empty store. Cleanup is registered on t.
type Factory func(t *testing.T) projection.Store

// Run executes the conformance suite against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("GetMissing", func(t *testing.T) {
		store := newStore(t)
		_, err := store.Get(context.Background(), "nobody")
		if !errors.Is(err, projection.ErrDocumentNotFound) {
			t.Errorf("Get() error = %v, want ErrDocumentNotFound", err)
		}
	})

	t.Run("CreateWithFieldSet", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		res := upsert(t, store, projection.FieldSet("C1", 1, map[string]string{"firstname": "Ann"}))
		if !res.Applied || !res.Created || !res.Changed {
			t.Errorf("Upsert() = %+v, want applied+created+changed", res)
		}

		doc, err := store.Get(ctx, "C1")
		if err != nil {
			t.Fatalf("Get() error: %v", err)
		}
		if doc.ID != "C1" || doc.Version != 1 || doc.Field("firstname") != "Ann" {
			t.Errorf("Get() = %+v, want C1 v1 Ann", doc)
		}
	})

	t.Run("VersionGate", func(t *testing.T) {
		store := newStore(t)

		upsert(t, store, projection.FieldSet("C1", 2, map[string]string{"firstname": "Bea"}))

		for _, v := range []int64{1, 2} {
			res := upsert(t, store, projection.FieldSet("C1", v, map[string]string{"firstname": "Ann"}))
			if res.Applied {
				t.Errorf("Upsert(v%d) applied over v2", v)
			}
		}

		res := upsert(t, store, projection.FieldSet("C1", 3, map[string]string{"firstname": "Cat"}))
		if !res.Applied || res.Created {
			t.Errorf("Upsert(v3) = %+v, want applied, not created", res)
		}

		doc := get(t, store, "C1")
		if doc.Version != 3 || doc.Field("firstname") != "Cat" {
			t.Errorf("document = %+v, want v3 Cat", doc)
		}
	})

	t.Run("SetAddBeforeExists", func(t *testing.T) {
		store := newStore(t)

		res := upsert(t, store, projection.SetAdd("C1", "accounts", "A1"))
		if !res.Created {
			t.Errorf("Upsert() = %+v, want created", res)
		}

		doc := get(t, store, "C1")
		if doc.Version != 0 || doc.Field("firstname") != "" {
			t.Errorf("document = %+v, want default scalars", doc)
		}
		if got := doc.Members("accounts"); !slices.Equal(got, []string{"A1"}) {
			t.Errorf("accounts = %v, want [A1]", got)
		}
	})

	t.Run("SetAddIdempotent", func(t *testing.T) {
		store := newStore(t)

		upsert(t, store, projection.SetAdd("C1", "accounts", "A2"))
		upsert(t, store, projection.SetAdd("C1", "accounts", "A1"))
		res := upsert(t, store, projection.SetAdd("C1", "accounts", "A2"))
		if !res.Applied || res.Changed {
			t.Errorf("repeat Upsert() = %+v, want applied, unchanged", res)
		}

		if got := get(t, store, "C1").Members("accounts"); !slices.Equal(got, []string{"A1", "A2"}) {
			t.Errorf("accounts = %v, want [A1 A2]", got)
		}
	})

	t.Run("SetAddKeepsVersion", func(t *testing.T) {
		store := newStore(t)

		upsert(t, store, projection.FieldSet("C1", 4, map[string]string{"lastname": "Lee"}))
		upsert(t, store, projection.SetAdd("C1", "accounts", "A9"))

		doc := get(t, store, "C1")
		if doc.Version != 4 || doc.Field("lastname") != "Lee" {
			t.Errorf("document = %+v, want v4 Lee", doc)
		}
	})

	t.Run("CancelledContext", func(t *testing.T) {
		store := newStore(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		cmd := projection.SetAdd("C1", "accounts", "A1")
		if _, err := store.Upsert(ctx, cmd.DocumentID, cmd.Mutation, cmd.Precondition); err == nil {
			t.Error("Upsert() with cancelled context succeeded")
		}
		if _, err := store.Get(context.Background(), "C1"); !errors.Is(err, projection.ErrDocumentNotFound) {
			t.Errorf("Get() error = %v, want ErrDocumentNotFound", err)
		}
	})

	t.Run("ConcurrentSameDocument", func(t *testing.T) {
		store := newStore(t)
		const writers = 16

		var wg sync.WaitGroup
		errs := make(chan error, writers*2)
		for i := 1; i <= writers; i++ {
			wg.Add(2)
			go func(v int) {
				defer wg.Done()
				cmd := projection.SetAdd("C1", "accounts", fmt.Sprintf("A%02d", v))
				if _, err := store.Upsert(context.Background(), cmd.DocumentID, cmd.Mutation, cmd.Precondition); err != nil {
					errs <- err
				}
			}(i)
			go func(v int) {
				defer wg.Done()
				cmd := projection.FieldSet("C1", int64(v), map[string]string{"firstname": fmt.Sprintf("N%02d", v)})
				if _, err := store.Upsert(context.Background(), cmd.DocumentID, cmd.Mutation, cmd.Precondition); err != nil {
					errs <- err
				}
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			t.Errorf("concurrent Upsert() error: %v", err)
		}

		doc := get(t, store, "C1")
		if doc.Version != writers {
			t.Errorf("Version = %d, want %d", doc.Version, writers)
		}
		if want := fmt.Sprintf("N%02d", writers); doc.Field("firstname") != want {
			t.Errorf("firstname = %q, want %q", doc.Field("firstname"), want)
		}
		if got := len(doc.Members("accounts")); got != writers {
			t.Errorf("len(accounts) = %d, want %d", got, writers)
		}
	})
}

func upsert(t *testing.T, store projection.Store, cmd projection.Command) projection.UpsertResult {
	t.Helper()
	res, err := store.Upsert(context.Background(), cmd.DocumentID, cmd.Mutation, cmd.Precondition)
	if err != nil {
		t.Fatalf("Upsert(%s) error: %v", cmd.DocumentID, err)
	}
	return res
}

func get(t *testing.T, store projection.Store, id string) *projection.Document {
	t.Helper()
	doc, err := store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get(%s) error: %v", id, err)
	}
	return doc
}
