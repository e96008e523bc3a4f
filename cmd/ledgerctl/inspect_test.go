// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/ledgerview/internal/events"
	"github.com/tomtom215/ledgerview/internal/projection"
	"github.com/tomtom215/ledgerview/internal/readstore"
)

func seededStore(t *testing.T) *readstore.BadgerStore {
	t.Helper()
	store, err := readstore.OpenBadger(readstore.BadgerOptions{InMemory: true})
	if err != nil {
		t.Fatalf("OpenBadger() error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	engine, err := projection.NewEngine(store)
	if err != nil {
		t.Fatalf("NewEngine() error: %v", err)
	}
	for _, e := range []interface {
		Envelope() (events.Envelope, error)
	}{
		events.CustomerCreated{AggregateID: "C1", AggregateVersion: 1, Firstname: "Ann", Lastname: "Lee"},
		events.CustomerCreated{AggregateID: "C2", AggregateVersion: 1, Firstname: "Bo", Lastname: "Park"},
		events.AccountCreated{AggregateID: "A1", AggregateVersion: 1, OwnerID: "C1"},
	} {
		env, err := e.Envelope()
		if err != nil {
			t.Fatalf("Envelope() error: %v", err)
		}
		if res := engine.Process(context.Background(), env); res.Err() != nil {
			t.Fatalf("Process() error: %v", res.Err())
		}
	}
	return store
}

func decodeLines(t *testing.T, out string) []projection.CustomerDetails {
	t.Helper()
	var got []projection.CustomerDetails
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		var cd projection.CustomerDetails
		if err := json.Unmarshal([]byte(line), &cd); err != nil {
			t.Fatalf("Unmarshal(%q) error: %v", line, err)
		}
		got = append(got, cd)
	}
	return got
}

func TestInspectOne(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	if err := inspect(context.Background(), seededStore(t), "C1", &out); err != nil {
		t.Fatalf("inspect() error: %v", err)
	}
	got := decodeLines(t, out.String())
	if len(got) != 1 {
		t.Fatalf("got %d documents, want 1", len(got))
	}
	if got[0].ID != "C1" || got[0].Firstname != "Ann" || len(got[0].Accounts) != 1 || got[0].Accounts[0] != "A1" {
		t.Errorf("inspect(C1) = %+v", got[0])
	}
}

func TestInspectAll(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	if err := inspect(context.Background(), seededStore(t), "", &out); err != nil {
		t.Fatalf("inspect() error: %v", err)
	}
	got := decodeLines(t, out.String())
	if len(got) != 2 {
		t.Fatalf("got %d documents, want 2", len(got))
	}
	if got[0].ID != "C1" || got[1].ID != "C2" {
		t.Errorf("ids = [%s %s], want [C1 C2]", got[0].ID, got[1].ID)
	}
}

func TestInspectMissing(t *testing.T) {
	t.Parallel()

	err := inspect(context.Background(), seededStore(t), "nope", io.Discard)
	if !errors.Is(err, projection.ErrDocumentNotFound) {
		t.Errorf("inspect() error = %v, want %v", err, projection.ErrDocumentNotFound)
	}
}

func TestInspectCommand(t *testing.T) {
	dir := t.TempDir()
	store, err := readstore.OpenBadger(readstore.BadgerOptions{Path: dir, SyncWrites: true})
	if err != nil {
		t.Fatalf("OpenBadger() error: %v", err)
	}
	cmd := projection.FieldSet("C1", 1, map[string]string{projection.FieldFirstname: "Ann", projection.FieldLastname: "Lee"})
	if _, err := store.Upsert(context.Background(), cmd.DocumentID, cmd.Mutation, cmd.Precondition); err != nil {
		t.Fatalf("Upsert() error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"inspect", "--path", dir, "--id", "C1"})
	if err := root.Execute(); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	got := decodeLines(t, out.String())
	if len(got) != 1 || got[0].ID != "C1" || got[0].Lastname != "Lee" {
		t.Errorf("inspect output = %+v, want C1 Ann Lee", got)
	}
}

func TestRootUnknownCommand(t *testing.T) {
	t.Parallel()

	cmd := newRootCommand()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"replay"})
	if err := cmd.Execute(); err == nil {
		t.Error("Execute() with unknown command error = nil, want error")
	}
}
