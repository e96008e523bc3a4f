// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package projection_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/ledgerview/internal/events"
	"github.com/tomtom215/ledgerview/internal/projection"
)

type recordingObserver struct {
	mu        sync.Mutex
	outcomes  []string
	decisions map[string]int
}

func (o *recordingObserver) EventProcessed(_, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, outcome)
}

func (o *recordingObserver) HandlerDecided(handler string, d projection.Decision) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.decisions == nil {
		o.decisions = map[string]int{}
	}
	o.decisions[handler+"/"+d.String()]++
}

func newEngine(t *testing.T, opts ...projection.Option) *projection.Engine {
	t.Helper()
	engine, err := projection.NewEngine(projection.NewMemoryStore(), opts...)
	if err != nil {
		t.Fatalf("NewEngine() error: %v", err)
	}
	return engine
}

func customerCreated(t *testing.T, id string, version int64, first, last string) events.Envelope {
	t.Helper()
	env, err := events.CustomerCreated{AggregateID: id, AggregateVersion: version, Firstname: first, Lastname: last}.Envelope()
	if err != nil {
		t.Fatalf("Envelope() error: %v", err)
	}
	return env
}

func accountCreated(t *testing.T, accountID, ownerID string) events.Envelope {
	t.Helper()
	env, err := events.AccountCreated{AggregateID: accountID, AggregateVersion: 1, OwnerID: ownerID}.Envelope()
	if err != nil {
		t.Fatalf("Envelope() error: %v", err)
	}
	return env
}

func process(t *testing.T, engine *projection.Engine, envs ...events.Envelope) {
	t.Helper()
	for _, env := range envs {
		if err := engine.Process(context.Background(), env).Err(); err != nil {
			t.Fatalf("Process(%s) error: %v", env.EventType, err)
		}
	}
}

func details(t *testing.T, engine *projection.Engine, id string) *projection.CustomerDetails {
	t.Helper()
	got, err := engine.CustomerDetails(context.Background(), id)
	if err != nil {
		t.Fatalf("CustomerDetails(%s) error: %v", id, err)
	}
	return got
}

func TestNewEngineRequiresStore(t *testing.T) {
	t.Parallel()
	if _, err := projection.NewEngine(nil); !errors.Is(err, projection.ErrNilStore) {
		t.Errorf("NewEngine(nil) error = %v, want ErrNilStore", err)
	}
}

func TestCreationIsIdempotent(t *testing.T) {
	t.Parallel()

	engine := newEngine(t)
	env := customerCreated(t, "C1", 1, "Ann", "Lee")

	process(t, engine, env)
	once := details(t, engine, "C1")

	res := engine.Process(context.Background(), env)
	if d, _ := res.Decision(projection.CustomerCreatedHandlerName); d != projection.DecisionSkipped {
		t.Errorf("duplicate decision = %v, want skipped", d)
	}
	twice := details(t, engine, "C1")

	if fmt.Sprint(once) != fmt.Sprint(twice) {
		t.Errorf("after duplicate = %+v, want %+v", twice, once)
	}
}

func TestStaleCreationIsRejected(t *testing.T) {
	t.Parallel()

	engine := newEngine(t)
	process(t, engine,
		customerCreated(t, "C1", 2, "Anne", "Lee-Smith"),
		customerCreated(t, "C1", 1, "Ann", "Lee"),
	)

	got := details(t, engine, "C1")
	if got.Version != 2 || got.Firstname != "Anne" || got.Lastname != "Lee-Smith" {
		t.Errorf("CustomerDetails() = %+v, want v2 Anne Lee-Smith", got)
	}
}

func TestVersionIsMonotonic(t *testing.T) {
	t.Parallel()

	engine := newEngine(t)
	var last int64
	for _, v := range []int64{3, 1, 5, 2, 5, 4, 7, 6} {
		process(t, engine, customerCreated(t, "C1", v, fmt.Sprintf("N%d", v), "X"))
		got := details(t, engine, "C1").Version
		if got < last {
			t.Fatalf("Version went from %d to %d", last, got)
		}
		last = got
	}
	if last != 7 {
		t.Errorf("final Version = %d, want 7", last)
	}
}

func TestSetAddIdempotentAndCommutative(t *testing.T) {
	t.Parallel()

	a1 := accountCreated(t, "A1", "C1")
	a2 := accountCreated(t, "A2", "C1")

	orders := [][]events.Envelope{
		{a1, a2},
		{a2, a1},
		{a1, a1, a2, a2, a1},
	}
	for i, order := range orders {
		engine := newEngine(t)
		process(t, engine, order...)
		if got := details(t, engine, "C1").Accounts; !slices.Equal(got, []string{"A1", "A2"}) {
			t.Errorf("order %d: Accounts = %v, want [A1 A2]", i, got)
		}
	}
}

func TestRelationBeforeCreation(t *testing.T) {
	t.Parallel()

	engine := newEngine(t)
	process(t, engine, accountCreated(t, "A1", "C1"))

	got := details(t, engine, "C1")
	if got.Version != 0 || got.Firstname != "" || got.Lastname != "" {
		t.Errorf("CustomerDetails() = %+v, want empty scalars", got)
	}
	if !slices.Equal(got.Accounts, []string{"A1"}) {
		t.Errorf("Accounts = %v, want [A1]", got.Accounts)
	}
}

// permutations returns every ordering of items.
func permutations(items []events.Envelope) [][]events.Envelope {
	if len(items) <= 1 {
		return [][]events.Envelope{slices.Clone(items)}
	}
	var out [][]events.Envelope
	for i := range items {
		rest := slices.Concat(items[:i], items[i+1:])
		for _, p := range permutations(rest) {
			out = append(out, append([]events.Envelope{items[i]}, p...))
		}
	}
	return out
}

func TestCustomerDetailsScenario(t *testing.T) {
	t.Parallel()

	created := customerCreated(t, "C1", 1, "Ann", "Lee")
	account := accountCreated(t, "A1", "C1")
	want := projection.CustomerDetails{ID: "C1", Version: 1, Firstname: "Ann", Lastname: "Lee", Accounts: []string{"A1"}}

	deliveries := permutations([]events.Envelope{created, account, created, account})
	for i, delivery := range deliveries {
		engine := newEngine(t)
		process(t, engine, delivery...)

		got := details(t, engine, "C1")
		if got.ID != want.ID || got.Version != want.Version || got.Firstname != want.Firstname ||
			got.Lastname != want.Lastname || !slices.Equal(got.Accounts, want.Accounts) {
			t.Errorf("delivery %d: CustomerDetails() = %+v, want %+v", i, got, want)
		}
	}
}

func TestConcurrentDelivery(t *testing.T) {
	t.Parallel()

	engine := newEngine(t)
	var envs []events.Envelope
	for v := int64(1); v <= 10; v++ {
		envs = append(envs, customerCreated(t, "C1", v, fmt.Sprintf("N%d", v), "Lee"))
	}
	for i := 0; i < 20; i++ {
		envs = append(envs, accountCreated(t, fmt.Sprintf("A%02d", i), "C1"))
	}

	var wg sync.WaitGroup
	for round := 0; round < 3; round++ {
		for _, env := range envs {
			wg.Add(1)
			go func(env events.Envelope) {
				defer wg.Done()
				if err := engine.Process(context.Background(), env).Err(); err != nil {
					t.Errorf("Process() error: %v", err)
				}
			}(env)
		}
	}
	wg.Wait()

	got := details(t, engine, "C1")
	if got.Version != 10 || got.Firstname != "N10" {
		t.Errorf("CustomerDetails() = v%d %s, want v10 N10", got.Version, got.Firstname)
	}
	if len(got.Accounts) != 20 {
		t.Errorf("len(Accounts) = %d, want 20", len(got.Accounts))
	}
}

func TestProcessResults(t *testing.T) {
	t.Parallel()

	obs := &recordingObserver{}
	engine := newEngine(t, projection.WithObserver(obs))
	ctx := context.Background()

	ok := engine.Process(ctx, customerCreated(t, "C1", 1, "Ann", "Lee"))
	if ok.Err() != nil || ok.Outcome() != projection.OutcomeOK {
		t.Errorf("valid event: Err() = %v, Outcome() = %s", ok.Err(), ok.Outcome())
	}

	unknown, _ := events.NewEnvelope("CustomerRenamed", "C1", 2, map[string]string{"firstname": "Bo"})
	ignored := engine.Process(ctx, unknown)
	if ignored.Err() != nil || ignored.Outcome() != projection.OutcomeIgnored || len(ignored.Outcomes) != 0 {
		t.Errorf("unregistered event: %+v, want ignored", ignored)
	}

	bad := engine.Process(ctx, events.Envelope{EventID: "e1", EventType: events.TypeCustomerCreated, AggregateVersion: 1})
	if bad.Err() == nil || !bad.Permanent() || bad.Outcome() != projection.OutcomeMalformed {
		t.Errorf("invalid envelope: Err() = %v, Permanent() = %v", bad.Err(), bad.Permanent())
	}

	malformed, _ := events.NewEnvelope(events.TypeAccountCreated, "A1", 1, map[string]string{"currency": "EUR"})
	res := engine.Process(ctx, malformed)
	var herr *projection.HandlerError
	if !errors.As(res.Err(), &herr) || herr.Handler != projection.AccountCreatedHandlerName {
		t.Errorf("missing owner: Err() = %v, want HandlerError from %s", res.Err(), projection.AccountCreatedHandlerName)
	}
	if !res.Permanent() {
		t.Error("missing owner: Permanent() = false, want true")
	}

	want := []string{projection.OutcomeOK, projection.OutcomeIgnored, projection.OutcomeMalformed, projection.OutcomeMalformed}
	if !slices.Equal(obs.outcomes, want) {
		t.Errorf("observed outcomes = %v, want %v", obs.outcomes, want)
	}
	if obs.decisions[projection.CustomerCreatedHandlerName+"/created"] != 1 {
		t.Errorf("decisions = %v, want one created", obs.decisions)
	}
}

func TestProcessCancelledIsTransient(t *testing.T) {
	t.Parallel()

	engine := newEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := engine.Process(ctx, customerCreated(t, "C1", 1, "Ann", "Lee"))
	if !errors.Is(res.Err(), context.Canceled) {
		t.Errorf("Err() = %v, want context.Canceled", res.Err())
	}
	if res.Permanent() {
		t.Error("Permanent() = true for cancellation")
	}
	if _, err := engine.CustomerDetails(context.Background(), "C1"); !errors.Is(err, projection.ErrDocumentNotFound) {
		t.Errorf("CustomerDetails() error = %v, want ErrDocumentNotFound", err)
	}
}

func TestMixedHandlerFailuresAreTransient(t *testing.T) {
	t.Parallel()

	router := projection.NewRouter()
	if err := projection.RegisterCustomerDetails(router); err != nil {
		t.Fatalf("RegisterCustomerDetails() error: %v", err)
	}
	storeDown := errors.New("store unavailable")
	_ = router.Register(events.TypeCustomerCreated, projection.HandlerFunc("audit", func(events.Envelope) (projection.Command, error) {
		return projection.Command{}, storeDown
	}))

	engine := newEngine(t, projection.WithRouter(router))
	res := engine.Process(context.Background(), customerCreated(t, "C1", 1, "Ann", "Lee"))

	if !errors.Is(res.Err(), storeDown) {
		t.Errorf("Err() = %v, want store unavailable", res.Err())
	}
	if res.Permanent() {
		t.Error("Permanent() = true, want false")
	}
	// The sibling handler still applied its mutation.
	if got := details(t, engine, "C1"); got.Firstname != "Ann" {
		t.Errorf("Firstname = %q, want Ann", got.Firstname)
	}
}

func TestTypedEntryPoints(t *testing.T) {
	t.Parallel()

	engine := newEngine(t)
	ctx := context.Background()

	if err := engine.AccountCreated(ctx, events.AccountCreated{AggregateID: "A1", AggregateVersion: 1, OwnerID: "C1"}).Err(); err != nil {
		t.Fatalf("AccountCreated() error: %v", err)
	}
	if err := engine.CustomerCreated(ctx, events.CustomerCreated{AggregateID: "C1", AggregateVersion: 1, Firstname: "Ann", Lastname: "Lee"}).Err(); err != nil {
		t.Fatalf("CustomerCreated() error: %v", err)
	}

	got := details(t, engine, "C1")
	if got.Firstname != "Ann" || !slices.Equal(got.Accounts, []string{"A1"}) {
		t.Errorf("CustomerDetails() = %+v, want Ann with [A1]", got)
	}

	res := engine.CustomerCreated(ctx, events.CustomerCreated{AggregateID: "C2", AggregateVersion: 0, Firstname: "X", Lastname: "Y"})
	if !res.Permanent() {
		t.Errorf("version 0: Permanent() = false, Err() = %v", res.Err())
	}
}

func TestProjectionsLoggedAtInfo(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.InfoLevel)
	engine := newEngine(t, projection.WithLogger(logger))

	customer := customerCreated(t, "C1", 1, "Ann", "Lee")
	process(t, engine,
		customer,
		accountCreated(t, "A1", "C1"),
		customer,
		accountCreated(t, "A1", "C1"),
	)

	type line struct {
		Level      string `json:"level"`
		Message    string `json:"message"`
		Handler    string `json:"handler"`
		DocumentID string `json:"document_id"`
		Decision   string `json:"decision"`
	}
	var got []line
	for _, raw := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var l line
		if err := json.Unmarshal([]byte(raw), &l); err != nil {
			t.Fatalf("Unmarshal(%q) error: %v", raw, err)
		}
		got = append(got, l)
	}

	want := []line{
		{"info", "Projected event", projection.CustomerCreatedHandlerName, "C1", "created"},
		{"info", "Projected event", projection.AccountCreatedHandlerName, "C1", "applied"},
	}
	if !slices.Equal(got, want) {
		t.Errorf("log lines = %+v, want %+v", got, want)
	}
}
