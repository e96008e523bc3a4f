// Ledgerview - Event-Sourced Bank Read Model Projections
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ledgerview

package cache

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/ledgerview/internal/metrics"
)

// fakeClock is advanced by hand so TTL tests do not sleep.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestLRU(t *testing.T, capacity int, ttl time.Duration) (*LRU[int], *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRU[int](t.Name(), capacity, ttl)
	c.now = clock.Now
	return c, clock
}

func TestLRUGetAdd(t *testing.T) {
	t.Parallel()

	c, _ := newTestLRU(t, 3, time.Minute)
	c.Add("a", 1)
	c.Add("b", 2)
	c.Add("a", 10)

	tests := []struct {
		key    string
		want   int
		wantOK bool
	}{
		{"a", 10, true},
		{"b", 2, true},
		{"c", 0, false},
	}
	for _, tt := range tests {
		got, ok := c.Get(tt.key)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Get(%q) = (%d, %v), want (%d, %v)", tt.key, got, ok, tt.want, tt.wantOK)
		}
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	c, _ := newTestLRU(t, 3, time.Minute)
	c.Add("a", 1)
	c.Add("b", 2)
	c.Add("c", 3)
	c.Get("a")
	c.Add("d", 4)

	if _, ok := c.Get("b"); ok {
		t.Error("b should have been evicted")
	}
	for _, key := range []string{"a", "c", "d"} {
		if _, ok := c.Get(key); !ok {
			t.Errorf("%s should still be cached", key)
		}
	}
	if got := c.Stats().Evictions; got != 1 {
		t.Errorf("Evictions = %d, want 1", got)
	}
}

func TestLRUExpiry(t *testing.T) {
	t.Parallel()

	c, clock := newTestLRU(t, 10, time.Second)
	c.Add("a", 1)
	c.Add("b", 2)

	clock.Advance(500 * time.Millisecond)
	c.Add("b", 3)
	if _, ok := c.Get("a"); !ok {
		t.Fatal("a expired too early")
	}

	clock.Advance(600 * time.Millisecond)
	if _, ok := c.Get("a"); ok {
		t.Error("a should have expired")
	}
	if got, ok := c.Get("b"); !ok || got != 3 {
		t.Errorf("Get(b) = (%d, %v), want (3, true)", got, ok)
	}

	clock.Advance(time.Second)
	if removed := c.CleanupExpired(); removed != 1 {
		t.Errorf("CleanupExpired() = %d, want 1", removed)
	}
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}

func TestLRURemoveAndClear(t *testing.T) {
	t.Parallel()

	c, _ := newTestLRU(t, 10, time.Minute)
	c.Add("a", 1)
	c.Add("b", 2)

	if !c.Remove("a") {
		t.Error("Remove(a) = false, want true")
	}
	if c.Remove("a") {
		t.Error("second Remove(a) = true, want false")
	}
	c.Clear()
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", c.Len())
	}
	if _, ok := c.Get("b"); ok {
		t.Error("b should be gone after Clear")
	}
}

func TestLRUStatsAndMetrics(t *testing.T) {
	t.Parallel()

	c, _ := newTestLRU(t, 10, time.Minute)
	c.Add("a", 1)
	c.Get("a")
	c.Get("a")
	c.Get("missing")

	stats := c.Stats()
	if stats.Hits != 2 || stats.Misses != 1 || stats.Size != 1 {
		t.Errorf("Stats() = %+v, want 2 hits, 1 miss, size 1", stats)
	}
	if got := testutil.ToFloat64(metrics.CacheHits.WithLabelValues(t.Name())); got != 2 {
		t.Errorf("cache hits metric = %v, want 2", got)
	}
	if got := testutil.ToFloat64(metrics.CacheMisses.WithLabelValues(t.Name())); got != 1 {
		t.Errorf("cache misses metric = %v, want 1", got)
	}
}

func TestNewLRUDefaults(t *testing.T) {
	t.Parallel()

	c := NewLRU[string]("defaults", 0, 0)
	if c.capacity != defaultCapacity {
		t.Errorf("capacity = %d, want %d", c.capacity, defaultCapacity)
	}
	if c.ttl != defaultTTL {
		t.Errorf("ttl = %v, want %v", c.ttl, defaultTTL)
	}
}

func TestLRUConcurrentAccess(t *testing.T) {
	t.Parallel()

	c := NewLRU[int]("concurrent", 64, time.Minute)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := strconv.Itoa((g*200 + i) % 100)
				c.Add(key, i)
				c.Get(key)
			}
		}(g)
	}
	wg.Wait()

	if c.Len() > 64 {
		t.Errorf("Len() = %d, exceeds capacity 64", c.Len())
	}
}
