package querycache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// newTestCache creates a cache with generous bounds and a long janitor
// interval so sweeps do not interfere with test timing.
func newTestCache(t *testing.T) *QueryCache[string] {
	t.Helper()
	cache, err := New[string](Config{
		MaxTotalBytes:   1024 * 1024,
		MaxEntries:      100,
		DefaultTTL:      time.Minute,
		JanitorInterval: time.Hour,
	})
	if err != nil {
		t.Fatalf("Unexpected error creating cache: %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func TestMissThenHit(t *testing.T) {
	cache := newTestCache(t)

	if value, ok := cache.Get("conn-1", "select * from cpu", "telegraf", nil); ok {
		t.Errorf("Expected cache miss on empty cache, got value: %s", value)
	}

	cache.Set("conn-1", "select * from cpu", "result-1", "telegraf", nil, 0)

	value, ok := cache.Get("conn-1", "select * from cpu", "telegraf", nil)
	if !ok || value != "result-1" {
		t.Errorf("Expected 'result-1', got value: %s, exists: %t", value, ok)
	}

	// A normalization variant of the same query must hit too
	value, ok = cache.Get("conn-1", "  SELECT * FROM cpu  ", "telegraf", nil)
	if !ok || value != "result-1" {
		t.Errorf("Expected hit for normalized variant, got value: %s, exists: %t", value, ok)
	}
}

func TestReplaceSemantics(t *testing.T) {
	cache := newTestCache(t)

	cache.Set("conn-1", "select 1", "old", "db", nil, 0)
	cache.Set("conn-1", "select 1", "new", "db", nil, 0)

	value, ok := cache.Get("conn-1", "select 1", "db", nil)
	if !ok || value != "new" {
		t.Errorf("Expected replacement value 'new', got value: %s, exists: %t", value, ok)
	}

	stats := cache.Stats()
	if stats.TotalEntries != 1 {
		t.Errorf("Expected 1 entry after replacement, got %d", stats.TotalEntries)
	}
	if stats.Evictions != 0 {
		t.Errorf("Expected replacement not to count as eviction, got %d", stats.Evictions)
	}
}

func TestExpiry(t *testing.T) {
	cache := newTestCache(t)

	cache.Set("conn-1", "select 1", "stale", "db", nil, 20*time.Millisecond)

	if _, ok := cache.Get("conn-1", "select 1", "db", nil); !ok {
		t.Fatal("Expected hit before TTL elapses")
	}

	time.Sleep(40 * time.Millisecond)

	if value, ok := cache.Get("conn-1", "select 1", "db", nil); ok {
		t.Errorf("Expected miss after TTL elapsed, got value: %s", value)
	}

	// Lazy expiry physically removes the entry, not just hides it
	stats := cache.Stats()
	if stats.TotalEntries != 0 {
		t.Errorf("Expected 0 entries after expiry removal, got %d", stats.TotalEntries)
	}
	if stats.TotalSize != 0 {
		t.Errorf("Expected 0 total size after expiry removal, got %d", stats.TotalSize)
	}
	if stats.Expirations != 1 {
		t.Errorf("Expected 1 expiration recorded, got %d", stats.Expirations)
	}
}

func TestReadsDoNotExtendTTL(t *testing.T) {
	cache := newTestCache(t)

	cache.Set("conn-1", "select 1", "value", "db", nil, 60*time.Millisecond)

	// Keep reading past the halfway point; TTL is anchored at creation
	for i := 0; i < 3; i++ {
		time.Sleep(15 * time.Millisecond)
		if _, ok := cache.Get("conn-1", "select 1", "db", nil); !ok {
			t.Fatal("Expected hit while TTL is still live")
		}
	}

	time.Sleep(30 * time.Millisecond)
	if _, ok := cache.Get("conn-1", "select 1", "db", nil); ok {
		t.Error("Expected miss: reads must not extend the TTL")
	}
}

func TestLRUOrdering(t *testing.T) {
	cache, err := New[string](Config{
		MaxTotalBytes:   1024 * 1024,
		MaxEntries:      3,
		DefaultTTL:      time.Minute,
		JanitorInterval: time.Hour,
	})
	if err != nil {
		t.Fatalf("Unexpected error creating cache: %v", err)
	}
	defer func() { _ = cache.Close() }()

	cache.Set("conn-1", "query a", "A", "db", nil, 0)
	time.Sleep(2 * time.Millisecond)
	cache.Set("conn-1", "query b", "B", "db", nil, 0)
	time.Sleep(2 * time.Millisecond)
	cache.Set("conn-1", "query c", "C", "db", nil, 0)
	time.Sleep(2 * time.Millisecond)

	// Touch A so B becomes least recently used
	if _, ok := cache.Get("conn-1", "query a", "db", nil); !ok {
		t.Fatal("Expected hit for A")
	}
	time.Sleep(2 * time.Millisecond)

	cache.Set("conn-1", "query d", "D", "db", nil, 0)

	if _, ok := cache.Get("conn-1", "query b", "db", nil); ok {
		t.Error("Expected B to be evicted as least recently used")
	}
	for _, q := range []string{"query a", "query c", "query d"} {
		if _, ok := cache.Get("conn-1", q, "db", nil); !ok {
			t.Errorf("Expected %s to survive eviction", q)
		}
	}

	if evictions := cache.Stats().Evictions; evictions != 1 {
		t.Errorf("Expected 1 eviction, got %d", evictions)
	}
}

func TestClearAll(t *testing.T) {
	cache := newTestCache(t)

	cache.Set("conn-1", "select 1", "v1", "db", nil, 0)
	cache.Set("conn-2", "select 2", "v2", "db", nil, 0)
	cache.Get("conn-1", "select 1", "db", nil)

	cache.ClearAll()

	stats := cache.Stats()
	if stats.TotalEntries != 0 || stats.TotalSize != 0 {
		t.Errorf("Expected empty cache after ClearAll, got %d entries, %d bytes",
			stats.TotalEntries, stats.TotalSize)
	}
	// ClearAll resets statistics alongside the store
	if stats.TotalHits != 0 || stats.TotalMisses != 0 {
		t.Errorf("Expected stats reset after ClearAll, got hits=%d misses=%d",
			stats.TotalHits, stats.TotalMisses)
	}
}

func TestClearByConnection(t *testing.T) {
	cache := newTestCache(t)

	cache.Set("conn-1", "select 1", "v1", "db", nil, 0)
	cache.Set("conn-1", "select 2", "v2", "db", nil, 0)
	cache.Set("conn-2", "select 1", "v3", "db", nil, 0)
	cache.Get("conn-2", "select 1", "db", nil)

	cache.ClearByConnection("conn-1")

	if _, ok := cache.Get("conn-1", "select 1", "db", nil); ok {
		t.Error("Expected conn-1 entries to be cleared")
	}
	if _, ok := cache.Get("conn-1", "select 2", "db", nil); ok {
		t.Error("Expected conn-1 entries to be cleared")
	}
	if value, ok := cache.Get("conn-2", "select 1", "db", nil); !ok || value != "v3" {
		t.Errorf("Expected conn-2 entry to survive, got value: %s, exists: %t", value, ok)
	}

	// Connection-scoped clearing leaves accumulated statistics intact
	if hits := cache.Stats().TotalHits; hits < 1 {
		t.Errorf("Expected pre-clear hits to survive ClearByConnection, got %d", hits)
	}
}

func TestStatsAccuracy(t *testing.T) {
	cache := newTestCache(t)

	cache.Set("conn-1", "select 1", "v1", "db", nil, 0)

	cache.Get("conn-1", "select 1", "db", nil) // hit
	cache.Get("conn-1", "select 1", "db", nil) // hit
	cache.Get("conn-1", "select 2", "db", nil) // miss

	stats := cache.Stats()
	if stats.TotalHits != 2 {
		t.Errorf("Expected 2 hits, got %d", stats.TotalHits)
	}
	if stats.TotalMisses != 1 {
		t.Errorf("Expected 1 miss, got %d", stats.TotalMisses)
	}

	expectedRate := 2.0 / 3.0
	if diff := stats.HitRate - expectedRate; diff > 0.001 || diff < -0.001 {
		t.Errorf("Expected hit rate %.3f, got %.3f", expectedRate, stats.HitRate)
	}
	if sum := stats.HitRate + stats.MissRate; sum < 0.999 || sum > 1.001 {
		t.Errorf("Expected hit rate and miss rate to sum to 1, got %.3f", sum)
	}
	if stats.TotalEntries != 1 {
		t.Errorf("Expected 1 entry, got %d", stats.TotalEntries)
	}
	if stats.TotalSize <= 0 {
		t.Errorf("Expected positive total size, got %d", stats.TotalSize)
	}
	if stats.AverageAccessTime < 0 {
		t.Errorf("Expected non-negative average access time, got %v", stats.AverageAccessTime)
	}
}

func TestDefaultTTLApplied(t *testing.T) {
	cache, err := New[string](Config{
		MaxTotalBytes:   1024 * 1024,
		MaxEntries:      100,
		DefaultTTL:      30 * time.Millisecond,
		JanitorInterval: time.Hour,
	})
	if err != nil {
		t.Fatalf("Unexpected error creating cache: %v", err)
	}
	defer func() { _ = cache.Close() }()

	// ttl <= 0 selects the configured default
	cache.Set("conn-1", "select 1", "value", "db", nil, 0)

	if _, ok := cache.Get("conn-1", "select 1", "db", nil); !ok {
		t.Fatal("Expected hit before default TTL elapses")
	}

	time.Sleep(60 * time.Millisecond)

	if _, ok := cache.Get("conn-1", "select 1", "db", nil); ok {
		t.Error("Expected miss after default TTL elapsed")
	}
}

func TestDestroyedCacheNoOps(t *testing.T) {
	cache := newTestCache(t)

	cache.Set("conn-1", "select 1", "value", "db", nil, 0)
	if err := cache.Close(); err != nil {
		t.Fatalf("Unexpected error closing cache: %v", err)
	}

	if value, ok := cache.Get("conn-1", "select 1", "db", nil); ok {
		t.Errorf("Expected miss on destroyed cache, got value: %s", value)
	}

	cache.Set("conn-1", "select 2", "late", "db", nil, 0)
	if stats := cache.Stats(); stats.TotalEntries != 0 {
		t.Errorf("Expected Set to be a no-op after Close, got %d entries", stats.TotalEntries)
	}

	// Lookups on a destroyed cache must not record statistics either
	if stats := cache.Stats(); stats.TotalMisses != 0 {
		t.Errorf("Expected no misses recorded after Close, got %d", stats.TotalMisses)
	}

	// These must all be silent no-ops
	cache.ClearAll()
	cache.ClearByConnection("conn-1")
	cache.Configure(Update{})

	// Close is idempotent
	if err := cache.Close(); err != nil {
		t.Errorf("Unexpected error on second Close: %v", err)
	}
}

func TestConfigureTightensBounds(t *testing.T) {
	cache := newTestCache(t)

	for i := 0; i < 5; i++ {
		cache.Set("conn-1", fmt.Sprintf("query %d", i), "value", "db", nil, 0)
		time.Sleep(2 * time.Millisecond)
	}

	maxEntries := 2
	cache.Configure(Update{MaxEntries: &maxEntries})

	stats := cache.Stats()
	if stats.TotalEntries > 2 {
		t.Errorf("Expected at most 2 entries after tightening bound, got %d", stats.TotalEntries)
	}
	if stats.Evictions < 3 {
		t.Errorf("Expected at least 3 evictions after tightening bound, got %d", stats.Evictions)
	}
}

func TestEvictionCallback(t *testing.T) {
	var mu sync.Mutex
	evicted := make(map[string]string)

	cache, err := New[string](Config{
		MaxTotalBytes:   1024 * 1024,
		MaxEntries:      1,
		DefaultTTL:      time.Minute,
		JanitorInterval: time.Hour,
	}, WithEvictionCallback[string](func(key, value string) {
		mu.Lock()
		evicted[key] = value
		mu.Unlock()
	}))
	if err != nil {
		t.Fatalf("Unexpected error creating cache: %v", err)
	}
	defer func() { _ = cache.Close() }()

	cache.Set("conn-1", "query a", "A", "db", nil, 0)
	time.Sleep(2 * time.Millisecond)
	cache.Set("conn-1", "query b", "B", "db", nil, 0)

	mu.Lock()
	defer mu.Unlock()
	if len(evicted) != 1 {
		t.Fatalf("Expected 1 eviction callback, got %d", len(evicted))
	}
	for _, value := range evicted {
		if value != "A" {
			t.Errorf("Expected evicted value 'A', got %s", value)
		}
	}
}

func TestJanitorSweepsExpiredEntries(t *testing.T) {
	cache, err := New[string](Config{
		MaxTotalBytes:   1024 * 1024,
		MaxEntries:      100,
		DefaultTTL:      10 * time.Millisecond,
		JanitorInterval: 20 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Unexpected error creating cache: %v", err)
	}
	defer func() { _ = cache.Close() }()

	cache.Set("conn-1", "select 1", "v1", "db", nil, 0)
	cache.Set("conn-1", "select 2", "v2", "db", nil, 0)

	// The sweep must remove expired entries without any Get touching them
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cache.Stats().TotalEntries == 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	stats := cache.Stats()
	if stats.TotalEntries != 0 {
		t.Errorf("Expected janitor to sweep all expired entries, got %d remaining", stats.TotalEntries)
	}
	if stats.Expirations != 2 {
		t.Errorf("Expected 2 expirations recorded, got %d", stats.Expirations)
	}
}

func TestConfigureRestartsJanitor(t *testing.T) {
	cache, err := New[string](Config{
		MaxTotalBytes:   1024 * 1024,
		MaxEntries:      100,
		DefaultTTL:      10 * time.Millisecond,
		JanitorInterval: time.Hour,
	})
	if err != nil {
		t.Fatalf("Unexpected error creating cache: %v", err)
	}
	defer func() { _ = cache.Close() }()

	cache.Set("conn-1", "select 1", "v1", "db", nil, 0)

	// On the hour-long interval the sweep would never fire in this test;
	// shortening it must take effect immediately.
	interval := 20 * time.Millisecond
	cache.Configure(Update{JanitorInterval: &interval})

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cache.Stats().TotalEntries == 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if entries := cache.Stats().TotalEntries; entries != 0 {
		t.Errorf("Expected restarted janitor to sweep expired entry, got %d remaining", entries)
	}
}

func TestConcurrentAccess(t *testing.T) {
	cache := newTestCache(t)

	const goroutines = 10
	const operations = 100

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < operations; i++ {
				query := fmt.Sprintf("select %d", i%10)
				conn := fmt.Sprintf("conn-%d", id%3)
				switch i % 4 {
				case 0:
					cache.Set(conn, query, fmt.Sprintf("value-%d-%d", id, i), "db", nil, 0)
				case 1, 2:
					cache.Get(conn, query, "db", nil)
				case 3:
					cache.Stats()
				}
			}
		}(g)
	}
	wg.Wait()

	stats := cache.Stats()
	if stats.TotalEntries < 0 || stats.TotalEntries > 100 {
		t.Errorf("Expected entry count within bounds, got %d", stats.TotalEntries)
	}
}

func TestNewInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"zero max bytes", Config{MaxTotalBytes: 0, MaxEntries: 10, DefaultTTL: time.Minute, JanitorInterval: time.Minute}},
		{"negative max entries", Config{MaxTotalBytes: 1024, MaxEntries: -1, DefaultTTL: time.Minute, JanitorInterval: time.Minute}},
		{"zero ttl", Config{MaxTotalBytes: 1024, MaxEntries: 10, DefaultTTL: 0, JanitorInterval: time.Minute}},
		{"zero janitor interval", Config{MaxTotalBytes: 1024, MaxEntries: 10, DefaultTTL: time.Minute, JanitorInterval: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New[string](tt.cfg); err == nil {
				t.Error("Expected error for invalid config")
			}
		})
	}
}
