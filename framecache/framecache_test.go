package framecache_test

import (
	"bytes"
	"fmt"
	"sync"
	"testing"

	"github.com/flipsai/flipedit/framecache"
)

// TestPutGetRoundTrip validates basic storage and the hit/miss counters.
func TestPutGetRoundTrip(t *testing.T) {
	cache := framecache.New(8)

	frame := []byte{1, 2, 3, 4}
	cache.Put("clip1:10", frame)

	got, ok := cache.Get("clip1:10")
	if !ok || !bytes.Equal(got, frame) {
		t.Errorf("Get() = (%v, %v), want stored frame", got, ok)
	}

	if _, ok := cache.Get("clip1:11"); ok {
		t.Errorf("Get() hit for a key never stored")
	}

	stats := cache.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Entries != 1 {
		t.Errorf("stats = %+v, want Hits=1 Misses=1 Entries=1", stats)
	}
}

// TestLRUEviction validates that filling past capacity evicts the least
// recently used entry, and that a Get refreshes recency.
//
// Scenario (mirrors a scrub over three clips):
//  1. Fill a 3-entry cache with A, B, C
//  2. Touch A (now most recent; B is the oldest)
//  3. Put D → B must be evicted, A/C/D survive
func TestLRUEviction(t *testing.T) {
	cache := framecache.New(3)

	cache.Put("A", []byte{0xA})
	cache.Put("B", []byte{0xB})
	cache.Put("C", []byte{0xC})

	if _, ok := cache.Get("A"); !ok {
		t.Fatalf("A missing before eviction")
	}

	cache.Put("D", []byte{0xD})

	if _, ok := cache.Get("B"); ok {
		t.Errorf("B survived eviction, want least-recently-used gone")
	}
	for _, key := range []string{"A", "C", "D"} {
		if _, ok := cache.Get(key); !ok {
			t.Errorf("%s evicted, want present", key)
		}
	}

	stats := cache.Stats()
	if stats.Evictions != 1 {
		t.Errorf("Evictions = %d, want 1", stats.Evictions)
	}
	if cache.Len() != 3 {
		t.Errorf("Len() = %d, want 3 (bounded)", cache.Len())
	}
}

// TestPutSameKeyRefreshes validates in-place refresh: no growth, newest
// data wins, recency bumped.
func TestPutSameKeyRefreshes(t *testing.T) {
	cache := framecache.New(2)

	cache.Put("X", []byte{1})
	cache.Put("Y", []byte{2})
	cache.Put("X", []byte{3}) // refresh, Y is now oldest
	cache.Put("Z", []byte{4}) // evicts Y

	if got, ok := cache.Get("X"); !ok || !bytes.Equal(got, []byte{3}) {
		t.Errorf("X = (%v, %v), want refreshed value [3]", got, ok)
	}
	if _, ok := cache.Get("Y"); ok {
		t.Errorf("Y survived, want evicted after X refresh")
	}
	if cache.Len() != 2 {
		t.Errorf("Len() = %d, want 2", cache.Len())
	}
}

// TestClear validates a full reset of entries.
func TestClear(t *testing.T) {
	cache := framecache.New(4)
	cache.Put("A", []byte{1})
	cache.Put("B", []byte{2})

	cache.Clear()

	if cache.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", cache.Len())
	}
	if _, ok := cache.Get("A"); ok {
		t.Errorf("entry survived Clear()")
	}
}

// TestDefaultCapacity validates the fallback bound.
func TestDefaultCapacity(t *testing.T) {
	cache := framecache.New(0)

	for i := 0; i < framecache.DefaultMaxEntries+10; i++ {
		cache.Put(fmt.Sprintf("f:%d", i), []byte{byte(i)})
	}

	if cache.Len() != framecache.DefaultMaxEntries {
		t.Errorf("Len() = %d, want %d", cache.Len(), framecache.DefaultMaxEntries)
	}
}

// TestConcurrentAccess exercises the cache from parallel getters and
// putters; the race detector is the real assertion.
func TestConcurrentAccess(t *testing.T) {
	cache := framecache.New(32)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("w%d:%d", worker, i%40)
				cache.Put(key, []byte{byte(i)})
				cache.Get(key)
			}
		}(w)
	}
	wg.Wait()

	if cache.Len() > 32 {
		t.Errorf("Len() = %d, exceeded capacity 32", cache.Len())
	}
}
