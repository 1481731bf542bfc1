package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

type countingObserver struct {
	mu                   sync.Mutex
	hits, misses, evicts int
}

func (o *countingObserver) CacheHit()   { o.mu.Lock(); o.hits++; o.mu.Unlock() }
func (o *countingObserver) CacheMiss()  { o.mu.Lock(); o.misses++; o.mu.Unlock() }
func (o *countingObserver) CacheEvict() { o.mu.Lock(); o.evicts++; o.mu.Unlock() }

func newClocked(t *testing.T, size int, obs Observer) (*TTL[string, int], *time.Time) {
	t.Helper()
	c, err := New[string, int](size, obs)
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestGetSetExpiry(t *testing.T) {
	obs := &countingObserver{}
	c, now := newClocked(t, 8, obs)

	c.Set("a", 1, time.Minute)
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("Get(a) = %v, %v; want 1, true", v, ok)
	}

	*now = now.Add(59 * time.Second)
	if _, ok := c.Get("a"); !ok {
		t.Errorf("entry expired early")
	}
	*now = now.Add(time.Second)
	if _, ok := c.Get("a"); ok {
		t.Errorf("entry outlived its ttl")
	}
	if c.Len() != 0 {
		t.Errorf("expired entry still stored, Len = %d", c.Len())
	}
	if obs.hits != 2 || obs.misses != 1 {
		t.Errorf("observer hits=%d misses=%d; want 2, 1", obs.hits, obs.misses)
	}
}

func TestPeekIsSilent(t *testing.T) {
	obs := &countingObserver{}
	c, now := newClocked(t, 8, obs)
	c.Set("a", 1, time.Minute)

	if v, ok := c.Peek("a"); !ok || v != 1 {
		t.Fatalf("Peek(a) = %v, %v; want 1, true", v, ok)
	}
	if _, ok := c.Peek("missing"); ok {
		t.Errorf("Peek(missing) found a value")
	}
	*now = now.Add(time.Minute)
	if _, ok := c.Peek("a"); ok {
		t.Errorf("Peek returned an expired entry")
	}
	if obs.hits != 0 || obs.misses != 0 {
		t.Errorf("observer hits=%d misses=%d; want none", obs.hits, obs.misses)
	}
}

func TestZeroTTLNeverExpires(t *testing.T) {
	c, now := newClocked(t, 4, nil)
	c.Set("k", 7, 0)
	*now = now.Add(1000 * time.Hour)
	if v, ok := c.Get("k"); !ok || v != 7 {
		t.Errorf("Get(k) = %v, %v", v, ok)
	}
}

func TestLRUBound(t *testing.T) {
	obs := &countingObserver{}
	c, _ := newClocked(t, 2, obs)
	c.Set("a", 1, time.Hour)
	c.Set("b", 2, time.Hour)
	c.Get("a") // a becomes most recent
	c.Set("c", 3, time.Hour)

	if _, ok := c.Get("b"); ok {
		t.Errorf("least recently used entry survived")
	}
	if _, ok := c.Get("a"); !ok {
		t.Errorf("recently used entry evicted")
	}
	if c.Len() != 2 || obs.evicts != 1 {
		t.Errorf("Len = %d, evicts = %d; want 2, 1", c.Len(), obs.evicts)
	}
}

func TestPruneExpired(t *testing.T) {
	c, now := newClocked(t, 8, nil)
	c.Set("short", 1, time.Second)
	c.Set("long", 2, time.Hour)
	*now = now.Add(time.Minute)
	if n := c.PruneExpired(); n != 1 {
		t.Errorf("PruneExpired = %d; want 1", n)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d; want 1", c.Len())
	}
}

func TestConcurrentAccess(t *testing.T) {
	c, err := New[string, int](64, &countingObserver{})
	if err != nil {
		t.Fatal(err)
	}
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", (w*i)%100)
				c.Set(key, i, time.Minute)
				c.Get(key)
			}
		}(w)
	}
	wg.Wait()
	if c.Len() > 64 {
		t.Errorf("Len = %d exceeds bound", c.Len())
	}
}
