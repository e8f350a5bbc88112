package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/FocuswithJustin/Rhymer/core/partition"
)

func TestLRUCache_BasicOperations(t *testing.T) {
	cache := NewLRUCache[string, int](Config{MaxSize: 3})

	cache.Put("a", 1)
	cache.Put("b", 2)
	cache.Put("c", 3)

	for key, want := range map[string]int{"a": 1, "b": 2, "c": 3} {
		if v, ok := cache.Get(key); !ok || v != want {
			t.Errorf("Get(%s) = %d, %v; want %d, true", key, v, ok, want)
		}
	}
	if _, ok := cache.Get("d"); ok {
		t.Error("Get(d) should return false")
	}
	if n := cache.Len(); n != 3 {
		t.Errorf("Len() = %d; want 3", n)
	}
}

func TestLRUCache_Eviction(t *testing.T) {
	cache := NewLRUCache[string, int](Config{MaxSize: 2})

	cache.Put("a", 1)
	cache.Put("b", 2)
	cache.Put("c", 3) // evicts "a"

	if _, ok := cache.Get("a"); ok {
		t.Error("Get(a) should return false after eviction")
	}

	cache.Get("b")    // "b" becomes most recent
	cache.Put("d", 4) // evicts "c"

	if _, ok := cache.Get("c"); ok {
		t.Error("Get(c) should return false after eviction")
	}
	if v, ok := cache.Get("b"); !ok || v != 2 {
		t.Errorf("Get(b) = %d, %v; want 2, true", v, ok)
	}
}

func TestLRUCache_UpdateAndRemove(t *testing.T) {
	cache := NewLRUCache[string, int](Config{MaxSize: 2})

	cache.Put("a", 1)
	cache.Put("a", 2)
	if v, ok := cache.Get("a"); !ok || v != 2 {
		t.Errorf("Get(a) = %d, %v; want 2, true", v, ok)
	}
	if n := cache.Len(); n != 1 {
		t.Errorf("Len() = %d; want 1", n)
	}

	cache.Remove("a")
	cache.Remove("missing")
	if _, ok := cache.Get("a"); ok {
		t.Error("Get(a) should return false after Remove")
	}

	cache.Put("x", 1)
	cache.Clear()
	if cache.Len() != 0 {
		t.Error("Clear should empty the cache")
	}
}

func TestLRUCache_TTL(t *testing.T) {
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := newLRU[string, int](Config{TTL: time.Minute}, func() time.Time { return clock })

	cache.Put("a", 1)
	if _, ok := cache.Get("a"); !ok {
		t.Fatal("fresh entry should be present")
	}

	clock = clock.Add(2 * time.Minute)
	if _, ok := cache.Get("a"); ok {
		t.Error("Get(a) should return false after TTL expiration")
	}
	if cache.Len() != 0 {
		t.Error("expired entry should be dropped on access")
	}
}

func TestLRUCache_StatsAndOnEvict(t *testing.T) {
	var evicted []string
	cache := NewLRUCache[string, int](Config{
		MaxSize: 2,
		OnEvict: func(key, _ any) { evicted = append(evicted, key.(string)) },
	})

	cache.Put("a", 1)
	cache.Put("b", 2)
	cache.Get("a")
	cache.Get("b")
	cache.Get("c")
	cache.Put("c", 3) // evicts "a"

	s := cache.Stats()
	if s.Hits != 2 || s.Misses != 1 || s.Evictions != 1 || s.Size != 2 || s.MaxSize != 2 {
		t.Errorf("Stats() = %+v", s)
	}
	if got := s.HitRate(); got < 0.66 || got > 0.67 {
		t.Errorf("HitRate() = %v", got)
	}
	if len(evicted) != 1 || evicted[0] != "a" {
		t.Errorf("evicted = %v, want [a]", evicted)
	}
	if (Stats{}).HitRate() != 0 {
		t.Error("empty stats should have a zero hit rate")
	}
}

func TestLRUCache_UnlimitedSize(t *testing.T) {
	cache := NewLRUCache[int, int](Config{MaxSize: -1})
	for i := 0; i < 500; i++ {
		cache.Put(i, i)
	}
	if cache.Len() != 500 {
		t.Errorf("Len() = %d; want 500", cache.Len())
	}
}

func TestLRUCache_Concurrency(t *testing.T) {
	cache := NewLRUCache[string, int](Config{MaxSize: 100})

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", (g*200+i)%150)
				cache.Put(key, i)
				cache.Get(key)
			}
		}(g)
	}
	wg.Wait()

	if n := cache.Len(); n > 100 {
		t.Errorf("Len() = %d; want <= 100", n)
	}
}

func TestLabelKey(t *testing.T) {
	base := LabelKey("hybrid", []string{"day", "way"})
	if len(base) != 64 {
		t.Errorf("key length = %d", len(base))
	}
	if base != LabelKey("hybrid", []string{"day", "way"}) {
		t.Error("key should be deterministic")
	}
	for _, other := range []string{
		LabelKey("group", []string{"day", "way"}),
		LabelKey("hybrid", []string{"dayw", "ay"}),
		LabelKey("hybrid", []string{"way", "day"}),
		LabelKey("hybrid", []string{"day", "way", ""}),
	} {
		if other == base {
			t.Error("different requests share a key")
		}
	}
}

func TestLabelCache(t *testing.T) {
	c := NewDefaultLabelCache()
	words := []string{"day", "night", "way"}

	if _, ok := c.Get("group", words); ok {
		t.Fatal("empty cache should miss")
	}

	in := partition.Partition{{0, 2}, {1}}
	c.Put("group", words, in)
	in[0][0] = 99

	got, ok := c.Get("group", words)
	if !ok {
		t.Fatal("expected a hit")
	}
	if !got.Equal(partition.Partition{{0, 2}, {1}}) {
		t.Errorf("Get() = %v; caller mutation leaked into the cache", got)
	}
	got[1][0] = 42
	again, _ := c.Get("group", words)
	if again[1][0] != 1 {
		t.Error("returned partition should be a copy")
	}

	if _, ok := c.Get("hybrid", words); ok {
		t.Error("mode is part of the key")
	}
	if c.Len() != 1 || c.Stats().Hits != 2 {
		t.Errorf("Len() = %d, Stats() = %+v", c.Len(), c.Stats())
	}
}
