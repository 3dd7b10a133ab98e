package cache

import (
	"testing"
	"time"
)

func TestKeyIsStableRegardlessOfFilterOrder(t *testing.T) {
	k1 := Key("사기죄 처벌 기준", map[string]interface{}{"category": "criminal", "sub_category": "fraud"})
	k2 := Key("사기죄 처벌 기준", map[string]interface{}{"sub_category": "fraud", "category": "criminal"})
	if k1 != k2 {
		t.Fatalf("expected stable key regardless of map insertion order, got %q vs %q", k1, k2)
	}
}

func TestKeyDiffersOnQueryOrFilters(t *testing.T) {
	k1 := Key("질문 A", nil)
	k2 := Key("질문 B", nil)
	k3 := Key("질문 A", map[string]interface{}{"category": "civil"})
	if k1 == k2 || k1 == k3 {
		t.Fatalf("expected distinct keys for distinct query/filters")
	}
}

func TestGetSetRoundTrip(t *testing.T) {
	c, err := New(10, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	key := Key("질문", nil)
	if _, ok := c.Get(key); ok {
		t.Fatal("expected miss before Set")
	}
	c.Set(key, []byte(`{"answer":"ok"}`))
	v, ok := c.Get(key)
	if !ok || string(v) != `{"answer":"ok"}` {
		t.Fatalf("expected cached value, got %q ok=%v", v, ok)
	}
}

func TestGetExpiresAfterTTL(t *testing.T) {
	c, err := New(10, 10*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	key := Key("질문", nil)
	c.Set(key, []byte("v"))
	time.Sleep(20 * time.Millisecond)
	if _, ok := c.Get(key); ok {
		t.Fatal("expected entry to expire after TTL")
	}
}

func TestStatsSnapshotTracksHitsAndMisses(t *testing.T) {
	c, err := New(10, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	key := Key("질문", nil)
	c.Get(key) // miss
	c.Set(key, []byte("v"))
	c.Get(key) // hit
	stats := c.StatsSnapshot()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Fatalf("expected 1 hit and 1 miss, got %+v", stats)
	}
}

func TestEvictsLeastRecentlyUsedOnOverflow(t *testing.T) {
	c, err := New(2, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	kA, kB, kC := Key("A", nil), Key("B", nil), Key("C", nil)
	c.Set(kA, []byte("a"))
	c.Set(kB, []byte("b"))
	c.Get(kA) // touch A so B becomes the LRU victim
	c.Set(kC, []byte("c"))
	if _, ok := c.Get(kB); ok {
		t.Fatal("expected B evicted as least-recently-used")
	}
	if _, ok := c.Get(kA); !ok {
		t.Fatal("expected A to survive (recently touched)")
	}
}
