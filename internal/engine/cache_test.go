package engine

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestCacheKey(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		k1 := CacheKey("weekly_skill_stats", "Backend", "tech_stack")
		k2 := CacheKey("weekly_skill_stats", "Backend", "tech_stack")
		if k1 != k2 {
			t.Errorf("CacheKey not deterministic: %q != %q", k1, k2)
		}
	})

	t.Run("different inputs differ", func(t *testing.T) {
		k1 := CacheKey("weekly_skill_stats", "Backend")
		k2 := CacheKey("weekly_skill_stats", "Frontend")
		if k1 == k2 {
			t.Errorf("different inputs produced same key: %q", k1)
		}
	})

	t.Run("has prefix", func(t *testing.T) {
		k := CacheKey("test")
		if k[:3] != "gc:" {
			t.Errorf("expected gc: prefix, got %q", k[:3])
		}
	})
}

func TestCacheGetSet(t *testing.T) {
	// Init minimal cache (no Redis)
	InitCache("", 1*time.Minute, 100, 5*time.Minute)

	ctx := context.Background()
	key := CacheKey("test", "round-trip")

	if _, ok := CacheGet(ctx, key); ok {
		t.Fatal("expected miss for fresh key")
	}

	CacheSet(ctx, key, []byte(`{"week":34}`))

	data, ok := CacheGet(ctx, key)
	if !ok {
		t.Fatal("expected hit after set")
	}
	if string(data) != `{"week":34}` {
		t.Errorf("got %q", data)
	}
}

func TestCacheJSONRoundTrip(t *testing.T) {
	InitCache("", 1*time.Minute, 100, 5*time.Minute)

	type payload struct {
		Role  string `json:"role"`
		Count int    `json:"count"`
	}

	ctx := context.Background()
	key := CacheKey("test", "json")

	if _, ok := CacheLoadJSON[payload](ctx, key); ok {
		t.Fatal("expected miss for fresh key")
	}

	CacheStoreJSON(ctx, key, payload{Role: "Backend", Count: 42})

	got, ok := CacheLoadJSON[payload](ctx, key)
	if !ok {
		t.Fatal("expected hit after store")
	}
	if got.Role != "Backend" || got.Count != 42 {
		t.Errorf("got %+v", got)
	}
}

func TestCacheExpiry(t *testing.T) {
	InitCache("", 10*time.Millisecond, 100, 5*time.Minute)

	ctx := context.Background()
	key := CacheKey("test", "expiry")
	CacheSet(ctx, key, []byte("x"))

	time.Sleep(20 * time.Millisecond)

	if _, ok := CacheGet(ctx, key); ok {
		t.Error("expected miss after TTL")
	}
}

func TestCacheEviction(t *testing.T) {
	InitCache("", 1*time.Minute, 5, 5*time.Minute)

	ctx := context.Background()
	for i := 0; i < 20; i++ {
		CacheSet(ctx, CacheKey("evict", fmt.Sprint(i)), []byte("v"))
	}

	count := 0
	queryCache.l1.Range(func(_, _ any) bool {
		count++
		return true
	})
	if count > 5 {
		t.Errorf("expected at most 5 entries after eviction, got %d", count)
	}
}
