package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func newTestMemoryCache(t *testing.T, maxEntries int) *MemoryCache {
	t.Helper()
	c := NewMemoryCache(&Options{
		DefaultTTL:      time.Minute,
		MaxEntries:      maxEntries,
		CleanupInterval: 10 * time.Millisecond,
	})
	t.Cleanup(func() { c.Close() })
	return c
}

func TestMemoryCache_SetGet(t *testing.T) {
	c := newTestMemoryCache(t, 10)
	ctx := context.Background()

	value := []byte("result")
	if err := c.Set(ctx, "k", value, 0); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	// Значение копируется при записи
	value[0] = 'X'

	got, err := c.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != "result" {
		t.Errorf("Get() = %s, want result", got)
	}
}

func TestMemoryCache_GetNotFound(t *testing.T) {
	c := newTestMemoryCache(t, 10)

	if _, err := c.Get(context.Background(), "missing"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Get() error = %v, want ErrKeyNotFound", err)
	}
}

func TestMemoryCache_DeleteExists(t *testing.T) {
	c := newTestMemoryCache(t, 10)
	ctx := context.Background()

	_ = c.Set(ctx, "k", []byte("v"), 0)
	if ok, _ := c.Exists(ctx, "k"); !ok {
		t.Error("key should exist")
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if ok, _ := c.Exists(ctx, "k"); ok {
		t.Error("key should be deleted")
	}
}

func TestMemoryCache_TTL(t *testing.T) {
	c := newTestMemoryCache(t, 10)
	ctx := context.Background()

	_ = c.Set(ctx, "short", []byte("v"), 20*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	if _, err := c.Get(ctx, "short"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("expired key: error = %v, want ErrKeyNotFound", err)
	}
}

func TestMemoryCache_Keys(t *testing.T) {
	c := newTestMemoryCache(t, 10)
	ctx := context.Background()

	_ = c.Set(ctx, "rcsp:a", []byte("1"), 0)
	_ = c.Set(ctx, "rcsp:b", []byte("2"), 0)
	_ = c.Set(ctx, "other", []byte("3"), 0)

	keys, err := c.Keys(ctx, "rcsp:")
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	if len(keys) != 2 || keys[0] != "rcsp:a" || keys[1] != "rcsp:b" {
		t.Errorf("Keys() = %v", keys)
	}
}

func TestMemoryCache_Stats(t *testing.T) {
	c := newTestMemoryCache(t, 10)
	ctx := context.Background()

	_ = c.Set(ctx, "k", []byte("v"), 0)
	_, _ = c.Get(ctx, "k")
	_, _ = c.Get(ctx, "missing")

	stats, err := c.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.Hits != 1 || stats.Misses != 1 || stats.TotalKeys != 1 {
		t.Errorf("unexpected stats: %+v", stats)
	}
	if stats.HitRate != 0.5 {
		t.Errorf("HitRate = %v, want 0.5", stats.HitRate)
	}
}

func TestMemoryCache_LRUEviction(t *testing.T) {
	c := newTestMemoryCache(t, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_ = c.Set(ctx, fmt.Sprintf("k%d", i), []byte("v"), 0)
		time.Sleep(time.Millisecond)
	}

	// k0 становится самым свежим
	_, _ = c.Get(ctx, "k0")
	time.Sleep(time.Millisecond)

	_ = c.Set(ctx, "k3", []byte("v"), 0)

	if ok, _ := c.Exists(ctx, "k1"); ok {
		t.Error("k1 should be evicted")
	}
	if ok, _ := c.Exists(ctx, "k0"); !ok {
		t.Error("k0 should survive eviction")
	}
}

func TestMemoryCache_Clear(t *testing.T) {
	c := newTestMemoryCache(t, 10)
	ctx := context.Background()

	_ = c.Set(ctx, "k", []byte("v"), 0)
	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if ok, _ := c.Exists(ctx, "k"); ok {
		t.Error("cache should be empty after Clear")
	}
}

func TestMemoryCache_Close(t *testing.T) {
	c := NewMemoryCache(nil)

	if err := c.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if _, err := c.Get(context.Background(), "k"); !errors.Is(err, ErrCacheClosed) {
		t.Errorf("Get() after Close error = %v, want ErrCacheClosed", err)
	}
}
