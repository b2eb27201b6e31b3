//go:build integration

package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/dreschagin/event-gallery/internal/application/port"
)

func newIntegrationCache(t *testing.T) *RedisCache {
	t.Helper()

	host := os.Getenv("REDIS_HOST")
	if host == "" {
		t.Skip("REDIS_HOST is not set")
	}

	cache, err := NewRedisCache(Config{
		Host:         host,
		Port:         "6379",
		TTL:          time.Minute,
		PoolSize:     2,
		DialTimeout:  time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("NewRedisCache() error = %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func TestRedisCacheRoundTripAndPatternDelete(t *testing.T) {
	cache := newIntegrationCache(t)
	ctx := context.Background()

	type page struct {
		IDs []string `json:"ids"`
	}

	keys := []string{"gallery:photos:it:30:first", "gallery:photos:it:30:abc"}
	for _, key := range keys {
		if err := cache.Set(ctx, key, page{IDs: []string{"b", "a"}}); err != nil {
			t.Fatalf("Set(%s) error = %v", key, err)
		}
	}

	var got page
	if err := cache.Get(ctx, keys[0], &got); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(got.IDs) != 2 || got.IDs[0] != "b" {
		t.Fatalf("unexpected cached value: %+v", got)
	}

	if err := cache.DeletePattern(ctx, "gallery:photos:it:*"); err != nil {
		t.Fatalf("DeletePattern() error = %v", err)
	}
	for _, key := range keys {
		if err := cache.Get(ctx, key, &got); !errors.Is(err, port.ErrCacheMiss) {
			t.Fatalf("expected cache miss for %s, got %v", key, err)
		}
	}
}
