package port

import (
	"context"
	"errors"
)

// ErrCacheMiss возвращается Get, когда ключа нет в кэше
var ErrCacheMiss = errors.New("cache miss")

// Cache defines the interface for caching listing pages
type Cache interface {
	// Get decodes a cached value into dest or returns ErrCacheMiss
	Get(ctx context.Context, key string, dest interface{}) error

	// Set stores a value in cache with the configured TTL
	Set(ctx context.Context, key string, value interface{}) error

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// DeletePattern removes all keys matching pattern
	DeletePattern(ctx context.Context, pattern string) error

	// Close closes the cache connection
	Close() error
}
