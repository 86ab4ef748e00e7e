// Package cache provides a small key-value caching interface with in-memory
// and Redis-backed implementations, plus a typed cache for solve results.
package cache

import (
	"context"
	"errors"
	"time"

	"rcsp/pkg/config"
)

// Backend types for cache implementations.
const (
	// BackendMemory specifies an in-memory cache backend.
	BackendMemory = "memory"
	// BackendRedis specifies a Redis cache backend.
	BackendRedis = "redis"
)

// Standard errors returned by cache operations.
var (
	// ErrKeyNotFound is returned when a requested key does not exist in the cache.
	ErrKeyNotFound = errors.New("key not found")
	// ErrCacheClosed is returned when an operation is attempted on a closed cache.
	ErrCacheClosed = errors.New("cache is closed")
)

// Cache defines the operations shared by all backends.
type Cache interface {
	// Get retrieves the value for key. Returns ErrKeyNotFound if absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key. A non-positive ttl selects the backend default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)
	// Keys returns all keys starting with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)
	// Stats returns usage statistics.
	Stats(ctx context.Context) (*Stats, error)
	// Clear removes all keys.
	Clear(ctx context.Context) error
	// Close releases the underlying resources.
	Close() error
}

// Stats holds cache statistics.
type Stats struct {
	TotalKeys int64   // Number of keys currently stored.
	Hits      int64   // Successful lookups.
	Misses    int64   // Failed lookups.
	HitRate   float64 // Hits / (Hits + Misses).
	Backend   string  // "memory" or "redis".
}

// Options contains configuration parameters for creating a Cache.
type Options struct {
	Backend    string        // BackendMemory or BackendRedis.
	DefaultTTL time.Duration // Used when Set is called with a non-positive ttl.

	// Memory backend
	MaxEntries      int
	CleanupInterval time.Duration

	// Redis backend
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPoolSize int
}

// DefaultOptions returns options for a small in-memory cache.
func DefaultOptions() *Options {
	return &Options{
		Backend:         BackendMemory,
		DefaultTTL:      10 * time.Minute,
		MaxEntries:      1000,
		CleanupInterval: time.Minute,
		RedisAddr:       "localhost:6379",
		RedisPoolSize:   10,
	}
}

// FromConfig создаёт опции из конфигурации
func FromConfig(cfg *config.CacheConfig) *Options {
	opts := DefaultOptions()
	opts.Backend = cfg.Driver
	if cfg.DefaultTTL > 0 {
		opts.DefaultTTL = cfg.DefaultTTL
	}
	if cfg.MaxEntries > 0 {
		opts.MaxEntries = cfg.MaxEntries
	}
	opts.RedisAddr = cfg.Address()
	opts.RedisPassword = cfg.Password
	opts.RedisDB = cfg.DB
	return opts
}

// New создаёт кэш на основе опций
func New(opts *Options) (Cache, error) {
	if opts == nil {
		opts = DefaultOptions()
	}

	switch opts.Backend {
	case BackendRedis:
		return NewRedisCache(opts)
	default:
		return NewMemoryCache(opts), nil
	}
}
