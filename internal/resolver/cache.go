package resolver

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/llehouerou/wavecloud/internal/playlist"
)

// Cache defaults.
const (
	DefaultCacheSize = 256
	DefaultCacheTTL  = 10 * time.Minute

	redisKeyPrefix = "wavecloud:url:"
)

// Cache stores resolved URLs by source reference. A failing cache behaves
// as a miss.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, url string)
}

// MemoryCache is an in-process LRU cache with per-entry expiry.
type MemoryCache struct {
	lru *expirable.LRU[string, string]
}

// NewMemoryCache creates a cache holding at most size URLs for ttl each.
func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &MemoryCache{lru: expirable.NewLRU[string, string](size, nil, ttl)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (string, bool) {
	return c.lru.Get(key)
}

func (c *MemoryCache) Set(_ context.Context, key, url string) {
	c.lru.Add(key, url)
}

// Len returns the number of cached URLs.
func (c *MemoryCache) Len() int {
	return c.lru.Len()
}

// RedisConfig selects the Redis server backing a RedisCache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient creates a client for cfg.
func NewRedisClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
}

// RedisCache shares resolved URLs between processes. The first Redis error
// disables it for the rest of the process.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger

	mu       sync.RWMutex
	disabled bool
}

// NewRedisCache creates a cache keeping URLs for ttl.
func NewRedisCache(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "url-cache").Logger(),
	}
}

// IsAvailable returns true if the cache is operational.
func (c *RedisCache) IsAvailable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.disabled
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool) {
	if !c.IsAvailable() {
		return "", false
	}
	url, err := c.client.Get(ctx, redisKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false
	}
	if err != nil {
		c.handleError(err, "get")
		return "", false
	}
	return url, true
}

func (c *RedisCache) Set(ctx context.Context, key, url string) {
	if !c.IsAvailable() {
		return
	}
	if err := c.client.Set(ctx, redisKeyPrefix+key, url, c.ttl).Err(); err != nil {
		c.handleError(err, "set")
	}
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) handleError(err error, operation string) {
	// Canceled lookups say nothing about the server.
	if errors.Is(err, context.Canceled) {
		return
	}
	c.logger.Warn().Err(err).Str("operation", operation).Msg("disabling url cache after redis error")
	c.mu.Lock()
	c.disabled = true
	c.mu.Unlock()
}

// Cached is a Resolver that remembers the URLs of another.
type Cached struct {
	inner  Resolver
	cache  Cache
	logger zerolog.Logger
}

// NewCached wraps inner with cache.
func NewCached(inner Resolver, cache Cache, logger zerolog.Logger) *Cached {
	return &Cached{inner: inner, cache: cache, logger: logger}
}

func (c *Cached) Resolve(ctx context.Context, t playlist.Track) (string, error) {
	if t.SourceRef == "" {
		return c.inner.Resolve(ctx, t)
	}
	if url, ok := c.cache.Get(ctx, t.SourceRef); ok {
		c.logger.Debug().Str("source", t.SourceRef).Msg("url cache hit")
		return url, nil
	}
	url, err := c.inner.Resolve(ctx, t)
	if err != nil {
		return "", err
	}
	c.cache.Set(ctx, t.SourceRef, url)
	return url, nil
}

var (
	_ Resolver = (*File)(nil)
	_ Resolver = (*S3)(nil)
	_ Resolver = (*Cached)(nil)
	_ Cache    = (*MemoryCache)(nil)
	_ Cache    = (*RedisCache)(nil)
)
