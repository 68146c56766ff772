package validation

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/cognitive-agent/backend/internal/metrics"
	"github.com/cognitive-agent/backend/pkg/hashutil"
	"github.com/cognitive-agent/backend/pkg/logger"
)

// Cache stores validation records keyed by source URL. Expired entries
// are misses; stale records are never served.
type Cache interface {
	Get(ctx context.Context, url string) (*Record, bool)
	Set(ctx context.Context, url string, record *Record)
}

type memoryEntry struct {
	record    *Record
	expiresAt time.Time
}

// MemoryCache is the default in-process TTL cache, shared across loop
// invocations under a single mutex.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
	}
}

func (c *MemoryCache) Get(_ context.Context, url string) (*Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[url]
	if !ok {
		metrics.CacheMisses.WithLabelValues("validation_memory").Inc()
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.entries, url)
		metrics.CacheMisses.WithLabelValues("validation_memory").Inc()
		return nil, false
	}
	metrics.CacheHits.WithLabelValues("validation_memory").Inc()
	return entry.record, true
}

func (c *MemoryCache) Set(_ context.Context, url string, record *Record) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[url] = memoryEntry{
		record:    record,
		expiresAt: time.Now().Add(c.ttl),
	}
}

func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// RedisCache backs the validation cache with redis so records survive
// restarts and are shared across instances. Redis failures degrade to
// cache misses.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(host string, port int, password string, db int, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	if _, err := client.Ping(context.Background()).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	if ttl <= 0 {
		ttl = time.Hour
	}

	logger.Info("Validation redis cache initialized", zap.String("addr", fmt.Sprintf("%s:%d", host, port)))

	return &RedisCache{client: client, ttl: ttl}, nil
}

func NewRedisCacheFromClient(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) key(url string) string {
	return "validation:" + hashutil.ShortHash(url)
}

func (c *RedisCache) Get(ctx context.Context, url string) (*Record, bool) {
	data, err := c.client.Get(ctx, c.key(url)).Bytes()
	if err == redis.Nil {
		metrics.CacheMisses.WithLabelValues("validation_redis").Inc()
		return nil, false
	}
	if err != nil {
		logger.Warn("Validation cache read failed", zap.String("url", url), zap.Error(err))
		metrics.CacheMisses.WithLabelValues("validation_redis").Inc()
		return nil, false
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		logger.Warn("Validation cache entry corrupt", zap.String("url", url), zap.Error(err))
		metrics.CacheMisses.WithLabelValues("validation_redis").Inc()
		return nil, false
	}

	metrics.CacheHits.WithLabelValues("validation_redis").Inc()
	return &record, true
}

func (c *RedisCache) Set(ctx context.Context, url string, record *Record) {
	data, err := json.Marshal(record)
	if err != nil {
		logger.Warn("Failed to marshal validation record", zap.Error(err))
		return
	}

	if err := c.client.Set(ctx, c.key(url), data, c.ttl).Err(); err != nil {
		logger.Warn("Validation cache write failed", zap.String("url", url), zap.Error(err))
	}
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}
