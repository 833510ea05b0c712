package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/phishnet/phish-detector/internal/core"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisKeyPrefix = "phishnet:result:" // phishnet:result:{url}

// RedisCache is a redis implementation of the ResultCache interface.
// Expiry is delegated to redis key TTLs.
type RedisCache struct {
	client *redis.Client
	logger *zap.Logger
	ttl    time.Duration
}

// NewRedisCache creates a new redis cache and checks the connection
func NewRedisCache(opts *redis.Options, logger *zap.Logger, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCache{
		client: client,
		logger: logger,
		ttl:    ttl,
	}, nil
}

func redisKey(url string) string {
	return redisKeyPrefix + url
}

// Get retrieves the cached result for a URL
func (c *RedisCache) Get(ctx context.Context, url string) (*core.ClassificationResult, bool) {
	data, err := c.client.Get(ctx, redisKey(url)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Error("Failed to query cache", zap.Error(err), zap.String("url", url))
		}
		return nil, false
	}

	result, err := decodeResult(data)
	if err != nil {
		c.logger.Error("Discarding unreadable cache entry", zap.Error(err), zap.String("url", url))
		return nil, false
	}

	return result, true
}

// Set stores a result with the cache TTL
func (c *RedisCache) Set(ctx context.Context, url string, result *core.ClassificationResult) error {
	data, err := encodeResult(result)
	if err != nil {
		return err
	}

	if err := c.client.Set(ctx, redisKey(url), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to insert cache entry: %w", err)
	}
	return nil
}

// Delete removes a cache entry
func (c *RedisCache) Delete(ctx context.Context, url string) error {
	if err := c.client.Del(ctx, redisKey(url)).Err(); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// Cleanup is a no-op; redis expires keys itself
func (c *RedisCache) Cleanup(ctx context.Context) error {
	return nil
}

// Stop closes the redis connection pool
func (c *RedisCache) Stop() {
	if err := c.client.Close(); err != nil {
		c.logger.Error("Failed to close redis client", zap.Error(err))
	}
}
