// Package cache provides a two-tier cache for generated explanations:
// an in-process LRU backed by an optional shared Redis tier. Explanations
// for identical verdicts are interchangeable, so caching saves repeated
// external calls without changing output.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-server/internal/domain"
)

// ExplanationCache is a two-tier verdict-keyed explanation cache.
type ExplanationCache struct {
	memory *lru.Cache[string, domain.Explanation]
	redis  *redis.Client // nil means memory-only
	ttl    time.Duration
	logger *logrus.Logger
}

// New creates an explanation cache. redisURL may be empty for a
// memory-only cache; an unreachable Redis is reported as an error so the
// caller can decide to run without the shared tier.
func New(lruSize int, redisURL string, ttl time.Duration, logger *logrus.Logger) (*ExplanationCache, error) {
	memory, err := lru.New[string, domain.Explanation](lruSize)
	if err != nil {
		return nil, fmt.Errorf("creating LRU cache: %w", err)
	}

	c := &ExplanationCache{
		memory: memory,
		ttl:    ttl,
		logger: logger,
	}

	if redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parsing Redis URL: %w", err)
		}
		client := redis.NewClient(opts)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connecting to Redis: %w", err)
		}
		c.redis = client
	}

	return c, nil
}

// Get returns the cached explanation for a verdict key, checking memory
// first and promoting Redis hits into memory.
func (c *ExplanationCache) Get(ctx context.Context, key string) (*domain.Explanation, bool) {
	if explanation, ok := c.memory.Get(key); ok {
		return &explanation, true
	}

	if c.redis == nil {
		return nil, false
	}

	val, err := c.redis.Get(ctx, redisKey(key)).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.WithError(err).Debug("Redis cache read failed")
		return nil, false
	}

	var explanation domain.Explanation
	if err := json.Unmarshal([]byte(val), &explanation); err != nil {
		c.logger.WithError(err).Debug("Discarding unreadable cached explanation")
		return nil, false
	}

	c.memory.Add(key, explanation)
	return &explanation, true
}

// Set stores an explanation in both tiers. Cache write failures are
// logged, never surfaced.
func (c *ExplanationCache) Set(ctx context.Context, key string, explanation *domain.Explanation) {
	if explanation == nil {
		return
	}
	c.memory.Add(key, *explanation)

	if c.redis == nil {
		return
	}
	data, err := json.Marshal(explanation)
	if err != nil {
		c.logger.WithError(err).Debug("Failed to serialize explanation for cache")
		return
	}
	if err := c.redis.Set(ctx, redisKey(key), data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).Debug("Redis cache write failed")
	}
}

// Close releases the Redis connection if one is held.
func (c *ExplanationCache) Close() error {
	if c.redis != nil {
		return c.redis.Close()
	}
	return nil
}

// redisKey namespaces and hashes the verdict key.
func redisKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return fmt.Sprintf("pharmaguard:explanation:%x", sum[:16])
}
