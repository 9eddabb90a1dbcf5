// Package cache implements the claim timeout cache: a best-effort, TTL-based
// marker for leads with an open claim window. It is never the source of
// truth; the lead's own status and expiry columns decide every
// authoritative transition.
package cache

import (
	"context"
	"time"

	"leadline_backend/platform/config"
	"leadline_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "claim:"

// Cache wraps a redis client. A nil client (no REDIS_URL configured, or a bad
// URL) degrades every operation to a logged no-op; the escalation pipeline
// keeps working without it.
type Cache struct {
	client *redis.Client
	log    *logger.Logger
}

// New creates the timeout cache. Returns a disabled cache when redis is not
// configured.
func New(cfg config.CacheConfig, log *logger.Logger) *Cache {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		log.Warn("REDIS_URL not configured; claim timeout cache disabled")
		return &Cache{log: log}
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Error("invalid REDIS_URL; claim timeout cache disabled", "error", err)
		return &Cache{log: log}
	}

	return &Cache{client: redis.NewClient(opt), log: log}
}

// NewWithClient creates a cache around an existing client. Used by tests.
func NewWithClient(client *redis.Client, log *logger.Logger) *Cache {
	return &Cache{client: client, log: log}
}

// Set records an open claim window with automatic expiry. Best-effort.
func (c *Cache) Set(ctx context.Context, leadID uuid.UUID, token string, ttl time.Duration) {
	if c.client == nil {
		return
	}

	if err := c.client.Set(ctx, keyPrefix+leadID.String(), token, ttl).Err(); err != nil {
		c.log.CollaboratorError("redis", "set claim window", err)
	}
}

// Get returns the cached token for a lead, or "" when absent or unreachable.
func (c *Cache) Get(ctx context.Context, leadID uuid.UUID) string {
	if c.client == nil {
		return ""
	}

	val, err := c.client.Get(ctx, keyPrefix+leadID.String()).Result()
	if err != nil {
		if err != redis.Nil {
			c.log.CollaboratorError("redis", "get claim window", err)
		}
		return ""
	}
	return val
}

// Delete removes the marker when a lead is claimed, so an in-flight sweep
// finds nothing to race against. Best-effort.
func (c *Cache) Delete(ctx context.Context, leadID uuid.UUID) {
	if c.client == nil {
		return
	}

	if err := c.client.Del(ctx, keyPrefix+leadID.String()).Err(); err != nil {
		c.log.CollaboratorError("redis", "delete claim window", err)
	}
}
