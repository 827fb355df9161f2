package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"example.com/campushub/services/events/config"
)

// reminderKeyTTL keeps dedup keys alive well past the 25h scan horizon
// so overlapping windows never re-fire, while letting stale keys expire.
const reminderKeyTTL = 48 * time.Hour

// RedisCache is the fast path in front of the notification store for
// reminder dedup lookups. The database row remains authoritative; a
// cache miss just falls through to the store.
type RedisCache struct {
	client  *redis.Client
	enabled bool
}

// NewRedisCache creates a new Redis cache
func NewRedisCache(cfg config.RedisConfig) (*RedisCache, error) {
	if !cfg.Enabled {
		return &RedisCache{enabled: false}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, errors.Wrap(err, "failed to connect to Redis")
	}

	return &RedisCache{
		client:  client,
		enabled: true,
	}, nil
}

// HasReminderKey reports whether a reminder key was marked as sent.
// False on any cache problem so the caller checks the store instead.
func (c *RedisCache) HasReminderKey(ctx context.Context, key string) bool {
	if !c.enabled {
		return false
	}

	n, err := c.client.Exists(ctx, reminderCacheKey(key)).Result()
	if err != nil {
		return false
	}
	return n > 0
}

// MarkReminderKey records a sent reminder key with a TTL.
func (c *RedisCache) MarkReminderKey(ctx context.Context, key string) error {
	if !c.enabled {
		return nil
	}

	err := c.client.Set(ctx, reminderCacheKey(key), 1, reminderKeyTTL).Err()
	if err != nil {
		return errors.Wrap(err, "failed to mark reminder key in Redis")
	}
	return nil
}

func reminderCacheKey(key string) string {
	return fmt.Sprintf("reminder:%s", key)
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	if !c.enabled || c.client == nil {
		return nil
	}

	return c.client.Close()
}
