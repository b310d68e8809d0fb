// Package cache wraps a Redis client with namespacing, TTLs and
// tag-based invalidation. All operations fail open: when the backing
// store is unreachable they log and report a miss or a zero result,
// never an error, so callers treat cache failure exactly like absence.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	keyPrefix = "starlight:cache:"
	tagPrefix = "starlight:tag:"
)

// Cache is a namespaced key/value store with tagging support.
type Cache struct {
	rdb        *redis.Client
	defaultTTL time.Duration
}

// New connects to Redis using a redis:// URL.
func New(redisURL string, defaultTTL time.Duration) (*Cache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return NewWithClient(redis.NewClient(opts), defaultTTL), nil
}

// NewWithClient wraps an existing Redis client.
func NewWithClient(rdb *redis.Client, defaultTTL time.Duration) *Cache {
	return &Cache{rdb: rdb, defaultTTL: defaultTTL}
}

// Client exposes the underlying Redis client for components sharing
// the connection, such as the rate limiter.
func (c *Cache) Client() *redis.Client {
	return c.rdb
}

// Ping checks connectivity to the backing store.
func (c *Cache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close releases the underlying connection pool.
func (c *Cache) Close() error {
	return c.rdb.Close()
}

// Get returns the value stored under key, or ok=false on miss or error.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	value, err := c.rdb.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Error().Err(err).Str("key", key).Msg("Cache get error")
		}
		return nil, false
	}
	return value, true
}

// Set stores value under key with the given TTL (0 means the default
// TTL) and registers the key under each tag for bulk invalidation. The
// tag set's expiry is extended so it outlives its longest member.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags ...string) bool {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	namespaced := keyPrefix + key
	if err := c.rdb.Set(ctx, namespaced, value, ttl).Err(); err != nil {
		log.Error().Err(err).Str("key", key).Msg("Cache set error")
		return false
	}

	for _, tag := range tags {
		tagKey := tagPrefix + tag
		if err := c.rdb.SAdd(ctx, tagKey, namespaced).Err(); err != nil {
			log.Error().Err(err).Str("tag", tag).Msg("Cache tag register error")
			continue
		}
		// A fresh set carries no TTL, which GT treats as infinite, so
		// NX must seed the expiry before GT can lengthen it.
		if err := c.rdb.ExpireNX(ctx, tagKey, ttl).Err(); err != nil {
			log.Error().Err(err).Str("tag", tag).Msg("Cache tag expire error")
		}
		if err := c.rdb.ExpireGT(ctx, tagKey, ttl).Err(); err != nil {
			log.Error().Err(err).Str("tag", tag).Msg("Cache tag expire error")
		}
	}
	return true
}

// Delete removes a key and reports whether it existed.
func (c *Cache) Delete(ctx context.Context, key string) bool {
	removed, err := c.rdb.Del(ctx, keyPrefix+key).Result()
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("Cache delete error")
		return false
	}
	return removed > 0
}

// InvalidateByTag deletes every key registered under tag plus the tag
// set itself, returning the number of member keys removed. A tag with
// no members yields 0 with no error.
func (c *Cache) InvalidateByTag(ctx context.Context, tag string) int {
	tagKey := tagPrefix + tag

	members, err := c.rdb.SMembers(ctx, tagKey).Result()
	if err != nil {
		log.Error().Err(err).Str("tag", tag).Msg("Cache tag read error")
		return 0
	}
	if len(members) == 0 {
		return 0
	}

	removed, err := c.rdb.Del(ctx, members...).Result()
	if err != nil {
		log.Error().Err(err).Str("tag", tag).Msg("Cache tag invalidation error")
		return 0
	}
	if err := c.rdb.Del(ctx, tagKey).Err(); err != nil {
		log.Error().Err(err).Str("tag", tag).Msg("Cache tag cleanup error")
	}

	log.Info().Str("tag", tag).Int64("deleted_keys", removed).Msg("Invalidated cache by tag")
	return int(removed)
}

// InvalidatePattern deletes all cache keys matching a glob pattern
// within the cache namespace and returns the number removed.
func (c *Cache) InvalidatePattern(ctx context.Context, pattern string) int {
	var (
		cursor  uint64
		matched []string
	)
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, keyPrefix+pattern, 100).Result()
		if err != nil {
			log.Error().Err(err).Str("pattern", pattern).Msg("Cache scan error")
			return 0
		}
		matched = append(matched, keys...)
		cursor = next
		if cursor == 0 {
			break
		}
	}
	if len(matched) == 0 {
		return 0
	}

	removed, err := c.rdb.Del(ctx, matched...).Result()
	if err != nil {
		log.Error().Err(err).Str("pattern", pattern).Msg("Cache pattern delete error")
		return 0
	}
	return int(removed)
}
