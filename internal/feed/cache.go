package feed

import (
	"context"
	"crypto/sha1"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a shared store for raw feed bodies.
type Cache interface {
	Load(ctx context.Context) (body []byte, fetchedAt time.Time, ok bool)
	Save(ctx context.Context, body []byte, fetchedAt time.Time) error
}

// RedisCache keeps the last feed body in Redis under a key derived from the
// feed URL.  Entries expire after ttl.
type RedisCache struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

// NewRedisCache returns nil when rdb is nil so callers can pass the result
// straight to WithCache only when Redis is available.
func NewRedisCache(rdb *redis.Client, prefix, url string, ttl time.Duration) *RedisCache {
	if rdb == nil {
		return nil
	}
	if prefix == "" {
		prefix = "feed"
	}
	sum := sha1.Sum([]byte(url))
	return &RedisCache{rdb: rdb, key: fmt.Sprintf("%s:%x", prefix, sum[:]), ttl: ttl}
}

// Key returns the Redis key used for the entry.
func (c *RedisCache) Key() string { return c.key }

// payload layout: [8 bytes fetchedAt unix ms][body]
func (c *RedisCache) Load(ctx context.Context) ([]byte, time.Time, bool) {
	bs, err := c.rdb.Get(ctx, c.key).Bytes()
	if err != nil || len(bs) < 8 {
		return nil, time.Time{}, false
	}
	ms := int64(binary.BigEndian.Uint64(bs[:8]))
	return bs[8:], time.UnixMilli(ms), true
}

func (c *RedisCache) Save(ctx context.Context, body []byte, fetchedAt time.Time) error {
	out := make([]byte, 8+len(body))
	binary.BigEndian.PutUint64(out[:8], uint64(fetchedAt.UnixMilli()))
	copy(out[8:], body)
	return c.rdb.SetEx(ctx, c.key, out, c.ttl).Err()
}
