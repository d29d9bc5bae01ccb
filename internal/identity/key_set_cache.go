package identity

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// KeySetCache keeps fetched key set documents per issuer.
type KeySetCache interface {
	Get(ctx context.Context, issuer string) ([]byte, bool, error)
	Set(ctx context.Context, issuer string, raw []byte) error
}

type memoryEntry struct {
	raw     []byte
	expires time.Time
}

// MemoryKeySetCache lives for the process lifetime.
type MemoryKeySetCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

func NewMemoryKeySetCache(ttl time.Duration) *MemoryKeySetCache {
	return &MemoryKeySetCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (c *MemoryKeySetCache) Get(_ context.Context, issuer string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[issuer]
	if !ok || c.now().After(e.expires) {
		return nil, false, nil
	}
	return e.raw, true, nil
}

func (c *MemoryKeySetCache) Set(_ context.Context, issuer string, raw []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[issuer] = memoryEntry{raw: raw, expires: c.now().Add(c.ttl)}
	return nil
}

const redisKeyPrefix = "scribeflow:jwks:"

// RedisKeySetCache shares key sets between every process using the same Redis.
type RedisKeySetCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisKeySetCache(client redis.Cmdable, ttl time.Duration) *RedisKeySetCache {
	return &RedisKeySetCache{client: client, ttl: ttl}
}

func (c *RedisKeySetCache) Get(ctx context.Context, issuer string) ([]byte, bool, error) {
	raw, err := c.client.Get(ctx, redisKeyPrefix+issuer).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (c *RedisKeySetCache) Set(ctx context.Context, issuer string, raw []byte) error {
	return c.client.Set(ctx, redisKeyPrefix+issuer, raw, c.ttl).Err()
}
