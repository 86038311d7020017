package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/wingmanmatch/wingman/internal/pkg/database"
)

// tokenBucketScript refills the bucket for the elapsed time since its last
// write, then attempts to deduct the requested tokens, all inside a single
// EVAL so concurrent callers for the same key serialize through Redis
// rather than racing a Go-side read-then-write. Returns {allowed, tokens}.
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local capacity = tonumber(ARGV[1])
local refill_rate = tonumber(ARGV[2])
local requested = tonumber(ARGV[3])
local now = tonumber(ARGV[4])
local ttl = tonumber(ARGV[5])

local tokens = capacity
local last_refill = now

local existing = redis.call('HMGET', key, 'tokens', 'last_refill')
if existing[1] then tokens = tonumber(existing[1]) end
if existing[2] then last_refill = tonumber(existing[2]) end

local elapsed = now - last_refill
if elapsed < 0 then elapsed = 0 end
tokens = math.min(capacity, tokens + elapsed * refill_rate)

local allowed = 0
if tokens >= requested then
	tokens = tokens - requested
	allowed = 1
end

redis.call('HMSET', key, 'tokens', tostring(tokens), 'last_refill', tostring(now))
redis.call('EXPIRE', key, ttl)

return {allowed, tostring(tokens)}
`)

// RedisCache is the distributed Cache implementation, backed by the
// teacher's RedisClient wrapper (internal/pkg/database).
type RedisCache struct {
	client *database.RedisClient
}

// NewRedisCache wraps an existing Redis client connection.
func NewRedisCache(client *database.RedisClient) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, key)
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value string, ttlSeconds int) error {
	return c.client.Set(ctx, key, value, time.Duration(ttlSeconds)*time.Second)
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Delete(ctx, key)
}

// DeleteMatching uses SCAN, never KEYS, so the hot path never blocks Redis
// with an O(N) full keyspace scan.
func (c *RedisCache) DeleteMatching(ctx context.Context, pattern string) error {
	redisClient := c.client.GetClient()
	var cursor uint64
	for {
		keys, next, err := redisClient.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := redisClient.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return nil
}

func (c *RedisCache) IncrementCounter(ctx context.Context, key string, ttlSeconds int) (int64, error) {
	redisClient := c.client.GetClient()
	count, err := redisClient.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 && ttlSeconds > 0 {
		if err := c.client.Expire(ctx, key, time.Duration(ttlSeconds)*time.Second); err != nil {
			return count, err
		}
	}
	return count, nil
}

func (c *RedisCache) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	return c.client.HGetAll(ctx, key)
}

func (c *RedisCache) HSet(ctx context.Context, key string, values map[string]string) error {
	m := make(map[string]interface{}, len(values))
	for k, v := range values {
		m[k] = v
	}
	return c.client.HMSet(ctx, key, m)
}

func (c *RedisCache) Expire(ctx context.Context, key string, ttlSeconds int) error {
	return c.client.Expire(ctx, key, time.Duration(ttlSeconds)*time.Second)
}

// ConsumeTokenBucket runs tokenBucketScript via EVALSHA/EVAL (go-redis
// caches the SHA after the first call), giving the rate limiter an atomic
// refill-and-deduct instead of a read-compute-write pair.
func (c *RedisCache) ConsumeTokenBucket(ctx context.Context, key string, capacity int, refillRate float64, tokens int, ttlSeconds int) (float64, bool, error) {
	nowSeconds := float64(time.Now().UnixNano()) / 1e9
	res, err := tokenBucketScript.Run(ctx, c.client.GetClient(), []string{key},
		capacity, refillRate, tokens, nowSeconds, ttlSeconds).Result()
	if err != nil {
		return 0, false, err
	}
	vals, ok := res.([]interface{})
	if !ok || len(vals) != 2 {
		return 0, false, fmt.Errorf("unexpected token bucket script result: %v", res)
	}
	allowed, _ := vals[0].(int64)
	remaining, err := strconv.ParseFloat(fmt.Sprint(vals[1]), 64)
	if err != nil {
		return 0, false, fmt.Errorf("failed to parse token bucket remaining tokens: %w", err)
	}
	return remaining, allowed == 1, nil
}
