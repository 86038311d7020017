package cache

import (
	"context"

	"github.com/sirupsen/logrus"
)

// FallbackCache tries the distributed cache first and, on any error,
// logs a warning tagged component=cache and continues against the
// in-process MemoryCache. Callers never see which backend answered.
type FallbackCache struct {
	primary  Cache
	fallback *MemoryCache
	logger   *logrus.Entry
}

// NewFallbackCache composes a distributed primary with an in-process
// fallback.
func NewFallbackCache(primary Cache, fallback *MemoryCache, logger *logrus.Entry) *FallbackCache {
	return &FallbackCache{primary: primary, fallback: fallback, logger: logger}
}

func (f *FallbackCache) warn(op string, err error) {
	f.logger.WithFields(logrus.Fields{
		"component": "cache",
		"operation": op,
	}).WithError(err).Warn("cache backend unavailable, falling back to in-process cache")
}

func (f *FallbackCache) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := f.primary.Get(ctx, key)
	if err != nil {
		f.warn("get", err)
		return f.fallback.Get(ctx, key)
	}
	return v, ok, nil
}

func (f *FallbackCache) Set(ctx context.Context, key string, value string, ttlSeconds int) error {
	if err := f.primary.Set(ctx, key, value, ttlSeconds); err != nil {
		f.warn("set", err)
		return f.fallback.Set(ctx, key, value, ttlSeconds)
	}
	return nil
}

func (f *FallbackCache) Delete(ctx context.Context, key string) error {
	err := f.primary.Delete(ctx, key)
	// Always clear the fallback copy too, regardless of primary outcome,
	// so a prior fallback-written value can't outlive an invalidation.
	fbErr := f.fallback.Delete(ctx, key)
	if err != nil {
		f.warn("delete", err)
		return fbErr
	}
	return nil
}

func (f *FallbackCache) DeleteMatching(ctx context.Context, pattern string) error {
	err := f.primary.DeleteMatching(ctx, pattern)
	fbErr := f.fallback.DeleteMatching(ctx, pattern)
	if err != nil {
		f.warn("delete_matching", err)
		return fbErr
	}
	return nil
}

func (f *FallbackCache) IncrementCounter(ctx context.Context, key string, ttlSeconds int) (int64, error) {
	v, err := f.primary.IncrementCounter(ctx, key, ttlSeconds)
	if err != nil {
		f.warn("increment_counter", err)
		return f.fallback.IncrementCounter(ctx, key, ttlSeconds)
	}
	return v, nil
}

func (f *FallbackCache) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	v, err := f.primary.HGetAll(ctx, key)
	if err != nil {
		f.warn("hgetall", err)
		return f.fallback.HGetAll(ctx, key)
	}
	return v, nil
}

func (f *FallbackCache) HSet(ctx context.Context, key string, values map[string]string) error {
	if err := f.primary.HSet(ctx, key, values); err != nil {
		f.warn("hset", err)
		return f.fallback.HSet(ctx, key, values)
	}
	return nil
}

func (f *FallbackCache) Expire(ctx context.Context, key string, ttlSeconds int) error {
	if err := f.primary.Expire(ctx, key, ttlSeconds); err != nil {
		f.warn("expire", err)
		return f.fallback.Expire(ctx, key, ttlSeconds)
	}
	return nil
}

// ConsumeTokenBucket prefers the primary's atomic implementation (RedisCache's
// Lua script) and falls back to MemoryCache's mutex-guarded one on error,
// same fail-open posture as every other method here.
func (f *FallbackCache) ConsumeTokenBucket(ctx context.Context, key string, capacity int, refillRate float64, tokens int, ttlSeconds int) (float64, bool, error) {
	if primary, ok := f.primary.(TokenBucketConsumer); ok {
		remaining, allowed, err := primary.ConsumeTokenBucket(ctx, key, capacity, refillRate, tokens, ttlSeconds)
		if err == nil {
			return remaining, allowed, nil
		}
		f.warn("consume_token_bucket", err)
	}
	return f.fallback.ConsumeTokenBucket(ctx, key, capacity, refillRate, tokens, ttlSeconds)
}
