// Package cache implements the two-layer cache contract from the
// specification: a distributed Redis-backed implementation, an in-process
// fallback, and a wrapper that tries the former and transparently falls
// back to the latter on any Redis error. Callers depend only on the Cache
// interface and never branch on which backend answered.
package cache

import "context"

// Cache is the key-value contract used across the core for hot reads
// (challenges, reputation, session context) and rate-limit counters.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key string, value string, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
	// DeleteMatching deletes every key matching a prefix pattern, e.g.
	// "reputation:user:*".
	DeleteMatching(ctx context.Context, pattern string) error
	// IncrementCounter atomically increments key by 1, setting ttlSeconds
	// as the expiry only when the key is first created, and returns the
	// new value.
	IncrementCounter(ctx context.Context, key string, ttlSeconds int) (int64, error)
	// HGetAll/HSet/Expire back the rate limiter's token-bucket hash state.
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HSet(ctx context.Context, key string, values map[string]string) error
	Expire(ctx context.Context, key string, ttlSeconds int) error
}

// TokenBucketConsumer is implemented by backends that can run a
// token-bucket refill-and-deduct as a single atomic operation instead of
// the separate HGetAll-then-HSet pair Cache exposes, which races under
// concurrent callers sharing an identifier. RedisCache backs this with a
// Lua script; MemoryCache backs it with its own mutex; FallbackCache
// delegates to whichever of those is live.
type TokenBucketConsumer interface {
	ConsumeTokenBucket(ctx context.Context, key string, capacity int, refillRate float64, tokens int, ttlSeconds int) (tokensRemaining float64, allowed bool, err error)
}
