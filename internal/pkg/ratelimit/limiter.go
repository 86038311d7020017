// Package ratelimit implements the token-bucket rate limiter used by the
// chat transport and the public HTTP boundary. Bucket state is stored as a
// Redis hash ({tokens, last_refill}) through internal/pkg/cache.Cache, the
// same two-layer cache used for hot reads elsewhere, so a Redis outage
// degrades the limiter to an in-process bucket rather than hard-failing
// requests — grounded on original_source/src/rate_limiting.py's TokenBucket
// and the teacher's internal/pkg/middleware/rate_limiter.go.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wingmanmatch/wingman/internal/pkg/cache"
)

// Result is the outcome of a Consume call.
type Result struct {
	Allowed          bool
	TokensRemaining  float64
	RetryAfterSeconds float64
}

// Limiter consumes tokens from named policy buckets keyed by an arbitrary
// identifier (user id, ip, etc).
type Limiter struct {
	cache    cache.Cache
	logger   *logrus.Entry
	mu       sync.Mutex
	local    map[string]localBucket
}

type localBucket struct {
	tokens     float64
	lastRefill time.Time
}

// NewLimiter creates a Limiter backed by the given cache.
func NewLimiter(c cache.Cache, logger *logrus.Entry) *Limiter {
	return &Limiter{cache: c, logger: logger, local: make(map[string]localBucket)}
}

// Consume attempts to deduct `tokens` (default 1) from the named policy's
// bucket for identifier. On cache outage, it fails open, logs a warning,
// and falls back to an in-process bucket so a single request still admits.
func (l *Limiter) Consume(ctx context.Context, policy, identifier string, tokens int) (Result, error) {
	if tokens <= 0 {
		tokens = 1
	}
	cfg, ok := Policies[policy]
	if !ok {
		return Result{Allowed: true}, fmt.Errorf("unknown rate limit policy: %s", policy)
	}

	key := fmt.Sprintf("rate_limit:%s:%s", policy, identifier)

	result, err := l.consumeFromCache(ctx, key, cfg, tokens)
	if err != nil {
		l.logger.WithFields(logrus.Fields{
			"policy":     policy,
			"identifier": identifier,
		}).WithError(err).Warn("rate limit cache unavailable, failing open with in-process bucket")
		return l.consumeLocal(key, cfg, tokens), nil
	}
	return result, nil
}

func (l *Limiter) consumeFromCache(ctx context.Context, key string, cfg BucketConfig, tokens int) (Result, error) {
	ttl := int(float64(cfg.Capacity)/cfg.RefillRate) + 60

	// Every cache backend this limiter is wired against (RedisCache,
	// MemoryCache, FallbackCache) implements TokenBucketConsumer, so the
	// refill-and-deduct runs as one atomic operation rather than racing a
	// separate HGetAll/HSet pair under concurrent callers for the same
	// identifier. The non-atomic path below only runs against a bare Cache
	// that doesn't implement it.
	if tb, ok := l.cache.(cache.TokenBucketConsumer); ok {
		remaining, allowed, err := tb.ConsumeTokenBucket(ctx, key, cfg.Capacity, cfg.RefillRate, tokens, ttl)
		if err != nil {
			return Result{}, err
		}
		result := Result{Allowed: allowed, TokensRemaining: remaining}
		if !allowed {
			result.RetryAfterSeconds = (float64(tokens) - remaining) / cfg.RefillRate
		}
		return result, nil
	}

	return l.consumeNonAtomic(ctx, key, cfg, tokens, ttl)
}

// consumeNonAtomic is the fallback path for a Cache implementation that
// doesn't support TokenBucketConsumer: a plain read-compute-write sequence,
// which races under concurrent requests for the same identifier.
func (l *Limiter) consumeNonAtomic(ctx context.Context, key string, cfg BucketConfig, tokens int, ttl int) (Result, error) {
	now := time.Now()

	state, err := l.cache.HGetAll(ctx, key)
	if err != nil {
		return Result{}, err
	}

	floatTokens := float64(cfg.Capacity)
	lastRefill := now
	if len(state) > 0 {
		if raw, ok := state["tokens"]; ok {
			if t, err := strconv.ParseFloat(raw, 64); err == nil {
				floatTokens = t
			}
		}
		if raw, ok := state["last_refill"]; ok {
			if unixNano, err := strconv.ParseInt(raw, 10, 64); err == nil {
				lastRefill = time.Unix(0, unixNano)
			}
		}
	}

	elapsed := now.Sub(lastRefill).Seconds()
	floatTokens = min(float64(cfg.Capacity), floatTokens+elapsed*cfg.RefillRate)

	var allowed bool
	var retryAfter float64
	if floatTokens >= float64(tokens) {
		floatTokens -= float64(tokens)
		allowed = true
	} else {
		allowed = false
		needed := float64(tokens) - floatTokens
		retryAfter = needed / cfg.RefillRate
	}

	if err := l.cache.HSet(ctx, key, map[string]string{
		"tokens":      strconv.FormatFloat(floatTokens, 'f', -1, 64),
		"last_refill": strconv.FormatInt(now.UnixNano(), 10),
		"capacity":    strconv.Itoa(cfg.Capacity),
		"refill_rate": strconv.FormatFloat(cfg.RefillRate, 'f', -1, 64),
	}); err != nil {
		return Result{}, err
	}
	if err := l.cache.Expire(ctx, key, ttl); err != nil {
		return Result{}, err
	}

	return Result{Allowed: allowed, TokensRemaining: floatTokens, RetryAfterSeconds: retryAfter}, nil
}

func (l *Limiter) consumeLocal(key string, cfg BucketConfig, tokens int) Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	b, ok := l.local[key]
	if !ok {
		b = localBucket{tokens: float64(cfg.Capacity), lastRefill: now}
	}

	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens = min(float64(cfg.Capacity), b.tokens+elapsed*cfg.RefillRate)
	b.lastRefill = now

	var allowed bool
	var retryAfter float64
	if b.tokens >= float64(tokens) {
		b.tokens -= float64(tokens)
		allowed = true
	} else {
		allowed = false
		retryAfter = (float64(tokens) - b.tokens) / cfg.RefillRate
	}

	l.local[key] = b
	return Result{Allowed: allowed, TokensRemaining: b.tokens, RetryAfterSeconds: retryAfter}
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
