package cache

import (
	"context"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	hash      map[string]string
	expiresAt time.Time
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryCache is the in-process fallback implementation: a mutex-guarded
// map with a background janitor goroutine that evicts expired entries.
type MemoryCache struct {
	mu   sync.Mutex
	data map[string]memoryEntry
	stop chan struct{}
}

// NewMemoryCache creates a memory cache and starts its janitor goroutine.
func NewMemoryCache() *MemoryCache {
	m := &MemoryCache{
		data: make(map[string]memoryEntry),
		stop: make(chan struct{}),
	}
	go m.janitor()
	return m
}

// Close stops the janitor goroutine.
func (m *MemoryCache) Close() {
	close(m.stop)
}

func (m *MemoryCache) janitor() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.stop:
			return
		case now := <-ticker.C:
			m.mu.Lock()
			for k, e := range m.data {
				if e.expired(now) {
					delete(m.data, k)
				}
			}
			m.mu.Unlock()
		}
	}
}

func (m *MemoryCache) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data[key]
	if !ok || e.expired(time.Now()) {
		return "", false, nil
	}
	return e.value, true, nil
}

func (m *MemoryCache) Set(ctx context.Context, key string, value string, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = memoryEntry{value: value, expiresAt: expiryFor(ttlSeconds)}
	return nil
}

func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemoryCache) DeleteMatching(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
		}
	}
	return nil
}

func (m *MemoryCache) IncrementCounter(ctx context.Context, key string, ttlSeconds int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data[key]
	if !ok || e.expired(time.Now()) {
		e = memoryEntry{value: "0", expiresAt: expiryFor(ttlSeconds)}
	}
	count, _ := strconv.ParseInt(e.value, 10, 64)
	count++
	e.value = strconv.FormatInt(count, 10)
	m.data[key] = e
	return count, nil
}

func (m *MemoryCache) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data[key]
	if !ok || e.expired(time.Now()) || e.hash == nil {
		return map[string]string{}, nil
	}
	out := make(map[string]string, len(e.hash))
	for k, v := range e.hash {
		out[k] = v
	}
	return out, nil
}

func (m *MemoryCache) HSet(ctx context.Context, key string, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data[key]
	if !ok {
		e = memoryEntry{}
	}
	if e.hash == nil {
		e.hash = make(map[string]string)
	}
	for k, v := range values {
		e.hash[k] = v
	}
	m.data[key] = e
	return nil
}

func (m *MemoryCache) Expire(ctx context.Context, key string, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data[key]
	if !ok {
		return nil
	}
	e.expiresAt = expiryFor(ttlSeconds)
	m.data[key] = e
	return nil
}

// ConsumeTokenBucket runs the same refill-and-deduct arithmetic as
// RedisCache's Lua script, but under the single mutex that already guards
// every other MemoryCache operation, so it's atomic for the same reason
// the rest of this type is.
func (m *MemoryCache) ConsumeTokenBucket(ctx context.Context, key string, capacity int, refillRate float64, tokens int, ttlSeconds int) (float64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	bucketTokens := float64(capacity)
	lastRefill := now

	if e, ok := m.data[key]; ok && !e.expired(now) && e.hash != nil {
		if raw, ok := e.hash["tokens"]; ok {
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				bucketTokens = v
			}
		}
		if raw, ok := e.hash["last_refill"]; ok {
			if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
				lastRefill = time.Unix(0, v)
			}
		}
	}

	elapsed := now.Sub(lastRefill).Seconds()
	bucketTokens = math.Min(float64(capacity), bucketTokens+elapsed*refillRate)

	allowed := bucketTokens >= float64(tokens)
	if allowed {
		bucketTokens -= float64(tokens)
	}

	m.data[key] = memoryEntry{
		hash: map[string]string{
			"tokens":      strconv.FormatFloat(bucketTokens, 'f', -1, 64),
			"last_refill": strconv.FormatInt(now.UnixNano(), 10),
		},
		expiresAt: expiryFor(ttlSeconds),
	}

	return bucketTokens, allowed, nil
}

func expiryFor(ttlSeconds int) time.Time {
	if ttlSeconds <= 0 {
		return time.Time{}
	}
	return time.Now().Add(time.Duration(ttlSeconds) * time.Second)
}
