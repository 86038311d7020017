package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCacheGetSet(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	_, ok, err := c.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, "k", "v", 60))
	v, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestMemoryCacheExpiry(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	c.mu.Lock()
	e := c.data["k"]
	e.expiresAt = time.Now().Add(-time.Second)
	c.data["k"] = e
	c.mu.Unlock()

	_, ok, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCacheDeleteMatching(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "reputation:user:a", "1", 60))
	require.NoError(t, c.Set(ctx, "reputation:user:b", "2", 60))
	require.NoError(t, c.Set(ctx, "other:key", "3", 60))

	require.NoError(t, c.DeleteMatching(ctx, "reputation:user:*"))

	_, ok, _ := c.Get(ctx, "reputation:user:a")
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, "reputation:user:b")
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, "other:key")
	assert.True(t, ok)
}

func TestMemoryCacheIncrementCounter(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	v, err := c.IncrementCounter(ctx, "counter", 60)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	v, err = c.IncrementCounter(ctx, "counter", 60)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)
}

func TestMemoryCacheHash(t *testing.T) {
	c := NewMemoryCache()
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.HSet(ctx, "bucket:user1", map[string]string{"tokens": "5"}))
	h, err := c.HGetAll(ctx, "bucket:user1")
	require.NoError(t, err)
	assert.Equal(t, "5", h["tokens"])
}
