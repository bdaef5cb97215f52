package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryClient_SetGet(t *testing.T) {
	c := NewMemoryClient(MemoryConfig{})
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "search:ru:abc", []byte(`{"status":"ok"}`), time.Hour))

	value, err := c.Get(ctx, "search:ru:abc")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"status":"ok"}`), value)

	_, err = c.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryClient_ExpiredEntryMisses(t *testing.T) {
	c := NewMemoryClient(MemoryConfig{})
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "key", []byte("v"), -time.Second))

	_, err := c.Get(ctx, "key")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestMemoryClient_EvictsOldestWriteAtCapacity(t *testing.T) {
	c := NewMemoryClient(MemoryConfig{MaxEntries: 3, JanitorInterval: time.Hour})
	defer c.Close()
	ctx := context.Background()

	for _, key := range []string{"k1", "k2", "k3"} {
		require.NoError(t, c.Set(ctx, key, []byte(key), time.Hour))
		time.Sleep(time.Millisecond)
	}
	require.NoError(t, c.Set(ctx, "k4", []byte("k4"), time.Hour))

	_, err := c.Get(ctx, "k1")
	assert.ErrorIs(t, err, ErrCacheMiss)
	for _, key := range []string{"k2", "k3", "k4"} {
		_, err := c.Get(ctx, key)
		assert.NoError(t, err, key)
	}
}

func TestMemoryClient_RewriteDoesNotEvict(t *testing.T) {
	c := NewMemoryClient(MemoryConfig{MaxEntries: 2, JanitorInterval: time.Hour})
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k1", []byte("a"), time.Hour))
	require.NoError(t, c.Set(ctx, "k2", []byte("b"), time.Hour))
	require.NoError(t, c.Set(ctx, "k2", []byte("c"), time.Hour))

	value, err := c.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), value)

	value, err = c.Get(ctx, "k2")
	require.NoError(t, err)
	assert.Equal(t, []byte("c"), value)
}

func TestMemoryClient_JanitorTrimsToConfiguredSize(t *testing.T) {
	c := NewMemoryClient(MemoryConfig{MaxEntries: 10, TrimTo: 1, JanitorInterval: time.Hour})
	defer c.Close()
	ctx := context.Background()

	for _, key := range []string{"k1", "k2", "k3"} {
		require.NoError(t, c.Set(ctx, key, []byte(key), time.Hour))
		time.Sleep(time.Millisecond)
	}

	c.runJanitorPass()

	// Only the newest write survives the trim.
	_, err := c.Get(ctx, "k3")
	assert.NoError(t, err)
	for _, key := range []string{"k1", "k2"} {
		_, err := c.Get(ctx, key)
		assert.ErrorIs(t, err, ErrCacheMiss, key)
	}
}

func TestMemoryClient_DeleteByPrefix(t *testing.T) {
	c := NewMemoryClient(MemoryConfig{})
	defer c.Close()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "search:ru:x", []byte("1"), time.Hour))
	require.NoError(t, c.Set(ctx, "search:uz:y", []byte("2"), time.Hour))
	require.NoError(t, c.Set(ctx, "stats:z", []byte("3"), time.Hour))

	require.NoError(t, c.DeleteByPrefix(ctx, "search:"))

	_, err := c.Get(ctx, "search:ru:x")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = c.Get(ctx, "search:uz:y")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = c.Get(ctx, "stats:z")
	assert.NoError(t, err)
}

func TestSearchKey_StableAndScoped(t *testing.T) {
	a := SearchKey("ru", "помидоры свежие")
	b := SearchKey("ru", "помидоры свежие")
	assert.Equal(t, a, b)

	assert.NotEqual(t, a, SearchKey("uz", "помидоры свежие"))
	assert.NotEqual(t, a, SearchKey("ru", "огурцы"))
	assert.True(t, len(a) > len("search:ru:"))
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "index:build:42", CacheKey("index", "build", "42"))
}
