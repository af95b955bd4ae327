package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *RedisCache {
	t.Helper()

	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	c, err := NewRedisCache(url)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestRedisCache_JSONRoundTrip(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	type payload struct {
		Courses int `json:"courses"`
	}

	require.NoError(t, c.SetJSON(ctx, "test:dashboard:1", payload{Courses: 3}, time.Minute))
	t.Cleanup(func() { c.Delete(ctx, "test:dashboard:1") })

	var got payload
	require.NoError(t, c.GetJSON(ctx, "test:dashboard:1", &got))
	assert.Equal(t, 3, got.Courses)
}

func TestRedisCache_MissingKey(t *testing.T) {
	c := newTestCache(t)

	_, err := c.Get(context.Background(), "test:missing:key")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisCache_DeleteByPrefix(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "test:prefix:a", "1", time.Minute))
	require.NoError(t, c.Set(ctx, "test:prefix:b", "2", time.Minute))

	require.NoError(t, c.DeleteByPrefix(ctx, "test:prefix:"))

	exists, err := c.Exists(ctx, "test:prefix:a")
	require.NoError(t, err)
	assert.False(t, exists)
}
