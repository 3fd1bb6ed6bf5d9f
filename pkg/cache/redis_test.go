package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Set KEEL_TEST_REDIS_URL (e.g. redis://localhost:6379/15) to run against a real server.
func newTestRedisBackend(t *testing.T) *RedisBackend {
	t.Helper()
	url := os.Getenv("KEEL_TEST_REDIS_URL")
	if url == "" {
		t.Skip("KEEL_TEST_REDIS_URL not set")
	}
	r, err := NewRedisBackendFromURL(url)
	require.NoError(t, err)
	require.NoError(t, r.Ping(context.Background()))
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestRedisBackend(t *testing.T) {
	ctx := context.Background()
	r := newTestRedisBackend(t)
	key := "keel-test:" + t.Name()
	t.Cleanup(func() { _, _ = r.Delete(ctx, key) })

	_, err := r.Get(ctx, key)
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, r.Set(ctx, key, []byte("v"), time.Minute))
	value, err := r.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), value)

	ok, err := r.Touch(ctx, key, NoExpiration)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.Delete(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = r.Has(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewRedisBackendFromURL_Invalid(t *testing.T) {
	_, err := NewRedisBackendFromURL("http://not-redis")
	assert.Error(t, err)
}

func TestRedisTTL(t *testing.T) {
	assert.Equal(t, time.Duration(0), redisTTL(NoExpiration))
	assert.Equal(t, time.Second, redisTTL(time.Second))
}
