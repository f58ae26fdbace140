package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/doctorconnect/internal/adapters/cache"
	"github.com/zatekoja/doctorconnect/internal/domain/providers"
	redisclient "github.com/zatekoja/doctorconnect/internal/infrastructure/clients/redis"
)

func TestMemoryAdapter_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryAdapter(time.Minute, time.Minute)

	_, err := c.Get(ctx, "doctor:d1")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)

	value := []byte(`{"id":"d1"}`)
	require.NoError(t, c.Set(ctx, "doctor:d1", value, time.Minute))
	value[0] = 'X'

	got, err := c.Get(ctx, "doctor:d1")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"d1"}`, string(got), "stored bytes are a copy")

	require.NoError(t, c.Delete(ctx, "doctor:d1"))
	_, err = c.Get(ctx, "doctor:d1")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)
}

func TestMemoryAdapter_Expiry(t *testing.T) {
	ctx := context.Background()
	c := cache.NewMemoryAdapter(time.Minute, time.Minute)

	require.NoError(t, c.Set(ctx, "doctor:d2", []byte("x"), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, err := c.Get(ctx, "doctor:d2")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)
}

func TestRedisAdapter_UnreachableServerIsNotAMiss(t *testing.T) {
	client := goredis.NewClient(&goredis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	c := cache.NewRedisAdapter(redisclient.Wrap(client), "doctorconnect:")

	_, err := c.Get(context.Background(), "doctor:d1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, providers.ErrCacheMiss)
	assert.Contains(t, err.Error(), "doctor:d1")
}

func newRedisAdapter(t *testing.T) (providers.CacheProvider, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewRedisAdapter(redisclient.Wrap(client), "doctorconnect:"), mr
}

func TestRedisAdapter_RoundTrip(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisAdapter(t)

	_, err := c.Get(ctx, "doctor:d1")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "doctor:d1", []byte(`{"id":"d1"}`), time.Minute))
	stored, err := mr.Get("doctorconnect:doctor:d1")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"d1"}`, stored, "keys are stored under the prefix")

	got, err := c.Get(ctx, "doctor:d1")
	require.NoError(t, err)
	assert.Equal(t, `{"id":"d1"}`, string(got))

	require.NoError(t, c.Delete(ctx, "doctor:d1"))
	assert.False(t, mr.Exists("doctorconnect:doctor:d1"))
	_, err = c.Get(ctx, "doctor:d1")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)
}

func TestRedisAdapter_Expiry(t *testing.T) {
	ctx := context.Background()
	c, mr := newRedisAdapter(t)

	require.NoError(t, c.Set(ctx, "doctor:d2", []byte("x"), time.Minute))
	assert.Equal(t, time.Minute, mr.TTL("doctorconnect:doctor:d2"))

	mr.FastForward(2 * time.Minute)
	_, err := c.Get(ctx, "doctor:d2")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)
}
