package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/featureflag/pkg/feature"
	"github.com/dmitrymomot/featureflag/pkg/feature/featuretest"
	"github.com/dmitrymomot/featureflag/pkg/redis"
)

func newClient(t *testing.T) (*goredis.Client, *miniredis.Miniredis) {
	t.Helper()
	srv := miniredis.RunT(t)
	client, err := redis.Connect(context.Background(), redis.Config{
		ConnectionURL:  "redis://" + srv.Addr() + "/0",
		RetryAttempts:  1,
		ConnectTimeout: time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client, srv
}

func TestLookup(t *testing.T) {
	t.Parallel()

	featuretest.RunLookupSuite(t, func(t *testing.T) feature.Lookup {
		client, _ := newClient(t)
		lookup, err := redis.NewLookup(client, "test:")
		require.NoError(t, err)
		return lookup
	})
}

func TestLookup_Storage(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("key layout and encoding", func(t *testing.T) {
		t.Parallel()
		client, srv := newClient(t)
		lookup, err := redis.NewLookup(client, "app:")
		require.NoError(t, err)

		ok, err := lookup.SetPercentage(ctx, "checkout", 0.25)
		require.NoError(t, err)
		assert.True(t, ok)

		raw, err := srv.Get("app:feature_flag/checkout")
		require.NoError(t, err)
		assert.Equal(t, "0.25", raw)
	})

	t.Run("values written by other tools", func(t *testing.T) {
		t.Parallel()
		client, srv := newClient(t)
		lookup, err := redis.NewLookup(client, "")
		require.NoError(t, err)

		require.NoError(t, srv.Set("feature_flag/checkout", "1"))
		p, found, err := lookup.LookupPercentage(ctx, "checkout")
		require.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, 1.0, p)
	})

	t.Run("corrupt value", func(t *testing.T) {
		t.Parallel()
		client, srv := newClient(t)
		lookup, err := redis.NewLookup(client, "")
		require.NoError(t, err)

		require.NoError(t, srv.Set("feature_flag/checkout", "half"))
		_, _, err = lookup.LookupPercentage(ctx, "checkout")
		assert.ErrorIs(t, err, feature.ErrInvalidRecord)
	})

	t.Run("server down", func(t *testing.T) {
		t.Parallel()
		client, srv := newClient(t)
		lookup, err := redis.NewLookup(client, "")
		require.NoError(t, err)
		srv.Close()

		_, _, err = lookup.LookupPercentage(ctx, "checkout")
		assert.ErrorIs(t, err, feature.ErrBackendUnavailable)
		_, err = lookup.SetPercentage(ctx, "checkout", 0.5)
		assert.ErrorIs(t, err, feature.ErrBackendUnavailable)
		assert.ErrorIs(t, lookup.DeletePercentage(ctx, "checkout"), feature.ErrBackendUnavailable)
		assert.ErrorIs(t, redis.Healthcheck(client)(ctx), redis.ErrHealthcheckFailed)
	})

	t.Run("nil client", func(t *testing.T) {
		t.Parallel()
		_, err := redis.NewLookup(nil, "")
		assert.ErrorIs(t, err, feature.ErrMissingConfiguration)
	})
}

func TestConnect(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("healthy server", func(t *testing.T) {
		t.Parallel()
		client, _ := newClient(t)
		assert.NoError(t, redis.Healthcheck(client)(ctx))
	})

	t.Run("empty url", func(t *testing.T) {
		t.Parallel()
		_, err := redis.Connect(ctx, redis.Config{})
		assert.ErrorIs(t, err, redis.ErrEmptyConnectionURL)
	})

	t.Run("invalid url", func(t *testing.T) {
		t.Parallel()
		_, err := redis.Connect(ctx, redis.Config{ConnectionURL: "http://localhost"})
		assert.ErrorIs(t, err, redis.ErrInvalidConnectionURL)
	})

	t.Run("unreachable server", func(t *testing.T) {
		t.Parallel()
		srv := miniredis.RunT(t)
		addr := srv.Addr()
		srv.Close()

		_, err := redis.Connect(ctx, redis.Config{
			ConnectionURL:  "redis://" + addr,
			RetryAttempts:  2,
			RetryInterval:  10 * time.Millisecond,
			ConnectTimeout: time.Second,
		})
		assert.ErrorIs(t, err, redis.ErrRedisNotReady)
	})
}
