package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profilewatch/profile-ui-api/internal/testutil"
)

func TestRedisSessionCache_RoundTrip(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	defer client.Close()

	cache := NewRedisSessionCache(client)
	ctx := context.Background()

	_, err := cache.Get(ctx, "testsite")
	require.ErrorIs(t, err, ErrNoSession)

	stored := Session{Cookie: "session=tok-1", ExpiresAt: time.Now().Add(time.Hour)}
	require.NoError(t, cache.Set(ctx, "testsite", stored))

	got, err := cache.Get(ctx, "testsite")
	require.NoError(t, err)
	assert.Equal(t, "session=tok-1", got.Cookie)

	require.NoError(t, cache.Delete(ctx, "testsite"))
	_, err = cache.Get(ctx, "testsite")
	require.ErrorIs(t, err, ErrNoSession)
}

func TestRedisSessionCache_RejectsExpired(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	defer client.Close()

	cache := NewRedisSessionCache(client)
	ctx := context.Background()

	err := cache.Set(ctx, "testsite", Session{
		Cookie:    "session=tok-1",
		ExpiresAt: time.Now().Add(-time.Minute),
	})
	require.Error(t, err)

	require.Error(t, cache.Set(ctx, "", Session{Cookie: "x", ExpiresAt: time.Now().Add(time.Hour)}))
	require.Error(t, cache.Set(ctx, "testsite", Session{ExpiresAt: time.Now().Add(time.Hour)}))
}

func TestRedisSessionCache_TTLExpiry(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	defer client.Close()

	cache := NewRedisSessionCache(client)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "testsite", Session{
		Cookie:    "session=tok-1",
		ExpiresAt: time.Now().Add(time.Second),
	}))

	require.Eventually(t, func() bool {
		_, err := cache.Get(ctx, "testsite")
		return errors.Is(err, ErrNoSession)
	}, 5*time.Second, 100*time.Millisecond)
}
