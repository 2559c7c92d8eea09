package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type standing struct {
	UserID string `json:"user_id"`
	Points int    `json:"points"`
}

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

func TestReadThrough_HitMissInvalidate(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	loads := 0
	load := func(context.Context) ([]standing, error) {
		loads++
		return []standing{{UserID: "a", Points: loads}}, nil
	}

	got, err := ReadThrough(ctx, store, "leaderboard:p1", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 1, got[0].Points)

	got, err = ReadThrough(ctx, store, "leaderboard:p1", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 1, got[0].Points, "second read is served from cache")
	assert.Equal(t, 1, loads)

	require.NoError(t, store.Delete(ctx, "leaderboard:p1"))

	got, err = ReadThrough(ctx, store, "leaderboard:p1", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 2, got[0].Points, "invalidation forces a reload")
}

func TestReadThrough_TTLExpiry(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	loads := 0
	load := func(context.Context) (int, error) { loads++; return loads, nil }

	_, err := ReadThrough(ctx, store, "k", 10*time.Second, load)
	require.NoError(t, err)

	mr.FastForward(11 * time.Second)

	got, err := ReadThrough(ctx, store, "k", 10*time.Second, load)
	require.NoError(t, err)
	assert.Equal(t, 2, got)
}

func TestReadThrough_LoaderError(t *testing.T) {
	store, _ := newTestStore(t)
	boom := errors.New("db down")

	_, err := ReadThrough(context.Background(), store, "k", time.Minute, func(context.Context) (int, error) {
		return 0, boom
	})
	assert.ErrorIs(t, err, boom)

	var v int
	ok, err := store.Get(context.Background(), "k", &v)
	require.NoError(t, err)
	assert.False(t, ok, "failed loads are not cached")
}

func TestReadThrough_RedisDownFallsBackToLoader(t *testing.T) {
	store, mr := newTestStore(t)
	mr.Close()

	got, err := ReadThrough(context.Background(), store, "k", time.Minute, func(context.Context) (string, error) {
		return "fresh", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "fresh", got)
}

func TestNoopStore(t *testing.T) {
	loads := 0
	for range 2 {
		_, err := ReadThrough(context.Background(), NoopStore{}, "k", time.Minute, func(context.Context) (int, error) {
			loads++
			return loads, nil
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, loads)
}

func TestReadThrough_DoesNotOverwriteNewerValue(t *testing.T) {
	store, mr := newTestStore(t)
	ctx := context.Background()

	// A writer rebuilds the key while this reader is still loading.
	got, err := ReadThrough(ctx, store, "leaderboard:p1", time.Minute, func(ctx context.Context) ([]standing, error) {
		require.NoError(t, store.Set(ctx, "leaderboard:p1", []standing{{UserID: "b", Points: 50}}, time.Minute))
		return []standing{{UserID: "a", Points: 10}}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "a", got[0].UserID, "the reader still gets what it loaded")

	var cached []standing
	ok, err := store.Get(ctx, "leaderboard:p1", &cached)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []standing{{UserID: "b", Points: 50}}, cached)
	assert.Greater(t, mr.TTL("leaderboard:p1"), time.Duration(0))
}

func TestRedisStore_Add(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	added, err := store.Add(ctx, "k", 1, time.Minute)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = store.Add(ctx, "k", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, added, "existing key is kept")

	var got int
	_, err = store.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.Equal(t, 1, got)
}
