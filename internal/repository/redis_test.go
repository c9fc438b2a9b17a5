package repository

import (
	"context"
	"testing"
	"time"

	"shareit/internal/config"
	"shareit/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisStore(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := NewRedisClient(config.RedisConfig{Address: s.Addr()})
	defer client.Close()

	repo := NewRedisStore(client, time.Hour)
	ctx := context.Background()

	t.Run("SetAndGetUser", func(t *testing.T) {
		user := &models.User{ID: 123, Name: "Ann", Email: "ann@example.com"}
		require.NoError(t, repo.SetUser(ctx, user))

		got, err := repo.GetUser(ctx, 123)
		require.NoError(t, err)
		assert.Equal(t, user, got)
		assert.True(t, s.Exists("user:123"))
		assert.Equal(t, time.Hour, s.TTL("user:123"))
	})

	t.Run("GetMissingUser", func(t *testing.T) {
		got, err := repo.GetUser(ctx, 999)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("ExpiredUser", func(t *testing.T) {
		require.NoError(t, repo.SetUser(ctx, &models.User{ID: 7}))
		s.FastForward(time.Hour + time.Second)

		got, err := repo.GetUser(ctx, 7)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("DeleteUser", func(t *testing.T) {
		require.NoError(t, repo.SetUser(ctx, &models.User{ID: 456}))
		require.NoError(t, repo.DeleteUser(ctx, 456))

		got, err := repo.GetUser(ctx, 456)
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("CorruptSnapshot", func(t *testing.T) {
		require.NoError(t, s.Set("user:8", "{not json"))
		_, err := repo.GetUser(ctx, 8)
		assert.Error(t, err)
	})

	t.Run("RateLimit", func(t *testing.T) {
		key := "789"
		limit := 2
		window := time.Second

		allowed, err := repo.CheckRateLimit(ctx, key, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = repo.CheckRateLimit(ctx, key, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = repo.CheckRateLimit(ctx, key, limit, window)
		require.NoError(t, err)
		assert.False(t, allowed)

		s.FastForward(window + time.Millisecond)

		allowed, err = repo.CheckRateLimit(ctx, key, limit, window)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("NilClient", func(t *testing.T) {
		repo := NewRedisStore(nil, time.Hour)
		_, err := repo.GetUser(ctx, 123)
		assert.ErrorIs(t, err, errNilClient)
		_, err = repo.CheckRateLimit(ctx, "1", 1, time.Second)
		assert.ErrorIs(t, err, errNilClient)
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, Ping(ctx, client))
	})

	t.Run("ServerDown", func(t *testing.T) {
		s.SetError("ERR simulated failure")
		defer s.SetError("")
		_, err := repo.GetUser(ctx, 1)
		assert.Error(t, err)
	})

	t.Run("Close", func(t *testing.T) {
		assert.NoError(t, Close(client))
		assert.NoError(t, Close(nil))
	})
}
