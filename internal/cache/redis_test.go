package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/and161185/village-mart/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T, ttl time.Duration) (*RedisCatalog, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCatalog(client, ttl), mr
}

func TestRedisCatalog_MissThenHit(t *testing.T) {
	c, _ := setupTestRedis(t, time.Minute)
	ctx := context.Background()

	_, err := c.Get(ctx)
	require.ErrorIs(t, err, ErrCacheMiss)

	in := []model.Product{
		{ID: 1, Name: "Fresh Milk", Price: decimal.RequireFromString("30.00"), ImageURL: "/milk.png"},
		{ID: 4, Name: "Rice (1kg)", Price: decimal.RequireFromString("60.50")},
	}
	require.NoError(t, c.Set(ctx, in))

	got, err := c.Get(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Fresh Milk", got[0].Name)
	assert.True(t, got[1].Price.Equal(in[1].Price))
}

func TestRedisCatalog_TTLWithJitter(t *testing.T) {
	c, mr := setupTestRedis(t, 10*time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, []model.Product{{ID: 1, Name: "x"}}))
	ttl := mr.TTL(catalogKey)
	assert.GreaterOrEqual(t, ttl, 10*time.Minute)
	assert.Less(t, ttl, 12*time.Minute)

	mr.FastForward(13 * time.Minute)
	_, err := c.Get(ctx)
	require.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCatalog_Invalidate(t *testing.T) {
	c, mr := setupTestRedis(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, []model.Product{{ID: 1, Name: "x"}}))
	require.True(t, mr.Exists(catalogKey))
	require.NoError(t, c.Invalidate(ctx))
	require.False(t, mr.Exists(catalogKey))
}

func TestRedisCatalog_CorruptValue(t *testing.T) {
	c, mr := setupTestRedis(t, time.Minute)
	require.NoError(t, mr.Set(catalogKey, "{not json"))

	_, err := c.Get(context.Background())
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrCacheMiss)
}

func TestRedisCatalog_ServerDown(t *testing.T) {
	c, mr := setupTestRedis(t, time.Minute)
	mr.Close()

	_, err := c.Get(context.Background())
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrCacheMiss)
}
