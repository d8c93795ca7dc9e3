//go:build integration

package cart

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func TestRedisStore_RoundTripAndTTL(t *testing.T) {
	ctx := context.Background()
	rdC, err := tcRedis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)
	testcontainers.CleanupContainer(t, rdC)
	url, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)
	rdb := redis.NewClient(opts)
	defer rdb.Close()

	s := NewRedisStore(rdb, time.Hour)
	cashier := uuid.New()

	empty, err := s.Load(ctx, cashier)
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())

	c := &Cart{}
	c.Add(Line{ProductID: uuid.New(), Name: "Squash", UnitPrice: decimal.RequireFromString("12.75"), Quantity: 2})
	require.NoError(t, s.Save(ctx, cashier, c))

	ttl, err := rdb.TTL(ctx, "cart:"+cashier.String()).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Minute)

	loaded, err := s.Load(ctx, cashier)
	require.NoError(t, err)
	require.Len(t, loaded.Lines, 1)
	assert.True(t, decimal.RequireFromString("25.50").Equal(loaded.Total()))

	// saving an empty cart removes the key
	require.NoError(t, s.Save(ctx, cashier, &Cart{}))
	n, err := rdb.Exists(ctx, "cart:"+cashier.String()).Result()
	require.NoError(t, err)
	assert.Zero(t, n)
}
