package services

import (
	"context"
	"strconv"
	"strings"
	"testing"
	"time"

	"car-price-api/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestCache(t *testing.T) (*CacheService, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cache := NewCacheServiceWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)
	t.Cleanup(func() { _ = cache.Close() })
	return cache, mr
}

func TestNewCacheServiceDisabled(t *testing.T) {
	cache, err := NewCacheService(config.RedisConfig{TTLSec: 60})
	require.NoError(t, err)
	assert.False(t, cache.Available())

	ctx := context.Background()
	assert.NoError(t, cache.Set(ctx, "predict:abc", 42))

	price, ok, err := cache.Get(ctx, "predict:abc")
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, price)
	assert.NoError(t, cache.Close())
}

func TestCacheKey(t *testing.T) {
	cache := &CacheService{}
	row := FeatureRow{
		Columns: []string{"car_age", "gearbox"},
		Values:  []any{4.0, automatic},
	}

	key, err := cache.Key(row)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, cacheKeyPrefix))
	assert.Len(t, key, len(cacheKeyPrefix)+64)

	again, err := cache.Key(FeatureRow{
		Columns: []string{"car_age", "gearbox"},
		Values:  []any{4.0, automatic},
	})
	require.NoError(t, err)
	assert.Equal(t, key, again)

	other, err := cache.Key(FeatureRow{
		Columns: []string{"car_age", "gearbox"},
		Values:  []any{5.0, automatic},
	})
	require.NoError(t, err)
	assert.NotEqual(t, key, other)
}

func TestCacheGetSet(t *testing.T) {
	cache, mr := setupTestCache(t)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "predict:abc")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Set(ctx, "predict:abc", 850000000.5))
	price, ok, err := cache.Get(ctx, "predict:abc")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 850000000.5, price)
	assert.Equal(t, time.Minute, mr.TTL("predict:abc"))

	mr.FastForward(2 * time.Minute)
	_, ok, err = cache.Get(ctx, "predict:abc")
	require.NoError(t, err)
	assert.False(t, ok, "entry should expire after the ttl")
}

func TestNewCacheServiceConnects(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	port, err := strconv.Atoi(mr.Port())
	require.NoError(t, err)

	cache, err := NewCacheService(config.RedisConfig{
		Host:   mr.Host(),
		Port:   port,
		TTLSec: 60,
	})
	require.NoError(t, err)
	defer cache.Close()
	assert.True(t, cache.Available())
}

func TestPredictionServiceServesRepeatFromCache(t *testing.T) {
	cache, mr := setupTestCache(t)
	reg := &fakeRegressor{price: 1234567.8}
	svc := NewPredictionService(newTestDeriver(), reg, cache, "تومان")
	ctx := context.Background()
	hitsBefore := testutil.ToFloat64(cacheHits)

	first, err := svc.Predict(ctx, basePayload())
	require.NoError(t, err)
	second, err := svc.Predict(ctx, basePayload())
	require.NoError(t, err)

	assert.Equal(t, 1, reg.calls)
	assert.Equal(t, first, second)
	assert.Equal(t, hitsBefore+1, testutil.ToFloat64(cacheHits))
	assert.Len(t, mr.Keys(), 1)
}

func TestPredictionServiceIgnoresCacheOutage(t *testing.T) {
	cache, mr := setupTestCache(t)
	reg := &fakeRegressor{price: 10}
	svc := NewPredictionService(newTestDeriver(), reg, cache, "تومان")
	mr.Close()

	resp, err := svc.Predict(context.Background(), basePayload())
	require.NoError(t, err)
	assert.Equal(t, 10.0, resp.PredictedPrice)
	assert.Equal(t, 1, reg.calls)
}
