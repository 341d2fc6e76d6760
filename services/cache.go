package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"car-price-api/config"
	"car-price-api/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "predict:"

// CacheService memoizes point predictions by feature row. A CacheService
// with a nil client is valid and caches nothing.
type CacheService struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCacheService connects to Redis when cfg names a host. On failure it
// still returns a usable, disabled CacheService alongside the error.
func NewCacheService(cfg config.RedisConfig) (*CacheService, error) {
	ttl := time.Duration(cfg.TTLSec) * time.Second
	if !cfg.Enabled() {
		return &CacheService{ttl: ttl}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	var lastErr error
	for i := 0; i < 3; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		lastErr = client.Ping(ctx).Err()
		cancel()
		if lastErr == nil {
			return &CacheService{client: client, ttl: ttl}, nil
		}
		logger.Log.Warn("redis ping failed", zap.Int("attempt", i+1), zap.Error(lastErr))
		time.Sleep(time.Second)
	}

	_ = client.Close()
	return &CacheService{ttl: ttl}, fmt.Errorf("redis ping failed after 3 attempts: %w", lastErr)
}

// NewCacheServiceWithClient wraps an existing client.
func NewCacheServiceWithClient(client *redis.Client, ttl time.Duration) *CacheService {
	return &CacheService{client: client, ttl: ttl}
}

func (s *CacheService) Available() bool {
	return s != nil && s.client != nil
}

// Key derives the cache key for row. Rows with equal columns and values
// share a key.
func (s *CacheService) Key(row FeatureRow) (string, error) {
	data, err := json.Marshal(struct {
		Columns []string `json:"c"`
		Values  []any    `json:"v"`
	}{row.Columns, row.Values})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return cacheKeyPrefix + hex.EncodeToString(sum[:]), nil
}

// Get returns the cached prediction for key. ok is false on a miss.
func (s *CacheService) Get(ctx context.Context, key string) (price float64, ok bool, err error) {
	if !s.Available() {
		return 0, false, nil
	}
	price, err = s.client.Get(ctx, key).Float64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return price, true, nil
}

func (s *CacheService) Set(ctx context.Context, key string, price float64) error {
	if !s.Available() {
		return nil
	}
	return s.client.Set(ctx, key, price, s.ttl).Err()
}

func (s *CacheService) Close() error {
	if !s.Available() {
		return nil
	}
	return s.client.Close()
}
