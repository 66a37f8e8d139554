// Package cache stores computed read models (tax summaries) keyed by string.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Store is a JSON value cache. Get reports false on a miss.
type Store interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	Delete(ctx context.Context, keys ...string) error
}

// TaxSummaryKey is the cache key of a year's tax summary.
func TaxSummaryKey(year int) string {
	return fmt.Sprintf("reviewledger:tax:summary:%d", year)
}

type redisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisStore caches values in Redis with a fixed TTL.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration) Store {
	return &redisStore{client: client, ttl: ttl}
}

// NewRedisClient builds a client for addr; callers check Ping before use.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     strings.TrimSpace(addr),
		Password: strings.TrimSpace(password),
		DB:       db,
	})
}

func (s *redisStore) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cache key %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("failed to decode cache key %s: %w", key, err)
	}
	return true, nil
}

func (s *redisStore) Set(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache key %s: %w", key, err)
	}
	return s.client.Set(ctx, key, raw, s.ttl).Err()
}

func (s *redisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

type noopStore struct{}

// NewNoopStore returns a Store that never hits. Used when Redis is not configured.
func NewNoopStore() Store {
	return noopStore{}
}

func (noopStore) Get(context.Context, string, interface{}) (bool, error) { return false, nil }
func (noopStore) Set(context.Context, string, interface{}) error         { return nil }
func (noopStore) Delete(context.Context, ...string) error                { return nil }
