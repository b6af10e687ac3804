// Copyright 2025 DreamTrip
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cache provides the result cache: a disposable, TTL-bounded
// projection of the plan store's aggregates. A miss (or any cache failure)
// is never an error for callers; the read path falls back to the store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-redis/redis/v8"

	"dreamtrip/platform/shared/types"
)

// ErrMiss is returned when no cached aggregate exists for the plan id
var ErrMiss = errors.New("cache miss")

// ResultCache is the fast read path for finalized plan aggregates
type ResultCache interface {
	// Put stores the aggregate under the plan id with a bounded TTL
	Put(ctx context.Context, planID int64, aggregate *types.TripAggregate, ttl time.Duration) error

	// Get returns the cached aggregate or ErrMiss
	Get(ctx context.Context, planID int64) (*types.TripAggregate, error)

	// Ping reports whether the cache backend is reachable
	Ping(ctx context.Context) error

	// Close releases the cache connection
	Close() error
}

// RedisCache implements ResultCache over Redis
type RedisCache struct {
	client *redis.Client
	logger *log.Logger
}

// NewRedisCache connects to Redis and verifies the connection
func NewRedisCache(ctx context.Context, redisURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.PoolSize = 100
	opts.MinIdleConns = 10

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	c := &RedisCache{
		client: client,
		logger: log.New(os.Stdout, "[CACHE] ", log.LstdFlags),
	}
	c.logger.Printf("Connected to Redis (pool_size=100)")
	return c, nil
}

// NewRedisCacheFromClient wraps an existing client (used by tests)
func NewRedisCacheFromClient(client *redis.Client) *RedisCache {
	return &RedisCache{
		client: client,
		logger: log.New(os.Stdout, "[CACHE] ", log.LstdFlags),
	}
}

// cacheKey builds the per-plan key
func cacheKey(planID int64) string {
	return fmt.Sprintf("trip_detail:%d", planID)
}

// Put stores the JSON-encoded aggregate with the given TTL
func (c *RedisCache) Put(ctx context.Context, planID int64, aggregate *types.TripAggregate, ttl time.Duration) error {
	data, err := json.Marshal(aggregate)
	if err != nil {
		return fmt.Errorf("failed to marshal aggregate for plan %d: %w", planID, err)
	}

	if err := c.client.Set(ctx, cacheKey(planID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache plan %d: %w", planID, err)
	}
	return nil
}

// Get returns the cached aggregate or ErrMiss
func (c *RedisCache) Get(ctx context.Context, planID int64) (*types.TripAggregate, error) {
	data, err := c.client.Get(ctx, cacheKey(planID)).Bytes()
	if err == redis.Nil {
		return nil, ErrMiss
	}
	if err != nil {
		// Treat backend failures as misses for callers that only distinguish
		// hit from not-hit, but keep the cause for logging.
		return nil, fmt.Errorf("cache read for plan %d: %w", planID, err)
	}

	var agg types.TripAggregate
	if err := json.Unmarshal(data, &agg); err != nil {
		// A corrupt entry is as good as a miss
		c.logger.Printf("Dropping corrupt cache entry for plan %d: %v", planID, err)
		return nil, ErrMiss
	}
	return &agg, nil
}

// Ping reports whether Redis is reachable
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
