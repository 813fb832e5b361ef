package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
)

const maxJitterMinutes = 5

// NewRedisCache returns a cache whose keys are namespaced by prefix.
// Every entry lives baseTTL plus up to four minutes of jitter.
func NewRedisCache[T any](client *redis.Client, prefix string, baseTTL time.Duration) *RedisCache[T] {
	return &RedisCache[T]{
		client:  client,
		prefix:  prefix,
		baseTTL: baseTTL,
	}
}

type RedisCache[T any] struct {
	client  *redis.Client
	prefix  string
	baseTTL time.Duration
}

func (r *RedisCache[T]) Get(ctx context.Context, key string) (*T, error) {
	data, err := r.client.Get(ctx, r.cacheKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, fmt.Errorf("unmarshal %s failed: %w", r.prefix, err)
	}

	return &value, nil
}

func (r *RedisCache[T]) Set(ctx context.Context, key string, value *T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s failed: %w", r.prefix, err)
	}

	jitter := time.Duration(rand.Intn(maxJitterMinutes)) * time.Minute
	if err := r.client.Set(ctx, r.cacheKey(key), data, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCache[T]) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.cacheKey(k)
	}
	if err := r.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func (r *RedisCache[T]) cacheKey(key string) string {
	return fmt.Sprintf("%s:%s", r.prefix, key)
}
