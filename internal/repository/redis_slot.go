package repository

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisSlot keeps each storage key as one string value under prefix:key.
type RedisSlot struct {
	client redis.UniversalClient
	prefix string
	owned  bool
}

// NewRedisSlot wraps a client the caller keeps ownership of; Close leaves it
// open.
func NewRedisSlot(client redis.UniversalClient, prefix string) *RedisSlot {
	if prefix == "" {
		prefix = "catalog"
	}
	return &RedisSlot{client: client, prefix: prefix}
}

func (s *RedisSlot) redisKey(key string) string {
	return s.prefix + ":" + key
}

func (s *RedisSlot) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := s.client.Get(ctx, s.redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (s *RedisSlot) Put(ctx context.Context, key string, value []byte) error {
	return s.client.Set(ctx, s.redisKey(key), value, 0).Err()
}

func (s *RedisSlot) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.redisKey(key)).Err()
}

func (s *RedisSlot) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisSlot) Backend() string { return "redis" }

func (s *RedisSlot) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}
