package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps transport failures from the redis driver.
var ErrRedisUnavailable = errors.New("redis unavailable")

type redisStore struct {
	client redis.UniversalClient
	prefix string
	owned  bool
}

// NewRedis builds a store over client. Keys are namespaced as "<prefix>:<key>". When owned
// is true Close also closes the client.
func NewRedis(client redis.UniversalClient, prefix string, owned bool) Store {
	if prefix == "" {
		prefix = "gs"
	}
	return &redisStore{client: client, prefix: prefix, owned: owned}
}

func (s *redisStore) key(k string) string {
	return s.prefix + ":" + k
}

func (s *redisStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.client.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return v, nil
}

func (s *redisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, s.key(key), value, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (s *redisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.key(k)
	}
	if err := s.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (s *redisStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Close()
}
