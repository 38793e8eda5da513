package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps screenshots in Redis so multiple service instances can
// serve a run's screenshot regardless of which one produced it. Entries
// expire after TTL; the report's screenshot id outliving the artifact is
// acceptable for an audit trail that is archived elsewhere.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore wraps an existing client. A zero ttl means no expiry.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Put(id string, data []byte) error {
	if id == "" {
		return ErrEmptyID
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ok, err := s.client.SetNX(ctx, s.key(id), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("redis put: %w", err)
	}
	if !ok {
		return errors.New("screenshot id already used")
	}
	return nil
}

func (s *RedisStore) Get(id string) ([]byte, error) {
	if id == "" {
		return nil, ErrEmptyID
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}
	return data, nil
}

func (s *RedisStore) key(id string) string {
	return "formfill:screenshot:" + id
}
