package store

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T, ttl time.Duration) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, ttl)
}

func TestRedisStoreRoundTrip(t *testing.T) {
	s := newRedisStore(t, 0)

	require.NoError(t, s.Put("run-1", []byte("png")))

	data, err := s.Get("run-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("png"), data)
}

func TestRedisStoreNotFound(t *testing.T) {
	s := newRedisStore(t, 0)

	_, err := s.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRedisStoreRejectsReuse(t *testing.T) {
	s := newRedisStore(t, 0)
	require.NoError(t, s.Put("run-1", []byte("a")))

	assert.Error(t, s.Put("run-1", []byte("b")))

	data, err := s.Get("run-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), data)
}

func TestRedisStoreRejectsEmptyID(t *testing.T) {
	s := newRedisStore(t, 0)
	assert.ErrorIs(t, s.Put("", []byte("a")), ErrEmptyID)
	_, err := s.Get("")
	assert.ErrorIs(t, err, ErrEmptyID)
}
