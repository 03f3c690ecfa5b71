package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bsm/redislock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubObtainer struct {
	err  error
	keys []string
	ttls []time.Duration
}

func (s *stubObtainer) Obtain(_ context.Context, key string, ttl time.Duration, _ *redislock.Options) (*redislock.Lock, error) {
	s.keys = append(s.keys, key)
	s.ttls = append(s.ttls, ttl)
	return nil, s.err
}

func TestRedisLocker_NotObtained(t *testing.T) {
	stub := &stubObtainer{err: redislock.ErrNotObtained}
	l := &RedisLocker{client: stub}

	release, obtained, err := l.TryLock(context.Background(), "production:plans:b:2024-06-15", 15*time.Second)

	require.NoError(t, err)
	assert.False(t, obtained)
	assert.NotPanics(t, release)
	assert.Equal(t, []string{"production:plans:b:2024-06-15"}, stub.keys)
	assert.Equal(t, []time.Duration{15 * time.Second}, stub.ttls)
}

func TestRedisLocker_BackendError(t *testing.T) {
	l := &RedisLocker{client: &stubObtainer{err: errors.New("dial tcp: connection refused")}}

	release, obtained, err := l.TryLock(context.Background(), "k", time.Second)

	require.Error(t, err)
	assert.False(t, obtained)
	assert.NotPanics(t, release)
}

func TestRedisLocker_NilIsAlwaysObtained(t *testing.T) {
	var l *RedisLocker

	release, obtained, err := l.TryLock(context.Background(), "k", time.Second)

	require.NoError(t, err)
	assert.True(t, obtained)
	assert.NotPanics(t, release)
}
