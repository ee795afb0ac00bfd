package auth

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type memoryAttemptStore struct {
	counts  map[string]int64
	expired map[string]time.Duration
}

func newMemoryAttemptStore() *memoryAttemptStore {
	return &memoryAttemptStore{counts: make(map[string]int64), expired: make(map[string]time.Duration)}
}

func (s *memoryAttemptStore) Get(_ context.Context, key string) *redis.StringCmd {
	count, ok := s.counts[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(strconv.FormatInt(count, 10), nil)
}

func (s *memoryAttemptStore) Incr(_ context.Context, key string) *redis.IntCmd {
	s.counts[key]++
	return redis.NewIntResult(s.counts[key], nil)
}

func (s *memoryAttemptStore) Expire(_ context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	s.expired[key] = expiration
	return redis.NewBoolResult(true, nil)
}

func (s *memoryAttemptStore) Del(_ context.Context, keys ...string) *redis.IntCmd {
	var removed int64
	for _, key := range keys {
		if _, ok := s.counts[key]; ok {
			delete(s.counts, key)
			removed++
		}
	}
	return redis.NewIntResult(removed, nil)
}

func TestThrottleBlocksAfterLimit(t *testing.T) {
	store := newMemoryAttemptStore()
	throttle := NewLoginThrottleWithStore(store, zap.NewNop(), 3, time.Minute)
	ctx := context.Background()

	assert.False(t, throttle.IsBlocked(ctx, "10.0.0.1"))

	assert.Equal(t, 1, throttle.RecordFailure(ctx, "10.0.0.1"))
	assert.Equal(t, 2, throttle.RecordFailure(ctx, "10.0.0.1"))
	assert.False(t, throttle.IsBlocked(ctx, "10.0.0.1"))

	assert.Equal(t, 3, throttle.RecordFailure(ctx, "10.0.0.1"))
	assert.True(t, throttle.IsBlocked(ctx, "10.0.0.1"))

	// The window is armed on the first failure only.
	assert.Equal(t, time.Minute, store.expired["login:failed:10.0.0.1"])

	// Other IPs are counted independently.
	assert.False(t, throttle.IsBlocked(ctx, "10.0.0.2"))
}

func TestThrottleResetClearsCounter(t *testing.T) {
	store := newMemoryAttemptStore()
	throttle := NewLoginThrottleWithStore(store, zap.NewNop(), 2, time.Minute)
	ctx := context.Background()

	throttle.RecordFailure(ctx, "10.0.0.1")
	throttle.RecordFailure(ctx, "10.0.0.1")
	assert.True(t, throttle.IsBlocked(ctx, "10.0.0.1"))

	throttle.Reset(ctx, "10.0.0.1")
	assert.False(t, throttle.IsBlocked(ctx, "10.0.0.1"))
	assert.Equal(t, 1, throttle.RecordFailure(ctx, "10.0.0.1"))
}

func TestThrottleDisabledWithoutStore(t *testing.T) {
	throttle := NewLoginThrottle(nil, zap.NewNop(), 1, time.Minute)
	ctx := context.Background()

	assert.Equal(t, 0, throttle.RecordFailure(ctx, "10.0.0.1"))
	assert.False(t, throttle.IsBlocked(ctx, "10.0.0.1"))
}
