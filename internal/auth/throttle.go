package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// AttemptStore is the slice of redis commands the throttle relies on.
type AttemptStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// LoginThrottle tracks failed login attempts per client IP in Redis and
// blocks further attempts once the limit is reached inside the window.
// Redis outages fail open: a throttle that cannot be consulted must not
// lock every user out.
type LoginThrottle struct {
	client AttemptStore
	logger *zap.Logger
	max    int
	window time.Duration
}

// NewLoginThrottle constructs the throttle. A nil client disables it.
func NewLoginThrottle(client *redis.Client, logger *zap.Logger, maxAttempts int, window time.Duration) *LoginThrottle {
	var store AttemptStore
	if client != nil {
		store = client
	}
	return NewLoginThrottleWithStore(store, logger, maxAttempts, window)
}

// NewLoginThrottleWithStore constructs the throttle on a custom counter
// backend.
func NewLoginThrottleWithStore(store AttemptStore, logger *zap.Logger, maxAttempts int, window time.Duration) *LoginThrottle {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &LoginThrottle{client: store, logger: logger, max: maxAttempts, window: window}
}

func (t *LoginThrottle) key(ip string) string {
	return fmt.Sprintf("login:failed:%s", ip)
}

// IsBlocked reports whether the IP has exhausted its attempts.
func (t *LoginThrottle) IsBlocked(ctx context.Context, ip string) bool {
	if t == nil || t.client == nil {
		return false
	}
	count, err := t.client.Get(ctx, t.key(ip)).Int()
	if err != nil {
		if err != redis.Nil {
			t.logger.Warn("login throttle unavailable", zap.Error(err))
		}
		return false
	}
	return count >= t.max
}

// RecordFailure increments the failed-attempt counter and returns the count.
// The window starts at the first failure.
func (t *LoginThrottle) RecordFailure(ctx context.Context, ip string) int {
	if t == nil || t.client == nil {
		return 0
	}
	key := t.key(ip)
	count, err := t.client.Incr(ctx, key).Result()
	if err != nil {
		t.logger.Warn("login throttle unavailable", zap.Error(err))
		return 0
	}
	if count == 1 {
		if err := t.client.Expire(ctx, key, t.window).Err(); err != nil {
			t.logger.Warn("login throttle expire failed", zap.Error(err))
		}
	}
	return int(count)
}

// Reset clears the counter after a successful login.
func (t *LoginThrottle) Reset(ctx context.Context, ip string) {
	if t == nil || t.client == nil {
		return
	}
	if err := t.client.Del(ctx, t.key(ip)).Err(); err != nil {
		t.logger.Warn("login throttle reset failed", zap.Error(err))
	}
}
