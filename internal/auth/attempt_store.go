package auth

import (
	"context"
	"strconv"
	"time"

	"authsvc/internal/cache"
)

const failedLoginKeyPrefix = "login_failures:"

// AttemptStore counts failed logins per email inside a sliding TTL window.
type AttemptStore interface {
	Failures(ctx context.Context, email string) int64
	RecordFailure(ctx context.Context, email string, window time.Duration) int64
	Reset(ctx context.Context, email string)
}

// RedisAttemptStore keeps counters in Redis. Redis outages read as zero
// failures, so throttling fails open.
type RedisAttemptStore struct {
	cache *cache.Client
}

// Ensure RedisAttemptStore implements AttemptStore
var _ AttemptStore = (*RedisAttemptStore)(nil)

// NewAttemptStore creates a Redis-backed attempt store.
func NewAttemptStore(cache *cache.Client) *RedisAttemptStore {
	return &RedisAttemptStore{cache: cache}
}

func (s *RedisAttemptStore) Failures(ctx context.Context, email string) int64 {
	data, _ := s.cache.Get(ctx, failedLoginKeyPrefix+email)
	if data == nil {
		return 0
	}
	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func (s *RedisAttemptStore) RecordFailure(ctx context.Context, email string, window time.Duration) int64 {
	return s.cache.Incr(ctx, failedLoginKeyPrefix+email, window)
}

func (s *RedisAttemptStore) Reset(ctx context.Context, email string) {
	_ = s.cache.Delete(ctx, failedLoginKeyPrefix+email)
}

// Throttle decides whether another login attempt is allowed for an email.
type Throttle struct {
	store       AttemptStore
	maxAttempts int64
	window      time.Duration
}

// NewThrottle creates a Throttle. maxAttempts <= 0 disables throttling.
func NewThrottle(store AttemptStore, maxAttempts int, window time.Duration) *Throttle {
	return &Throttle{store: store, maxAttempts: int64(maxAttempts), window: window}
}

// Allowed reports whether email is below the failure limit.
func (t *Throttle) Allowed(ctx context.Context, email string) bool {
	if t == nil || t.maxAttempts <= 0 {
		return true
	}
	return t.store.Failures(ctx, email) < t.maxAttempts
}

// Failed records a failed attempt.
func (t *Throttle) Failed(ctx context.Context, email string) {
	if t == nil || t.maxAttempts <= 0 {
		return
	}
	t.store.RecordFailure(ctx, email, t.window)
}

// Succeeded clears the failure count.
func (t *Throttle) Succeeded(ctx context.Context, email string) {
	if t == nil || t.maxAttempts <= 0 {
		return
	}
	t.store.Reset(ctx, email)
}
