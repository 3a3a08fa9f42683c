package lock

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/stockledger/backend/internal/domain/shared"
)

// RedisManager is a Manager backed by redislock, for deployments that
// run more than one engine instance against the same database.
type RedisManager struct {
	locker *redislock.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisManager creates a distributed lock manager. ttl bounds how
// long a crashed holder can keep a key locked.
func NewRedisManager(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisManager {
	return &RedisManager{
		locker: redislock.New(client),
		ttl:    ttl,
		logger: logger.Named("lock"),
	}
}

// Acquire takes the distributed lock for key, retrying with backoff
// until timeout.
func (m *RedisManager) Acquire(ctx context.Context, key string, timeout time.Duration) (Release, error) {
	deadline := time.Now().Add(timeout)
	backoff := redislock.LimitRetry(redislock.ExponentialBackoff(16*time.Millisecond, 256*time.Millisecond), 64)

	acquireCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	l, err := m.locker.Obtain(acquireCtx, "lock:"+key, m.ttl, &redislock.Options{RetryStrategy: backoff})
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) || errors.Is(err, context.DeadlineExceeded) {
			return nil, shared.NewDomainError("BUSY", "resource is locked by another operation: "+key)
		}
		return nil, err
	}

	return func() {
		if err := l.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			m.logger.Warn("failed to release lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}
