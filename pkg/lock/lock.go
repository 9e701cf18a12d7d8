package lock

import (
	"context"
	"errors"
	"os"
	"time"

	"greencycle/pkg/logger"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// ErrNotObtained is returned when another holder owns the key
var ErrNotObtained = errors.New("lock is held by another process")

// Locker hands out short-lived advisory locks keyed by name
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

type redisLocker struct {
	client *redislock.Client
}

// NewRedisLocker wraps an existing redis client
func NewRedisLocker(rdb *redis.Client) Locker {
	return &redisLocker{client: redislock.New(rdb)}
}

func (l *redisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	lk, err := l.client.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrNotObtained
	}
	if err != nil {
		return nil, err
	}
	return func() {
		// Release with a fresh context, the request one may already be done.
		if err := lk.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			logger.LogError("lock", "Release", key, nil, err)
		}
	}, nil
}

type noopLocker struct{}

// NewNoopLocker always grants the lock. Used when Redis is not configured.
func NewNoopLocker() Locker {
	return noopLocker{}
}

func (noopLocker) Obtain(context.Context, string, time.Duration) (func(), error) {
	return func() {}, nil
}

// Connect builds a Locker from REDIS_ADDRESS. Without it, or when Redis does not
// answer, locking falls back to the no-op implementation.
func Connect(ctx context.Context) Locker {
	addr := os.Getenv("REDIS_ADDRESS")
	if addr == "" {
		logger.Get().Warn("REDIS_ADDRESS not set, recalculation locks are process-local no-ops")
		return NewNoopLocker()
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
		PoolSize: 10,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.LogError("lock", "Connect", addr, nil, err)
		_ = rdb.Close()
		return NewNoopLocker()
	}

	logger.Get().WithField("addr", addr).Info("connected to redis")
	return NewRedisLocker(rdb)
}
