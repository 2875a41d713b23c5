package lock

import (
	"context"
	"errors"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/go-redsync/redsync/v4/redis/goredis/v9"
	"github.com/redis/go-redis/v9"
)

const retryDelay = 100 * time.Millisecond

// RedisLocker is a Locker backed by redsync
type RedisLocker struct {
	rs *redsync.Redsync
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{
		rs: redsync.New(goredis.NewPool(client)),
	}
}

func (l *RedisLocker) Acquire(ctx context.Context, name string, opts Options) (Lock, error) {
	tries := 1
	if opts.Wait > 0 {
		tries = int(opts.Wait/retryDelay) + 1
	}
	mutex := l.rs.NewMutex(name,
		redsync.WithExpiry(opts.TTL),
		redsync.WithTries(tries),
		redsync.WithRetryDelay(retryDelay),
	)
	if err := mutex.LockContext(ctx); err != nil {
		var taken *redsync.ErrTaken
		if errors.Is(err, redsync.ErrFailed) || errors.As(err, &taken) {
			return nil, ErrNotAcquired
		}
		return nil, err
	}
	return &redisLock{mutex: mutex}, nil
}

type redisLock struct {
	mutex *redsync.Mutex
}

func (l *redisLock) Extend(ctx context.Context) error {
	ok, err := l.mutex.ExtendContext(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotAcquired
	}
	return nil
}

func (l *redisLock) Unlock(ctx context.Context) error {
	_, err := l.mutex.UnlockContext(ctx)
	return err
}
