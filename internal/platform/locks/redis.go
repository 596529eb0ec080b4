package locks

import (
	"context"
	"errors"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// RedisLocker backs the scan guard with a Redis lock so that two
// horizontally scaled instances cannot run overlapping scans.
type RedisLocker struct {
	client *redislock.Client
}

func NewRedisLocker(redisURL string) (*RedisLocker, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	return &RedisLocker{client: redislock.New(rdb)}, nil
}

func (l *RedisLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error) {
	lock, err := l.client.Obtain(ctx, key, ttl, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, ErrNotObtained
	}
	if err != nil {
		return nil, err
	}
	return redisLock{lock: lock}, nil
}

type redisLock struct {
	lock *redislock.Lock
}

func (r redisLock) Release(ctx context.Context) error {
	return r.lock.Release(ctx)
}
