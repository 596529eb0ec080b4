package locks

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotObtained is returned when the lock is already held elsewhere.
var ErrNotObtained = errors.New("lock not obtained")

type Lock interface {
	Release(ctx context.Context) error
}

// Locker provides mutual exclusion for scan runs. ProcessLocker covers a
// single instance; RedisLocker covers horizontally scaled deployments.
type Locker interface {
	Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}

type ProcessLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func NewProcessLocker() *ProcessLocker {
	return &ProcessLocker{held: make(map[string]bool)}
}

func (l *ProcessLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return nil, ErrNotObtained
	}
	l.held[key] = true
	return &processLock{locker: l, key: key}, nil
}

type processLock struct {
	locker *ProcessLocker
	key    string
	once   sync.Once
}

func (p *processLock) Release(ctx context.Context) error {
	p.once.Do(func() {
		p.locker.mu.Lock()
		delete(p.locker.held, p.key)
		p.locker.mu.Unlock()
	})
	return nil
}
