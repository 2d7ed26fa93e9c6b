package lock

import (
	"context"
	"sync"
	"time"
)

var _ Locker = (*LocalLock)(nil)

// LocalLock is an in-process Locker for single-node deployments.
type LocalLock struct {
	mu    sync.Mutex
	held  map[string]time.Time
	nowFn func() time.Time
}

func NewLocalLock() *LocalLock {
	return &LocalLock{held: make(map[string]time.Time), nowFn: time.Now}
}

func (l *LocalLock) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.nowFn()
	if exp, ok := l.held[name]; ok && now.Before(exp) {
		return false, nil
	}
	l.held[name] = now.Add(ttl)
	return true, nil
}

func (l *LocalLock) Release(_ context.Context, name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, name)
	return nil
}
