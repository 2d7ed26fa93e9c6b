// Package lock provides named, TTL-bounded mutual exclusion used around
// catalog check-and-write.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotAcquired is returned by WithLock when the lock stays held by someone
// else until the context ends.
var ErrNotAcquired = errors.New("lock not acquired")

// Locker acquires and releases named locks. Acquire returns false when the
// lock is held by another owner. Release is safe on a lock that expired or
// was never held.
type Locker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, name string) error
}

const pollInterval = 50 * time.Millisecond

// WithLock runs fn while holding name, polling until the lock is free or ctx
// is done.
func WithLock(ctx context.Context, l Locker, name string, ttl time.Duration, fn func(ctx context.Context) error) error {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		acquired, err := l.Acquire(ctx, name, ttl)
		if err != nil {
			return err
		}
		if acquired {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w: %w", name, ErrNotAcquired, ctx.Err())
		case <-ticker.C:
		}
	}

	// Release with a fresh context so a cancelled caller does not leave the
	// lock behind until the TTL.
	defer l.Release(context.WithoutCancel(ctx), name)
	return fn(ctx)
}
