package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestRedisLock_AcquireRelease(t *testing.T) {
	client, _ := setupTestRedis(t)
	ctx := context.Background()

	l1 := NewRedisLock(client)
	l2 := NewRedisLock(client)
	assert.NotEqual(t, l1.OwnerID(), l2.OwnerID())

	ok, err := l1.Acquire(ctx, "catalog", 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = l2.Acquire(ctx, "catalog", 10*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	// A non-owner release is a no-op.
	require.NoError(t, l2.Release(ctx, "catalog"))
	ok, _ = l2.Acquire(ctx, "catalog", 10*time.Second)
	assert.False(t, ok)

	require.NoError(t, l1.Release(ctx, "catalog"))
	ok, err = l2.Acquire(ctx, "catalog", 10*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLock_Expires(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()

	l1 := NewRedisLock(client)
	l2 := NewRedisLock(client)

	ok, _ := l1.Acquire(ctx, "catalog", time.Second)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	ok, err := l2.Acquire(ctx, "catalog", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLock_Extend(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()

	l1 := NewRedisLock(client)
	l2 := NewRedisLock(client)

	ok, _ := l1.Acquire(ctx, "catalog", time.Second)
	require.True(t, ok)

	require.NoError(t, l1.Extend(ctx, "catalog", time.Minute))
	assert.Error(t, l2.Extend(ctx, "catalog", time.Minute))

	mr.FastForward(2 * time.Second)
	assert.True(t, mr.Exists(keyPrefix+"catalog"))
}

func TestLocalLock_TTL(t *testing.T) {
	l := NewLocalLock()
	now := time.Unix(0, 0)
	l.nowFn = func() time.Time { return now }
	ctx := context.Background()

	ok, _ := l.Acquire(ctx, "catalog", time.Second)
	assert.True(t, ok)
	ok, _ = l.Acquire(ctx, "catalog", time.Second)
	assert.False(t, ok)

	now = now.Add(2 * time.Second)
	ok, _ = l.Acquire(ctx, "catalog", time.Second)
	assert.True(t, ok)

	require.NoError(t, l.Release(ctx, "catalog"))
	ok, _ = l.Acquire(ctx, "catalog", time.Second)
	assert.True(t, ok)
}

func TestWithLock_Serializes(t *testing.T) {
	l := NewLocalLock()
	ctx := context.Background()

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := WithLock(ctx, l, "catalog", time.Minute, func(context.Context) error {
				n := atomic.AddInt32(&inside, 1)
				for {
					m := atomic.LoadInt32(&maxInside)
					if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&inside, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 1, maxInside)
}

func TestWithLock_GivesUpWhenContextEnds(t *testing.T) {
	l := NewLocalLock()
	ok, _ := l.Acquire(context.Background(), "catalog", time.Minute)
	require.True(t, ok)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()

	called := false
	err := WithLock(ctx, l, "catalog", time.Minute, func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrNotAcquired)
	assert.False(t, called)
}

func TestWithLock_ReleasesOnError(t *testing.T) {
	l := NewLocalLock()
	ctx := context.Background()
	boom := errors.New("boom")

	err := WithLock(ctx, l, "catalog", time.Minute, func(context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)

	ok, _ := l.Acquire(ctx, "catalog", time.Minute)
	assert.True(t, ok)
}
