package adapter

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"quiz-forge/internal/cache"
	"quiz-forge/internal/domain"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisTopicLocker(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	locker := &RedisTopicLocker{client: db, ttl: 10 * time.Second, newToken: func() string { return "token-1" }}
	key := cache.TopicLockKey("biology")

	t.Run("Acquire and release", func(t *testing.T) {
		mock.ExpectSetNX(key, "token-1", 10*time.Second).SetVal(true)
		mock.ExpectEval(releaseLockScript, []string{key}, "token-1").SetVal(int64(1))

		unlock, err := locker.TryLock(ctx, "biology")
		require.NoError(t, err)
		require.NoError(t, unlock(ctx))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Held elsewhere", func(t *testing.T) {
		mock.ExpectSetNX(key, "token-1", 10*time.Second).SetVal(false)

		unlock, err := locker.TryLock(ctx, "biology")
		assert.ErrorIs(t, err, domain.ErrTopicLocked)
		assert.Nil(t, unlock)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Redis error", func(t *testing.T) {
		redisErr := errors.New("connection refused")
		mock.ExpectSetNX(key, "token-1", 10*time.Second).SetErr(redisErr)

		_, err := locker.TryLock(ctx, "biology")
		assert.ErrorIs(t, err, redisErr)
		assert.NotErrorIs(t, err, domain.ErrTopicLocked)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Release error surfaces", func(t *testing.T) {
		mock.ExpectSetNX(key, "token-1", 10*time.Second).SetVal(true)
		mock.ExpectEval(releaseLockScript, []string{key}, "token-1").SetErr(errors.New("timeout"))

		unlock, err := locker.TryLock(ctx, "biology")
		require.NoError(t, err)
		assert.Error(t, unlock(ctx))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRedisTopicLocker_ExtendsLeaseWhileHeld(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	locker := &RedisTopicLocker{
		client:       db,
		ttl:          10 * time.Second,
		refreshEvery: 10 * time.Millisecond,
		newToken:     func() string { return "token-2" },
	}
	key := cache.TopicLockKey("physics")

	mock.ExpectSetNX(key, "token-2", 10*time.Second).SetVal(true)
	mock.ExpectEval(extendLockScript, []string{key}, "token-2", int64(10000)).SetVal(int64(1))
	// A zero reply means the lease now belongs to someone else, which ends renewal.
	mock.ExpectEval(extendLockScript, []string{key}, "token-2", int64(10000)).SetVal(int64(0))

	unlock, err := locker.TryLock(ctx, "physics")
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return mock.ExpectationsWereMet() == nil
	}, time.Second, 5*time.Millisecond)

	mock.ExpectEval(releaseLockScript, []string{key}, "token-2").SetVal(int64(0))
	require.NoError(t, unlock(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewRedisTopicLocker_RefreshesAtAThirdOfTTL(t *testing.T) {
	db, _ := redismock.NewClientMock()
	locker := NewRedisTopicLocker(db, 9*time.Second).(*RedisTopicLocker)
	assert.Equal(t, 3*time.Second, locker.refreshEvery)
}

func TestLocalTopicLocker(t *testing.T) {
	ctx := context.Background()

	t.Run("Exclusive per topic", func(t *testing.T) {
		locker := NewLocalTopicLocker(time.Minute)

		unlock, err := locker.TryLock(ctx, "biology")
		require.NoError(t, err)

		_, err = locker.TryLock(ctx, "biology")
		assert.ErrorIs(t, err, domain.ErrTopicLocked)

		otherUnlock, err := locker.TryLock(ctx, "chemistry")
		require.NoError(t, err)
		require.NoError(t, otherUnlock(ctx))

		require.NoError(t, unlock(ctx))
		again, err := locker.TryLock(ctx, "biology")
		require.NoError(t, err)
		require.NoError(t, again(ctx))
	})

	t.Run("Expired lease can be taken over", func(t *testing.T) {
		locker := NewLocalTopicLocker(time.Second)
		current := time.Now()
		locker.now = func() time.Time { return current }

		staleUnlock, err := locker.TryLock(ctx, "history")
		require.NoError(t, err)

		current = current.Add(2 * time.Second)
		freshUnlock, err := locker.TryLock(ctx, "history")
		require.NoError(t, err)

		// The stale holder must not release the new lease.
		require.NoError(t, staleUnlock(ctx))
		_, err = locker.TryLock(ctx, "history")
		assert.ErrorIs(t, err, domain.ErrTopicLocked)

		require.NoError(t, freshUnlock(ctx))
	})

	t.Run("Concurrent holders", func(t *testing.T) {
		locker := NewLocalTopicLocker(time.Minute)
		var holders, peak atomic.Int32
		var wg sync.WaitGroup

		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					unlock, err := locker.TryLock(ctx, "race")
					if errors.Is(err, domain.ErrTopicLocked) {
						time.Sleep(time.Millisecond)
						continue
					}
					n := holders.Add(1)
					if n > peak.Load() {
						peak.Store(n)
					}
					time.Sleep(time.Millisecond)
					holders.Add(-1)
					_ = unlock(ctx)
					return
				}
			}()
		}
		wg.Wait()
		assert.Equal(t, int32(1), peak.Load())
	})
}
