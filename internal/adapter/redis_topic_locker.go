package adapter

import (
	"context"
	"fmt"
	"time"

	"quiz-forge/internal/cache"
	"quiz-forge/internal/domain"
	"quiz-forge/internal/logger"
	"quiz-forge/internal/util"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Deletes the lock only while it still holds our token.
const releaseLockScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`

// Pushes the lease out by ARGV[2] ms only while it still holds our token.
const extendLockScript = `if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`

// RedisTopicLocker implements domain.TopicLocker with SET NX PX leases so promotions are
// serialized across API instances. While a lock is held its lease is extended every
// refreshEvery, so a slow transaction does not outlive it.
type RedisTopicLocker struct {
	client       redis.Cmdable
	ttl          time.Duration
	refreshEvery time.Duration // zero disables renewal
	newToken     func() string
}

func NewRedisTopicLocker(client redis.Cmdable, ttl time.Duration) domain.TopicLocker {
	return &RedisTopicLocker{client: client, ttl: ttl, refreshEvery: ttl / 3, newToken: util.NewULID}
}

func (l *RedisTopicLocker) TryLock(ctx context.Context, topicKey string) (func(context.Context) error, error) {
	key := cache.TopicLockKey(topicKey)
	token := l.newToken()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis setnx %s: %w", key, err)
	}
	if !ok {
		return nil, domain.ErrTopicLocked
	}

	stop := l.keepAlive(context.WithoutCancel(ctx), key, token)

	return func(ctx context.Context) error {
		stop()
		if err := l.client.Eval(ctx, releaseLockScript, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("redis release %s: %w", key, err)
		}
		return nil
	}, nil
}

// keepAlive renews the lease until the returned func is called or the lease is lost.
func (l *RedisTopicLocker) keepAlive(ctx context.Context, key, token string) (stop func()) {
	if l.refreshEvery <= 0 {
		return func() {}
	}
	quit := make(chan struct{})
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(l.refreshEvery)
		defer ticker.Stop()
		for {
			select {
			case <-quit:
				return
			case <-ticker.C:
				extended, err := l.client.Eval(ctx, extendLockScript, []string{key}, token, l.ttl.Milliseconds()).Int64()
				if err != nil || extended == 0 {
					logger.Get().Warn("Topic lock lease lost", zap.String("lock_key", key), zap.Error(err))
					return
				}
			}
		}
	}()

	return func() {
		close(quit)
		<-done
	}
}
