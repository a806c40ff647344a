package adapter

import (
	"context"
	"sync"
	"time"

	"quiz-forge/internal/domain"
	"quiz-forge/internal/util"
)

type localLease struct {
	token   string
	expires time.Time
}

// LocalTopicLocker is the in-process TopicLocker used when Redis is not configured.
// Leases expire after ttl like their Redis counterparts.
type LocalTopicLocker struct {
	mu     sync.Mutex
	leases map[string]localLease
	ttl    time.Duration
	now    func() time.Time
}

func NewLocalTopicLocker(ttl time.Duration) *LocalTopicLocker {
	return &LocalTopicLocker{
		leases: make(map[string]localLease),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (l *LocalTopicLocker) TryLock(_ context.Context, topicKey string) (func(context.Context) error, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if lease, held := l.leases[topicKey]; held && now.Before(lease.expires) {
		return nil, domain.ErrTopicLocked
	}

	token := util.NewULID()
	l.leases[topicKey] = localLease{token: token, expires: now.Add(l.ttl)}

	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if lease, held := l.leases[topicKey]; held && lease.token == token {
			delete(l.leases, topicKey)
		}
		return nil
	}, nil
}
