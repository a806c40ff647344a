package domain

import (
	"context"
	"time"
)

// QuizVersionRepository defines the interface for quiz version persistence.
// Lookups return (nil, nil) when nothing matches.
type QuizVersionRepository interface {
	// SaveVersion persists a new version and its questions, assigning ID and timestamps.
	SaveVersion(ctx context.Context, version *QuizVersion) error

	// GetVersionByID loads a version with all of its questions, hidden or not.
	GetVersionByID(ctx context.Context, id string) (*QuizVersion, error)

	// GetLiveVersion loads the newest Live version for a topic key with its visible questions.
	GetLiveVersion(ctx context.Context, topicKey string) (*QuizVersion, error)

	// ListVersionsByStatus returns version metadata without questions.
	// An empty topicKey matches every topic.
	ListVersionsByStatus(ctx context.Context, topicKey string, status VersionStatus) ([]*QuizVersion, error)

	// MarkLive sets the version Live, clears its retirement stamp and unhides its questions.
	MarkLive(ctx context.Context, id string, at time.Time) error

	// RetireVersion retires a single version and hides its questions.
	RetireVersion(ctx context.Context, id string, at time.Time) error

	// LockTopic row-locks the versions of topicKey until the surrounding transaction ends.
	// It serializes lifecycle changes even if the distributed topic lock lapsed.
	LockTopic(ctx context.Context, topicKey string) error

	// RetireOthers retires every Live version under topicKey except keepID.
	RetireOthers(ctx context.Context, topicKey string, keepID string, at time.Time) (int64, error)

	// Ping checks the health of the store.
	Ping(ctx context.Context) error
}

// TransactionManager runs fn inside a single storage transaction.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// TopicLocker provides per-topic-key mutual exclusion for promotions.
type TopicLocker interface {
	// TryLock acquires the lock for topicKey without waiting. It returns ErrTopicLocked when
	// the lock is held elsewhere. The returned func releases the lock.
	TryLock(ctx context.Context, topicKey string) (unlock func(context.Context) error, err error)
}
