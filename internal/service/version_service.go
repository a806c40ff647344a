package service

import (
	"context"
	"errors"
	"time"

	"quiz-forge/internal/config"
	"quiz-forge/internal/domain"

	"go.uber.org/zap"
)

const (
	maxLockBackoff = 2 * time.Second
	unlockTimeout  = 3 * time.Second
)

// VersionService manages which generation of a topic is Live.
type VersionService interface {
	// PromoteNew persists v as Live and retires every other Live version of its topic key.
	PromoteNew(ctx context.Context, v *domain.QuizVersion) (*domain.QuizVersion, error)
	// Promote makes an existing version the only Live one for its topic key.
	Promote(ctx context.Context, id string) (*domain.QuizVersion, error)
	// Restore makes a retired version Live again without touching other versions.
	Restore(ctx context.Context, id string) (*domain.QuizVersion, error)
	// Retire hides a version. Retiring a retired version is a no-op.
	Retire(ctx context.Context, id string) (*domain.QuizVersion, error)
	ListRetired(ctx context.Context, topicKey string) ([]*domain.QuizVersion, error)
}

type versionService struct {
	repo      domain.QuizVersionRepository
	txManager domain.TransactionManager
	locker    domain.TopicLocker
	cfg       config.LifecycleConfig
	logger    *zap.Logger
	now       func() time.Time
}

// NewVersionService creates a new instance of versionService.
func NewVersionService(
	repo domain.QuizVersionRepository,
	txManager domain.TransactionManager,
	locker domain.TopicLocker,
	cfg config.LifecycleConfig,
	logger *zap.Logger,
) VersionService {
	cfg.Normalize()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &versionService{
		repo:      repo,
		txManager: txManager,
		locker:    locker,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *versionService) PromoteNew(ctx context.Context, v *domain.QuizVersion) (*domain.QuizVersion, error) {
	if v == nil {
		return nil, domain.NewInvalidRequestError("quiz version is required")
	}
	if err := v.Validate(); err != nil {
		return nil, err
	}

	err := s.withTopicLock(ctx, v.TopicKey, func() error {
		return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			if err := s.repo.LockTopic(txCtx, v.TopicKey); err != nil {
				return domain.NewInternalError("Failed to lock topic versions", err)
			}
			now := s.now()
			v.Status = domain.StatusLive
			v.RetiredAt = nil
			v.CreatedAt, v.UpdatedAt = now, now
			if err := s.repo.SaveVersion(txCtx, v); err != nil {
				return domain.NewInternalError("Failed to save quiz version", err)
			}
			retired, err := s.repo.RetireOthers(txCtx, v.TopicKey, v.ID, now)
			if err != nil {
				return domain.NewInternalError("Failed to retire previous versions", err)
			}
			s.logger.Info("Promoted new quiz version",
				zap.String("version_id", v.ID),
				zap.String("topic_key", v.TopicKey),
				zap.Int64("retired", retired),
			)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (s *versionService) Promote(ctx context.Context, id string) (*domain.QuizVersion, error) {
	v, err := s.getVersion(ctx, id)
	if err != nil {
		return nil, err
	}

	err = s.withTopicLock(ctx, v.TopicKey, func() error {
		return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			if err := s.repo.LockTopic(txCtx, v.TopicKey); err != nil {
				return domain.NewInternalError("Failed to lock topic versions", err)
			}
			now := s.now()
			if err := s.repo.MarkLive(txCtx, id, now); err != nil {
				return domain.NewInternalError("Failed to mark quiz version live", err)
			}
			retired, err := s.repo.RetireOthers(txCtx, v.TopicKey, id, now)
			if err != nil {
				return domain.NewInternalError("Failed to retire previous versions", err)
			}
			markLive(v, now)
			s.logger.Info("Promoted quiz version",
				zap.String("version_id", id),
				zap.String("topic_key", v.TopicKey),
				zap.Int64("retired", retired),
			)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (s *versionService) Restore(ctx context.Context, id string) (*domain.QuizVersion, error) {
	v, err := s.getVersion(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.IsLive() {
		return v, nil
	}

	err = s.withTopicLock(ctx, v.TopicKey, func() error {
		now := s.now()
		return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			if err := s.repo.LockTopic(txCtx, v.TopicKey); err != nil {
				return domain.NewInternalError("Failed to lock topic versions", err)
			}
			if err := s.repo.MarkLive(txCtx, id, now); err != nil {
				return domain.NewInternalError("Failed to restore quiz version", err)
			}
			markLive(v, now)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Restored quiz version", zap.String("version_id", id), zap.String("topic_key", v.TopicKey))
	return v, nil
}

func (s *versionService) Retire(ctx context.Context, id string) (*domain.QuizVersion, error) {
	v, err := s.getVersion(ctx, id)
	if err != nil {
		return nil, err
	}
	if !v.IsLive() {
		return v, nil
	}

	err = s.withTopicLock(ctx, v.TopicKey, func() error {
		now := s.now()
		return s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
			if err := s.repo.LockTopic(txCtx, v.TopicKey); err != nil {
				return domain.NewInternalError("Failed to lock topic versions", err)
			}
			if err := s.repo.RetireVersion(txCtx, id, now); err != nil {
				return domain.NewInternalError("Failed to retire quiz version", err)
			}
			v.Status = domain.StatusRetired
			v.UpdatedAt = now
			v.RetiredAt = &now
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Retired quiz version", zap.String("version_id", id), zap.String("topic_key", v.TopicKey))
	return v, nil
}

func (s *versionService) ListRetired(ctx context.Context, topicKey string) ([]*domain.QuizVersion, error) {
	versions, err := s.repo.ListVersionsByStatus(ctx, topicKey, domain.StatusRetired)
	if err != nil {
		return nil, domain.NewInternalError("Failed to list retired quiz versions", err)
	}
	if versions == nil {
		versions = []*domain.QuizVersion{}
	}
	return versions, nil
}

func (s *versionService) getVersion(ctx context.Context, id string) (*domain.QuizVersion, error) {
	if id == "" {
		return nil, domain.NewInvalidRequestError("version id is required")
	}
	v, err := s.repo.GetVersionByID(ctx, id)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load quiz version", err)
	}
	if v == nil {
		return nil, domain.NewVersionNotFoundError(id)
	}
	return v, nil
}

// withTopicLock runs fn while holding the topic lock, retrying contention with
// exponential backoff up to cfg.PromoteRetries times.
func (s *versionService) withTopicLock(ctx context.Context, topicKey string, fn func() error) error {
	backoff := s.cfg.RetryBackoff
	for attempt := 0; ; attempt++ {
		unlock, err := s.locker.TryLock(ctx, topicKey)
		if err == nil {
			defer s.release(ctx, topicKey, unlock)
			return fn()
		}
		if !errors.Is(err, domain.ErrTopicLocked) {
			return domain.NewInternalError("Failed to acquire topic lock", err)
		}
		if attempt >= s.cfg.PromoteRetries {
			s.logger.Warn("Giving up on contended topic lock",
				zap.String("topic_key", topicKey),
				zap.Int("attempts", attempt+1),
			)
			return domain.NewConcurrentPromotionError(topicKey, err)
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return domain.NewConcurrentPromotionError(topicKey, ctx.Err())
		case <-timer.C:
		}
		backoff = min(backoff*2, maxLockBackoff)
	}
}

func (s *versionService) release(ctx context.Context, topicKey string, unlock func(context.Context) error) {
	releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), unlockTimeout)
	defer cancel()
	if err := unlock(releaseCtx); err != nil {
		s.logger.Warn("Failed to release topic lock", zap.String("topic_key", topicKey), zap.Error(err))
	}
}

func markLive(v *domain.QuizVersion, at time.Time) {
	v.Status = domain.StatusLive
	v.UpdatedAt = at
	v.RetiredAt = nil
}
