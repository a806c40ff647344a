package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"quiz-forge/internal/cache"
	"quiz-forge/internal/config"
	"quiz-forge/internal/domain"
	"quiz-forge/internal/dto"
	"quiz-forge/internal/util"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const defaultLiveVersionTTL = 10 * time.Minute

// QuizService defines the interface for quiz-related operations
type QuizService interface {
	GenerateQuestions(ctx context.Context, req *dto.GenerateQuestionsRequest) (*dto.GenerateQuestionsResponse, error)
	CreateQuiz(ctx context.Context, req *dto.CreateQuizRequest) (*dto.QuizVersionResponse, error)
	GetLiveQuiz(ctx context.Context, topicKey string) (*dto.QuizVersionResponse, error)
	ListLiveQuizzes(ctx context.Context) (*dto.QuizVersionListResponse, error)
	GetVersion(ctx context.Context, id string) (*dto.QuizVersionResponse, error)
	PromoteVersion(ctx context.Context, id string) (*dto.QuizVersionResponse, error)
	RestoreVersion(ctx context.Context, id string) (*dto.QuizVersionResponse, error)
	RetireVersion(ctx context.Context, id string) (*dto.QuizVersionResponse, error)
	ListRetiredVersions(ctx context.Context, topicKey string) (*dto.QuizVersionListResponse, error)
}

// quizService implements QuizService
type quizService struct {
	generator GenerationService
	versions  VersionService
	repo      domain.QuizVersionRepository
	cache     domain.Cache // optional
	cfg       *config.Config
	logger    *zap.Logger
	sfGroup   singleflight.Group
}

// NewQuizService creates a new instance of quizService
func NewQuizService(
	generator GenerationService,
	versions VersionService,
	repo domain.QuizVersionRepository,
	cache domain.Cache,
	cfg *config.Config,
	logger *zap.Logger,
) QuizService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &quizService{
		generator: generator,
		versions:  versions,
		repo:      repo,
		cache:     cache,
		cfg:       cfg,
		logger:    logger,
	}
}

// GenerateQuestions implements QuizService. Nothing is persisted.
func (s *quizService) GenerateQuestions(ctx context.Context, req *dto.GenerateQuestionsRequest) (*dto.GenerateQuestionsResponse, error) {
	genReq, err := domain.NewGenerationRequest(req.Topic, req.Difficulty, req.Count)
	if err != nil {
		return nil, err
	}

	questions, outcome, err := s.generator.GenerateQuestions(ctx, genReq)
	if err != nil {
		return nil, err
	}

	return &dto.GenerateQuestionsResponse{
		Topic:      genReq.Topic,
		Difficulty: genReq.Difficulty.String(),
		Outcome:    string(outcome),
		Questions:  toQuestionResponses(questions),
	}, nil
}

// CreateQuiz generates a new version for a topic key and promotes it. A generation that
// produced nothing but placeholders is not stored, so the current Live version survives.
func (s *quizService) CreateQuiz(ctx context.Context, req *dto.CreateQuizRequest) (*dto.QuizVersionResponse, error) {
	topicKey := strings.TrimSpace(req.TopicKey)
	if topicKey == "" {
		return nil, domain.NewInvalidRequestError("topic_key is required")
	}
	topic := lo.Ternary(strings.TrimSpace(req.Topic) != "", req.Topic, topicKey)

	genReq, err := domain.NewGenerationRequest(topic, req.Difficulty, req.Count)
	if err != nil {
		return nil, err
	}

	questions, outcome, err := s.generator.GenerateQuestions(ctx, genReq)
	if err != nil {
		return nil, err
	}
	if outcome == domain.OutcomeFullFallback {
		s.logger.Warn("Generation produced only placeholders, keeping current version",
			zap.String("topic_key", topicKey),
			zap.Int("count", len(questions)),
		)
		return nil, domain.NewBackendUnavailableError(fmt.Errorf("all %d questions for %q are placeholders", len(questions), topicKey))
	}

	version, err := s.versions.PromoteNew(ctx, domain.NewQuizVersion(topicKey, genReq.Difficulty, questions, outcome))
	if err != nil {
		return nil, err
	}
	s.invalidateLiveVersion(ctx, topicKey)

	return toVersionResponse(version, true), nil
}

// GetLiveQuiz returns the Live version of a topic key, served from the cache when possible.
func (s *quizService) GetLiveQuiz(ctx context.Context, topicKey string) (*dto.QuizVersionResponse, error) {
	cacheKey := cache.LiveVersionKey(topicKey)

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, cacheKey)
		switch {
		case err == nil:
			var resp dto.QuizVersionResponse
			if errUnmarshal := json.Unmarshal([]byte(cached), &resp); errUnmarshal == nil {
				s.logger.Debug("Live quiz cache hit", zap.String("topic_key", topicKey))
				return &resp, nil
			} else {
				s.logger.Warn("Failed to unmarshal cached live quiz, refetching",
					zap.String("cache_key", cacheKey),
					zap.Error(errUnmarshal),
				)
			}
		case errors.Is(err, domain.ErrCacheMiss):
			s.logger.Debug("Live quiz cache miss", zap.String("topic_key", topicKey))
		default:
			s.logger.Warn("Live quiz cache read failed", zap.String("cache_key", cacheKey), zap.Error(err))
		}
	}

	res, err, _ := s.sfGroup.Do(cacheKey, func() (interface{}, error) {
		// Read the epoch before loading so a promotion that lands mid-load is detected.
		epoch, epochOK := s.liveEpoch(ctx, topicKey)

		version, err := s.repo.GetLiveVersion(ctx, topicKey)
		if err != nil {
			return nil, domain.NewInternalError("Failed to load live quiz version", err)
		}
		if version == nil {
			return nil, domain.NewLiveVersionNotFoundError(topicKey)
		}
		resp := toVersionResponse(version, true)
		if epochOK {
			s.storeLiveVersion(ctx, topicKey, epoch, resp)
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	resp, ok := res.(*dto.QuizVersionResponse)
	if !ok {
		return nil, domain.NewInternalError("unexpected live quiz result type", fmt.Errorf("%T", res))
	}
	return resp, nil
}

// ListLiveQuizzes returns the metadata of every Live version across topic keys.
func (s *quizService) ListLiveQuizzes(ctx context.Context) (*dto.QuizVersionListResponse, error) {
	versions, err := s.repo.ListVersionsByStatus(ctx, "", domain.StatusLive)
	if err != nil {
		return nil, domain.NewInternalError("Failed to list live quiz versions", err)
	}
	return toVersionListResponse(versions), nil
}

// GetVersion returns one version with its questions, whatever its status.
func (s *quizService) GetVersion(ctx context.Context, id string) (*dto.QuizVersionResponse, error) {
	if id == "" {
		return nil, domain.NewInvalidRequestError("version id is required")
	}
	version, err := s.repo.GetVersionByID(ctx, id)
	if err != nil {
		return nil, domain.NewInternalError("Failed to load quiz version", err)
	}
	if version == nil {
		return nil, domain.NewVersionNotFoundError(id)
	}
	return toVersionResponse(version, true), nil
}

func (s *quizService) PromoteVersion(ctx context.Context, id string) (*dto.QuizVersionResponse, error) {
	return s.changeVersion(ctx, id, s.versions.Promote)
}

func (s *quizService) RestoreVersion(ctx context.Context, id string) (*dto.QuizVersionResponse, error) {
	return s.changeVersion(ctx, id, s.versions.Restore)
}

func (s *quizService) RetireVersion(ctx context.Context, id string) (*dto.QuizVersionResponse, error) {
	return s.changeVersion(ctx, id, s.versions.Retire)
}

func (s *quizService) ListRetiredVersions(ctx context.Context, topicKey string) (*dto.QuizVersionListResponse, error) {
	versions, err := s.versions.ListRetired(ctx, topicKey)
	if err != nil {
		return nil, err
	}
	return toVersionListResponse(versions), nil
}

func (s *quizService) changeVersion(
	ctx context.Context,
	id string,
	op func(context.Context, string) (*domain.QuizVersion, error),
) (*dto.QuizVersionResponse, error) {
	version, err := op(ctx, id)
	if err != nil {
		return nil, err
	}
	s.invalidateLiveVersion(ctx, version.TopicKey)
	return toVersionResponse(version, false), nil
}

func (s *quizService) liveVersionTTL() time.Duration {
	if s.cfg == nil {
		return defaultLiveVersionTTL
	}
	return s.cfg.ParseTTLStringOrDefault(s.cfg.CacheTTLs.LiveVersion, defaultLiveVersionTTL)
}

// liveEpoch reads the epoch marker of a topic key. A missing marker is the empty epoch.
// ok is false when the cache could not be read, in which case nothing should be stored.
func (s *quizService) liveEpoch(ctx context.Context, topicKey string) (epoch string, ok bool) {
	if s.cache == nil {
		return "", false
	}
	epoch, err := s.cache.Get(ctx, cache.LiveEpochKey(topicKey))
	switch {
	case err == nil:
		return epoch, true
	case errors.Is(err, domain.ErrCacheMiss):
		return "", true
	default:
		s.logger.Warn("Failed to read live quiz epoch", zap.String("topic_key", topicKey), zap.Error(err))
		return "", false
	}
}

// storeLiveVersion caches resp unless the epoch moved since it was loaded. The epoch is
// checked again after the write: an invalidation that raced the write removes the entry.
func (s *quizService) storeLiveVersion(ctx context.Context, topicKey, epoch string, resp *dto.QuizVersionResponse) {
	cacheKey := cache.LiveVersionKey(topicKey)
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Warn("Failed to marshal live quiz for caching", zap.String("cache_key", cacheKey), zap.Error(err))
		return
	}
	if current, ok := s.liveEpoch(ctx, topicKey); !ok || current != epoch {
		s.logger.Debug("Live quiz changed while loading, not caching", zap.String("topic_key", topicKey))
		return
	}
	if err := s.cache.Set(ctx, cacheKey, string(data), s.liveVersionTTL()); err != nil {
		s.logger.Warn("Failed to cache live quiz", zap.String("cache_key", cacheKey), zap.Error(err))
		return
	}
	if current, ok := s.liveEpoch(ctx, topicKey); !ok || current != epoch {
		s.deleteLiveVersion(ctx, topicKey)
	}
}

// invalidateLiveVersion bumps the epoch, then drops the cached Live version. Failures are
// logged only; the entry expires on its own.
func (s *quizService) invalidateLiveVersion(ctx context.Context, topicKey string) {
	if s.cache == nil {
		return
	}
	epochKey := cache.LiveEpochKey(topicKey)
	// 에폭은 라이브 캐시보다 오래 살아야 한다
	if err := s.cache.Set(ctx, epochKey, util.NewULID(), 2*s.liveVersionTTL()); err != nil {
		s.logger.Error("Failed to bump live quiz epoch",
			zap.String("topic_key", topicKey),
			zap.String("cache_key", epochKey),
			zap.Error(err),
		)
	}
	s.deleteLiveVersion(ctx, topicKey)
}

func (s *quizService) deleteLiveVersion(ctx context.Context, topicKey string) {
	cacheKey := cache.LiveVersionKey(topicKey)
	if err := s.cache.Delete(ctx, cacheKey); err != nil {
		s.logger.Error("Failed to invalidate live quiz cache",
			zap.String("topic_key", topicKey),
			zap.String("cache_key", cacheKey),
			zap.Error(err),
		)
	}
}

func toVersionListResponse(versions []*domain.QuizVersion) *dto.QuizVersionListResponse {
	items := lo.Map(versions, func(v *domain.QuizVersion, _ int) dto.QuizVersionResponse {
		return *toVersionResponse(v, false)
	})
	return &dto.QuizVersionListResponse{Versions: items, Total: len(items)}
}

func toQuestionResponses(questions []domain.Question) []dto.QuestionResponse {
	return lo.Map(questions, func(q domain.Question, _ int) dto.QuestionResponse {
		return dto.QuestionResponse{
			Title: q.Title,
			Options: lo.Map(q.Options[:], func(o domain.Option, _ int) dto.OptionResponse {
				return dto.OptionResponse{Label: string(o.Label), Text: o.Text}
			}),
			CorrectLabel:    string(q.CorrectLabel),
			Explanation:     q.Explanation,
			DifficultyLevel: q.DifficultyLevel,
			Placeholder:     q.Placeholder,
		}
	})
}

func toVersionResponse(v *domain.QuizVersion, withQuestions bool) *dto.QuizVersionResponse {
	resp := &dto.QuizVersionResponse{
		ID:         v.ID,
		TopicKey:   v.TopicKey,
		Difficulty: v.Difficulty.String(),
		Outcome:    string(v.Outcome),
		Status:     string(v.Status),
		CreatedAt:  v.CreatedAt,
		UpdatedAt:  v.UpdatedAt,
		RetiredAt:  v.RetiredAt,
	}
	if withQuestions {
		resp.Questions = toQuestionResponses(v.Questions)
	}
	return resp
}
