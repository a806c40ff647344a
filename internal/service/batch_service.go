package service

import (
	"context"
	"fmt"
	"time"

	"quiz-forge/internal/config"
	"quiz-forge/internal/domain"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// GenerationService produces exactly the requested number of questions for a topic.
type GenerationService interface {
	// GenerateQuestions never fails because of the backend: failed batches are filled with
	// placeholders and reported through the outcome. Only invalid requests return an error.
	GenerateQuestions(ctx context.Context, req domain.GenerationRequest) ([]domain.Question, domain.GenerationOutcome, error)
}

// generationService implements GenerationService.
type generationService struct {
	backend    domain.QuestionBackend
	normalizer Normalizer
	randomizer OptionRandomizer
	cfg        config.GenerationConfig
	logger     *zap.Logger
}

// NewGenerationService creates a new instance of generationService.
func NewGenerationService(
	backend domain.QuestionBackend,
	normalizer Normalizer,
	randomizer OptionRandomizer,
	cfg config.GenerationConfig,
	logger *zap.Logger,
) GenerationService {
	cfg.Normalize()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &generationService{
		backend:    backend,
		normalizer: normalizer,
		randomizer: randomizer,
		cfg:        cfg,
		logger:     logger,
	}
}

// batchPlan is one backend call: size items at a single difficulty.
type batchPlan struct {
	index      int
	difficulty domain.Difficulty
	level      int
	size       int
}

// planBatches splits count into batches of at most batchSize. A mixed request is spread
// evenly over the four levels, lower levels taking the remainder.
func planBatches(d domain.Difficulty, count, batchSize int) []batchPlan {
	shares := make(map[domain.Difficulty]int, len(domain.OrdinalLevels))
	levels := []domain.Difficulty{d}
	if d == domain.DifficultyMixed {
		levels = domain.OrdinalLevels
		per, rem := count/len(levels), count%len(levels)
		for i, level := range levels {
			shares[level] = per
			if i < rem {
				shares[level]++
			}
		}
	} else {
		shares[d] = count
	}

	var plans []batchPlan
	for _, level := range levels {
		for remaining := shares[level]; remaining > 0; remaining -= batchSize {
			plans = append(plans, batchPlan{
				index:      len(plans),
				difficulty: level,
				level:      level.ToOrdinal(),
				size:       min(batchSize, remaining),
			})
		}
	}
	return plans
}

func (s *generationService) GenerateQuestions(ctx context.Context, req domain.GenerationRequest) ([]domain.Question, domain.GenerationOutcome, error) {
	if err := req.Validate(); err != nil {
		return nil, "", err
	}

	start := time.Now()
	plans := planBatches(req.Difficulty, req.Count, s.cfg.BatchSize)
	s.logger.Info("Starting question generation",
		zap.String("topic", req.Topic),
		zap.String("difficulty", req.Difficulty.String()),
		zap.Int("count", req.Count),
		zap.Int("batches", len(plans)),
	)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	// Each batch owns its slot, so no locking is needed and order follows submission.
	results := make([][]domain.Question, len(plans))
	g := new(errgroup.Group)
	g.SetLimit(s.cfg.Concurrency)
	for _, plan := range plans {
		g.Go(func() error {
			results[plan.index] = s.runBatch(ctx, req.Topic, plan)
			return nil
		})
	}
	_ = g.Wait()

	questions := lo.Flatten(results)
	placeholders := lo.CountBy(questions, func(q domain.Question) bool { return q.Placeholder })
	outcome := domain.OutcomeFor(placeholders, len(questions))

	s.logger.Info("Question generation finished",
		zap.String("topic", req.Topic),
		zap.Int("count", len(questions)),
		zap.Int("placeholders", placeholders),
		zap.String("outcome", string(outcome)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return questions, outcome, nil
}

// runBatch always returns exactly plan.size questions.
func (s *generationService) runBatch(ctx context.Context, topic string, plan batchPlan) []domain.Question {
	if err := ctx.Err(); err != nil {
		s.logger.Warn("Generation deadline passed before batch started",
			zap.Int("batch", plan.index),
			zap.Error(err),
		)
		return fallbackBatch(plan)
	}

	items, err := s.callBackend(ctx, topic, plan)
	if err != nil {
		s.logger.Warn("Generation backend failed, serving placeholders",
			zap.Int("batch", plan.index),
			zap.String("difficulty", plan.difficulty.String()),
			zap.Int("size", plan.size),
			zap.Error(err),
		)
		return fallbackBatch(plan)
	}

	if len(items) != plan.size {
		s.logger.Debug("Backend returned a different number of items than requested",
			zap.Int("batch", plan.index),
			zap.Int("requested", plan.size),
			zap.Int("received", len(items)),
		)
	}

	out := make([]domain.Question, plan.size)
	for i := range out {
		if i >= len(items) {
			out[i] = domain.FallbackQuestion(plan.level)
			continue
		}
		q, err := s.normalizer.Normalize(items[i], plan.level)
		if err != nil {
			s.logger.Warn("Discarding malformed generated item",
				zap.Int("batch", plan.index),
				zap.Int("item", i),
				zap.Error(err),
			)
			out[i] = domain.FallbackQuestion(plan.level)
			continue
		}
		out[i] = s.randomizer.Shuffle(q)
	}
	return out
}

// callBackend abandons the backend call once ctx is done, even if the backend ignores ctx.
func (s *generationService) callBackend(ctx context.Context, topic string, plan batchPlan) ([]domain.RawGeneratedItem, error) {
	type result struct {
		items []domain.RawGeneratedItem
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result{err: domain.NewBackendUnavailableError(fmt.Errorf("backend panic: %v", r))}
			}
		}()
		items, err := s.backend.GenerateBatch(ctx, topic, plan.difficulty.String(), plan.size)
		ch <- result{items: items, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, domain.NewBackendUnavailableError(ctx.Err())
	case r := <-ch:
		return r.items, r.err
	}
}

func fallbackBatch(plan batchPlan) []domain.Question {
	return lo.Times(plan.size, func(int) domain.Question {
		return domain.FallbackQuestion(plan.level)
	})
}
