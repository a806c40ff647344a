package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"quiz-forge/internal/domain"

	"github.com/stretchr/testify/mock"
)

// --- MockQuestionBackend ---
type MockQuestionBackend struct {
	mock.Mock
}

func (m *MockQuestionBackend) GenerateBatch(ctx context.Context, topic string, difficultyLabel string, count int) ([]domain.RawGeneratedItem, error) {
	args := m.Called(ctx, topic, difficultyLabel, count)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RawGeneratedItem), args.Error(1)
}

// backendFunc adapts a function to domain.QuestionBackend for tests that need timing control.
type backendFunc func(ctx context.Context, topic string, difficultyLabel string, count int) ([]domain.RawGeneratedItem, error)

func (f backendFunc) GenerateBatch(ctx context.Context, topic string, difficultyLabel string, count int) ([]domain.RawGeneratedItem, error) {
	return f(ctx, topic, difficultyLabel, count)
}

// --- MockQuizVersionRepository ---
type MockQuizVersionRepository struct {
	mock.Mock
}

func (m *MockQuizVersionRepository) SaveVersion(ctx context.Context, version *domain.QuizVersion) error {
	args := m.Called(ctx, version)
	return args.Error(0)
}

func (m *MockQuizVersionRepository) GetVersionByID(ctx context.Context, id string) (*domain.QuizVersion, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QuizVersion), args.Error(1)
}

func (m *MockQuizVersionRepository) GetLiveVersion(ctx context.Context, topicKey string) (*domain.QuizVersion, error) {
	args := m.Called(ctx, topicKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QuizVersion), args.Error(1)
}

func (m *MockQuizVersionRepository) ListVersionsByStatus(ctx context.Context, topicKey string, status domain.VersionStatus) ([]*domain.QuizVersion, error) {
	args := m.Called(ctx, topicKey, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.QuizVersion), args.Error(1)
}

func (m *MockQuizVersionRepository) MarkLive(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockQuizVersionRepository) RetireVersion(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockQuizVersionRepository) LockTopic(ctx context.Context, topicKey string) error {
	args := m.Called(ctx, topicKey)
	return args.Error(0)
}

func (m *MockQuizVersionRepository) RetireOthers(ctx context.Context, topicKey string, keepID string, at time.Time) (int64, error) {
	args := m.Called(ctx, topicKey, keepID, at)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockQuizVersionRepository) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- MockTransactionManager ---
// Runs fn directly so repository expectations still apply.
type MockTransactionManager struct {
	mock.Mock
}

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Called(ctx)
	return fn(ctx)
}

// --- MockTopicLocker ---
type MockTopicLocker struct {
	mock.Mock
}

func (m *MockTopicLocker) TryLock(ctx context.Context, topicKey string) (func(context.Context) error, error) {
	args := m.Called(ctx, topicKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(func(context.Context) error), args.Error(1)
}

// --- MockCache ---
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value string, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCache) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// --- MockGenerationService ---
type MockGenerationService struct {
	mock.Mock
}

func (m *MockGenerationService) GenerateQuestions(ctx context.Context, req domain.GenerationRequest) ([]domain.Question, domain.GenerationOutcome, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Get(1).(domain.GenerationOutcome), args.Error(2)
	}
	return args.Get(0).([]domain.Question), args.Get(1).(domain.GenerationOutcome), args.Error(2)
}

// --- MockVersionService ---
type MockVersionService struct {
	mock.Mock
}

func (m *MockVersionService) PromoteNew(ctx context.Context, v *domain.QuizVersion) (*domain.QuizVersion, error) {
	args := m.Called(ctx, v)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QuizVersion), args.Error(1)
}

func (m *MockVersionService) Promote(ctx context.Context, id string) (*domain.QuizVersion, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QuizVersion), args.Error(1)
}

func (m *MockVersionService) Restore(ctx context.Context, id string) (*domain.QuizVersion, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QuizVersion), args.Error(1)
}

func (m *MockVersionService) Retire(ctx context.Context, id string) (*domain.QuizVersion, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.QuizVersion), args.Error(1)
}

func (m *MockVersionService) ListRetired(ctx context.Context, topicKey string) ([]*domain.QuizVersion, error) {
	args := m.Called(ctx, topicKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.QuizVersion), args.Error(1)
}

// memoryVersionStore is a small in-memory QuizVersionRepository for lifecycle scenarios.
type memoryVersionStore struct {
	mu       sync.Mutex
	versions map[string]*domain.QuizVersion
	nextID   int
	locks    map[string]int
}

func newMemoryVersionStore() *memoryVersionStore {
	return &memoryVersionStore{versions: map[string]*domain.QuizVersion{}, locks: map[string]int{}}
}

func (s *memoryVersionStore) SaveVersion(_ context.Context, v *domain.QuizVersion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.ID == "" {
		s.nextID++
		v.ID = fmt.Sprintf("v%d", s.nextID)
	}
	cp := *v
	s.versions[v.ID] = &cp
	return nil
}

func (s *memoryVersionStore) GetVersionByID(_ context.Context, id string) (*domain.QuizVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.versions[id]
	if !ok {
		return nil, nil
	}
	cp := *v
	return &cp, nil
}

func (s *memoryVersionStore) GetLiveVersion(_ context.Context, topicKey string) (*domain.QuizVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var newest *domain.QuizVersion
	for _, v := range s.versions {
		if v.TopicKey == topicKey && v.IsLive() && (newest == nil || v.CreatedAt.After(newest.CreatedAt)) {
			newest = v
		}
	}
	if newest == nil {
		return nil, nil
	}
	cp := *newest
	return &cp, nil
}

func (s *memoryVersionStore) ListVersionsByStatus(_ context.Context, topicKey string, status domain.VersionStatus) ([]*domain.QuizVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.QuizVersion
	for _, v := range s.versions {
		if v.Status == status && (topicKey == "" || v.TopicKey == topicKey) {
			cp := *v
			cp.Questions = nil
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memoryVersionStore) MarkLive(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.versions[id]; ok {
		v.Status = domain.StatusLive
		v.RetiredAt = nil
		v.UpdatedAt = at
	}
	return nil
}

func (s *memoryVersionStore) RetireVersion(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.versions[id]; ok {
		v.Status = domain.StatusRetired
		v.RetiredAt = &at
		v.UpdatedAt = at
	}
	return nil
}

func (s *memoryVersionStore) RetireOthers(_ context.Context, topicKey string, keepID string, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, v := range s.versions {
		if id != keepID && v.TopicKey == topicKey && v.IsLive() {
			v.Status = domain.StatusRetired
			v.RetiredAt = &at
			v.UpdatedAt = at
			n++
		}
	}
	return n, nil
}

func (s *memoryVersionStore) LockTopic(_ context.Context, topicKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locks[topicKey]++
	return nil
}

func (s *memoryVersionStore) Ping(context.Context) error { return nil }

func (s *memoryVersionStore) liveIDs(topicKey string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var ids []string
	for id, v := range s.versions {
		if v.TopicKey == topicKey && v.IsLive() {
			ids = append(ids, id)
		}
	}
	return ids
}

// passthroughTx runs fn without a real transaction.
type passthroughTx struct{}

func (passthroughTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// memoryCache is a map-backed domain.Cache. onSet, when set, runs after each successful Set.
type memoryCache struct {
	mu    sync.Mutex
	data  map[string]string
	onSet func(key string)
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string]string{}}
}

func (c *memoryCache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return "", domain.ErrCacheMiss
	}
	return v, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value string, _ time.Duration) error {
	c.mu.Lock()
	c.data[key] = value
	hook := c.onSet
	c.mu.Unlock()
	if hook != nil {
		hook(key)
	}
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *memoryCache) Ping(context.Context) error { return nil }

func (c *memoryCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok
}
