// Package mocks содержит testify-моки и in-memory реализации репозиториев для тестов сервисов
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/yourusername/practice-api/internal/domain/entity"
	"github.com/yourusername/practice-api/internal/domain/repository"
)

// MockQuestionRepository реализует repository.QuestionRepository
type MockQuestionRepository struct {
	mock.Mock
}

var _ repository.QuestionRepository = (*MockQuestionRepository)(nil)

func (m *MockQuestionRepository) GetByID(ctx context.Context, id uint) (*entity.Question, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Question), args.Error(1)
}

func (m *MockQuestionRepository) GetByContentHash(ctx context.Context, hash string) (*entity.Question, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Question), args.Error(1)
}

func (m *MockQuestionRepository) CreateOrGetByHash(ctx context.Context, question *entity.Question) (*entity.Question, bool, error) {
	args := m.Called(ctx, question)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*entity.Question), args.Bool(1), args.Error(2)
}

func (m *MockQuestionRepository) FindCandidates(ctx context.Context, filter repository.QuestionFilter) ([]entity.Question, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Question), args.Error(1)
}

func (m *MockQuestionRepository) IncrementUsage(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockQuestionRepository) RecomputeStats(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockQuestionRepository) UpdateClassification(ctx context.Context, id uint, update repository.ClassificationUpdate) error {
	args := m.Called(ctx, id, update)
	return args.Error(0)
}

func (m *MockQuestionRepository) Deactivate(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockQuestionRepository) ListActive(ctx context.Context, afterID uint, limit int) ([]entity.Question, error) {
	args := m.Called(ctx, afterID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Question), args.Error(1)
}

func (m *MockQuestionRepository) GetTopicStats(ctx context.Context) ([]repository.TopicStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.TopicStats), args.Error(1)
}

// MockCuratedQuestionRepository реализует repository.CuratedQuestionRepository
type MockCuratedQuestionRepository struct {
	mock.Mock
}

var _ repository.CuratedQuestionRepository = (*MockCuratedQuestionRepository)(nil)

func (m *MockCuratedQuestionRepository) FindByTopic(ctx context.Context, filter repository.CuratedFilter) ([]entity.CuratedQuestion, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.CuratedQuestion), args.Error(1)
}

func (m *MockCuratedQuestionRepository) CreateBatch(ctx context.Context, questions []entity.CuratedQuestion) error {
	args := m.Called(ctx, questions)
	return args.Error(0)
}

func (m *MockCuratedQuestionRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockExposureRepository реализует repository.ExposureRepository
type MockExposureRepository struct {
	mock.Mock
}

var _ repository.ExposureRepository = (*MockExposureRepository)(nil)

func (m *MockExposureRepository) Append(ctx context.Context, exposure *entity.Exposure) error {
	args := m.Called(ctx, exposure)
	return args.Error(0)
}

func (m *MockExposureRepository) RecentAnswers(ctx context.Context, studentID uint, topicKey string, limit int) ([]entity.Exposure, error) {
	args := m.Called(ctx, studentID, topicKey, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Exposure), args.Error(1)
}

func (m *MockExposureRepository) RecentQuestionIDs(ctx context.Context, studentID uint, limit int) ([]uint, error) {
	args := m.Called(ctx, studentID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uint), args.Error(1)
}

func (m *MockExposureRepository) QuestionIDsSince(ctx context.Context, studentID uint, topicKey string, since time.Time) ([]uint, error) {
	args := m.Called(ctx, studentID, topicKey, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uint), args.Error(1)
}

func (m *MockExposureRepository) QuestionTextsSince(ctx context.Context, studentID uint, topicKey string, since time.Time, limit int) ([]string, error) {
	args := m.Called(ctx, studentID, topicKey, since, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockStudentRepository реализует repository.StudentRepository
type MockStudentRepository struct {
	mock.Mock
}

var _ repository.StudentRepository = (*MockStudentRepository)(nil)

func (m *MockStudentRepository) ResolveOrCreate(ctx context.Context, externalID string) (uint, error) {
	args := m.Called(ctx, externalID)
	return args.Get(0).(uint), args.Error(1)
}

// MockCacheRepository реализует repository.CacheRepository
type MockCacheRepository struct {
	mock.Mock
}

var _ repository.CacheRepository = (*MockCacheRepository)(nil)

func (m *MockCacheRepository) PushCapped(ctx context.Context, key string, value interface{}, capacity int, expiration time.Duration) error {
	args := m.Called(ctx, key, value, capacity, expiration)
	return args.Error(0)
}

func (m *MockCacheRepository) ListRange(ctx context.Context, key string, limit int) ([]string, error) {
	args := m.Called(ctx, key, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockCacheRepository) IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	args := m.Called(ctx, key, window)
	return args.Get(0).(int64), args.Get(1).(time.Duration), args.Error(2)
}
