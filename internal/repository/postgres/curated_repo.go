package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/yourusername/practice-api/internal/domain/entity"
	"github.com/yourusername/practice-api/internal/domain/repository"
)

const curatedBatchSize = 200

// CuratedQuestionRepo реализует repository.CuratedQuestionRepository
type CuratedQuestionRepo struct {
	db *gorm.DB
}

// NewCuratedQuestionRepo создает новый репозиторий банка готовых вопросов
func NewCuratedQuestionRepo(db *gorm.DB) *CuratedQuestionRepo {
	return &CuratedQuestionRepo{db: db}
}

// FindByTopic ищет вопросы банка по названиям темы и окну классов
func (r *CuratedQuestionRepo) FindByTopic(ctx context.Context, filter repository.CuratedFilter) ([]entity.CuratedQuestion, error) {
	var questions []entity.CuratedQuestion
	if len(filter.TopicLabels) == 0 {
		return questions, nil
	}

	query := r.db.WithContext(ctx).
		Where("is_active = ? AND topic IN ?", true, filter.TopicLabels).
		Where("grade BETWEEN ? AND ?", filter.MinGrade, filter.MaxGrade)
	if filter.Difficulty != "" {
		query = query.Where("difficulty = ?", filter.Difficulty)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultCandidateLimit
	}

	err := query.Order("RANDOM()").Limit(limit).Find(&questions).Error
	return questions, err
}

// CreateBatch создает пакет вопросов банка
func (r *CuratedQuestionRepo) CreateBatch(ctx context.Context, questions []entity.CuratedQuestion) error {
	if len(questions) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(&questions, curatedBatchSize).Error
	})
}

// Count возвращает количество вопросов в банке
func (r *CuratedQuestionRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.CuratedQuestion{}).Count(&count).Error
	return count, err
}
