package repository

import (
	"context"

	"github.com/yourusername/practice-api/internal/domain/entity"
)

// QuestionFilter описывает выборку кандидатов из кеша вопросов
type QuestionFilter struct {
	TopicKey string
	// SubtopicKey == nil означает «любая подтема»
	SubtopicKey *string
	Difficulty  entity.Difficulty
	// Grade != nil: grade = ? OR grade IS NULL
	Grade      *int
	ExcludeIDs []uint
	Limit      int
}

// ClassificationUpdate - новые метки вопроса (только для массовой переклассификации)
type ClassificationUpdate struct {
	Grade       *int
	UnitTrack   *int
	TopicKey    string
	Topic       string
	SubtopicKey *string
	Subtopic    *string
	Difficulty  entity.Difficulty
}

// TopicStats - агрегированная статистика кеша по теме и сложности
type TopicStats struct {
	TopicKey        string
	Difficulty      entity.Difficulty
	Total           int64
	Active          int64
	AvgQuality      float64
	AvgSuccessRate  float64
	TotalUsageCount int64
}

// QuestionRepository определяет методы для работы с кешем вопросов
type QuestionRepository interface {
	GetByID(ctx context.Context, id uint) (*entity.Question, error)
	GetByContentHash(ctx context.Context, hash string) (*entity.Question, error)

	// CreateOrGetByHash вставляет вопрос или возвращает существующий с тем же content hash.
	// created=false означает, что переиспользована существующая запись.
	CreateOrGetByHash(ctx context.Context, question *entity.Question) (stored *entity.Question, created bool, err error)

	// FindCandidates возвращает активных кандидатов, отсортированных по
	// quality tier (desc), usage_count (asc), затем случайно
	FindCandidates(ctx context.Context, filter QuestionFilter) ([]entity.Question, error)

	// Статистика: атомарные обновления без read-modify-write
	IncrementUsage(ctx context.Context, id uint) error
	RecomputeStats(ctx context.Context, id uint) error

	// Обслуживание
	UpdateClassification(ctx context.Context, id uint, update ClassificationUpdate) error
	Deactivate(ctx context.Context, id uint) error
	ListActive(ctx context.Context, afterID uint, limit int) ([]entity.Question, error)
	GetTopicStats(ctx context.Context) ([]TopicStats, error)
}
