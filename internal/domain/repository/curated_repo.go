package repository

import (
	"context"

	"github.com/yourusername/practice-api/internal/domain/entity"
)

// CuratedFilter описывает поиск в банке готовых вопросов
type CuratedFilter struct {
	// TopicLabels - человекочитаемые названия темы (после перевода slug → label)
	TopicLabels []string
	MinGrade    int
	MaxGrade    int
	Difficulty  entity.Difficulty
	Limit       int
}

// CuratedQuestionRepository определяет методы для работы с банком готовых вопросов
type CuratedQuestionRepository interface {
	FindByTopic(ctx context.Context, filter CuratedFilter) ([]entity.CuratedQuestion, error)
	CreateBatch(ctx context.Context, questions []entity.CuratedQuestion) error
	Count(ctx context.Context) (int64, error)
}
