package repository

import (
	"context"
	"time"

	"github.com/yourusername/practice-api/internal/domain/entity"
)

// ExposureRepository определяет методы для работы с журналом показов/ответов.
// Все выборки упорядочены по (created_at DESC, id DESC).
type ExposureRepository interface {
	Append(ctx context.Context, exposure *entity.Exposure) error

	// RecentAnswers возвращает последние ответы студента по теме (новые первыми).
	// Пустой topicKey - ответы по всем темам.
	RecentAnswers(ctx context.Context, studentID uint, topicKey string, limit int) ([]entity.Exposure, error)

	// RecentQuestionIDs возвращает ID вопросов из последних limit показов студента (все темы)
	RecentQuestionIDs(ctx context.Context, studentID uint, limit int) ([]uint, error)

	// QuestionIDsSince возвращает ID вопросов, показанных студенту по теме начиная с since
	QuestionIDsSince(ctx context.Context, studentID uint, topicKey string, since time.Time) ([]uint, error)

	// QuestionTextsSince возвращает тексты вопросов, показанных студенту по теме начиная с since
	QuestionTextsSince(ctx context.Context, studentID uint, topicKey string, since time.Time, limit int) ([]string, error)
}
