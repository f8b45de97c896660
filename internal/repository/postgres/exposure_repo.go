package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/practice-api/internal/domain/entity"
)

// ExposureRepo реализует repository.ExposureRepository
type ExposureRepo struct {
	db *gorm.DB
}

// NewExposureRepo создает новый репозиторий журнала показов
func NewExposureRepo(db *gorm.DB) *ExposureRepo {
	return &ExposureRepo{db: db}
}

// Append добавляет запись в журнал (записи не изменяются после вставки)
func (r *ExposureRepo) Append(ctx context.Context, exposure *entity.Exposure) error {
	if exposure.CreatedAt.IsZero() {
		exposure.CreatedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(exposure).Error
}

// RecentAnswers возвращает последние ответы студента по теме (пустая тема - по всем), новые первыми
func (r *ExposureRepo) RecentAnswers(ctx context.Context, studentID uint, topicKey string, limit int) ([]entity.Exposure, error) {
	var answers []entity.Exposure
	query := r.db.WithContext(ctx).
		Where("student_id = ? AND kind = ?", studentID, entity.ExposureAnswered)
	if topicKey != "" {
		query = query.Where("topic_key = ?", topicKey)
	}
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&answers).Error
	return answers, err
}

// RecentQuestionIDs возвращает ID вопросов из последних limit показов студента
func (r *ExposureRepo) RecentQuestionIDs(ctx context.Context, studentID uint, limit int) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&entity.Exposure{}).
		Where("student_id = ? AND kind = ? AND question_id IS NOT NULL", studentID, entity.ExposureShown).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Pluck("question_id", &ids).Error
	return ids, err
}

// QuestionIDsSince возвращает ID вопросов, показанных по теме с момента since
func (r *ExposureRepo) QuestionIDsSince(ctx context.Context, studentID uint, topicKey string, since time.Time) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&entity.Exposure{}).
		Distinct("question_id").
		Where("student_id = ? AND topic_key = ? AND kind = ? AND question_id IS NOT NULL", studentID, topicKey, entity.ExposureShown).
		Where("created_at >= ?", since).
		Pluck("question_id", &ids).Error
	return ids, err
}

// QuestionTextsSince возвращает тексты вопросов, показанных по теме с момента since (новые первыми)
func (r *ExposureRepo) QuestionTextsSince(ctx context.Context, studentID uint, topicKey string, since time.Time, limit int) ([]string, error) {
	var texts []string
	err := r.db.WithContext(ctx).
		Table("exposures AS e").
		Select("q.text").
		Joins("JOIN questions AS q ON q.id = e.question_id").
		Where("e.student_id = ? AND e.topic_key = ? AND e.kind = ?", studentID, topicKey, entity.ExposureShown).
		Where("e.created_at >= ?", since).
		Order("e.created_at DESC").
		Order("e.id DESC").
		Limit(limit).
		Pluck("q.text", &texts).Error
	return texts, err
}
