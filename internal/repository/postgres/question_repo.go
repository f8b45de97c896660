package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yourusername/practice-api/internal/domain/entity"
	"github.com/yourusername/practice-api/internal/domain/repository"
	apperrors "github.com/yourusername/practice-api/internal/pkg/errors"
)

const defaultCandidateLimit = 20

// recomputeStatsSQL пересчитывает статистику вопроса из полного журнала ответов одним UPDATE.
// quality_score = 0.7 * success_rate (50 при отсутствии ответов) + 0.3 * min(usage_count, 100)
const recomputeStatsSQL = `
	UPDATE questions SET
		success_rate = COALESCE(s.rate, 0),
		average_time_seconds = COALESCE(s.avg_time, 0),
		quality_score = CAST(ROUND(0.7 * COALESCE(s.rate, 50) + 0.3 * LEAST(questions.usage_count, 100)) AS INTEGER),
		updated_at = NOW()
	FROM (
		SELECT
			100.0 * AVG(CASE WHEN is_correct THEN 1 ELSE 0 END) AS rate,
			AVG(time_spent_seconds) AS avg_time
		FROM exposures
		WHERE question_id = ? AND kind = ?
	) AS s
	WHERE questions.id = ?
`

// QuestionRepo реализует repository.QuestionRepository
type QuestionRepo struct {
	db *gorm.DB
}

// NewQuestionRepo создает новый репозиторий вопросов
func NewQuestionRepo(db *gorm.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

// GetByID возвращает вопрос по ID
func (r *QuestionRepo) GetByID(ctx context.Context, id uint) (*entity.Question, error) {
	var question entity.Question
	err := r.db.WithContext(ctx).First(&question, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &question, nil
}

// GetByContentHash возвращает вопрос по хешу нормализованного текста
func (r *QuestionRepo) GetByContentHash(ctx context.Context, hash string) (*entity.Question, error) {
	var question entity.Question
	err := r.db.WithContext(ctx).Where("content_hash = ?", hash).First(&question).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &question, nil
}

// CreateOrGetByHash вставляет вопрос или переиспользует существующую запись с тем же хешем.
// При гонке двух вставок unique index на content_hash даёт 23505 - тогда перечитываем запись.
func (r *QuestionRepo) CreateOrGetByHash(ctx context.Context, question *entity.Question) (*entity.Question, bool, error) {
	if question.ContentHash == "" {
		question.ContentHash = entity.ContentHash(question.Text)
	}

	existing, err := r.GetByContentHash(ctx, question.ContentHash)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, false, fmt.Errorf("lookup question by hash: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(question).Error; err != nil {
		if !isUniqueViolation(err) {
			return nil, false, fmt.Errorf("create question: %w", err)
		}
		existing, getErr := r.GetByContentHash(ctx, question.ContentHash)
		if getErr != nil {
			return nil, false, fmt.Errorf("reread question after unique violation: %w", getErr)
		}
		return existing, false, nil
	}
	return question, true, nil
}

// FindCandidates возвращает активных кандидатов для выдачи
func (r *QuestionRepo) FindCandidates(ctx context.Context, filter repository.QuestionFilter) ([]entity.Question, error) {
	var questions []entity.Question

	query := r.db.WithContext(ctx).
		Where("is_active = ? AND topic_key = ? AND difficulty = ?", true, filter.TopicKey, filter.Difficulty)

	if filter.SubtopicKey != nil {
		query = query.Where("subtopic_key = ?", *filter.SubtopicKey)
	}
	if filter.Grade != nil {
		query = query.Where("(grade = ? OR grade IS NULL)", *filter.Grade)
	}
	// Исключаем показанные в сессии и в истории студента
	if len(filter.ExcludeIDs) > 0 {
		query = query.Where("id NOT IN ?", filter.ExcludeIDs)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultCandidateLimit
	}

	err := query.
		Order("quality_score / 25 DESC").
		Order("usage_count ASC").
		Order("RANDOM()").
		Limit(limit).
		Find(&questions).Error
	return questions, err
}

// IncrementUsage атомарно увеличивает usage_count
func (r *QuestionRepo) IncrementUsage(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&entity.Question{}).
		Where("id = ?", id).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1")).Error
}

// RecomputeStats пересчитывает success_rate, average_time_seconds и quality_score из журнала ответов
func (r *QuestionRepo) RecomputeStats(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Exec(recomputeStatsSQL, id, entity.ExposureAnswered, id)
	if result.Error != nil {
		return fmt.Errorf("recompute stats for question #%d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// UpdateClassification перезаписывает метки вопроса (массовая переклассификация)
func (r *QuestionRepo) UpdateClassification(ctx context.Context, id uint, update repository.ClassificationUpdate) error {
	return r.db.WithContext(ctx).Model(&entity.Question{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"grade":        update.Grade,
			"unit_track":   update.UnitTrack,
			"topic_key":    update.TopicKey,
			"topic":        update.Topic,
			"subtopic_key": update.SubtopicKey,
			"subtopic":     update.Subtopic,
			"difficulty":   update.Difficulty,
		}).Error
}

// Deactivate мягко выключает вопрос (записи никогда не удаляются)
func (r *QuestionRepo) Deactivate(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&entity.Question{}).
		Where("id = ?", id).
		Update("is_active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ListActive постранично (keyset по id) возвращает активные вопросы
func (r *QuestionRepo) ListActive(ctx context.Context, afterID uint, limit int) ([]entity.Question, error) {
	var questions []entity.Question
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND id > ?", true, afterID).
		Order("id").
		Limit(limit).
		Find(&questions).Error
	return questions, err
}

// GetTopicStats возвращает статистику кеша по темам и сложности
func (r *QuestionRepo) GetTopicStats(ctx context.Context) ([]repository.TopicStats, error) {
	var stats []repository.TopicStats
	err := r.db.WithContext(ctx).Model(&entity.Question{}).
		Select(`topic_key, difficulty,
			COUNT(*) AS total,
			SUM(CASE WHEN is_active THEN 1 ELSE 0 END) AS active,
			AVG(quality_score) AS avg_quality,
			AVG(success_rate) AS avg_success_rate,
			SUM(usage_count) AS total_usage_count`).
		Group("topic_key, difficulty").
		Order("topic_key, difficulty").
		Scan(&stats).Error
	return stats, err
}
