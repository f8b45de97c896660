package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/practice-api/internal/domain/entity"
	"github.com/yourusername/practice-api/internal/domain/repository"
	apperrors "github.com/yourusername/practice-api/internal/pkg/errors"
)

// DifficultyRepo реализует repository.DifficultyRepository
type DifficultyRepo struct {
	db *gorm.DB
}

// NewDifficultyRepo создает новый репозиторий состояния сложности
func NewDifficultyRepo(db *gorm.DB) *DifficultyRepo {
	return &DifficultyRepo{db: db}
}

// Get возвращает состояние для пары (студент, тема)
func (r *DifficultyRepo) Get(ctx context.Context, studentID uint, topicKey string) (*entity.DifficultyState, error) {
	var state entity.DifficultyState
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND topic_key = ?", studentID, topicKey).
		First(&state).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &state, nil
}

// Mutate применяет fn к состоянию под блокировкой строки.
// Состояние создаётся лениво (INSERT ... ON CONFLICT DO NOTHING), поэтому
// параллельные ответы одного студента сериализуются на SELECT ... FOR UPDATE.
func (r *DifficultyRepo) Mutate(ctx context.Context, studentID uint, topicKey string, fn repository.DifficultyMutator) (*entity.DifficultyState, error) {
	var state entity.DifficultyState

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		seed := entity.DifficultyState{
			StudentID: studentID,
			TopicKey:  topicKey,
			Level:     entity.AnchorLevel(entity.DifficultyMedium),
			Trend:     entity.TrendStable,
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&seed).Error; err != nil {
			return fmt.Errorf("seed difficulty state: %w", err)
		}

		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("student_id = ? AND topic_key = ?", studentID, topicKey).
			First(&state).Error; err != nil {
			return fmt.Errorf("lock difficulty state: %w", err)
		}

		adjustment, err := fn(&state)
		if err != nil {
			return err
		}

		if err := tx.Save(&state).Error; err != nil {
			return fmt.Errorf("save difficulty state: %w", err)
		}

		if adjustment != nil {
			adjustment.StudentID = studentID
			adjustment.TopicKey = topicKey
			if err := tx.Create(adjustment).Error; err != nil {
				return fmt.Errorf("append difficulty adjustment: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// History возвращает последние смены сложности
func (r *DifficultyRepo) History(ctx context.Context, studentID uint, topicKey string, limit int) ([]entity.DifficultyAdjustment, error) {
	var history []entity.DifficultyAdjustment
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND topic_key = ?", studentID, topicKey).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&history).Error
	return history, err
}
