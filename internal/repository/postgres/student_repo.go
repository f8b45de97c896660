package postgres

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/practice-api/internal/domain/entity"
	"github.com/yourusername/practice-api/internal/domain/repository"
	apperrors "github.com/yourusername/practice-api/internal/pkg/errors"
)

// StudentRepo реализует repository.StudentRepository
type StudentRepo struct {
	db *gorm.DB
}

// NewStudentRepo создает новый репозиторий студентов
func NewStudentRepo(db *gorm.DB) *StudentRepo {
	return &StudentRepo{db: db}
}

// ResolveOrCreate возвращает внутренний ID студента, создавая запись при первом обращении
func (r *StudentRepo) ResolveOrCreate(ctx context.Context, externalID string) (uint, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return 0, fmt.Errorf("%w: empty student id", apperrors.ErrValidation)
	}

	student := entity.Student{ExternalID: externalID}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "external_id"}}, DoNothing: true}).
		Create(&student).Error
	if err != nil && !isUniqueViolation(err) {
		return 0, fmt.Errorf("%w: %v", repository.ErrStudentUnresolved, err)
	}

	// При конфликте ID не заполняется, перечитываем
	if student.ID == 0 {
		var existing entity.Student
		if err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&existing).Error; err != nil {
			return 0, fmt.Errorf("%w: %v", repository.ErrStudentUnresolved, err)
		}
		return existing.ID, nil
	}
	return student.ID, nil
}

var _ repository.StudentRepository = (*StudentRepo)(nil)

// compile-time проверки остальных реализаций
var (
	_ repository.QuestionRepository        = (*QuestionRepo)(nil)
	_ repository.CuratedQuestionRepository = (*CuratedQuestionRepo)(nil)
	_ repository.ExposureRepository        = (*ExposureRepo)(nil)
	_ repository.DifficultyRepository      = (*DifficultyRepo)(nil)
)
