package repository

import (
	"context"

	"github.com/yourusername/practice-api/internal/domain/entity"
)

// DifficultyMutator изменяет состояние внутри транзакции.
// Возвращаемая запись истории (если не nil) добавляется в журнал той же транзакцией.
type DifficultyMutator func(state *entity.DifficultyState) (*entity.DifficultyAdjustment, error)

// DifficultyRepository определяет методы для работы с состоянием сложности
type DifficultyRepository interface {
	// Get возвращает состояние или apperrors.ErrNotFound
	Get(ctx context.Context, studentID uint, topicKey string) (*entity.DifficultyState, error)

	// Mutate лениво создаёт состояние, блокирует строку (SELECT ... FOR UPDATE),
	// применяет fn и сохраняет результат одной транзакцией
	Mutate(ctx context.Context, studentID uint, topicKey string, fn DifficultyMutator) (*entity.DifficultyState, error)

	// History возвращает последние смены сложности (новые первыми)
	History(ctx context.Context, studentID uint, topicKey string, limit int) ([]entity.DifficultyAdjustment, error)
}
