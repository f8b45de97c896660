// Package retrieval выбирает вопрос из уже имеющихся источников по цепочке уровней:
// точное попадание в кеш, банк готовых вопросов, кеш по теме. Если ни один уровень
// не дал подходящего кандидата, вызывающий получает OutcomeGenerationRequired.
package retrieval

import (
	"context"

	"github.com/yourusername/practice-api/internal/domain/entity"
	"github.com/yourusername/practice-api/internal/service/similarity"
)

// Имена уровней цепочки
const (
	TierExactCache  = "exact_cache"
	TierCuratedBank = "curated_bank"
	TierTopicCache  = "topic_cache"
)

const candidateLimit = 20

// Request - параметры подбора для одной выдачи
type Request struct {
	StudentID   uint
	TopicKey    string
	Topic       string
	SubtopicKey *string
	Subtopic    *string
	Difficulty  entity.Difficulty
	Grade       *int
	Exclusions  *similarity.Exclusions
}

// Strategy - один уровень цепочки. Кандидаты без ID (ещё не сохранённые) допустимы:
// оркестратор сохранит победителя перед выдачей.
type Strategy interface {
	Name() string
	TryRetrieve(ctx context.Context, req Request) ([]entity.Question, error)
}

func (r Request) excludedIDs() []uint {
	if r.Exclusions == nil {
		return nil
	}
	return r.Exclusions.QuestionIDs
}
