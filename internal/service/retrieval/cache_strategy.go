package retrieval

import (
	"context"

	"github.com/yourusername/practice-api/internal/domain/entity"
	"github.com/yourusername/practice-api/internal/domain/repository"
)

// CacheStrategy ищет в кеше вопросов. С exact=true учитывается подтема.
type CacheStrategy struct {
	questions repository.QuestionRepository
	exact     bool
}

// NewExactCacheStrategy - тема + подтема + сложность + класс
func NewExactCacheStrategy(questions repository.QuestionRepository) *CacheStrategy {
	return &CacheStrategy{questions: questions, exact: true}
}

// NewTopicCacheStrategy - то же без фильтра по подтеме
func NewTopicCacheStrategy(questions repository.QuestionRepository) *CacheStrategy {
	return &CacheStrategy{questions: questions}
}

func (s *CacheStrategy) Name() string {
	if s.exact {
		return TierExactCache
	}
	return TierTopicCache
}

func (s *CacheStrategy) TryRetrieve(ctx context.Context, req Request) ([]entity.Question, error) {
	filter := repository.QuestionFilter{
		TopicKey:   req.TopicKey,
		Difficulty: req.Difficulty,
		Grade:      req.Grade,
		ExcludeIDs: req.excludedIDs(),
		Limit:      candidateLimit,
	}
	if s.exact {
		// без подтемы точный уровень совпадает с уровнем темы
		if req.SubtopicKey == nil {
			return nil, nil
		}
		filter.SubtopicKey = req.SubtopicKey
	}
	return s.questions.FindCandidates(ctx, filter)
}
