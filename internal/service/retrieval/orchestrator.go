package retrieval

import (
	"context"

	"github.com/yourusername/practice-api/internal/domain/entity"
	"github.com/yourusername/practice-api/internal/domain/repository"
	"github.com/yourusername/practice-api/internal/pkg/logger"
	"github.com/yourusername/practice-api/internal/service/classifier"
)

// Outcome - итог прохода по цепочке
type Outcome string

const (
	OutcomeFound              Outcome = "found"
	OutcomeGenerationRequired Outcome = "generation_required"
)

// Result - выбранный вопрос и уровень, на котором он найден
type Result struct {
	Outcome  Outcome
	Tier     string
	Question *entity.Question
}

// Orchestrator проходит уровни по порядку и отдаёт первого допустимого кандидата
type Orchestrator struct {
	questions  repository.QuestionRepository
	strategies []Strategy
	log        *logger.Logger
}

// NewOrchestrator создает оркестратор с явной цепочкой уровней
func NewOrchestrator(questions repository.QuestionRepository, strategies []Strategy, log *logger.Logger) *Orchestrator {
	return &Orchestrator{questions: questions, strategies: strategies, log: log}
}

// DefaultStrategies - exact_cache, curated_bank, topic_cache
func DefaultStrategies(questions repository.QuestionRepository, curated repository.CuratedQuestionRepository) []Strategy {
	return []Strategy{
		NewExactCacheStrategy(questions),
		NewCuratedStrategy(curated),
		NewTopicCacheStrategy(questions),
	}
}

// Retrieve никогда не возвращает ошибку: сбой уровня логируется, и цепочка идёт дальше
func (o *Orchestrator) Retrieve(ctx context.Context, req Request) Result {
	for _, strategy := range o.strategies {
		if ctx.Err() != nil {
			break
		}
		candidates, err := strategy.TryRetrieve(ctx, req)
		if err != nil {
			o.log.Warn("[Retrieval] Уровень недоступен", "tier", strategy.Name(), "topic", req.TopicKey, "error", err)
			continue
		}
		for i := range candidates {
			if !o.acceptable(&candidates[i], req, strategy.Name()) {
				continue
			}
			question, ok := o.materialize(ctx, &candidates[i], req)
			if !ok {
				continue
			}
			o.recordUsage(ctx, question)
			return Result{Outcome: OutcomeFound, Tier: strategy.Name(), Question: question}
		}
	}
	return Result{Outcome: OutcomeGenerationRequired}
}

// acceptable применяет фильтр утечки класса и фильтр похожести
func (o *Orchestrator) acceptable(q *entity.Question, req Request, tier string) bool {
	if q.ID != 0 && req.Exclusions.Excluded(q.ID) {
		return false
	}
	if req.Grade != nil {
		if kw, leaks := classifier.LeaksAboveGrade(q.Text, *req.Grade); leaks {
			o.log.Debug("[Retrieval] Кандидат отброшен: материал старшего класса",
				"tier", tier, "question_id", q.ID, "grade", *req.Grade, "keyword", kw)
			return false
		}
	}
	if req.Exclusions.ShownText(q.Text) || req.Exclusions.Rejects(q.Text) {
		o.log.Debug("[Retrieval] Кандидат отброшен: похож на недавний", "tier", tier, "question_id", q.ID)
		return false
	}
	return true
}

// materialize сохраняет несохранённого кандидата (из банка) в каталог.
// При сбое записи вопрос всё равно выдаётся, но без ID.
func (o *Orchestrator) materialize(ctx context.Context, q *entity.Question, req Request) (*entity.Question, bool) {
	if q.ID != 0 {
		return q, true
	}
	stored, created, err := o.questions.CreateOrGetByHash(ctx, q)
	if err != nil {
		o.log.Warn("[Retrieval] Не удалось сохранить вопрос из банка", "origin", q.OriginRef, "error", err)
		return q, true
	}
	// тот же текст уже был в каталоге и студент его видел
	if !created && req.Exclusions.Excluded(stored.ID) {
		return nil, false
	}
	return stored, true
}

func (o *Orchestrator) recordUsage(ctx context.Context, q *entity.Question) {
	if q.ID == 0 {
		return
	}
	if err := o.questions.IncrementUsage(ctx, q.ID); err != nil {
		o.log.Warn("[Retrieval] Не удалось обновить usage_count", "question_id", q.ID, "error", err)
		return
	}
	q.UsageCount++
}
