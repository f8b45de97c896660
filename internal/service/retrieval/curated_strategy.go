package retrieval

import (
	"context"
	"fmt"

	"github.com/yourusername/practice-api/internal/domain/entity"
	"github.com/yourusername/practice-api/internal/domain/repository"
	"github.com/yourusername/practice-api/internal/service/classifier"
)

const (
	minCuratedGrade = classifier.MinGrade
	maxCuratedGrade = classifier.MaxGrade
)

// CuratedStrategy ищет в банке готовых вопросов. Кандидаты возвращаются
// как несохранённые entity.Question с источником curated.
type CuratedStrategy struct {
	curated repository.CuratedQuestionRepository
}

// NewCuratedStrategy создает уровень банка готовых вопросов
func NewCuratedStrategy(curated repository.CuratedQuestionRepository) *CuratedStrategy {
	return &CuratedStrategy{curated: curated}
}

func (s *CuratedStrategy) Name() string {
	return TierCuratedBank
}

func (s *CuratedStrategy) TryRetrieve(ctx context.Context, req Request) ([]entity.Question, error) {
	minGrade, maxGrade := curatedGradeWindow(req.Grade)
	bank, err := s.curated.FindByTopic(ctx, repository.CuratedFilter{
		TopicLabels: classifier.TopicLabels(req.TopicKey),
		MinGrade:    minGrade,
		MaxGrade:    maxGrade,
		Difficulty:  req.Difficulty,
		Limit:       candidateLimit,
	})
	if err != nil {
		return nil, err
	}

	candidates := make([]entity.Question, 0, len(bank))
	for i := range bank {
		if req.Exclusions.ShownText(bank[i].Text) {
			continue
		}
		candidates = append(candidates, fromCurated(&bank[i], req))
	}
	return candidates, nil
}

// curatedGradeWindow: [max(7, g-1), g]; без класса - весь диапазон
func curatedGradeWindow(grade *int) (int, int) {
	if grade == nil {
		return minCuratedGrade, maxCuratedGrade
	}
	lo := *grade - 1
	if lo < minCuratedGrade {
		lo = minCuratedGrade
	}
	return lo, *grade
}

// fromCurated переносит вопрос из банка в каталог. Тема и сложность берутся из запроса
// (банк отфильтрован по ним), подтема только из самого вопроса: банк по подтеме не фильтруется.
func fromCurated(cq *entity.CuratedQuestion, req Request) entity.Question {
	grade := cq.Grade
	labels := classifier.Classify(cq.Text, classifier.Metadata{Grade: &grade, Topic: cq.Topic, Subtopic: cq.Subtopic})

	q := entity.Question{
		ContentHash:   entity.ContentHash(cq.Text),
		Text:          cq.Text,
		CorrectAnswer: cq.CorrectAnswer,
		Explanation:   cq.Explanation,
		Hints:         cq.Hints,
		SolutionSteps: cq.SolutionSteps,
		Grade:         &grade,
		UnitTrack:     classifier.UnitTrackFor(cq.Text, grade),
		TopicKey:      req.TopicKey,
		Topic:         req.Topic,
		Difficulty:    req.Difficulty,
		Source:        entity.SourceCurated,
		OriginRef:     fmt.Sprintf("curated:%d", cq.ID),
		QualityScore:  50,
		IsActive:      true,
	}
	if q.Topic == "" {
		q.Topic = labels.Topic
	}
	q.SubtopicKey, q.Subtopic = labels.SubtopicWithin(req.TopicKey, cq.Subtopic)
	if !q.Difficulty.IsValid() {
		q.Difficulty = cq.Difficulty
	}
	if q.Hints == nil {
		q.Hints = entity.StringArray{}
	}
	if q.SolutionSteps == nil {
		q.SolutionSteps = entity.StringArray{}
	}
	return q
}
