package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/yourusername/practice-api/internal/domain/entity"
	"github.com/yourusername/practice-api/internal/domain/repository"
	apperrors "github.com/yourusername/practice-api/internal/pkg/errors"
	"github.com/yourusername/practice-api/internal/pkg/i18n"
	"github.com/yourusername/practice-api/internal/pkg/logger"
	"github.com/yourusername/practice-api/internal/service/classifier"
	"github.com/yourusername/practice-api/internal/service/difficulty"
	"github.com/yourusername/practice-api/internal/service/generation"
	"github.com/yourusername/practice-api/internal/service/retrieval"
	"github.com/yourusername/practice-api/internal/service/similarity"
)

// Коды результатов на границе сервиса
const (
	CodeOK           = "ok"
	CodeDegraded     = "degraded"
	CodeInvalidInput = "invalid_input"
	CodeNotFound     = "not_found"
	CodeNoQuestion   = "no_question"
	CodeUnavailable  = "unavailable"
)

// TierGenerated - вопрос создан генератором, а не найден в хранилищах
const TierGenerated = "generated"

// Outcome - общая часть всех результатов: операции сервиса не возвращают error
type Outcome struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Reason  string `json:"reason,omitempty"`
}

// NextQuestionRequest - запрос следующего вопроса. StudentID - внешний идентификатор.
type NextQuestionRequest struct {
	StudentID  string
	Topic      string
	Subtopic   string
	Difficulty string
	Grade      *int
	ExcludeIDs []uint
}

// NextQuestionResult - выданный вопрос и то, как он был получен
type NextQuestionResult struct {
	Outcome
	Question       *entity.Question           `json:"question,omitempty"`
	Tier           string                     `json:"tier,omitempty"`
	Difficulty     entity.Difficulty          `json:"difficulty,omitempty"`
	Recommendation *difficulty.Recommendation `json:"recommendation,omitempty"`
}

// SubmitAnswerRequest - ответ студента на выданный вопрос
type SubmitAnswerRequest struct {
	StudentID        string
	QuestionID       uint
	Answer           string
	TimeSpentSeconds int
	HintsUsed        int
}

// SubmitAnswerResult - проверка ответа и решение по сложности
type SubmitAnswerResult struct {
	Outcome
	IsCorrect     bool                   `json:"is_correct"`
	CorrectAnswer string                 `json:"correct_answer,omitempty"`
	Explanation   string                 `json:"explanation,omitempty"`
	SolutionSteps []string               `json:"solution_steps,omitempty"`
	Adjustment    *difficulty.Adjustment `json:"adjustment,omitempty"`
}

// RecommendationResult оборачивает difficulty.Recommendation
type RecommendationResult struct {
	Outcome
	Recommendation difficulty.Recommendation `json:"recommendation"`
}

// AdjustmentResult оборачивает difficulty.Adjustment
type AdjustmentResult struct {
	Outcome
	Adjustment difficulty.Adjustment `json:"adjustment"`
}

// ClassificationResult оборачивает classifier.Classification
type ClassificationResult struct {
	Outcome
	Classification classifier.Classification `json:"classification"`
}

// PracticeService - фасад движка: подбор вопроса, приём ответа, рекомендации сложности
type PracticeService struct {
	students  repository.StudentRepository
	questions repository.QuestionRepository
	exposures repository.ExposureRepository
	guard     *similarity.Guard
	engine    *difficulty.Engine
	retriever *retrieval.Orchestrator
	generator generation.Generator
	templates generation.Generator
	log       *logger.Logger
	seed      func() int64
}

// NewPracticeService создает сервис. generator - основная цепочка генерации,
// templates - запасной генератор на случай, если результат основной цепочки отвергнут.
func NewPracticeService(
	students repository.StudentRepository,
	questions repository.QuestionRepository,
	exposures repository.ExposureRepository,
	guard *similarity.Guard,
	engine *difficulty.Engine,
	retriever *retrieval.Orchestrator,
	generator generation.Generator,
	templates generation.Generator,
	log *logger.Logger,
) *PracticeService {
	return &PracticeService{
		students:  students,
		questions: questions,
		exposures: exposures,
		guard:     guard,
		engine:    engine,
		retriever: retriever,
		generator: generator,
		templates: templates,
		log:       log,
		seed:      func() int64 { return time.Now().UnixNano() },
	}
}

func succeeded(ctx context.Context, msgID string, data map[string]any) Outcome {
	return Outcome{Success: true, Code: CodeOK, Reason: i18n.Td(ctx, msgID, data)}
}

func failed(ctx context.Context, code, msgID string, data map[string]any) Outcome {
	return Outcome{Success: false, Code: code, Reason: i18n.Td(ctx, msgID, data)}
}

func invalid(ctx context.Context, detail string) Outcome {
	return failed(ctx, CodeInvalidInput, "InvalidInput", map[string]any{"Detail": detail})
}

// resolveStudent возвращает 0, если идентичность не удалось разрешить
func (s *PracticeService) resolveStudent(ctx context.Context, externalID string) uint {
	id, err := s.students.ResolveOrCreate(ctx, externalID)
	if err != nil {
		s.log.Warn("[PracticeService] Не удалось разрешить студента, работаем без истории", "student", externalID, "error", err)
		return 0
	}
	return id
}

type topicRef struct {
	key         string
	label       string
	subtopicKey *string
	subtopic    *string
}

// resolveTopic переводит тему из запроса в slug словаря; незнакомые темы
// используются как есть (нормализованный текст в качестве ключа)
func resolveTopic(topic, subtopic string) topicRef {
	ref := topicRef{}
	if key, label, found := classifier.ResolveTopic(topic); found {
		ref.key, ref.label = key, label
	} else {
		ref.key, ref.label = entity.NormalizeText(topic), strings.TrimSpace(topic)
	}
	if subtopic = strings.TrimSpace(subtopic); subtopic != "" {
		key, label, found := classifier.ResolveSubtopic(ref.key, subtopic)
		if !found {
			key, label = entity.NormalizeText(subtopic), subtopic
		}
		ref.subtopicKey, ref.subtopic = &key, &label
	}
	return ref
}

func validGrade(grade *int) bool {
	return grade == nil || (*grade >= classifier.MinGrade && *grade <= classifier.MaxGrade)
}

// GetNextQuestion подбирает вопрос: кеш, банк, затем генерация
func (s *PracticeService) GetNextQuestion(ctx context.Context, req NextQuestionRequest) NextQuestionResult {
	externalID := strings.TrimSpace(req.StudentID)
	switch {
	case externalID == "":
		return NextQuestionResult{Outcome: invalid(ctx, "student_id")}
	case strings.TrimSpace(req.Topic) == "":
		return NextQuestionResult{Outcome: invalid(ctx, "topic")}
	case !validGrade(req.Grade):
		return NextQuestionResult{Outcome: invalid(ctx, "grade")}
	}
	var requested entity.Difficulty
	if req.Difficulty != "" {
		d, valid := entity.ParseDifficulty(req.Difficulty)
		if !valid {
			return NextQuestionResult{Outcome: invalid(ctx, "difficulty")}
		}
		requested = d
	}

	topic := resolveTopic(req.Topic, req.Subtopic)
	studentID := s.resolveStudent(ctx, externalID)

	// история и рекомендация независимы, грузим параллельно
	var (
		excl *similarity.Exclusions
		rec  *difficulty.Recommendation
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		excl = s.guard.Load(gctx, studentID, topic.key)
		return nil
	})
	if requested == "" {
		g.Go(func() error {
			r, err := s.engine.Recommend(gctx, studentID, topic.key)
			if err != nil {
				s.log.Warn("[PracticeService] Рекомендация недоступна, используем medium", "student_id", studentID, "topic", topic.key, "error", err)
			}
			rec = &r
			return nil
		})
	}
	_ = g.Wait()

	target := requested
	if target == "" {
		target = rec.Difficulty
	}
	if len(req.ExcludeIDs) > 0 {
		excl.QuestionIDs = append(excl.QuestionIDs, req.ExcludeIDs...)
	}

	retrieved := s.retriever.Retrieve(ctx, retrieval.Request{
		StudentID:   studentID,
		TopicKey:    topic.key,
		Topic:       topic.label,
		SubtopicKey: topic.subtopicKey,
		Subtopic:    topic.subtopic,
		Difficulty:  target,
		Grade:       req.Grade,
		Exclusions:  excl,
	})
	if retrieved.Outcome == retrieval.OutcomeFound {
		s.recordShown(ctx, studentID, topic.key, target, retrieved.Question)
		return NextQuestionResult{
			Outcome:        succeeded(ctx, "QuestionServed", map[string]any{"Tier": retrieved.Tier}),
			Question:       retrieved.Question,
			Tier:           retrieved.Tier,
			Difficulty:     target,
			Recommendation: rec,
		}
	}

	question, err := s.generate(ctx, topic, target, req.Grade, excl)
	if err != nil {
		s.log.Error("[PracticeService] Не удалось получить вопрос", "topic", topic.key, "difficulty", target, "error", err)
		return NextQuestionResult{Outcome: failed(ctx, CodeNoQuestion, "NoQuestion", nil), Difficulty: target, Recommendation: rec}
	}
	s.recordShown(ctx, studentID, topic.key, target, question)
	return NextQuestionResult{
		Outcome:        succeeded(ctx, "QuestionGenerated", nil),
		Question:       question,
		Tier:           TierGenerated,
		Difficulty:     target,
		Recommendation: rec,
	}
}

// generate создает вопрос и сохраняет его в каталог. Сбой записи не мешает выдаче:
// такой вопрос уходит с ID 0.
func (s *PracticeService) generate(ctx context.Context, topic topicRef, target entity.Difficulty, grade *int, excl *similarity.Exclusions) (*entity.Question, error) {
	effectiveGrade := classifier.DefaultGrade
	if grade != nil {
		effectiveGrade = *grade
	}

	in := generation.Input{
		TopicKey:    topic.key,
		Topic:       topic.label,
		SubtopicKey: topic.subtopicKey,
		Subtopic:    topic.subtopic,
		Difficulty:  target,
		Grade:       effectiveGrade,
		UnitTrack:   classifier.UnitTrackFor("", effectiveGrade),
		Style:       generation.StyleFor(effectiveGrade, target),
		Avoid:       excl.AvoidTexts,
		Seed:        s.seed(),
	}

	accept := func(out *generation.Generated) error {
		if kw, leaks := classifier.LeaksAboveGrade(out.Text, effectiveGrade); leaks {
			return fmt.Errorf("generated text uses material above grade %d (%s)", effectiveGrade, kw)
		}
		if excl.ShownText(out.Text) || excl.Rejects(out.Text) {
			return errors.New("generated text repeats a recent question")
		}
		return nil
	}

	out, err := s.generator.Generate(ctx, in)
	if err == nil {
		err = accept(out)
	}
	if err != nil && s.templates != nil {
		s.log.Warn("[PracticeService] Результат генерации отвергнут, пробуем шаблон", "topic", topic.key, "error", err)
		in.Seed++
		out, err = s.templates.Generate(ctx, in)
		if err == nil {
			err = accept(out)
		}
	}
	if err != nil {
		return nil, err
	}

	// Класс, тема и сложность заданы запросом; подтема и מסלול יח"ל по тексту
	labels := classifier.Classify(out.Text, classifier.Metadata{Grade: &effectiveGrade, Topic: topic.key})
	subtopicKey, subtopic := topic.subtopicKey, topic.subtopic
	if subtopicKey == nil {
		subtopicKey, subtopic = labels.SubtopicWithin(topic.key, "")
	}

	question := &entity.Question{
		ContentHash:   entity.ContentHash(out.Text),
		Text:          out.Text,
		CorrectAnswer: out.CorrectAnswer,
		Explanation:   out.Explanation,
		Hints:         entity.StringArray(out.Hints),
		SolutionSteps: entity.StringArray(out.SolutionSteps),
		Grade:         &effectiveGrade,
		UnitTrack:     classifier.UnitTrackFor(out.Text, effectiveGrade),
		TopicKey:      topic.key,
		Topic:         topic.label,
		SubtopicKey:   subtopicKey,
		Subtopic:      subtopic,
		Difficulty:    target,
		Source:        out.Source,
		OriginRef:     out.Model + ":" + uuid.NewString(),
		QualityScore:  50,
		IsActive:      true,
	}
	if question.Hints == nil {
		question.Hints = entity.StringArray{}
	}
	if question.SolutionSteps == nil {
		question.SolutionSteps = entity.StringArray{}
	}

	stored, _, err := s.questions.CreateOrGetByHash(ctx, question)
	if err != nil {
		s.log.Warn("[PracticeService] Сгенерированный вопрос не сохранён", "topic", topic.key, "error", err)
		return question, nil
	}
	if err := s.questions.IncrementUsage(ctx, stored.ID); err != nil {
		s.log.Warn("[PracticeService] Не удалось обновить usage_count", "question_id", stored.ID, "error", err)
	}
	return stored, nil
}

// recordShown пишет показ в журнал и в сессионное окно
func (s *PracticeService) recordShown(ctx context.Context, studentID uint, topicKey string, d entity.Difficulty, q *entity.Question) {
	if studentID == 0 {
		return
	}
	exposure := &entity.Exposure{
		StudentID:  studentID,
		TopicKey:   topicKey,
		Difficulty: d,
		Kind:       entity.ExposureShown,
	}
	if q.ID != 0 {
		id := q.ID
		exposure.QuestionID = &id
	}
	if err := s.exposures.Append(ctx, exposure); err != nil {
		s.log.Warn("[PracticeService] Не удалось записать показ", "student_id", studentID, "question_id", q.ID, "error", err)
	}
	s.guard.Remember(ctx, studentID, topicKey, q)
}

// SubmitAnswer проверяет ответ, обновляет статистику вопроса и сложность студента
func (s *PracticeService) SubmitAnswer(ctx context.Context, req SubmitAnswerRequest) SubmitAnswerResult {
	externalID := strings.TrimSpace(req.StudentID)
	switch {
	case externalID == "":
		return SubmitAnswerResult{Outcome: invalid(ctx, "student_id")}
	case req.QuestionID == 0:
		return SubmitAnswerResult{Outcome: invalid(ctx, "question_id")}
	case req.TimeSpentSeconds < 0 || req.HintsUsed < 0:
		return SubmitAnswerResult{Outcome: invalid(ctx, "time_spent_seconds/hints_used")}
	}

	question, err := s.questions.GetByID(ctx, req.QuestionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return SubmitAnswerResult{Outcome: failed(ctx, CodeNotFound, "QuestionNotFound", nil)}
		}
		s.log.Error("[PracticeService] Не удалось загрузить вопрос", "question_id", req.QuestionID, "error", err)
		return SubmitAnswerResult{Outcome: failed(ctx, CodeUnavailable, "Unavailable", nil)}
	}

	correct := CheckAnswer(req.Answer, question.CorrectAnswer)
	result := SubmitAnswerResult{
		IsCorrect:     correct,
		CorrectAnswer: question.CorrectAnswer,
		Explanation:   question.Explanation,
		SolutionSteps: question.SolutionSteps,
	}
	if correct {
		result.Outcome = succeeded(ctx, "AnswerCorrect", nil)
	} else {
		result.Outcome = succeeded(ctx, "AnswerIncorrect", nil)
	}

	studentID := s.resolveStudent(ctx, externalID)
	questionID := question.ID
	adj, err := s.engine.RecordAnswer(ctx, difficulty.Answer{
		StudentID:        studentID,
		QuestionID:       &questionID,
		TopicKey:         question.TopicKey,
		Difficulty:       question.Difficulty,
		IsCorrect:        correct,
		TimeSpentSeconds: req.TimeSpentSeconds,
		HintsUsed:        req.HintsUsed,
	})
	result.Adjustment = &adj
	if studentID == 0 || err != nil {
		if err != nil {
			s.log.Warn("[PracticeService] Ответ не учтён в сложности", "student_id", studentID, "question_id", questionID, "error", err)
		}
		result.Code = CodeDegraded
		return result
	}

	if err := s.questions.RecomputeStats(ctx, questionID); err != nil {
		s.log.Warn("[PracticeService] Не удалось пересчитать статистику вопроса", "question_id", questionID, "error", err)
	}
	return result
}

// GetRecommendedDifficulty рекомендует сложность; пустая тема - по всем темам
func (s *PracticeService) GetRecommendedDifficulty(ctx context.Context, studentID, topic string) RecommendationResult {
	externalID := strings.TrimSpace(studentID)
	if externalID == "" {
		return RecommendationResult{Outcome: invalid(ctx, "student_id")}
	}
	topicKey := ""
	if strings.TrimSpace(topic) != "" {
		topicKey = resolveTopic(topic, "").key
	}

	id := s.resolveStudent(ctx, externalID)
	rec, err := s.engine.Recommend(ctx, id, topicKey)
	out := RecommendationResult{Recommendation: rec, Outcome: Outcome{Success: true, Code: CodeOK, Reason: rec.Reason}}
	if err != nil {
		s.log.Warn("[PracticeService] Рекомендация по умолчанию", "student_id", id, "topic", topicKey, "error", err)
	}
	if id == 0 || err != nil {
		out.Code = CodeDegraded
	}
	return out
}

// CheckAdjustment учитывает ответ без привязки к вопросу каталога
func (s *PracticeService) CheckAdjustment(ctx context.Context, studentID, topic, level string, isCorrect bool) AdjustmentResult {
	externalID := strings.TrimSpace(studentID)
	switch {
	case externalID == "":
		return AdjustmentResult{Outcome: invalid(ctx, "student_id")}
	case strings.TrimSpace(topic) == "":
		return AdjustmentResult{Outcome: invalid(ctx, "topic")}
	}
	current, valid := entity.ParseDifficulty(level)
	if !valid {
		return AdjustmentResult{Outcome: invalid(ctx, "difficulty")}
	}

	id := s.resolveStudent(ctx, externalID)
	adj, err := s.engine.RecordAnswer(ctx, difficulty.Answer{
		StudentID:  id,
		TopicKey:   resolveTopic(topic, "").key,
		Difficulty: current,
		IsCorrect:  isCorrect,
	})
	out := AdjustmentResult{Adjustment: adj, Outcome: Outcome{Success: true, Code: CodeOK, Reason: adj.Reason}}
	if err != nil {
		s.log.Warn("[PracticeService] Проверка сложности без сохранения", "student_id", id, "error", err)
	}
	if id == 0 || err != nil {
		out.Code = CodeDegraded
	}
	return out
}

// Classify - классификация текста; единственная ошибка - пустой текст
func (s *PracticeService) Classify(ctx context.Context, text string, meta classifier.Metadata) ClassificationResult {
	if strings.TrimSpace(text) == "" {
		return ClassificationResult{Outcome: invalid(ctx, "text")}
	}
	return ClassificationResult{
		Outcome:        Outcome{Success: true, Code: CodeOK},
		Classification: classifier.Classify(text, meta),
	}
}

// TopicStats - агрегаты каталога для админки и выгрузки
func (s *PracticeService) TopicStats(ctx context.Context) ([]repository.TopicStats, error) {
	stats, err := s.questions.GetTopicStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("topic stats: %w", err)
	}
	return stats, nil
}

// DeactivateQuestion снимает вопрос с выдачи; запись и статистика остаются
func (s *PracticeService) DeactivateQuestion(ctx context.Context, id uint) error {
	if err := s.questions.Deactivate(ctx, id); err != nil {
		return fmt.Errorf("deactivate question %d: %w", id, err)
	}
	s.log.Info("[PracticeService] Вопрос снят с выдачи", "question_id", id)
	return nil
}
