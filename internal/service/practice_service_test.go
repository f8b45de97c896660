package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/practice-api/internal/domain/entity"
	"github.com/yourusername/practice-api/internal/domain/repository/mocks"
	"github.com/yourusername/practice-api/internal/pkg/logger"
	"github.com/yourusername/practice-api/internal/service/classifier"
	"github.com/yourusername/practice-api/internal/service/difficulty"
	"github.com/yourusername/practice-api/internal/service/generation"
	"github.com/yourusername/practice-api/internal/service/retrieval"
	"github.com/yourusername/practice-api/internal/service/similarity"
)

const practiceStudent = "student-abc"

type practiceFixture struct {
	svc       *PracticeService
	students  *mocks.MockStudentRepository
	questions *mocks.MemoryQuestionRepository
	curated   *mocks.MockCuratedQuestionRepository
	exposures *mocks.MemoryExposureRepository
	states    *mocks.MemoryDifficultyRepository
}

func newPracticeFixture(t *testing.T) *practiceFixture {
	t.Helper()
	log := logger.Nop()

	students := new(mocks.MockStudentRepository)
	students.On("ResolveOrCreate", mock.Anything, practiceStudent).Return(uint(7), nil).Maybe()

	questions := mocks.NewMemoryQuestionRepository()
	curated := new(mocks.MockCuratedQuestionRepository)
	curated.On("FindByTopic", mock.Anything, mock.Anything).Return([]entity.CuratedQuestion{}, nil).Maybe()
	exposures := mocks.NewMemoryExposureRepository()
	states := mocks.NewMemoryDifficultyRepository()

	guard := similarity.NewGuard(similarity.NewMemoryWindow(similarity.DefaultWindowSize, time.Hour), exposures, similarity.GuardConfig{}, log)
	engine := difficulty.NewEngine(exposures, states, difficulty.Config{}, log)
	retriever := retrieval.NewOrchestrator(questions, retrieval.DefaultStrategies(questions, curated), log)
	templates := generation.NewTemplateGenerator()
	chain := generation.NewChain(nil, templates, time.Second, log)

	svc := NewPracticeService(students, questions, exposures, guard, engine, retriever, chain, templates, log)
	var seed int64
	svc.seed = func() int64 {
		seed++
		return seed
	}
	return &practiceFixture{svc: svc, students: students, questions: questions, curated: curated, exposures: exposures, states: states}
}

func gradePtr(v int) *int { return &v }

func seedAlgebra(f *practiceFixture, n int) {
	for i := 1; i <= n; i++ {
		f.questions.Add(entity.Question{
			Text:          fmt.Sprintf("פתרו את המשוואה: %dx + %d = %d", i+1, i*3, (i+1)*i+i*3),
			CorrectAnswer: fmt.Sprint(i),
			Grade:         gradePtr(8),
			TopicKey:      "algebra",
			Topic:         "אלגברה",
			Difficulty:    entity.DifficultyMedium,
			QualityScore:  50,
			IsActive:      true,
		})
	}
}

func TestGetNextQuestion_Validation(t *testing.T) {
	f := newPracticeFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		req  NextQuestionRequest
	}{
		{"missing student", NextQuestionRequest{Topic: "algebra"}},
		{"missing topic", NextQuestionRequest{StudentID: practiceStudent, Topic: "  "}},
		{"unknown difficulty", NextQuestionRequest{StudentID: practiceStudent, Topic: "algebra", Difficulty: "extreme"}},
		{"grade out of range", NextQuestionRequest{StudentID: practiceStudent, Topic: "algebra", Grade: gradePtr(3)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := f.svc.GetNextQuestion(ctx, tt.req)
			assert.False(t, res.Success)
			assert.Equal(t, CodeInvalidInput, res.Code)
			assert.NotEmpty(t, res.Reason)
			assert.Nil(t, res.Question)
		})
	}
	f.students.AssertNotCalled(t, "ResolveOrCreate", mock.Anything, mock.Anything)
}

func TestGetNextQuestion_ServesFromCacheWithRecommendation(t *testing.T) {
	f := newPracticeFixture(t)
	seedAlgebra(f, 1)

	res := f.svc.GetNextQuestion(context.Background(), NextQuestionRequest{StudentID: practiceStudent, Topic: "אלגברה", Grade: gradePtr(8)})

	require.True(t, res.Success, res.Reason)
	assert.Equal(t, CodeOK, res.Code)
	assert.Equal(t, retrieval.TierTopicCache, res.Tier)
	assert.Equal(t, entity.DifficultyMedium, res.Difficulty)
	require.NotNil(t, res.Recommendation)
	assert.Zero(t, res.Recommendation.Confidence)

	shown := f.exposures.All()
	require.Len(t, shown, 1)
	assert.Equal(t, entity.ExposureShown, shown[0].Kind)
	assert.Equal(t, res.Question.ID, *shown[0].QuestionID)
	assert.Equal(t, "algebra", shown[0].TopicKey)

	stored, err := f.questions.GetByID(context.Background(), res.Question.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.UsageCount)
}

func TestGetNextQuestion_NoRepeatAcrossCalls(t *testing.T) {
	f := newPracticeFixture(t)
	seedAlgebra(f, 5)
	ctx := context.Background()

	seen := make(map[uint]bool)
	for i := 0; i < 5; i++ {
		res := f.svc.GetNextQuestion(ctx, NextQuestionRequest{StudentID: practiceStudent, Topic: "algebra", Difficulty: "medium", Grade: gradePtr(8)})
		require.True(t, res.Success, res.Reason)
		require.NotZero(t, res.Question.ID)
		assert.False(t, seen[res.Question.ID], "question %d served twice", res.Question.ID)
		seen[res.Question.ID] = true
		assert.Nil(t, res.Recommendation)
	}

	// каталог исчерпан: следующий вопрос генерируется и тоже не повторяется
	res := f.svc.GetNextQuestion(ctx, NextQuestionRequest{StudentID: practiceStudent, Topic: "algebra", Difficulty: "medium", Grade: gradePtr(8)})
	require.True(t, res.Success, res.Reason)
	assert.Equal(t, TierGenerated, res.Tier)
	assert.False(t, seen[res.Question.ID])
	assert.Equal(t, entity.SourceTemplate, res.Question.Source)
}

func TestGetNextQuestion_RequestExcludeIDs(t *testing.T) {
	f := newPracticeFixture(t)
	seedAlgebra(f, 2)

	res := f.svc.GetNextQuestion(context.Background(), NextQuestionRequest{
		StudentID: practiceStudent, Topic: "algebra", Difficulty: "medium", ExcludeIDs: []uint{1},
	})
	require.True(t, res.Success)
	assert.Equal(t, uint(2), res.Question.ID)
}

func TestGetNextQuestion_GeneratesAndStores(t *testing.T) {
	f := newPracticeFixture(t)

	res := f.svc.GetNextQuestion(context.Background(), NextQuestionRequest{StudentID: practiceStudent, Topic: "probability", Difficulty: "easy", Grade: gradePtr(9)})

	require.True(t, res.Success, res.Reason)
	assert.Equal(t, TierGenerated, res.Tier)
	require.NotZero(t, res.Question.ID)
	assert.Equal(t, "probability", res.Question.TopicKey)
	assert.Equal(t, entity.DifficultyEasy, res.Question.Difficulty)
	assert.Equal(t, 9, *res.Question.Grade)
	assert.Contains(t, res.Question.OriginRef, "template:probability:")

	stored, err := f.questions.GetByContentHash(context.Background(), entity.ContentHash(res.Question.Text))
	require.NoError(t, err)
	assert.Equal(t, res.Question.ID, stored.ID)
}

// fixedGenerator всегда возвращает один и тот же вопрос
type fixedGenerator struct {
	out generation.Generated
}

func (g fixedGenerator) Name() string { return "fixed" }

func (g fixedGenerator) Generate(_ context.Context, _ generation.Input) (*generation.Generated, error) {
	out := g.out
	return &out, nil
}

func TestGetNextQuestion_GeneratedTextIsClassified(t *testing.T) {
	f := newPracticeFixture(t)
	text := "פתור בעזרת נוסחת השורשים את המשוואה הריבועית x^2 - 5x + 6 = 0 ומצא את הדיסקרימיננטה"
	f.svc.generator = generation.NewChain(fixedGenerator{out: generation.Generated{
		Text: text, CorrectAnswer: "1", Source: entity.SourceAIGenerated, Model: "fixed",
	}}, generation.NewTemplateGenerator(), time.Second, logger.Nop())

	res := f.svc.GetNextQuestion(context.Background(), NextQuestionRequest{StudentID: practiceStudent, Topic: "algebra", Difficulty: "medium", Grade: gradePtr(11)})
	require.True(t, res.Success, res.Reason)
	assert.Equal(t, TierGenerated, res.Tier)

	stored, err := f.questions.GetByContentHash(context.Background(), entity.ContentHash(text))
	require.NoError(t, err)

	grade := 11
	labels := classifier.Classify(text, classifier.Metadata{Grade: &grade, Topic: "algebra"})
	require.NotNil(t, labels.SubtopicKey)
	assert.Equal(t, labels.SubtopicKey, stored.SubtopicKey)
	assert.Equal(t, labels.Subtopic, stored.Subtopic)
	assert.Equal(t, "quadratic-equations", *stored.SubtopicKey)
	require.NotNil(t, stored.UnitTrack)
	assert.Equal(t, 3, *stored.UnitTrack)
	assert.Equal(t, 11, stored.GradeValue())
	assert.Equal(t, "algebra", stored.TopicKey)
	assert.Equal(t, entity.DifficultyMedium, stored.Difficulty)
}

func TestGetNextQuestion_RequestedSubtopicKeptForGenerated(t *testing.T) {
	f := newPracticeFixture(t)
	text := "פתור את המשוואה 4x - 7 = 9"
	f.svc.generator = generation.NewChain(fixedGenerator{out: generation.Generated{
		Text: text, CorrectAnswer: "4", Source: entity.SourceAIGenerated, Model: "fixed",
	}}, generation.NewTemplateGenerator(), time.Second, logger.Nop())

	res := f.svc.GetNextQuestion(context.Background(), NextQuestionRequest{
		StudentID: practiceStudent, Topic: "algebra", Subtopic: "linear-equations", Difficulty: "easy", Grade: gradePtr(8),
	})
	require.True(t, res.Success, res.Reason)
	require.NotNil(t, res.Question.SubtopicKey)
	assert.Equal(t, "linear-equations", *res.Question.SubtopicKey)
	assert.Nil(t, res.Question.UnitTrack)
}

func TestGetNextQuestion_PersistenceFailureStillServes(t *testing.T) {
	f := newPracticeFixture(t)
	f.questions.CreateErr = errors.New("disk full")

	res := f.svc.GetNextQuestion(context.Background(), NextQuestionRequest{StudentID: practiceStudent, Topic: "geometry", Difficulty: "medium"})

	require.True(t, res.Success)
	assert.Zero(t, res.Question.ID)
	assert.NotEmpty(t, res.Question.Text)

	shown := f.exposures.All()
	require.Len(t, shown, 1)
	assert.Nil(t, shown[0].QuestionID)
}

func TestGetNextQuestion_GradeLeakFallsBackToNoQuestion(t *testing.T) {
	f := newPracticeFixture(t)

	// шаблоны по матанализу содержат слово "נגזרת" и не подходят 8 классу
	res := f.svc.GetNextQuestion(context.Background(), NextQuestionRequest{StudentID: practiceStudent, Topic: "calculus", Difficulty: "easy", Grade: gradePtr(8)})
	assert.False(t, res.Success)
	assert.Equal(t, CodeNoQuestion, res.Code)
	assert.Empty(t, f.exposures.All())
}

func TestGetNextQuestion_IdentityFailureDegrades(t *testing.T) {
	f := newPracticeFixture(t)
	seedAlgebra(f, 1)
	f.students.On("ResolveOrCreate", mock.Anything, "ghost").Return(uint(0), errors.New("db down"))

	res := f.svc.GetNextQuestion(context.Background(), NextQuestionRequest{StudentID: "ghost", Topic: "algebra"})

	require.True(t, res.Success)
	assert.Equal(t, entity.DifficultyMedium, res.Difficulty)
	assert.Equal(t, difficulty.ReasonIdentityUnavailable, res.Recommendation.ReasonCode)
	assert.Empty(t, f.exposures.All())
}

func TestSubmitAnswer(t *testing.T) {
	f := newPracticeFixture(t)
	seedAlgebra(f, 1)
	ctx := context.Background()

	res := f.svc.SubmitAnswer(ctx, SubmitAnswerRequest{StudentID: practiceStudent, QuestionID: 1, Answer: "x = 1", TimeSpentSeconds: 40})
	require.True(t, res.Success)
	assert.Equal(t, CodeOK, res.Code)
	assert.True(t, res.IsCorrect)
	require.NotNil(t, res.Adjustment)
	assert.False(t, res.Adjustment.ShouldAdjust)
	assert.Equal(t, difficulty.ReasonNeedMoreAnswers, res.Adjustment.ReasonCode)

	answers := f.exposures.All()
	require.Len(t, answers, 1)
	assert.Equal(t, entity.ExposureAnswered, answers[0].Kind)
	assert.Equal(t, 40, answers[0].TimeSpentSeconds)

	wrong := f.svc.SubmitAnswer(ctx, SubmitAnswerRequest{StudentID: practiceStudent, QuestionID: 1, Answer: "2"})
	assert.True(t, wrong.Success)
	assert.False(t, wrong.IsCorrect)
	assert.Equal(t, "1", wrong.CorrectAnswer)
}

func TestSubmitAnswer_Errors(t *testing.T) {
	f := newPracticeFixture(t)
	ctx := context.Background()

	res := f.svc.SubmitAnswer(ctx, SubmitAnswerRequest{StudentID: practiceStudent})
	assert.Equal(t, CodeInvalidInput, res.Code)

	res = f.svc.SubmitAnswer(ctx, SubmitAnswerRequest{StudentID: practiceStudent, QuestionID: 5, HintsUsed: -1})
	assert.Equal(t, CodeInvalidInput, res.Code)

	res = f.svc.SubmitAnswer(ctx, SubmitAnswerRequest{StudentID: practiceStudent, QuestionID: 404, Answer: "1"})
	assert.False(t, res.Success)
	assert.Equal(t, CodeNotFound, res.Code)
}

func TestSubmitAnswer_StateFailureDegrades(t *testing.T) {
	f := newPracticeFixture(t)
	seedAlgebra(f, 1)
	f.states.MutateErr = errors.New("deadlock")

	res := f.svc.SubmitAnswer(context.Background(), SubmitAnswerRequest{StudentID: practiceStudent, QuestionID: 1, Answer: "1"})
	assert.True(t, res.Success)
	assert.True(t, res.IsCorrect)
	assert.Equal(t, CodeDegraded, res.Code)
	assert.False(t, res.Adjustment.ShouldAdjust)
}

func TestGetRecommendedDifficulty(t *testing.T) {
	f := newPracticeFixture(t)
	ctx := context.Background()

	res := f.svc.GetRecommendedDifficulty(ctx, practiceStudent, "algebra")
	require.True(t, res.Success)
	assert.Equal(t, entity.DifficultyMedium, res.Recommendation.Difficulty)
	assert.Zero(t, res.Recommendation.Confidence)

	for i := 0; i < 5; i++ {
		adj := f.svc.CheckAdjustment(ctx, practiceStudent, "אלגברה", "medium", true)
		require.True(t, adj.Success)
	}
	res = f.svc.GetRecommendedDifficulty(ctx, practiceStudent, "algebra")
	assert.Equal(t, entity.DifficultyHard, res.Recommendation.Difficulty)
	assert.Equal(t, 0.5, res.Recommendation.Confidence)

	assert.Equal(t, CodeInvalidInput, f.svc.GetRecommendedDifficulty(ctx, "", "algebra").Code)
}

func TestCheckAdjustment(t *testing.T) {
	f := newPracticeFixture(t)
	ctx := context.Background()

	assert.Equal(t, CodeInvalidInput, f.svc.CheckAdjustment(ctx, practiceStudent, "algebra", "impossible", true).Code)
	assert.Equal(t, CodeInvalidInput, f.svc.CheckAdjustment(ctx, practiceStudent, "", "easy", true).Code)

	var last AdjustmentResult
	for i := 0; i < 3; i++ {
		last = f.svc.CheckAdjustment(ctx, practiceStudent, "algebra", "easy", true)
	}
	assert.True(t, last.Adjustment.ShouldAdjust)
	assert.Equal(t, entity.DifficultyMedium, last.Adjustment.NewDifficulty)
	assert.Equal(t, last.Adjustment.Reason, last.Reason)
	require.Len(t, f.states.Adjustments, 1)
}

func TestClassify(t *testing.T) {
	f := newPracticeFixture(t)
	ctx := context.Background()

	res := f.svc.Classify(ctx, "נגזרת של פונקציה", classifier.Metadata{})
	require.True(t, res.Success)
	assert.Equal(t, 12, res.Classification.Grade)
	assert.Equal(t, "חשבון דיפרנציאלי", res.Classification.Topic)

	assert.Equal(t, CodeInvalidInput, f.svc.Classify(ctx, " ", classifier.Metadata{}).Code)
}

func TestTopicStats(t *testing.T) {
	f := newPracticeFixture(t)
	seedAlgebra(f, 3)

	stats, err := f.svc.TopicStats(context.Background())
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, int64(3), stats[0].Total)
	assert.Equal(t, 50.0, stats[0].AvgQuality)
}
