package difficulty

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/practice-api/internal/domain/entity"
	"github.com/yourusername/practice-api/internal/domain/repository/mocks"
	"github.com/yourusername/practice-api/internal/pkg/logger"
)

const (
	testStudent = uint(42)
	testTopic   = "algebra"
)

type engineFixture struct {
	engine    *Engine
	exposures *mocks.MemoryExposureRepository
	states    *mocks.MemoryDifficultyRepository
}

func newFixture() *engineFixture {
	exposures := mocks.NewMemoryExposureRepository()
	clock := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	exposures.Now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	states := mocks.NewMemoryDifficultyRepository()
	return &engineFixture{
		engine:    NewEngine(exposures, states, Config{}, logger.Nop()),
		exposures: exposures,
		states:    states,
	}
}

func (f *engineFixture) answer(t *testing.T, d entity.Difficulty, correct bool) Adjustment {
	t.Helper()
	adj, err := f.engine.RecordAnswer(context.Background(), Answer{
		StudentID:  testStudent,
		TopicKey:   testTopic,
		Difficulty: d,
		IsCorrect:  correct,
	})
	require.NoError(t, err)
	return adj
}

func TestDecide(t *testing.T) {
	cases := []struct {
		name     string
		current  entity.Difficulty
		accuracy float64
		want     entity.Difficulty
		code     ReasonCode
	}{
		{"excellent easy", entity.DifficultyEasy, 100, entity.DifficultyMedium, ReasonEscalate},
		{"excellent medium", entity.DifficultyMedium, 90, entity.DifficultyHard, ReasonEscalate},
		{"excellent hard stays", entity.DifficultyHard, 100, entity.DifficultyHard, ReasonKeep},
		{"good easy", entity.DifficultyEasy, 80, entity.DifficultyMedium, ReasonEasyToMedium},
		{"good medium stays", entity.DifficultyMedium, 80, entity.DifficultyMedium, ReasonKeep},
		{"struggling hard", entity.DifficultyHard, 20, entity.DifficultyMedium, ReasonDeescalate},
		{"struggling medium", entity.DifficultyMedium, 39, entity.DifficultyEasy, ReasonDeescalate},
		{"struggling easy stays", entity.DifficultyEasy, 0, entity.DifficultyEasy, ReasonKeep},
		{"weak medium", entity.DifficultyMedium, 45, entity.DifficultyEasy, ReasonMediumToEasy},
		{"weak hard stays", entity.DifficultyHard, 45, entity.DifficultyHard, ReasonKeep},
		{"average medium", entity.DifficultyMedium, 60, entity.DifficultyMedium, ReasonKeep},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, code := decide(tc.current, tc.accuracy)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, tc.code, code)
		})
	}
}

func TestRecommendThresholds(t *testing.T) {
	cases := []struct {
		accuracy float64
		want     entity.Difficulty
	}{
		{100, entity.DifficultyHard},
		{85, entity.DifficultyHard},
		{84.9, entity.DifficultyMedium},
		{60, entity.DifficultyMedium},
		{59, entity.DifficultyEasy},
		{0, entity.DifficultyEasy},
	}
	for _, tc := range cases {
		got, _ := recommend(tc.accuracy)
		assert.Equal(t, tc.want, got, "accuracy %.1f", tc.accuracy)
	}
}

func answers(pattern ...bool) []entity.Exposure {
	out := make([]entity.Exposure, len(pattern))
	for i, c := range pattern {
		out[i] = entity.Exposure{IsCorrect: c, Kind: entity.ExposureAnswered}
	}
	return out
}

func TestTrendOf(t *testing.T) {
	// новые первыми
	assert.Equal(t, entity.TrendImproving, trendOf(answers(true, true, true, false, false, false)))
	assert.Equal(t, entity.TrendDeclining, trendOf(answers(false, false, true, true)))
	assert.Equal(t, entity.TrendStable, trendOf(answers(true, false, true, false)))
	assert.Equal(t, entity.TrendStable, trendOf(answers(true, false, false)))
}

func TestRecordAnswer_BelowMinimumNeverAdjusts(t *testing.T) {
	f := newFixture()

	adj := f.answer(t, entity.DifficultyMedium, true)
	assert.False(t, adj.ShouldAdjust)
	assert.Equal(t, ReasonNeedMoreAnswers, adj.ReasonCode)
	assert.InDelta(t, 1.0/3.0, adj.Confidence, 1e-9)
	assert.Contains(t, adj.Reason, "2")
	assert.Equal(t, 6, adj.Level)

	adj = f.answer(t, entity.DifficultyMedium, true)
	assert.False(t, adj.ShouldAdjust)
	assert.Equal(t, 2, adj.TotalCount)
	assert.Equal(t, 7, adj.Level)

	assert.Empty(t, f.states.Adjustments)
	assert.Len(t, f.exposures.All(), 2)
}

func TestRecordAnswer_EscalatesAfterStreak(t *testing.T) {
	f := newFixture()
	f.answer(t, entity.DifficultyMedium, true)
	f.answer(t, entity.DifficultyMedium, true)
	adj := f.answer(t, entity.DifficultyMedium, true)

	assert.True(t, adj.ShouldAdjust)
	assert.Equal(t, entity.DifficultyMedium, adj.CurrentDifficulty)
	assert.Equal(t, entity.DifficultyHard, adj.NewDifficulty)
	assert.Equal(t, ReasonEscalate, adj.ReasonCode)
	assert.Equal(t, 8, adj.Level)
	assert.Equal(t, 3, adj.CorrectCount)
	assert.Equal(t, 100.0, adj.Accuracy)
	assert.InDelta(t, 0.6, adj.Confidence, 1e-9)

	require.Len(t, f.states.Adjustments, 1)
	history := f.states.Adjustments[0]
	assert.Equal(t, testStudent, history.StudentID)
	assert.Equal(t, entity.DifficultyMedium, history.From)
	assert.Equal(t, entity.DifficultyHard, history.To)
	assert.Equal(t, 7, history.FromLevel)
	assert.Equal(t, 8, history.ToLevel)

	state, err := f.engine.State(context.Background(), testStudent, testTopic)
	require.NoError(t, err)
	assert.Equal(t, entity.DifficultyHard, state.Label())
	assert.Equal(t, 3, state.QuestionsAnswered)
	assert.Equal(t, 3, state.CorrectCount)
}

func TestRecordAnswer_DeescalatesFromHard(t *testing.T) {
	f := newFixture()
	f.answer(t, entity.DifficultyHard, false)
	f.answer(t, entity.DifficultyHard, false)
	adj := f.answer(t, entity.DifficultyHard, false)

	assert.True(t, adj.ShouldAdjust)
	assert.Equal(t, entity.DifficultyMedium, adj.NewDifficulty)
	assert.Equal(t, ReasonDeescalate, adj.ReasonCode)
	assert.Equal(t, 5, adj.Level)
}

func TestRecordAnswer_HoldsAndNudgesWithinBand(t *testing.T) {
	f := newFixture()
	f.answer(t, entity.DifficultyMedium, true)
	f.answer(t, entity.DifficultyMedium, false)
	adj := f.answer(t, entity.DifficultyMedium, true)

	// 2 из 3 на medium: правила таблицы не срабатывают
	assert.False(t, adj.ShouldAdjust)
	assert.Equal(t, ReasonKeep, adj.ReasonCode)
	assert.Equal(t, entity.DifficultyMedium, adj.NewDifficulty)
	assert.Equal(t, 6, adj.Level)
	assert.Empty(t, f.states.Adjustments)
}

func TestRecordAnswer_StoredLabelWinsOverRequested(t *testing.T) {
	f := newFixture()
	first := f.answer(t, entity.DifficultyEasy, true)
	assert.Empty(t, first.RequestedDifficulty)

	adj := f.answer(t, entity.DifficultyHard, true)
	assert.Equal(t, entity.DifficultyEasy, adj.CurrentDifficulty)
	assert.Equal(t, entity.DifficultyEasy, adj.NewDifficulty)
	assert.Equal(t, entity.DifficultyHard, adj.RequestedDifficulty)

	state, err := f.engine.State(context.Background(), testStudent, testTopic)
	require.NoError(t, err)
	assert.Equal(t, entity.DifficultyEasy, state.Label())
}

func TestRecordAnswer_IdentityUnavailable(t *testing.T) {
	f := newFixture()
	adj, err := f.engine.RecordAnswer(context.Background(), Answer{TopicKey: testTopic, Difficulty: entity.DifficultyHard, IsCorrect: true})

	require.NoError(t, err)
	assert.False(t, adj.ShouldAdjust)
	assert.Equal(t, ReasonIdentityUnavailable, adj.ReasonCode)
	assert.Equal(t, entity.DifficultyHard, adj.NewDifficulty)
	assert.Zero(t, adj.Confidence)
	assert.NotEmpty(t, adj.Reason)
	assert.Empty(t, f.exposures.All())
}

func TestRecordAnswer_StateFailureHolds(t *testing.T) {
	f := newFixture()
	f.states.MutateErr = errors.New("deadlock detected")

	adj, err := f.engine.RecordAnswer(context.Background(), Answer{StudentID: testStudent, TopicKey: testTopic, Difficulty: entity.DifficultyEasy, IsCorrect: true})
	require.Error(t, err)
	assert.False(t, adj.ShouldAdjust)
	assert.Equal(t, entity.DifficultyEasy, adj.NewDifficulty)
}

func TestRecordAnswer_AppendFailure(t *testing.T) {
	exposures := new(mocks.MockExposureRepository)
	exposures.On("Append", mock.Anything, mock.AnythingOfType("*entity.Exposure")).Return(errors.New("db down"))
	states := mocks.NewMemoryDifficultyRepository()
	engine := NewEngine(exposures, states, Config{}, logger.Nop())

	adj, err := engine.RecordAnswer(context.Background(), Answer{StudentID: testStudent, TopicKey: testTopic, Difficulty: entity.DifficultyMedium})
	require.Error(t, err)
	assert.False(t, adj.ShouldAdjust)
	assert.Empty(t, states.Adjustments)
	exposures.AssertNotCalled(t, "RecentAnswers", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRecommend_NewStudent(t *testing.T) {
	f := newFixture()
	rec, err := f.engine.Recommend(context.Background(), testStudent, testTopic)
	require.NoError(t, err)
	assert.Equal(t, entity.DifficultyMedium, rec.Difficulty)
	assert.Zero(t, rec.Confidence)
	assert.Equal(t, ReasonNoHistory, rec.ReasonCode)
}

func TestRecommend_NineOfTen(t *testing.T) {
	f := newFixture()
	f.answer(t, entity.DifficultyMedium, false)
	for i := 0; i < 9; i++ {
		f.answer(t, entity.DifficultyMedium, true)
	}

	rec, err := f.engine.Recommend(context.Background(), testStudent, testTopic)
	require.NoError(t, err)
	assert.Equal(t, entity.DifficultyHard, rec.Difficulty)
	assert.Equal(t, 1.0, rec.Confidence)
	assert.Equal(t, 10, rec.SampleSize)
	assert.Equal(t, 90.0, rec.Accuracy)
	assert.Contains(t, rec.Reason, "90%")
}

func TestRecommend_FiveOfFive(t *testing.T) {
	f := newFixture()
	for i := 0; i < 5; i++ {
		f.answer(t, entity.DifficultyMedium, true)
	}
	rec, err := f.engine.Recommend(context.Background(), testStudent, testTopic)
	require.NoError(t, err)
	assert.Equal(t, entity.DifficultyHard, rec.Difficulty)
	assert.Equal(t, 0.5, rec.Confidence)
}

func TestRecommend_BelowMinimumHoldsCurrent(t *testing.T) {
	f := newFixture()
	f.answer(t, entity.DifficultyEasy, false)
	f.answer(t, entity.DifficultyEasy, false)
	f.answer(t, entity.DifficultyEasy, true)

	rec, err := f.engine.Recommend(context.Background(), testStudent, testTopic)
	require.NoError(t, err)
	assert.Equal(t, entity.DifficultyEasy, rec.Difficulty)
	assert.Equal(t, ReasonNeedMoreAnswers, rec.ReasonCode)
	assert.InDelta(t, 0.6, rec.Confidence, 1e-9)
}

func TestRecommend_AcrossTopics(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		topic := testTopic
		if i%2 == 0 {
			topic = "geometry"
		}
		_, err := f.engine.RecordAnswer(ctx, Answer{StudentID: testStudent, TopicKey: topic, Difficulty: entity.DifficultyMedium})
		require.NoError(t, err)
	}

	rec, err := f.engine.Recommend(ctx, testStudent, "")
	require.NoError(t, err)
	assert.Equal(t, 5, rec.SampleSize)
	assert.Equal(t, entity.DifficultyEasy, rec.Difficulty)
}

func TestRecommend_IdentityUnavailable(t *testing.T) {
	exposures := new(mocks.MockExposureRepository)
	engine := NewEngine(exposures, mocks.NewMemoryDifficultyRepository(), Config{}, logger.Nop())

	rec, err := engine.Recommend(context.Background(), 0, testTopic)
	require.NoError(t, err)
	assert.Equal(t, entity.DifficultyMedium, rec.Difficulty)
	assert.Zero(t, rec.Confidence)
	exposures.AssertNotCalled(t, "RecentAnswers", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRecommend_StoreFailureDegrades(t *testing.T) {
	exposures := new(mocks.MockExposureRepository)
	exposures.On("RecentAnswers", mock.Anything, testStudent, testTopic, 10).Return(nil, errors.New("timeout"))
	engine := NewEngine(exposures, mocks.NewMemoryDifficultyRepository(), Config{}, logger.Nop())

	rec, err := engine.Recommend(context.Background(), testStudent, testTopic)
	require.Error(t, err)
	assert.Equal(t, entity.DifficultyMedium, rec.Difficulty)
	assert.Zero(t, rec.Confidence)
}

func TestState_DefaultsToMedium(t *testing.T) {
	f := newFixture()
	state, err := f.engine.State(context.Background(), testStudent, "geometry")
	require.NoError(t, err)
	assert.Equal(t, entity.DifficultyMedium, state.Label())
	assert.Equal(t, entity.TrendStable, state.Trend)
}
