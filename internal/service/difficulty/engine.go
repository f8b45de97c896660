// Package difficulty подбирает уровень сложности по истории ответов студента в теме.
//
// Быстрое решение после каждого ответа смотрит на последние 5 ответов (минимум 3),
// рекомендация для следующего вопроса - на последние 10 (минимум 5).
// Числовой уровень 1-10 хранится в difficulty_states и является источником истины для метки.
package difficulty

import (
	"context"
	"errors"
	"fmt"

	"github.com/yourusername/practice-api/internal/domain/entity"
	"github.com/yourusername/practice-api/internal/domain/repository"
	apperrors "github.com/yourusername/practice-api/internal/pkg/errors"
	"github.com/yourusername/practice-api/internal/pkg/i18n"
	"github.com/yourusername/practice-api/internal/pkg/logger"
)

// Config задаёт окна и минимальные выборки
type Config struct {
	LightWindow         int
	LightMinSamples     int
	RecommendWindow     int
	RecommendMinSamples int
}

// DefaultConfig возвращает стандартные окна 5/3 и 10/5
func DefaultConfig() Config {
	return Config{
		LightWindow:         5,
		LightMinSamples:     3,
		RecommendWindow:     10,
		RecommendMinSamples: 5,
	}
}

// Answer - ответ студента, который нужно учесть
type Answer struct {
	StudentID        uint
	QuestionID       *uint
	TopicKey         string
	Difficulty       entity.Difficulty
	IsCorrect        bool
	TimeSpentSeconds int
	HintsUsed        int
}

// Adjustment - результат быстрого решения после ответа
type Adjustment struct {
	ShouldAdjust      bool              `json:"should_adjust"`
	CurrentDifficulty entity.Difficulty `json:"current_difficulty"`
	NewDifficulty     entity.Difficulty `json:"new_difficulty"`
	Level             int               `json:"level"`
	Reason            string            `json:"reason"`
	ReasonCode        ReasonCode        `json:"reason_code"`
	Confidence        float64           `json:"confidence"`
	Accuracy          float64           `json:"accuracy"`
	CorrectCount      int               `json:"correct_count"`
	TotalCount        int               `json:"total_count"`
	Trend             entity.Trend      `json:"trend"`

	// RequestedDifficulty заполняется, когда сложность ответа расходится
	// с сохранённой: решение всё равно принимается от сохранённой
	RequestedDifficulty entity.Difficulty `json:"requested_difficulty,omitempty"`
}

// Recommendation - рекомендуемая сложность следующего вопроса
type Recommendation struct {
	Difficulty entity.Difficulty `json:"difficulty"`
	Confidence float64           `json:"confidence"`
	Accuracy   float64           `json:"accuracy"`
	SampleSize int               `json:"sample_size"`
	Trend      entity.Trend      `json:"trend"`
	Reason     string            `json:"reason"`
	ReasonCode ReasonCode        `json:"reason_code"`
}

// Engine реализует адаптацию сложности
type Engine struct {
	exposures repository.ExposureRepository
	states    repository.DifficultyRepository
	cfg       Config
	log       *logger.Logger
}

// NewEngine создает движок; нулевые поля cfg заменяются значениями по умолчанию
func NewEngine(exposures repository.ExposureRepository, states repository.DifficultyRepository, cfg Config, log *logger.Logger) *Engine {
	def := DefaultConfig()
	if cfg.LightWindow <= 0 {
		cfg.LightWindow = def.LightWindow
	}
	if cfg.LightMinSamples <= 0 {
		cfg.LightMinSamples = def.LightMinSamples
	}
	if cfg.RecommendWindow <= 0 {
		cfg.RecommendWindow = def.RecommendWindow
	}
	if cfg.RecommendMinSamples <= 0 {
		cfg.RecommendMinSamples = def.RecommendMinSamples
	}
	return &Engine{exposures: exposures, states: states, cfg: cfg, log: log}
}

// RecordAnswer записывает ответ в журнал и пересчитывает состояние под блокировкой строки.
// studentID == 0 означает, что студента не удалось идентифицировать: ничего не пишется.
// При ошибке хранилища возвращается "без изменений" вместе с ошибкой.
func (e *Engine) RecordAnswer(ctx context.Context, ans Answer) (Adjustment, error) {
	if ans.StudentID == 0 {
		return e.identityUnavailable(ctx, ans.Difficulty), nil
	}
	if ans.TopicKey == "" {
		return e.unchanged(ctx, ans.Difficulty), fmt.Errorf("topic key is required: %w", apperrors.ErrValidation)
	}

	exposure := &entity.Exposure{
		StudentID:        ans.StudentID,
		QuestionID:       ans.QuestionID,
		TopicKey:         ans.TopicKey,
		Difficulty:       ans.Difficulty,
		Kind:             entity.ExposureAnswered,
		IsCorrect:        ans.IsCorrect,
		TimeSpentSeconds: ans.TimeSpentSeconds,
		HintsUsed:        ans.HintsUsed,
	}
	if !exposure.Difficulty.IsValid() {
		exposure.Difficulty = entity.DifficultyMedium
	}
	if err := e.exposures.Append(ctx, exposure); err != nil {
		return e.unchanged(ctx, ans.Difficulty), fmt.Errorf("append answer: %w", err)
	}

	var adj Adjustment
	state, err := e.states.Mutate(ctx, ans.StudentID, ans.TopicKey, func(state *entity.DifficultyState) (*entity.DifficultyAdjustment, error) {
		recent, err := e.exposures.RecentAnswers(ctx, ans.StudentID, ans.TopicKey, e.cfg.RecommendWindow)
		if err != nil {
			return nil, fmt.Errorf("load recent answers: %w", err)
		}
		// первый ответ в теме: стартуем с той сложности, на которой студент отвечал
		if state.QuestionsAnswered == 0 && ans.Difficulty.IsValid() {
			state.SetLabel(ans.Difficulty)
		}
		state.QuestionsAnswered++
		if ans.IsCorrect {
			state.CorrectCount++
		}

		light := recent
		if len(light) > e.cfg.LightWindow {
			light = light[:e.cfg.LightWindow]
		}
		correct, accuracy := accuracyOf(light)
		state.RecentAccuracy = accuracy
		state.Trend = trendOf(recent)

		current := state.Label()
		adj = Adjustment{
			CurrentDifficulty: current,
			NewDifficulty:     current,
			Accuracy:          accuracy,
			CorrectCount:      correct,
			TotalCount:        len(light),
			Trend:             state.Trend,
			Confidence:        confidence(len(light), e.cfg.LightWindow),
		}
		if ans.Difficulty.IsValid() && ans.Difficulty != current {
			adj.RequestedDifficulty = ans.Difficulty
		}

		if len(light) < e.cfg.LightMinSamples {
			adj.ReasonCode = ReasonNeedMoreAnswers
			adj.Confidence = confidence(len(light), e.cfg.LightMinSamples)
			state.Nudge(nudgeDelta(ans.IsCorrect))
			return nil, nil
		}

		next, code := decide(current, accuracy)
		adj.ReasonCode = code
		if next == current {
			state.Nudge(nudgeDelta(ans.IsCorrect))
			return nil, nil
		}

		fromLevel := state.Level
		state.SetLabel(next)
		adj.ShouldAdjust = true
		adj.NewDifficulty = next
		return &entity.DifficultyAdjustment{
			From:      current,
			To:        next,
			FromLevel: fromLevel,
			ToLevel:   state.Level,
			Reason:    string(code),
			Accuracy:  accuracy,
		}, nil
	})
	if err != nil {
		return e.unchanged(ctx, ans.Difficulty), fmt.Errorf("update difficulty state: %w", err)
	}

	adj.Level = state.Level
	adj.Reason = e.reason(ctx, adj.ReasonCode, adj.Accuracy, adj.TotalCount, e.cfg.LightMinSamples)
	if adj.ShouldAdjust {
		e.log.Info("[DifficultyEngine] Сложность изменена",
			"student_id", ans.StudentID, "topic", ans.TopicKey,
			"from", adj.CurrentDifficulty, "to", adj.NewDifficulty, "accuracy", adj.Accuracy)
	}
	return adj, nil
}

// Recommend рекомендует сложность по последним ответам. Пустой topicKey - по всем темам.
func (e *Engine) Recommend(ctx context.Context, studentID uint, topicKey string) (Recommendation, error) {
	if studentID == 0 {
		return Recommendation{
			Difficulty: entity.DifficultyMedium,
			Trend:      entity.TrendStable,
			ReasonCode: ReasonIdentityUnavailable,
			Reason:     i18n.T(ctx, string(ReasonIdentityUnavailable)),
		}, nil
	}

	recent, err := e.exposures.RecentAnswers(ctx, studentID, topicKey, e.cfg.RecommendWindow)
	if err != nil {
		rec := e.noHistory(ctx)
		return rec, fmt.Errorf("load recent answers: %w", err)
	}
	if len(recent) == 0 {
		return e.noHistory(ctx), nil
	}

	n := len(recent)
	_, accuracy := accuracyOf(recent)
	rec := Recommendation{
		Accuracy:   accuracy,
		SampleSize: n,
		Trend:      trendOf(recent),
	}

	if n < e.cfg.RecommendMinSamples {
		rec.Difficulty = e.currentLabel(ctx, studentID, topicKey)
		rec.ReasonCode = ReasonNeedMoreAnswers
		rec.Confidence = confidence(n, e.cfg.RecommendMinSamples)
	} else {
		rec.Difficulty, rec.ReasonCode = recommend(accuracy)
		rec.Confidence = confidence(n, e.cfg.RecommendWindow)
	}
	rec.Reason = e.reason(ctx, rec.ReasonCode, accuracy, n, e.cfg.RecommendMinSamples)
	return rec, nil
}

// State возвращает сохранённое состояние; для новой пары - состояние по умолчанию (medium)
func (e *Engine) State(ctx context.Context, studentID uint, topicKey string) (*entity.DifficultyState, error) {
	state, err := e.states.Get(ctx, studentID, topicKey)
	if errors.Is(err, apperrors.ErrNotFound) {
		return &entity.DifficultyState{
			StudentID: studentID,
			TopicKey:  topicKey,
			Level:     entity.AnchorLevel(entity.DifficultyMedium),
			Trend:     entity.TrendStable,
		}, nil
	}
	return state, err
}

// History возвращает последние смены сложности
func (e *Engine) History(ctx context.Context, studentID uint, topicKey string, limit int) ([]entity.DifficultyAdjustment, error) {
	return e.states.History(ctx, studentID, topicKey, limit)
}

func (e *Engine) currentLabel(ctx context.Context, studentID uint, topicKey string) entity.Difficulty {
	if topicKey == "" {
		return entity.DifficultyMedium
	}
	state, err := e.states.Get(ctx, studentID, topicKey)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			e.log.Warn("[DifficultyEngine] Не удалось прочитать состояние", "student_id", studentID, "topic", topicKey, "error", err)
		}
		return entity.DifficultyMedium
	}
	return state.Label()
}

func (e *Engine) noHistory(ctx context.Context) Recommendation {
	return Recommendation{
		Difficulty: entity.DifficultyMedium,
		Trend:      entity.TrendStable,
		ReasonCode: ReasonNoHistory,
		Reason:     i18n.T(ctx, string(ReasonNoHistory)),
	}
}

func (e *Engine) identityUnavailable(ctx context.Context, current entity.Difficulty) Adjustment {
	adj := e.unchanged(ctx, current)
	adj.ReasonCode = ReasonIdentityUnavailable
	adj.Reason = i18n.T(ctx, string(ReasonIdentityUnavailable))
	return adj
}

// unchanged - ответ "оставить как есть" для деградированных путей
func (e *Engine) unchanged(ctx context.Context, current entity.Difficulty) Adjustment {
	if !current.IsValid() {
		current = entity.DifficultyMedium
	}
	return Adjustment{
		CurrentDifficulty: current,
		NewDifficulty:     current,
		Level:             entity.AnchorLevel(current),
		Trend:             entity.TrendStable,
		ReasonCode:        ReasonKeep,
		Reason:            e.reason(ctx, ReasonKeep, 0, 0, 0),
	}
}

func (e *Engine) reason(ctx context.Context, code ReasonCode, accuracy float64, observed, required int) string {
	data := map[string]any{
		"Accuracy": percent(accuracy),
		"Count":    observed,
	}
	if code == ReasonNeedMoreAnswers {
		data["Missing"] = required - observed
	}
	return i18n.Td(ctx, string(code), data)
}

func nudgeDelta(correct bool) int {
	if correct {
		return 1
	}
	return -1
}
