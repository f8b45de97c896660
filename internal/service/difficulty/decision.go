package difficulty

import (
	"math"

	"github.com/yourusername/practice-api/internal/domain/entity"
)

// ReasonCode - машиночитаемый код причины; совпадает с ID сообщения в словарях i18n
type ReasonCode string

const (
	ReasonNeedMoreAnswers     ReasonCode = "NeedMoreAnswers"
	ReasonEscalate            ReasonCode = "EscalateDifficulty"
	ReasonEasyToMedium        ReasonCode = "EasyToMedium"
	ReasonDeescalate          ReasonCode = "DeescalateDifficulty"
	ReasonMediumToEasy        ReasonCode = "MediumToEasy"
	ReasonKeep                ReasonCode = "KeepDifficulty"
	ReasonNoHistory           ReasonCode = "NoHistory"
	ReasonRecommendHard       ReasonCode = "RecommendHard"
	ReasonRecommendMedium     ReasonCode = "RecommendMedium"
	ReasonRecommendEasy       ReasonCode = "RecommendEasy"
	ReasonIdentityUnavailable ReasonCode = "IdentityUnavailable"
)

// Пороги точности в процентах
const (
	escalateAccuracy      = 90.0
	easyToMediumAccuracy  = 70.0
	deescalateAccuracy    = 40.0
	mediumToEasyAccuracy  = 50.0
	recommendHardAccuracy = 85.0
	recommendMedAccuracy  = 60.0
	trendThreshold        = 0.2
	minTrendSamples       = 4
)

// decide применяет таблицу быстрых решений; правила проверяются по порядку
func decide(current entity.Difficulty, accuracy float64) (entity.Difficulty, ReasonCode) {
	switch {
	case accuracy >= escalateAccuracy && current != entity.DifficultyHard:
		return current.Harder(), ReasonEscalate
	case accuracy >= easyToMediumAccuracy && accuracy < escalateAccuracy && current == entity.DifficultyEasy:
		return entity.DifficultyMedium, ReasonEasyToMedium
	case accuracy < deescalateAccuracy && current != entity.DifficultyEasy:
		return current.Easier(), ReasonDeescalate
	case accuracy < mediumToEasyAccuracy && current == entity.DifficultyMedium:
		return entity.DifficultyEasy, ReasonMediumToEasy
	}
	return current, ReasonKeep
}

// recommend отображает точность по окну рекомендации в метку
func recommend(accuracy float64) (entity.Difficulty, ReasonCode) {
	switch {
	case accuracy >= recommendHardAccuracy:
		return entity.DifficultyHard, ReasonRecommendHard
	case accuracy >= recommendMedAccuracy:
		return entity.DifficultyMedium, ReasonRecommendMedium
	}
	return entity.DifficultyEasy, ReasonRecommendEasy
}

// accuracyOf возвращает число верных ответов и точность в процентах
func accuracyOf(answers []entity.Exposure) (correct int, accuracy float64) {
	if len(answers) == 0 {
		return 0, 0
	}
	for _, a := range answers {
		if a.IsCorrect {
			correct++
		}
	}
	return correct, float64(correct) * 100 / float64(len(answers))
}

// trendOf сравнивает точность новой и старой половины окна (answers - новые первыми)
func trendOf(answers []entity.Exposure) entity.Trend {
	if len(answers) < minTrendSamples {
		return entity.TrendStable
	}
	half := len(answers) / 2
	_, newer := accuracyOf(answers[:half])
	_, older := accuracyOf(answers[half:])
	diff := (newer - older) / 100
	switch {
	case diff > trendThreshold:
		return entity.TrendImproving
	case diff < -trendThreshold:
		return entity.TrendDeclining
	}
	return entity.TrendStable
}

func confidence(observed, required int) float64 {
	if required <= 0 {
		return 0
	}
	return math.Min(float64(observed)/float64(required), 1)
}

// percent округляет точность для текста причины
func percent(accuracy float64) int {
	return int(math.Round(accuracy))
}
