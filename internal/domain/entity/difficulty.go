package entity

// Difficulty - метка сложности вопроса
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Границы числового уровня сложности
const (
	MinLevel = 1
	MaxLevel = 10
)

// Опорные уровни, на которые переходит состояние при смене метки
const (
	anchorLevelEasy   = 2
	anchorLevelMedium = 5
	anchorLevelHard   = 8
)

// ParseDifficulty разбирает строку в метку сложности.
// Возвращает false для неизвестных значений.
func ParseDifficulty(s string) (Difficulty, bool) {
	switch Difficulty(s) {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return Difficulty(s), true
	}
	return "", false
}

// IsValid проверяет, что метка входит в допустимый набор
func (d Difficulty) IsValid() bool {
	_, ok := ParseDifficulty(string(d))
	return ok
}

// Harder возвращает следующую по сложности метку (hard остаётся hard)
func (d Difficulty) Harder() Difficulty {
	switch d {
	case DifficultyEasy:
		return DifficultyMedium
	default:
		return DifficultyHard
	}
}

// Easier возвращает предыдущую по сложности метку (easy остаётся easy)
func (d Difficulty) Easier() Difficulty {
	switch d {
	case DifficultyHard:
		return DifficultyMedium
	default:
		return DifficultyEasy
	}
}

// LabelForLevel отображает числовой уровень 1–10 в метку:
// ≤3 → easy, 4–7 → medium, ≥8 → hard.
func LabelForLevel(level int) Difficulty {
	switch {
	case level <= 3:
		return DifficultyEasy
	case level <= 7:
		return DifficultyMedium
	default:
		return DifficultyHard
	}
}

// AnchorLevel возвращает опорный уровень для метки
func AnchorLevel(d Difficulty) int {
	switch d {
	case DifficultyEasy:
		return anchorLevelEasy
	case DifficultyHard:
		return anchorLevelHard
	default:
		return anchorLevelMedium
	}
}

// LevelBand возвращает диапазон уровней [lo, hi] для метки
func LevelBand(d Difficulty) (lo, hi int) {
	switch d {
	case DifficultyEasy:
		return MinLevel, 3
	case DifficultyHard:
		return 8, MaxLevel
	default:
		return 4, 7
	}
}

// ClampLevel ограничивает уровень диапазоном 1–10
func ClampLevel(level int) int {
	if level < MinLevel {
		return MinLevel
	}
	if level > MaxLevel {
		return MaxLevel
	}
	return level
}
