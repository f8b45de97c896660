package entity

import "time"

// Trend - направление изменения успеваемости
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

// DifficultyState - состояние адаптации для пары (студент, тема).
// Level - единственный источник истины; метка всегда выводится из уровня.
type DifficultyState struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	StudentID         uint      `gorm:"not null;uniqueIndex:idx_difficulty_state_student_topic,priority:1" json:"student_id"`
	TopicKey          string    `gorm:"size:100;not null;uniqueIndex:idx_difficulty_state_student_topic,priority:2" json:"topic_key"`
	Level             int       `gorm:"not null;default:5" json:"level"`
	QuestionsAnswered int       `gorm:"not null;default:0" json:"questions_answered"`
	CorrectCount      int       `gorm:"not null;default:0" json:"correct_count"`
	RecentAccuracy    float64   `gorm:"not null;default:0" json:"recent_accuracy"`
	Trend             Trend     `gorm:"size:10;not null;default:'stable'" json:"trend"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (DifficultyState) TableName() string {
	return "difficulty_states"
}

// Label возвращает метку, соответствующую текущему уровню
func (s *DifficultyState) Label() Difficulty {
	return LabelForLevel(s.Level)
}

// SetLabel переводит состояние на опорный уровень новой метки
func (s *DifficultyState) SetLabel(d Difficulty) {
	s.Level = AnchorLevel(d)
}

// Nudge сдвигает уровень на delta, не выходя за пределы текущей метки
func (s *DifficultyState) Nudge(delta int) {
	lo, hi := LevelBand(s.Label())
	level := s.Level + delta
	if level < lo {
		level = lo
	}
	if level > hi {
		level = hi
	}
	s.Level = ClampLevel(level)
}

// DifficultyAdjustment - append-only журнал смен сложности
type DifficultyAdjustment struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	StudentID uint       `gorm:"not null;index:idx_difficulty_adj_student_topic,priority:1" json:"student_id"`
	TopicKey  string     `gorm:"size:100;not null;index:idx_difficulty_adj_student_topic,priority:2" json:"topic_key"`
	From      Difficulty `gorm:"column:from_difficulty;size:10;not null" json:"from"`
	To        Difficulty `gorm:"column:to_difficulty;size:10;not null" json:"to"`
	FromLevel int        `gorm:"not null" json:"from_level"`
	ToLevel   int        `gorm:"not null" json:"to_level"`
	Reason    string     `gorm:"type:text;not null" json:"reason"`
	Accuracy  float64    `gorm:"not null" json:"accuracy"`
	CreatedAt time.Time  `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (DifficultyAdjustment) TableName() string {
	return "difficulty_adjustments"
}
