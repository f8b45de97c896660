package entity

import "time"

// CuratedQuestion - вопрос из большого банка заранее подготовленных заданий.
// Банк наполняется импортом; горячий путь только читает его.
type CuratedQuestion struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	Text          string      `gorm:"type:text;not null" json:"text"`
	CorrectAnswer string      `gorm:"type:text;not null" json:"-"`
	Explanation   string      `gorm:"type:text" json:"explanation,omitempty"`
	Hints         StringArray `gorm:"type:jsonb;not null" json:"hints"`
	SolutionSteps StringArray `gorm:"type:jsonb;not null" json:"solution_steps,omitempty"`
	Grade         int         `gorm:"not null;index" json:"grade"`
	Topic         string      `gorm:"size:200;not null;index" json:"topic"`
	Subtopic      string      `gorm:"size:200" json:"subtopic,omitempty"`
	Difficulty    Difficulty  `gorm:"size:10;not null" json:"difficulty"`
	IsActive      bool        `gorm:"not null;default:true" json:"-"`
	CreatedAt     time.Time   `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (CuratedQuestion) TableName() string {
	return "curated_questions"
}
