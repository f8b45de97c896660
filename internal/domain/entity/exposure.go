package entity

import "time"

// ExposureKind - тип записи журнала показов
type ExposureKind string

const (
	// ExposureShown - вопрос показан студенту
	ExposureShown ExposureKind = "shown"
	// ExposureAnswered - студент ответил на вопрос
	ExposureAnswered ExposureKind = "answered"
)

// Exposure - запись append-only журнала показов и ответов.
// После вставки не изменяется. Порядок: created_at, затем id.
type Exposure struct {
	ID               uint         `gorm:"primaryKey" json:"id"`
	StudentID        uint         `gorm:"not null;index:idx_exposures_student_topic,priority:1" json:"student_id"`
	QuestionID       *uint        `gorm:"index" json:"question_id,omitempty"`
	TopicKey         string       `gorm:"size:100;not null;index:idx_exposures_student_topic,priority:2" json:"topic_key"`
	Difficulty       Difficulty   `gorm:"size:10;not null" json:"difficulty"`
	Kind             ExposureKind `gorm:"size:10;not null" json:"kind"`
	IsCorrect        bool         `gorm:"not null;default:false" json:"is_correct"`
	TimeSpentSeconds int          `gorm:"not null;default:0" json:"time_spent_seconds"`
	HintsUsed        int          `gorm:"not null;default:0" json:"hints_used"`
	CreatedAt        time.Time    `gorm:"not null;index:idx_exposures_student_topic,priority:3" json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (Exposure) TableName() string {
	return "exposures"
}
