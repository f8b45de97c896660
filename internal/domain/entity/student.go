package entity

import "time"

// Student связывает внешний идентификатор студента с внутренним числовым ID
type Student struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ExternalID string    `gorm:"size:255;not null;uniqueIndex" json:"external_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (Student) TableName() string {
	return "students"
}
