package dto

import (
	"time"

	"github.com/yourusername/practice-api/internal/domain/entity"
	"github.com/yourusername/practice-api/internal/domain/repository"
)

// NextQuestionRequest - тело POST /api/practice/next
type NextQuestionRequest struct {
	StudentID  string `json:"student_id" binding:"required,max=128"`
	Topic      string `json:"topic" binding:"required,max=200"`
	Subtopic   string `json:"subtopic" binding:"omitempty,max=200"`
	Difficulty string `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	Grade      *int   `json:"grade" binding:"omitempty,min=7,max=12"`
	ExcludeIDs []uint `json:"exclude_ids" binding:"omitempty,max=200"`
}

// SubmitAnswerRequest - тело POST /api/practice/answer
type SubmitAnswerRequest struct {
	StudentID        string `json:"student_id" binding:"required,max=128"`
	QuestionID       uint   `json:"question_id" binding:"required"`
	Answer           string `json:"answer" binding:"max=500"`
	TimeSpentSeconds int    `json:"time_spent_seconds" binding:"min=0"`
	HintsUsed        int    `json:"hints_used" binding:"min=0,max=10"`
}

// CheckAdjustmentRequest - тело POST /api/practice/difficulty/check
type CheckAdjustmentRequest struct {
	StudentID  string `json:"student_id" binding:"required,max=128"`
	Topic      string `json:"topic" binding:"required,max=200"`
	Difficulty string `json:"difficulty" binding:"required,oneof=easy medium hard"`
	IsCorrect  *bool  `json:"is_correct" binding:"required"`
}

// ClassifyRequest - тело POST /api/classify
type ClassifyRequest struct {
	Text     string `json:"text" binding:"required,max=5000"`
	Grade    *int   `json:"grade" binding:"omitempty,min=7,max=12"`
	Topic    string `json:"topic" binding:"omitempty,max=200"`
	Subtopic string `json:"subtopic" binding:"omitempty,max=200"`
}

// QuestionResponse - вопрос в том виде, в каком его видит студент (без ответа)
type QuestionResponse struct {
	ID          uint              `json:"id"`
	Text        string            `json:"text"`
	Hints       []string          `json:"hints"`
	Grade       *int              `json:"grade,omitempty"`
	UnitTrack   *int              `json:"unit_track,omitempty"`
	TopicKey    string            `json:"topic_key"`
	Topic       string            `json:"topic"`
	SubtopicKey *string           `json:"subtopic_key,omitempty"`
	Subtopic    *string           `json:"subtopic,omitempty"`
	Difficulty  entity.Difficulty `json:"difficulty"`
	Source      string            `json:"source"`
	CreatedAt   time.Time         `json:"created_at,omitempty"`
}

// NewQuestionResponse создает DTO вопроса
func NewQuestionResponse(q *entity.Question) *QuestionResponse {
	if q == nil {
		return nil
	}
	hints := []string(q.Hints)
	if hints == nil {
		hints = []string{}
	}
	return &QuestionResponse{
		ID:          q.ID,
		Text:        q.Text,
		Hints:       hints,
		Grade:       q.Grade,
		UnitTrack:   q.UnitTrack,
		TopicKey:    q.TopicKey,
		Topic:       q.Topic,
		SubtopicKey: q.SubtopicKey,
		Subtopic:    q.Subtopic,
		Difficulty:  q.Difficulty,
		Source:      string(q.Source),
		CreatedAt:   q.CreatedAt,
	}
}

// TopicStatsResponse - строка статистики каталога
type TopicStatsResponse struct {
	TopicKey        string            `json:"topic_key"`
	Difficulty      entity.Difficulty `json:"difficulty"`
	Total           int64             `json:"total"`
	Active          int64             `json:"active"`
	AvgQuality      float64           `json:"avg_quality"`
	AvgSuccessRate  float64           `json:"avg_success_rate"`
	TotalUsageCount int64             `json:"total_usage_count"`
}

// NewTopicStatsResponse конвертирует агрегаты репозитория
func NewTopicStatsResponse(stats []repository.TopicStats) []TopicStatsResponse {
	out := make([]TopicStatsResponse, 0, len(stats))
	for _, s := range stats {
		out = append(out, TopicStatsResponse{
			TopicKey:        s.TopicKey,
			Difficulty:      s.Difficulty,
			Total:           s.Total,
			Active:          s.Active,
			AvgQuality:      s.AvgQuality,
			AvgSuccessRate:  s.AvgSuccessRate,
			TotalUsageCount: s.TotalUsageCount,
		})
	}
	return out
}
