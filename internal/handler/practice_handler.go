package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/practice-api/internal/handler/dto"
	"github.com/yourusername/practice-api/internal/middleware"
	apperrors "github.com/yourusername/practice-api/internal/pkg/errors"
	"github.com/yourusername/practice-api/internal/pkg/logger"
	"github.com/yourusername/practice-api/internal/service"
	"github.com/yourusername/practice-api/internal/service/classifier"
)

// PracticeHandler обрабатывает запросы тренажёра
type PracticeHandler struct {
	practice *service.PracticeService
	log      *logger.Logger
}

// NewPracticeHandler создает новый обработчик
func NewPracticeHandler(practice *service.PracticeService, log *logger.Logger) *PracticeHandler {
	return &PracticeHandler{practice: practice, log: log}
}

// statusFor переводит код результата сервиса в HTTP статус
func statusFor(code string) int {
	switch code {
	case service.CodeOK, service.CodeDegraded:
		return http.StatusOK
	case service.CodeInvalidInput:
		return http.StatusBadRequest
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeNoQuestion, service.CodeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success":    false,
		"code":       service.CodeInvalidInput,
		"error":      err.Error(),
		"error_type": "validation",
	})
}

// NextQuestion выдаёт следующий вопрос
func (h *PracticeHandler) NextQuestion(c *gin.Context) {
	var req dto.NextQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	res := h.practice.GetNextQuestion(c.Request.Context(), service.NextQuestionRequest{
		StudentID:  req.StudentID,
		Topic:      req.Topic,
		Subtopic:   req.Subtopic,
		Difficulty: req.Difficulty,
		Grade:      req.Grade,
		ExcludeIDs: req.ExcludeIDs,
	})
	c.JSON(statusFor(res.Code), gin.H{
		"success":        res.Success,
		"code":           res.Code,
		"reason":         res.Reason,
		"question":       dto.NewQuestionResponse(res.Question),
		"tier":           res.Tier,
		"difficulty":     res.Difficulty,
		"recommendation": res.Recommendation,
	})
}

// SubmitAnswer принимает ответ студента
func (h *PracticeHandler) SubmitAnswer(c *gin.Context) {
	var req dto.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	res := h.practice.SubmitAnswer(c.Request.Context(), service.SubmitAnswerRequest{
		StudentID:        req.StudentID,
		QuestionID:       req.QuestionID,
		Answer:           req.Answer,
		TimeSpentSeconds: req.TimeSpentSeconds,
		HintsUsed:        req.HintsUsed,
	})
	if res.Code == service.CodeDegraded {
		h.log.Warn("[PracticeHandler] Ответ принят без учёта сложности", "question_id", req.QuestionID)
	}
	c.JSON(statusFor(res.Code), res)
}

// GetDifficulty возвращает рекомендованную сложность (?student_id=&topic=)
func (h *PracticeHandler) GetDifficulty(c *gin.Context) {
	res := h.practice.GetRecommendedDifficulty(c.Request.Context(), c.Query("student_id"), c.Query("topic"))
	c.JSON(statusFor(res.Code), res)
}

// CheckAdjustment учитывает ответ вне каталога и возвращает решение по сложности
func (h *PracticeHandler) CheckAdjustment(c *gin.Context) {
	var req dto.CheckAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	res := h.practice.CheckAdjustment(c.Request.Context(), req.StudentID, req.Topic, req.Difficulty, *req.IsCorrect)
	c.JSON(statusFor(res.Code), res)
}

// Classify размечает произвольный текст
func (h *PracticeHandler) Classify(c *gin.Context) {
	var req dto.ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	res := h.practice.Classify(c.Request.Context(), req.Text, classifier.Metadata{
		Grade:    req.Grade,
		Topic:    req.Topic,
		Subtopic: req.Subtopic,
	})
	c.JSON(statusFor(res.Code), res)
}

// TopicStats возвращает агрегаты каталога по темам и сложностям
func (h *PracticeHandler) TopicStats(c *gin.Context) {
	stats, err := h.practice.TopicStats(c.Request.Context())
	if err != nil {
		h.log.Error("[PracticeHandler] Ошибка статистики каталога", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load question stats"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": dto.NewTopicStatsResponse(stats)})
}

// DeactivateQuestion снимает вопрос с выдачи (/api/questions/:id/deactivate)
func (h *PracticeHandler) DeactivateQuestion(c *gin.Context) {
	questionID := c.MustGet("questionID").(uint)

	if err := h.practice.DeactivateQuestion(c.Request.Context(), questionID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "question not found", "error_type": "not_found"})
			return
		}
		h.log.Error("[PracticeHandler] Ошибка деактивации вопроса", "question_id", questionID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to deactivate question"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "question_id": questionID})
}

// RegisterRoutes вешает маршруты тренажёра на группу /api.
// nextLimit ограничивает частоту выдачи вопросов; nil - без лимита.
func (h *PracticeHandler) RegisterRoutes(api *gin.RouterGroup, nextLimit gin.HandlerFunc) {
	practice := api.Group("/practice")
	{
		if nextLimit != nil {
			practice.POST("/next", nextLimit, h.NextQuestion)
		} else {
			practice.POST("/next", h.NextQuestion)
		}
		practice.POST("/answer", h.SubmitAnswer)
		practice.GET("/difficulty", h.GetDifficulty)
		practice.POST("/difficulty/check", h.CheckAdjustment)
	}

	api.POST("/classify", h.Classify)

	questions := api.Group("/questions")
	{
		questions.GET("/stats", h.TopicStats)
		questions.POST("/:id/deactivate", middleware.ExtractUintParam("id", "questionID"), h.DeactivateQuestion)
	}
}
