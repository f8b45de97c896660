// Package generation создает новые вопросы, когда в хранилищах нет подходящих:
// через LLM (OpenAI-совместимый API) или детерминированными шаблонами.
package generation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yourusername/practice-api/internal/domain/entity"
	"github.com/yourusername/practice-api/internal/pkg/logger"
)

var (
	// ErrInvalidResponse - ответ модели не прошёл проверку формы
	ErrInvalidResponse = errors.New("generation: invalid response")
	// ErrNoTemplate - для темы нет шаблона
	ErrNoTemplate = errors.New("generation: no template for topic")
)

// Input - всё, что нужно генератору для одного вопроса
type Input struct {
	TopicKey    string
	Topic       string
	SubtopicKey *string
	Subtopic    *string
	Difficulty  entity.Difficulty
	Grade       int
	UnitTrack   *int
	// Style - короткое описание подачи (см. StyleFor)
	Style string
	// Avoid - тексты недавних вопросов, новые первыми
	Avoid []string
	// Seed управляет выбором параметров в шаблонах
	Seed int64
}

// Generated - сгенерированный вопрос до сохранения в каталог
type Generated struct {
	Text          string
	CorrectAnswer string
	Explanation   string
	Hints         []string
	SolutionSteps []string
	Source        entity.QuestionSource
	// Model: модель LLM или имя шаблона
	Model string
}

// Generator создает вопрос по входным параметрам
type Generator interface {
	Name() string
	Generate(ctx context.Context, in Input) (*Generated, error)
}

// StyleFor подбирает подачу вопроса по классу и сложности
func StyleFor(grade int, difficulty entity.Difficulty) string {
	switch {
	case difficulty == entity.DifficultyEasy:
		return "שאלה קצרה וישירה, צעד פתרון אחד או שניים"
	case difficulty == entity.DifficultyHard && grade >= 10:
		return "שאלה רב-שלבית בסגנון בגרות, עם נימוק"
	case difficulty == entity.DifficultyHard:
		return "בעיה מילולית רב-שלבית מחיי היומיום"
	}
	return "בעיה מילולית קצרה מחיי היומיום"
}

// Chain пробует основной генератор с таймаутом, затем запасной
type Chain struct {
	primary  Generator
	fallback Generator
	timeout  time.Duration
	log      *logger.Logger
}

// NewChain создает цепочку. primary может быть nil - тогда сразу используется fallback.
func NewChain(primary, fallback Generator, timeout time.Duration, log *logger.Logger) *Chain {
	return &Chain{primary: primary, fallback: fallback, timeout: timeout, log: log}
}

func (c *Chain) Name() string {
	if c.primary == nil {
		return c.fallback.Name()
	}
	return c.primary.Name() + "+" + c.fallback.Name()
}

func (c *Chain) Generate(ctx context.Context, in Input) (*Generated, error) {
	if c.primary != nil {
		pctx, cancel := context.WithTimeout(ctx, c.timeout)
		out, err := c.primary.Generate(pctx, in)
		cancel()
		if err == nil {
			return out, nil
		}
		c.log.Warn("[Generation] Основной генератор не справился, используем шаблон",
			"generator", c.primary.Name(), "topic", in.TopicKey, "error", err)
	}
	out, err := c.fallback.Generate(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("fallback %s: %w", c.fallback.Name(), err)
	}
	return out, nil
}
