package generation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/yourusername/practice-api/internal/domain/entity"
	apperrors "github.com/yourusername/practice-api/internal/pkg/errors"
)

const maxAvoidInPrompt = 10

// OpenAIConfig - параметры клиента; BaseURL позволяет ходить в совместимые API
type OpenAIConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
}

// OpenAIGenerator генерирует вопросы через Chat Completions в режиме JSON Schema
type OpenAIGenerator struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewOpenAIGenerator создает генератор
func NewOpenAIGenerator(cfg OpenAIConfig) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required: %w", apperrors.ErrValidation)
	}
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIGenerator{
		client:    openai.NewClientWithConfig(config),
		model:     model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

func (g *OpenAIGenerator) Name() string {
	return "openai:" + g.model
}

type modelQuestion struct {
	Question      string   `json:"question"`
	Answer        string   `json:"answer"`
	Explanation   string   `json:"explanation"`
	Hints         []string `json:"hints"`
	SolutionSteps []string `json:"solution_steps"`
}

func (g *OpenAIGenerator) Generate(ctx context.Context, in Input) (*Generated, error) {
	schemaBytes, err := json.Marshal(questionSchema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildUserPrompt(in)},
		},
		MaxCompletionTokens: g.maxTokens,
		Temperature:         0.8,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   questionSchemaName,
				Schema: json.RawMessage(schemaBytes),
				Strict: true,
			},
		},
	})
	if err != nil {
		return nil, mapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices", ErrInvalidResponse)
	}

	content := []byte(resp.Choices[0].Message.Content)
	if err := validateResponse(content); err != nil {
		return nil, err
	}
	var q modelQuestion
	if err := json.Unmarshal(content, &q); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if strings.TrimSpace(q.Question) == "" || strings.TrimSpace(q.Answer) == "" {
		return nil, fmt.Errorf("%w: empty question or answer", ErrInvalidResponse)
	}

	return &Generated{
		Text:          strings.TrimSpace(q.Question),
		CorrectAnswer: strings.TrimSpace(q.Answer),
		Explanation:   q.Explanation,
		Hints:         q.Hints,
		SolutionSteps: q.SolutionSteps,
		Source:        entity.SourceAIGenerated,
		Model:         resp.Model,
	}, nil
}

const systemPrompt = `אתה מורה למתמטיקה בתיכון בישראל. כתוב שאלת תרגול אחת בעברית.
השאלה חייבת להתאים לכיתה ולרמת הקושי שצוינו, ואסור לה להשתמש בחומר של כיתות גבוהות יותר.
החזר JSON בלבד: question, answer (תשובה סופית קצרה, מספר או ביטוי), explanation,
hints (עד 3 רמזים מדורגים) ו-solution_steps.`

func buildUserPrompt(in Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "כיתה: %d\n", in.Grade)
	if in.UnitTrack != nil {
		fmt.Fprintf(&b, "מסלול: %d יח\"ל\n", *in.UnitTrack)
	}
	fmt.Fprintf(&b, "נושא: %s\n", in.Topic)
	if in.Subtopic != nil && *in.Subtopic != "" {
		fmt.Fprintf(&b, "תת-נושא: %s\n", *in.Subtopic)
	}
	fmt.Fprintf(&b, "רמת קושי: %s\n", difficultyLabel(in.Difficulty))
	if in.Style != "" {
		fmt.Fprintf(&b, "סגנון: %s\n", in.Style)
	}
	if len(in.Avoid) > 0 {
		b.WriteString("\nאל תחזור על השאלות הבאות ואל תכתוב שאלה דומה להן (מספרים אחרים והקשר אחר):\n")
		for i, text := range in.Avoid {
			if i == maxAvoidInPrompt {
				break
			}
			fmt.Fprintf(&b, "- %s\n", text)
		}
	}
	return b.String()
}

func difficultyLabel(d entity.Difficulty) string {
	switch d {
	case entity.DifficultyEasy:
		return "קלה"
	case entity.DifficultyHard:
		return "קשה"
	}
	return "בינונית"
}

func mapOpenAIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests, apiErr.HTTPStatusCode >= 500:
			return fmt.Errorf("openai %d: %w: %v", apiErr.HTTPStatusCode, apperrors.ErrUnavailable, err)
		}
		return fmt.Errorf("openai %d: %w", apiErr.HTTPStatusCode, err)
	}
	return fmt.Errorf("openai request: %w: %v", apperrors.ErrUnavailable, err)
}
