package generation

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/practice-api/internal/domain/entity"
	apperrors "github.com/yourusername/practice-api/internal/pkg/errors"
	"github.com/yourusername/practice-api/internal/pkg/logger"
	"github.com/yourusername/practice-api/internal/service/similarity"
)

func newTestOpenAIGenerator(t *testing.T, handler http.HandlerFunc) *OpenAIGenerator {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := openai.DefaultConfig("test-key")
	config.BaseURL = server.URL + "/v1"
	return &OpenAIGenerator{client: openai.NewClientWithConfig(config), model: "gpt-4o-mini", maxTokens: 800}
}

func completion(content string) map[string]any {
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1234567890,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
	}
}

func algebraInput() Input {
	sub := "משוואות ליניאריות"
	return Input{
		TopicKey:   "algebra",
		Topic:      "אלגברה",
		Subtopic:   &sub,
		Difficulty: entity.DifficultyMedium,
		Grade:      8,
		Style:      StyleFor(8, entity.DifficultyMedium),
		Avoid:      []string{"פתרו את המשוואה: 3x + 4 = 19"},
		Seed:       1,
	}
}

func TestOpenAIGenerator_HappyPath(t *testing.T) {
	var prompt string
	gen := newTestOpenAIGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req openai.ChatCompletionRequest
		_ = json.Unmarshal(body, &req)
		if len(req.Messages) == 2 {
			prompt = req.Messages[1].Content
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completion(`{"question":"פתרו את המשוואה 5x - 2 = 13","answer":"3","explanation":"","hints":["הוסיפו 2"],"solution_steps":["5x = 15","x = 3"]}`))
	})

	out, err := gen.Generate(context.Background(), algebraInput())
	require.NoError(t, err)
	assert.Equal(t, "פתרו את המשוואה 5x - 2 = 13", out.Text)
	assert.Equal(t, "3", out.CorrectAnswer)
	assert.Equal(t, entity.SourceAIGenerated, out.Source)
	assert.Len(t, out.SolutionSteps, 2)

	assert.Contains(t, prompt, "כיתה: 8")
	assert.Contains(t, prompt, "משוואות ליניאריות")
	assert.Contains(t, prompt, "3x + 4 = 19")
}

func TestOpenAIGenerator_SchemaMismatch(t *testing.T) {
	gen := newTestOpenAIGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completion(`{"question":"2+2?"}`))
	})

	_, err := gen.Generate(context.Background(), algebraInput())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestOpenAIGenerator_RateLimit(t *testing.T) {
	gen := newTestOpenAIGenerator(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"message": "slow down", "type": "rate_limit"}})
	})

	_, err := gen.Generate(context.Background(), algebraInput())
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnavailable)
}

func TestNewOpenAIGenerator_RequiresKey(t *testing.T) {
	_, err := NewOpenAIGenerator(OpenAIConfig{})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestValidateResponse(t *testing.T) {
	valid := `{"question":"כמה זה 2 ועוד 2?","answer":"4","explanation":"","hints":[],"solution_steps":[]}`
	assert.NoError(t, validateResponse([]byte(valid)))
	assert.ErrorIs(t, validateResponse([]byte(`not json`)), ErrInvalidResponse)
	assert.ErrorIs(t, validateResponse([]byte(`{"question":"כמה זה 2 ועוד 2?","answer":"4","explanation":"","hints":[],"solution_steps":[],"extra":1}`)), ErrInvalidResponse)
	assert.ErrorIs(t, validateResponse([]byte(`{"question":"כמה זה 2 ועוד 2?","answer":"","explanation":"","hints":[],"solution_steps":[]}`)), ErrInvalidResponse)
}

type stubGenerator struct {
	err   error
	delay time.Duration
	calls int
}

func (s *stubGenerator) Name() string { return "stub" }

func (s *stubGenerator) Generate(ctx context.Context, in Input) (*Generated, error) {
	s.calls++
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return &Generated{Text: "stub", CorrectAnswer: "1", Source: entity.SourceAIGenerated}, nil
}

func TestChain_PrimarySucceeds(t *testing.T) {
	primary := &stubGenerator{}
	chain := NewChain(primary, NewTemplateGenerator(), time.Second, logger.Nop())

	out, err := chain.Generate(context.Background(), algebraInput())
	require.NoError(t, err)
	assert.Equal(t, "stub", out.Text)
}

func TestChain_FallsBackOnErrorAndTimeout(t *testing.T) {
	for name, primary := range map[string]*stubGenerator{
		"error":   {err: errors.New("boom")},
		"timeout": {delay: time.Second},
	} {
		t.Run(name, func(t *testing.T) {
			chain := NewChain(primary, NewTemplateGenerator(), 20*time.Millisecond, logger.Nop())
			out, err := chain.Generate(context.Background(), algebraInput())
			require.NoError(t, err)
			assert.Equal(t, entity.SourceTemplate, out.Source)
			assert.Equal(t, 1, primary.calls)
		})
	}
}

func TestChain_WithoutPrimary(t *testing.T) {
	chain := NewChain(nil, NewTemplateGenerator(), time.Second, logger.Nop())
	assert.Equal(t, "template", chain.Name())

	out, err := chain.Generate(context.Background(), algebraInput())
	require.NoError(t, err)
	assert.Equal(t, "template:algebra", out.Model)
}

func TestTemplateGenerator_Deterministic(t *testing.T) {
	gen := NewTemplateGenerator()
	in := algebraInput()

	first, err := gen.Generate(context.Background(), in)
	require.NoError(t, err)
	second, err := gen.Generate(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestTemplateGenerator_AvoidsRecentTexts(t *testing.T) {
	gen := NewTemplateGenerator()
	in := algebraInput()
	in.Avoid = nil

	first, err := gen.Generate(context.Background(), in)
	require.NoError(t, err)

	in.Avoid = []string{first.Text}
	next, err := gen.Generate(context.Background(), in)
	require.NoError(t, err)
	assert.NotEqual(t, first.Text, next.Text)
	assert.False(t, similarity.NewExclusions(nil, in.Avoid).Rejects(next.Text))
}

func TestTemplateGenerator_AllTopicsAndDifficulties(t *testing.T) {
	gen := NewTemplateGenerator()
	for topic := range templates {
		for _, d := range []entity.Difficulty{entity.DifficultyEasy, entity.DifficultyMedium, entity.DifficultyHard} {
			for seed := int64(0); seed < 25; seed++ {
				out, err := gen.Generate(context.Background(), Input{TopicKey: topic, Difficulty: d, Seed: seed})
				require.NoError(t, err)
				require.NotEmpty(t, out.Text, "%s/%s", topic, d)
				require.NotEmpty(t, out.CorrectAnswer, "%s/%s", topic, d)
				assert.False(t, strings.Contains(out.CorrectAnswer, "/0"), out.CorrectAnswer)
			}
		}
	}
}

func TestTemplateGenerator_UnknownTopic(t *testing.T) {
	out, err := NewTemplateGenerator().Generate(context.Background(), Input{TopicKey: "vectors", Difficulty: entity.DifficultyEasy})
	require.NoError(t, err)
	assert.Equal(t, "template:general", out.Model)

	strict := &TemplateGenerator{}
	_, err = strict.Generate(context.Background(), Input{TopicKey: "vectors"})
	assert.ErrorIs(t, err, ErrNoTemplate)
}

func TestFraction(t *testing.T) {
	assert.Equal(t, "1/2", fraction(3, 6))
	assert.Equal(t, "2", fraction(4, 2))
	assert.Equal(t, "- 5", signed(-5))
	assert.Equal(t, "+ 0", signed(0))
}
