package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/practice-api/internal/domain/entity"
	"github.com/yourusername/practice-api/internal/domain/repository/mocks"
	"github.com/yourusername/practice-api/internal/pkg/i18n"
	"github.com/yourusername/practice-api/internal/pkg/logger"
	"github.com/yourusername/practice-api/internal/service"
	"github.com/yourusername/practice-api/internal/service/difficulty"
	"github.com/yourusername/practice-api/internal/service/generation"
	"github.com/yourusername/practice-api/internal/service/retrieval"
	"github.com/yourusername/practice-api/internal/service/similarity"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type handlerFixture struct {
	router    *gin.Engine
	questions *mocks.MemoryQuestionRepository
	exposures *mocks.MemoryExposureRepository
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	log := logger.Nop()

	students := new(mocks.MockStudentRepository)
	students.On("ResolveOrCreate", mock.Anything, mock.AnythingOfType("string")).Return(uint(11), nil)
	curated := new(mocks.MockCuratedQuestionRepository)
	curated.On("FindByTopic", mock.Anything, mock.Anything).Return([]entity.CuratedQuestion{}, nil)

	questions := mocks.NewMemoryQuestionRepository()
	exposures := mocks.NewMemoryExposureRepository()
	states := mocks.NewMemoryDifficultyRepository()

	guard := similarity.NewGuard(similarity.NewMemoryWindow(similarity.DefaultWindowSize, time.Hour), exposures, similarity.GuardConfig{}, log)
	engine := difficulty.NewEngine(exposures, states, difficulty.DefaultConfig(), log)
	retriever := retrieval.NewOrchestrator(questions, retrieval.DefaultStrategies(questions, curated), log)
	templates := generation.NewTemplateGenerator()
	practice := service.NewPracticeService(students, questions, exposures, guard, engine, retriever,
		generation.NewChain(nil, templates, time.Second, log), templates, log)

	router := gin.New()
	router.Use(i18n.Middleware())
	NewPracticeHandler(practice, log).RegisterRoutes(router.Group("/api"), nil)

	return &handlerFixture{router: router, questions: questions, exposures: exposures}
}

func (f *handlerFixture) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		bodyBytes, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(bodyBytes))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

// parseJSONResponse парсит JSON ответ из *httptest.ResponseRecorder
func parseJSONResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err, "Response body should be valid JSON: %s", w.Body.String())
	return resp
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusOK, statusFor(service.CodeOK))
	assert.Equal(t, http.StatusOK, statusFor(service.CodeDegraded))
	assert.Equal(t, http.StatusBadRequest, statusFor(service.CodeInvalidInput))
	assert.Equal(t, http.StatusNotFound, statusFor(service.CodeNotFound))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(service.CodeNoQuestion))
	assert.Equal(t, http.StatusInternalServerError, statusFor("weird"))
}

func TestNextQuestion_ValidationErrors(t *testing.T) {
	f := newHandlerFixture(t)

	tests := []struct {
		name string
		body interface{}
	}{
		{"empty body", nil},
		{"missing student", map[string]interface{}{"topic": "algebra"}},
		{"missing topic", map[string]interface{}{"student_id": "s1"}},
		{"bad difficulty", map[string]interface{}{"student_id": "s1", "topic": "algebra", "difficulty": "extreme"}},
		{"grade out of range", map[string]interface{}{"student_id": "s1", "topic": "algebra", "grade": 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(http.MethodPost, "/api/practice/next", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := parseJSONResponse(t, w)
			assert.Equal(t, service.CodeInvalidInput, resp["code"])
			assert.Equal(t, "validation", resp["error_type"])
		})
	}
}

func TestNextQuestion_HidesAnswer(t *testing.T) {
	f := newHandlerFixture(t)
	grade := 8
	f.questions.Add(entity.Question{
		Text: "פתרו: 3x = 12", CorrectAnswer: "4", Grade: &grade,
		TopicKey: "algebra", Topic: "אלגברה", Difficulty: entity.DifficultyMedium,
		QualityScore: 60, IsActive: true, Source: entity.SourceCurated,
	})

	w := f.do(http.MethodPost, "/api/practice/next", map[string]interface{}{"student_id": "s1", "topic": "algebra", "grade": 8})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := parseJSONResponse(t, w)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, retrieval.TierTopicCache, resp["tier"])
	question := resp["question"].(map[string]interface{})
	assert.Equal(t, "פתרו: 3x = 12", question["text"])
	assert.NotContains(t, question, "correct_answer")
	assert.NotContains(t, w.Body.String(), "\"4\"")
	assert.Contains(t, resp, "recommendation")
}

func TestSubmitAnswer_Flow(t *testing.T) {
	f := newHandlerFixture(t)
	f.questions.Add(entity.Question{
		Text: "כמה זה 1/2 + 1/4?", CorrectAnswer: "3/4",
		TopicKey: "algebra", Topic: "אלגברה", Difficulty: entity.DifficultyEasy, IsActive: true,
	})

	w := f.do(http.MethodPost, "/api/practice/answer?lang=en", map[string]interface{}{
		"student_id": "s1", "question_id": 1, "answer": "0.75", "time_spent_seconds": 20,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := parseJSONResponse(t, w)
	assert.Equal(t, true, resp["is_correct"])
	assert.Equal(t, "Correct!", resp["reason"])
	assert.Equal(t, "3/4", resp["correct_answer"])

	w = f.do(http.MethodPost, "/api/practice/answer", map[string]interface{}{"student_id": "s1", "question_id": 99, "answer": "1"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = f.do(http.MethodPost, "/api/practice/answer", map[string]interface{}{"student_id": "s1", "question_id": 1, "hints_used": -2})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDifficultyEndpoints(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(http.MethodGet, "/api/practice/difficulty?student_id=s1&topic=algebra", nil)
	require.Equal(t, http.StatusOK, w.Code)
	rec := parseJSONResponse(t, w)["recommendation"].(map[string]interface{})
	assert.Equal(t, "medium", rec["difficulty"])
	assert.Equal(t, 0.0, rec["confidence"])

	w = f.do(http.MethodGet, "/api/practice/difficulty?topic=algebra", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// is_correct обязателен, false тоже допустимое значение
	w = f.do(http.MethodPost, "/api/practice/difficulty/check", map[string]interface{}{"student_id": "s1", "topic": "algebra", "difficulty": "hard"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var last map[string]interface{}
	for i := 0; i < 3; i++ {
		w = f.do(http.MethodPost, "/api/practice/difficulty/check", map[string]interface{}{
			"student_id": "s1", "topic": "algebra", "difficulty": "hard", "is_correct": false,
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		last = parseJSONResponse(t, w)
	}
	adj := last["adjustment"].(map[string]interface{})
	assert.Equal(t, true, adj["should_adjust"])
	assert.Equal(t, "medium", adj["new_difficulty"])
}

func TestClassifyEndpoint(t *testing.T) {
	f := newHandlerFixture(t)

	w := f.do(http.MethodPost, "/api/classify", map[string]interface{}{"text": "נגזרת של פונקציה"})
	require.Equal(t, http.StatusOK, w.Code)
	cls := parseJSONResponse(t, w)["classification"].(map[string]interface{})
	assert.Equal(t, 12.0, cls["grade"])
	assert.Equal(t, "calculus", cls["topic_key"])

	w = f.do(http.MethodPost, "/api/classify", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQuestionAdminEndpoints(t *testing.T) {
	f := newHandlerFixture(t)
	f.questions.Add(entity.Question{Text: "א", TopicKey: "algebra", Difficulty: entity.DifficultyEasy, QualityScore: 40, IsActive: true})
	f.questions.Add(entity.Question{Text: "ב", TopicKey: "algebra", Difficulty: entity.DifficultyEasy, QualityScore: 60, IsActive: true})

	w := f.do(http.MethodPost, "/api/questions/2/deactivate", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(http.MethodGet, "/api/questions/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := parseJSONResponse(t, w)["stats"].([]interface{})
	require.Len(t, stats, 1)
	row := stats[0].(map[string]interface{})
	assert.Equal(t, 2.0, row["total"])
	assert.Equal(t, 1.0, row["active"])
	assert.Equal(t, 50.0, row["avg_quality"])

	assert.Equal(t, http.StatusNotFound, f.do(http.MethodPost, "/api/questions/77/deactivate", nil).Code)
	assert.Equal(t, http.StatusBadRequest, f.do(http.MethodPost, "/api/questions/abc/deactivate", nil).Code)
}
