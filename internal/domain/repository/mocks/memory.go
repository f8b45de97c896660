package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/yourusername/practice-api/internal/domain/entity"
	"github.com/yourusername/practice-api/internal/domain/repository"
	apperrors "github.com/yourusername/practice-api/internal/pkg/errors"
)

// MemoryExposureRepository - журнал показов в памяти с тем же порядком (created_at, id), что и в Postgres
type MemoryExposureRepository struct {
	mu        sync.Mutex
	nextID    uint
	exposures []entity.Exposure
	// Texts: текст вопроса по ID для QuestionTextsSince
	Texts map[uint]string
	// Now задаёт время вставки, если у записи его нет
	Now func() time.Time
}

var _ repository.ExposureRepository = (*MemoryExposureRepository)(nil)

// NewMemoryExposureRepository создает пустой журнал
func NewMemoryExposureRepository() *MemoryExposureRepository {
	return &MemoryExposureRepository{Texts: make(map[uint]string), Now: time.Now}
}

func (r *MemoryExposureRepository) Append(_ context.Context, exposure *entity.Exposure) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	exposure.ID = r.nextID
	if exposure.CreatedAt.IsZero() {
		exposure.CreatedAt = r.Now().UTC()
	}
	r.exposures = append(r.exposures, *exposure)
	return nil
}

// All возвращает копию журнала в порядке вставки
func (r *MemoryExposureRepository) All() []entity.Exposure {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.Exposure, len(r.exposures))
	copy(out, r.exposures)
	return out
}

// newestFirst возвращает записи, удовлетворяющие filter, в порядке (created_at DESC, id DESC)
func (r *MemoryExposureRepository) newestFirst(filter func(e *entity.Exposure) bool) []entity.Exposure {
	var out []entity.Exposure
	for i := range r.exposures {
		if filter(&r.exposures[i]) {
			out = append(out, r.exposures[i])
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		if !out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].CreatedAt.After(out[b].CreatedAt)
		}
		return out[a].ID > out[b].ID
	})
	return out
}

func (r *MemoryExposureRepository) RecentAnswers(_ context.Context, studentID uint, topicKey string, limit int) ([]entity.Exposure, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.newestFirst(func(e *entity.Exposure) bool {
		return e.StudentID == studentID && (topicKey == "" || e.TopicKey == topicKey) && e.Kind == entity.ExposureAnswered
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryExposureRepository) RecentQuestionIDs(_ context.Context, studentID uint, limit int) ([]uint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	shown := r.newestFirst(func(e *entity.Exposure) bool {
		return e.StudentID == studentID && e.Kind == entity.ExposureShown && e.QuestionID != nil
	})
	if len(shown) > limit {
		shown = shown[:limit]
	}
	ids := make([]uint, 0, len(shown))
	for _, e := range shown {
		ids = append(ids, *e.QuestionID)
	}
	return ids, nil
}

func (r *MemoryExposureRepository) QuestionIDsSince(_ context.Context, studentID uint, topicKey string, since time.Time) ([]uint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	shown := r.newestFirst(func(e *entity.Exposure) bool {
		return e.StudentID == studentID && e.TopicKey == topicKey && e.Kind == entity.ExposureShown &&
			e.QuestionID != nil && !e.CreatedAt.Before(since)
	})
	seen := make(map[uint]struct{})
	ids := make([]uint, 0, len(shown))
	for _, e := range shown {
		if _, ok := seen[*e.QuestionID]; ok {
			continue
		}
		seen[*e.QuestionID] = struct{}{}
		ids = append(ids, *e.QuestionID)
	}
	return ids, nil
}

func (r *MemoryExposureRepository) QuestionTextsSince(_ context.Context, studentID uint, topicKey string, since time.Time, limit int) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	shown := r.newestFirst(func(e *entity.Exposure) bool {
		return e.StudentID == studentID && e.TopicKey == topicKey && e.Kind == entity.ExposureShown &&
			e.QuestionID != nil && !e.CreatedAt.Before(since)
	})
	var texts []string
	for _, e := range shown {
		if text, ok := r.Texts[*e.QuestionID]; ok {
			texts = append(texts, text)
		}
		if len(texts) == limit {
			break
		}
	}
	return texts, nil
}

// MemoryDifficultyRepository - состояние сложности в памяти; Mutate сериализуется мьютексом,
// как строковая блокировка в Postgres
type MemoryDifficultyRepository struct {
	mu          sync.Mutex
	nextID      uint
	states      map[string]*entity.DifficultyState
	Adjustments []entity.DifficultyAdjustment
	// MutateErr, если задана, возвращается из Mutate (имитация сбоя БД)
	MutateErr error
}

var _ repository.DifficultyRepository = (*MemoryDifficultyRepository)(nil)

// NewMemoryDifficultyRepository создает пустое хранилище
func NewMemoryDifficultyRepository() *MemoryDifficultyRepository {
	return &MemoryDifficultyRepository{states: make(map[string]*entity.DifficultyState)}
}

func stateKey(studentID uint, topicKey string) string {
	return fmt.Sprintf("%d:%s", studentID, topicKey)
}

func (r *MemoryDifficultyRepository) Get(_ context.Context, studentID uint, topicKey string) (*entity.DifficultyState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.states[stateKey(studentID, topicKey)]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *state
	return &copied, nil
}

func (r *MemoryDifficultyRepository) Mutate(_ context.Context, studentID uint, topicKey string, fn repository.DifficultyMutator) (*entity.DifficultyState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.MutateErr != nil {
		return nil, r.MutateErr
	}

	key := stateKey(studentID, topicKey)
	current, ok := r.states[key]
	if !ok {
		r.nextID++
		current = &entity.DifficultyState{
			ID:        r.nextID,
			StudentID: studentID,
			TopicKey:  topicKey,
			Level:     entity.AnchorLevel(entity.DifficultyMedium),
			Trend:     entity.TrendStable,
			CreatedAt: time.Now().UTC(),
		}
	}

	working := *current
	adjustment, err := fn(&working)
	if err != nil {
		return nil, err
	}
	working.UpdatedAt = time.Now().UTC()
	r.states[key] = &working

	if adjustment != nil {
		adjustment.StudentID = studentID
		adjustment.TopicKey = topicKey
		r.Adjustments = append(r.Adjustments, *adjustment)
	}
	result := working
	return &result, nil
}

func (r *MemoryDifficultyRepository) History(_ context.Context, studentID uint, topicKey string, limit int) ([]entity.DifficultyAdjustment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.DifficultyAdjustment
	for i := len(r.Adjustments) - 1; i >= 0 && len(out) < limit; i-- {
		a := r.Adjustments[i]
		if a.StudentID == studentID && a.TopicKey == topicKey {
			out = append(out, a)
		}
	}
	return out, nil
}

// MemoryQuestionRepository - каталог вопросов в памяти. Порядок кандидатов как в Postgres,
// но вместо RANDOM() при равенстве используется ID (детерминированно для тестов).
type MemoryQuestionRepository struct {
	mu        sync.Mutex
	nextID    uint
	questions map[uint]*entity.Question
	// CreateErr, если задана, возвращается из CreateOrGetByHash
	CreateErr error
}

var _ repository.QuestionRepository = (*MemoryQuestionRepository)(nil)

// NewMemoryQuestionRepository создает пустой каталог
func NewMemoryQuestionRepository() *MemoryQuestionRepository {
	return &MemoryQuestionRepository{questions: make(map[uint]*entity.Question)}
}

// Add кладёт вопрос как есть (ID назначается, если не задан)
func (r *MemoryQuestionRepository) Add(q entity.Question) *entity.Question {
	r.mu.Lock()
	defer r.mu.Unlock()
	if q.ID == 0 {
		r.nextID++
		q.ID = r.nextID
	} else if q.ID > r.nextID {
		r.nextID = q.ID
	}
	if q.ContentHash == "" {
		q.ContentHash = entity.ContentHash(q.Text)
	}
	r.questions[q.ID] = &q
	copied := q
	return &copied
}

func (r *MemoryQuestionRepository) GetByID(_ context.Context, id uint) (*entity.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.questions[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	copied := *q
	return &copied, nil
}

func (r *MemoryQuestionRepository) GetByContentHash(_ context.Context, hash string) (*entity.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, q := range r.questions {
		if q.ContentHash == hash {
			copied := *q
			return &copied, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *MemoryQuestionRepository) CreateOrGetByHash(ctx context.Context, question *entity.Question) (*entity.Question, bool, error) {
	if r.CreateErr != nil {
		return nil, false, r.CreateErr
	}
	if existing, err := r.GetByContentHash(ctx, question.ContentHash); err == nil {
		return existing, false, nil
	}
	return r.Add(*question), true, nil
}

func (r *MemoryQuestionRepository) FindCandidates(_ context.Context, filter repository.QuestionFilter) ([]entity.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	excluded := make(map[uint]struct{}, len(filter.ExcludeIDs))
	for _, id := range filter.ExcludeIDs {
		excluded[id] = struct{}{}
	}

	var out []entity.Question
	for _, q := range r.questions {
		if _, skip := excluded[q.ID]; skip || !q.IsActive || q.TopicKey != filter.TopicKey || q.Difficulty != filter.Difficulty {
			continue
		}
		if filter.SubtopicKey != nil && (q.SubtopicKey == nil || *q.SubtopicKey != *filter.SubtopicKey) {
			continue
		}
		if filter.Grade != nil && q.Grade != nil && *q.Grade != *filter.Grade {
			continue
		}
		out = append(out, *q)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].QualityTier() != out[b].QualityTier() {
			return out[a].QualityTier() > out[b].QualityTier()
		}
		if out[a].UsageCount != out[b].UsageCount {
			return out[a].UsageCount < out[b].UsageCount
		}
		return out[a].ID < out[b].ID
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *MemoryQuestionRepository) IncrementUsage(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.questions[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	q.UsageCount++
	return nil
}

// RecomputeStats в памяти не пересчитывает ничего: журнал ответов хранится отдельно
func (r *MemoryQuestionRepository) RecomputeStats(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.questions[id]; !ok {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *MemoryQuestionRepository) UpdateClassification(_ context.Context, id uint, update repository.ClassificationUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.questions[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	q.Grade, q.UnitTrack = update.Grade, update.UnitTrack
	q.TopicKey, q.Topic = update.TopicKey, update.Topic
	q.SubtopicKey, q.Subtopic = update.SubtopicKey, update.Subtopic
	q.Difficulty = update.Difficulty
	return nil
}

func (r *MemoryQuestionRepository) Deactivate(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.questions[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	q.IsActive = false
	return nil
}

func (r *MemoryQuestionRepository) ListActive(_ context.Context, afterID uint, limit int) ([]entity.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.Question
	for _, q := range r.questions {
		if q.IsActive && q.ID > afterID {
			out = append(out, *q)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryQuestionRepository) GetTopicStats(_ context.Context) ([]repository.TopicStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	byKey := make(map[string]*repository.TopicStats)
	var keys []string
	for _, q := range r.questions {
		key := q.TopicKey + "|" + string(q.Difficulty)
		st, ok := byKey[key]
		if !ok {
			st = &repository.TopicStats{TopicKey: q.TopicKey, Difficulty: q.Difficulty}
			byKey[key] = st
			keys = append(keys, key)
		}
		st.Total++
		if q.IsActive {
			st.Active++
		}
		st.AvgQuality += float64(q.QualityScore)
		st.AvgSuccessRate += q.SuccessRate
		st.TotalUsageCount += int64(q.UsageCount)
	}
	sort.Strings(keys)
	out := make([]repository.TopicStats, 0, len(keys))
	for _, key := range keys {
		st := byKey[key]
		st.AvgQuality /= float64(st.Total)
		st.AvgSuccessRate /= float64(st.Total)
		out = append(out, *st)
	}
	return out, nil
}
