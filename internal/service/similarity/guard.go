package similarity

import (
	"context"
	"time"

	"github.com/yourusername/practice-api/internal/domain/entity"
	"github.com/yourusername/practice-api/internal/domain/repository"
	"github.com/yourusername/practice-api/internal/pkg/logger"
)

const (
	DefaultHistoryDays  = 14
	DefaultHistoryLimit = 100
	avoidTextLimit      = 20
)

// GuardConfig задаёт глубину исторического окна
type GuardConfig struct {
	HistoryDays  int
	HistoryLimit int
}

// Exclusions - всё, что нужно исключить при подборе вопроса для (студент, тема)
type Exclusions struct {
	// QuestionIDs: показанные по теме за HistoryDays + последние HistoryLimit показов студента
	QuestionIDs []uint
	// AvoidTexts: тексты недавних вопросов, новые первыми (блок "не повторять" для генерации)
	AvoidTexts []string

	fingerprints []Fingerprint
	seenTexts    map[string]struct{}
}

// NewExclusions строит исключения из готовых списков (новые тексты первыми)
func NewExclusions(questionIDs []uint, texts []string) *Exclusions {
	excl := &Exclusions{QuestionIDs: questionIDs, seenTexts: make(map[string]struct{}, len(texts))}
	for _, text := range texts {
		normalized := entity.NormalizeText(text)
		if _, dup := excl.seenTexts[normalized]; dup {
			continue
		}
		excl.seenTexts[normalized] = struct{}{}
		excl.fingerprints = append(excl.fingerprints, NewFingerprint(text))
		excl.AvoidTexts = append(excl.AvoidTexts, text)
	}
	if len(excl.AvoidTexts) > avoidTextLimit {
		excl.AvoidTexts = excl.AvoidTexts[:avoidTextLimit]
	}
	return excl
}

// ShownText сообщает, показывался ли уже текст (сравнение после нормализации)
func (e *Exclusions) ShownText(text string) bool {
	if e == nil || len(e.seenTexts) == 0 {
		return false
	}
	_, ok := e.seenTexts[entity.NormalizeText(text)]
	return ok
}

// Rejects сообщает, похож ли текст на что-то из недавнего окна или истории
func (e *Exclusions) Rejects(text string) bool {
	if e == nil || len(e.fingerprints) == 0 {
		return false
	}
	return IsSimilar(NewFingerprint(text), e.fingerprints)
}

// Excluded сообщает, входит ли ID в список исключений
func (e *Exclusions) Excluded(id uint) bool {
	if e == nil {
		return false
	}
	for _, x := range e.QuestionIDs {
		if x == id {
			return true
		}
	}
	return false
}

// Guard объединяет сессионное окно и журнал показов.
// Ошибки хранилищ логируются и трактуются как пустая история: выдачу Guard не блокирует.
type Guard struct {
	window    RecentWindow
	exposures repository.ExposureRepository
	cfg       GuardConfig
	log       *logger.Logger
	now       func() time.Time
}

// NewGuard создает Guard
func NewGuard(window RecentWindow, exposures repository.ExposureRepository, cfg GuardConfig, log *logger.Logger) *Guard {
	if cfg.HistoryDays <= 0 {
		cfg.HistoryDays = DefaultHistoryDays
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = DefaultHistoryLimit
	}
	return &Guard{
		window:    window,
		exposures: exposures,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

// Load собирает исключения для пары (студент, тема).
// studentID == 0 (идентичность не разрешена) даёт пустые исключения.
func (g *Guard) Load(ctx context.Context, studentID uint, topicKey string) *Exclusions {
	excl := &Exclusions{seenTexts: make(map[string]struct{})}
	if studentID == 0 {
		return excl
	}

	ids := make(map[uint]struct{})
	addIDs := func(list []uint) {
		for _, id := range list {
			if _, ok := ids[id]; ok {
				continue
			}
			ids[id] = struct{}{}
			excl.QuestionIDs = append(excl.QuestionIDs, id)
		}
	}

	recent, err := g.window.Recent(ctx, studentID, topicKey)
	if err != nil {
		g.log.Warn("[SimilarityGuard] Сессионное окно недоступно", "student_id", studentID, "topic", topicKey, "error", err)
	}
	seenTexts := excl.seenTexts
	for _, e := range recent {
		if e.QuestionID != 0 {
			addIDs([]uint{e.QuestionID})
		}
		excl.fingerprints = append(excl.fingerprints, e.Fingerprint)
		if e.Text != "" {
			seenTexts[entity.NormalizeText(e.Text)] = struct{}{}
			excl.AvoidTexts = append(excl.AvoidTexts, e.Text)
		}
	}

	since := g.now().Add(-time.Duration(g.cfg.HistoryDays) * 24 * time.Hour)
	if topicIDs, err := g.exposures.QuestionIDsSince(ctx, studentID, topicKey, since); err != nil {
		g.log.Warn("[SimilarityGuard] Не удалось загрузить историю по теме", "student_id", studentID, "topic", topicKey, "error", err)
	} else {
		addIDs(topicIDs)
	}

	if lastIDs, err := g.exposures.RecentQuestionIDs(ctx, studentID, g.cfg.HistoryLimit); err != nil {
		g.log.Warn("[SimilarityGuard] Не удалось загрузить последние показы", "student_id", studentID, "error", err)
	} else {
		addIDs(lastIDs)
	}

	texts, err := g.exposures.QuestionTextsSince(ctx, studentID, topicKey, since, avoidTextLimit)
	if err != nil {
		g.log.Warn("[SimilarityGuard] Не удалось загрузить тексты истории", "student_id", studentID, "topic", topicKey, "error", err)
	}
	for _, text := range texts {
		normalized := entity.NormalizeText(text)
		if _, dup := seenTexts[normalized]; dup {
			continue
		}
		seenTexts[normalized] = struct{}{}
		excl.fingerprints = append(excl.fingerprints, NewFingerprint(text))
		excl.AvoidTexts = append(excl.AvoidTexts, text)
	}
	if len(excl.AvoidTexts) > avoidTextLimit {
		excl.AvoidTexts = excl.AvoidTexts[:avoidTextLimit]
	}
	return excl
}

// Remember кладёт выданный вопрос в сессионное окно
func (g *Guard) Remember(ctx context.Context, studentID uint, topicKey string, question *entity.Question) {
	if studentID == 0 || question == nil {
		return
	}
	entry := NewEntry(question.ID, question.Text, g.now().UTC())
	if err := g.window.Remember(ctx, studentID, topicKey, entry); err != nil {
		g.log.Warn("[SimilarityGuard] Не удалось записать вопрос в сессионное окно", "student_id", studentID, "topic", topicKey, "error", err)
	}
}
