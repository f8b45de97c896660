// Package catalog - пакетные операции над каталогом: переразметка,
// импорт банка вопросов из xlsx и выгрузка статистики.
package catalog

import (
	"context"
	"fmt"

	"github.com/yourusername/practice-api/internal/domain/entity"
	"github.com/yourusername/practice-api/internal/domain/repository"
	"github.com/yourusername/practice-api/internal/pkg/logger"
	"github.com/yourusername/practice-api/internal/service/classifier"
)

const defaultPageSize = 200

// ReclassifyOptions управляет переразметкой
type ReclassifyOptions struct {
	DryRun   bool
	PageSize int
}

// ReclassifyReport - итог переразметки
type ReclassifyReport struct {
	Scanned int
	Changed int
	Failed  int
}

// Reclassify проходит по активным вопросам страницами и заново размечает их классификатором.
// Текущие класс и тема передаются как подсказки: они используются, только если в тексте нет сигналов.
func Reclassify(ctx context.Context, questions repository.QuestionRepository, opts ReclassifyOptions, log *logger.Logger) (ReclassifyReport, error) {
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	var report ReclassifyReport
	var afterID uint
	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		page, err := questions.ListActive(ctx, afterID, pageSize)
		if err != nil {
			return report, fmt.Errorf("list active questions after %d: %w", afterID, err)
		}
		if len(page) == 0 {
			return report, nil
		}

		for i := range page {
			q := &page[i]
			afterID = q.ID
			report.Scanned++

			update, changed := relabel(q)
			if !changed {
				continue
			}
			report.Changed++
			if opts.DryRun {
				log.Info("[Reclassify] dry-run", "question_id", q.ID,
					"grade", q.GradeValue(), "new_grade", valueOr(update.Grade),
					"topic", q.TopicKey, "new_topic", update.TopicKey,
					"difficulty", q.Difficulty, "new_difficulty", update.Difficulty)
				continue
			}
			if err := questions.UpdateClassification(ctx, q.ID, update); err != nil {
				report.Failed++
				log.Warn("[Reclassify] Не удалось обновить метки", "question_id", q.ID, "error", err)
			}
		}
	}
}

// relabel классифицирует вопрос и сообщает, отличаются ли новые метки от сохранённых
func relabel(q *entity.Question) (repository.ClassificationUpdate, bool) {
	cls := classifier.Classify(q.Text, classifier.Metadata{Grade: q.Grade, Topic: q.TopicKey, Subtopic: valueOrEmpty(q.SubtopicKey)})
	grade := cls.Grade
	update := repository.ClassificationUpdate{
		Grade:       &grade,
		UnitTrack:   cls.UnitTrack,
		TopicKey:    cls.TopicKey,
		Topic:       cls.Topic,
		SubtopicKey: cls.SubtopicKey,
		Subtopic:    cls.Subtopic,
		Difficulty:  cls.Difficulty,
	}
	// словарь ничего не нашёл, а у вопроса уже есть своя тема: не затираем её на general
	if cls.TopicKey == classifier.GeneralTopicKey && q.TopicKey != "" {
		update.TopicKey, update.Topic = q.TopicKey, q.Topic
		update.SubtopicKey, update.Subtopic = q.SubtopicKey, q.Subtopic
	}

	changed := q.GradeValue() != grade ||
		valueOr(q.UnitTrack) != valueOr(update.UnitTrack) ||
		q.TopicKey != update.TopicKey ||
		valueOrEmpty(q.SubtopicKey) != valueOrEmpty(update.SubtopicKey) ||
		q.Difficulty != update.Difficulty
	return update, changed
}

func valueOr(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func valueOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
