package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/yourusername/practice-api/internal/domain/entity"
	"github.com/yourusername/practice-api/internal/domain/repository"
	"github.com/yourusername/practice-api/internal/pkg/logger"
	"github.com/yourusername/practice-api/internal/service/classifier"
)

const importBatchSize = 500

// Колонки листа банка. Обязательны text и answer, остальные можно оставить пустыми.
const (
	colText        = "text"
	colAnswer      = "answer"
	colExplanation = "explanation"
	colHints       = "hints"
	colSteps       = "solution_steps"
	colGrade       = "grade"
	colTopic       = "topic"
	colSubtopic    = "subtopic"
	colDifficulty  = "difficulty"
)

// listSeparator разделяет подсказки и шаги решения внутри одной ячейки
const listSeparator = "|"

// ErrMissingColumn - в заголовке листа нет обязательной колонки
var ErrMissingColumn = errors.New("required column is missing")

// ImportReport - итог импорта банка
type ImportReport struct {
	Rows       int
	Imported   int
	Skipped    int
	Classified int
}

// ImportBank читает первый лист xlsx и сохраняет строки в curated_questions.
// Пустые класс, тема или сложность заполняются классификатором.
func ImportBank(ctx context.Context, curated repository.CuratedQuestionRepository, r io.Reader, dryRun bool, log *logger.Logger) (ImportReport, error) {
	var report ImportReport

	f, err := excelize.OpenReader(r)
	if err != nil {
		return report, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return report, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return report, nil
	}

	columns := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{colText, colAnswer} {
		if _, ok := columns[required]; !ok {
			return report, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}
	cell := func(row []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	batch := make([]entity.CuratedQuestion, 0, importBatchSize)
	flush := func() error {
		if len(batch) == 0 || dryRun {
			batch = batch[:0]
			return nil
		}
		if err := curated.CreateBatch(ctx, batch); err != nil {
			return fmt.Errorf("save curated batch: %w", err)
		}
		batch = batch[:0]
		return nil
	}

	for n, row := range rows[1:] {
		line := n + 2
		report.Rows++

		q, classified, err := rowToCurated(cell, row)
		if err != nil {
			report.Skipped++
			log.Warn("[ImportBank] Строка пропущена", "row", line, "error", err)
			continue
		}
		if classified {
			report.Classified++
		}
		batch = append(batch, q)
		report.Imported++

		if len(batch) == importBatchSize {
			if err := flush(); err != nil {
				return report, err
			}
		}
	}
	if err := flush(); err != nil {
		return report, err
	}

	log.Info("[ImportBank] Импорт завершён", "rows", report.Rows, "imported", report.Imported,
		"skipped", report.Skipped, "classified", report.Classified, "dry_run", dryRun)
	return report, nil
}

func rowToCurated(cell func([]string, string) string, row []string) (entity.CuratedQuestion, bool, error) {
	text := cell(row, colText)
	answer := cell(row, colAnswer)
	if text == "" || answer == "" {
		return entity.CuratedQuestion{}, false, errors.New("text and answer are required")
	}

	q := entity.CuratedQuestion{
		Text:          text,
		CorrectAnswer: answer,
		Explanation:   cell(row, colExplanation),
		Hints:         splitList(cell(row, colHints)),
		SolutionSteps: splitList(cell(row, colSteps)),
		Topic:         cell(row, colTopic),
		Subtopic:      cell(row, colSubtopic),
		IsActive:      true,
	}

	var gradeHint *int
	if raw := cell(row, colGrade); raw != "" {
		grade, err := strconv.Atoi(raw)
		if err != nil || grade < classifier.MinGrade || grade > classifier.MaxGrade {
			return entity.CuratedQuestion{}, false, fmt.Errorf("invalid grade %q", raw)
		}
		q.Grade = grade
		gradeHint = &grade
	}
	if raw := cell(row, colDifficulty); raw != "" {
		d, ok := entity.ParseDifficulty(raw)
		if !ok {
			return entity.CuratedQuestion{}, false, fmt.Errorf("invalid difficulty %q", raw)
		}
		q.Difficulty = d
	}

	if q.Grade != 0 && q.Topic != "" && q.Difficulty != "" {
		return q, false, nil
	}

	cls := classifier.Classify(text, classifier.Metadata{Grade: gradeHint, Topic: q.Topic, Subtopic: q.Subtopic})
	if q.Grade == 0 {
		q.Grade = cls.Grade
	}
	if q.Topic == "" {
		q.Topic = cls.Topic
		if cls.Subtopic != nil && q.Subtopic == "" {
			q.Subtopic = *cls.Subtopic
		}
	}
	if q.Difficulty == "" {
		q.Difficulty = cls.Difficulty
	}
	return q, true, nil
}

func splitList(raw string) entity.StringArray {
	out := entity.StringArray{}
	for _, part := range strings.Split(raw, listSeparator) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
