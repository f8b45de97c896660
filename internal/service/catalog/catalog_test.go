package catalog

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/practice-api/internal/domain/entity"
	"github.com/yourusername/practice-api/internal/domain/repository"
	"github.com/yourusername/practice-api/internal/domain/repository/mocks"
	"github.com/yourusername/practice-api/internal/pkg/logger"
)

func intPtr(v int) *int { return &v }

func TestReclassify(t *testing.T) {
	ctx := context.Background()
	repo := mocks.NewMemoryQuestionRepository()

	// размечен неверно: текст про производную, а сохранён 8 класс и general
	wrong := repo.Add(entity.Question{Text: "חשבו את הנגזרת של הפונקציה", Grade: intPtr(8), TopicKey: "general", Topic: "general", Difficulty: entity.DifficultyEasy, IsActive: true})
	// без сигналов в тексте: своя тема остаётся
	custom := repo.Add(entity.Question{Text: "שאלה כללית", Grade: intPtr(8), TopicKey: "olympiad", Topic: "אולימפיאדה", Difficulty: entity.DifficultyMedium, IsActive: true})
	inactive := repo.Add(entity.Question{Text: "חשבו את הנגזרת", Grade: intPtr(8), TopicKey: "general", Difficulty: entity.DifficultyEasy})

	report, err := Reclassify(ctx, repo, ReclassifyOptions{DryRun: true, PageSize: 1}, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Scanned)
	assert.Equal(t, 1, report.Changed)

	unchanged, _ := repo.GetByID(ctx, wrong.ID)
	assert.Equal(t, 8, unchanged.GradeValue())

	report, err = Reclassify(ctx, repo, ReclassifyOptions{}, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Changed)
	assert.Zero(t, report.Failed)

	fixed, _ := repo.GetByID(ctx, wrong.ID)
	assert.Equal(t, 12, fixed.GradeValue())
	assert.Equal(t, "calculus", fixed.TopicKey)

	kept, _ := repo.GetByID(ctx, custom.ID)
	assert.Equal(t, "olympiad", kept.TopicKey)

	skipped, _ := repo.GetByID(ctx, inactive.ID)
	assert.Equal(t, 8, skipped.GradeValue())
}

func TestReclassify_ListError(t *testing.T) {
	repo := new(mocks.MockQuestionRepository)
	repo.On("ListActive", mock.Anything, uint(0), defaultPageSize).Return(nil, errors.New("db down"))

	_, err := Reclassify(context.Background(), repo, ReclassifyOptions{}, logger.Nop())
	assert.Error(t, err)
}

func workbook(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestImportBank(t *testing.T) {
	buf := workbook(t, [][]interface{}{
		{"Text", "Answer", "Hints", "Grade", "Topic", "Difficulty"},
		{"פתרו: 2x + 1 = 7", "3", "העבירו אגפים | חלקו ב-2", 8, "אלגברה", "easy"},
		{"נגזרת של פונקציה", "2x", "", "", "", ""},
		{"", "5", "", "", "", ""},
		{"שאלה", "1", "", 3, "", ""},
	})

	curated := new(mocks.MockCuratedQuestionRepository)
	var saved []entity.CuratedQuestion
	curated.On("CreateBatch", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		saved = append(saved, args.Get(1).([]entity.CuratedQuestion)...)
	}).Return(nil).Once()

	report, err := ImportBank(context.Background(), curated, buf, false, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, ImportReport{Rows: 4, Imported: 2, Skipped: 2, Classified: 1}, report)

	require.Len(t, saved, 2)
	assert.Equal(t, entity.StringArray{"העבירו אגפים", "חלקו ב-2"}, saved[0].Hints)
	assert.Equal(t, 8, saved[0].Grade)
	assert.Equal(t, entity.DifficultyEasy, saved[0].Difficulty)

	assert.Equal(t, 12, saved[1].Grade)
	assert.Equal(t, "חשבון דיפרנציאלי", saved[1].Topic)
	assert.Equal(t, entity.StringArray{}, saved[1].Hints)
	curated.AssertExpectations(t)
}

func TestImportBank_DryRunAndMissingColumn(t *testing.T) {
	curated := new(mocks.MockCuratedQuestionRepository)

	buf := workbook(t, [][]interface{}{{"text", "answer"}, {"כמה זה 2+2", "4"}})
	report, err := ImportBank(context.Background(), curated, buf, true, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Imported)
	curated.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)

	buf = workbook(t, [][]interface{}{{"text"}, {"כמה זה 2+2"}})
	_, err = ImportBank(context.Background(), curated, buf, false, logger.Nop())
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestExportStats(t *testing.T) {
	var out bytes.Buffer
	err := ExportStats([]repository.TopicStats{
		{TopicKey: "algebra", Difficulty: entity.DifficultyEasy, Total: 3, Active: 2, AvgQuality: 51.666, AvgSuccessRate: 70, TotalUsageCount: 12},
		{TopicKey: "=cmd", Difficulty: entity.DifficultyHard, Total: 1, Active: 1},
	}, &out)
	require.NoError(t, err)

	f, err := excelize.OpenReader(&out)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(statsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Тема", rows[0][0])
	assert.Equal(t, []string{"algebra", "easy", "3", "2", "51.67", "70", "12"}, rows[1])
	assert.Equal(t, "'=cmd", rows[2][0])
}
