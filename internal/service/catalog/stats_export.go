package catalog

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/yourusername/practice-api/internal/domain/repository"
)

const statsSheet = "Статистика"

// ExportStats пишет агрегаты каталога в xlsx через StreamWriter
func ExportStats(stats []repository.TopicStats, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", statsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(statsSheet)
	if err != nil {
		return fmt.Errorf("create stream writer: %w", err)
	}

	headers := []interface{}{"Тема", "Сложность", "Всего", "Активных", "Ср. качество", "Ср. успешность, %", "Показов"}
	if err := sw.SetRow("A1", headers); err != nil {
		return fmt.Errorf("write headers: %w", err)
	}

	for i, s := range stats {
		cell := fmt.Sprintf("A%d", i+2)
		row := []interface{}{
			sanitizeForExcel(s.TopicKey),
			string(s.Difficulty),
			s.Total,
			s.Active,
			roundTo2(s.AvgQuality),
			roundTo2(s.AvgSuccessRate),
			s.TotalUsageCount,
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func roundTo2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}
