package httpadapter

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	workbookContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	answersSheet        = "Answers"
)

// buildAnswerWorkbook renders one row per question with its positional answer.
func buildAnswerWorkbook(documentURL string, questions, answers []string) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", answersSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	rows := [][]any{
		{"Document", documentURL},
		{},
		{"#", "Question", "Answer"},
	}
	for i, question := range questions {
		answer := ""
		if i < len(answers) {
			answer = answers[i]
		}
		rows = append(rows, []any{i + 1, question, answer})
	}
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(answersSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	if err := f.SetCellStyle(answersSheet, "A3", "C3", header); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}
	_ = f.SetColWidth(answersSheet, "B", "B", 60)
	_ = f.SetColWidth(answersSheet, "C", "C", 90)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
