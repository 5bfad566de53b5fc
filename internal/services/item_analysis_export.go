package services

import (
	"context"
	"fmt"
	"time"

	"github.com/SAP-F-2025/item-analysis-service/internal/models"
	"github.com/xuri/excelize/v2"
)

const (
	ItemAnalysisSheet = "Item Analysis"
	OptionsSheet      = "Options"
)

var itemAnalysisHeaders = []string{
	"Order", "Question ID", "Question Type", "Question", "Total Attempts", "Correct", "Incorrect", "Blank",
	"Difficulty Index", "Discrimination Index", "Top Group Correct", "Top Group Total",
	"Bottom Group Correct", "Bottom Group Total", "Analysis", "Last Calculated At",
}

var optionHeaders = []string{
	"Question ID", "Option", "Content", "Selected", "Percentage", "Correct",
}

func (s *itemAnalysisService) ExportAnalyses(ctx context.Context, tenantID string, examID uint) (data []byte, err error) {
	op := s.serviceLogger.WithOperation(ctx, "export_analyses", tenantID, examID)
	defer func() { op.LogResult(resourceItemAnalysis, err) }()

	rows, err := s.GetAllAnalyses(ctx, tenantID, examID)
	if err != nil {
		return nil, err
	}

	questions, err := s.repo.ExamQuestion().GetActiveByExam(ctx, nil, tenantID, examID)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*models.ExamQuestion, len(questions))
	for _, question := range questions {
		byID[question.ID] = question
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ItemAnalysisSheet); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}
	if _, err := f.NewSheet(OptionsSheet); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	writeHeaders(f, ItemAnalysisSheet, itemAnalysisHeaders)
	writeHeaders(f, OptionsSheet, optionHeaders)

	optionRow := 2
	for rowIndex, row := range rows {
		question := byID[row.QuestionID]
		values := itemAnalysisRow(row, question)
		for colIndex, value := range values {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(ItemAnalysisSheet, cell, value)
		}

		for _, stat := range row.OptionStatistics.Data() {
			content := ""
			if question != nil {
				for _, option := range question.OptionList() {
					if option.Key == stat.Key {
						content = option.Content
						break
					}
				}
			}
			values := []interface{}{row.QuestionID, stat.Key, content, stat.Selected, stat.Percentage, stat.IsCorrect}
			for colIndex, value := range values {
				cell := fmt.Sprintf("%c%d", 'A'+colIndex, optionRow)
				f.SetCellValue(OptionsSheet, cell, value)
			}
			optionRow++
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	return buf.Bytes(), nil
}

func writeHeaders(f *excelize.File, sheet string, headers []string) {
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheet, cell, header)
	}
}

func itemAnalysisRow(row *models.QuestionItemAnalysis, question *models.ExamQuestion) []interface{} {
	var (
		order        interface{} = ""
		questionType             = ""
		content                  = ""
	)
	if question != nil {
		order = question.Order
		questionType = string(question.QuestionType)
		content = question.Content
	}

	top := row.TopGroupStats.Data()
	bottom := row.BottomGroupStats.Data()

	return []interface{}{
		order,
		row.QuestionID,
		questionType,
		content,
		row.TotalAttempts,
		row.CorrectAnswers,
		row.IncorrectAnswers,
		row.BlankAnswers,
		row.DifficultyIndex,
		row.DiscriminationIndex,
		top.Correct,
		top.Total,
		bottom.Correct,
		bottom.Total,
		row.Analysis,
		row.LastCalculatedAt.UTC().Format(time.RFC3339),
	}
}
