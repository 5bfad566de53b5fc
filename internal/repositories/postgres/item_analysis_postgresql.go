package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/item-analysis-service/internal/models"
	"github.com/SAP-F-2025/item-analysis-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ItemAnalysisPostgreSQL struct {
	db      *gorm.DB
	helpers *SharedHelpers
}

func NewItemAnalysisPostgreSQL(db *gorm.DB) repositories.ItemAnalysisRepository {
	return &ItemAnalysisPostgreSQL{
		db:      db,
		helpers: NewSharedHelpers(db),
	}
}

func (i *ItemAnalysisPostgreSQL) GetByExamAndQuestion(ctx context.Context, tx *gorm.DB, tenantID string, examID, questionID uint) (*models.QuestionItemAnalysis, error) {
	var analysis models.QuestionItemAnalysis
	if err := i.helpers.Conn(ctx, tx).
		Scopes(TenantScope("question_item_analyses", tenantID)).
		Where("exam_id = ? AND question_id = ?", examID, questionID).
		First(&analysis).Error; err != nil {
		return nil, err
	}
	return &analysis, nil
}

func (i *ItemAnalysisPostgreSQL) ListByExam(ctx context.Context, tx *gorm.DB, tenantID string, examID uint) ([]*models.QuestionItemAnalysis, error) {
	var analyses []*models.QuestionItemAnalysis
	if err := i.helpers.Conn(ctx, tx).
		Model(&models.QuestionItemAnalysis{}).
		Select("question_item_analyses.*").
		Joins("JOIN exam_questions ON exam_questions.id = question_item_analyses.question_id").
		Scopes(TenantScope("question_item_analyses", tenantID)).
		Where("question_item_analyses.exam_id = ?", examID).
		Clauses(questionOrder("exam_questions")).
		Find(&analyses).Error; err != nil {
		return nil, fmt.Errorf("failed to list item analyses: %w", err)
	}
	return analyses, nil
}

// Upsert relies on the unique (exam_id, question_id) index so concurrent runs
// can never leave two rows for the same question.
func (i *ItemAnalysisPostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, analysis *models.QuestionItemAnalysis) error {
	return i.helpers.Conn(ctx, tx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "exam_id"}, {Name: "question_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"total_attempts",
				"correct_answers",
				"incorrect_answers",
				"blank_answers",
				"option_statistics",
				"difficulty_index",
				"discrimination_index",
				"top_group_stats",
				"bottom_group_stats",
				"analysis",
				"last_calculated_at",
				"updated_at",
			}),
		}).
		Create(analysis).Error
}
