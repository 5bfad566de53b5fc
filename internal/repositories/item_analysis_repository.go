package repositories

import (
	"context"

	"github.com/SAP-F-2025/item-analysis-service/internal/models"
	"gorm.io/gorm"
)

// ItemAnalysisRepository interface for persisted item analysis rows
type ItemAnalysisRepository interface {
	GetByExamAndQuestion(ctx context.Context, tx *gorm.DB, tenantID string, examID, questionID uint) (*models.QuestionItemAnalysis, error)

	// ListByExam returns rows ordered by the owning question's "order" ascending
	ListByExam(ctx context.Context, tx *gorm.DB, tenantID string, examID uint) ([]*models.QuestionItemAnalysis, error)

	// Upsert inserts the row or overwrites the existing row for (exam_id, question_id)
	Upsert(ctx context.Context, tx *gorm.DB, analysis *models.QuestionItemAnalysis) error
}
