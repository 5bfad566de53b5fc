package repositories

import (
	"context"

	"github.com/SAP-F-2025/item-analysis-service/internal/models"
	"gorm.io/gorm"
)

// ExamQuestionRepository interface for reading exam questions
type ExamQuestionRepository interface {
	// GetActiveByExam returns active questions ordered by "order" ascending, then id
	GetActiveByExam(ctx context.Context, tx *gorm.DB, tenantID string, examID uint) ([]*models.ExamQuestion, error)
}
