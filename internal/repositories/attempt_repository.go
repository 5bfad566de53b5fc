package repositories

import (
	"context"

	"github.com/SAP-F-2025/item-analysis-service/internal/models"
	"gorm.io/gorm"
)

// AttemptRepository interface for reading exam attempts
type AttemptRepository interface {
	// GetCompletedByExam returns COMPLETED attempts ordered by id
	GetCompletedByExam(ctx context.Context, tx *gorm.DB, tenantID string, examID uint) ([]*models.ExamAttempt, error)
}
