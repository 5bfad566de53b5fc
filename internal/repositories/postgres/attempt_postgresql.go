package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/item-analysis-service/internal/models"
	"github.com/SAP-F-2025/item-analysis-service/internal/repositories"
	"gorm.io/gorm"
)

type AttemptPostgreSQL struct {
	helpers *SharedHelpers
}

func NewAttemptPostgreSQL(db *gorm.DB) repositories.AttemptRepository {
	return &AttemptPostgreSQL{helpers: NewSharedHelpers(db)}
}

func (a *AttemptPostgreSQL) GetCompletedByExam(ctx context.Context, tx *gorm.DB, tenantID string, examID uint) ([]*models.ExamAttempt, error) {
	var attempts []*models.ExamAttempt
	if err := a.helpers.Conn(ctx, tx).
		Scopes(TenantScope("exam_attempts", tenantID)).
		Where("exam_id = ? AND status = ?", examID, models.AttemptCompleted).
		Order("id ASC").
		Find(&attempts).Error; err != nil {
		return nil, fmt.Errorf("failed to get completed attempts: %w", err)
	}
	return attempts, nil
}
