package postgres

import (
	"context"

	"github.com/SAP-F-2025/item-analysis-service/internal/models"
	"github.com/SAP-F-2025/item-analysis-service/internal/repositories"
	"gorm.io/gorm"
)

type ExamPostgreSQL struct {
	helpers *SharedHelpers
}

func NewExamPostgreSQL(db *gorm.DB) repositories.ExamRepository {
	return &ExamPostgreSQL{helpers: NewSharedHelpers(db)}
}

func (e *ExamPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, tenantID string, id uint) (*models.Exam, error) {
	var exam models.Exam
	if err := e.helpers.Conn(ctx, tx).
		Scopes(TenantScope("exams", tenantID)).
		First(&exam, id).Error; err != nil {
		return nil, err
	}
	return &exam, nil
}

func (e *ExamPostgreSQL) Exists(ctx context.Context, tx *gorm.DB, tenantID string, id uint) (bool, error) {
	var count int64
	err := e.helpers.Conn(ctx, tx).
		Model(&models.Exam{}).
		Scopes(TenantScope("exams", tenantID)).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}
