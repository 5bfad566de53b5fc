package repositories

import (
	"context"

	"github.com/SAP-F-2025/item-analysis-service/internal/models"
	"gorm.io/gorm"
)

// ExamRepository interface for exam lookups (exams are owned by another service)
type ExamRepository interface {
	// GetByID returns gorm.ErrRecordNotFound when the exam does not exist or belongs to another tenant
	GetByID(ctx context.Context, tx *gorm.DB, tenantID string, id uint) (*models.Exam, error)
	// Exists reports whether the tenant owns the exam without loading it
	Exists(ctx context.Context, tx *gorm.DB, tenantID string, id uint) (bool, error)
}
