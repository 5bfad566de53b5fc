package postgres

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/item-analysis-service/internal/models"
	"github.com/SAP-F-2025/item-analysis-service/internal/repositories"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ExamQuestionPostgreSQL struct {
	helpers *SharedHelpers
}

func NewExamQuestionPostgreSQL(db *gorm.DB) repositories.ExamQuestionRepository {
	return &ExamQuestionPostgreSQL{helpers: NewSharedHelpers(db)}
}

// questionOrder sorts by the quoted "order" column, then id for a stable result.
func questionOrder(table string) clause.OrderBy {
	return clause.OrderBy{Columns: []clause.OrderByColumn{
		{Column: clause.Column{Table: table, Name: "order"}},
		{Column: clause.Column{Table: table, Name: "id"}},
	}}
}

func (q *ExamQuestionPostgreSQL) GetActiveByExam(ctx context.Context, tx *gorm.DB, tenantID string, examID uint) ([]*models.ExamQuestion, error) {
	var questions []*models.ExamQuestion
	if err := q.helpers.Conn(ctx, tx).
		Scopes(TenantScope("exam_questions", tenantID)).
		Where("exam_id = ? AND is_active = ?", examID, true).
		Clauses(questionOrder("exam_questions")).
		Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("failed to get active questions: %w", err)
	}
	return questions, nil
}
