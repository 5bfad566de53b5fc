package postgres

import (
	"context"

	"github.com/SAP-F-2025/item-analysis-service/internal/repositories"
	"gorm.io/gorm"
)

type Repository struct {
	db           *gorm.DB
	exam         repositories.ExamRepository
	examQuestion repositories.ExamQuestionRepository
	attempt      repositories.AttemptRepository
	itemAnalysis repositories.ItemAnalysisRepository
}

func NewRepository(db *gorm.DB) repositories.Repository {
	return &Repository{
		db:           db,
		exam:         NewExamPostgreSQL(db),
		examQuestion: NewExamQuestionPostgreSQL(db),
		attempt:      NewAttemptPostgreSQL(db),
		itemAnalysis: NewItemAnalysisPostgreSQL(db),
	}
}

func (r *Repository) Exam() repositories.ExamRepository                 { return r.exam }
func (r *Repository) ExamQuestion() repositories.ExamQuestionRepository { return r.examQuestion }
func (r *Repository) Attempt() repositories.AttemptRepository           { return r.attempt }
func (r *Repository) ItemAnalysis() repositories.ItemAnalysisRepository { return r.itemAnalysis }

func (r *Repository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
