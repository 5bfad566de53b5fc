package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Repository groups every repository used by the service layer.
type Repository interface {
	Exam() ExamRepository
	ExamQuestion() ExamQuestionRepository
	Attempt() AttemptRepository
	ItemAnalysis() ItemAnalysisRepository

	// WithTransaction runs fn inside a database transaction. The tx handed to fn
	// must be passed to every repository call that should join the transaction.
	WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error

	Ping(ctx context.Context) error
	Close() error
}

// ===== SHARED HELPERS =====

// IsNotFoundError reports whether err means the requested row does not exist.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
