package services

import (
	"context"
	"sort"
	"time"

	"github.com/SAP-F-2025/item-analysis-service/internal/events"
	"github.com/SAP-F-2025/item-analysis-service/internal/models"
	"github.com/SAP-F-2025/item-analysis-service/internal/repositories"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

// MockExamRepository is a mock implementation of ExamRepository
type MockExamRepository struct {
	mock.Mock
}

func (m *MockExamRepository) GetByID(ctx context.Context, tx *gorm.DB, tenantID string, id uint) (*models.Exam, error) {
	args := m.Called(ctx, tx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Exam), args.Error(1)
}

func (m *MockExamRepository) Exists(ctx context.Context, tx *gorm.DB, tenantID string, id uint) (bool, error) {
	args := m.Called(ctx, tx, tenantID, id)
	return args.Bool(0), args.Error(1)
}

// MockExamQuestionRepository is a mock implementation of ExamQuestionRepository
type MockExamQuestionRepository struct {
	mock.Mock
}

func (m *MockExamQuestionRepository) GetActiveByExam(ctx context.Context, tx *gorm.DB, tenantID string, examID uint) ([]*models.ExamQuestion, error) {
	args := m.Called(ctx, tx, tenantID, examID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ExamQuestion), args.Error(1)
}

// MockAttemptRepository is a mock implementation of AttemptRepository
type MockAttemptRepository struct {
	mock.Mock
}

func (m *MockAttemptRepository) GetCompletedByExam(ctx context.Context, tx *gorm.DB, tenantID string, examID uint) ([]*models.ExamAttempt, error) {
	args := m.Called(ctx, tx, tenantID, examID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ExamAttempt), args.Error(1)
}

// MockItemAnalysisRepository is a mock implementation of ItemAnalysisRepository
type MockItemAnalysisRepository struct {
	mock.Mock
}

func (m *MockItemAnalysisRepository) GetByExamAndQuestion(ctx context.Context, tx *gorm.DB, tenantID string, examID, questionID uint) (*models.QuestionItemAnalysis, error) {
	args := m.Called(ctx, tx, tenantID, examID, questionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QuestionItemAnalysis), args.Error(1)
}

func (m *MockItemAnalysisRepository) ListByExam(ctx context.Context, tx *gorm.DB, tenantID string, examID uint) ([]*models.QuestionItemAnalysis, error) {
	args := m.Called(ctx, tx, tenantID, examID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.QuestionItemAnalysis), args.Error(1)
}

func (m *MockItemAnalysisRepository) Upsert(ctx context.Context, tx *gorm.DB, analysis *models.QuestionItemAnalysis) error {
	args := m.Called(ctx, tx, analysis)
	return args.Error(0)
}

// MockRepository is a mock implementation of the main Repository interface.
// WithTransaction runs the callback directly with a nil tx.
type MockRepository struct {
	mock.Mock
	examRepo         *MockExamRepository
	examQuestionRepo *MockExamQuestionRepository
	attemptRepo      *MockAttemptRepository
	itemAnalysisRepo repositories.ItemAnalysisRepository
}

func newMockRepository() *MockRepository {
	return &MockRepository{
		examRepo:         &MockExamRepository{},
		examQuestionRepo: &MockExamQuestionRepository{},
		attemptRepo:      &MockAttemptRepository{},
		itemAnalysisRepo: &MockItemAnalysisRepository{},
	}
}

func (m *MockRepository) Exam() repositories.ExamRepository                 { return m.examRepo }
func (m *MockRepository) ExamQuestion() repositories.ExamQuestionRepository { return m.examQuestionRepo }
func (m *MockRepository) Attempt() repositories.AttemptRepository           { return m.attemptRepo }
func (m *MockRepository) ItemAnalysis() repositories.ItemAnalysisRepository { return m.itemAnalysisRepo }

func (m *MockRepository) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}
func (m *MockRepository) Ping(ctx context.Context) error { return nil }
func (m *MockRepository) Close() error                   { return nil }

func (m *MockRepository) itemAnalysisMock() *MockItemAnalysisRepository {
	return m.itemAnalysisRepo.(*MockItemAnalysisRepository)
}

// fakeItemAnalysisRepository stores rows in memory keyed by (exam, question)
// and behaves like the unique-index upsert.
type fakeItemAnalysisRepository struct {
	rows   map[[2]uint]*models.QuestionItemAnalysis
	nextID uint
}

func newFakeItemAnalysisRepository() *fakeItemAnalysisRepository {
	return &fakeItemAnalysisRepository{rows: make(map[[2]uint]*models.QuestionItemAnalysis)}
}

func (f *fakeItemAnalysisRepository) GetByExamAndQuestion(ctx context.Context, tx *gorm.DB, tenantID string, examID, questionID uint) (*models.QuestionItemAnalysis, error) {
	row, ok := f.rows[[2]uint{examID, questionID}]
	if !ok || row.TenantID != tenantID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *row
	return &copied, nil
}

func (f *fakeItemAnalysisRepository) ListByExam(ctx context.Context, tx *gorm.DB, tenantID string, examID uint) ([]*models.QuestionItemAnalysis, error) {
	var rows []*models.QuestionItemAnalysis
	for key, row := range f.rows {
		if key[0] == examID && row.TenantID == tenantID {
			copied := *row
			rows = append(rows, &copied)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].QuestionID < rows[j].QuestionID })
	return rows, nil
}

func (f *fakeItemAnalysisRepository) Upsert(ctx context.Context, tx *gorm.DB, analysis *models.QuestionItemAnalysis) error {
	key := [2]uint{analysis.ExamID, analysis.QuestionID}
	if existing, ok := f.rows[key]; ok {
		analysis.ID = existing.ID
		analysis.CreatedAt = existing.CreatedAt
	} else if analysis.ID == 0 {
		f.nextID++
		analysis.ID = f.nextID
	}
	copied := *analysis
	f.rows[key] = &copied
	return nil
}

// MockCacheService is a mock implementation of cache.CacheService
type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	args := m.Called(ctx, key, value, ttl)
	return args.Error(0)
}

func (m *MockCacheService) Get(ctx context.Context, key string, dest interface{}) error {
	args := m.Called(ctx, key, dest)
	return args.Error(0)
}

func (m *MockCacheService) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCacheService) DeletePattern(ctx context.Context, pattern string) error {
	args := m.Called(ctx, pattern)
	return args.Error(0)
}

// failingPublisher always rejects events
type failingPublisher struct {
	err error
}

func (p *failingPublisher) Publish(ctx context.Context, event *events.Event) error { return p.err }
func (p *failingPublisher) Close() error                                           { return nil }
