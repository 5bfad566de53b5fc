package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/SAP-F-2025/item-analysis-service/internal/analysis"
	"github.com/SAP-F-2025/item-analysis-service/internal/cache"
	"github.com/SAP-F-2025/item-analysis-service/internal/events"
	"github.com/SAP-F-2025/item-analysis-service/internal/models"
	"github.com/SAP-F-2025/item-analysis-service/internal/repositories"
	"github.com/SAP-F-2025/item-analysis-service/internal/validator"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const (
	DefaultCacheTTL = 15 * time.Minute

	resourceItemAnalysis = "item_analysis"
)

// ItemAnalysisService computes and serves per-question item statistics for exams
type ItemAnalysisService interface {
	// Analyze recomputes statistics for every active question of the exam from its
	// completed attempts and stores one row per question, replacing earlier results.
	Analyze(ctx context.Context, tenantID string, examID uint) ([]*models.QuestionItemAnalysis, error)
	GetAnalysis(ctx context.Context, tenantID string, examID, questionID uint) (*models.QuestionItemAnalysis, error)
	GetAllAnalyses(ctx context.Context, tenantID string, examID uint) ([]*models.QuestionItemAnalysis, error)

	// ExportAnalyses renders the stored analyses as an xlsx workbook
	ExportAnalyses(ctx context.Context, tenantID string, examID uint) ([]byte, error)
}

type ItemAnalysisOption func(*itemAnalysisService)

// WithAnswerChecker replaces the default answer comparison
func WithAnswerChecker(checker analysis.AnswerChecker) ItemAnalysisOption {
	return func(s *itemAnalysisService) {
		s.engine = analysis.NewEngine(checker)
	}
}

func WithCacheTTL(ttl time.Duration) ItemAnalysisOption {
	return func(s *itemAnalysisService) {
		s.cacheTTL = ttl
	}
}

// WithClock overrides the time source used for calculation timestamps
func WithClock(now func() time.Time) ItemAnalysisOption {
	return func(s *itemAnalysisService) {
		s.now = now
	}
}

type itemAnalysisService struct {
	repo          repositories.Repository
	engine        *analysis.Engine
	cache         cache.CacheService
	cacheTTL      time.Duration
	publisher     events.EventPublisher
	logger        *slog.Logger
	serviceLogger *ServiceLogger
	validator     *validator.Validator
	now           func() time.Time
}

func NewItemAnalysisService(repo repositories.Repository, cacheService cache.CacheService, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator, opts ...ItemAnalysisOption) ItemAnalysisService {
	if cacheService == nil {
		cacheService = cache.NewNoopCache()
	}
	if publisher == nil {
		publisher = events.NewMockEventPublisher(logger)
	}

	s := &itemAnalysisService{
		repo:      repo,
		engine:    analysis.NewEngine(nil),
		cache:     cacheService,
		cacheTTL:  DefaultCacheTTL,
		publisher: publisher,
		logger:    logger,
		serviceLogger: NewServiceLogger(logger, LogConfig{
			Service:       "item-analysis-service",
			Component:     "item_analysis",
			EnableMetrics: true,
		}),
		validator: validator,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ===== REQUEST SCOPES =====

type examScope struct {
	TenantID string `json:"tenant_id" validate:"required,tenant_id"`
	ExamID   uint   `json:"exam_id" validate:"required,min=1"`
}

type questionScope struct {
	TenantID   string `json:"tenant_id" validate:"required,tenant_id"`
	ExamID     uint   `json:"exam_id" validate:"required,min=1"`
	QuestionID uint   `json:"question_id" validate:"required,min=1"`
}

// ===== OPERATIONS =====

func (s *itemAnalysisService) Analyze(ctx context.Context, tenantID string, examID uint) (rows []*models.QuestionItemAnalysis, err error) {
	op := s.serviceLogger.WithOperation(ctx, "analyze", tenantID, examID)
	defer func() { op.LogResult(resourceItemAnalysis, err) }()

	if err = s.validator.ValidateStruct(examScope{TenantID: tenantID, ExamID: examID}); err != nil {
		return nil, err
	}

	loadStart := time.Now()
	if _, err = s.getExam(ctx, tenantID, examID); err != nil {
		return nil, err
	}

	attempts, questions, err := s.loadInput(ctx, tenantID, examID)
	if err != nil {
		return nil, err
	}
	if len(attempts) == 0 {
		return nil, NewInvalidOperationError("analyze", "No completed attempts found for this exam", map[string]interface{}{
			"exam_id": examID,
		})
	}
	loadDuration := time.Since(loadStart)

	s.checkQuestions(ctx, tenantID, examID, questions)

	computeStart := time.Now()
	results := s.engine.Analyze(questions, attempts)
	computeDuration := time.Since(computeStart)

	calculatedAt := s.now()
	persistStart := time.Now()
	rows = make([]*models.QuestionItemAnalysis, 0, len(results))
	err = s.repo.WithTransaction(ctx, func(tx *gorm.DB) error {
		for _, result := range results {
			row, err := s.buildRow(ctx, tx, tenantID, examID, result, calculatedAt)
			if err != nil {
				return err
			}
			if err := s.repo.ItemAnalysis().Upsert(ctx, tx, row); err != nil {
				return fmt.Errorf("failed to save item analysis for question %d: %w", result.Question.ID, err)
			}
			rows = append(rows, row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateExam(ctx, tenantID, examID)

	reviewIDs := reviewQuestionIDs(results)
	s.publishCompleted(ctx, tenantID, examID, len(attempts), len(results), reviewIDs, calculatedAt)

	s.serviceLogger.LogAnalysisMetrics(ctx, tenantID, examID, AnalysisMetrics{
		LoadDuration:     loadDuration,
		ComputeDuration:  computeDuration,
		PersistDuration:  time.Since(persistStart),
		Attempts:         len(attempts),
		Questions:        len(results),
		FlaggedForReview: len(reviewIDs),
	})

	return rows, nil
}

func (s *itemAnalysisService) GetAnalysis(ctx context.Context, tenantID string, examID, questionID uint) (row *models.QuestionItemAnalysis, err error) {
	op := s.serviceLogger.WithOperation(ctx, "get_analysis", tenantID, examID)
	defer func() { op.LogResult(resourceItemAnalysis, err) }()

	if err = s.validator.ValidateStruct(questionScope{TenantID: tenantID, ExamID: examID, QuestionID: questionID}); err != nil {
		return nil, err
	}

	key := cache.QuestionAnalysisKey(tenantID, examID, questionID)
	var cached models.QuestionItemAnalysis
	if s.cacheGet(ctx, key, &cached) {
		return &cached, nil
	}

	row, err = s.repo.ItemAnalysis().GetByExamAndQuestion(ctx, nil, tenantID, examID, questionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrItemAnalysisNotFound
		}
		return nil, fmt.Errorf("failed to get item analysis: %w", err)
	}

	s.cacheSet(ctx, key, row)
	return row, nil
}

func (s *itemAnalysisService) GetAllAnalyses(ctx context.Context, tenantID string, examID uint) (rows []*models.QuestionItemAnalysis, err error) {
	op := s.serviceLogger.WithOperation(ctx, "get_all_analyses", tenantID, examID)
	defer func() { op.LogResult(resourceItemAnalysis, err) }()

	if err = s.validator.ValidateStruct(examScope{TenantID: tenantID, ExamID: examID}); err != nil {
		return nil, err
	}

	key := cache.ExamAnalysesKey(tenantID, examID)
	var cached []*models.QuestionItemAnalysis
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}

	exists, err := s.repo.Exam().Exists(ctx, nil, tenantID, examID)
	if err != nil {
		return nil, fmt.Errorf("failed to check exam: %w", err)
	}
	if !exists {
		return nil, ErrExamNotFound
	}

	rows, err = s.repo.ItemAnalysis().ListByExam(ctx, nil, tenantID, examID)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []*models.QuestionItemAnalysis{}
	}

	s.cacheSet(ctx, key, rows)
	return rows, nil
}

// ===== HELPERS =====

func (s *itemAnalysisService) getExam(ctx context.Context, tenantID string, examID uint) (*models.Exam, error) {
	exam, err := s.repo.Exam().GetByID(ctx, nil, tenantID, examID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}
	return exam, nil
}

// loadInput reads completed attempts and active questions concurrently
func (s *itemAnalysisService) loadInput(ctx context.Context, tenantID string, examID uint) ([]*models.ExamAttempt, []*models.ExamQuestion, error) {
	var (
		attempts  []*models.ExamAttempt
		questions []*models.ExamQuestion
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		attempts, err = s.repo.Attempt().GetCompletedByExam(gctx, nil, tenantID, examID)
		return err
	})
	g.Go(func() error {
		var err error
		questions, err = s.repo.ExamQuestion().GetActiveByExam(gctx, nil, tenantID, examID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("failed to load analysis input: %w", err)
	}
	return attempts, questions, nil
}

// checkQuestions logs questions whose stored answer key cannot score any response
func (s *itemAnalysisService) checkQuestions(ctx context.Context, tenantID string, examID uint, questions []*models.ExamQuestion) {
	for _, question := range questions {
		if errs := s.validator.Question().ValidateQuestion(question); len(errs) > 0 {
			s.logger.WarnContext(ctx, "Question data inconsistent, analysing anyway",
				"tenant_id", tenantID,
				"exam_id", examID,
				"question_id", question.ID,
				"error", errs.Error())
		}
	}
}

// buildRow keeps the identity of an existing row so the upsert overwrites it in place
func (s *itemAnalysisService) buildRow(ctx context.Context, tx *gorm.DB, tenantID string, examID uint, result analysis.Result, calculatedAt time.Time) (*models.QuestionItemAnalysis, error) {
	row := &models.QuestionItemAnalysis{
		TenantID:         tenantID,
		ExamID:           examID,
		QuestionID:       result.Question.ID,
		ItemStatistics:   result.Statistics,
		LastCalculatedAt: calculatedAt,
		CreatedAt:        calculatedAt,
		UpdatedAt:        calculatedAt,
	}

	existing, err := s.repo.ItemAnalysis().GetByExamAndQuestion(ctx, tx, tenantID, examID, result.Question.ID)
	switch {
	case err == nil:
		row.ID = existing.ID
		row.CreatedAt = existing.CreatedAt
	case !repositories.IsNotFoundError(err):
		return nil, fmt.Errorf("failed to load existing item analysis for question %d: %w", result.Question.ID, err)
	}
	return row, nil
}

func reviewQuestionIDs(results []analysis.Result) []uint {
	ids := []uint{}
	for _, result := range results {
		if analysis.NeedsReview(result.Statistics.DifficultyIndex, result.Statistics.DiscriminationIndex) {
			ids = append(ids, result.Question.ID)
		}
	}
	return ids
}

func (s *itemAnalysisService) publishCompleted(ctx context.Context, tenantID string, examID uint, attempts, questions int, reviewIDs []uint, calculatedAt time.Time) {
	event := events.NewItemAnalysisCompletedEvent(tenantID, examID, attempts, questions, reviewIDs, calculatedAt)
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish item analysis event",
			"tenant_id", tenantID,
			"exam_id", examID,
			"error", err)
	}
}

// ===== CACHE =====

func (s *itemAnalysisService) cacheGet(ctx context.Context, key string, dest interface{}) bool {
	err := s.cache.Get(ctx, key, dest)
	if err == nil {
		return true
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.WarnContext(ctx, "Cache read failed", "key", key, "error", err)
	}
	return false
}

func (s *itemAnalysisService) cacheSet(ctx context.Context, key string, value interface{}) {
	if err := s.cache.Set(ctx, key, value, s.cacheTTL); err != nil {
		s.logger.WarnContext(ctx, "Cache write failed", "key", key, "error", err)
	}
}

func (s *itemAnalysisService) invalidateExam(ctx context.Context, tenantID string, examID uint) {
	pattern := cache.ExamPattern(tenantID, examID)
	if err := s.cache.DeletePattern(ctx, pattern); err != nil {
		s.logger.WarnContext(ctx, "Cache invalidation failed", "pattern", pattern, "error", err)
	}
}
