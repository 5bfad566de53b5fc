package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/SAP-F-2025/item-analysis-service/internal/cache"
	"github.com/SAP-F-2025/item-analysis-service/internal/events"
	"github.com/SAP-F-2025/item-analysis-service/internal/models"
	"github.com/SAP-F-2025/item-analysis-service/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const testTenant = "tenant-a"

var fixedNow = time.Date(2025, 5, 20, 8, 30, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func question(id uint, order int, questionType models.QuestionType, correct string, keys ...string) *models.ExamQuestion {
	var options models.OptionList
	for _, key := range keys {
		options = append(options, models.Option{Key: key, Content: "Option " + key})
	}
	return &models.ExamQuestion{
		ID:            id,
		TenantID:      testTenant,
		ExamID:        1,
		Order:         order,
		QuestionType:  questionType,
		Content:       "Question " + strconv.Itoa(int(id)),
		Options:       datatypes.NewJSONType(options),
		CorrectAnswer: correct,
		IsActive:      true,
	}
}

func attempt(studentID string, score float64, answers map[uint]string) *models.ExamAttempt {
	recorded := make(map[string]*models.RecordedAnswer, len(answers))
	for questionID, answer := range answers {
		value := answer
		recorded[strconv.FormatUint(uint64(questionID), 10)] = &models.RecordedAnswer{Answer: &value}
	}
	return &models.ExamAttempt{
		TenantID:    testTenant,
		ExamID:      1,
		StudentID:   studentID,
		Status:      models.AttemptCompleted,
		Score:       score,
		AnswerOrder: datatypes.NewJSONType(recorded),
	}
}

// fixture: one multiple choice question that discriminates well and one short
// answer question with zero discrimination, which is flagged for review.
func fixtureQuestions() []*models.ExamQuestion {
	return []*models.ExamQuestion{
		question(10, 1, models.MultipleChoice, "A", "A", "B"),
		question(20, 2, models.ShortAnswer, "paris"),
	}
}

func fixtureAttempts() []*models.ExamAttempt {
	return []*models.ExamAttempt{
		attempt("s1", 90, map[uint]string{10: "A", 20: "paris"}),
		attempt("s2", 70, map[uint]string{10: "A", 20: "rome"}),
		attempt("s3", 50, map[uint]string{10: "B", 20: "Paris"}),
		attempt("s4", 30, map[uint]string{20: "london"}),
	}
}

type serviceFixture struct {
	repo      *MockRepository
	cache     *MockCacheService
	publisher *events.MockEventPublisher
	service   ItemAnalysisService
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	repo := newMockRepository()
	cacheService := &MockCacheService{}
	publisher := events.NewMockEventPublisher(discardLogger())

	return &serviceFixture{
		repo:      repo,
		cache:     cacheService,
		publisher: publisher,
		service: NewItemAnalysisService(repo, cacheService, publisher, discardLogger(), validator.New(),
			WithClock(func() time.Time { return fixedNow })),
	}
}

func (f *serviceFixture) expectExam(found bool) {
	call := f.repo.examRepo.On("GetByID", mock.Anything, mock.Anything, testTenant, uint(1))
	if found {
		call.Return(&models.Exam{ID: 1, TenantID: testTenant, Title: "Midterm"}, nil)
	} else {
		call.Return(nil, gorm.ErrRecordNotFound)
	}
}

func (f *serviceFixture) expectExamExists(found bool) {
	f.repo.examRepo.On("Exists", mock.Anything, mock.Anything, testTenant, uint(1)).Return(found, nil)
}

func (f *serviceFixture) expectInput(questions []*models.ExamQuestion, attempts []*models.ExamAttempt) {
	f.repo.examQuestionRepo.On("GetActiveByExam", mock.Anything, mock.Anything, testTenant, uint(1)).Return(questions, nil)
	f.repo.attemptRepo.On("GetCompletedByExam", mock.Anything, mock.Anything, testTenant, uint(1)).Return(attempts, nil)
}

func TestItemAnalysisService_Analyze(t *testing.T) {
	ctx := context.Background()

	t.Run("exam not found", func(t *testing.T) {
		f := newServiceFixture(t)
		f.expectExam(false)

		rows, err := f.service.Analyze(ctx, testTenant, 1)

		assert.Nil(t, rows)
		assert.ErrorIs(t, err, ErrExamNotFound)
		assert.True(t, IsNotFound(err))
		f.repo.attemptRepo.AssertNotCalled(t, "GetCompletedByExam", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		assert.Empty(t, f.publisher.GetPublishedEvents())
	})

	t.Run("no completed attempts", func(t *testing.T) {
		f := newServiceFixture(t)
		f.expectExam(true)
		f.expectInput(fixtureQuestions(), []*models.ExamAttempt{})

		rows, err := f.service.Analyze(ctx, testTenant, 1)

		assert.Nil(t, rows)
		require.Error(t, err)
		assert.True(t, IsInvalidOperation(err))
		assert.Equal(t, "No completed attempts found for this exam", err.Error())
		f.repo.itemAnalysisMock().AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything)
		f.cache.AssertNotCalled(t, "DeletePattern", mock.Anything, mock.Anything)
	})

	t.Run("invalid scope", func(t *testing.T) {
		f := newServiceFixture(t)

		_, err := f.service.Analyze(ctx, "", 0)

		require.Error(t, err)
		assert.True(t, IsValidation(err))
		f.repo.examRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("upserts every question and reuses existing rows", func(t *testing.T) {
		f := newServiceFixture(t)
		f.expectExam(true)
		f.expectInput(fixtureQuestions(), fixtureAttempts())

		createdAt := fixedNow.Add(-48 * time.Hour)
		itemRepo := f.repo.itemAnalysisMock()
		itemRepo.On("GetByExamAndQuestion", mock.Anything, mock.Anything, testTenant, uint(1), uint(10)).
			Return(&models.QuestionItemAnalysis{ID: 77, TenantID: testTenant, ExamID: 1, QuestionID: 10, CreatedAt: createdAt}, nil)
		itemRepo.On("GetByExamAndQuestion", mock.Anything, mock.Anything, testTenant, uint(1), uint(20)).
			Return(nil, gorm.ErrRecordNotFound)
		itemRepo.On("Upsert", mock.Anything, mock.Anything, mock.AnythingOfType("*models.QuestionItemAnalysis")).Return(nil)
		f.cache.On("DeletePattern", mock.Anything, cache.ExamPattern(testTenant, 1)).Return(nil)

		rows, err := f.service.Analyze(ctx, testTenant, 1)
		require.NoError(t, err)
		require.Len(t, rows, 2)

		first := rows[0]
		assert.Equal(t, uint(77), first.ID)
		assert.Equal(t, createdAt, first.CreatedAt)
		assert.Equal(t, uint(10), first.QuestionID)
		assert.Equal(t, testTenant, first.TenantID)
		assert.Equal(t, fixedNow, first.LastCalculatedAt)
		assert.Equal(t, 3, first.TotalAttempts)
		assert.Equal(t, 2, first.CorrectAnswers)
		assert.Equal(t, 1, first.BlankAnswers)
		assert.InDelta(t, 1.0, first.DiscriminationIndex, 1e-9)

		second := rows[1]
		assert.Equal(t, uint(0), second.ID)
		assert.Equal(t, fixedNow, second.CreatedAt)
		assert.Equal(t, uint(20), second.QuestionID)
		assert.Equal(t, 4, second.TotalAttempts)
		assert.InDelta(t, 0.0, second.DiscriminationIndex, 1e-9)
		assert.Contains(t, second.Analysis, "Recommend reviewing this question.")

		itemRepo.AssertNumberOfCalls(t, "Upsert", 2)
		f.cache.AssertExpectations(t)

		published := f.publisher.GetPublishedEvents()
		require.Len(t, published, 1)
		assert.Equal(t, events.EventItemAnalysisCompleted, published[0].Type)
		data, ok := published[0].Data.(events.ItemAnalysisCompletedEvent)
		require.True(t, ok)
		assert.Equal(t, uint(1), data.ExamID)
		assert.Equal(t, testTenant, data.TenantID)
		assert.Equal(t, 4, data.CompletedAttempts)
		assert.Equal(t, 2, data.QuestionCount)
		assert.Equal(t, []uint{20}, data.ReviewQuestionIDs)
	})

	t.Run("storage failure aborts before side effects", func(t *testing.T) {
		f := newServiceFixture(t)
		f.expectExam(true)
		f.expectInput(fixtureQuestions(), fixtureAttempts())

		itemRepo := f.repo.itemAnalysisMock()
		itemRepo.On("GetByExamAndQuestion", mock.Anything, mock.Anything, testTenant, uint(1), mock.Anything).Return(nil, gorm.ErrRecordNotFound)
		itemRepo.On("Upsert", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("connection reset"))

		rows, err := f.service.Analyze(ctx, testTenant, 1)

		assert.Nil(t, rows)
		assert.ErrorContains(t, err, "connection reset")
		assert.False(t, IsNotFound(err))
		f.cache.AssertNotCalled(t, "DeletePattern", mock.Anything, mock.Anything)
		assert.Empty(t, f.publisher.GetPublishedEvents())
	})

	t.Run("input load failure", func(t *testing.T) {
		f := newServiceFixture(t)
		f.expectExam(true)
		f.repo.examQuestionRepo.On("GetActiveByExam", mock.Anything, mock.Anything, testTenant, uint(1)).Return(fixtureQuestions(), nil)
		f.repo.attemptRepo.On("GetCompletedByExam", mock.Anything, mock.Anything, testTenant, uint(1)).Return(nil, errors.New("timeout"))

		_, err := f.service.Analyze(ctx, testTenant, 1)

		assert.ErrorContains(t, err, "failed to load analysis input")
	})
}

func TestItemAnalysisService_Analyze_SideEffectFailuresAreIgnored(t *testing.T) {
	repo := newMockRepository()
	repo.itemAnalysisRepo = newFakeItemAnalysisRepository()
	repo.examRepo.On("GetByID", mock.Anything, mock.Anything, testTenant, uint(1)).Return(&models.Exam{ID: 1}, nil)
	repo.examQuestionRepo.On("GetActiveByExam", mock.Anything, mock.Anything, testTenant, uint(1)).Return(fixtureQuestions(), nil)
	repo.attemptRepo.On("GetCompletedByExam", mock.Anything, mock.Anything, testTenant, uint(1)).Return(fixtureAttempts(), nil)

	cacheService := &MockCacheService{}
	cacheService.On("DeletePattern", mock.Anything, mock.Anything).Return(errors.New("redis down"))

	service := NewItemAnalysisService(repo, cacheService, &failingPublisher{err: errors.New("broker down")}, discardLogger(), validator.New())

	rows, err := service.Analyze(context.Background(), testTenant, 1)

	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestItemAnalysisService_Analyze_Idempotent(t *testing.T) {
	repo := newMockRepository()
	store := newFakeItemAnalysisRepository()
	repo.itemAnalysisRepo = store
	repo.examRepo.On("GetByID", mock.Anything, mock.Anything, testTenant, uint(1)).Return(&models.Exam{ID: 1}, nil)
	repo.examQuestionRepo.On("GetActiveByExam", mock.Anything, mock.Anything, testTenant, uint(1)).Return(fixtureQuestions(), nil)
	repo.attemptRepo.On("GetCompletedByExam", mock.Anything, mock.Anything, testTenant, uint(1)).Return(fixtureAttempts(), nil)

	now := fixedNow
	service := NewItemAnalysisService(repo, cache.NewNoopCache(), nil, discardLogger(), validator.New(),
		WithClock(func() time.Time { return now }))

	first, err := service.Analyze(context.Background(), testTenant, 1)
	require.NoError(t, err)

	now = fixedNow.Add(time.Hour)
	second, err := service.Analyze(context.Background(), testTenant, 1)
	require.NoError(t, err)

	stored, err := store.ListByExam(context.Background(), nil, testTenant, 1)
	require.NoError(t, err)
	assert.Len(t, stored, len(fixtureQuestions()))

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].CreatedAt, second[i].CreatedAt)
		assert.Equal(t, first[i].ItemStatistics, second[i].ItemStatistics)
		assert.True(t, second[i].LastCalculatedAt.After(first[i].LastCalculatedAt))
	}
}

func TestItemAnalysisService_GetAnalysis(t *testing.T) {
	ctx := context.Background()
	key := cache.QuestionAnalysisKey(testTenant, 1, 10)

	t.Run("not analysed yet", func(t *testing.T) {
		f := newServiceFixture(t)
		f.cache.On("Get", mock.Anything, key, mock.Anything).Return(cache.ErrCacheMiss)
		f.repo.itemAnalysisMock().On("GetByExamAndQuestion", mock.Anything, mock.Anything, testTenant, uint(1), uint(10)).
			Return(nil, gorm.ErrRecordNotFound)

		row, err := f.service.GetAnalysis(ctx, testTenant, 1, 10)

		assert.Nil(t, row)
		assert.ErrorIs(t, err, ErrItemAnalysisNotFound)
		assert.Equal(t, "Item analysis not found. Please run analysis first.", err.Error())
		f.cache.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("loads and caches on miss", func(t *testing.T) {
		f := newServiceFixture(t)
		stored := &models.QuestionItemAnalysis{ID: 5, TenantID: testTenant, ExamID: 1, QuestionID: 10}
		f.cache.On("Get", mock.Anything, key, mock.Anything).Return(cache.ErrCacheMiss)
		f.cache.On("Set", mock.Anything, key, stored, DefaultCacheTTL).Return(nil)
		f.repo.itemAnalysisMock().On("GetByExamAndQuestion", mock.Anything, mock.Anything, testTenant, uint(1), uint(10)).
			Return(stored, nil)

		row, err := f.service.GetAnalysis(ctx, testTenant, 1, 10)

		require.NoError(t, err)
		assert.Same(t, stored, row)
		f.cache.AssertExpectations(t)
	})

	t.Run("served from cache", func(t *testing.T) {
		f := newServiceFixture(t)
		f.cache.On("Get", mock.Anything, key, mock.Anything).
			Run(func(args mock.Arguments) {
				dest := args.Get(2).(*models.QuestionItemAnalysis)
				*dest = models.QuestionItemAnalysis{ID: 9, QuestionID: 10}
			}).
			Return(nil)

		row, err := f.service.GetAnalysis(ctx, testTenant, 1, 10)

		require.NoError(t, err)
		assert.Equal(t, uint(9), row.ID)
		f.repo.itemAnalysisMock().AssertNotCalled(t, "GetByExamAndQuestion", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("cache failure falls back to storage", func(t *testing.T) {
		f := newServiceFixture(t)
		stored := &models.QuestionItemAnalysis{ID: 5, QuestionID: 10}
		f.cache.On("Get", mock.Anything, key, mock.Anything).Return(errors.New("redis down"))
		f.cache.On("Set", mock.Anything, key, mock.Anything, mock.Anything).Return(errors.New("redis down"))
		f.repo.itemAnalysisMock().On("GetByExamAndQuestion", mock.Anything, mock.Anything, testTenant, uint(1), uint(10)).
			Return(stored, nil)

		row, err := f.service.GetAnalysis(ctx, testTenant, 1, 10)

		require.NoError(t, err)
		assert.Equal(t, uint(5), row.ID)
	})
}

func TestItemAnalysisService_GetAllAnalyses(t *testing.T) {
	ctx := context.Background()
	key := cache.ExamAnalysesKey(testTenant, 1)

	t.Run("exam not found", func(t *testing.T) {
		f := newServiceFixture(t)
		f.cache.On("Get", mock.Anything, key, mock.Anything).Return(cache.ErrCacheMiss)
		f.expectExamExists(false)

		rows, err := f.service.GetAllAnalyses(ctx, testTenant, 1)

		assert.Nil(t, rows)
		assert.ErrorIs(t, err, ErrExamNotFound)
		f.repo.examRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("exam lookup failure", func(t *testing.T) {
		f := newServiceFixture(t)
		f.cache.On("Get", mock.Anything, key, mock.Anything).Return(cache.ErrCacheMiss)
		f.repo.examRepo.On("Exists", mock.Anything, mock.Anything, testTenant, uint(1)).Return(false, errors.New("db down"))

		rows, err := f.service.GetAllAnalyses(ctx, testTenant, 1)

		assert.Nil(t, rows)
		assert.ErrorContains(t, err, "failed to check exam")
		assert.False(t, IsNotFound(err))
	})

	t.Run("never analysed returns empty list", func(t *testing.T) {
		f := newServiceFixture(t)
		f.cache.On("Get", mock.Anything, key, mock.Anything).Return(cache.ErrCacheMiss)
		f.cache.On("Set", mock.Anything, key, mock.Anything, DefaultCacheTTL).Return(nil)
		f.expectExamExists(true)
		f.repo.itemAnalysisMock().On("ListByExam", mock.Anything, mock.Anything, testTenant, uint(1)).Return(nil, nil)

		rows, err := f.service.GetAllAnalyses(ctx, testTenant, 1)

		require.NoError(t, err)
		assert.NotNil(t, rows)
		assert.Empty(t, rows)
	})

	t.Run("returns repository order", func(t *testing.T) {
		f := newServiceFixture(t)
		stored := []*models.QuestionItemAnalysis{{ID: 2, QuestionID: 20}, {ID: 1, QuestionID: 10}}
		f.cache.On("Get", mock.Anything, key, mock.Anything).Return(cache.ErrCacheMiss)
		f.cache.On("Set", mock.Anything, key, stored, DefaultCacheTTL).Return(nil)
		f.expectExamExists(true)
		f.repo.itemAnalysisMock().On("ListByExam", mock.Anything, mock.Anything, testTenant, uint(1)).Return(stored, nil)

		rows, err := f.service.GetAllAnalyses(ctx, testTenant, 1)

		require.NoError(t, err)
		assert.Equal(t, stored, rows)
	})
}

func TestItemAnalysisService_ExportAnalyses(t *testing.T) {
	repo := newMockRepository()
	repo.itemAnalysisRepo = newFakeItemAnalysisRepository()
	repo.examRepo.On("GetByID", mock.Anything, mock.Anything, testTenant, uint(1)).Return(&models.Exam{ID: 1}, nil)
	repo.examRepo.On("Exists", mock.Anything, mock.Anything, testTenant, uint(1)).Return(true, nil)
	repo.examQuestionRepo.On("GetActiveByExam", mock.Anything, mock.Anything, testTenant, uint(1)).Return(fixtureQuestions(), nil)
	repo.attemptRepo.On("GetCompletedByExam", mock.Anything, mock.Anything, testTenant, uint(1)).Return(fixtureAttempts(), nil)

	service := NewItemAnalysisService(repo, nil, nil, discardLogger(), validator.New(),
		WithClock(func() time.Time { return fixedNow }))

	_, err := service.Analyze(context.Background(), testTenant, 1)
	require.NoError(t, err)

	data, err := service.ExportAnalyses(context.Background(), testTenant, 1)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{ItemAnalysisSheet, OptionsSheet}, f.GetSheetList())

	rows, err := f.GetRows(ItemAnalysisSheet)
	require.NoError(t, err)
	require.Len(t, rows, 1+len(fixtureQuestions()))
	assert.Equal(t, itemAnalysisHeaders, rows[0])

	optionRows, err := f.GetRows(OptionsSheet)
	require.NoError(t, err)
	// only the multiple choice question contributes option rows
	require.Len(t, optionRows, 1+2)
	assert.Equal(t, []string{"10", "A", "Option A", "2"}, optionRows[1][:4])
	percentage, err := strconv.ParseFloat(optionRows[1][4], 64)
	require.NoError(t, err)
	assert.InDelta(t, 200.0/3, percentage, 1e-9)
	assert.Equal(t, []string{"10", "B", "Option B", "1"}, optionRows[2][:4])
}
