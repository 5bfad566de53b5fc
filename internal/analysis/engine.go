// Package analysis computes classical test theory statistics for exam questions.
//
// The package is pure: callers load attempts and questions, and persist the
// returned statistics themselves.
package analysis

import (
	"strconv"

	"github.com/SAP-F-2025/item-analysis-service/internal/models"
	"gorm.io/datatypes"
)

type Engine struct {
	checker AnswerChecker
}

func NewEngine(checker AnswerChecker) *Engine {
	if checker == nil {
		checker = DefaultAnswerChecker{}
	}
	return &Engine{checker: checker}
}

// Result pairs a question with its computed statistics.
type Result struct {
	Question   *models.ExamQuestion
	Statistics models.ItemStatistics
}

// Analyze ranks the attempts once and analyses every question in the given order.
func (e *Engine) Analyze(questions []*models.ExamQuestion, attempts []*models.ExamAttempt) []Result {
	ranking := Rank(attempts)
	results := make([]Result, 0, len(questions))
	for _, question := range questions {
		results = append(results, Result{
			Question:   question,
			Statistics: e.AnalyzeQuestion(question, attempts, ranking),
		})
	}
	return results
}

// accumulator holds the running tallies for a single question.
type accumulator struct {
	total, correct, incorrect, blank int
	topCorrect, bottomCorrect        int
	options                          models.OptionStatistics
}

// AnalyzeQuestion folds every attempt into the statistics for one question.
func (e *Engine) AnalyzeQuestion(question *models.ExamQuestion, attempts []*models.ExamAttempt, ranking *Ranking) models.ItemStatistics {
	acc := accumulator{}
	tracksOptions := question.HasOptionStatistics()
	// Option keys are matched after the same trim and lower-casing the
	// default checker applies.
	var optionKeys []string
	if tracksOptions {
		correctKey := normalizeAnswer(question.CorrectAnswer)
		for _, option := range question.OptionList() {
			key := normalizeAnswer(option.Key)
			optionKeys = append(optionKeys, key)
			acc.options = append(acc.options, models.OptionStatistic{
				Key:       option.Key,
				IsCorrect: key == correctKey,
			})
		}
	}

	questionKey := strconv.FormatUint(uint64(question.ID), 10)
	for _, attempt := range attempts {
		recorded := attempt.AnswerFor(questionKey)
		if recorded.IsBlank() {
			acc.blank++
			continue
		}

		acc.total++
		userAnswer := recorded.Value()
		isCorrect := e.checker.IsCorrect(question, userAnswer)
		if isCorrect {
			acc.correct++
		} else {
			acc.incorrect++
		}

		if tracksOptions {
			selected := normalizeAnswer(userAnswer)
			for i, key := range optionKeys {
				if key == selected {
					acc.options[i].Selected++
					break
				}
			}
		}

		if isCorrect && ranking.InTop(attempt.StudentID) {
			acc.topCorrect++
		}
		if isCorrect && ranking.InBottom(attempt.StudentID) {
			acc.bottomCorrect++
		}
	}

	return acc.finish(question, ranking)
}

func (acc *accumulator) finish(question *models.ExamQuestion, ranking *Ranking) models.ItemStatistics {
	if acc.total > 0 {
		for i := range acc.options {
			acc.options[i].Percentage = 100 * float64(acc.options[i].Selected) / float64(acc.total)
		}
	}

	difficulty := ratio(acc.correct, acc.total)
	topGroup := models.GroupStats{
		Correct:    acc.topCorrect,
		Total:      ranking.GroupSize,
		Percentage: ratio(acc.topCorrect, ranking.GroupSize),
	}
	bottomGroup := models.GroupStats{
		Correct:    acc.bottomCorrect,
		Total:      ranking.GroupSize,
		Percentage: ratio(acc.bottomCorrect, ranking.GroupSize),
	}
	discrimination := topGroup.Percentage - bottomGroup.Percentage

	return models.ItemStatistics{
		TotalAttempts:       acc.total,
		CorrectAnswers:      acc.correct,
		IncorrectAnswers:    acc.incorrect,
		BlankAnswers:        acc.blank,
		OptionStatistics:    datatypes.NewJSONType(acc.options),
		DifficultyIndex:     difficulty,
		DiscriminationIndex: discrimination,
		TopGroupStats:       datatypes.NewJSONType(topGroup),
		BottomGroupStats:    datatypes.NewJSONType(bottomGroup),
		Analysis:            Diagnose(difficulty, discrimination, question.QuestionType == models.MultipleChoice, acc.options),
	}
}

func ratio(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return float64(part) / float64(whole)
}
