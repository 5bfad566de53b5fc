package analysis

import (
	"sort"
	"strings"

	"github.com/SAP-F-2025/item-analysis-service/internal/models"
)

// AnswerChecker decides whether a non-blank response to a question is correct.
type AnswerChecker interface {
	IsCorrect(question *models.ExamQuestion, userAnswer string) bool
}

// AnswerCheckerFunc adapts a plain function to AnswerChecker.
type AnswerCheckerFunc func(question *models.ExamQuestion, userAnswer string) bool

func (f AnswerCheckerFunc) IsCorrect(question *models.ExamQuestion, userAnswer string) bool {
	return f(question, userAnswer)
}

// DefaultAnswerChecker compares answers case-insensitively after trimming.
// Comma separated answers are compared as sets. Essays are graded by hand and
// never count as correct here.
type DefaultAnswerChecker struct{}

func (DefaultAnswerChecker) IsCorrect(question *models.ExamQuestion, userAnswer string) bool {
	if question == nil {
		return false
	}

	switch question.QuestionType {
	case models.Essay:
		return false
	case models.MultipleChoice:
		return sameSelection(question.CorrectAnswer, userAnswer)
	default:
		expected := normalizeAnswer(question.CorrectAnswer)
		return expected != "" && expected == normalizeAnswer(userAnswer)
	}
}

func normalizeAnswer(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func sameSelection(expected, actual string) bool {
	want := splitSelection(expected)
	got := splitSelection(actual)
	if len(want) == 0 || len(want) != len(got) {
		return false
	}
	for i := range want {
		if want[i] != got[i] {
			return false
		}
	}
	return true
}

func splitSelection(s string) []string {
	seen := make(map[string]struct{})
	var parts []string
	for _, part := range strings.Split(s, ",") {
		part = normalizeAnswer(part)
		if part == "" {
			continue
		}
		if _, ok := seen[part]; ok {
			continue
		}
		seen[part] = struct{}{}
		parts = append(parts, part)
	}
	sort.Strings(parts)
	return parts
}
