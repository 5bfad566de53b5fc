package validator

import (
	"strings"

	"github.com/SAP-F-2025/item-analysis-service/internal/models"
)

// QuestionValidator checks that stored question data is usable for scoring.
// Findings are advisory: analysis still runs on inconsistent questions.
type QuestionValidator struct{}

func NewQuestionValidator() *QuestionValidator {
	return &QuestionValidator{}
}

// ValidateQuestion reports problems that would make every answer score as incorrect
func (v *QuestionValidator) ValidateQuestion(question *models.ExamQuestion) ValidationErrors {
	var errs ValidationErrors

	switch question.QuestionType {
	case models.MultipleChoice:
		errs = append(errs, v.validateMultipleChoice(question)...)
	case models.TrueFalse:
		answer := strings.ToLower(strings.TrimSpace(question.CorrectAnswer))
		if answer != "true" && answer != "false" {
			errs = append(errs, ValidationError{
				Field:   "correct_answer",
				Message: "must be true or false",
				Value:   question.CorrectAnswer,
				Rule:    "true_false_answer",
			})
		}
	case models.ShortAnswer:
		if strings.TrimSpace(question.CorrectAnswer) == "" {
			errs = append(errs, missingAnswer(question))
		}
	case models.Essay:
		// essays are graded manually
	default:
		errs = append(errs, ValidationError{
			Field:   "question_type",
			Message: "is not a supported question type",
			Value:   question.QuestionType,
			Rule:    "question_type",
		})
	}

	return errs
}

func (v *QuestionValidator) validateMultipleChoice(question *models.ExamQuestion) ValidationErrors {
	var errs ValidationErrors

	if strings.TrimSpace(question.CorrectAnswer) == "" {
		return append(errs, missingAnswer(question))
	}

	options := question.OptionList()
	if len(options) == 0 {
		return append(errs, ValidationError{
			Field:   "options",
			Message: "multiple choice question has no options",
			Rule:    "options_required",
		})
	}

	for _, key := range strings.Split(question.CorrectAnswer, ",") {
		key = strings.TrimSpace(key)
		if !options.Has(key) {
			errs = append(errs, ValidationError{
				Field:   "correct_answer",
				Message: "references an option that does not exist",
				Value:   key,
				Rule:    "option_key",
			})
		}
	}
	return errs
}

func missingAnswer(question *models.ExamQuestion) ValidationError {
	return ValidationError{
		Field:   "correct_answer",
		Message: "is required",
		Value:   question.CorrectAnswer,
		Rule:    "required",
	}
}
