package analysis

import (
	"fmt"
	"strings"

	"github.com/SAP-F-2025/item-analysis-service/internal/models"
)

// Thresholds used by Diagnose.
const (
	TooDifficultBelow          = 0.3
	TooEasyAbove               = 0.7
	LowDiscriminationBelow     = 0.2
	GoodDiscriminationAbove    = 0.4
	IneffectiveDistractorBelow = 5.0 // percent
	ReviewDifficultyBelow      = 0.2
	ReviewDifficultyAbove      = 0.8
	ReviewDiscriminationBelow  = 0.1
)

const reviewRecommendation = "Recommend reviewing this question."

// Diagnose builds the diagnostic text for a question. Sentences always appear in
// the same order: difficulty, discrimination, distractors, review recommendation.
func Diagnose(difficulty, discrimination float64, multipleChoice bool, options models.OptionStatistics) string {
	var sentences []string

	switch {
	case difficulty < TooDifficultBelow:
		sentences = append(sentences, "Question too difficult.")
	case difficulty > TooEasyAbove:
		sentences = append(sentences, "Question too easy.")
	default:
		sentences = append(sentences, "Difficulty level acceptable.")
	}

	switch {
	case discrimination < LowDiscriminationBelow:
		sentences = append(sentences, "Discrimination low: does not distinguish well between high/low performers.")
	case discrimination > GoodDiscriminationAbove:
		sentences = append(sentences, "Discrimination very good.")
	default:
		sentences = append(sentences, "Discrimination good.")
	}

	if multipleChoice {
		if keys := IneffectiveDistractors(options); len(keys) > 0 {
			sentences = append(sentences, fmt.Sprintf("Ineffective distractors: %s.", strings.Join(keys, ", ")))
		}
	}

	if NeedsReview(difficulty, discrimination) {
		sentences = append(sentences, reviewRecommendation)
	}

	return strings.Join(sentences, " ")
}

// IneffectiveDistractors lists incorrect options chosen by fewer than 5% of respondents.
func IneffectiveDistractors(options models.OptionStatistics) []string {
	var keys []string
	for _, stat := range options {
		if !stat.IsCorrect && stat.Percentage < IneffectiveDistractorBelow {
			keys = append(keys, stat.Key)
		}
	}
	return keys
}

func NeedsReview(difficulty, discrimination float64) bool {
	return difficulty < ReviewDifficultyBelow ||
		difficulty > ReviewDifficultyAbove ||
		discrimination < ReviewDiscriminationBelow
}
