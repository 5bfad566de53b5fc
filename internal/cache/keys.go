package cache

import "fmt"

const keyPrefix = "item_analysis"

// ExamAnalysesKey caches the full per-exam listing.
func ExamAnalysesKey(tenantID string, examID uint) string {
	return fmt.Sprintf("%s:%s:exam:%d:all", keyPrefix, tenantID, examID)
}

// QuestionAnalysisKey caches a single question's analysis.
func QuestionAnalysisKey(tenantID string, examID, questionID uint) string {
	return fmt.Sprintf("%s:%s:exam:%d:question:%d", keyPrefix, tenantID, examID, questionID)
}

// ExamPattern matches every key cached for one exam.
func ExamPattern(tenantID string, examID uint) string {
	return fmt.Sprintf("%s:%s:exam:%d:*", keyPrefix, tenantID, examID)
}
