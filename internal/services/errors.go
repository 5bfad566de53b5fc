package services

import (
	"errors"

	apperrors "github.com/SAP-F-2025/item-analysis-service/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	ErrExamNotFound         = errors.New("exam not found")
	ErrItemAnalysisNotFound = errors.New("Item analysis not found. Please run analysis first.")
)

// ===== CUSTOM ERROR TYPES =====

type ValidationErrors = apperrors.ValidationErrors

// InvalidOperationError means the request is well formed but cannot be carried out
// in the current state of the data.
type InvalidOperationError struct {
	Operation string                 `json:"operation"`
	Message   string                 `json:"message"`
	Context   map[string]interface{} `json:"context,omitempty"`
}

func (e *InvalidOperationError) Error() string {
	return e.Message
}

// ===== ERROR HELPERS =====

func NewInvalidOperationError(operation, message string, context map[string]interface{}) *InvalidOperationError {
	return &InvalidOperationError{
		Operation: operation,
		Message:   message,
		Context:   context,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrExamNotFound) ||
		errors.Is(err, ErrItemAnalysisNotFound)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	var ve apperrors.ValidationErrors
	if errors.As(err, &ve) {
		return true
	}
	var single *apperrors.ValidationError
	return errors.As(err, &single)
}

// IsInvalidOperation checks if error represents an operation the current data does not allow
func IsInvalidOperation(err error) bool {
	var ioe *InvalidOperationError
	return errors.As(err, &ioe)
}
