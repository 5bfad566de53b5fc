package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the kinds of events this service emits
type EventType string

const (
	EventItemAnalysisCompleted EventType = "item_analysis.completed"
)

const (
	eventSource  = "item-analysis-service"
	eventVersion = "1.0"
)

// Event is the envelope shared by every published event
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// ItemAnalysisCompletedEvent is emitted after an exam's statistics were recomputed and stored
type ItemAnalysisCompletedEvent struct {
	TenantID          string    `json:"tenant_id"`
	ExamID            uint      `json:"exam_id"`
	CompletedAttempts int       `json:"completed_attempts"`
	QuestionCount     int       `json:"question_count"`
	ReviewQuestionIDs []uint    `json:"review_question_ids"`
	CalculatedAt      time.Time `json:"calculated_at"`
}

func NewItemAnalysisCompletedEvent(tenantID string, examID uint, attempts, questions int, reviewIDs []uint, calculatedAt time.Time) *Event {
	if reviewIDs == nil {
		reviewIDs = []uint{}
	}
	return &Event{
		ID:        GenerateEventID(),
		Type:      EventItemAnalysisCompleted,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   eventVersion,
		Data: ItemAnalysisCompletedEvent{
			TenantID:          tenantID,
			ExamID:            examID,
			CompletedAttempts: attempts,
			QuestionCount:     questions,
			ReviewQuestionIDs: reviewIDs,
			CalculatedAt:      calculatedAt,
		},
		Metadata: map[string]interface{}{
			"tenant_id": tenantID,
		},
	}
}

func GenerateEventID() string {
	return uuid.NewString()
}
