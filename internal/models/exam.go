package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "MULTIPLE_CHOICE"
	TrueFalse      QuestionType = "TRUE_FALSE"
	ShortAnswer    QuestionType = "SHORT_ANSWER"
	Essay          QuestionType = "ESSAY"
)

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "IN_PROGRESS"
	AttemptCompleted  AttemptStatus = "COMPLETED"
	AttemptAbandoned  AttemptStatus = "ABANDONED"
)

type Exam struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	TenantID string `json:"tenant_id" gorm:"not null;size:64;index"`
	Title    string `json:"title" gorm:"not null;size:200"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

type ExamQuestion struct {
	ID            uint                           `json:"id" gorm:"primaryKey"`
	TenantID      string                         `json:"tenant_id" gorm:"not null;size:64;index"`
	ExamID        uint                           `json:"exam_id" gorm:"not null;index"`
	Order         int                            `json:"order" gorm:"column:order;not null;default:0"`
	QuestionType  QuestionType                   `json:"question_type" gorm:"not null;size:32" validate:"question_type"`
	Content       string                         `json:"content" gorm:"type:text"`
	Options       datatypes.JSONType[OptionList] `json:"options" gorm:"type:jsonb"`
	CorrectAnswer string                         `json:"correct_answer" gorm:"type:text"`
	IsActive      bool                           `json:"is_active" gorm:"default:true;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Exam Exam `json:"-" gorm:"foreignKey:ExamID"`
}

// OptionList returns the question's options in their stored order.
func (q *ExamQuestion) OptionList() OptionList {
	return q.Options.Data()
}

// HasOptionStatistics reports whether option selection is tracked for the question.
func (q *ExamQuestion) HasOptionStatistics() bool {
	return q.QuestionType == MultipleChoice && len(q.OptionList()) > 0
}

type ExamAttempt struct {
	ID             uint                                           `json:"id" gorm:"primaryKey"`
	TenantID       string                                         `json:"tenant_id" gorm:"not null;size:64;index"`
	ExamID         uint                                           `json:"exam_id" gorm:"not null;index"`
	StudentID      string                                         `json:"student_id" gorm:"not null;size:255;index"`
	Status         AttemptStatus                                  `json:"status" gorm:"not null;size:32;default:IN_PROGRESS;index"`
	Score          float64                                        `json:"score"`
	TotalQuestions int                                            `json:"total_questions"`
	AnswerOrder    datatypes.JSONType[map[string]*RecordedAnswer] `json:"answer_order" gorm:"type:jsonb"`
	CompletedAt    *time.Time                                     `json:"completed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Exam Exam `json:"-" gorm:"foreignKey:ExamID"`
}

// AnswerFor returns the recorded answer for a question, or nil when the attempt
// holds no response for it.
func (a *ExamAttempt) AnswerFor(questionKey string) *RecordedAnswer {
	answers := a.AnswerOrder.Data()
	if answers == nil {
		return nil
	}
	return answers[questionKey]
}

func (Exam) TableName() string {
	return "exams"
}

func (ExamQuestion) TableName() string {
	return "exam_questions"
}

func (ExamAttempt) TableName() string {
	return "exam_attempts"
}
