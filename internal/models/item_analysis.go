package models

import (
	"bytes"
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type OptionStatistic struct {
	Key        string  `json:"-"`
	Selected   int     `json:"selected"`
	Percentage float64 `json:"percentage"` // 0 - 100
	IsCorrect  bool    `json:"isCorrect"`
}

// OptionStatistics is keyed by option key and ordered like the question's options.
type OptionStatistics []OptionStatistic

func (s OptionStatistics) Get(key string) (OptionStatistic, bool) {
	for _, stat := range s {
		if stat.Key == key {
			return stat, true
		}
	}
	return OptionStatistic{}, false
}

func (s OptionStatistics) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, stat := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(stat.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(stat)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s *OptionStatistics) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*s = nil
		return nil
	}

	stats := OptionStatistics{}
	err := decodeOrderedObject(data, func(key string, raw json.RawMessage) error {
		var stat OptionStatistic
		if err := json.Unmarshal(raw, &stat); err != nil {
			return err
		}
		stat.Key = key
		stats = append(stats, stat)
		return nil
	})
	if err != nil {
		return err
	}
	*s = stats
	return nil
}

type GroupStats struct {
	Correct    int     `json:"correct"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"` // 0.0 - 1.0
}

// ItemStatistics holds everything computed for one question in one analysis run.
type ItemStatistics struct {
	TotalAttempts    int `json:"total_attempts"`
	CorrectAnswers   int `json:"correct_answers"`
	IncorrectAnswers int `json:"incorrect_answers"`
	BlankAnswers     int `json:"blank_answers"`

	OptionStatistics datatypes.JSONType[OptionStatistics] `json:"option_statistics" gorm:"type:jsonb"`

	DifficultyIndex     float64 `json:"difficulty_index"`     // 0.0 - 1.0
	DiscriminationIndex float64 `json:"discrimination_index"` // -1.0 - 1.0

	TopGroupStats    datatypes.JSONType[GroupStats] `json:"top_group_stats" gorm:"type:jsonb"`
	BottomGroupStats datatypes.JSONType[GroupStats] `json:"bottom_group_stats" gorm:"type:jsonb"`

	Analysis string `json:"analysis" gorm:"type:text"`
}

type QuestionItemAnalysis struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	TenantID   string `json:"tenant_id" gorm:"not null;size:64;index"`
	ExamID     uint   `json:"exam_id" gorm:"not null;uniqueIndex:idx_item_analysis_exam_question,priority:1"`
	QuestionID uint   `json:"question_id" gorm:"not null;uniqueIndex:idx_item_analysis_exam_question,priority:2"`

	ItemStatistics `gorm:"embedded"`

	LastCalculatedAt time.Time `json:"last_calculated_at"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`

	// Relations
	Exam     Exam         `json:"-" gorm:"foreignKey:ExamID"`
	Question ExamQuestion `json:"-" gorm:"foreignKey:QuestionID"`
}

func (QuestionItemAnalysis) TableName() string {
	return "question_item_analyses"
}
