package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

const (
	QuestionTypeText        = "text"
	QuestionTypeMultichoice = "text_multichoice"
)

// Review workflow for generated content: only approved questions are served to players.
const (
	ReviewStatusPending  = "pending"
	ReviewStatusApproved = "approved"
	ReviewStatusRejected = "rejected"
)

// AnswerOptions holds the four-way option map for multiple-choice questions,
// e.g. {"a": "Paris", "b": "London", ...}. Stored as JSONB.
type AnswerOptions map[string]string

func (o AnswerOptions) Value() (driver.Value, error) {
	if o == nil {
		return nil, nil
	}
	return json.Marshal(o)
}

func (o *AnswerOptions) Scan(value interface{}) error {
	if value == nil {
		*o = nil
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("unsupported type %T for AnswerOptions", value)
		}
		b = []byte(s)
	}
	return json.Unmarshal(b, o)
}

// StringList is a JSONB-backed list of strings (alternative answers, tags).
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("unsupported type %T for StringList", value)
		}
		b = []byte(s)
	}
	return json.Unmarshal(b, l)
}

// Question is an immutable content record once approved. The orchestrator
// only reads questions; it never mutates them beyond bumping UsageCount.
type Question struct {
	ID                 string         `json:"id" gorm:"primarykey"`
	QuestionText       string         `json:"question" gorm:"type:text;not null"`
	Type               string         `json:"type" gorm:"not null;default:text"`
	PossibleAnswers    AnswerOptions  `json:"possible_answers,omitempty" gorm:"type:jsonb"`
	CorrectAnswer      string         `json:"correct_answer" gorm:"type:text;not null"`
	AlternativeAnswers StringList     `json:"alternative_answers" gorm:"type:jsonb"`
	Topic              string         `json:"topic" gorm:"not null;index"`
	Category           string         `json:"category" gorm:"not null;index"`
	Difficulty         Difficulty     `json:"difficulty" gorm:"not null;index"`
	Tags               StringList     `json:"tags" gorm:"type:jsonb"`
	ReviewStatus       string         `json:"review_status" gorm:"not null;default:pending;index"`
	Source             string         `json:"source" gorm:"not null;default:generated"`
	UsageCount         int            `json:"usage_count" gorm:"not null;default:0"`
	Explanation        *string        `json:"explanation,omitempty" gorm:"type:text"`
	CreatedBy          *string        `json:"created_by,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

// Rating is one participant's 1-5 verdict on a question, with optional free text.
type Rating struct {
	ID           uint           `json:"id" gorm:"primarykey"`
	QuestionID   string         `json:"question_id" gorm:"not null;index"`
	UserID       string         `json:"user_id" gorm:"not null"`
	Rating       int            `json:"rating" gorm:"not null"`
	FeedbackText *string        `json:"feedback_text,omitempty" gorm:"type:text"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}
