package dto

import (
	"time"

	"github.com/lshigami/voicequiz/internal/model"
)

// CreateQuestionRequest adds one question to the corpus by hand.
type CreateQuestionRequest struct {
	QuestionText       string              `json:"question" binding:"required"`
	Type               string              `json:"type" binding:"required,oneof=text text_multichoice"`
	PossibleAnswers    model.AnswerOptions `json:"possible_answers"`
	CorrectAnswer      string              `json:"correct_answer" binding:"required"`
	AlternativeAnswers []string            `json:"alternative_answers"`
	Topic              string              `json:"topic" binding:"required"`
	Category           string              `json:"category" binding:"required"`
	Difficulty         string              `json:"difficulty" binding:"required,oneof=easy medium hard"`
	Tags               []string            `json:"tags"`
	Explanation        *string             `json:"explanation"`
	CreatedBy          *string             `json:"created_by"`
}

// GenerateQuestionsRequest asks the generator to produce candidate questions
// for review.
type GenerateQuestionsRequest struct {
	Count      int    `json:"count" binding:"required,min=1,max=20"`
	Topic      string `json:"topic" binding:"required"`
	Category   string `json:"category" binding:"required"`
	Difficulty string `json:"difficulty" binding:"required,oneof=easy medium hard"`
}

// AdminQuestionResponse is the reviewer-facing question view, correct answer
// included.
type AdminQuestionResponse struct {
	ID                 string              `json:"id"`
	QuestionText       string              `json:"question"`
	Type               string              `json:"type"`
	PossibleAnswers    model.AnswerOptions `json:"possible_answers,omitempty"`
	CorrectAnswer      string              `json:"correct_answer"`
	AlternativeAnswers []string            `json:"alternative_answers"`
	Topic              string              `json:"topic"`
	Category           string              `json:"category"`
	Difficulty         string              `json:"difficulty"`
	Tags               []string            `json:"tags,omitempty"`
	ReviewStatus       string              `json:"review_status"`
	Source             string              `json:"source"`
	UsageCount         int                 `json:"usage_count"`
	Explanation        *string             `json:"explanation,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
}
