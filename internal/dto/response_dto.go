package dto

import (
	"time"

	"github.com/lshigami/voicequiz/internal/model"
)

type ErrorResponse struct {
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

type ParticipantResponse struct {
	ParticipantID string  `json:"participant_id"`
	UserID        *string `json:"user_id,omitempty"`
	DisplayName   string  `json:"display_name"`
	Score         float64 `json:"score"`
	AnsweredCount int     `json:"answered_count"`
	CorrectCount  int     `json:"correct_count"`
	IsHost        bool    `json:"is_host"`
}

type SessionResponse struct {
	SessionID     string                `json:"session_id"`
	Mode          string                `json:"mode"`
	Phase         string                `json:"phase"`
	MaxQuestions  int                   `json:"max_questions"`
	AnsweredCount int                   `json:"answered_count"`
	Difficulty    string                `json:"current_difficulty"`
	Language      string                `json:"language,omitempty"`
	Category      string                `json:"category,omitempty"`
	Participants  []ParticipantResponse `json:"participants"`
	CreatedAt     time.Time             `json:"created_at"`
	ExpiresAt     time.Time             `json:"expires_at"`
}

// QuestionResponse is the player-facing question view. The correct answer is
// deliberately absent.
type QuestionResponse struct {
	ID              string              `json:"id"`
	QuestionText    string              `json:"question"`
	Type            string              `json:"type"`
	PossibleAnswers model.AnswerOptions `json:"possible_answers,omitempty"`
	Difficulty      string              `json:"difficulty"`
	Topic           string              `json:"topic"`
	Category        string              `json:"category"`
}

type EvaluationResponse struct {
	UserAnswer    string  `json:"user_answer"`
	Result        string  `json:"result"`
	Points        float64 `json:"points"`
	CorrectAnswer string  `json:"correct_answer"`
	Rationale     string  `json:"rationale,omitempty"`
}

// AudioPayload carries best-effort synthesized speech. Absent whenever
// synthesis failed or was not requested.
type AudioPayload struct {
	Format           string `json:"format"`
	QuestionAudioB64 string `json:"question_audio_b64,omitempty"`
	FeedbackAudioB64 string `json:"feedback_audio_b64,omitempty"`
}

// InputResponse is the composite result of one submitted input: session
// snapshot, evaluation of the previous answer, the next question if the quiz
// continues, and descriptions of the feedback intents that were applied.
type InputResponse struct {
	Success          bool                `json:"success"`
	Message          string              `json:"message"`
	Session          SessionResponse     `json:"session"`
	CurrentQuestion  *QuestionResponse   `json:"current_question,omitempty"`
	Evaluation       *EvaluationResponse `json:"evaluation,omitempty"`
	FeedbackReceived []string            `json:"feedback_received"`
	Audio            *AudioPayload       `json:"audio,omitempty"`
}

type TranscriptionResponse struct {
	Success  bool   `json:"success"`
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
	Filename string `json:"filename"`
}

type QuestionProgressResponse struct {
	Question QuestionResponse `json:"question"`
	Progress struct {
		Current int `json:"current"`
		Total   int `json:"total"`
	} `json:"progress"`
}

type AckResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
