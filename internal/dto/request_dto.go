package dto

// CreateSessionRequest configures a new quiz session.
type CreateSessionRequest struct {
	MaxQuestions int     `json:"max_questions" binding:"required,min=1,max=50"`
	Difficulty   string  `json:"difficulty" binding:"omitempty,oneof=easy medium hard"`
	Language     string  `json:"language"`
	Category     string  `json:"category"`
	Mode         string  `json:"mode" binding:"omitempty,oneof=single multiplayer"`
	UserID       *string `json:"user_id"`
	TTLMinutes   int     `json:"ttl_minutes" binding:"omitempty,min=1,max=120"`
}

// StartSessionRequest carries client-side exclusions (cross-session history)
// merged with the session's own exclusion list.
type StartSessionRequest struct {
	ExcludedQuestionIDs []string `json:"excluded_question_ids"`
}

// SubmitInputRequest is one natural-language utterance against the session.
type SubmitInputRequest struct {
	Input         string  `json:"input" binding:"required,min=1"`
	ParticipantID *string `json:"participant_id"`
}

// RateQuestionRequest rates the most recently asked question.
type RateQuestionRequest struct {
	Rating        int     `json:"rating" binding:"required,min=1,max=5"`
	FeedbackText  *string `json:"feedback_text"`
	ParticipantID *string `json:"participant_id"`
}

// AddParticipantRequest joins a player to a multiplayer session.
type AddParticipantRequest struct {
	DisplayName string  `json:"display_name" binding:"required,min=1,max=50"`
	UserID      *string `json:"user_id"`
}

// ExtendSessionRequest pushes the session expiry forward.
type ExtendSessionRequest struct {
	Minutes int `json:"minutes" binding:"omitempty,min=1,max=120"`
}
