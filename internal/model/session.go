package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Phase is the session lifecycle state. A session moves idle -> asking on
// start, stays in asking while questions are presented, and ends finished.
// awaiting_answer is accepted on input as an alias for asking so older
// clients that echo it back keep working.
type Phase string

const (
	PhaseIdle           Phase = "idle"
	PhaseAsking         Phase = "asking"
	PhaseAwaitingAnswer Phase = "awaiting_answer"
	PhaseFinished       Phase = "finished"
)

// Difficulty is the ordered scale easy < medium < hard.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

var difficultyOrder = []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard}

func ParseDifficulty(s string) (Difficulty, error) {
	for _, d := range difficultyOrder {
		if string(d) == s {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}

// Step moves the difficulty by delta on the ordered scale, clamped at both
// ends. A step past the boundary is a no-op, not an error.
func (d Difficulty) Step(delta int) Difficulty {
	idx := 1
	for i, v := range difficultyOrder {
		if v == d {
			idx = i
			break
		}
	}
	idx += delta
	if idx < 0 {
		idx = 0
	}
	if idx > len(difficultyOrder)-1 {
		idx = len(difficultyOrder) - 1
	}
	return difficultyOrder[idx]
}

const (
	ModeSingle      = "single"
	ModeMultiplayer = "multiplayer"
)

// Participant is one scorer within a session.
type Participant struct {
	ParticipantID string     `json:"participant_id"`
	UserID        *string    `json:"user_id,omitempty"`
	DisplayName   string     `json:"display_name"`
	Score         float64    `json:"score"`
	AnsweredCount int        `json:"answered_count"`
	CorrectCount  int        `json:"correct_count"`
	LastAnswer    *string    `json:"last_answer,omitempty"`
	LastResult    ResultKind `json:"last_result,omitempty"`
	IsHost        bool       `json:"is_host"`
	JoinedAt      time.Time  `json:"joined_at"`
}

// Session is one quiz attempt. It lives only in the session store; all
// mutation happens under the store's per-session permit.
type Session struct {
	ID       string  `json:"session_id"`
	UserID   *string `json:"user_id,omitempty"`
	Mode     string  `json:"mode"`
	Language string  `json:"language,omitempty"`
	Category string  `json:"category,omitempty"`

	MaxQuestions int        `json:"max_questions"`
	Difficulty   Difficulty `json:"current_difficulty"`

	Phase         Phase `json:"phase"`
	AnsweredCount int   `json:"answered_count"`

	// AskedQuestionIDs is the exclusion list: it only grows, and a question
	// id appearing here is never presented again within this session.
	AskedQuestionIDs []string  `json:"asked_question_ids"`
	CurrentQuestion  *Question `json:"-"`

	PreferredTopics []string `json:"preferred_topics"`
	ExcludedTopics  []string `json:"excluded_topics"`

	LastEvaluation *EvaluationResult `json:"-"`

	Participants []Participant `json:"participants"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ExpiresAt time.Time `json:"expires_at"`

	// TTL is the idle window the store uses when sliding expiry is enabled.
	TTL time.Duration `json:"-"`
}

func NewSessionID() string {
	return "sess_" + uuid.NewString()[:12]
}

func NewParticipantID() string {
	return "p_" + uuid.NewString()[:8]
}

func NewQuestionID() string {
	return "q_" + uuid.NewString()[:12]
}

// Participant returns the participant with the given id, or nil.
func (s *Session) Participant(participantID string) *Participant {
	for i := range s.Participants {
		if s.Participants[i].ParticipantID == participantID {
			return &s.Participants[i]
		}
	}
	return nil
}

// Host returns the host participant, falling back to the first one.
func (s *Session) Host() *Participant {
	for i := range s.Participants {
		if s.Participants[i].IsHost {
			return &s.Participants[i]
		}
	}
	if len(s.Participants) > 0 {
		return &s.Participants[0]
	}
	return nil
}

// CurrentQuestionID returns the id of the question currently presented, if any.
func (s *Session) CurrentQuestionID() string {
	if s.CurrentQuestion == nil {
		return ""
	}
	return s.CurrentQuestion.ID
}

// LastQuestionID is the id eligible for rating: the current question, or the
// most recently asked one once the quiz has moved on.
func (s *Session) LastQuestionID() string {
	if s.CurrentQuestion != nil {
		return s.CurrentQuestion.ID
	}
	if n := len(s.AskedQuestionIDs); n > 0 {
		return s.AskedQuestionIDs[n-1]
	}
	return ""
}

// Expired reports whether the session is past its TTL at the given instant.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Clone returns a deep copy. The store publishes clones so that readers never
// observe a session mid-mutation.
func (s *Session) Clone() *Session {
	cp := *s
	cp.AskedQuestionIDs = append([]string(nil), s.AskedQuestionIDs...)
	cp.PreferredTopics = append([]string(nil), s.PreferredTopics...)
	cp.ExcludedTopics = append([]string(nil), s.ExcludedTopics...)
	cp.Participants = append([]Participant(nil), s.Participants...)
	if s.CurrentQuestion != nil {
		q := *s.CurrentQuestion
		cp.CurrentQuestion = &q
	}
	if s.LastEvaluation != nil {
		ev := *s.LastEvaluation
		cp.LastEvaluation = &ev
	}
	return &cp
}
