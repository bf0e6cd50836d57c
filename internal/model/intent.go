package model

// IntentType discriminates the structured signals extracted from one raw
// utterance. Each Intent carries only the fields its type uses, and the
// orchestrator switches exhaustively on the type.
type IntentType string

const (
	IntentAnswer     IntentType = "answer"
	IntentSkip       IntentType = "skip"
	IntentQuit       IntentType = "quit"
	IntentRating     IntentType = "rating"
	IntentDifficulty IntentType = "difficulty"
	IntentTopics     IntentType = "topics"
	IntentUnclear    IntentType = "unclear"
)

// Intent is one parsed signal from an utterance. A single input can yield
// several, e.g. "Paris, too easy" -> answer + rating + difficulty.
type Intent struct {
	Type IntentType

	// IntentAnswer
	Answer string

	// IntentRating
	Rating       int
	FeedbackText string

	// IntentDifficulty: +1 (harder) or -1 (easier) on the ordered scale.
	DifficultyDelta int

	// IntentTopics
	PreferTopics []string
	AvoidTopics  []string

	// Optional human-readable confirmation surfaced in feedback_received.
	Confirmation string
}

// AnswerIntent is a convenience constructor for the literal-answer fallback.
func AnswerIntent(text string) Intent {
	return Intent{Type: IntentAnswer, Answer: text}
}
