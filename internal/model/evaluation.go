package model

// ResultKind is the graded outcome of one answer.
type ResultKind string

const (
	ResultCorrect            ResultKind = "correct"
	ResultPartiallyCorrect   ResultKind = "partially_correct"
	ResultPartiallyIncorrect ResultKind = "partially_incorrect"
	ResultIncorrect          ResultKind = "incorrect"
	ResultSkipped            ResultKind = "skipped"
)

// PointsFor maps a result kind to its score delta. The table is fixed and
// independent of difficulty or topic.
func PointsFor(kind ResultKind) float64 {
	switch kind {
	case ResultCorrect:
		return 1.0
	case ResultPartiallyCorrect:
		return 0.5
	case ResultPartiallyIncorrect:
		return 0.25
	default:
		return 0.0
	}
}

// EvaluationResult is the per-answer grading outcome attached to the
// response. It is ephemeral beyond the session's last-evaluation field.
type EvaluationResult struct {
	UserAnswer    string     `json:"user_answer"`
	Kind          ResultKind `json:"result"`
	Points        float64    `json:"points"`
	CorrectAnswer string     `json:"correct_answer"`
	Rationale     string     `json:"rationale,omitempty"`
}
