package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lshigami/voicequiz/internal/model"
)

// AnswerJudge is the tier-2 nuanced grader, backed by an LLM. It returns one
// of the four non-skip result kinds plus a short rationale.
type AnswerJudge interface {
	Judge(ctx context.Context, questionText, correctAnswer, candidate string) (model.ResultKind, string, error)
}

// EvaluatorService grades a candidate answer. Tier 1 is deterministic
// normalized matching; tier 2 delegates to the judge with a bounded timeout
// and falls back to incorrect rather than blocking.
type EvaluatorService interface {
	Evaluate(ctx context.Context, question *model.Question, candidate string) model.EvaluationResult
}

type evaluatorService struct {
	judge        AnswerJudge
	judgeTimeout time.Duration
}

func NewEvaluatorService(judge AnswerJudge, judgeTimeout time.Duration) EvaluatorService {
	if judgeTimeout <= 0 {
		judgeTimeout = 10 * time.Second
	}
	return &evaluatorService{judge: judge, judgeTimeout: judgeTimeout}
}

func (s *evaluatorService) Evaluate(ctx context.Context, question *model.Question, candidate string) model.EvaluationResult {
	result := model.EvaluationResult{
		UserAnswer:    candidate,
		CorrectAnswer: question.CorrectAnswer,
	}

	if strings.TrimSpace(candidate) == "" {
		result.Kind = model.ResultSkipped
		result.UserAnswer = "skipped"
		return result
	}

	if question.Type == model.QuestionTypeMultichoice {
		// Single selected letter, case-insensitive, strictly binary.
		if strings.EqualFold(strings.TrimSpace(candidate), strings.TrimSpace(question.CorrectAnswer)) {
			result.Kind = model.ResultCorrect
		} else {
			result.Kind = model.ResultIncorrect
		}
		result.Points = model.PointsFor(result.Kind)
		return result
	}

	// Tier 1: normalized exact match against the correct answer and every
	// accepted alternative.
	normalized := NormalizeText(candidate)
	if normalized == NormalizeText(question.CorrectAnswer) {
		result.Kind = model.ResultCorrect
		result.Points = model.PointsFor(result.Kind)
		return result
	}
	for _, alt := range question.AlternativeAnswers {
		if normalized == NormalizeText(alt) {
			result.Kind = model.ResultCorrect
			result.Points = model.PointsFor(result.Kind)
			return result
		}
	}

	// Tier 2: LLM judgment, bounded. Availability beats scoring accuracy:
	// any failure degrades to incorrect with zero points.
	judgeCtx, cancel := context.WithTimeout(ctx, s.judgeTimeout)
	defer cancel()
	kind, rationale, err := s.judge.Judge(judgeCtx, question.QuestionText, question.CorrectAnswer, candidate)
	if err != nil {
		log.Warn().Err(err).Str("questionId", question.ID).Msg("Tier-2 judge failed, falling back to incorrect")
		result.Kind = model.ResultIncorrect
		result.Points = 0.0
		return result
	}

	result.Kind = kind
	result.Rationale = rationale
	result.Points = model.PointsFor(kind)
	return result
}

var (
	punctPattern = regexp.MustCompile(`[.,!?;:'"()\-]`)
	spacePattern = regexp.MustCompile(`\s+`)
)

// NormalizeText case-folds, strips punctuation, and collapses whitespace so
// that "Paris, France!" and "paris france" compare equal.
func NormalizeText(text string) string {
	text = strings.ToLower(strings.TrimSpace(text))
	text = punctPattern.ReplaceAllString(text, "")
	text = spacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
