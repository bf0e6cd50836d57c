package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/lshigami/voicequiz/config"
	"github.com/lshigami/voicequiz/internal/model"
)

// IntentParser turns one free-form utterance into structured intents. It is
// total: every input yields at least a literal-answer intent, even when the
// underlying model call fails. The orchestrator never sees a parser error.
type IntentParser interface {
	Parse(ctx context.Context, utterance, currentQuestion string) []model.Intent
}

// intentClassifier is the raw LLM call behind the parser, returning the
// model's JSON classification. Split out so tests can stub the model.
type intentClassifier interface {
	Classify(ctx context.Context, utterance, currentQuestion string) (string, error)
}

type intentService struct {
	classifier intentClassifier
	timeout    time.Duration
}

func NewIntentService(classifier intentClassifier, timeout time.Duration) IntentParser {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &intentService{classifier: classifier, timeout: timeout}
}

// NewIntentParser wires the parser with the configured classification timeout.
func NewIntentParser(cfg *config.Config, classifier intentClassifier) IntentParser {
	return NewIntentService(classifier, cfg.IntentTimeout())
}

// Guard against transcriptions that captured the question itself instead of
// an answer.
const maxAnswerLength = 100

var (
	skipWords = map[string]bool{"skip": true, "pass": true, "next": true, "idk": true, "i don't know": true, "i dont know": true}
	quitWords = map[string]bool{"quit": true, "exit": true, "stop": true, "end": true}
)

func (s *intentService) Parse(ctx context.Context, utterance, currentQuestion string) []model.Intent {
	trimmed := strings.TrimSpace(utterance)
	lowered := strings.ToLower(trimmed)

	// Fast paths keep the common commands off the model entirely, and stop
	// near-empty input from turning into a hallucinated answer.
	if len(trimmed) < 2 {
		return []model.Intent{{Type: model.IntentSkip, Confirmation: "No input received"}}
	}
	if skipWords[lowered] {
		return []model.Intent{{Type: model.IntentSkip, Confirmation: "Skipping question"}}
	}
	if quitWords[lowered] {
		return []model.Intent{{Type: model.IntentQuit}}
	}
	switch lowered {
	case "harder", "more difficult":
		return []model.Intent{{Type: model.IntentDifficulty, DifficultyDelta: 1, Confirmation: "Making questions harder"}}
	case "easier", "simpler":
		return []model.Intent{{Type: model.IntentDifficulty, DifficultyDelta: -1, Confirmation: "Making questions easier"}}
	}

	classifyCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	raw, err := s.classifier.Classify(classifyCtx, trimmed, currentQuestion)
	if err != nil {
		log.Warn().Err(err).Msg("Intent classification failed, treating input as literal answer")
		return []model.Intent{model.AnswerIntent(trimmed)}
	}

	intents, ok := decodeIntents(raw)
	if !ok {
		log.Warn().Str("raw", raw).Msg("Unparseable intent classification, treating input as literal answer")
		return []model.Intent{model.AnswerIntent(trimmed)}
	}

	return sanitizeIntents(intents, currentQuestion)
}

// wire format expected from the classifier.
type classifiedIntent struct {
	IntentType   string   `json:"intent_type"`
	Answer       string   `json:"answer,omitempty"`
	Rating       int      `json:"rating,omitempty"`
	Feedback     string   `json:"feedback,omitempty"`
	Difficulty   string   `json:"difficulty,omitempty"`
	AvoidTopics  []string `json:"avoid_topics,omitempty"`
	PreferTopics []string `json:"prefer_topics,omitempty"`
	Confirmation string   `json:"confirmation_message,omitempty"`
}

type classification struct {
	Intents []classifiedIntent `json:"intents"`
}

func decodeIntents(raw string) ([]model.Intent, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end <= start {
		return nil, false
	}

	var parsed classification
	if err := json.Unmarshal([]byte(raw[start:end+1]), &parsed); err != nil {
		return nil, false
	}
	if len(parsed.Intents) == 0 {
		return nil, false
	}

	var intents []model.Intent
	for _, ci := range parsed.Intents {
		switch ci.IntentType {
		case "answer":
			intents = append(intents, model.Intent{Type: model.IntentAnswer, Answer: ci.Answer, Confirmation: ci.Confirmation})
		case "skip":
			intents = append(intents, model.Intent{Type: model.IntentSkip, Confirmation: ci.Confirmation})
		case "quit":
			intents = append(intents, model.Intent{Type: model.IntentQuit, Confirmation: ci.Confirmation})
		case "rating":
			if ci.Rating >= 1 && ci.Rating <= 5 {
				intents = append(intents, model.Intent{Type: model.IntentRating, Rating: ci.Rating, FeedbackText: ci.Feedback, Confirmation: ci.Confirmation})
			}
		case "preference_change":
			if ci.Difficulty == "harder" {
				intents = append(intents, model.Intent{Type: model.IntentDifficulty, DifficultyDelta: 1, Confirmation: ci.Confirmation})
			} else if ci.Difficulty == "easier" {
				intents = append(intents, model.Intent{Type: model.IntentDifficulty, DifficultyDelta: -1, Confirmation: ci.Confirmation})
			}
			if len(ci.AvoidTopics) > 0 || len(ci.PreferTopics) > 0 {
				intents = append(intents, model.Intent{Type: model.IntentTopics, AvoidTopics: ci.AvoidTopics, PreferTopics: ci.PreferTopics, Confirmation: ci.Confirmation})
			}
		default:
			// start/explanation_request/unclear carry nothing actionable here.
		}
	}
	if len(intents) == 0 {
		return nil, false
	}
	return intents, true
}

// sanitizeIntents applies contamination guards on answer intents: a
// transcription that echoed the question back must not be graded as an
// answer.
func sanitizeIntents(intents []model.Intent, currentQuestion string) []model.Intent {
	for i := range intents {
		if intents[i].Type != model.IntentAnswer {
			continue
		}
		answer := intents[i].Answer
		if answer == "" {
			intents[i] = model.Intent{Type: model.IntentSkip, Confirmation: "No answer detected"}
			continue
		}
		if len(answer) > maxAnswerLength {
			log.Warn().Int("length", len(answer)).Msg("Suspiciously long answer, converting to skip")
			intents[i] = model.Intent{Type: model.IntentSkip, Confirmation: "Answer too long, treating as skip"}
			continue
		}
		if len(currentQuestion) > 10 && similarity(strings.ToLower(answer), strings.ToLower(currentQuestion)) > 0.7 {
			log.Warn().Str("answer", answer).Msg("Answer too similar to question text, converting to skip")
			intents[i] = model.Intent{Type: model.IntentSkip, Confirmation: "Invalid answer detected, treating as skip"}
		}
	}
	return intents
}

// similarity is the ratio 2*LCS/(len(a)+len(b)) over bytes, enough to catch
// an answer that is mostly the question text read back.
func similarity(a, b string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	lcs := prev[len(b)]
	return 2 * float64(lcs) / float64(len(a)+len(b))
}
