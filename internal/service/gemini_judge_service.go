package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"

	"github.com/lshigami/voicequiz/config"
	"github.com/lshigami/voicequiz/internal/model"
)

type geminiJudge struct {
	client *genai.GenerativeModel
}

// NewGeminiAnswerJudge builds the tier-2 grader on Gemini. Without an API key
// the judge is non-functional and every call errors, which the evaluator
// converts into the conservative incorrect fallback.
func NewGeminiAnswerJudge(cfg *config.Config) (AnswerJudge, error) {
	if cfg.GeminiApiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set. Answer judge will be non-functional.")
		return &geminiJudge{client: nil}, nil
	}
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiApiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	m := client.GenerativeModel("gemini-1.5-flash")
	temp := float32(0.3)
	m.Temperature = &temp
	return &geminiJudge{client: m}, nil
}

func (j *geminiJudge) Judge(ctx context.Context, questionText, correctAnswer, candidate string) (model.ResultKind, string, error) {
	if j.client == nil {
		return "", "", fmt.Errorf("gemini client not initialized")
	}

	prompt := fmt.Sprintf(`You are a fair quiz answer evaluator. Compare the user's answer to the correct answer.

Question: %s
Correct Answer: %s
User's Answer: %s

Rules:
- "correct": The answer captures the key concept correctly. Accept:
  - Shorter forms that contain the essential element (e.g., "sequoia" for "giant sequoia")
  - Common abbreviations (NYC for New York City, WW2 for World War II)
  - Minor spelling errors that don't change the meaning
  - More specific correct answers (e.g., "carbon dioxide" when the answer is "carbon")
- "partially_correct": Has the right general idea but missing important qualifiers or has minor factual errors
- "partially_incorrect": Mentions something related but is mostly wrong
- "incorrect": Completely wrong, unrelated, or nonsensical answer

The key principle: if the user clearly knows the answer, mark it correct.

Respond with EXACTLY one of these words on the first line: correct, partially_correct, partially_incorrect, incorrect
On the second line, give a one-sentence rationale.`, questionText, correctAnswer, candidate)

	resp, err := j.client.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		log.Error().Err(err).Msg("Gemini API error during answer judgment")
		return "", "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", "", fmt.Errorf("gemini returned no content")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	raw := strings.TrimSpace(sb.String())
	if raw == "" {
		return "", "", fmt.Errorf("gemini returned no text content")
	}

	kind, rationale := parseJudgment(raw)
	return kind, rationale, nil
}

// parseJudgment extracts the result kind from the model output, tolerating
// extra prose. Exact first-line match wins; substring matching is the
// fallback, checking the partial kinds before the plain ones since
// "partially_correct" contains "correct".
func parseJudgment(raw string) (model.ResultKind, string) {
	lines := strings.SplitN(raw, "\n", 2)
	first := strings.ToLower(strings.TrimSpace(lines[0]))
	rationale := ""
	if len(lines) > 1 {
		rationale = strings.TrimSpace(lines[1])
	}

	switch first {
	case "correct":
		return model.ResultCorrect, rationale
	case "partially_correct":
		return model.ResultPartiallyCorrect, rationale
	case "partially_incorrect":
		return model.ResultPartiallyIncorrect, rationale
	case "incorrect":
		return model.ResultIncorrect, rationale
	}

	lowered := strings.ToLower(raw)
	switch {
	case strings.Contains(lowered, "partially_correct"):
		return model.ResultPartiallyCorrect, rationale
	case strings.Contains(lowered, "partially_incorrect"):
		return model.ResultPartiallyIncorrect, rationale
	case strings.Contains(lowered, "incorrect"):
		return model.ResultIncorrect, rationale
	case strings.Contains(lowered, "correct"):
		return model.ResultCorrect, rationale
	}
	return model.ResultIncorrect, rationale
}
