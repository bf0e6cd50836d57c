package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"

	"github.com/lshigami/voicequiz/config"
)

type geminiIntentClassifier struct {
	client *genai.GenerativeModel
}

// NewGeminiIntentClassifier builds the LLM call behind the intent parser.
// Without an API key every call errors and the parser degrades to treating
// input as a literal answer.
func NewGeminiIntentClassifier(cfg *config.Config) (intentClassifier, error) {
	if cfg.GeminiApiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set. Intent classifier will be non-functional.")
		return &geminiIntentClassifier{client: nil}, nil
	}
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiApiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	m := client.GenerativeModel("gemini-1.5-flash")
	temp := float32(0.3)
	m.Temperature = &temp
	m.ResponseMIMEType = "application/json"
	return &geminiIntentClassifier{client: m}, nil
}

func (c *geminiIntentClassifier) Classify(ctx context.Context, utterance, currentQuestion string) (string, error) {
	if c.client == nil {
		return "", fmt.Errorf("gemini client not initialized")
	}

	question := currentQuestion
	if question == "" {
		question = "No question asked yet"
	}

	prompt := fmt.Sprintf(`Classify this quiz user input into one or more intent types. A single input can contain MULTIPLE intents.

Current question: %s
User input: %s

INTENT TYPES:
1. "answer" - User is answering the current quiz question
2. "skip" - User wants to skip this question (skip, pass, next, idk, "i don't know")
3. "rating" - User is rating the question (1-5 scale or sentiment)
4. "preference_change" - User wants to change topic preferences or difficulty
5. "quit" - User wants to end the quiz
6. "unclear" - Irrelevant text that should be ignored

EXTRACTION RULES:
- For "answer": extract ONLY the user's spoken answer, never the question text.
  Maximum answer length is 100 characters; if the input repeats the question before
  answering (e.g. "What is Paris? Paris"), extract only "Paris". If the input is
  only the question with no actual answer, classify as "skip".
- For "rating": extract rating 1-5 and optional feedback.
  Negative sentiment ("bad", "terrible", "too easy", "don't like") means rating 1;
  positive sentiment ("great", "good", "love it") means rating 5.
- For "preference_change": extract avoid_topics (list), prefer_topics (list),
  and/or difficulty ("harder" or "easier").
  "too easy" also implies difficulty "harder"; "too hard" implies "easier".

MULTI-INTENT EXAMPLES:
- "London. No more geography" -> [answer, preference_change]
- "Paris. This is too easy" -> [answer, rating 1, preference_change harder]
- "Berlin. Great question!" -> [answer, rating 5]
- "42. Make it harder" -> [answer, preference_change]

Also generate a short user-friendly confirmation_message per intent, e.g.
"Got it! Avoiding geography questions from now on."

Respond in this exact JSON format:
{
  "intents": [
    {
      "intent_type": "answer|skip|rating|preference_change|quit|unclear",
      "answer": "text",
      "rating": 1,
      "feedback": "text",
      "avoid_topics": ["topic"],
      "prefer_topics": ["topic"],
      "difficulty": "harder|easier",
      "confirmation_message": "message or empty"
    }
  ]
}`, question, utterance)

	resp, err := c.client.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no content")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("gemini returned no text content")
	}
	return sb.String(), nil
}
