package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"

	"github.com/lshigami/voicequiz/config"
)

// Translator rewrites player-facing text into the session's language. It is
// strictly best-effort: callers keep the original text when a call fails.
type Translator interface {
	Translate(ctx context.Context, text, targetLanguage string) (string, error)
}

// languageNames maps ISO 639-1 codes to the names used in prompts. Unknown
// codes are passed through verbatim.
var languageNames = map[string]string{
	"en": "English",
	"sk": "Slovak",
	"cs": "Czech",
	"de": "German",
	"fr": "French",
	"es": "Spanish",
	"it": "Italian",
	"pl": "Polish",
	"hu": "Hungarian",
	"ro": "Romanian",
}

type geminiTranslator struct {
	client  *genai.GenerativeModel
	timeout time.Duration
}

// NewGeminiTranslator builds the content translator on Gemini. Without an API
// key every call errors and sessions fall back to English text.
func NewGeminiTranslator(cfg *config.Config) (Translator, error) {
	if cfg.GeminiApiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set. Translation will be non-functional.")
		return &geminiTranslator{client: nil, timeout: cfg.TranslationTimeout()}, nil
	}
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiApiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	m := client.GenerativeModel("gemini-1.5-flash")
	temp := float32(0.3)
	m.Temperature = &temp
	return &geminiTranslator{client: m, timeout: cfg.TranslationTimeout()}, nil
}

func (t *geminiTranslator) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	if targetLanguage == "" || targetLanguage == "en" {
		return text, nil
	}
	if t.client == nil {
		return "", fmt.Errorf("translator not initialized")
	}

	langName := targetLanguage
	if name, ok := languageNames[targetLanguage]; ok {
		langName = name
	}

	prompt := fmt.Sprintf(`You are a professional translator. Translate the following quiz content to %s.
Preserve the meaning and difficulty. Return ONLY the translation, nothing else.

%s`, langName, text)

	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	resp, err := t.client.GenerateContent(callCtx, genai.Text(prompt))
	if err != nil {
		log.Warn().Err(err).Str("language", targetLanguage).Msg("Gemini API error during translation")
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
	translated := strings.TrimSpace(sb.String())
	if translated == "" {
		return "", fmt.Errorf("gemini returned no text content")
	}
	return stripQuotes(translated), nil
}

// stripQuotes removes the quote pair some models wrap short translations in.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
