package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/lshigami/voicequiz/config"
)

// MaxAudioBytes is the Whisper API upload limit.
const MaxAudioBytes = 25 * 1024 * 1024

var supportedAudioFormats = map[string]bool{
	"mp3": true, "mp4": true, "mpeg": true, "mpga": true,
	"m4a": true, "wav": true, "webm": true, "ogg": true,
}

// Transcriber converts an uploaded audio blob to text. Failure here is a
// hard, typed error: without a transcript no answer can be inferred.
type Transcriber interface {
	TranscribeAnswer(ctx context.Context, audio io.Reader, filename, language, questionHint string) (string, error)
}

type whisperTranscriber struct {
	client  *openai.Client
	timeout time.Duration
}

func NewWhisperTranscriber(cfg *config.Config) Transcriber {
	if cfg.OpenAIApiKey == "" {
		log.Warn().Msg("OPENAI_API_KEY is not set. Voice transcription will be non-functional.")
		return &whisperTranscriber{client: nil, timeout: cfg.TranscriptionTimeout()}
	}
	return &whisperTranscriber{
		client:  openai.NewClient(cfg.OpenAIApiKey),
		timeout: cfg.TranscriptionTimeout(),
	}
}

// IsSupportedAudioFormat checks the filename extension against the Whisper
// format allowlist.
func IsSupportedAudioFormat(filename string) bool {
	return supportedAudioFormats[audioExtension(filename)]
}

func audioExtension(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx == -1 || idx == len(filename)-1 {
		return ""
	}
	return strings.ToLower(filename[idx+1:])
}

func (t *whisperTranscriber) TranscribeAnswer(ctx context.Context, audio io.Reader, filename, language, questionHint string) (string, error) {
	if t.client == nil {
		return "", fmt.Errorf("%w: transcription service not configured", ErrTranscriptionFailed)
	}

	// Domain context noticeably improves recognition of short answers and
	// proper nouns.
	prompt := "Quiz answer. "
	if questionHint != "" {
		prompt += fmt.Sprintf("Question: %s. ", questionHint)
	}
	prompt += "Expected: short answers, place names, proper nouns, numbers."

	req := openai.AudioRequest{
		Model:    openai.Whisper1,
		Reader:   audio,
		FilePath: filename,
		Prompt:   prompt,
	}
	if language != "" {
		req.Language = language
	}

	callCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	resp, err := t.client.CreateTranscription(callCtx, req)
	if err != nil {
		log.Error().Err(err).Str("filename", filename).Msg("Whisper transcription failed")
		return "", fmt.Errorf("%w: %v", ErrTranscriptionFailed, err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", fmt.Errorf("%w: empty transcript", ErrTranscriptionFailed)
	}
	return text, nil
}
