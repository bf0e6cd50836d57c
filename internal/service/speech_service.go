package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/lshigami/voicequiz/config"
)

// Synthesizer turns response text into speech. It is strictly best-effort:
// callers log failures and proceed without audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, language string) ([]byte, error)
}

type openaiSynthesizer struct {
	client  *openai.Client
	timeout time.Duration
}

func NewSpeechSynthesizer(cfg *config.Config) Synthesizer {
	if cfg.OpenAIApiKey == "" {
		log.Warn().Msg("OPENAI_API_KEY is not set. Speech synthesis disabled.")
		return &openaiSynthesizer{client: nil, timeout: cfg.SynthesisTimeout()}
	}
	return &openaiSynthesizer{
		client:  openai.NewClient(cfg.OpenAIApiKey),
		timeout: cfg.SynthesisTimeout(),
	}
}

func (s *openaiSynthesizer) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	if s.client == nil {
		return nil, fmt.Errorf("speech synthesis not configured")
	}
	if text == "" {
		return nil, fmt.Errorf("nothing to synthesize")
	}

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// Opus keeps payloads small and plays natively on iOS. The TTS voice
	// handles 50+ languages on its own, so language only matters upstream.
	resp, err := s.client.CreateSpeech(callCtx, openai.CreateSpeechRequest{
		Model:          openai.TTSModel1,
		Input:          text,
		Voice:          openai.VoiceNova,
		ResponseFormat: openai.SpeechResponseFormatOpus,
		Speed:          1.0,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Speech synthesis request failed")
		return nil, err
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("reading synthesized audio: %w", err)
	}
	return audio, nil
}
