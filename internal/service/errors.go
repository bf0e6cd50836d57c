package service

import "errors"

// Typed failure modes surfaced to the HTTP layer. Degraded-but-successful
// outcomes (parser fallback, judge timeout, missing audio) are never errors.
var (
	ErrInvalidConfig       = errors.New("invalid session configuration")
	ErrInvalidPhase        = errors.New("operation not valid in current phase")
	ErrNoQuestionToRate    = errors.New("no question has been asked yet")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrTranscriptionFailed = errors.New("audio transcription failed")
	ErrUnsupportedAudio    = errors.New("unsupported audio format")
	ErrAudioTooLarge       = errors.New("audio file too large")
)
