package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"

	"github.com/lshigami/voicequiz/config"
	"github.com/lshigami/voicequiz/internal/dto"
	"github.com/lshigami/voicequiz/internal/model"
	"github.com/lshigami/voicequiz/internal/repository"
	"github.com/lshigami/voicequiz/internal/store"
)

// SessionService orchestrates the quiz loop: it owns session lifecycle and
// runs every submitted input through parse, evaluate, apply and advance while
// holding the session's mutation permit. Speech synthesis happens after the
// permit is released.
type SessionService interface {
	CreateSession(ctx context.Context, req dto.CreateSessionRequest) (*dto.SessionResponse, error)
	Start(ctx context.Context, sessionID string, req dto.StartSessionRequest) (*dto.InputResponse, error)
	SubmitInput(ctx context.Context, sessionID string, req dto.SubmitInputRequest) (*dto.InputResponse, error)
	SubmitVoice(ctx context.Context, sessionID string, audio io.Reader, filename string, size int64, participantID *string) (*dto.InputResponse, error)
	RateQuestion(ctx context.Context, sessionID string, req dto.RateQuestionRequest) error
	GetSession(sessionID string) (*dto.SessionResponse, error)
	EndSession(ctx context.Context, sessionID string) (*dto.SessionResponse, error)
	DeleteSession(sessionID string)
	ExtendSession(ctx context.Context, sessionID string, req dto.ExtendSessionRequest) (*dto.SessionResponse, error)
	AddParticipant(ctx context.Context, sessionID string, req dto.AddParticipantRequest) (*dto.SessionResponse, error)
	RemoveParticipant(ctx context.Context, sessionID, participantID string) (*dto.SessionResponse, error)
}

type sessionService struct {
	cfg          *config.Config
	sessions     store.SessionStore
	questionRepo repository.QuestionRepository
	ratingRepo   repository.RatingRepository
	parser       IntentParser
	evaluator    EvaluatorService
	transcriber  Transcriber
	synthesizer  Synthesizer
	translator   Translator
}

func NewSessionService(
	cfg *config.Config,
	sessions store.SessionStore,
	questionRepo repository.QuestionRepository,
	ratingRepo repository.RatingRepository,
	parser IntentParser,
	evaluator EvaluatorService,
	transcriber Transcriber,
	synthesizer Synthesizer,
	translator Translator,
) SessionService {
	return &sessionService{
		cfg:          cfg,
		sessions:     sessions,
		questionRepo: questionRepo,
		ratingRepo:   ratingRepo,
		parser:       parser,
		evaluator:    evaluator,
		transcriber:  transcriber,
		synthesizer:  synthesizer,
		translator:   translator,
	}
}

func (s *sessionService) CreateSession(ctx context.Context, req dto.CreateSessionRequest) (*dto.SessionResponse, error) {
	if req.MaxQuestions < 1 || req.MaxQuestions > 50 {
		return nil, fmt.Errorf("%w: max_questions must be between 1 and 50", ErrInvalidConfig)
	}

	difficulty := model.DifficultyMedium
	if req.Difficulty != "" {
		d, err := model.ParseDifficulty(req.Difficulty)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		difficulty = d
	}

	mode := req.Mode
	if mode == "" {
		mode = model.ModeSingle
	}

	available, err := s.questionRepo.Count()
	if err != nil {
		return nil, fmt.Errorf("failed to check question availability: %w", err)
	}
	if available == 0 {
		return nil, fmt.Errorf("%w: no approved questions available", ErrInvalidConfig)
	}

	ttl := time.Duration(s.cfg.Session.DefaultTTLMinutes) * time.Minute
	if req.TTLMinutes > 0 {
		ttl = time.Duration(req.TTLMinutes) * time.Minute
	}

	now := time.Now()
	host := model.Participant{
		ParticipantID: model.NewParticipantID(),
		UserID:        req.UserID,
		DisplayName:   "Host",
		IsHost:        true,
		JoinedAt:      now,
	}
	session := &model.Session{
		ID:           model.NewSessionID(),
		UserID:       req.UserID,
		Mode:         mode,
		Language:     req.Language,
		Category:     req.Category,
		MaxQuestions: req.MaxQuestions,
		Difficulty:   difficulty,
		Phase:        model.PhaseIdle,
		Participants: []model.Participant{host},
		CreatedAt:    now,
		UpdatedAt:    now,
		ExpiresAt:    now.Add(ttl),
		TTL:          ttl,
	}

	s.sessions.Put(session)
	log.Info().Str("session_id", session.ID).Str("mode", mode).
		Int("max_questions", req.MaxQuestions).Msg("Session created")

	resp := toSessionResponse(session)
	return &resp, nil
}

func (s *sessionService) Start(ctx context.Context, sessionID string, req dto.StartSessionRequest) (*dto.InputResponse, error) {
	var message string
	sess, err := s.sessions.WithLock(ctx, sessionID, func(sess *model.Session) error {
		if sess.Phase != model.PhaseIdle {
			return fmt.Errorf("%w: session already started", ErrInvalidPhase)
		}

		// Client-side history joins the session's own exclusion list; both
		// are hard constraints for every subsequent selection.
		for _, id := range req.ExcludedQuestionIDs {
			if id != "" {
				sess.AskedQuestionIDs = appendUnique(sess.AskedQuestionIDs, id)
			}
		}

		if err := s.advance(sess); err != nil {
			return err
		}
		if sess.Phase == model.PhaseFinished {
			message = "No questions matched your session settings."
		} else {
			message = "Quiz started. Good luck!"
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := s.buildInputResponse(sess, message, nil, nil)
	s.localize(ctx, resp, sess)
	s.attachAudio(ctx, resp, sess)
	return resp, nil
}

func (s *sessionService) SubmitInput(ctx context.Context, sessionID string, req dto.SubmitInputRequest) (*dto.InputResponse, error) {
	var (
		evaluation *model.EvaluationResult
		feedback   []string
		messages   []string
	)

	sess, err := s.sessions.WithLock(ctx, sessionID, func(sess *model.Session) error {
		if sess.Phase != model.PhaseAsking && sess.Phase != model.PhaseAwaitingAnswer {
			return fmt.Errorf("%w: session is %s", ErrInvalidPhase, sess.Phase)
		}

		questionText := ""
		if sess.CurrentQuestion != nil {
			questionText = sess.CurrentQuestion.QuestionText
		}
		intents := s.parser.Parse(ctx, req.Input, questionText)

		var quit, answered bool
		for _, intent := range intents {
			switch intent.Type {
			case model.IntentAnswer, model.IntentSkip:
				if sess.CurrentQuestion == nil || answered {
					continue
				}
				candidate := ""
				if intent.Type == model.IntentAnswer {
					candidate = intent.Answer
				}
				result := s.evaluator.Evaluate(ctx, sess.CurrentQuestion, candidate)
				s.recordAnswer(sess, req.ParticipantID, &result)
				evaluation = &result
				messages = append(messages, feedbackSentence(&result))
				answered = true

			case model.IntentQuit:
				quit = true

			case model.IntentRating:
				qid := sess.LastQuestionID()
				if qid == "" {
					feedback = append(feedback, "No question to rate yet")
					continue
				}
				s.saveRating(sess, qid, intent.Rating, intent.FeedbackText, req.ParticipantID)
				feedback = append(feedback, confirmationOr(intent, fmt.Sprintf("Rated question %d/5", intent.Rating)))

			case model.IntentDifficulty:
				sess.Difficulty = sess.Difficulty.Step(intent.DifficultyDelta)
				feedback = append(feedback, confirmationOr(intent, fmt.Sprintf("Difficulty is now %s", sess.Difficulty)))

			case model.IntentTopics:
				for _, t := range intent.PreferTopics {
					sess.PreferredTopics = appendUnique(sess.PreferredTopics, t)
					sess.ExcludedTopics = removeString(sess.ExcludedTopics, t)
				}
				for _, t := range intent.AvoidTopics {
					sess.ExcludedTopics = appendUnique(sess.ExcludedTopics, t)
					sess.PreferredTopics = removeString(sess.PreferredTopics, t)
				}
				feedback = append(feedback, confirmationOr(intent, "Topic preferences updated"))

			default:
				if intent.Confirmation != "" {
					feedback = append(feedback, intent.Confirmation)
				}
			}
		}

		if quit {
			sess.Phase = model.PhaseFinished
			sess.CurrentQuestion = nil
			messages = append(messages, summarySentence(sess))
			return nil
		}

		if answered {
			if err := s.advance(sess); err != nil {
				return err
			}
			if sess.Phase == model.PhaseFinished {
				messages = append(messages, summarySentence(sess))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	resp := s.buildInputResponse(sess, strings.Join(messages, " "), evaluation, feedback)
	s.localize(ctx, resp, sess)
	s.attachAudio(ctx, resp, sess)
	return resp, nil
}

func (s *sessionService) SubmitVoice(ctx context.Context, sessionID string, audio io.Reader, filename string, size int64, participantID *string) (*dto.InputResponse, error) {
	if size > MaxAudioBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds the %d byte limit", ErrAudioTooLarge, size, MaxAudioBytes)
	}
	if !IsSupportedAudioFormat(filename) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAudio, filename)
	}

	// Transcription runs before the permit is taken: it is the slowest step
	// and needs only a read snapshot for its hint.
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	hint := ""
	if sess.CurrentQuestion != nil {
		hint = sess.CurrentQuestion.QuestionText
	}

	transcript, err := s.transcriber.TranscribeAnswer(ctx, audio, filename, sess.Language, hint)
	if err != nil {
		return nil, err
	}

	log.Debug().Str("session_id", sessionID).Str("transcript", transcript).Msg("Voice input transcribed")
	return s.SubmitInput(ctx, sessionID, dto.SubmitInputRequest{Input: transcript, ParticipantID: participantID})
}

func (s *sessionService) RateQuestion(ctx context.Context, sessionID string, req dto.RateQuestionRequest) error {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return err
	}
	qid := sess.LastQuestionID()
	if qid == "" {
		return ErrNoQuestionToRate
	}
	s.saveRating(sess, qid, req.Rating, valueOr(req.FeedbackText), req.ParticipantID)
	return nil
}

func (s *sessionService) GetSession(sessionID string) (*dto.SessionResponse, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	resp := toSessionResponse(sess)
	return &resp, nil
}

// EndSession finishes the quiz early. The session stays in the store until
// its TTL so final scores remain readable.
func (s *sessionService) EndSession(ctx context.Context, sessionID string) (*dto.SessionResponse, error) {
	sess, err := s.sessions.WithLock(ctx, sessionID, func(sess *model.Session) error {
		sess.Phase = model.PhaseFinished
		sess.CurrentQuestion = nil
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Info().Str("session_id", sessionID).Int("answered", sess.AnsweredCount).Msg("Session ended")
	resp := toSessionResponse(sess)
	return &resp, nil
}

// DeleteSession removes the session outright. Idempotent: deleting an
// unknown or already-evicted id is a no-op.
func (s *sessionService) DeleteSession(sessionID string) {
	s.sessions.Delete(sessionID)
	log.Info().Str("session_id", sessionID).Msg("Session deleted")
}

func (s *sessionService) ExtendSession(ctx context.Context, sessionID string, req dto.ExtendSessionRequest) (*dto.SessionResponse, error) {
	minutes := req.Minutes
	if minutes <= 0 {
		minutes = s.cfg.Session.DefaultTTLMinutes
	}
	sess, err := s.sessions.WithLock(ctx, sessionID, func(sess *model.Session) error {
		sess.TTL = time.Duration(minutes) * time.Minute
		sess.ExpiresAt = time.Now().Add(sess.TTL)
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := toSessionResponse(sess)
	return &resp, nil
}

func (s *sessionService) AddParticipant(ctx context.Context, sessionID string, req dto.AddParticipantRequest) (*dto.SessionResponse, error) {
	sess, err := s.sessions.WithLock(ctx, sessionID, func(sess *model.Session) error {
		if sess.Mode != model.ModeMultiplayer {
			return fmt.Errorf("%w: participants can only join multiplayer sessions", ErrInvalidConfig)
		}
		if sess.Phase == model.PhaseFinished {
			return fmt.Errorf("%w: session is finished", ErrInvalidPhase)
		}
		sess.Participants = append(sess.Participants, model.Participant{
			ParticipantID: model.NewParticipantID(),
			UserID:        req.UserID,
			DisplayName:   req.DisplayName,
			JoinedAt:      time.Now(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := toSessionResponse(sess)
	return &resp, nil
}

func (s *sessionService) RemoveParticipant(ctx context.Context, sessionID, participantID string) (*dto.SessionResponse, error) {
	sess, err := s.sessions.WithLock(ctx, sessionID, func(sess *model.Session) error {
		for i := range sess.Participants {
			if sess.Participants[i].ParticipantID != participantID {
				continue
			}
			if sess.Participants[i].IsHost {
				return fmt.Errorf("%w: the host cannot leave the session", ErrInvalidConfig)
			}
			sess.Participants = append(sess.Participants[:i], sess.Participants[i+1:]...)
			return nil
		}
		return ErrParticipantNotFound
	})
	if err != nil {
		return nil, err
	}
	resp := toSessionResponse(sess)
	return &resp, nil
}

// advance moves the session to its next question, or into the finished phase
// when the quota is met or the corpus is exhausted. Must run under the
// session's mutation permit.
func (s *sessionService) advance(sess *model.Session) error {
	if sess.AnsweredCount >= sess.MaxQuestions {
		sess.Phase = model.PhaseFinished
		sess.CurrentQuestion = nil
		return nil
	}

	exclude := append([]string(nil), sess.AskedQuestionIDs...)
	if id := sess.CurrentQuestionID(); id != "" {
		exclude = appendUnique(exclude, id)
	}

	question, err := s.questionRepo.Next(repository.NextQuestionQuery{
		ExcludeIDs:      exclude,
		Difficulty:      sess.Difficulty,
		PreferredTopics: sess.PreferredTopics,
		ExcludedTopics:  sess.ExcludedTopics,
		Category:        sess.Category,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNoQuestion) {
			log.Info().Str("session_id", sess.ID).Msg("Question corpus exhausted, finishing session early")
			sess.Phase = model.PhaseFinished
			sess.CurrentQuestion = nil
			return nil
		}
		return err
	}

	sess.CurrentQuestion = question
	sess.Phase = model.PhaseAsking
	if err := s.questionRepo.IncrementUsage(question.ID); err != nil {
		log.Warn().Err(err).Str("question_id", question.ID).Msg("Failed to bump usage count")
	}
	return nil
}

// recordAnswer applies one evaluation to the scorer's tally and retires the
// current question into the exclusion list.
func (s *sessionService) recordAnswer(sess *model.Session, participantID *string, result *model.EvaluationResult) {
	scorer := sess.Host()
	if participantID != nil {
		if p := sess.Participant(*participantID); p != nil {
			scorer = p
		}
	}
	if scorer != nil {
		scorer.Score += result.Points
		scorer.AnsweredCount++
		if result.Kind == model.ResultCorrect {
			scorer.CorrectCount++
		}
		answer := result.UserAnswer
		scorer.LastAnswer = &answer
		scorer.LastResult = result.Kind
	}

	sess.AnsweredCount++
	sess.AskedQuestionIDs = appendUnique(sess.AskedQuestionIDs, sess.CurrentQuestion.ID)
	sess.LastEvaluation = result
	sess.CurrentQuestion = nil
}

func (s *sessionService) saveRating(sess *model.Session, questionID string, rating int, feedbackText string, participantID *string) {
	userID := "anonymous"
	if participantID != nil {
		if p := sess.Participant(*participantID); p != nil && p.UserID != nil {
			userID = *p.UserID
		} else {
			userID = *participantID
		}
	} else if sess.UserID != nil {
		userID = *sess.UserID
	}

	r := &model.Rating{QuestionID: questionID, UserID: userID, Rating: rating}
	if feedbackText != "" {
		r.FeedbackText = &feedbackText
	}
	if err := s.ratingRepo.Create(r); err != nil {
		log.Error().Err(err).Str("question_id", questionID).Msg("Failed to save rating")
	}
}

func (s *sessionService) buildInputResponse(sess *model.Session, message string, evaluation *model.EvaluationResult, feedback []string) *dto.InputResponse {
	resp := &dto.InputResponse{
		Success:          true,
		Message:          strings.TrimSpace(message),
		Session:          toSessionResponse(sess),
		CurrentQuestion:  toQuestionResponse(sess.CurrentQuestion),
		FeedbackReceived: feedback,
	}
	if feedback == nil {
		resp.FeedbackReceived = []string{}
	}
	if evaluation != nil {
		resp.Evaluation = &dto.EvaluationResponse{
			UserAnswer:    evaluation.UserAnswer,
			Result:        string(evaluation.Kind),
			Points:        evaluation.Points,
			CorrectAnswer: evaluation.CorrectAnswer,
			Rationale:     evaluation.Rationale,
		}
	}
	return resp
}

// localize rewrites the spoken feedback and question text into the session's
// language, before synthesis so the audio matches. Best effort: a failed
// translation keeps the English text.
func (s *sessionService) localize(ctx context.Context, resp *dto.InputResponse, sess *model.Session) {
	if sess.Language == "" || sess.Language == "en" || s.translator == nil {
		return
	}
	if resp.Message != "" {
		if translated, err := s.translator.Translate(ctx, resp.Message, sess.Language); err == nil {
			resp.Message = translated
		} else {
			log.Warn().Err(err).Str("language", sess.Language).Msg("Feedback translation failed, keeping original text")
		}
	}
	if resp.CurrentQuestion != nil && resp.CurrentQuestion.QuestionText != "" {
		if translated, err := s.translator.Translate(ctx, resp.CurrentQuestion.QuestionText, sess.Language); err == nil {
			resp.CurrentQuestion.QuestionText = translated
		} else {
			log.Warn().Err(err).Str("language", sess.Language).Msg("Question translation failed, keeping original text")
		}
	}
}

// attachAudio synthesizes the spoken feedback and question, strictly best
// effort and strictly outside the session's critical section.
func (s *sessionService) attachAudio(ctx context.Context, resp *dto.InputResponse, sess *model.Session) {
	payload := &dto.AudioPayload{Format: "opus"}

	if resp.Message != "" {
		if audio, err := s.synthesizer.Synthesize(ctx, resp.Message, sess.Language); err == nil {
			payload.FeedbackAudioB64 = base64.StdEncoding.EncodeToString(audio)
		}
	}
	if resp.CurrentQuestion != nil {
		if audio, err := s.synthesizer.Synthesize(ctx, resp.CurrentQuestion.QuestionText, sess.Language); err == nil {
			payload.QuestionAudioB64 = base64.StdEncoding.EncodeToString(audio)
		}
	}

	if payload.FeedbackAudioB64 != "" || payload.QuestionAudioB64 != "" {
		resp.Audio = payload
	}
}

func toSessionResponse(sess *model.Session) dto.SessionResponse {
	participants := make([]dto.ParticipantResponse, 0, len(sess.Participants))
	for i := range sess.Participants {
		var p dto.ParticipantResponse
		if err := copier.Copy(&p, &sess.Participants[i]); err != nil {
			log.Error().Err(err).Msg("Failed to map participant")
		}
		participants = append(participants, p)
	}
	return dto.SessionResponse{
		SessionID:     sess.ID,
		Mode:          sess.Mode,
		Phase:         string(sess.Phase),
		MaxQuestions:  sess.MaxQuestions,
		AnsweredCount: sess.AnsweredCount,
		Difficulty:    string(sess.Difficulty),
		Language:      sess.Language,
		Category:      sess.Category,
		Participants:  participants,
		CreatedAt:     sess.CreatedAt,
		ExpiresAt:     sess.ExpiresAt,
	}
}

func toQuestionResponse(q *model.Question) *dto.QuestionResponse {
	if q == nil {
		return nil
	}
	var resp dto.QuestionResponse
	if err := copier.Copy(&resp, q); err != nil {
		log.Error().Err(err).Msg("Failed to map question")
	}
	resp.Difficulty = string(q.Difficulty)
	return &resp
}

func feedbackSentence(result *model.EvaluationResult) string {
	switch result.Kind {
	case model.ResultCorrect:
		return "Correct!"
	case model.ResultPartiallyCorrect:
		return fmt.Sprintf("Partially correct. The full answer is %s.", result.CorrectAnswer)
	case model.ResultPartiallyIncorrect:
		return fmt.Sprintf("Not quite. The correct answer is %s.", result.CorrectAnswer)
	case model.ResultSkipped:
		return fmt.Sprintf("Question skipped. The answer was %s.", result.CorrectAnswer)
	default:
		return fmt.Sprintf("Incorrect. The correct answer is %s.", result.CorrectAnswer)
	}
}

func summarySentence(sess *model.Session) string {
	host := sess.Host()
	if host == nil {
		return "Quiz finished."
	}
	return fmt.Sprintf("Quiz finished! Final score: %.2f points, %d of %d correct.",
		host.Score, host.CorrectCount, host.AnsweredCount)
}

func confirmationOr(intent model.Intent, fallback string) string {
	if intent.Confirmation != "" {
		return intent.Confirmation
	}
	return fallback
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

func removeString(list []string, v string) []string {
	out := list[:0]
	for _, existing := range list {
		if existing != v {
			out = append(out, existing)
		}
	}
	return out
}

func valueOr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
