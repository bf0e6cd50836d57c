package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/lshigami/voicequiz/config"
	"github.com/lshigami/voicequiz/internal/dto"
	"github.com/lshigami/voicequiz/internal/model"
	"github.com/lshigami/voicequiz/internal/repository"
	"github.com/lshigami/voicequiz/internal/store"
)

type fakeQuestionRepo struct {
	mu         sync.Mutex
	questions  []model.Question
	usageCount map[string]int
}

func newFakeQuestionRepo(questions []model.Question) *fakeQuestionRepo {
	return &fakeQuestionRepo{questions: questions, usageCount: make(map[string]int)}
}

func (r *fakeQuestionRepo) Create(q *model.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.questions = append(r.questions, *q)
	return nil
}

func (r *fakeQuestionRepo) FindByID(id string) (*model.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.questions {
		if r.questions[i].ID == id {
			q := r.questions[i]
			return &q, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeQuestionRepo) FindAll(reviewStatus string) ([]model.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Question
	for _, q := range r.questions {
		if reviewStatus == "" || q.ReviewStatus == reviewStatus {
			out = append(out, q)
		}
	}
	return out, nil
}

func (r *fakeQuestionRepo) Update(q *model.Question) error { return nil }
func (r *fakeQuestionRepo) Delete(id string) error         { return nil }

func (r *fakeQuestionRepo) SetReviewStatus(id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.questions {
		if r.questions[i].ID == id {
			r.questions[i].ReviewStatus = status
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeQuestionRepo) IncrementUsage(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.usageCount[id]++
	return nil
}

func (r *fakeQuestionRepo) Count() (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, q := range r.questions {
		if q.ReviewStatus == model.ReviewStatusApproved {
			n++
		}
	}
	return n, nil
}

func (r *fakeQuestionRepo) Next(query repository.NextQuestionQuery) (*model.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	excluded := make(map[string]bool, len(query.ExcludeIDs))
	for _, id := range query.ExcludeIDs {
		excluded[id] = true
	}
	avoided := make(map[string]bool, len(query.ExcludedTopics))
	for _, topic := range query.ExcludedTopics {
		avoided[topic] = true
	}
	for i := range r.questions {
		q := r.questions[i]
		if q.ReviewStatus != model.ReviewStatusApproved || excluded[q.ID] || avoided[q.Topic] {
			continue
		}
		return &q, nil
	}
	return nil, repository.ErrNoQuestion
}

type fakeRatingRepo struct {
	mu      sync.Mutex
	ratings []model.Rating
}

func (r *fakeRatingRepo) Create(rating *model.Rating) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ratings = append(r.ratings, *rating)
	return nil
}

func (r *fakeRatingRepo) FindByQuestionID(questionID string) ([]model.Rating, error) {
	return nil, nil
}

func (r *fakeRatingRepo) AverageForQuestion(questionID string) (float64, error) { return 0, nil }

type fakeTranscriber struct {
	text string
	err  error
}

func (f *fakeTranscriber) TranscribeAnswer(ctx context.Context, audio io.Reader, filename, language, questionHint string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

type fakeSynthesizer struct {
	audio []byte
	err   error
}

func (f *fakeSynthesizer) Synthesize(ctx context.Context, text, language string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.audio, nil
}

type fakeTranslator struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (f *fakeTranslator) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return "[" + targetLanguage + "] " + text, nil
}

func corpus(n int) []model.Question {
	questions := make([]model.Question, 0, n)
	for i := 0; i < n; i++ {
		questions = append(questions, model.Question{
			ID:            fmt.Sprintf("q_%d", i+1),
			QuestionText:  fmt.Sprintf("Question number %d?", i+1),
			Type:          model.QuestionTypeText,
			CorrectAnswer: "Paris",
			Topic:         "geography",
			Category:      "general",
			Difficulty:    model.DifficultyMedium,
			ReviewStatus:  model.ReviewStatusApproved,
		})
	}
	return questions
}

type testHarness struct {
	svc          SessionService
	questionRepo *fakeQuestionRepo
	ratingRepo   *fakeRatingRepo
	synth        *fakeSynthesizer
	transcriber  *fakeTranscriber
	translator   *fakeTranslator
	judge        *fakeJudge
}

func newHarness(questions []model.Question) *testHarness {
	cfg := &config.Config{Session: config.Session{DefaultTTLMinutes: 30}}
	questionRepo := newFakeQuestionRepo(questions)
	ratingRepo := &fakeRatingRepo{}
	judge := &fakeJudge{kind: model.ResultIncorrect}
	synth := &fakeSynthesizer{err: errors.New("not configured")}
	transcriber := &fakeTranscriber{text: "Paris"}
	translator := &fakeTranslator{}

	svc := NewSessionService(
		cfg,
		store.NewMemoryStore(store.Options{}),
		questionRepo,
		ratingRepo,
		NewIntentService(&fakeClassifier{err: errors.New("offline")}, 0),
		NewEvaluatorService(judge, 0),
		transcriber,
		synth,
		translator,
	)
	return &testHarness{
		svc:          svc,
		questionRepo: questionRepo,
		ratingRepo:   ratingRepo,
		synth:        synth,
		transcriber:  transcriber,
		translator:   translator,
		judge:        judge,
	}
}

func (h *testHarness) startedSession(t *testing.T, maxQuestions int) string {
	t.Helper()
	created, err := h.svc.CreateSession(context.Background(), dto.CreateSessionRequest{MaxQuestions: maxQuestions})
	require.NoError(t, err)
	_, err = h.svc.Start(context.Background(), created.SessionID, dto.StartSessionRequest{})
	require.NoError(t, err)
	return created.SessionID
}

func TestCreateSessionValidation(t *testing.T) {
	h := newHarness(corpus(3))

	_, err := h.svc.CreateSession(context.Background(), dto.CreateSessionRequest{MaxQuestions: 0})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = h.svc.CreateSession(context.Background(), dto.CreateSessionRequest{MaxQuestions: 51})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = h.svc.CreateSession(context.Background(), dto.CreateSessionRequest{MaxQuestions: 5, Difficulty: "impossible"})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestCreateSessionEmptyCorpus(t *testing.T) {
	h := newHarness(nil)
	_, err := h.svc.CreateSession(context.Background(), dto.CreateSessionRequest{MaxQuestions: 5})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestStartPresentsFirstQuestion(t *testing.T) {
	h := newHarness(corpus(3))
	created, err := h.svc.CreateSession(context.Background(), dto.CreateSessionRequest{MaxQuestions: 3})
	require.NoError(t, err)
	assert.Equal(t, string(model.PhaseIdle), created.Phase)

	resp, err := h.svc.Start(context.Background(), created.SessionID, dto.StartSessionRequest{})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, string(model.PhaseAsking), resp.Session.Phase)
	require.NotNil(t, resp.CurrentQuestion)
	assert.Equal(t, "q_1", resp.CurrentQuestion.ID)
	assert.Equal(t, 1, h.questionRepo.usageCount["q_1"])
}

func TestStartTwiceRejected(t *testing.T) {
	h := newHarness(corpus(3))
	id := h.startedSession(t, 3)

	_, err := h.svc.Start(context.Background(), id, dto.StartSessionRequest{})
	assert.ErrorIs(t, err, ErrInvalidPhase)
}

func TestStartHonorsClientExclusions(t *testing.T) {
	h := newHarness(corpus(3))
	created, err := h.svc.CreateSession(context.Background(), dto.CreateSessionRequest{MaxQuestions: 3})
	require.NoError(t, err)

	resp, err := h.svc.Start(context.Background(), created.SessionID, dto.StartSessionRequest{
		ExcludedQuestionIDs: []string{"q_1", "q_2"},
	})
	require.NoError(t, err)
	require.NotNil(t, resp.CurrentQuestion)
	assert.Equal(t, "q_3", resp.CurrentQuestion.ID)
}

func TestStartUnknownSession(t *testing.T) {
	h := newHarness(corpus(3))
	_, err := h.svc.Start(context.Background(), "sess_nope", dto.StartSessionRequest{})
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
}

func TestSubmitCorrectAnswer(t *testing.T) {
	h := newHarness(corpus(3))
	id := h.startedSession(t, 3)

	resp, err := h.svc.SubmitInput(context.Background(), id, dto.SubmitInputRequest{Input: "Paris"})
	require.NoError(t, err)
	require.NotNil(t, resp.Evaluation)
	assert.Equal(t, string(model.ResultCorrect), resp.Evaluation.Result)
	assert.Equal(t, 1.0, resp.Evaluation.Points)
	assert.Contains(t, resp.Message, "Correct!")

	assert.Equal(t, 1, resp.Session.AnsweredCount)
	require.Len(t, resp.Session.Participants, 1)
	assert.Equal(t, 1.0, resp.Session.Participants[0].Score)
	assert.Equal(t, 1, resp.Session.Participants[0].CorrectCount)

	require.NotNil(t, resp.CurrentQuestion)
	assert.Equal(t, "q_2", resp.CurrentQuestion.ID, "the answered question must not be served again")
}

func TestSubmitWrongAnswer(t *testing.T) {
	h := newHarness(corpus(3))
	id := h.startedSession(t, 3)

	resp, err := h.svc.SubmitInput(context.Background(), id, dto.SubmitInputRequest{Input: "London"})
	require.NoError(t, err)
	require.NotNil(t, resp.Evaluation)
	assert.Equal(t, string(model.ResultIncorrect), resp.Evaluation.Result)
	assert.Zero(t, resp.Evaluation.Points)
	assert.Contains(t, resp.Message, "Paris")
	assert.Zero(t, resp.Session.Participants[0].Score)
}

func TestSubmitSkip(t *testing.T) {
	h := newHarness(corpus(3))
	id := h.startedSession(t, 3)

	resp, err := h.svc.SubmitInput(context.Background(), id, dto.SubmitInputRequest{Input: "skip"})
	require.NoError(t, err)
	require.NotNil(t, resp.Evaluation)
	assert.Equal(t, string(model.ResultSkipped), resp.Evaluation.Result)
	assert.Zero(t, resp.Evaluation.Points)
	assert.Equal(t, 1, resp.Session.AnsweredCount, "a skip consumes the question")
	require.NotNil(t, resp.CurrentQuestion)
	assert.Equal(t, "q_2", resp.CurrentQuestion.ID)
}

func TestSubmitQuit(t *testing.T) {
	h := newHarness(corpus(3))
	id := h.startedSession(t, 3)

	resp, err := h.svc.SubmitInput(context.Background(), id, dto.SubmitInputRequest{Input: "quit"})
	require.NoError(t, err)
	assert.Equal(t, string(model.PhaseFinished), resp.Session.Phase)
	assert.Nil(t, resp.CurrentQuestion)
	assert.Contains(t, resp.Message, "Quiz finished")
}

func TestSubmitDifficultyCommandKeepsQuestion(t *testing.T) {
	h := newHarness(corpus(3))
	id := h.startedSession(t, 3)

	resp, err := h.svc.SubmitInput(context.Background(), id, dto.SubmitInputRequest{Input: "harder"})
	require.NoError(t, err)
	assert.Equal(t, string(model.DifficultyHard), resp.Session.Difficulty)
	assert.Zero(t, resp.Session.AnsweredCount)
	require.NotNil(t, resp.CurrentQuestion)
	assert.Equal(t, "q_1", resp.CurrentQuestion.ID, "a pure preference change must not advance the quiz")
	assert.NotEmpty(t, resp.FeedbackReceived)

	// Clamped at the top of the scale.
	resp, err = h.svc.SubmitInput(context.Background(), id, dto.SubmitInputRequest{Input: "harder"})
	require.NoError(t, err)
	assert.Equal(t, string(model.DifficultyHard), resp.Session.Difficulty)
}

func TestQuotaFinishesQuiz(t *testing.T) {
	h := newHarness(corpus(3))
	id := h.startedSession(t, 1)

	resp, err := h.svc.SubmitInput(context.Background(), id, dto.SubmitInputRequest{Input: "Paris"})
	require.NoError(t, err)
	assert.Equal(t, string(model.PhaseFinished), resp.Session.Phase)
	assert.Nil(t, resp.CurrentQuestion)
	assert.Contains(t, resp.Message, "Final score")

	_, err = h.svc.SubmitInput(context.Background(), id, dto.SubmitInputRequest{Input: "Paris"})
	assert.ErrorIs(t, err, ErrInvalidPhase)
}

func TestCorpusExhaustionFinishesEarly(t *testing.T) {
	h := newHarness(corpus(2))
	id := h.startedSession(t, 10)

	resp, err := h.svc.SubmitInput(context.Background(), id, dto.SubmitInputRequest{Input: "Paris"})
	require.NoError(t, err)
	require.NotNil(t, resp.CurrentQuestion)

	resp, err = h.svc.SubmitInput(context.Background(), id, dto.SubmitInputRequest{Input: "Paris"})
	require.NoError(t, err)
	assert.Equal(t, string(model.PhaseFinished), resp.Session.Phase)
	assert.Nil(t, resp.CurrentQuestion)
	assert.Equal(t, 2, resp.Session.AnsweredCount)
}

func TestNoQuestionRepeatsAcrossFullRun(t *testing.T) {
	h := newHarness(corpus(5))
	id := h.startedSession(t, 5)

	seen := map[string]bool{"q_1": true}
	for i := 0; i < 4; i++ {
		resp, err := h.svc.SubmitInput(context.Background(), id, dto.SubmitInputRequest{Input: "Paris"})
		require.NoError(t, err)
		if resp.CurrentQuestion == nil {
			break
		}
		assert.False(t, seen[resp.CurrentQuestion.ID], "question %s repeated", resp.CurrentQuestion.ID)
		seen[resp.CurrentQuestion.ID] = true
	}
}

func TestTopicAvoidanceAffectsSelection(t *testing.T) {
	questions := corpus(2)
	questions[1].Topic = "science"
	questions = append(questions, model.Question{
		ID: "q_sci", QuestionText: "Another science one?", Type: model.QuestionTypeText,
		CorrectAnswer: "Paris", Topic: "science", Category: "general",
		Difficulty: model.DifficultyMedium, ReviewStatus: model.ReviewStatusApproved,
	})
	h := newHarness(questions)
	id := h.startedSession(t, 3)

	classifier := &fakeClassifier{response: `{"intents": [
		{"intent_type": "answer", "answer": "Paris"},
		{"intent_type": "preference_change", "avoid_topics": ["science"], "confirmation_message": "Avoiding science."}
	]}`}
	svc := h.svc.(*sessionService)
	svc.parser = NewIntentService(classifier, 0)

	resp, err := h.svc.SubmitInput(context.Background(), id, dto.SubmitInputRequest{Input: "Paris, and skip the science stuff"})
	require.NoError(t, err)
	assert.Contains(t, resp.FeedbackReceived, "Avoiding science.")
	assert.Equal(t, string(model.PhaseFinished), resp.Session.Phase, "only avoided topics remain, so the quiz ends early")
}

func TestSubmitVoiceGuards(t *testing.T) {
	h := newHarness(corpus(3))
	id := h.startedSession(t, 3)

	_, err := h.svc.SubmitVoice(context.Background(), id, strings.NewReader(""), "answer.wav", MaxAudioBytes+1, nil)
	assert.ErrorIs(t, err, ErrAudioTooLarge)

	_, err = h.svc.SubmitVoice(context.Background(), id, strings.NewReader(""), "answer.txt", 100, nil)
	assert.ErrorIs(t, err, ErrUnsupportedAudio)

	h.transcriber.err = fmt.Errorf("%w: provider down", ErrTranscriptionFailed)
	_, err = h.svc.SubmitVoice(context.Background(), id, strings.NewReader("audio"), "answer.wav", 100, nil)
	assert.ErrorIs(t, err, ErrTranscriptionFailed)
}

func TestSubmitVoiceHappyPath(t *testing.T) {
	h := newHarness(corpus(3))
	id := h.startedSession(t, 3)

	resp, err := h.svc.SubmitVoice(context.Background(), id, strings.NewReader("audio"), "answer.wav", 100, nil)
	require.NoError(t, err)
	require.NotNil(t, resp.Evaluation)
	assert.Equal(t, string(model.ResultCorrect), resp.Evaluation.Result)
	assert.Equal(t, "Paris", resp.Evaluation.UserAnswer)
}

func TestRateQuestion(t *testing.T) {
	h := newHarness(corpus(3))
	created, err := h.svc.CreateSession(context.Background(), dto.CreateSessionRequest{MaxQuestions: 3})
	require.NoError(t, err)

	err = h.svc.RateQuestion(context.Background(), created.SessionID, dto.RateQuestionRequest{Rating: 4})
	assert.ErrorIs(t, err, ErrNoQuestionToRate)

	_, err = h.svc.Start(context.Background(), created.SessionID, dto.StartSessionRequest{})
	require.NoError(t, err)

	feedback := "nice one"
	err = h.svc.RateQuestion(context.Background(), created.SessionID, dto.RateQuestionRequest{Rating: 4, FeedbackText: &feedback})
	require.NoError(t, err)
	require.Len(t, h.ratingRepo.ratings, 1)
	assert.Equal(t, "q_1", h.ratingRepo.ratings[0].QuestionID)
	assert.Equal(t, 4, h.ratingRepo.ratings[0].Rating)
	require.NotNil(t, h.ratingRepo.ratings[0].FeedbackText)
	assert.Equal(t, feedback, *h.ratingRepo.ratings[0].FeedbackText)
}

func TestEndSessionKeepsScoreboardReadable(t *testing.T) {
	h := newHarness(corpus(3))
	id := h.startedSession(t, 3)

	resp, err := h.svc.EndSession(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, string(model.PhaseFinished), resp.Phase)

	fetched, err := h.svc.GetSession(id)
	require.NoError(t, err)
	assert.Equal(t, string(model.PhaseFinished), fetched.Phase)
}

func TestParticipants(t *testing.T) {
	h := newHarness(corpus(5))

	single, err := h.svc.CreateSession(context.Background(), dto.CreateSessionRequest{MaxQuestions: 5})
	require.NoError(t, err)
	_, err = h.svc.AddParticipant(context.Background(), single.SessionID, dto.AddParticipantRequest{DisplayName: "Ada"})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	multi, err := h.svc.CreateSession(context.Background(), dto.CreateSessionRequest{MaxQuestions: 5, Mode: model.ModeMultiplayer})
	require.NoError(t, err)
	withAda, err := h.svc.AddParticipant(context.Background(), multi.SessionID, dto.AddParticipantRequest{DisplayName: "Ada"})
	require.NoError(t, err)
	require.Len(t, withAda.Participants, 2)
	adaID := withAda.Participants[1].ParticipantID

	_, err = h.svc.Start(context.Background(), multi.SessionID, dto.StartSessionRequest{})
	require.NoError(t, err)

	// Ada answers and only Ada scores.
	resp, err := h.svc.SubmitInput(context.Background(), multi.SessionID, dto.SubmitInputRequest{Input: "Paris", ParticipantID: &adaID})
	require.NoError(t, err)
	assert.Zero(t, resp.Session.Participants[0].Score)
	assert.Equal(t, 1.0, resp.Session.Participants[1].Score)

	// The host cannot be removed, Ada can.
	hostID := withAda.Participants[0].ParticipantID
	_, err = h.svc.RemoveParticipant(context.Background(), multi.SessionID, hostID)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = h.svc.RemoveParticipant(context.Background(), multi.SessionID, "p_unknown")
	assert.ErrorIs(t, err, ErrParticipantNotFound)
	after, err := h.svc.RemoveParticipant(context.Background(), multi.SessionID, adaID)
	require.NoError(t, err)
	assert.Len(t, after.Participants, 1)
}

func TestDeleteSessionIsIdempotent(t *testing.T) {
	h := newHarness(corpus(3))
	id := h.startedSession(t, 3)

	h.svc.DeleteSession(id)
	_, err := h.svc.GetSession(id)
	assert.ErrorIs(t, err, store.ErrSessionNotFound)

	// Deleting again, or deleting an unknown id, is a no-op.
	h.svc.DeleteSession(id)
	h.svc.DeleteSession("sess_never_existed")
}

func TestExtendSession(t *testing.T) {
	h := newHarness(corpus(3))
	created, err := h.svc.CreateSession(context.Background(), dto.CreateSessionRequest{MaxQuestions: 3, TTLMinutes: 5})
	require.NoError(t, err)

	extended, err := h.svc.ExtendSession(context.Background(), created.SessionID, dto.ExtendSessionRequest{Minutes: 60})
	require.NoError(t, err)
	assert.True(t, extended.ExpiresAt.After(created.ExpiresAt))
}

func TestAudioAttachedWhenSynthesisWorks(t *testing.T) {
	h := newHarness(corpus(3))
	h.synth.err = nil
	h.synth.audio = []byte("opus-bytes")
	id := h.startedSession(t, 3)

	resp, err := h.svc.SubmitInput(context.Background(), id, dto.SubmitInputRequest{Input: "Paris"})
	require.NoError(t, err)
	require.NotNil(t, resp.Audio)
	assert.Equal(t, "opus", resp.Audio.Format)
	assert.NotEmpty(t, resp.Audio.FeedbackAudioB64)
	assert.NotEmpty(t, resp.Audio.QuestionAudioB64)
}

func TestNoAudioWhenSynthesisFails(t *testing.T) {
	h := newHarness(corpus(3))
	id := h.startedSession(t, 3)

	resp, err := h.svc.SubmitInput(context.Background(), id, dto.SubmitInputRequest{Input: "Paris"})
	require.NoError(t, err)
	assert.Nil(t, resp.Audio)
}

func TestPhaseStaysAskingWhileQuestionsRemain(t *testing.T) {
	h := newHarness(corpus(3))
	id := h.startedSession(t, 3)

	resp, err := h.svc.SubmitInput(context.Background(), id, dto.SubmitInputRequest{Input: "Paris"})
	require.NoError(t, err)
	assert.Equal(t, string(model.PhaseAsking), resp.Session.Phase)

	snapshot, err := h.svc.GetSession(id)
	require.NoError(t, err)
	assert.Equal(t, string(model.PhaseAsking), snapshot.Phase)
}

func TestSubmitAcceptedInAwaitingAnswerPhase(t *testing.T) {
	h := newHarness(corpus(3))
	id := h.startedSession(t, 3)

	// Some clients echo the legacy phase name back on reconnect.
	_, err := h.svc.(*sessionService).sessions.WithLock(context.Background(), id, func(sess *model.Session) error {
		sess.Phase = model.PhaseAwaitingAnswer
		return nil
	})
	require.NoError(t, err)

	resp, err := h.svc.SubmitInput(context.Background(), id, dto.SubmitInputRequest{Input: "Paris"})
	require.NoError(t, err)
	require.NotNil(t, resp.Evaluation)
	assert.Equal(t, string(model.PhaseAsking), resp.Session.Phase)
}

func TestResponsesTranslatedForNonEnglishSession(t *testing.T) {
	h := newHarness(corpus(3))
	created, err := h.svc.CreateSession(context.Background(), dto.CreateSessionRequest{MaxQuestions: 3, Language: "sk"})
	require.NoError(t, err)

	resp, err := h.svc.Start(context.Background(), created.SessionID, dto.StartSessionRequest{})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(resp.Message, "[sk] "), "feedback must be translated: %q", resp.Message)
	require.NotNil(t, resp.CurrentQuestion)
	assert.True(t, strings.HasPrefix(resp.CurrentQuestion.QuestionText, "[sk] "), "question must be translated: %q", resp.CurrentQuestion.QuestionText)
}

func TestTranslationFailureKeepsOriginalText(t *testing.T) {
	h := newHarness(corpus(3))
	h.translator.err = errors.New("provider down")
	created, err := h.svc.CreateSession(context.Background(), dto.CreateSessionRequest{MaxQuestions: 3, Language: "sk"})
	require.NoError(t, err)

	resp, err := h.svc.Start(context.Background(), created.SessionID, dto.StartSessionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "Quiz started. Good luck!", resp.Message)
	require.NotNil(t, resp.CurrentQuestion)
	assert.Equal(t, "Question number 1?", resp.CurrentQuestion.QuestionText)
}

func TestEnglishSessionSkipsTranslation(t *testing.T) {
	h := newHarness(corpus(3))
	id := h.startedSession(t, 3)

	_, err := h.svc.SubmitInput(context.Background(), id, dto.SubmitInputRequest{Input: "Paris"})
	require.NoError(t, err)
	assert.Zero(t, h.translator.calls)
}

func TestConcurrentSubmitsSerialize(t *testing.T) {
	h := newHarness(corpus(10))
	id := h.startedSession(t, 10)

	const submits = 4
	var wg sync.WaitGroup
	for i := 0; i < submits; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := h.svc.SubmitInput(context.Background(), id, dto.SubmitInputRequest{Input: "Paris"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	sess, err := h.svc.GetSession(id)
	require.NoError(t, err)
	assert.Equal(t, submits, sess.AnsweredCount)
	assert.Equal(t, float64(submits), sess.Participants[0].Score)
}
