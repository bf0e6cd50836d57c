package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"

	"github.com/lshigami/voicequiz/config"
	"github.com/lshigami/voicequiz/internal/dto"
	"github.com/lshigami/voicequiz/internal/model"
	"github.com/lshigami/voicequiz/internal/repository"
)

// GeneratorService produces candidate questions with Gemini and stores them
// as pending so a reviewer approves them before they can be served.
type GeneratorService interface {
	GenerateQuestions(ctx context.Context, req dto.GenerateQuestionsRequest) ([]model.Question, error)
}

type generatorService struct {
	client       *genai.GenerativeModel
	questionRepo repository.QuestionRepository
}

func NewGeneratorService(cfg *config.Config, questionRepo repository.QuestionRepository) (GeneratorService, error) {
	if cfg.GeminiApiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set. Question generation will be non-functional.")
		return &generatorService{client: nil, questionRepo: questionRepo}, nil
	}
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiApiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	m := client.GenerativeModel("gemini-1.5-flash")
	m.ResponseMIMEType = "application/json"
	temp := float32(0.9)
	m.Temperature = &temp
	return &generatorService{client: m, questionRepo: questionRepo}, nil
}

type generatedQuestion struct {
	Question           string   `json:"question"`
	CorrectAnswer      string   `json:"correct_answer"`
	AlternativeAnswers []string `json:"alternative_answers"`
	Explanation        string   `json:"explanation"`
}

func (s *generatorService) GenerateQuestions(ctx context.Context, req dto.GenerateQuestionsRequest) ([]model.Question, error) {
	if s.client == nil {
		return nil, fmt.Errorf("gemini client not initialized")
	}

	prompt := fmt.Sprintf(`Generate %d trivia quiz questions about "%s" (category: %s, difficulty: %s).

Each question must have a short factual answer that can be spoken aloud.
Include common alternative phrasings of the answer where they exist.

Respond with a JSON array, each element:
{
  "question": "...",
  "correct_answer": "...",
  "alternative_answers": ["..."],
  "explanation": "one sentence of context"
}`, req.Count, req.Topic, req.Category, req.Difficulty)

	resp, err := s.client.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		log.Error().Err(err).Msg("Gemini API error during question generation")
		return nil, fmt.Errorf("question generation failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini returned no content")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}

	candidates, err := decodeGeneratedQuestions(sb.String())
	if err != nil {
		return nil, err
	}

	questions := make([]model.Question, 0, len(candidates))
	for _, c := range candidates {
		if strings.TrimSpace(c.Question) == "" || strings.TrimSpace(c.CorrectAnswer) == "" {
			continue
		}
		explanation := strings.TrimSpace(c.Explanation)
		q := model.Question{
			ID:                 model.NewQuestionID(),
			QuestionText:       strings.TrimSpace(c.Question),
			Type:               model.QuestionTypeText,
			CorrectAnswer:      strings.TrimSpace(c.CorrectAnswer),
			AlternativeAnswers: c.AlternativeAnswers,
			Topic:              req.Topic,
			Category:           req.Category,
			Difficulty:         model.Difficulty(req.Difficulty),
			ReviewStatus:       model.ReviewStatusPending,
			Source:             "generated",
		}
		if explanation != "" {
			q.Explanation = &explanation
		}
		if err := s.questionRepo.Create(&q); err != nil {
			log.Error().Err(err).Str("question_id", q.ID).Msg("Failed to save generated question")
			continue
		}
		questions = append(questions, q)
	}

	log.Info().Int("requested", req.Count).Int("saved", len(questions)).
		Str("topic", req.Topic).Msg("Question generation completed")
	return questions, nil
}

// decodeGeneratedQuestions tolerates prose around the JSON array by slicing
// between the outermost brackets before unmarshalling.
func decodeGeneratedQuestions(raw string) ([]generatedQuestion, error) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON array in generation output")
	}
	var out []generatedQuestion
	if err := json.Unmarshal([]byte(raw[start:end+1]), &out); err != nil {
		return nil, fmt.Errorf("failed to parse generated questions: %w", err)
	}
	return out, nil
}
