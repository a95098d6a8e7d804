package service

import (
	"context"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/naufalhakim/profile-builder/internal/config"
	"github.com/naufalhakim/profile-builder/internal/scoring"
	"github.com/tidwall/gjson"
	"google.golang.org/genai"
)

const maxQuestionsPerAssessment = 8

type QuestionServiceInterface interface {
	GenerateQuestions(ctx context.Context, skillName string, requiredLevel int, positionContext, employeeContext string) ([]scoring.Question, error)
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// QuestionService generates assessment questions and embeddings via Gemini,
// with retry, capped backoff and a coarse circuit breaker on consecutive
// failures.
type QuestionService struct {
	Client            *genai.Client
	MaxRetries        int
	BaseDelay         time.Duration
	MaxDelay          time.Duration
	RequestTimeout    time.Duration
	consecutiveErrors int
	circuitBreakerMax int
}

func NewQuestionService(ctx context.Context) (*QuestionService, error) {
	geminiConfig := config.LoadGeminiConfig()
	if geminiConfig.APIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  geminiConfig.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	return &QuestionService{
		Client:            client,
		MaxRetries:        3,
		BaseDelay:         time.Second,
		MaxDelay:          30 * time.Second,
		RequestTimeout:    90 * time.Second,
		circuitBreakerMax: 5,
	}, nil
}

func levelName(level int) string {
	switch level {
	case scoring.LevelAdvanced:
		return "advanced"
	case scoring.LevelIntermediate:
		return "intermediate"
	default:
		return "basic"
	}
}

// GenerateQuestions returns a bounded list of multiple-choice questions for
// one skill at one required level.
func (s *QuestionService) GenerateQuestions(ctx context.Context, skillName string, requiredLevel int, positionContext, employeeContext string) ([]scoring.Question, error) {
	if strings.TrimSpace(skillName) == "" {
		return nil, fmt.Errorf("skill name cannot be empty")
	}

	prompt := fmt.Sprintf(`
You are generating a skill verification quiz for an employee onboarding platform.

Skill: %s
Required proficiency: %s

Position context:
%s

Employee profile context:
%s

Generate exactly 5 multiple-choice questions verifying this skill at the
required proficiency. Return STRICTLY a JSON array with this schema:
[
  {
    "id": "<short unique id>",
    "prompt": "<question text>",
    "options": ["<option A>", "<option B>", "<option C>", "<option D>"],
    "correct_answer": <index 0-3 of the correct option>,
    "explanation": "<one sentence on why the answer is correct>",
    "difficulty": <1 easy, 2 medium, 3 hard>,
    "time_limit_sec": <reasonable seconds to answer, 30-120>,
    "weight": <scoring weight, 1.0-2.0, heavier for more diagnostic questions>
  }
]
`, skillName, levelName(requiredLevel), positionContext, employeeContext)

	text, err := s.generateText(ctx, prompt)
	if err != nil {
		return nil, err
	}

	questions := parseQuestions(text)
	if len(questions) == 0 {
		return nil, fmt.Errorf("no usable questions in model response")
	}
	if len(questions) > maxQuestionsPerAssessment {
		questions = questions[:maxQuestionsPerAssessment]
	}
	return questions, nil
}

// parseQuestions pulls the question array out of the model output, tolerating
// prose or fences around the JSON.
func parseQuestions(text string) []scoring.Question {
	arr := gjson.Get(text, "@this")
	if !arr.IsArray() {
		// The array may be embedded in surrounding text.
		start := strings.Index(text, "[")
		end := strings.LastIndex(text, "]")
		if start < 0 || end <= start {
			return nil
		}
		arr = gjson.Parse(text[start : end+1])
		if !arr.IsArray() {
			return nil
		}
	}

	var questions []scoring.Question
	arr.ForEach(func(_, item gjson.Result) bool {
		q := scoring.Question{
			ID:            item.Get("id").String(),
			Prompt:        item.Get("prompt").String(),
			CorrectAnswer: int(item.Get("correct_answer").Int()),
			Explanation:   item.Get("explanation").String(),
			Difficulty:    int(item.Get("difficulty").Int()),
			TimeLimitSec:  int(item.Get("time_limit_sec").Int()),
			Weight:        item.Get("weight").Float(),
		}
		for _, opt := range item.Get("options").Array() {
			q.Options = append(q.Options, opt.String())
		}
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		if q.Prompt == "" || len(q.Options) < 2 {
			return true // skip malformed entries
		}
		if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
			return true
		}
		questions = append(questions, q)
		return true
	})
	return questions
}

func (s *QuestionService) generateText(ctx context.Context, prompt string) (string, error) {
	if s.consecutiveErrors >= s.circuitBreakerMax {
		return "", fmt.Errorf("circuit breaker open: too many consecutive errors (%d)", s.consecutiveErrors)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.RequestTimeout)
	defer cancel()

	genConfig := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0.2)),
	}

	var lastErr error
	for attempt := 0; attempt <= s.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := s.calculateBackoff(attempt)
			log.Printf("Retry attempt %d/%d for GenerateQuestions after %v", attempt, s.MaxRetries, delay)
			select {
			case <-time.After(delay):
			case <-timeoutCtx.Done():
				return "", fmt.Errorf("context timeout during retry: %w", timeoutCtx.Err())
			}
		}

		result, err := s.Client.Models.GenerateContent(
			timeoutCtx,
			config.LoadGeminiConfig().QuestionModel,
			genai.Text(prompt),
			genConfig,
		)
		if err == nil {
			s.consecutiveErrors = 0
			if err := validateGenerateResponse(result); err != nil {
				return "", fmt.Errorf("invalid response: %w", err)
			}
			return result.Text(), nil
		}

		lastErr = err
		if !s.isRetryableError(err) {
			s.consecutiveErrors++
			return "", fmt.Errorf("generate questions failed: %w", err)
		}
		log.Printf("Retryable error on attempt %d: %v", attempt+1, err)
	}

	s.consecutiveErrors++
	return "", fmt.Errorf("max retries (%d) exceeded for GenerateQuestions: %w", s.MaxRetries, lastErr)
}

func (s *QuestionService) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	trimmedText := strings.TrimSpace(text)
	if trimmedText == "" {
		return nil, fmt.Errorf("text for embedding cannot be empty")
	}
	if len(trimmedText) > 10000 {
		trimmedText = trimmedText[:10000]
	}

	if s.consecutiveErrors >= s.circuitBreakerMax {
		return nil, fmt.Errorf("circuit breaker open: too many consecutive errors (%d)", s.consecutiveErrors)
	}
	timeoutCtx, cancel := context.WithTimeout(ctx, s.RequestTimeout)
	defer cancel()

	content := []*genai.Content{genai.NewContentFromText(trimmedText, genai.RoleUser)}

	var lastErr error
	for attempt := 0; attempt <= s.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := s.calculateBackoff(attempt)
			log.Printf("Retry attempt %d/%d for GenerateEmbedding after %v", attempt, s.MaxRetries, delay)
			select {
			case <-time.After(delay):
			case <-timeoutCtx.Done():
				return nil, fmt.Errorf("context timeout during retry: %w", timeoutCtx.Err())
			}
		}

		result, err := s.Client.Models.EmbedContent(
			timeoutCtx,
			config.LoadGeminiConfig().EmbeddingModel,
			content,
			nil,
		)
		if err == nil {
			s.consecutiveErrors = 0
			return validateEmbeddingResponse(result)
		}

		lastErr = err
		if !s.isRetryableError(err) {
			s.consecutiveErrors++
			return nil, fmt.Errorf("generate embedding failed: %w", err)
		}
		log.Printf("Retryable error on attempt %d: %v", attempt+1, err)
	}

	s.consecutiveErrors++
	return nil, fmt.Errorf("max retries (%d) exceeded for GenerateEmbedding: %w", s.MaxRetries, lastErr)
}

func (s *QuestionService) calculateBackoff(attempt int) time.Duration {
	delay := s.BaseDelay * time.Duration(math.Pow(2, float64(attempt-1)))
	if delay > s.MaxDelay {
		delay = s.MaxDelay
	}

	jitter := time.Duration(float64(delay) * 0.25)
	delay = delay - jitter/2 + time.Duration(float64(jitter)*0.5)

	return delay
}

func (s *QuestionService) isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	errMsg := err.Error()
	if strings.Contains(errMsg, "context canceled") ||
		strings.Contains(errMsg, "context deadline exceeded") {
		return false
	}
	if apiErr, ok := err.(*genai.APIError); ok {
		switch apiErr.Code {
		case 429:
			return true
		case 500, 502, 503, 504:
			return true
		case 400, 401, 403, 404:
			return false
		}
	}

	if strings.Contains(errMsg, "connection refused") ||
		strings.Contains(errMsg, "connection reset") ||
		strings.Contains(errMsg, "timeout") ||
		strings.Contains(errMsg, "temporary failure") ||
		strings.Contains(errMsg, "EOF") {
		return true
	}

	return false
}

func validateGenerateResponse(resp *genai.GenerateContentResponse) error {
	if resp == nil {
		return fmt.Errorf("response is nil")
	}
	if len(resp.Candidates) == 0 {
		return fmt.Errorf("no candidates in response")
	}
	if resp.Candidates[0].Content == nil {
		return fmt.Errorf("candidate content is nil")
	}
	if len(resp.Candidates[0].Content.Parts) == 0 {
		return fmt.Errorf("no parts in content")
	}
	return nil
}

func validateEmbeddingResponse(resp *genai.EmbedContentResponse) ([]float32, error) {
	if resp == nil {
		return nil, fmt.Errorf("response is nil")
	}
	if len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}
	embeddings := resp.Embeddings[0].Values
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("embedding vector is empty")
	}
	for i, val := range embeddings {
		if math.IsNaN(float64(val)) || math.IsInf(float64(val), 0) {
			return nil, fmt.Errorf("invalid embedding value at index %d: %v", i, val)
		}
	}
	return embeddings, nil
}
