package quizgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"quiz-forge/internal/config"
	"quiz-forge/internal/domain"

	"github.com/tmc/langchaingo/llms"
	"go.uber.org/zap"
)

const questionPromptTemplate = `You are writing multiple-choice quiz questions.

Topic: %s
Difficulty: %s
Number of questions: %d

Each question has exactly four options and one correct answer.
Respond with a JSON array of %d objects and nothing else. Each object must have these keys:
- "title": the question text
- "option_A", "option_B", "option_C", "option_D": the four options
- "correct_answer": the letter of the correct option (A, B, C or D)
- "explanation_text": why the correct option is right
- "difficulty": one of beginner, intermediate, advanced, master

Example:
[{"title": "...", "option_A": "...", "option_B": "...", "option_C": "...", "option_D": "...", "correct_answer": "B", "explanation_text": "...", "difficulty": "beginner"}]`

var errNoJSONPayload = errors.New("no JSON payload in model response")

// LLMQuestionBackend generates raw quiz items through a langchaingo model.
type LLMQuestionBackend struct {
	model       llms.Model
	temperature float64
	timeout     time.Duration
	logger      *zap.Logger
}

// NewLLMQuestionBackend creates a QuestionBackend backed by model.
func NewLLMQuestionBackend(model llms.Model, cfg config.LLMConfig, logger *zap.Logger) *LLMQuestionBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMQuestionBackend{
		model:       model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		logger:      logger,
	}
}

// GenerateBatch implements domain.QuestionBackend.
func (g *LLMQuestionBackend) GenerateBatch(ctx context.Context, topic string, difficultyLabel string, count int) ([]domain.RawGeneratedItem, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	prompt := fmt.Sprintf(questionPromptTemplate, topic, difficultyLabel, count, count)
	g.logger.Debug("Sending quiz generation prompt",
		zap.String("topic", topic),
		zap.String("difficulty", difficultyLabel),
		zap.Int("count", count),
	)

	response, err := llms.GenerateFromSinglePrompt(ctx, g.model, prompt, llms.WithTemperature(g.temperature))
	if err != nil {
		g.logger.Error("LLM call failed", zap.String("topic", topic), zap.Error(err))
		return nil, domain.NewBackendUnavailableError(fmt.Errorf("llm call: %w", err))
	}

	items, err := ParseItems(response)
	if err != nil {
		g.logger.Error("Failed to parse LLM response",
			zap.String("topic", topic),
			zap.String("raw_response", response),
			zap.Error(err),
		)
		return nil, domain.NewBackendUnavailableError(err)
	}

	g.logger.Debug("LLM returned quiz items", zap.String("topic", topic), zap.Int("items", len(items)))
	return items, nil
}

// ParseItems extracts raw items from a model response. It accepts a bare JSON array, an
// object wrapping the array under "questions", or a single object.
func ParseItems(response string) ([]domain.RawGeneratedItem, error) {
	cleaned := stripThinkBlock(strings.TrimSpace(response))
	cleaned = stripCodeFence(cleaned)

	arrStart := strings.Index(cleaned, "[")
	objStart := strings.Index(cleaned, "{")

	var values []any
	switch {
	case arrStart != -1 && (objStart == -1 || arrStart < objStart):
		end := strings.LastIndex(cleaned, "]")
		if end <= arrStart {
			return nil, errNoJSONPayload
		}
		if err := json.Unmarshal([]byte(cleaned[arrStart:end+1]), &values); err != nil {
			return nil, fmt.Errorf("decode item array: %w", err)
		}
	case objStart != -1:
		end := strings.LastIndex(cleaned, "}")
		if end <= objStart {
			return nil, errNoJSONPayload
		}
		var obj map[string]any
		if err := json.Unmarshal([]byte(cleaned[objStart:end+1]), &obj); err != nil {
			return nil, fmt.Errorf("decode item object: %w", err)
		}
		if wrapped, ok := obj["questions"].([]any); ok {
			values = wrapped
		} else {
			values = []any{obj}
		}
	default:
		return nil, errNoJSONPayload
	}

	items := make([]domain.RawGeneratedItem, len(values))
	for i, v := range values {
		items[i] = domain.DecodeRawItem(v)
	}
	return items, nil
}

// stripThinkBlock removes a leading <think>...</think> section emitted by reasoning models.
func stripThinkBlock(s string) string {
	start := strings.Index(s, "<think>")
	if start == -1 {
		return s
	}
	end := strings.Index(s, "</think>")
	if end == -1 || end < start {
		return s
	}
	return strings.TrimSpace(s[:start] + s[end+len("</think>"):])
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.Index(s, "\n"); nl != -1 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}
