package domain

import (
	"fmt"
	"strings"
	"time"
)

// MaxQuestionsPerRequest bounds a single generation request.
const MaxQuestionsPerRequest = 200

// GenerationRequest is one caller request for questions.
type GenerationRequest struct {
	Topic      string
	Difficulty Difficulty
	Count      int
}

// NewGenerationRequest parses the difficulty label and validates the request.
func NewGenerationRequest(topic, difficultyLabel string, count int) (GenerationRequest, error) {
	d, err := ParseDifficulty(difficultyLabel)
	if err != nil {
		return GenerationRequest{}, err
	}
	req := GenerationRequest{Topic: strings.TrimSpace(topic), Difficulty: d, Count: count}
	if err := req.Validate(); err != nil {
		return GenerationRequest{}, err
	}
	return req, nil
}

// Validate validates the generation request
func (r GenerationRequest) Validate() error {
	if strings.TrimSpace(r.Topic) == "" {
		return NewInvalidRequestError("topic is required")
	}
	if !r.Difficulty.IsValid() {
		return NewInvalidRequestError(fmt.Sprintf("unknown difficulty: %q", r.Difficulty))
	}
	if r.Count < 1 || r.Count > MaxQuestionsPerRequest {
		return NewInvalidRequestError(fmt.Sprintf("count must be between 1 and %d, got %d", MaxQuestionsPerRequest, r.Count))
	}
	return nil
}

// GenerationOutcome tells the caller how much of a result is placeholder content.
type GenerationOutcome string

const (
	OutcomeAllGenerated    GenerationOutcome = "ALL_GENERATED"
	OutcomePartialFallback GenerationOutcome = "PARTIAL_FALLBACK"
	OutcomeFullFallback    GenerationOutcome = "FULL_FALLBACK"
)

// OutcomeFor derives the outcome from the number of placeholders in a result of total questions.
func OutcomeFor(placeholders, total int) GenerationOutcome {
	switch {
	case placeholders == 0:
		return OutcomeAllGenerated
	case placeholders >= total:
		return OutcomeFullFallback
	default:
		return OutcomePartialFallback
	}
}

// VersionStatus is the lifecycle state of a QuizVersion.
type VersionStatus string

const (
	StatusLive    VersionStatus = "LIVE"
	StatusRetired VersionStatus = "RETIRED"
)

// QuizVersion is one persisted generation of questions for a topic key.
type QuizVersion struct {
	ID         string            `json:"id"`
	TopicKey   string            `json:"topic_key"`
	Difficulty Difficulty        `json:"difficulty"`
	Outcome    GenerationOutcome `json:"outcome"`
	Status     VersionStatus     `json:"status"`
	Questions  []Question        `json:"questions,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
	RetiredAt  *time.Time        `json:"retired_at,omitempty"`
}

// NewQuizVersion creates a Live version for the given topic key.
func NewQuizVersion(topicKey string, difficulty Difficulty, questions []Question, outcome GenerationOutcome) *QuizVersion {
	now := time.Now()
	return &QuizVersion{
		TopicKey:   strings.TrimSpace(topicKey),
		Difficulty: difficulty,
		Outcome:    outcome,
		Status:     StatusLive,
		Questions:  questions,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (v *QuizVersion) IsLive() bool {
	return v.Status == StatusLive
}

// Validate validates the quiz version
func (v *QuizVersion) Validate() error {
	if v.TopicKey == "" {
		return NewInvalidRequestError("topic key is required")
	}
	if len(v.Questions) == 0 {
		return NewInvalidRequestError("a quiz version needs at least one question")
	}
	for i, q := range v.Questions {
		if err := q.Validate(); err != nil {
			return NewInvalidRequestError(fmt.Sprintf("question %d: %v", i, err))
		}
	}
	return nil
}
