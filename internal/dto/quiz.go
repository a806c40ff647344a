package dto

import "time"

// GenerateQuestionsRequest asks for questions without persisting them
// @Description Request body for ad-hoc question generation
type GenerateQuestionsRequest struct {
	Topic      string `json:"topic"`
	Difficulty string `json:"difficulty"`
	Count      int    `json:"count"`
}

// CreateQuizRequest generates, stores and promotes a new quiz version
type CreateQuizRequest struct {
	TopicKey   string `json:"topic_key"`
	Topic      string `json:"topic,omitempty"` // defaults to TopicKey
	Difficulty string `json:"difficulty"`
	Count      int    `json:"count"`
}

// OptionResponse is one labelled answer choice
type OptionResponse struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// QuestionResponse represents a question in the API response
type QuestionResponse struct {
	Title           string           `json:"title"`
	Options         []OptionResponse `json:"options"`
	CorrectLabel    string           `json:"correct_label"`
	Explanation     string           `json:"explanation"`
	DifficultyLevel int              `json:"difficulty_level"`
	Placeholder     bool             `json:"placeholder,omitempty"`
}

// GenerateQuestionsResponse carries generated questions and how many are placeholders
type GenerateQuestionsResponse struct {
	Topic      string             `json:"topic"`
	Difficulty string             `json:"difficulty"`
	Outcome    string             `json:"outcome"`
	Questions  []QuestionResponse `json:"questions"`
}

// QuizVersionResponse represents a stored quiz version
type QuizVersionResponse struct {
	ID         string             `json:"id"`
	TopicKey   string             `json:"topic_key"`
	Difficulty string             `json:"difficulty"`
	Outcome    string             `json:"outcome"`
	Status     string             `json:"status"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
	RetiredAt  *time.Time         `json:"retired_at,omitempty"`
	Questions  []QuestionResponse `json:"questions,omitempty"`
}

// QuizVersionListResponse lists version metadata
type QuizVersionListResponse struct {
	Versions []QuizVersionResponse `json:"versions"`
	Total    int                   `json:"total"`
}

// HealthResponse reports dependency health
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Cache    string `json:"cache"`
}

// ErrorResponse represents an error in the API response
type ErrorResponse struct {
	Error string `json:"error"`
}
