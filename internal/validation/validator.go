package validation

import (
	"regexp"
	"strings"

	"quiz-forge/internal/domain"
	"quiz-forge/internal/util"
)

const (
	maxTopicLength    = 200
	maxTopicKeyLength = 100
)

var (
	validULID     = regexp.MustCompile(`^[0-9A-HJKMNP-TV-Z]{26}$`)
	validTopicKey = regexp.MustCompile(`^[a-zA-Z0-9_.:-]+$`)
)

// Validator provides request validation functionality
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateGenerationRequest validates topic, difficulty and count of a generation request
func (v *Validator) ValidateGenerationRequest(topic, difficulty string, count int) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(topic) == "" {
		errors = append(errors, domain.NewMissingFieldError("topic"))
	} else if len(topic) > maxTopicLength {
		errors = append(errors, domain.NewOutOfRangeError("topic", len(topic), 1, maxTopicLength))
	}

	if strings.TrimSpace(difficulty) == "" {
		errors = append(errors, domain.NewMissingFieldError("difficulty"))
	} else if _, err := domain.ParseDifficulty(difficulty); err != nil {
		errors = append(errors, domain.NewInvalidFormatError("difficulty", difficulty))
	}

	if count < 1 || count > domain.MaxQuestionsPerRequest {
		errors = append(errors, domain.NewOutOfRangeError("count", count, 1, domain.MaxQuestionsPerRequest))
	}

	return errors
}

// ValidateTopicKey validates a topic key used to group quiz versions
func (v *Validator) ValidateTopicKey(topicKey string) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(topicKey) == "" {
		errors = append(errors, domain.NewMissingFieldError("topic_key"))
		return errors
	}
	if !isValidTopicKey(topicKey) {
		errors = append(errors, domain.NewInvalidFormatError("topic_key", topicKey))
	}

	return errors
}

// ValidateVersionID validates a quiz version ID
func (v *Validator) ValidateVersionID(id string) domain.ValidationErrors {
	var errors domain.ValidationErrors

	if strings.TrimSpace(id) == "" {
		errors = append(errors, domain.NewMissingFieldError("id"))
	} else if !isValidULID(id) {
		errors = append(errors, domain.NewInvalidFormatError("id", id))
	}

	return errors
}

// isValidULID checks if the string is a valid ULID format
func isValidULID(s string) bool {
	return validULID.MatchString(s) && util.IsULID(s)
}

// isValidTopicKey allows alphanumerics and _ . : - up to 100 characters
func isValidTopicKey(s string) bool {
	if len(s) == 0 || len(s) > maxTopicKeyLength {
		return false
	}
	return validTopicKey.MatchString(s)
}
