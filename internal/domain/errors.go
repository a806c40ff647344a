package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorCode represents a specific type of error in the domain
type ErrorCode string

const (
	// Common errors
	CodeInternal     ErrorCode = "INTERNAL_ERROR"
	CodeInvalidInput ErrorCode = "INVALID_REQUEST"
	CodeValidation   ErrorCode = "VALIDATION_ERROR"

	// Generation errors
	CodeBackendUnavailable ErrorCode = "BACKEND_UNAVAILABLE"
	CodeMalformedItem      ErrorCode = "MALFORMED_ITEM"

	// Lifecycle errors
	CodeVersionNotFound             ErrorCode = "VERSION_NOT_FOUND"
	CodeConcurrentPromotionConflict ErrorCode = "CONCURRENT_PROMOTION_CONFLICT"
)

// Sentinels for errors.Is matching by code.
var (
	ErrInvalidRequest              = &DomainError{Code: CodeInvalidInput, Message: "invalid request"}
	ErrBackendUnavailable          = &DomainError{Code: CodeBackendUnavailable, Message: "generation backend unavailable"}
	ErrMalformedItem               = &DomainError{Code: CodeMalformedItem, Message: "malformed generated item"}
	ErrVersionNotFound             = &DomainError{Code: CodeVersionNotFound, Message: "quiz version not found"}
	ErrConcurrentPromotionConflict = &DomainError{Code: CodeConcurrentPromotionConflict, Message: "concurrent promotion in progress"}
)

// ErrTopicLocked is returned by a TopicLocker when another holder owns the topic lock.
var ErrTopicLocked = errors.New("topic lock is held by another promotion")

// DomainError represents a domain-specific error
type DomainError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"-"`
	Err     error                  `json:"-"`
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is reports whether target is a DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// MarshalJSON implements the json.Marshaler interface
func (e *DomainError) MarshalJSON() ([]byte, error) {
	return json.Marshal(&struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}{
		Code:    string(e.Code),
		Message: e.Message,
	})
}

// NewError creates a new DomainError
func NewError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// WithContext attaches a key/value pair surfaced in error responses.
func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// Helper functions for common errors
func NewInvalidRequestError(message string) *DomainError {
	return NewError(CodeInvalidInput, message, nil)
}

func NewInternalError(message string, err error) *DomainError {
	return NewError(CodeInternal, message, err)
}

func NewBackendUnavailableError(err error) *DomainError {
	return NewError(CodeBackendUnavailable, "Generation backend unavailable", err)
}

func NewMalformedItemError(reason string) *DomainError {
	return NewError(CodeMalformedItem, fmt.Sprintf("Malformed generated item: %s", reason), nil)
}

func NewVersionNotFoundError(versionID string) *DomainError {
	return NewError(CodeVersionNotFound, fmt.Sprintf("Quiz version not found with ID: %s", versionID), nil).
		WithContext("version_id", versionID)
}

func NewLiveVersionNotFoundError(topicKey string) *DomainError {
	return NewError(CodeVersionNotFound, fmt.Sprintf("No live quiz version for topic: %s", topicKey), nil).
		WithContext("topic_key", topicKey)
}

func NewConcurrentPromotionError(topicKey string, err error) *DomainError {
	return NewError(CodeConcurrentPromotionConflict, fmt.Sprintf("Promotion for topic %q is already in progress", topicKey), err).
		WithContext("topic_key", topicKey)
}

// ValidationError describes one invalid request field.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects field errors for a single request.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	switch len(v) {
	case 0:
		return "validation failed"
	case 1:
		return fmt.Sprintf("validation failed: %s", v[0].Error())
	}
	return fmt.Sprintf("validation failed: %s (and %d more)", v[0].Error(), len(v)-1)
}

func NewMissingFieldError(field string) ValidationError {
	return ValidationError{Field: field, Message: "field is required"}
}

func NewInvalidFormatError(field string, value interface{}) ValidationError {
	return ValidationError{Field: field, Message: "invalid format", Value: value}
}

func NewOutOfRangeError(field string, value interface{}, min, max int) ValidationError {
	return ValidationError{Field: field, Message: fmt.Sprintf("must be between %d and %d", min, max), Value: value}
}
