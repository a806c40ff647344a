package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_IsMatchesByCode(t *testing.T) {
	err := NewVersionNotFoundError("01HZX3J9Q8W4E5R6T7Y8V9K0MN")
	wrapped := fmt.Errorf("promote: %w", err)

	assert.ErrorIs(t, wrapped, ErrVersionNotFound)
	assert.NotErrorIs(t, wrapped, ErrInvalidRequest)
	assert.ErrorIs(t, NewLiveVersionNotFoundError("go"), ErrVersionNotFound)
}

func TestDomainError_UnwrapAndMessage(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := NewBackendUnavailableError(cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "Generation backend unavailable: dial tcp: connection refused", err.Error())
	assert.Equal(t, "topic lock is held by another promotion", ErrTopicLocked.Error())
}

func TestDomainError_Context(t *testing.T) {
	err := NewConcurrentPromotionError("chemistry", ErrTopicLocked)

	assert.Equal(t, "chemistry", err.Context["topic_key"])
	assert.ErrorIs(t, err, ErrTopicLocked)
}

func TestValidationErrors_Error(t *testing.T) {
	assert.Equal(t, "validation failed", ValidationErrors{}.Error())
	assert.Equal(t, "validation failed: topic: field is required",
		ValidationErrors{NewMissingFieldError("topic")}.Error())
	assert.Equal(t, "validation failed: topic: field is required (and 1 more)",
		ValidationErrors{NewMissingFieldError("topic"), NewOutOfRangeError("count", 0, 1, 200)}.Error())
}
