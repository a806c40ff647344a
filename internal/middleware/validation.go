package middleware

import (
	"quiz-forge/internal/validation"

	"github.com/gofiber/fiber/v2"
)

const (
	LocalVersionID = "validated_version_id"
	LocalTopicKey  = "validated_topic_key"
)

// ValidationMiddleware provides request validation middleware
type ValidationMiddleware struct {
	validator *validation.Validator
}

// NewValidationMiddleware creates a new validation middleware instance
func NewValidationMiddleware() *ValidationMiddleware {
	return &ValidationMiddleware{
		validator: validation.NewValidator(),
	}
}

// ValidateVersionID validates the :id path parameter
func (vm *ValidationMiddleware) ValidateVersionID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if errors := vm.validator.ValidateVersionID(id); len(errors) > 0 {
			return errors // handled by ErrorHandler
		}
		c.Locals(LocalVersionID, id)
		return c.Next()
	}
}

// ValidateTopicKey validates the :topicKey path parameter, or the topic_key query
// parameter when optional is set and a value is given.
func (vm *ValidationMiddleware) ValidateTopicKey(optional bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		topicKey := c.Params("topicKey")
		if topicKey == "" {
			topicKey = c.Query("topic_key")
		}
		if topicKey == "" && optional {
			return c.Next()
		}

		if errors := vm.validator.ValidateTopicKey(topicKey); len(errors) > 0 {
			return errors
		}
		c.Locals(LocalTopicKey, topicKey)
		return c.Next()
	}
}
