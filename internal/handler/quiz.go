package handler

import (
	"quiz-forge/internal/dto"
	"quiz-forge/internal/logger"
	"quiz-forge/internal/middleware"
	"quiz-forge/internal/service"
	"quiz-forge/internal/validation"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// QuizHandler handles quiz-related HTTP requests
type QuizHandler struct {
	service   service.QuizService
	validator *validation.Validator
}

// NewQuizHandler creates a new QuizHandler instance
func NewQuizHandler(service service.QuizService) *QuizHandler {
	return &QuizHandler{
		service:   service,
		validator: validation.NewValidator(),
	}
}

// GenerateQuestions godoc
// @Summary Generate questions
// @Description Generates questions for a topic without storing them
// @Tags questions
// @Accept json
// @Produce json
// @Param request body dto.GenerateQuestionsRequest true "Generation request"
// @Success 200 {object} dto.GenerateQuestionsResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /questions/generate [post]
func (h *QuizHandler) GenerateQuestions(c *fiber.Ctx) error {
	var req dto.GenerateQuestionsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if errs := h.validator.ValidateGenerationRequest(req.Topic, req.Difficulty, req.Count); len(errs) > 0 {
		return errs
	}

	resp, err := h.service.GenerateQuestions(c.UserContext(), &req)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// CreateQuiz godoc
// @Summary Create a quiz version
// @Description Generates questions for a topic key, stores them and makes them the Live version
// @Tags quizzes
// @Accept json
// @Produce json
// @Param request body dto.CreateQuizRequest true "Quiz request"
// @Success 201 {object} dto.QuizVersionResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Failure 503 {object} middleware.ErrorResponse
// @Router /quizzes [post]
func (h *QuizHandler) CreateQuiz(c *fiber.Ctx) error {
	var req dto.CreateQuizRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	errs := h.validator.ValidateTopicKey(req.TopicKey)
	topic := req.Topic
	if topic == "" {
		topic = req.TopicKey
	}
	errs = append(errs, h.validator.ValidateGenerationRequest(topic, req.Difficulty, req.Count)...)
	if len(errs) > 0 {
		return errs
	}

	resp, err := h.service.CreateQuiz(c.UserContext(), &req)
	if err != nil {
		return err
	}
	logger.Get().Info("Created quiz version",
		zap.String("version_id", resp.ID),
		zap.String("topic_key", resp.TopicKey),
		zap.String("outcome", resp.Outcome),
	)
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// GetLiveQuiz godoc
// @Summary Get the Live quiz
// @Description Returns the Live version of a topic key with its questions
// @Tags quizzes
// @Produce json
// @Param topicKey path string true "Topic key"
// @Success 200 {object} dto.QuizVersionResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /quizzes/{topicKey} [get]
func (h *QuizHandler) GetLiveQuiz(c *fiber.Ctx) error {
	topicKey, _ := c.Locals(middleware.LocalTopicKey).(string)
	resp, err := h.service.GetLiveQuiz(c.UserContext(), topicKey)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// ListLiveQuizzes godoc
// @Summary List Live quizzes
// @Description Returns the metadata of every Live version across topic keys
// @Tags quizzes
// @Produce json
// @Success 200 {object} dto.QuizVersionListResponse
// @Failure 500 {object} middleware.ErrorResponse
// @Router /quizzes [get]
func (h *QuizHandler) ListLiveQuizzes(c *fiber.Ctx) error {
	resp, err := h.service.ListLiveQuizzes(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// GetVersion godoc
// @Summary Get a quiz version
// @Description Returns one version with its questions, Live or retired
// @Tags quiz-versions
// @Produce json
// @Param id path string true "Version ID"
// @Success 200 {object} dto.QuizVersionResponse
// @Failure 400 {object} middleware.ValidationErrorResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /quiz-versions/{id} [get]
func (h *QuizHandler) GetVersion(c *fiber.Ctx) error {
	id, _ := c.Locals(middleware.LocalVersionID).(string)
	resp, err := h.service.GetVersion(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// PromoteVersion godoc
// @Summary Promote a quiz version
// @Description Makes a version the only Live version of its topic key
// @Tags quiz-versions
// @Produce json
// @Param id path string true "Version ID"
// @Success 200 {object} dto.QuizVersionResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Failure 409 {object} middleware.ErrorResponse
// @Router /quiz-versions/{id}/promote [post]
func (h *QuizHandler) PromoteVersion(c *fiber.Ctx) error {
	id, _ := c.Locals(middleware.LocalVersionID).(string)
	resp, err := h.service.PromoteVersion(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// RestoreVersion godoc
// @Summary Restore a retired quiz version
// @Tags quiz-versions
// @Produce json
// @Param id path string true "Version ID"
// @Success 200 {object} dto.QuizVersionResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /quiz-versions/{id}/restore [post]
func (h *QuizHandler) RestoreVersion(c *fiber.Ctx) error {
	id, _ := c.Locals(middleware.LocalVersionID).(string)
	resp, err := h.service.RestoreVersion(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// RetireVersion godoc
// @Summary Retire a quiz version
// @Tags quiz-versions
// @Produce json
// @Param id path string true "Version ID"
// @Success 200 {object} dto.QuizVersionResponse
// @Failure 404 {object} middleware.ErrorResponse
// @Router /quiz-versions/{id} [delete]
func (h *QuizHandler) RetireVersion(c *fiber.Ctx) error {
	id, _ := c.Locals(middleware.LocalVersionID).(string)
	resp, err := h.service.RetireVersion(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// ListRetiredVersions godoc
// @Summary List retired quiz versions
// @Tags quiz-versions
// @Produce json
// @Param topic_key query string false "Topic key"
// @Success 200 {object} dto.QuizVersionListResponse
// @Router /quiz-versions/retired [get]
func (h *QuizHandler) ListRetiredVersions(c *fiber.Ctx) error {
	topicKey, _ := c.Locals(middleware.LocalTopicKey).(string)
	resp, err := h.service.ListRetiredVersions(c.UserContext(), topicKey)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}
