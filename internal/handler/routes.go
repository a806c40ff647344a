package handler

import (
	"quiz-forge/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the API on app.
func RegisterRoutes(app *fiber.App, quizHandler *QuizHandler, healthHandler *HealthHandler) {
	validator := middleware.NewValidationMiddleware()

	app.Get("/health", healthHandler.Check)

	api := app.Group("/api")
	api.Post("/questions/generate", quizHandler.GenerateQuestions)

	quizzes := api.Group("/quizzes")
	quizzes.Get("/", quizHandler.ListLiveQuizzes)
	quizzes.Post("/", quizHandler.CreateQuiz)
	quizzes.Get("/:topicKey", validator.ValidateTopicKey(false), quizHandler.GetLiveQuiz)

	versions := api.Group("/quiz-versions")
	versions.Get("/retired", validator.ValidateTopicKey(true), quizHandler.ListRetiredVersions)
	versions.Get("/:id", validator.ValidateVersionID(), quizHandler.GetVersion)
	versions.Post("/:id/promote", validator.ValidateVersionID(), quizHandler.PromoteVersion)
	versions.Post("/:id/restore", validator.ValidateVersionID(), quizHandler.RestoreVersion)
	versions.Delete("/:id", validator.ValidateVersionID(), quizHandler.RetireVersion)
}
