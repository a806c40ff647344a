package handler

import (
	"context"
	"time"

	"quiz-forge/internal/domain"
	"quiz-forge/internal/dto"
	"quiz-forge/internal/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const healthCheckTimeout = 3 * time.Second

// HealthHandler reports whether the store and cache are reachable
type HealthHandler struct {
	repo  domain.QuizVersionRepository
	cache domain.Cache // nil when Redis is not configured
}

func NewHealthHandler(repo domain.QuizVersionRepository, cache domain.Cache) *HealthHandler {
	return &HealthHandler{repo: repo, cache: cache}
}

// Check godoc
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Failure 503 {object} dto.HealthResponse
// @Router /health [get]
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), healthCheckTimeout)
	defer cancel()

	resp := dto.HealthResponse{Status: "ok", Database: "ok", Cache: "disabled"}
	status := fiber.StatusOK

	if err := h.repo.Ping(ctx); err != nil {
		logger.Get().Error("Database health check failed", zap.Error(err))
		resp.Database = "unavailable"
		resp.Status = "degraded"
		status = fiber.StatusServiceUnavailable
	}
	if h.cache != nil {
		resp.Cache = "ok"
		if err := h.cache.Ping(ctx); err != nil {
			logger.Get().Warn("Cache health check failed", zap.Error(err))
			resp.Cache = "unavailable"
			resp.Status = "degraded"
		}
	}
	return c.Status(status).JSON(resp)
}
