package handlers

import (
	"context"
	"time"

	"github.com/amirphl/operator-ranking/app/dto"
	"github.com/gofiber/fiber/v3"
)

// HealthChecker reports whether one dependency is reachable
type HealthChecker func(ctx context.Context) error

// HealthHandler reports process and dependency health
type HealthHandler struct {
	baseHandler
	version  string
	checkers map[string]HealthChecker
}

func NewHealthHandler(version string, checkers map[string]HealthChecker) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(),
		version:     version,
		checkers:    checkers,
	}
}

// Health reports "ok" when every dependency answers, "degraded" otherwise.
// Rankings keep working on demo data while degraded.
// @Summary Health check
// @Tags Health
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.HealthResponse} "Service health"
// @Router /api/v1/health [get]
func (h *HealthHandler) Health(c fiber.Ctx) error {
	ctx, cancel := h.createRequestContextWithTimeout(c, "/api/v1/health", 5*time.Second)
	defer cancel()

	status := "ok"
	services := make(map[string]string, len(h.checkers))
	for name, check := range h.checkers {
		if check == nil {
			services[name] = "disabled"
			continue
		}
		if err := check(ctx); err != nil {
			services[name] = "down"
			status = "degraded"
			continue
		}
		services[name] = "up"
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Service is running", dto.HealthResponse{
		Status:   status,
		Version:  h.version,
		Time:     time.Now().UTC().Format(time.RFC3339),
		Services: services,
	})
}
