package handlers

import (
	"github.com/gofiber/fiber/v3"

	"github.com/lamvh/p2prank/internal/engine"
)

type HealthHandler struct {
	engine *engine.Engine
}

func NewHealthHandler(engine *engine.Engine) *HealthHandler {
	return &HealthHandler{engine}
}

// Handles GET /api/health.
func (h *HealthHandler) Health(c fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "ok",
		"slots":  h.engine.Health(),
	})
}
