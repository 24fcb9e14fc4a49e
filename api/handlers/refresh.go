package handlers

import (
	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/lamvh/p2prank/internal/scheduler"
)

type RefreshHandler struct {
	scheduler *scheduler.Scheduler
}

func NewRefreshHandler(scheduler *scheduler.Scheduler) *RefreshHandler {
	return &RefreshHandler{scheduler}
}

// Handles POST /api/refresh. Fire-and-forget: the cycle runs in the
// background while the request returns immediately.
func (h *RefreshHandler) Refresh(c fiber.Ctx) error {
	log.Info().Msg("on-demand refresh triggered")
	h.scheduler.Trigger()

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status": "refresh started",
	})
}
