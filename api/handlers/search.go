package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/lamvh/p2prank/internal/engine"
)

type SearchHandler struct {
	engine *engine.Engine
}

func NewSearchHandler(engine *engine.Engine) *SearchHandler {
	return &SearchHandler{engine}
}

type searchRequest struct {
	Action   string  `json:"action"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// Handles POST /api/search.
func (h *SearchHandler) Search(c fiber.Ctx) error {
	var req searchRequest
	if err := c.Bind().Body(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	result, err := h.engine.Search(req.Action, req.Amount, req.Currency)
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrUnavailable):
			log.Warn().Err(err).Msg("search unavailable")
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error":   "service temporarily unavailable, please try again in a moment",
				"details": err.Error(),
			})
		default:
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
	}

	log.Info().
		Str("action", req.Action).
		Float64("amount", req.Amount).
		Str("currency", req.Currency).
		Int("offers", len(result.Offers)).
		Msg("search served")

	return c.Status(fiber.StatusOK).JSON(result)
}
