package api

import (
	"github.com/gofiber/fiber/v3"

	"github.com/lamvh/p2prank/api/handlers"
	"github.com/lamvh/p2prank/internal/engine"
	"github.com/lamvh/p2prank/internal/scheduler"
)

func SetupRoutes(app *fiber.App, eng *engine.Engine, sched *scheduler.Scheduler) {
	searchHandler := handlers.NewSearchHandler(eng)
	healthHandler := handlers.NewHealthHandler(eng)
	refreshHandler := handlers.NewRefreshHandler(sched)

	apiGroup := app.Group("/api")

	apiGroup.Get("/health", healthHandler.Health)
	apiGroup.Post("/search", searchHandler.Search)
	apiGroup.Post("/refresh", refreshHandler.Refresh)
}
