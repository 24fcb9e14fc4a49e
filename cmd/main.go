package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lamvh/p2prank/api"
	"github.com/lamvh/p2prank/config"
	"github.com/lamvh/p2prank/internal/cache"
	"github.com/lamvh/p2prank/internal/engine"
	"github.com/lamvh/p2prank/internal/exchange"
	"github.com/lamvh/p2prank/internal/scheduler"
)

func main() {
	// ── 1. Logger setup
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	// ── 2. Root context setup
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── 3. Config
	cfg := config.Load()
	log.Info().Str("asset", cfg.Asset).Str("fiat", cfg.Fiat).Msg("config loaded")

	// ── 4. Marketplace adapters
	markets := []exchange.Marketplace{
		exchange.NewBinanceAdapter(cfg.Asset, cfg.Fiat, cfg.FetchRows, cfg.FetchTimeout),
		exchange.NewOKXAdapter(cfg.Asset, cfg.Fiat, cfg.FetchTimeout),
		exchange.NewBybitAdapter(cfg.Asset, cfg.Fiat, cfg.FetchRows, cfg.FetchTimeout),
	}
	log.Info().Int("count", len(markets)).Msg("marketplace adapters initialized")

	sources := make([]string, 0, len(markets))
	for _, m := range markets {
		sources = append(sources, m.Name())
	}

	// ── 5. Cache + Scheduler (initial cycle runs before serving)
	snapshots := cache.New(sources, cfg.RefreshInterval, cfg.MaxSnapshotAge)
	sched := scheduler.New(markets, snapshots, cfg.RefreshInterval)

	sched.Start(ctx)
	defer sched.Stop()

	// ── 6. Search engine
	eng := engine.New(snapshots, cfg.Asset, cfg.Fiat, cfg.TopOffers)

	// ── 7. Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "p2prank",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	// ── 8. Routes
	api.SetupRoutes(app, eng, sched)

	// ── 9. Graceful shutdown listener
	go func() {
		<-ctx.Done()
		log.Info().Msg("shutdown signal received")
		if err := app.Shutdown(); err != nil {
			log.Error().Err(err).Msg("error during shutdown")
		}
	}()

	// ── 10. Start server (blocking)
	log.Info().Str("port", cfg.AppPort).Msg("starting server")
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		log.Fatal().Err(err).Msg("server failed to start")
	}
}
