package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"perf-kpi-service/internal/app"
	"perf-kpi-service/internal/config"
	"perf-kpi-service/internal/info"
	"perf-kpi-service/internal/platform/logging"

	kpiHttp "perf-kpi-service/internal/kpi/adapters/http/fiber"
	quarterHttp "perf-kpi-service/internal/quarter/adapters/http/fiber"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberSwagger "github.com/swaggo/fiber-swagger"

	_ "perf-kpi-service/docs"
)

// @title perf-kpi-service API
// @version 1.0
// @description Computes performance KPIs, stores them and publishes quarterly rollups.
// @BasePath /
func main() {
	startedAt := time.Now()

	// Config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.ServiceName)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Stores, clients and usecases
	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("failed to start: %v", err)
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Error("close_failed", slog.Any("err", err))
		}
	}()

	// HTTP (Fiber) app + handlers
	srv := fiber.New(fiber.Config{
		AppName:               cfg.ServiceName,
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		// a full ALL run waits on several upstream queries
		WriteTimeout: 5 * time.Minute,
	})

	// kpi endpoints
	kpiHandler := kpiHttp.NewKpiHandler(a.Collect)
	srv.Get("/collect", kpiHandler.Collect)
	srv.Post("/collect", kpiHandler.Collect)
	srv.Get("/collect/perf-02e", kpiHandler.CollectHourly)
	srv.Post("/collect/perf-02e", kpiHandler.CollectHourly)

	// quarter endpoints
	quarterHandler := quarterHttp.NewQuarterHandler(a.Aggregate)
	srv.Post("/quarter/:quarter", quarterHandler.Aggregate)
	srv.Get("/quarter/:quarter", quarterHandler.Aggregate)

	infoHandler := info.NewHandler(cfg.ServiceName, cfg.Version, cfg.Environment, string(cfg.WindowMode()), startedAt)
	srv.Get("/info", infoHandler.GetInfo)

	srv.Get("/metrics", adaptor.HTTPHandler(a.Metrics.Handler()))

	// Swagger
	srv.Get("/docs/*", fiberSwagger.WrapHandler)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("server_started", slog.String("addr", cfg.HTTPAddr))
		return srv.Listen(cfg.HTTPAddr)
	})

	if cfg.Schedule.Enabled {
		g.Go(func() error {
			return a.Scheduler.Run(gctx)
		})
	}

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting_down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server_stopped", slog.Any("err", err))
	}

	logger.Info("server_exiting")
}
