// Command api is the Matchweek API server.
//
// Usage:
//
//	matchweek-api
//	API_PORT=8080 matchweek-api

// @title Matchweek API
// @version 1.0.0
// @description Weekly football prediction game backend: fixture/result sync from football-data.org, Thursday-to-Wednesday prediction windows, and 3/1/0 weekly scoring.
// @host localhost:8000
// @BasePath /
// @schemes http https
// @license.name MIT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/matchweek/matchweek/internal/api"
	"github.com/matchweek/matchweek/internal/api/handler"
	"github.com/matchweek/matchweek/internal/cache"
	"github.com/matchweek/matchweek/internal/config"
	"github.com/matchweek/matchweek/internal/cycle"
	"github.com/matchweek/matchweek/internal/db"
	"github.com/matchweek/matchweek/internal/group"
	"github.com/matchweek/matchweek/internal/match"
	"github.com/matchweek/matchweek/internal/predict"
	"github.com/matchweek/matchweek/internal/provider/fd"
	"github.com/matchweek/matchweek/internal/scoring"
	msync "github.com/matchweek/matchweek/internal/sync"
	"github.com/matchweek/matchweek/internal/window"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	loc, degraded := cfg.Location()
	if degraded {
		logger.Warn("Time zone unavailable, window math falls back to UTC", "zone", cfg.Timezone)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Connect to database
	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	// Initialize cache
	appCache := cache.New(cfg.CacheEnabled)
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled)

	// Core wiring
	calc := window.NewCalculator(loc, cfg.CycleHour)
	matches := match.NewStore(pool.Pool)
	preds := predict.NewStore(pool.Pool)
	groups := group.NewStore(pool.Pool)

	client := fd.NewClient(fd.DefaultBaseURL, cfg.FDAPIToken, cfg.FDRequestsPerMinute, logger)
	syncer := msync.New(client, matches, loc, cfg.Competition, cfg.SeasonLabel, logger)

	gate := predict.NewGate(calc, matches, preds, groups, cfg.DevPredictionBypass, logger)
	engine := scoring.NewEngine(pool.Pool, logger)

	marker := cycle.NewStore(pool.Pool)
	runner := cycle.NewRunner(syncer, engine, groups, marker, loc, cfg.CycleHour, logger)

	// Start the weekly cycle scheduler
	if cfg.CycleEnabled {
		go runner.Start(ctx)
	} else {
		logger.Info("Weekly cycle scheduler disabled (CYCLE_ENABLED=false)")
	}

	// Create router
	h := handler.New(handler.Deps{
		Pool:    pool.Pool,
		Cache:   appCache,
		Cfg:     cfg,
		Calc:    calc,
		Gate:    gate,
		Engine:  engine,
		Syncer:  syncer,
		Matches: matches,
		Preds:   preds,
		Groups:  groups,
		Runner:  runner,
	})
	router := api.NewRouter(h, cfg)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting Matchweek API",
			"addr", addr,
			"environment", cfg.Environment,
			"zone", loc.String())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}
