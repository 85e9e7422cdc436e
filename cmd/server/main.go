package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rebellion/internal/app"
	"rebellion/internal/config"
	"rebellion/internal/store"
	httpTransport "rebellion/internal/transport/http"
)

func main() {
	// Load configuration
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("failed to load .env", "error", err)
		os.Exit(1)
	}
	cfg := config.Load()

	// Set up logger
	level := parseLogLevel(cfg.Logging.Level)
	if cfg.Tracker.Debug {
		level = slog.LevelDebug
	}

	var logger *slog.Logger
	logOpts := &slog.HandlerOptions{
		Level: level,
	}

	if cfg.Logging.Format == "json" {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, logOpts))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stdout, logOpts))
	}

	slog.SetDefault(logger)

	settings, err := cfg.Tracker.Settings()
	if err != nil {
		logger.Error("invalid tracker settings", "error", err)
		os.Exit(1)
	}

	logger.Info("starting rebellion tracker",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
		"enabled", settings.Enabled,
		"threshold", settings.RebellionThreshold,
		"storage", cfg.Storage.Dialect,
	)

	// Open incident journal
	openCtx, openCancel := context.WithTimeout(context.Background(), 15*time.Second)
	incidents, err := store.Open(openCtx, cfg.Storage)
	openCancel()
	if err != nil {
		logger.Error("failed to open incident store", "error", err)
		os.Exit(1)
	}
	defer incidents.Close()

	// Create bridge hub
	hub := app.NewBridgeHub(settings, incidents, cfg.Bridge.StaleSessionTimeout, logger)
	defer hub.Close()

	if cfg.Bridge.TokenHash == "" {
		logger.Warn("BRIDGE_TOKEN_HASH is empty, host bridges are not authenticated")
	}

	// Create HTTP server
	server := httpTransport.NewServer(cfg, hub, incidents, logger)

	// Start server in goroutine
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server stopped")
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
