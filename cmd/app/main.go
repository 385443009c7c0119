package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"plandera/internal/api/v1/router"
	"plandera/internal/config"
	"plandera/internal/logger"
	"plandera/internal/service"

	"github.com/joho/godotenv"
)

// @title Plandera Billing API
// @version 1.0
// @description Subscription billing backend for the Plandera calendar.
// @host localhost:8080
// @BasePath /v1
// @Schemes http https

func main() {
	logger := logger.New()

	// 1. Load configuration
	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}

	// 2. Connect backends and build services
	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	container, err := service.NewContainer(startCtx, cfg, logger)
	cancelStart()
	if err != nil {
		logger.Fatal().Msgf("Failed to initialize services: %v", err)
	}
	defer container.Close()

	// 3. Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router.New(cfg, router.FromContainer(container), logger),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 4. Start server in a goroutine
	go func() {
		logger.Info().Msgf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Msgf("Listen: %s", err)
		}
	}()

	// 5. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("Shutdown signal received, exiting...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
		return
	}
	logger.Info().Msg("Server shut down gracefully")
}
