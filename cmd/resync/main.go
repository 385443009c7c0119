// Command resync pulls subscription state from Stripe for one user or for
// every user with a Stripe customer, for recovery after missed webhooks.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"plandera/internal/config"
	"plandera/internal/logger"
	"plandera/internal/service"

	"github.com/joho/godotenv"
)

func main() {
	mode := flag.String("mode", "", "Resync mode: user|all")
	userID := flag.String("user", "", "User ID to resync (mode=user)")
	flag.Parse()

	logger := logger.New()

	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("Warning: no .env file found")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Msgf("Error loading config: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	container, err := service.NewContainer(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Msgf("Failed to initialize services: %v", err)
	}
	defer container.Close()

	var res *service.SyncResult
	switch *mode {
	case "user":
		if *userID == "" {
			logger.Fatal().Msg("-user is required with -mode=user")
		}
		res, err = container.Sync.SyncUser(ctx, *userID)
	case "all":
		res, err = container.Sync.SyncAll(ctx)
	default:
		logger.Fatal().Msgf("Invalid mode: %s", *mode)
	}
	if err != nil {
		logger.Error().Err(err).Msg("Resync failed")
		container.Close()
		os.Exit(1)
	}

	logger.Info().Int("synced", res.SyncedCount).Strs("errors", res.Errors).Msg("Resync finished")
	if len(res.Errors) > 0 {
		container.Close()
		os.Exit(2)
	}
}
