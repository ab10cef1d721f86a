// Command wiastat serves the wave intensity run API and report viewer.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"wiastat/internal/config"
	"wiastat/internal/logging"
	"wiastat/internal/server"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	appConfig, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(appConfig.Logging.Level, appConfig.Logging.Format)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv, err := server.New(ctx, appConfig, logger)
	if err != nil {
		logger.Fatal("Failed to initialize server", zap.Error(err))
	}
	if err := srv.Run(ctx); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}
