package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Freeeeeet/school_scheduler/internal/app"
	"github.com/Freeeeeet/school_scheduler/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := app.NewLogger(cfg.Environment, cfg.LogLevel)
	defer logger.Sync()

	logger.Info("Starting school scheduler",
		zap.String("environment", cfg.Environment),
		zap.String("reference_tz", cfg.ReferenceTZ),
		zap.Bool("telegram", cfg.TelegramToken != ""),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg, logger); err != nil {
		logger.Error("Application stopped with error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("Application stopped")
}
