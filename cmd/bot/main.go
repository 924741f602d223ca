package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"kinokod/internal/bot"
	"kinokod/internal/config"
	"kinokod/internal/logger"
	"kinokod/internal/storage"
)

func main() {
	_ = godotenv.Load()
	isDev := os.Getenv("ENV") == "development"
	if err := logger.Init(isDev); err != nil {
		panic(err)
	}
	defer logger.Sync()

	log := logger.L()
	cfg := config.Load(log)

	store, err := storage.New(cfg.DatabaseDSN, log)
	if err != nil {
		log.Fatal("failed to init storage", zap.Error(err))
	}
	defer store.Close()

	b, err := bot.New(cfg, log, store)
	if err != nil {
		log.Fatal("failed to create bot", zap.Error(err))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := b.Run(ctx); err != nil {
		log.Fatal("bot stopped with error", zap.Error(err))
	}
	log.Info("shutting down gracefully")
}
