// cmd/historian is an asynchronous historian service that pops game actions from
// a Redis queue and persists them to PostgreSQL.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/uno/internal/cache"
	"github.com/jason-s-yu/uno/internal/config"
	"github.com/jason-s-yu/uno/internal/database"
	"github.com/jason-s-yu/uno/internal/historian"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()
	logger := logrus.New()
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.ConnectDB(ctx, cfg.DatabaseURL); err != nil {
		logger.WithError(err).Fatal("database unavailable")
	}
	defer database.Close()
	if err := database.Migrate(ctx); err != nil {
		logger.WithError(err).Fatal("migration failed")
	}

	if err := cache.ConnectRedis(cfg.RedisAddr, cfg.RedisDB); err != nil {
		logger.WithError(err).Fatal("redis unavailable")
	}
	defer cache.Rdb.Close()

	svc := historian.NewService(
		historian.RedisSource{Client: cache.Rdb, Queue: cfg.QueueName},
		historian.PostgresSink{},
		historian.Config{
			BatchSize:  cfg.HistorianBatch,
			FlushDelay: cfg.HistorianFlush,
			Inactivity: cfg.InactivityTimeout,
		},
		logger,
	)
	if err := svc.Run(ctx); err != nil {
		logger.WithError(err).Error("historian exited")
	}
	logger.Info("historian shutdown complete")
}
