// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/uno/internal/cache"
	"github.com/jason-s-yu/uno/internal/config"
	"github.com/jason-s-yu/uno/internal/database"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/jason-s-yu/uno/internal/handlers"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()

	logger := logrus.New()
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}
	if cfg.IsProduction() {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis and Postgres are optional; without them games live in memory only.
	var sessions *cache.SessionRepo
	if err := cache.ConnectRedis(cfg.RedisAddr, cfg.RedisDB); err != nil {
		logger.WithError(err).Warn("redis unavailable, sessions and history are not persisted")
		if cache.Rdb != nil {
			cache.Rdb.Close()
		}
		cache.Rdb = nil
	} else {
		cache.QueueName = cfg.QueueName
		sessions = cache.NewSessionRepo(cache.Rdb, cfg.SessionTTL)
		defer cache.Rdb.Close()
	}

	if cfg.DatabaseURL != "" {
		if err := database.ConnectDB(ctx, cfg.DatabaseURL); err != nil {
			logger.WithError(err).Warn("database unavailable, results are not recorded")
		} else {
			defer database.Close()
			if err := database.Migrate(ctx); err != nil {
				logger.WithError(err).Fatal("migration failed")
			}
		}
	}

	rules := game.DefaultHouseRules()
	rules.MaxPlayers = cfg.MaxPlayers
	rules.BotDelayMs = int(cfg.BotDelay / time.Millisecond)
	if err := rules.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid default house rules")
	}

	gs := handlers.NewGameServer(logger, game.Options{Rules: rules}, sessions)
	defer gs.Close()

	origins := cfg.AllowedOrigins
	if !cfg.IsProduction() {
		origins = []string{"*"}
	}
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handlers.NewRouter(gs, origins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Infof("Running on %s", cfg.Addr())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Fatal("server exited")
	}
}
