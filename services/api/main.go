package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/02loveslollipop/spaarnelanden-watcher/internal/logging"
	"github.com/02loveslollipop/spaarnelanden-watcher/services/api/config"
	"github.com/02loveslollipop/spaarnelanden-watcher/services/api/db"
	httpserver "github.com/02loveslollipop/spaarnelanden-watcher/services/api/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallback := logging.New("info", logging.FormatConsole, os.Stderr)
		fallback.Fatal().Err(err).Msg("config error")
	}
	logger := logging.Component(logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr), "api")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("db connection error")
	}
	defer store.Close()

	srv := httpserver.New(cfg, store)
	logger.Info().Str("addr", cfg.ListenAddr()).Msg("readings API listening")

	if err := srv.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}
